package service

import (
	"bytes"
	"html/template"
	"time"

	"github.com/dtc-ibs/borrowing-api/internal/core/ports"
)

var verificationTmpl = template.Must(template.New("verify").Parse(`<h2>Confirm your email</h2>
<p>Use the link below to activate your equipment borrowing account. It expires in 24 hours.</p>
<p><a href="{{.Link}}">Verify my email</a></p>
<p>If you did not sign up, ignore this message.</p>`))

var loginTmpl = template.Must(template.New("login").Parse(`<h2>New login</h2>
<ul>
<li><strong>User:</strong> {{.Email}}</li>
<li><strong>Time:</strong> {{.Time}}</li>
<li><strong>IP address:</strong> {{.IP}}</li>
<li><strong>Device:</strong> {{.UserAgent}}</li>
</ul>`))

func verificationMessage(to, link string) (ports.Message, error) {
	var buf bytes.Buffer
	if err := verificationTmpl.Execute(&buf, struct{ Link string }{link}); err != nil {
		return ports.Message{}, err
	}
	return ports.Message{To: to, Subject: "Verify your email address", HTML: buf.String()}, nil
}

func loginNotificationMessage(to, email string, at time.Time, meta ports.LoginMeta) (ports.Message, error) {
	data := struct {
		Email     string
		Time      string
		IP        string
		UserAgent string
	}{
		Email:     email,
		Time:      at.Format(time.RFC1123),
		IP:        orUnknown(meta.IP),
		UserAgent: orUnknown(meta.UserAgent),
	}

	var buf bytes.Buffer
	if err := loginTmpl.Execute(&buf, data); err != nil {
		return ports.Message{}, err
	}
	return ports.Message{To: to, Subject: "Login notification: " + email, HTML: buf.String()}, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
