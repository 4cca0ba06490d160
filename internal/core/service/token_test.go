package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
)

func TestTokenManager_IssueAndParse(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	token, err := m.Issue(&domain.Account{ID: 42, Email: "a@example.com", Role: domain.RoleAdmin})
	require.NoError(t, err)

	session, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), session.AccountID)
	assert.Equal(t, "a@example.com", session.Email)
	assert.Equal(t, domain.RoleAdmin, session.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)
}

func TestTokenManager_DefaultTTL(t *testing.T) {
	m := NewTokenManager("secret", 0)
	assert.Equal(t, 24*time.Hour, m.ttl)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	token, err := m.Issue(&domain.Account{ID: 1, Email: "a@example.com", Role: domain.RoleUser})
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.Parse(token)
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
}

func TestTokenManager_RejectsWrongSecretAndAlgorithm(t *testing.T) {
	other := NewTokenManager("other", time.Hour)
	token, err := other.Issue(&domain.Account{ID: 1, Email: "a@example.com", Role: domain.RoleUser})
	require.NoError(t, err)

	m := NewTokenManager("secret", time.Hour)
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id":   1,
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Parse(unsigned)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = m.Parse("")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestTokenManager_RejectsUnknownRole(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   1,
		"role": "superuser",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Hour).Parse(signed)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestGate_Authorize(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	gate := NewGate(m)
	userToken, err := m.Issue(&domain.Account{ID: 1, Email: "u@example.com", Role: domain.RoleUser})
	require.NoError(t, err)
	adminToken, err := m.Issue(&domain.Account{ID: 2, Email: "a@example.com", Role: domain.RoleAdmin})
	require.NoError(t, err)

	_, err = gate.Authorize("", domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = gate.Authorize("garbage", domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = gate.Authorize(userToken, domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	session, err := gate.Authorize(adminToken, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), session.AccountID)

	session, err = gate.Authorize(userToken, "")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, session.Role)
}
