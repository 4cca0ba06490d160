package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dtc-ibs/borrowing-api/internal/core/ports"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []ports.Message
	err  error
	done chan struct{}
}

func (m *recordingMailer) Send(_ context.Context, msg ports.Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	if m.done != nil {
		m.done <- struct{}{}
	}
	return m.err
}

func (m *recordingMailer) messages() []ports.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.Message(nil), m.sent...)
}

func TestDispatcher_DeliversInOrderPerRecipient(t *testing.T) {
	mailer := &recordingMailer{done: make(chan struct{}, 16)}
	d := NewDispatcher(4, mailer, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for _, s := range []string{"1", "2", "3"} {
		d.Notify(ports.Message{To: "admin@example.com", Subject: s})
	}
	for range 3 {
		select {
		case <-mailer.done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for delivery")
		}
	}
	cancel()
	d.Wait()

	got := mailer.messages()
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	for i, want := range []string{"1", "2", "3"} {
		if got[i].Subject != want {
			t.Errorf("message %d: expected subject %s, got %s", i, want, got[i].Subject)
		}
	}
}

func TestDispatcher_SendErrorIsSwallowed(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("smtp down"), done: make(chan struct{}, 1)}
	d := NewDispatcher(1, mailer, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Notify(ports.Message{To: "admin@example.com"})
	select {
	case <-mailer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery attempt")
	}
	cancel()
	d.Wait()
}

func TestDispatcher_NotifyNeverBlocks(t *testing.T) {
	mailer := &recordingMailer{}
	// not started: nothing drains the queue
	d := NewDispatcher(1, mailer, zerolog.Nop())

	finished := make(chan struct{})
	go func() {
		for range channelBuffer + 10 {
			d.Notify(ports.Message{To: "admin@example.com"})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
	if n := len(d.workers[0]); n != channelBuffer {
		t.Errorf("expected %d queued messages, got %d", channelBuffer, n)
	}
}

func TestDispatcher_ShardIndexStable(t *testing.T) {
	d := NewDispatcher(0, &recordingMailer{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
	a := d.shardIndex("a@example.com")
	if d.shardIndex("a@example.com") != a {
		t.Error("shard index should be deterministic")
	}
}
