package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type captureSender struct {
	err  error
	last EmailMessage
}

func (c *captureSender) Send(ctx context.Context, msg EmailMessage) error {
	c.last = msg
	return c.err
}

func TestDeckNotifier(t *testing.T) {
	sender := &captureSender{}
	n := NewDeckNotifier(sender, "team@example.com", nil)

	err := n.NotifyPitchDeckRequest(context.Background(), "GalowClub", "Ana Silva", "ana@example.com", "", "investor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.last.To != "team@example.com" {
		t.Errorf("To = %q, want team@example.com", sender.last.To)
	}
	if !strings.Contains(sender.last.Subject, "GalowClub") {
		t.Errorf("Subject = %q, want project name", sender.last.Subject)
	}
	if !strings.Contains(sender.last.Body, "Name: Ana Silva") {
		t.Errorf("Body missing name: %q", sender.last.Body)
	}
	if !strings.Contains(sender.last.Body, "Phone: Not provided") {
		t.Errorf("Body should mark absent phone: %q", sender.last.Body)
	}
}

func TestDeckNotifierSenderError(t *testing.T) {
	sender := &captureSender{err: errors.New("boom")}
	n := NewDeckNotifier(sender, "team@example.com", nil)

	if err := n.NotifyPitchDeckRequest(context.Background(), "Perspectiv", "", "", "", ""); err == nil {
		t.Fatal("expected error from sender")
	}
}

func TestDeckNotifierUnconfigured(t *testing.T) {
	n := NewDeckNotifier(nil, "", nil)
	if err := n.NotifyPitchDeckRequest(context.Background(), "GalowClub", "", "", "", ""); err == nil {
		t.Fatal("expected error when unconfigured")
	}
}

func TestNewSendGridSenderWithoutKey(t *testing.T) {
	if s := NewSendGridSender(SendGridConfig{}, nil); s != nil {
		t.Fatal("expected nil sender without an API key")
	}
}
