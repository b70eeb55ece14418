package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type captureSender struct {
	sent []EmailMessage
	err  error
}

func (c *captureSender) Send(ctx context.Context, msg EmailMessage) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func TestSendVerification(t *testing.T) {
	sender := &captureSender{}
	m := NewMailer(sender, "Jaylon Dental Clinic", "clinic@example.com", nil, nil)

	err := m.SendVerification(context.Background(), "ana@example.com", "Ana Reyes",
		"https://clinic.test/verify-email?token=abc")
	if err != nil {
		t.Fatalf("send verification: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != "ana@example.com" || msg.ToName != "Ana Reyes" {
		t.Errorf("unexpected recipient %+v", msg)
	}
	if !strings.Contains(msg.Body, "https://clinic.test/verify-email?token=abc") {
		t.Error("plain body missing link")
	}
	if !strings.Contains(msg.HTML, `href="https://clinic.test/verify-email?token=abc"`) {
		t.Error("html body missing link")
	}
	if !strings.Contains(msg.Subject, "Verify your email") {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
}

func TestSendCancellationMentionsAppointment(t *testing.T) {
	sender := &captureSender{}
	m := NewMailer(sender, "Jaylon Dental Clinic", "clinic@example.com", nil, nil)

	err := m.SendCancellation(context.Background(), "ana@example.com", "Ana Reyes",
		"Teeth Cleaning", "2026-04-01", "09:00 AM - 09:30 AM")
	if err != nil {
		t.Fatalf("send cancellation: %v", err)
	}
	msg := sender.sent[0]
	for _, want := range []string{"Teeth Cleaning", "2026-04-01", "09:00 AM - 09:30 AM"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("plain body missing %q", want)
		}
	}
}

func TestSendContactMessageEscapesAndTargetsClinic(t *testing.T) {
	sender := &captureSender{}
	m := NewMailer(sender, "Jaylon Dental Clinic", "clinic@example.com", nil, nil)

	err := m.SendContactMessage(context.Background(), "Eve <script>", "eve@example.com",
		"Hello <b>there</b>")
	if err != nil {
		t.Fatalf("send contact: %v", err)
	}
	msg := sender.sent[0]
	if msg.To != "clinic@example.com" {
		t.Errorf("contact mail must go to the clinic, got %q", msg.To)
	}
	if strings.Contains(msg.HTML, "<script>") {
		t.Error("html body must escape user input")
	}
	if !strings.Contains(msg.HTML, "&lt;script&gt;") {
		t.Error("escaped name missing from html body")
	}
	// The plain text part carries the message as written.
	if !strings.Contains(msg.Body, "Hello <b>there</b>") {
		t.Error("plain body missing original message")
	}
}

func TestMailerPropagatesSenderFailure(t *testing.T) {
	m := NewMailer(&captureSender{err: errors.New("smtp down")}, "", "clinic@example.com", nil, nil)

	if err := m.SendPasswordReset(context.Background(), "ana@example.com", "Ana", "https://x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestNilSenderFallsBackToLog(t *testing.T) {
	m := NewMailer(nil, "", "clinic@example.com", nil, nil)

	if err := m.SendVerification(context.Background(), "ana@example.com", "Ana", "https://x"); err != nil {
		t.Fatalf("log fallback must not fail: %v", err)
	}
}
