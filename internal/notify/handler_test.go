package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeContactMailer struct {
	calls int
	err   error
}

func (f *fakeContactMailer) SendContactMessage(ctx context.Context, fromName, fromEmail, message string) error {
	f.calls++
	return f.err
}

func postContact(t *testing.T, h *ContactHandler, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/contact", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)
	return rec
}

func TestContactSubmit(t *testing.T) {
	mailer := &fakeContactMailer{}
	h := NewContactHandler(mailer, nil)

	rec := postContact(t, h, contactRequest{Name: "Ana", Email: "ana@example.com", Message: "Do you do whitening?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if mailer.calls != 1 {
		t.Errorf("expected one relay, got %d", mailer.calls)
	}
}

func TestContactSubmitMissingFields(t *testing.T) {
	h := NewContactHandler(&fakeContactMailer{}, nil)

	rec := postContact(t, h, contactRequest{Name: "Ana", Email: "ana@example.com"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestContactSubmitDeliveryFailureIsGeneric(t *testing.T) {
	h := NewContactHandler(&fakeContactMailer{err: errors.New("sendgrid: status 503")}, nil)

	rec := postContact(t, h, contactRequest{Name: "Ana", Email: "ana@example.com", Message: "hi"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("sendgrid")) {
		t.Error("provider details must not leak to the form user")
	}
}
