package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/jaylondental/clinic-api/internal/observability/metrics"
	"github.com/jaylondental/clinic-api/pkg/logging"
)

// Mailer builds and sends the clinic's transactional emails on top of an
// EmailSender.
type Mailer struct {
	sender      EmailSender
	clinicName  string
	clinicEmail string
	metrics     *metrics.BookingMetrics
	logger      *logging.Logger
}

// NewMailer creates a mailer. A nil sender falls back to log-only delivery.
func NewMailer(sender EmailSender, clinicName, clinicEmail string, m *metrics.BookingMetrics, logger *logging.Logger) *Mailer {
	if logger == nil {
		logger = logging.Default()
	}
	if sender == nil {
		sender = NewLogSender(logger)
	}
	if clinicName == "" {
		clinicName = "Jaylon Dental Clinic"
	}
	return &Mailer{
		sender:      sender,
		clinicName:  clinicName,
		clinicEmail: clinicEmail,
		metrics:     m,
		logger:      logger,
	}
}

func (m *Mailer) send(ctx context.Context, template string, msg EmailMessage) error {
	err := m.sender.Send(ctx, msg)
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.metrics.ObserveEmail(template, outcome)
	return err
}

// SendVerification emails a new account its confirmation link.
func (m *Mailer) SendVerification(ctx context.Context, to, name, link string) error {
	body := fmt.Sprintf(`Hi %s,

Welcome to %s! Please confirm your email address by opening the link below:

%s

The link is valid for 24 hours. If you did not create this account you can
ignore this email.

— %s`, name, m.clinicName, link, m.clinicName)

	html := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2>Welcome to %s!</h2>
<p>Hi %s,</p>
<p>Please confirm your email address to activate your account:</p>
<p><a href="%s" style="background: #2563eb; color: #fff; padding: 10px 20px; border-radius: 6px; text-decoration: none;">Verify my email</a></p>
<p style="color: #6b7280; font-size: 12px;">The link is valid for 24 hours. If you did not create this account you can ignore this email.</p>
<p style="color: #6b7280; font-size: 12px;">— %s</p>
</div>`, m.clinicName, name, link, m.clinicName)

	return m.send(ctx, "verification", EmailMessage{
		To:      to,
		ToName:  name,
		Subject: fmt.Sprintf("Verify your email — %s", m.clinicName),
		Body:    body,
		HTML:    html,
	})
}

// SendPasswordReset emails a password reset link.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, name, link string) error {
	body := fmt.Sprintf(`Hi %s,

We received a request to reset the password for your %s account. Open the
link below to choose a new password:

%s

The link is valid for 24 hours. If you did not request this you can ignore
this email.

— %s`, name, m.clinicName, link, m.clinicName)

	html := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2>Password reset</h2>
<p>Hi %s,</p>
<p>Open the link below to choose a new password for your %s account:</p>
<p><a href="%s" style="background: #2563eb; color: #fff; padding: 10px 20px; border-radius: 6px; text-decoration: none;">Reset my password</a></p>
<p style="color: #6b7280; font-size: 12px;">The link is valid for 24 hours. If you did not request this you can ignore this email.</p>
<p style="color: #6b7280; font-size: 12px;">— %s</p>
</div>`, name, m.clinicName, link, m.clinicName)

	return m.send(ctx, "password_reset", EmailMessage{
		To:      to,
		ToName:  name,
		Subject: fmt.Sprintf("Reset your password — %s", m.clinicName),
		Body:    body,
		HTML:    html,
	})
}

// SendCancellation tells a patient their appointment was cancelled.
func (m *Mailer) SendCancellation(ctx context.Context, to, name, serviceTitle, date, timeSlot string) error {
	body := fmt.Sprintf(`Hi %s,

Your %s appointment on %s at %s has been cancelled because it was not
attended. If you would still like to come in, please book a new appointment.

— %s`, name, serviceTitle, date, timeSlot, m.clinicName)

	html := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2>Appointment cancelled</h2>
<p>Hi %s,</p>
<p>Your <strong>%s</strong> appointment on <strong>%s</strong> at <strong>%s</strong> has been cancelled because it was not attended.</p>
<p>If you would still like to come in, please book a new appointment.</p>
<p style="color: #6b7280; font-size: 12px;">— %s</p>
</div>`, name, serviceTitle, date, timeSlot, m.clinicName)

	return m.send(ctx, "cancellation", EmailMessage{
		To:      to,
		ToName:  name,
		Subject: fmt.Sprintf("Your appointment was cancelled — %s", m.clinicName),
		Body:    body,
		HTML:    html,
	})
}

// SendContactMessage relays a public contact-form submission to the clinic's
// own address.
func (m *Mailer) SendContactMessage(ctx context.Context, fromName, fromEmail, message string) error {
	// Contact form fields are attacker-controlled, escape before embedding
	// in the HTML body.
	safeName := html.EscapeString(fromName)
	safeEmail := html.EscapeString(fromEmail)
	safeMessage := html.EscapeString(message)

	body := fmt.Sprintf(`New message from the website contact form.

Name: %s
Email: %s

%s`, fromName, fromEmail, message)

	html := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2>New contact form message</h2>
<table style="border-collapse: collapse; margin: 20px 0;">
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Name:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Email:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><a href="mailto:%s">%s</a></td></tr>
</table>
<p style="white-space: pre-wrap;">%s</p>
</div>`, safeName, safeEmail, safeEmail, safeMessage)

	return m.send(ctx, "contact", EmailMessage{
		To:      m.clinicEmail,
		ToName:  m.clinicName,
		Subject: fmt.Sprintf("Contact form: %s", fromName),
		Body:    body,
		HTML:    html,
	})
}
