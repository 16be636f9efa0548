package main

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/coursework/storefront/internal/tasks"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// Mailer delivers a single HTML e-mail
type Mailer interface {
	// Send sends an e-mail with an HTML body
	//
	// If the SMTP server rejects the message or can not be reached, the error will be returned.
	Send(to, subject, body string) error
}

// smtpMailer sends e-mails through an SMTP server using gopkg.in/mail.v2
type smtpMailer struct {
	dialer *mail.Dialer
	from   string
}

// NewSMTPMailer creates a mailer for the given SMTP server
func NewSMTPMailer(host string, port int, username, password, from string) *smtpMailer {
	return &smtpMailer{
		dialer: mail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send sends an e-mail using gopkg.in/mail.v2
func (m *smtpMailer) Send(to, subject, body string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

var (
	welcomeTemplate = template.Must(template.New("welcome").Parse(
		`<p>Hi {{.Username}},</p><p>Welcome to Storefront! Your account is ready.</p>`))

	orderConfirmationTemplate = template.Must(template.New("order").Parse(
		`<p>Thank you for your order #{{.OrderID}}.</p>
<table>
{{range .Items}}<tr><td>{{.Name}}</td><td>{{.Quantity}} x {{printf "%.2f" .UnitPrice}}</td></tr>
{{end}}</table>
<p>Total: {{printf "%.2f" .Total}}</p>`))
)

// Worker handles e-mail task processing
type Worker struct {
	logger *zap.Logger
	mailer Mailer
}

// NewWorker creates a new worker instance
func NewWorker(logger *zap.Logger, mailer Mailer) *Worker {
	return &Worker{logger: logger, mailer: mailer}
}

// RegisterHandlers binds every e-mail task type to its handler
func (w *Worker) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(tasks.TypeWelcomeEmail, w.HandleWelcomeEmail)
	mux.HandleFunc(tasks.TypeOrderConfirmation, w.HandleOrderConfirmation)
}

// HandleWelcomeEmail sends the welcome e-mail of a newly registered user
func (w *Worker) HandleWelcomeEmail(ctx context.Context, t *asynq.Task) error {
	payload, err := tasks.ParseWelcomeEmailPayload(t)
	if err != nil {
		// A malformed payload will never succeed
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	body, err := render(welcomeTemplate, payload)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	if err := w.mailer.Send(payload.Email, "Welcome to Storefront", body); err != nil {
		return err
	}

	w.logger.Info("Welcome email sent", zap.String("email", payload.Email))
	return nil
}

// HandleOrderConfirmation sends the confirmation e-mail of a placed order
func (w *Worker) HandleOrderConfirmation(ctx context.Context, t *asynq.Task) error {
	payload, err := tasks.ParseOrderConfirmationPayload(t)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	body, err := render(orderConfirmationTemplate, payload)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	subject := fmt.Sprintf("Order #%d confirmed", payload.OrderID)
	if err := w.mailer.Send(payload.Email, subject, body); err != nil {
		return err
	}

	w.logger.Info("Order confirmation sent",
		zap.String("email", payload.Email),
		zap.Int("order_id", payload.OrderID),
	)
	return nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
