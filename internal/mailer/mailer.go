package mailer

import (
	"errors"
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

const defaultSubject = "New contact message from PlyCraft"

// ErrNotConfigured is returned when SMTP credentials or the recipient
// inbox are missing from the configuration.
var ErrNotConfigured = errors.New("SMTP credentials are not configured")

// ContactMessage is a contact-form submission. It is never persisted; it
// lives just long enough to be rendered into an email.
type ContactMessage struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Product   string
	Subject   string
	Message   string
}

type Mailer struct {
	host     string
	port     int
	username string
	password string
	to       string
}

func New(host string, port int, username, password, to string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		to:       to,
	}
}

// Send renders the submission into a plain-text email and dispatches it to
// the configured inbox. From and Reply-To are both the submitter's address
// so replies go straight back to them.
func (m *Mailer) Send(msg ContactMessage) error {
	if m.username == "" || m.password == "" || m.to == "" {
		return ErrNotConfigured
	}

	subject := msg.Subject
	if subject == "" {
		subject = defaultSubject
	}

	email := gomail.NewMessage()
	email.SetHeader("From", msg.Email)
	email.SetHeader("Reply-To", msg.Email)
	email.SetHeader("To", m.to)
	email.SetHeader("Subject", subject)
	email.SetBody("text/plain", Body(msg))

	dialer := gomail.NewDialer(m.host, m.port, m.username, m.password)
	if err := dialer.DialAndSend(email); err != nil {
		return fmt.Errorf("failed to send contact mail: %w", err)
	}
	return nil
}

// Body renders the email body. Omitted optional fields show up as "-".
func Body(msg ContactMessage) string {
	return fmt.Sprintf(
		"Name: %s %s\nEmail: %s\nPhone: %s\nProduct: %s\n\nMessage:\n%s\n",
		msg.FirstName, msg.LastName, msg.Email,
		orDash(msg.Phone), orDash(msg.Product), msg.Message,
	)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
