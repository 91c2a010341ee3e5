// File: internal/mailer/mailer.go
package mailer

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/go-mail/mail"
)

//go:embed templates/*
var templatesFS embed.FS

// Attachment is an in-memory file sent along with a message.
type Attachment struct {
	Name    string
	Content []byte
}

// Mailer represents a mailer service.
type Mailer struct {
	dialer *mail.Dialer
	sender string
	send   func(...*mail.Message) error
}

// New creates a new Mailer instance.
func New(host string, port int, username, password, sender string) *Mailer {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 5 * time.Second
	return &Mailer{
		dialer: dialer,
		sender: sender,
		send:   dialer.DialAndSend,
	}
}

// Send renders templateName with data and sends it to the recipient,
// retrying up to three times.
func (m *Mailer) Send(to, templateName string, data any, attachments ...Attachment) error {
	msg, err := m.message(to, templateName, data, attachments)
	if err != nil {
		return err
	}

	for i := 0; i < 3; i++ {
		err = m.send(msg)
		if err == nil {
			return nil
		}
		time.Sleep(5 * time.Millisecond)
	}

	return err
}

func (m *Mailer) message(to, templateName string, data any, attachments []Attachment) (*mail.Message, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/"+templateName)
	if err != nil {
		return nil, err
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return nil, err
	}

	plainBody := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(plainBody, "plainBody", data); err != nil {
		return nil, err
	}

	htmlBody := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(htmlBody, "htmlBody", data); err != nil {
		return nil, err
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/plain", plainBody.String())
	msg.AddAlternative("text/html", htmlBody.String())

	for _, a := range attachments {
		content := a.Content
		msg.Attach(a.Name, mail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		}))
	}

	return msg, nil
}
