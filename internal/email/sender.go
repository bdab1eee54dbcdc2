package email

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/mailersend/mailersend-go"
)

// Sender delivers a single message synchronously.
type Sender interface {
	Deliver(ctx context.Context, job EmailJob) error
}

type SMTPSender struct {
	From     string
	FromName string
	Host     string
	Port     string
	User     string
	Pass     string
}

func (s *SMTPSender) Deliver(_ context.Context, job EmailJob) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.FromName, s.From)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n"
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.User != "" && s.Pass != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}

	addr := s.Host + ":" + s.Port
	return smtp.SendMail(addr, auth, s.From, []string{job.To}, []byte(message))
}

type MailerSendSender struct {
	client   *mailersend.Mailersend
	from     string
	fromName string
}

func NewMailerSendSender(apiKey, from, fromName string) *MailerSendSender {
	return &MailerSendSender{
		client:   mailersend.NewMailersend(apiKey),
		from:     from,
		fromName: fromName,
	}
}

func (m *MailerSendSender) Deliver(ctx context.Context, job EmailJob) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	message := m.client.Email.NewMessage()
	message.SetFrom(mailersend.From{Name: m.fromName, Email: m.from})
	message.SetRecipients([]mailersend.Recipient{{Name: job.Name, Email: job.To}})
	message.SetSubject(job.Subject)
	message.SetText(job.Body)

	if _, err := m.client.Email.Send(ctx, message); err != nil {
		return fmt.Errorf("mailersend: %w", err)
	}
	return nil
}
