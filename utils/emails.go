package utils

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"time"

	"github.com/mailgun/mailgun-go/v3"
	"gopkg.in/gomail.v2"
)

// EmailData represents the data format for emails
type EmailData struct {
	Title       string
	ContentData interface{}
	EmailTo     string
	Template    *template.Template
}

// Mailer sends a rendered email
type Mailer interface {
	Send(ctx context.Context, data EmailData) error
}

// MailgunConfig configures the mailgun transport
type MailgunConfig struct {
	Domain     string
	PrivateKey string
	From       string
}

// SMTPConfig configures the smtp transport
type SMTPConfig struct {
	Host     string
	Port     int
	Sender   string
	Password string
	From     string
}

func render(data EmailData) (string, error) {
	if data.Template == nil {
		return "", fmt.Errorf("email %q has no template", data.Title)
	}
	var buf bytes.Buffer
	if err := data.Template.Execute(&buf, data.ContentData); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type mailgunMailer struct {
	mg   mailgun.Mailgun
	from string
}

// NewMailgunMailer returns a Mailer backed by mailgun
func NewMailgunMailer(cfg MailgunConfig) Mailer {
	return &mailgunMailer{
		mg:   mailgun.NewMailgun(cfg.Domain, cfg.PrivateKey),
		from: cfg.From,
	}
}

func (m *mailgunMailer) Send(ctx context.Context, data EmailData) error {
	html, err := render(data)
	if err != nil {
		return err
	}

	message := m.mg.NewMessage(
		fmt.Sprintf("Marketplace <%s>", m.from),
		data.Title,
		"Sent from Marketplace",
		data.EmailTo,
	)
	message.SetHtml(html)

	ctx, cancel := context.WithTimeout(ctx, time.Second*30)
	defer cancel()

	_, _, err = m.mg.Send(ctx, message)
	return err
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer returns a Mailer that dials the given smtp server
func NewSMTPMailer(cfg SMTPConfig) Mailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Sender, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}

	from := cfg.From
	if from == "" {
		from = cfg.Sender
	}
	return &smtpMailer{dialer: d, from: from}
}

func (m *smtpMailer) Send(_ context.Context, data EmailData) error {
	html, err := render(data)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", data.EmailTo)
	msg.SetHeader("Subject", data.Title)
	msg.SetBody("text/html", html)

	return m.dialer.DialAndSend(msg)
}
