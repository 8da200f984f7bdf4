// Package mail sends transactional email over SMTP.
//
//	err := mail.To("ada@example.com").
//	    Subject("Order ORD-20260301120000-0A1B2C3D confirmed").
//	    Text(body).
//	    Send()
//
// Mail is disabled until MAIL_HOST is set.
package mail

import (
	"errors"
	"strings"
	"sync"

	"gopkg.in/gomail.v2"

	"github.com/shashiranjanraj/storefront/config"
)

// ErrNotConfigured is returned by Send when MAIL_HOST is empty.
var ErrNotConfigured = errors.New("mail: MAIL_HOST not configured")

// SMTP holds connection credentials (populated from env/config).
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// DefaultSMTP reads the MAIL_* keys.
func DefaultSMTP() SMTP {
	return SMTP{
		Host:     config.Get("MAIL_HOST", ""),
		Port:     int(config.GetInt64("MAIL_PORT", 587)),
		Username: config.Get("MAIL_USERNAME", ""),
		Password: config.Get("MAIL_PASSWORD", ""),
		From:     config.Get("MAIL_FROM", "shop@example.com"),
		FromName: config.Get("MAIL_FROM_NAME", "Storefront"),
	}
}

// Configured reports whether outgoing mail is set up.
func Configured() bool {
	return DefaultSMTP().Host != ""
}

var (
	transportMu sync.RWMutex
	transport   gomail.Sender
)

// UseTransport replaces SMTP delivery for every message. Tests capture mail
// with a gomail.SendFunc; nil restores SMTP.
func UseTransport(s gomail.Sender) {
	transportMu.Lock()
	defer transportMu.Unlock()
	transport = s
}

// Message is a fluent builder for an email.
type Message struct {
	to      []string
	subject string
	body    string
	isHTML  bool
	smtpCfg SMTP
}

// To sets the recipients.
func To(addresses ...string) *Message {
	return &Message{to: addresses, smtpCfg: DefaultSMTP()}
}

// Subject sets the email subject.
func (m *Message) Subject(s string) *Message {
	m.subject = s
	return m
}

// Body sets an HTML body.
func (m *Message) Body(html string) *Message {
	m.body = html
	m.isHTML = true
	return m
}

// Text sets a plain-text body.
func (m *Message) Text(text string) *Message {
	m.body = text
	m.isHTML = false
	return m
}

// UseConfig overrides the SMTP settings for this message.
func (m *Message) UseConfig(cfg SMTP) *Message {
	m.smtpCfg = cfg
	return m
}

// Send delivers the email.
func (m *Message) Send() error {
	cfg := m.smtpCfg
	if cfg.Host == "" {
		return ErrNotConfigured
	}
	if len(m.to) == 0 {
		return errors.New("mail: no recipients")
	}

	msg := m.build()

	transportMu.RLock()
	sender := transport
	transportMu.RUnlock()
	if sender != nil {
		return gomail.Send(sender, msg)
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	// Implicit TLS on 465, STARTTLS when the server offers it otherwise.
	d.SSL = cfg.Port == 465
	return d.DialAndSend(msg)
}

func (m *Message) build() *gomail.Message {
	cfg := m.smtpCfg

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", cfg.From, cfg.FromName)
	msg.SetHeader("To", m.to...)
	msg.SetHeader("Subject", headerSafe(m.subject))

	contentType := "text/plain"
	if m.isHTML {
		contentType = "text/html"
	}
	msg.SetBody(contentType, m.body)
	return msg
}

// headerSafe strips line breaks so a subject cannot inject headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

