package services

import (
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurehub/core/internal/config"
)

var (
	// ErrSMTPNotConfigured indicates outbound mail is not configured
	ErrSMTPNotConfigured = errors.New("SMTP not configured")
	// ErrSMTPConnectionFailed indicates SMTP connection failed
	ErrSMTPConnectionFailed = errors.New("SMTP connection failed")
	// ErrEmailSendFailed indicates email sending failed
	ErrEmailSendFailed = errors.New("email send failed")
)

const smtpTimeout = 30 * time.Second

// loginAuth implements smtp.Auth for LOGIN authentication, which some
// providers require instead of PLAIN
type loginAuth struct {
	username, password string
}

func newLoginAuth(username, password string) smtp.Auth {
	return &loginAuth{username, password}
}

func (a *loginAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	return "LOGIN", []byte{}, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if more {
		switch strings.ToLower(strings.TrimSpace(string(fromServer))) {
		case "username:":
			return []byte(a.username), nil
		case "password:":
			return []byte(a.password), nil
		default:
			// Some servers send base64 encoded prompts
			decoded, err := base64.StdEncoding.DecodeString(string(fromServer))
			if err == nil {
				switch strings.ToLower(strings.TrimSuffix(string(decoded), ":")) {
				case "username":
					return []byte(a.username), nil
				case "password":
					return []byte(a.password), nil
				}
			}
		}
	}
	return nil, nil
}

// Mailer sends RFP invitation emails over SMTP
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewMailer creates a Mailer from application config
func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
	}
}

// IsConfigured reports whether the mailer can send
func (m *Mailer) IsConfigured() bool {
	return m.host != "" && m.from != ""
}

// Send sends a plain-text email and returns the generated Message-ID
func (m *Mailer) Send(to, subject, body string) (string, error) {
	if !m.IsConfigured() {
		return "", ErrSMTPNotConfigured
	}

	messageID := m.generateMessageID()
	content := m.buildMessage(to, subject, body, messageID)

	if err := m.sendViaSMTP(to, content); err != nil {
		return "", err
	}
	return messageID, nil
}

// generateMessageID builds an RFC 5322 Message-ID from the sender domain
func (m *Mailer) generateMessageID() string {
	domain := "procurehub.local"
	if idx := strings.LastIndex(m.from, "@"); idx >= 0 && idx < len(m.from)-1 {
		domain = strings.TrimSuffix(m.from[idx+1:], ">")
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

// buildMessage assembles the RFC 5322 message with headers
func (m *Mailer) buildMessage(to, subject, body, messageID string) string {
	var sb strings.Builder
	sb.WriteString("From: " + m.from + "\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("Message-ID: " + messageID + "\r\n")
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("Content-Transfer-Encoding: base64\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(wrapBase64(base64.StdEncoding.EncodeToString([]byte(body))))
	return sb.String()
}

// wrapBase64 wraps encoded content at 76 characters per RFC 2045
func wrapBase64(encoded string) string {
	var sb strings.Builder
	for len(encoded) > 76 {
		sb.WriteString(encoded[:76] + "\r\n")
		encoded = encoded[76:]
	}
	sb.WriteString(encoded + "\r\n")
	return sb.String()
}

// sendViaSMTP delivers the message, using implicit TLS on port 465 and
// STARTTLS otherwise
func (m *Mailer) sendViaSMTP(to, content string) error {
	addr := net.JoinHostPort(m.host, m.port)

	var client *smtp.Client
	if m.port == "465" {
		tlsConfig := &tls.Config{ServerName: m.host}
		conn, err := tls.DialWithDialer(&net.Dialer{Timeout: smtpTimeout}, "tcp", addr, tlsConfig)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSMTPConnectionFailed, err)
		}
		client, err = smtp.NewClient(conn, m.host)
		if err != nil {
			conn.Close()
			return fmt.Errorf("%w: %v", ErrSMTPConnectionFailed, err)
		}
	} else {
		conn, err := net.DialTimeout("tcp", addr, smtpTimeout)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSMTPConnectionFailed, err)
		}
		client, err = smtp.NewClient(conn, m.host)
		if err != nil {
			conn.Close()
			return fmt.Errorf("%w: %v", ErrSMTPConnectionFailed, err)
		}
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
				client.Close()
				return fmt.Errorf("%w: %v", ErrSMTPConnectionFailed, err)
			}
		}
	}
	defer client.Close()

	if m.username != "" {
		// Try PLAIN auth first, fall back to LOGIN
		auth := smtp.PlainAuth("", m.username, m.password, m.host)
		if err := client.Auth(auth); err != nil {
			auth = newLoginAuth(m.username, m.password)
			if err2 := client.Auth(auth); err2 != nil {
				return fmt.Errorf("%w: authentication failed (tried PLAIN and LOGIN): %v", ErrEmailSendFailed, err)
			}
		}
	}

	fromAddr := m.from
	if idx := strings.Index(fromAddr, "<"); idx >= 0 {
		fromAddr = strings.Trim(fromAddr[idx:], "<>")
	}
	if err := client.Mail(fromAddr); err != nil {
		return fmt.Errorf("%w: MAIL FROM failed: %v", ErrEmailSendFailed, err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("%w: RCPT TO failed for %s: %v", ErrEmailSendFailed, to, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("%w: DATA failed: %v", ErrEmailSendFailed, err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		return fmt.Errorf("%w: write failed: %v", ErrEmailSendFailed, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: close failed: %v", ErrEmailSendFailed, err)
	}

	// Message already accepted; some servers return odd responses to QUIT
	client.Quit()
	return nil
}
