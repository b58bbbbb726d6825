// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mailer delivers digests by email. The digest markdown is
// rendered to HTML and sent as a multipart/alternative message so
// clients can fall back to plain text.
package mailer

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/pdiddy/paper-digest/pkg/types"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))

// Mailer sends digest emails using the configured SMTP account.
type Mailer struct {
	Cfg types.EmailConfig
}

// New returns a Mailer for the given account configuration.
func New(cfg types.EmailConfig) *Mailer {
	return &Mailer{Cfg: cfg}
}

// Send renders the digest and delivers it to all configured
// recipients. Port 465 uses implicit TLS, other ports use STARTTLS.
func (m *Mailer) Send(subject, digestMarkdown string) error {
	if m.Cfg.Sender == "" || len(m.Cfg.Recipients) == 0 {
		return fmt.Errorf("email sender and recipients must be configured")
	}

	msg, err := buildMessage(m.Cfg.Sender, m.Cfg.Recipients, subject, digestMarkdown)
	if err != nil {
		return fmt.Errorf("building message: %w", err)
	}

	addr := net.JoinHostPort(m.Cfg.SMTPServer, strconv.Itoa(m.Cfg.SMTPPort))
	auth := smtp.PlainAuth("", m.Cfg.Sender, m.Cfg.Password, m.Cfg.SMTPServer)

	if m.Cfg.SMTPPort == 465 {
		return m.sendTLS(addr, auth, msg)
	}
	if err := smtp.SendMail(addr, auth, m.Cfg.Sender, m.Cfg.Recipients, msg); err != nil {
		return fmt.Errorf("sending mail via %s: %w", addr, err)
	}
	return nil
}

// sendTLS handles servers that expect a TLS connection from the first
// byte, which smtp.SendMail cannot do.
func (m *Mailer) sendTLS(addr string, auth smtp.Auth, msg []byte) error {
	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: 30 * time.Second}, "tcp", addr,
		&tls.Config{ServerName: m.Cfg.SMTPServer})
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.Cfg.SMTPServer)
	if err != nil {
		return fmt.Errorf("starting smtp session: %w", err)
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}
	if err := client.Mail(m.Cfg.Sender); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	for _, rcpt := range m.Cfg.Recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("setting recipient %s: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("opening data stream: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing data stream: %w", err)
	}
	return client.Quit()
}

// buildMessage assembles a multipart/alternative MIME message with the
// digest markdown as text/plain and its HTML rendering as text/html.
func buildMessage(sender string, recipients []string, subject, digestMarkdown string) ([]byte, error) {
	var html bytes.Buffer
	if err := markdown.Convert([]byte(digestMarkdown), &html); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := writePart(mw, "text/plain", digestMarkdown); err != nil {
		return nil, err
	}
	if err := writePart(mw, "text/html", wrapHTML(html.String())); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", sender)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n", mw.Boundary())
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	return msg.Bytes(), nil
}

func writePart(mw *multipart.Writer, contentType, content string) error {
	header := textproto.MIMEHeader{
		"Content-Type":              {contentType + "; charset=utf-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("creating %s part: %w", contentType, err)
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(content)); err != nil {
		return fmt.Errorf("encoding %s part: %w", contentType, err)
	}
	return qp.Close()
}

// wrapHTML adds minimal inline styling so digest tables and code
// blocks render acceptably in mail clients.
func wrapHTML(body string) string {
	return `<html><head><style>
body { font-family: -apple-system, Helvetica, Arial, sans-serif; max-width: 52em; margin: auto; padding: 1em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 4px 8px; }
code { background: #f4f4f4; padding: 1px 4px; }
</style></head><body>
` + body + `</body></html>
`
}
