package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"mime"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"commerce-service/internal/notification"
)

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type SMTPTransport struct {
	cfg      SMTPConfig
	renderer *Renderer
	dialer   net.Dialer
}

var _ notification.Transport = (*SMTPTransport)(nil)

func NewSMTPTransport(cfg SMTPConfig, renderer *Renderer) *SMTPTransport {
	return &SMTPTransport{
		cfg:      cfg,
		renderer: renderer,
		dialer:   net.Dialer{Timeout: 10 * time.Second},
	}
}

func (t *SMTPTransport) Send(ctx context.Context, msg notification.Message) error {
	rendered, err := t.renderer.Render(msg)
	if err != nil {
		return notification.Permanent(err)
	}

	addr := net.JoinHostPort(t.cfg.Host, t.cfg.Port)
	conn, err := t.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		conn.Close()
		return classify(err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: t.cfg.Host}); err != nil {
			return classify(err)
		}
	}
	if t.cfg.Username != "" {
		auth := smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return classify(err)
		}
	}

	if err := client.Mail(t.cfg.From); err != nil {
		return classify(err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return classify(err)
	}
	w, err := client.Data()
	if err != nil {
		return classify(err)
	}
	if _, err := w.Write(buildMessage(t.cfg.From, msg.To, rendered)); err != nil {
		return classify(err)
	}
	if err := w.Close(); err != nil {
		return classify(err)
	}
	return client.Quit()
}

func buildMessage(from, to string, r *Rendered) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", r.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(r.HTML)
	return []byte(b.String())
}

// classify marks SMTP 5xx replies as permanent. Everything else (4xx,
// network errors) is retried.
func classify(err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) && protoErr.Code >= 500 {
		return notification.Permanent(err)
	}
	return err
}

// LogTransport renders and logs messages instead of sending them. Used when no
// SMTP host is configured.
type LogTransport struct {
	renderer *Renderer
}

var _ notification.Transport = (*LogTransport)(nil)

func NewLogTransport(renderer *Renderer) *LogTransport {
	return &LogTransport{renderer: renderer}
}

func (t *LogTransport) Send(_ context.Context, msg notification.Message) error {
	rendered, err := t.renderer.Render(msg)
	if err != nil {
		return notification.Permanent(err)
	}
	log.Printf("[mail] to=%s subject=%q (%d bytes)", msg.To, rendered.Subject, len(rendered.HTML))
	return nil
}
