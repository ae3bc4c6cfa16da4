package alerting

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EmailOptions parameterise the SMTP notifier.
type EmailOptions struct {
	Host string
	Port int
	// ImplicitTLS dials TLS directly (port 465); otherwise STARTTLS is used when offered.
	ImplicitTLS bool
	From        string
	Password    string
	To          string
	Timeout     time.Duration
	// TLSConfig overrides the default client TLS settings.
	TLSConfig *tls.Config
}

// EmailNotifier 通过 SMTP 发送纯文本邮件。
type EmailNotifier struct {
	opts   EmailOptions
	logger zerolog.Logger
}

// NewEmailNotifier 构造邮件告警器。
func NewEmailNotifier(opts EmailOptions, logger zerolog.Logger) *EmailNotifier {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Host == "" {
		opts.Host = "smtp.gmail.com"
	}
	if opts.Port == 0 {
		opts.Port = 465
	}
	return &EmailNotifier{
		opts:   opts,
		logger: logger.With().Str("component", "alert_email").Logger(),
	}
}

// Name identifies the channel.
func (n *EmailNotifier) Name() string { return "email" }

// Notify 登录 SMTP 服务器并投递报告。
func (n *EmailNotifier) Notify(ctx context.Context, note Notification) error {
	if err := n.send(ctx, note); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	n.logger.Info().Str("to", n.opts.To).Msg("报告已发送 (Email)")
	return nil
}

func (n *EmailNotifier) send(ctx context.Context, note Notification) error {
	for _, v := range []string{n.opts.From, n.opts.To} {
		if strings.ContainsAny(v, "\r\n") {
			return fmt.Errorf("email address %q contains CR/LF", v)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, n.opts.Timeout)
	defer cancel()

	conn, err := n.dial(ctx)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, n.opts.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if !n.opts.ImplicitTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(n.tlsConfig()); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}

	if n.opts.Password != "" {
		auth := smtp.PlainAuth("", n.opts.From, n.opts.Password, n.opts.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(n.opts.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(n.opts.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(buildMessage(n.opts.From, n.opts.To, note)); err != nil {
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp end data: %w", err)
	}

	return client.Quit()
}

func (n *EmailNotifier) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(n.opts.Host, strconv.Itoa(n.opts.Port))
	dialer := &net.Dialer{Timeout: n.opts.Timeout}

	if n.opts.ImplicitTLS {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: n.tlsConfig()}
		conn, err := tlsDialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("dial smtp tls %s: %w", addr, err)
		}
		return conn, nil
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial smtp %s: %w", addr, err)
	}
	return conn, nil
}

func (n *EmailNotifier) tlsConfig() *tls.Config {
	if n.opts.TLSConfig != nil {
		return n.opts.TLSConfig
	}
	return &tls.Config{ServerName: n.opts.Host, MinVersion: tls.VersionTLS12}
}

func buildMessage(from, to string, note Notification) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", note.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")

	body := strings.ReplaceAll(note.Body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

var _ Notifier = (*EmailNotifier)(nil)
