package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"

	"wanwatcher/internal/config"
	"wanwatcher/internal/types"
)

// EmailNotifier represents email notifier
type EmailNotifier struct {
	config *config.EmailConfig
	meta   Meta
	logger *zap.Logger
}

// NewEmailNotifier creates new Email notifier
func NewEmailNotifier(cfg *config.EmailConfig, meta Meta, logger *zap.Logger) (*EmailNotifier, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("email notifier is disabled")
	}

	if cfg.SMTPHost == "" || cfg.From == "" || len(cfg.Recipients()) == 0 {
		return nil, fmt.Errorf("email smtp host, from and recipients are required")
	}

	return &EmailNotifier{
		config: cfg,
		meta:   meta,
		logger: logger,
	}, nil
}

// Name returns the provider name
func (n *EmailNotifier) Name() string {
	return string(NotifierEmail)
}

// NotifyChange sends a first-run or address-change notification
func (n *EmailNotifier) NotifyChange(_ context.Context, event *types.ChangeEvent) error {
	var subject string
	if event.Kind == types.EventFirstRun {
		subject = "WAN IP monitoring started"
	} else {
		subject = "WAN IP address changed"
	}

	plain, htmlBody := buildChangeBodies(event, n.meta)
	return n.sendEmail(subject, plain, htmlBody)
}

// NotifyError sends a monitoring error notification
func (n *EmailNotifier) NotifyError(_ context.Context, message string) error {
	plain := fmt.Sprintf("WAN IP monitoring error on %s:\n\n%s\n", n.meta.ServerName, message)
	htmlBody := fmt.Sprintf(
		"<html><body><h2>WAN IP Monitoring Error</h2><p>%s</p><p>Server: <code>%s</code></p></body></html>",
		html.EscapeString(message), html.EscapeString(n.meta.ServerName))
	return n.sendEmail("WAN IP monitoring error", plain, htmlBody)
}

// NotifyUpdate sends a new-release-available notification
func (n *EmailNotifier) NotifyUpdate(_ context.Context, info *types.UpdateInfo) error {
	preview := changelogPreview(info.ReleaseNotes)

	var plain strings.Builder
	fmt.Fprintf(&plain, "A new version is available.\n\n")
	fmt.Fprintf(&plain, "Current Version: v%s\n", info.CurrentVersion)
	fmt.Fprintf(&plain, "Latest Version: v%s\n\n", info.LatestVersion)
	fmt.Fprintf(&plain, "What's New:\n%s\n\n", preview)
	fmt.Fprintf(&plain, "Release notes: %s\n", info.ReleaseURL)

	var htmlBody strings.Builder
	htmlBody.WriteString("<html><body><h2>Update Available</h2>")
	fmt.Fprintf(&htmlBody, "<p>Current Version: <code>v%s</code><br>", html.EscapeString(info.CurrentVersion))
	fmt.Fprintf(&htmlBody, "Latest Version: <code>v%s</code></p>", html.EscapeString(info.LatestVersion))
	fmt.Fprintf(&htmlBody, "<h3>What's New</h3><pre>%s</pre>", html.EscapeString(preview))
	fmt.Fprintf(&htmlBody, "<p><a href=\"%s\">View Release Notes</a></p>", info.ReleaseURL)
	htmlBody.WriteString("</body></html>")

	return n.sendEmail("Update available", plain.String(), htmlBody.String())
}

// buildChangeBodies renders the plain text and HTML alternatives
func buildChangeBodies(event *types.ChangeEvent, meta Meta) (string, string) {
	var plain, htmlBody strings.Builder

	title := "WAN IP Address Changed"
	if event.Kind == types.EventFirstRun {
		title = "WAN IP Monitoring Started"
	}

	plain.WriteString(title + "\n\n")
	htmlBody.WriteString("<html><body><h2>" + html.EscapeString(title) + "</h2><table>")

	writeRow := func(name, value string) {
		fmt.Fprintf(&plain, "%s: %s\n", name, value)
		fmt.Fprintf(&htmlBody, "<tr><td><b>%s</b></td><td><code>%s</code></td></tr>",
			html.EscapeString(name), html.EscapeString(value))
	}

	for _, version := range []types.IPVersion{types.IPv4, types.IPv6} {
		addr := event.Current.Addr(version)
		if addr == "" && !event.Changed(version) {
			continue
		}

		label := protocolLabel(version)
		writeRow("Current "+label, orNone(addr))
		if event.Kind == types.EventChanged && event.Changed(version) {
			writeRow("Previous "+label, orNone(event.PreviousAddr(version)))
		}
	}

	if event.Geo != nil {
		writeRow("Location", formatLocation(event.Geo))
		if event.Geo.Org != "" {
			writeRow("Provider", event.Geo.Org)
		}
	}

	writeRow("Server", meta.ServerName)

	htmlBody.WriteString("</table></body></html>")
	return plain.String(), htmlBody.String()
}

// sendEmail sends a multipart/alternative message to all recipients
func (n *EmailNotifier) sendEmail(subject, plain, htmlBody string) error {
	to := n.config.Recipients()

	msg, err := buildEmailMessage(n.config.From, to, n.config.SubjectPrefix+" "+subject, plain, htmlBody)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	if n.config.UseSSL {
		return n.sendSSL(to, msg)
	}
	return n.sendPlain(to, msg)
}

// sendPlain delivers over a cleartext connection, upgrading with STARTTLS
// when configured.
func (n *EmailNotifier) sendPlain(to []string, msg []byte) error {
	addr := fmt.Sprintf("%s:%d", n.config.SMTPHost, n.config.SMTPPort)

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to smtp server: %w", err)
	}
	defer client.Close()

	if n.config.UseTLS {
		tlsConfig := &tls.Config{
			ServerName: n.config.SMTPHost,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("starttls failed: %w", err)
		}
	}

	return n.deliver(client, to, msg)
}

// sendSSL delivers over an implicit TLS connection.
func (n *EmailNotifier) sendSSL(to []string, msg []byte) error {
	addr := fmt.Sprintf("%s:%d", n.config.SMTPHost, n.config.SMTPPort)

	tlsConfig := &tls.Config{
		ServerName: n.config.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("failed to create TLS connection: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, n.config.SMTPHost)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	return n.deliver(client, to, msg)
}

func (n *EmailNotifier) deliver(client *smtp.Client, to []string, msg []byte) error {
	if n.config.Username != "" {
		auth := smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}

	if err := client.Mail(n.config.From); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("RCPT TO failed for %s: %w", addr, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}

	if _, err = w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close message writer: %w", err)
	}
	return client.Quit()
}

// buildEmailMessage builds a multipart/alternative message with plain
// text and HTML parts.
func buildEmailMessage(from string, to []string, subject, plain, htmlBody string) ([]byte, error) {
	var msg bytes.Buffer
	var body bytes.Buffer

	mw := multipart.NewWriter(&body)

	pw, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=UTF-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := pw.Write([]byte(plain)); err != nil {
		return nil, err
	}

	hw, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=UTF-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := hw.Write([]byte(htmlBody)); err != nil {
		return nil, err
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}

	headers := []string{
		"From: " + from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=" + mw.Boundary(),
		"Date: " + time.Now().Format(time.RFC1123Z),
	}

	for _, h := range headers {
		msg.WriteString(h + "\r\n")
	}
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	return msg.Bytes(), nil
}
