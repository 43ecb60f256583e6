package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"wanwatcher/internal/config"
	"wanwatcher/internal/types"
)

const telegramAPIURL = "https://api.telegram.org"

// TelegramNotifier represents Telegram notifier
type TelegramNotifier struct {
	config *config.TelegramConfig
	meta   Meta
	logger *zap.Logger
	client *http.Client

	// apiURL is swapped out in tests
	apiURL string
}

// TelegramMessage represents Telegram message
type TelegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// NewTelegramNotifier creates new Telegram notifier
func NewTelegramNotifier(cfg *config.TelegramConfig, meta Meta, logger *zap.Logger) (*TelegramNotifier, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("telegram notifier is disabled")
	}

	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil, fmt.Errorf("telegram bot token and chat ID are required")
	}

	return &TelegramNotifier{
		config: cfg,
		meta:   meta,
		logger: logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				DisableCompression:  true,
				MaxIdleConnsPerHost: 5,
			},
		},
		apiURL: telegramAPIURL,
	}, nil
}

// Name returns the provider name
func (n *TelegramNotifier) Name() string {
	return string(NotifierTelegram)
}

// NotifyChange sends a first-run or address-change notification
func (n *TelegramNotifier) NotifyChange(ctx context.Context, event *types.ChangeEvent) error {
	var b strings.Builder

	if event.Kind == types.EventFirstRun {
		b.WriteString(n.bold("WAN IP Monitoring Started"))
	} else {
		b.WriteString(n.bold("WAN IP Address Changed"))
	}
	b.WriteString("\n\n")

	for _, version := range []types.IPVersion{types.IPv4, types.IPv6} {
		addr := event.Current.Addr(version)
		if addr == "" && !event.Changed(version) {
			continue
		}

		label := protocolLabel(version)
		fmt.Fprintf(&b, "Current %s: %s\n", label, n.code(orNone(addr)))
		if event.Kind == types.EventChanged && event.Changed(version) {
			fmt.Fprintf(&b, "Previous %s: %s\n", label, n.code(orNone(event.PreviousAddr(version))))
		}
	}

	if event.Geo != nil {
		fmt.Fprintf(&b, "Location: %s\n", n.escape(formatLocation(event.Geo)))
		if event.Geo.Org != "" {
			fmt.Fprintf(&b, "Provider: %s\n", n.escape(event.Geo.Org))
		}
	}

	fmt.Fprintf(&b, "\nServer: %s", n.code(n.meta.ServerName))

	return n.sendMessage(ctx, b.String())
}

// NotifyError sends a monitoring error notification
func (n *TelegramNotifier) NotifyError(ctx context.Context, message string) error {
	text := fmt.Sprintf("%s\n\n%s\n\nServer: %s",
		n.bold("WAN IP Monitoring Error"),
		n.escape(message),
		n.code(n.meta.ServerName))
	return n.sendMessage(ctx, text)
}

// NotifyUpdate sends a new-release-available notification
func (n *TelegramNotifier) NotifyUpdate(ctx context.Context, info *types.UpdateInfo) error {
	var b strings.Builder

	b.WriteString(n.bold("Update Available"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Current Version: %s\n", n.code("v"+info.CurrentVersion))
	fmt.Fprintf(&b, "Latest Version: %s\n\n", n.code("v"+info.LatestVersion))
	fmt.Fprintf(&b, "%s\n%s\n\n", n.bold("What's New:"), n.escape(changelogPreview(info.ReleaseNotes)))

	if n.parseMode() == "HTML" {
		fmt.Fprintf(&b, "<a href=\"%s\">View Release Notes</a>\n\n", info.ReleaseURL)
	} else {
		fmt.Fprintf(&b, "[View Release Notes](%s)\n\n", info.ReleaseURL)
	}

	fmt.Fprintf(&b, "Update check for %s", n.code(n.meta.ServerName))

	return n.sendMessage(ctx, b.String())
}

// parseMode returns the configured parse mode, defaulting to HTML
func (n *TelegramNotifier) parseMode() string {
	if n.config.ParseMode == "" {
		return "HTML"
	}
	return n.config.ParseMode
}

func (n *TelegramNotifier) bold(s string) string {
	if n.parseMode() == "HTML" {
		return "<b>" + html.EscapeString(s) + "</b>"
	}
	return "*" + s + "*"
}

func (n *TelegramNotifier) code(s string) string {
	if n.parseMode() == "HTML" {
		return "<code>" + html.EscapeString(s) + "</code>"
	}
	return "`" + s + "`"
}

func (n *TelegramNotifier) escape(s string) string {
	if n.parseMode() == "HTML" {
		return html.EscapeString(s)
	}
	return s
}

// sendMessage posts a sendMessage call for the configured chat.
// The bot token never appears in returned errors.
func (n *TelegramNotifier) sendMessage(ctx context.Context, text string) error {
	msg := TelegramMessage{
		ChatID:    n.config.ChatID,
		Text:      text,
		ParseMode: n.parseMode(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiURL, n.config.BotToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create telegram request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach telegram api")
	}

	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			n.logger.Error("Failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Description string `json:"description"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil || errorResp.Description == "" {
			return fmt.Errorf("telegram api error: status %d", resp.StatusCode)
		}
		return fmt.Errorf("telegram api error: %s", errorResp.Description)
	}

	return nil
}
