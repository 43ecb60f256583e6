package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"wanwatcher/internal/config"
	"wanwatcher/internal/types"
)

// Discord embed colors per event kind.
const (
	discordColorFirstRun = 0x00ff00
	discordColorChanged  = 0xff9900
	discordColorError    = 0xe74c3c
	discordColorUpdate   = 0x00d9ff
)

// DiscordNotifier represents Discord notifier
type DiscordNotifier struct {
	config *config.DiscordConfig
	meta   Meta
	logger *zap.Logger
	client *http.Client
}

// DiscordMessage represents Discord message
type DiscordMessage struct {
	Username  string         `json:"username,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Content   string         `json:"content,omitempty"`
	Embeds    []DiscordEmbed `json:"embeds,omitempty"`
}

// DiscordEmbed represents Discord embed
type DiscordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Fields      []DiscordField `json:"fields,omitempty"`
	Footer      struct {
		Text    string `json:"text"`
		IconURL string `json:"icon_url,omitempty"`
	} `json:"footer"`
	Timestamp string `json:"timestamp"`
}

// DiscordField represents Discord field
type DiscordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// NewDiscordNotifier creates new Discord notifier
func NewDiscordNotifier(cfg *config.DiscordConfig, meta Meta, logger *zap.Logger) (*DiscordNotifier, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("discord notifier is disabled")
	}

	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("discord webhook URL is required")
	}

	return &DiscordNotifier{
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
	}, nil
}

// Name returns the provider name
func (n *DiscordNotifier) Name() string {
	return string(NotifierDiscord)
}

// NotifyChange sends a first-run or address-change notification
func (n *DiscordNotifier) NotifyChange(ctx context.Context, event *types.ChangeEvent) error {
	var (
		title string
		color int
	)
	switch event.Kind {
	case types.EventFirstRun:
		title = "WAN IP Monitoring Started"
		color = discordColorFirstRun
	default:
		title = "WAN IP Address Changed"
		color = discordColorChanged
	}

	embed := DiscordEmbed{
		Title:     title,
		Color:     color,
		Timestamp: event.Current.Timestamp.UTC().Format(time.RFC3339),
	}
	embed.Footer.Text = n.footer()

	for _, version := range []types.IPVersion{types.IPv4, types.IPv6} {
		addr := event.Current.Addr(version)
		if addr == "" && !event.Changed(version) {
			continue
		}

		label := protocolLabel(version)
		embed.Fields = append(embed.Fields, DiscordField{
			Name:   "Current " + label,
			Value:  orNone(addr),
			Inline: true,
		})

		if event.Kind == types.EventChanged && event.Changed(version) {
			embed.Fields = append(embed.Fields, DiscordField{
				Name:   "Previous " + label,
				Value:  orNone(event.PreviousAddr(version)),
				Inline: true,
			})
		}
	}

	if event.Geo != nil {
		embed.Fields = append(embed.Fields,
			DiscordField{Name: "Location", Value: formatLocation(event.Geo), Inline: true},
			DiscordField{Name: "Provider", Value: orNone(event.Geo.Org), Inline: true},
		)
	}

	return n.send(ctx, DiscordMessage{
		Username:  n.meta.BotName,
		AvatarURL: n.config.AvatarURL,
		Embeds:    []DiscordEmbed{embed},
	})
}

// NotifyError sends a monitoring error notification
func (n *DiscordNotifier) NotifyError(ctx context.Context, message string) error {
	embed := DiscordEmbed{
		Title:       "WAN IP Monitoring Error",
		Description: message,
		Color:       discordColorError,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	embed.Footer.Text = n.footer()

	return n.send(ctx, DiscordMessage{
		Username:  n.meta.BotName,
		AvatarURL: n.config.AvatarURL,
		Embeds:    []DiscordEmbed{embed},
	})
}

// NotifyUpdate sends a new-release-available notification
func (n *DiscordNotifier) NotifyUpdate(ctx context.Context, info *types.UpdateInfo) error {
	embed := DiscordEmbed{
		Title:       "Update Available",
		Description: "A new version is ready to install.",
		Color:       discordColorUpdate,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Fields: []DiscordField{
			{Name: "Current Version", Value: "v" + info.CurrentVersion, Inline: true},
			{Name: "Latest Version", Value: "v" + info.LatestVersion, Inline: true},
			{Name: "What's New", Value: changelogPreview(info.ReleaseNotes)},
			{Name: "Full Changelog", Value: fmt.Sprintf("[View Release Notes](%s)", info.ReleaseURL)},
		},
	}
	embed.Footer.Text = fmt.Sprintf("Update check for %s", n.meta.ServerName)

	return n.send(ctx, DiscordMessage{
		Username:  n.meta.BotName,
		AvatarURL: n.config.AvatarURL,
		Embeds:    []DiscordEmbed{embed},
	})
}

func (n *DiscordNotifier) footer() string {
	return fmt.Sprintf("%s v%s | %s", n.meta.BotName, n.meta.Version, n.meta.ServerName)
}

// send posts the message to the webhook
func (n *DiscordNotifier) send(ctx context.Context, msg DiscordMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.WebhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			n.logger.Error("Failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("discord api error: status code %d", resp.StatusCode)
	}

	return nil
}
