// Package notify delivers change and error alerts to the configured providers.
package notify

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"wanwatcher/internal/config"
	"wanwatcher/internal/types"
)

// NotifierType represents the type of notifier
type NotifierType string

const (
	NotifierDiscord  NotifierType = "discord"
	NotifierTelegram NotifierType = "telegram"
	NotifierEmail    NotifierType = "email"
)

// Notifier represents notifier interface
type Notifier interface {
	// Name returns the provider name used in logs and results
	Name() string

	// NotifyChange sends a first-run or address-change notification
	NotifyChange(ctx context.Context, event *types.ChangeEvent) error

	// NotifyError sends a monitoring error notification
	NotifyError(ctx context.Context, message string) error

	// NotifyUpdate sends a new-release-available notification
	NotifyUpdate(ctx context.Context, info *types.UpdateInfo) error
}

// Meta carries identity details rendered into every notification.
type Meta struct {
	ServerName  string
	BotName     string
	Version     string
	Environment string
}

// Manager represents notifier manager
type Manager struct {
	logger    *zap.Logger
	notifiers []Notifier
	retrier   *retrier
}

// NewManager creates new notifier manager. An enabled provider that cannot
// be constructed is a hard error so misconfiguration surfaces at startup.
func NewManager(cfg *config.NotifyConfig, meta Meta, logger *zap.Logger) (*Manager, error) {
	m := &Manager{
		logger:  logger,
		retrier: newRetrier(),
	}

	if cfg.Discord.Enabled {
		n, err := NewDiscordNotifier(&cfg.Discord, meta, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize discord notifier: %w", err)
		}
		m.notifiers = append(m.notifiers, n)
	}

	if cfg.Telegram.Enabled {
		n, err := NewTelegramNotifier(&cfg.Telegram, meta, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telegram notifier: %w", err)
		}
		m.notifiers = append(m.notifiers, n)
	}

	if cfg.Email.Enabled {
		n, err := NewEmailNotifier(&cfg.Email, meta, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize email notifier: %w", err)
		}
		m.notifiers = append(m.notifiers, n)
	}

	if len(m.notifiers) == 0 {
		return nil, fmt.Errorf("no notification providers enabled")
	}

	return m, nil
}

// Dispatch sends a change event to every provider and returns the
// per-provider outcome. Providers run concurrently and exhaustion of one
// never blocks the others.
func (m *Manager) Dispatch(ctx context.Context, event *types.ChangeEvent) map[string]types.NotificationResult {
	log := m.logger.With(zap.String("event_id", event.ID))
	return m.fanout(ctx, log, func(n Notifier) func(context.Context) error {
		return func(ctx context.Context) error {
			return n.NotifyChange(ctx, event)
		}
	})
}

// DispatchUpdate announces a newer released version through every provider.
func (m *Manager) DispatchUpdate(ctx context.Context, info *types.UpdateInfo) map[string]types.NotificationResult {
	log := m.logger.With(zap.String("latest_version", info.LatestVersion))
	return m.fanout(ctx, log, func(n Notifier) func(context.Context) error {
		return func(ctx context.Context) error {
			return n.NotifyUpdate(ctx, info)
		}
	})
}

// DispatchError sends a monitoring error message to every provider.
func (m *Manager) DispatchError(ctx context.Context, message string) map[string]types.NotificationResult {
	return m.fanout(ctx, m.logger, func(n Notifier) func(context.Context) error {
		return func(ctx context.Context) error {
			return n.NotifyError(ctx, message)
		}
	})
}

func (m *Manager) fanout(ctx context.Context, log *zap.Logger, bind func(Notifier) func(context.Context) error) map[string]types.NotificationResult {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]types.NotificationResult, len(m.notifiers))
	)

	for _, n := range m.notifiers {
		wg.Add(1)
		go func(n Notifier) {
			defer wg.Done()
			result := m.retrier.run(ctx, log, n.Name(), bind(n))
			mu.Lock()
			results[n.Name()] = result
			mu.Unlock()
		}(n)
	}

	wg.Wait()

	for name, result := range results {
		log.Debug("Notification dispatched",
			zap.String("provider", name),
			zap.String("status", string(result.FinalStatus)),
			zap.Int("attempts", len(result.Attempts)))
	}

	return results
}
