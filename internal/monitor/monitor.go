// Package monitor drives the resolve, detect, persist, notify cycle.
package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wanwatcher/internal/config"
	"wanwatcher/internal/detector"
	"wanwatcher/internal/netutil"
	"wanwatcher/internal/types"
)

// Resolver resolves the public address for one protocol.
type Resolver interface {
	Resolve(ctx context.Context, version types.IPVersion, enabled bool) (string, bool)
}

// StateStore loads and persists the last-known address record.
type StateStore interface {
	Load() (*types.State, error)
	Save(state *types.State) error
}

// Dispatcher fans out notifications to the configured providers.
type Dispatcher interface {
	Dispatch(ctx context.Context, event *types.ChangeEvent) map[string]types.NotificationResult
	DispatchError(ctx context.Context, message string) map[string]types.NotificationResult
}

// GeoLookup enriches events with location data. A nil GeoLookup
// disables enrichment.
type GeoLookup interface {
	Lookup(ctx context.Context) (*types.GeoInfo, error)
}

// Monitor represents the monitoring loop
type Monitor struct {
	config     *config.MonitorConfig
	resolver   Resolver
	store      StateStore
	dispatcher Dispatcher
	geo        GeoLookup
	logger     *zap.Logger
}

// New creates a monitor
func New(cfg *config.MonitorConfig, resolver Resolver, store StateStore, dispatcher Dispatcher, geo GeoLookup, logger *zap.Logger) *Monitor {
	return &Monitor{
		config:     cfg,
		resolver:   resolver,
		store:      store,
		dispatcher: dispatcher,
		geo:        geo,
		logger:     logger,
	}
}

// Run executes an initial check and then checks on every interval tick
// until the context is canceled.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("Starting WAN IP monitor",
		zap.Duration("interval", m.config.Interval),
		zap.Bool("ipv4", m.config.IPv4),
		zap.Bool("ipv6", m.config.IPv6))

	if err := m.RunOnce(ctx); err != nil {
		m.logger.Error("Monitoring cycle failed", zap.Error(err))
	}

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Stopping WAN IP monitor")
			return nil
		case <-ticker.C:
			if err := m.RunOnce(ctx); err != nil {
				m.logger.Error("Monitoring cycle failed", zap.Error(err))
			}
		}
	}
}

// RunOnce performs a single monitoring cycle.
func (m *Monitor) RunOnce(ctx context.Context) error {
	snapshot := m.resolve(ctx)

	if snapshot.Empty() {
		msg := "All IP lookup services failed"
		if m.config.IPv4 && m.config.IPv6 {
			msg = "All IP lookup services failed for both IPv4 and IPv6"
		}
		m.logger.Error(msg)
		m.dispatcher.DispatchError(ctx, msg)
		return nil
	}

	stored, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	event := detector.Detect(snapshot, stored)

	m.logger.Info("Monitoring cycle completed",
		zap.String("event_id", event.ID),
		zap.String("event", string(event.Kind)),
		zap.String("ipv4", snapshot.IPv4),
		zap.String("ipv6", snapshot.IPv6))

	if event.Kind == types.EventUnchanged {
		return nil
	}

	// Persist before dispatch so a repeated address never renotifies
	// after a crash mid-delivery.
	if err := m.store.Save(&types.State{
		IPv4:        snapshot.IPv4,
		IPv6:        snapshot.IPv6,
		LastUpdated: snapshot.Timestamp,
	}); err != nil {
		m.logger.Warn("Failed to persist state",
			zap.String("event_id", event.ID),
			zap.Error(err))
	}

	if m.geo != nil {
		geo, err := m.geo.Lookup(ctx)
		if err != nil {
			m.logger.Warn("Geo lookup failed", zap.Error(err))
		} else {
			event.Geo = geo
		}
	}

	results := m.dispatcher.Dispatch(ctx, &event)
	for provider, result := range results {
		if result.FinalStatus != types.StatusSuccess {
			m.logger.Error("Notification delivery failed",
				zap.String("event_id", event.ID),
				zap.String("provider", provider),
				zap.Int("attempts", len(result.Attempts)))
		}
	}

	return nil
}

// resolve builds a snapshot of the currently detected addresses.
// A resolved IPv6 address that is not globally routable is dropped.
func (m *Monitor) resolve(ctx context.Context) types.Snapshot {
	snapshot := types.Snapshot{Timestamp: time.Now().UTC()}

	if addr, ok := m.resolver.Resolve(ctx, types.IPv4, m.config.IPv4); ok {
		snapshot.IPv4 = addr
	}

	if addr, ok := m.resolver.Resolve(ctx, types.IPv6, m.config.IPv6); ok {
		if netutil.IsGlobalUnicastIPv6(addr) {
			snapshot.IPv6 = addr
		} else {
			m.logger.Warn("Discarding non-global IPv6 address",
				zap.String("address", addr))
		}
	}

	return snapshot
}
