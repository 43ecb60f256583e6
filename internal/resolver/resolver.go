package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wanwatcher/internal/config"
	"wanwatcher/internal/netutil"
	"wanwatcher/internal/types"

	"go.uber.org/zap"
)

const (
	requestTimeout = 10 * time.Second
	maxBodySize    = 1024
)

// Resolver looks up the host's public address from external services with
// fallback ordering. All services failing is not an error; the protocol is
// simply reported absent for this cycle.
type Resolver struct {
	client    *http.Client
	providers map[types.IPVersion][]string
	logger    *zap.Logger
}

// New creates a new resolver from monitor configuration
func New(cfg *config.MonitorConfig, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		client: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				DisableCompression:  true,
				MaxIdleConnsPerHost: 5,
			},
		},
		providers: map[types.IPVersion][]string{
			types.IPv4: cfg.IPv4Providers,
			types.IPv6: cfg.IPv6Providers,
		},
		logger: logger,
	}
}

// Resolve returns the current public address for the given protocol. When
// the protocol is disabled it returns absent without any network call. The
// first configured service whose response parses as an address of the
// requested family wins; every service failing yields absent.
func (r *Resolver) Resolve(ctx context.Context, version types.IPVersion, enabled bool) (string, bool) {
	if !enabled {
		return "", false
	}

	for _, serviceURL := range r.providers[version] {
		addr, err := r.lookup(ctx, serviceURL, version)
		if err != nil {
			r.logger.Warn("IP lookup service failed",
				zap.String("service", serviceURL),
				zap.String("protocol", string(version)),
				zap.Error(err))
			continue
		}

		r.logger.Debug("Resolved public address",
			zap.String("service", serviceURL),
			zap.String("protocol", string(version)))
		return addr, true
	}

	r.logger.Warn("All IP lookup services failed",
		zap.String("protocol", string(version)),
		zap.Int("services", len(r.providers[version])))
	return "", false
}

// lookup queries one service for an address of the requested family
func (r *Resolver) lookup(ctx context.Context, serviceURL string, version types.IPVersion) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serviceURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	addr, _, _ := strings.Cut(strings.TrimSpace(string(body)), "\n")
	addr = strings.TrimSpace(addr)
	if !netutil.MatchesVersion(addr, version == types.IPv6) {
		return "", fmt.Errorf("response is not a valid %s address", version)
	}

	return addr, nil
}
