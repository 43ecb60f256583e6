// Package geo enriches change events with location data from ipinfo.io.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"wanwatcher/internal/types"
)

const (
	defaultBaseURL = "https://ipinfo.io"
	lookupTimeout  = 10 * time.Second
)

// Client queries ipinfo.io for details about the host's public address.
type Client struct {
	token   string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient returns a geo client, or nil when no token is configured.
// Callers treat a nil client as geo lookups being disabled.
func NewClient(token string, logger *zap.Logger) *Client {
	if token == "" {
		return nil
	}
	return &Client{
		token:   token,
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: lookupTimeout,
		},
		logger: logger,
	}
}

// Lookup fetches geo details for the current public address.
func (c *Client) Lookup(ctx context.Context) (*types.GeoInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo lookup returned status %d", resp.StatusCode)
	}

	var info types.GeoInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode geo response: %w", err)
	}

	c.logger.Debug("Geo lookup succeeded",
		zap.String("city", info.City),
		zap.String("country", info.Country))

	return &info, nil
}
