// Package update polls GitHub releases and announces newer versions
// through the notification providers.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"wanwatcher/internal/config"
	"wanwatcher/internal/types"
)

const (
	githubAPIURL   = "https://api.github.com"
	requestTimeout = 10 * time.Second
)

// Dispatcher announces an available update to the configured providers.
type Dispatcher interface {
	DispatchUpdate(ctx context.Context, info *types.UpdateInfo) map[string]types.NotificationResult
}

// Checker periodically compares the running version against the latest
// published release.
type Checker struct {
	config     *config.UpdateConfig
	dispatcher Dispatcher
	logger     *zap.Logger
	client     *http.Client
	current    string

	// apiURL is swapped out in tests
	apiURL string

	// notified suppresses repeat announcements of the same release
	notified string
}

// NewChecker creates an update checker for the given running version.
func NewChecker(cfg *config.UpdateConfig, currentVersion string, dispatcher Dispatcher, logger *zap.Logger) *Checker {
	return &Checker{
		config:     cfg,
		dispatcher: dispatcher,
		logger:     logger,
		client: &http.Client{
			Timeout: requestTimeout,
		},
		current: strings.TrimPrefix(currentVersion, "v"),
		apiURL:  githubAPIURL,
	}
}

// release is the subset of the GitHub release payload we read
type release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
	Body    string `json:"body"`
}

// Run checks on startup when configured and then on every interval tick
// until the context is canceled.
func (c *Checker) Run(ctx context.Context) {
	if c.config.OnStartup {
		c.CheckOnce(ctx)
	}

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckOnce(ctx)
		}
	}
}

// CheckOnce fetches the latest release and dispatches a notification when
// it is newer than the running version. Failures are logged, never raised;
// a broken update check must not disturb monitoring.
func (c *Checker) CheckOnce(ctx context.Context) {
	if c.current == "" || c.current == "dev" || c.current == "unknown" {
		c.logger.Debug("Skipping update check for unversioned build")
		return
	}

	rel, err := c.latestRelease(ctx)
	if err != nil {
		c.logger.Warn("Update check failed", zap.Error(err))
		return
	}

	latest := strings.TrimPrefix(rel.TagName, "v")
	if !isNewer(latest, c.current) {
		c.logger.Debug("Running version is up to date",
			zap.String("current", c.current),
			zap.String("latest", latest))
		return
	}

	if latest == c.notified {
		return
	}
	c.notified = latest

	c.logger.Info("New release available",
		zap.String("current", c.current),
		zap.String("latest", latest))

	c.dispatcher.DispatchUpdate(ctx, &types.UpdateInfo{
		CurrentVersion: c.current,
		LatestVersion:  latest,
		ReleaseURL:     rel.HTMLURL,
		ReleaseNotes:   rel.Body,
	})
}

// latestRelease fetches the most recent published release for the repo
func (c *Checker) latestRelease(ctx context.Context) (*release, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.apiURL, c.config.Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("release lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release lookup returned status %d", resp.StatusCode)
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("failed to decode release: %w", err)
	}
	if rel.TagName == "" {
		return nil, fmt.Errorf("release has no tag name")
	}

	return &rel, nil
}

// isNewer compares dotted numeric versions, ignoring any pre-release
// suffix. Unparseable versions are never considered newer.
func isNewer(candidate, current string) bool {
	a := versionParts(candidate)
	b := versionParts(current)
	if a == nil || b == nil {
		return false
	}

	for i := 0; i < len(a) || i < len(b); i++ {
		var av, bv int
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if av != bv {
			return av > bv
		}
	}
	return false
}

func versionParts(v string) []int {
	v, _, _ = strings.Cut(v, "-")
	fields := strings.Split(v, ".")
	parts := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil
		}
		parts = append(parts, n)
	}
	return parts
}
