package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"wanwatcher/internal/config"
	"wanwatcher/internal/types"
)

type stubDispatcher struct {
	infos []*types.UpdateInfo
}

func (s *stubDispatcher) DispatchUpdate(_ context.Context, info *types.UpdateInfo) map[string]types.NotificationResult {
	s.infos = append(s.infos, info)
	return nil
}

func newTestChecker(t *testing.T, current, url string, d Dispatcher) *Checker {
	t.Helper()
	c := NewChecker(&config.UpdateConfig{
		Enabled:   true,
		Interval:  24 * time.Hour,
		OnStartup: true,
		Repo:      "example/wanwatcher",
	}, current, d, zaptest.NewLogger(t))
	c.apiURL = url
	return c
}

func TestCheckOnceDispatchesNewerRelease(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{
			"tag_name": "v1.4.0",
			"html_url": "https://github.com/example/wanwatcher/releases/tag/v1.4.0",
			"body": "- Faster lookups\n- Fixed IPv6 validation\n"
		}`))
	}))
	defer srv.Close()

	d := &stubDispatcher{}
	c := newTestChecker(t, "1.3.0", srv.URL, d)

	c.CheckOnce(context.Background())

	assert.Equal(t, "/repos/example/wanwatcher/releases/latest", path)
	require.Len(t, d.infos, 1)
	info := d.infos[0]
	assert.Equal(t, "1.3.0", info.CurrentVersion)
	assert.Equal(t, "1.4.0", info.LatestVersion)
	assert.Equal(t, "https://github.com/example/wanwatcher/releases/tag/v1.4.0", info.ReleaseURL)
	assert.Contains(t, info.ReleaseNotes, "Faster lookups")
}

func TestCheckOnceSkipsCurrentRelease(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag_name": "v1.3.0", "html_url": "https://example.com"}`))
	}))
	defer srv.Close()

	d := &stubDispatcher{}
	c := newTestChecker(t, "1.3.0", srv.URL, d)

	c.CheckOnce(context.Background())

	assert.Empty(t, d.infos)
}

func TestCheckOnceNotifiesEachReleaseOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag_name": "v1.4.0", "html_url": "https://example.com"}`))
	}))
	defer srv.Close()

	d := &stubDispatcher{}
	c := newTestChecker(t, "1.3.0", srv.URL, d)

	c.CheckOnce(context.Background())
	c.CheckOnce(context.Background())

	assert.Len(t, d.infos, 1)
}

func TestCheckOnceSkipsUnversionedBuild(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	d := &stubDispatcher{}
	c := newTestChecker(t, "dev", srv.URL, d)

	c.CheckOnce(context.Background())

	assert.Zero(t, calls.Load())
	assert.Empty(t, d.infos)
}

func TestCheckOnceAPIFailureIsNonFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	d := &stubDispatcher{}
	c := newTestChecker(t, "1.3.0", srv.URL, d)

	c.CheckOnce(context.Background())

	assert.Empty(t, d.infos)
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		candidate string
		current   string
		want      bool
	}{
		{"1.4.0", "1.3.0", true},
		{"1.3.1", "1.3.0", true},
		{"2.0.0", "1.9.9", true},
		{"1.3.0", "1.3.0", false},
		{"1.2.9", "1.3.0", false},
		{"1.3", "1.3.0", false},
		{"1.3.0.1", "1.3.0", true},
		{"1.4.0-rc1", "1.3.0", true},
		{"not-a-version", "1.3.0", false},
		{"1.4.0", "garbage", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isNewer(tt.candidate, tt.current),
			"%s vs %s", tt.candidate, tt.current)
	}
}
