package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"wanwatcher/internal/types"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	return NewStore(path, zaptest.NewLogger(t)), path
}

func TestLoadMissingFile(t *testing.T) {
	store, _ := testStore(t)

	st, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, _ := testStore(t)

	saved := &types.State{
		IPv4:        "203.0.113.5",
		IPv6:        "2001:db8::1",
		LastUpdated: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Save(saved))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, types.StateFormatVersion, loaded.FormatVersion)
	assert.Equal(t, "203.0.113.5", loaded.IPv4)
	assert.Equal(t, "2001:db8::1", loaded.IPv6)
	assert.True(t, saved.LastUpdated.Equal(loaded.LastUpdated))
}

func TestSaveOverwrites(t *testing.T) {
	store, _ := testStore(t)

	require.NoError(t, store.Save(&types.State{IPv4: "203.0.113.5"}))
	require.NoError(t, store.Save(&types.State{IPv4: "203.0.113.9"}))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "203.0.113.9", loaded.IPv4)
	assert.Empty(t, loaded.IPv6)
}

func TestLoadMigratesLegacyRecord(t *testing.T) {
	store, path := testStore(t)

	legacy := `{"ip": "198.51.100.7", "last_updated": "2024-06-01T12:00:00Z"}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, types.StateFormatVersion, loaded.FormatVersion)
	assert.Equal(t, "198.51.100.7", loaded.IPv4)
	assert.Empty(t, loaded.IPv6)
	assert.Equal(t, 2024, loaded.LastUpdated.Year())
}

func TestLoadMigratesBareAddressFile(t *testing.T) {
	store, path := testStore(t)

	require.NoError(t, os.WriteFile(path, []byte("198.51.100.7\n"), 0644))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "198.51.100.7", loaded.IPv4)
	assert.Empty(t, loaded.IPv6)
}

func TestLoadTreatsGarbageAsFirstRun(t *testing.T) {
	store, path := testStore(t)

	require.NoError(t, os.WriteFile(path, []byte("not json, not an ip"), 0644))

	st, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestSaveRepairsUnrecognizedFile(t *testing.T) {
	store, path := testStore(t)

	require.NoError(t, os.WriteFile(path, []byte(`{"bogus": true}`), 0644))

	st, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, st)

	require.NoError(t, store.Save(&types.State{IPv4: "203.0.113.5"}))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "203.0.113.5", loaded.IPv4)
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "state.json")
	store := NewStore(path, zaptest.NewLogger(t))

	require.NoError(t, store.Save(&types.State{IPv4: "203.0.113.5"}))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "203.0.113.5", loaded.IPv4)
}
