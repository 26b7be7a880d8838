package reftable

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sameJSON = `[
  {"Event Description": "Tornado Warning", "Event Code": "TOR", "Event Level": "Warning"},
  {"Event Description": "Severe Thunderstorm Warning", "Event Code": "SVR", "Event Level": "Warning"}
]`

const fipsJSON = `[
  {"State": "TX", "State Code": "48"},
  {"State": "OK", "State Code": "40"}
]`

func writeCaches(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SAME_cache.json"), []byte(sameJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "FIPS_cache.json"), []byte(fipsJSON), 0o644))
}

func TestProvider_LoadFromCache(t *testing.T) {
	dir := t.TempDir()
	writeCaches(t, dir)

	p := NewProvider(dir, "", "", discardLogger())
	tables, err := p.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, tables.EventCount())
	assert.Equal(t, 2, tables.StateCount())

	entry, ok := tables.EventCode("Tornado Warning")
	require.True(t, ok)
	assert.Equal(t, "TOR", entry.Code)
	assert.Equal(t, "48", tables.StateCode("TX"))
}

func TestProvider_FetchesAndCachesWhenMissing(t *testing.T) {
	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		switch r.URL.Path {
		case "/same.json":
			w.Write([]byte(sameJSON))
		case "/fips.json":
			w.Write([]byte(fipsJSON))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	p := NewProvider(dir, server.URL+"/same.json", server.URL+"/fips.json", discardLogger())

	tables, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, tables.EventCount())
	assert.Equal(t, 2, fetches)

	// Both tables are now cached on disk.
	assert.FileExists(t, filepath.Join(dir, "SAME_cache.json"))
	assert.FileExists(t, filepath.Join(dir, "FIPS_cache.json"))

	// A second load reads the cache without touching the source.
	_, err = NewProvider(dir, server.URL+"/same.json", server.URL+"/fips.json", discardLogger()).
		Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fetches)
}

func TestProvider_MissingCacheWithoutURL(t *testing.T) {
	p := NewProvider(t.TempDir(), "", "", discardLogger())
	_, err := p.Load(context.Background())
	assert.ErrorContains(t, err, "no source URL configured")
}

func TestProvider_SourceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p := NewProvider(t.TempDir(), server.URL+"/same.json", server.URL+"/fips.json", discardLogger())
	_, err := p.Load(context.Background())
	assert.ErrorContains(t, err, "status 502")
}

func TestProvider_AmbiguousTableFailsLoad(t *testing.T) {
	dir := t.TempDir()
	dup := `[
	  {"Event Description": "Tornado Warning", "Event Code": "TOR"},
	  {"Event Description": "Tornado Warning", "Event Code": "SVR"}
	]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SAME_cache.json"), []byte(dup), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "FIPS_cache.json"), []byte(fipsJSON), 0o644))

	p := NewProvider(dir, "", "", discardLogger())
	_, err := p.Load(context.Background())
	assert.ErrorContains(t, err, "duplicate event description")
}

func TestProvider_CorruptCacheFailsLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SAME_cache.json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "FIPS_cache.json"), []byte(fipsJSON), 0o644))

	p := NewProvider(dir, "", "", discardLogger())
	_, err := p.Load(context.Background())
	assert.ErrorContains(t, err, "load SAME event codes")
}
