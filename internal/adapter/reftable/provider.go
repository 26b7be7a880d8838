// Package reftable loads the SAME event-code and state FIPS reference tables.
// Tables are read from a local cache directory; when a cache file is missing
// and a source URL is configured, the table is fetched once and cached for
// subsequent starts.
package reftable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/eas-alert-service/internal/domain"
)

const (
	sameCacheFile = "SAME_cache.json"
	fipsCacheFile = "FIPS_cache.json"

	fetchTimeout = 30 * time.Second
)

// Provider resolves the reference tables at startup.
type Provider struct {
	dir        string
	sameURL    string
	fipsURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewProvider creates a Provider reading from dir. sameURL and fipsURL are
// optional remote sources used only when the corresponding cache file is
// absent.
func NewProvider(dir, sameURL, fipsURL string, logger *slog.Logger) *Provider {
	return &Provider{
		dir:        dir,
		sameURL:    sameURL,
		fipsURL:    fipsURL,
		httpClient: &http.Client{Timeout: fetchTimeout},
		logger:     logger,
	}
}

// Load resolves both tables and validates them. Any failure here is fatal for
// the caller: encoding headers without valid tables would emit garbage codes.
func (p *Provider) Load(ctx context.Context) (*domain.Tables, error) {
	var events []domain.EventCodeEntry
	if err := p.loadTable(ctx, sameCacheFile, p.sameURL, &events); err != nil {
		return nil, fmt.Errorf("load SAME event codes: %w", err)
	}

	var fips []domain.FIPSEntry
	if err := p.loadTable(ctx, fipsCacheFile, p.fipsURL, &fips); err != nil {
		return nil, fmt.Errorf("load state FIPS codes: %w", err)
	}

	tables, err := domain.NewTables(events, fips)
	if err != nil {
		return nil, fmt.Errorf("validate reference tables: %w", err)
	}

	p.logger.Info("reference tables loaded",
		"event_codes", tables.EventCount(),
		"states", tables.StateCount(),
	)
	return tables, nil
}

// loadTable reads the cached file, falling back to a remote fetch when the
// cache is missing. A fetched table is written back to the cache; a write
// failure is logged but does not fail the load.
func (p *Provider) loadTable(ctx context.Context, name, url string, out any) error {
	path := filepath.Join(p.dir, name)

	data, err := os.ReadFile(path)
	if err == nil {
		return json.Unmarshal(data, out)
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if url == "" {
		return fmt.Errorf("cache file %s missing and no source URL configured", path)
	}

	data, err = p.fetch(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode table from %s: %w", url, err)
	}

	if err := os.MkdirAll(p.dir, 0o755); err == nil {
		err = os.WriteFile(path, data, 0o644)
	}
	if err != nil {
		p.logger.Warn("reference table cache write failed", "path", path, "error", err)
	}
	return nil
}

func (p *Provider) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("table source %s returned status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read table from %s: %w", url, err)
	}
	return data, nil
}
