// Package releases fetches editor release metadata and release notes,
// with an on-disk cache in front of the network.
package releases

import (
	"database/sql"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	ucomerrors "github.com/jakkovanhunen/ucom-sub000/core/errors"
	"github.com/jakkovanhunen/ucom-sub000/internal/logging"
)

// EnvEnableCache turns the HTTP cache off when set to "false" or "0".
const EnvEnableCache = "UCOM_ENABLE_CACHE"

// DefaultTTL is how long cached content stays fresh.
const DefaultTTL = time.Hour

const cacheSchema = `
CREATE TABLE IF NOT EXISTS http_cache (
	url        TEXT PRIMARY KEY,
	fetched_at INTEGER NOT NULL,
	content    BLOB NOT NULL
);`

// Cache is a TTL cache of HTTP GET responses keyed by URL. Whether it
// is enabled is decided once at construction; a disabled cache passes
// every fetch straight to the network.
type Cache struct {
	db      *sql.DB
	enabled bool
	ttl     time.Duration
	client  *http.Client

	// now is replaceable for tests.
	now func() time.Time
}

// CacheEnabledFromEnv reads the cache switch from the environment; the
// cache defaults to on.
func CacheEnabledFromEnv() bool {
	switch os.Getenv(EnvEnableCache) {
	case "false", "0":
		return false
	default:
		return true
	}
}

// DefaultCachePath returns the cache database location under the user
// cache directory.
func DefaultCachePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", ucomerrors.Wrap(err, "cannot determine cache directory")
	}
	return filepath.Join(dir, "ucom", "http_cache.db"), nil
}

// OpenCache opens (or creates) the cache database at path.
func OpenCache(path string, enabled bool) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, ucomerrors.Wrapf(err, "cannot create cache directory %s", filepath.Dir(path))
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, ucomerrors.Wrapf(err, "cannot open cache database %s", path)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, ucomerrors.Wrap(err, "cannot initialize cache database")
	}

	return &Cache{
		db:      db,
		enabled: enabled,
		ttl:     DefaultTTL,
		client:  &http.Client{Timeout: 60 * time.Second},
		now:     time.Now,
	}, nil
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Fetch returns the body of url, served from the cache when a fresh
// copy exists.
func (c *Cache) Fetch(url string) ([]byte, error) {
	if c.enabled {
		if content, ok := c.lookup(url); ok {
			logging.Debug("cache hit", "url", url)
			return content, nil
		}
	}

	content, err := c.download(url)
	if err != nil {
		return nil, err
	}

	if c.enabled {
		if err := c.store(url, content); err != nil {
			// A failed cache write only costs the next fetch.
			logging.Warn("cannot write to http cache", "url", url, "error", err)
		}
	}
	return content, nil
}

func (c *Cache) lookup(url string) ([]byte, bool) {
	var fetchedAt int64
	var content []byte
	err := c.db.QueryRow(
		"SELECT fetched_at, content FROM http_cache WHERE url = ?", url,
	).Scan(&fetchedAt, &content)
	if err != nil {
		return nil, false
	}
	if c.now().Sub(time.Unix(fetchedAt, 0)) > c.ttl {
		return nil, false
	}
	return content, true
}

func (c *Cache) store(url string, content []byte) error {
	_, err := c.db.Exec(
		"INSERT INTO http_cache (url, fetched_at, content) VALUES (?, ?, ?) "+
			"ON CONFLICT(url) DO UPDATE SET fetched_at = excluded.fetched_at, content = excluded.content",
		url, c.now().Unix(), content,
	)
	return err
}

func (c *Cache) download(url string) ([]byte, error) {
	resp, err := c.client.Get(url)
	if err != nil {
		return nil, ucomerrors.Wrapf(err, "failed to fetch %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ucomerrors.Wrapf(ucomerrors.ErrNotFound, "%s returned status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Clear drops all cached content.
func (c *Cache) Clear() error {
	_, err := c.db.Exec("DELETE FROM http_cache")
	if err != nil {
		return ucomerrors.Wrap(err, "cannot clear http cache")
	}
	return nil
}

// Stats reports the number of cached entries and their total size in
// bytes.
func (c *Cache) Stats() (entries int, size int64, err error) {
	err = c.db.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(LENGTH(content)), 0) FROM http_cache",
	).Scan(&entries, &size)
	if err != nil {
		return 0, 0, ucomerrors.Wrap(err, "cannot read cache stats")
	}
	return entries, size, nil
}
