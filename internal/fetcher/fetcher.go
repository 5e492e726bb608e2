// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/apex/log"

	"github.com/staranto/coursectl/internal/cacheutil"
	"github.com/staranto/coursectl/internal/catalog"
	"github.com/staranto/coursectl/internal/export"
	"github.com/staranto/coursectl/internal/httpx"
)

// Status says where the courses in a Result came from.
type Status int

const (
	// StatusFailed means nothing usable was found.
	StatusFailed Status = iota
	// StatusFetched means the catalog came from the remote service.
	StatusFetched
	// StatusCached means a fresh cache was used without a network call.
	StatusCached
	// StatusStale means the fetch failed and an old cache stood in.
	StatusStale
)

func (s Status) String() string {
	switch s {
	case StatusFetched:
		return "fetched"
	case StatusCached:
		return "cached"
	case StatusStale:
		return "stale"
	default:
		return "failed"
	}
}

// Result is the outcome of FetchAll. Err holds the error that was swallowed
// on the way, if any; it is set for StatusStale and StatusFailed.
type Result struct {
	Catalog catalog.Catalog
	Status  Status
	// Age of the cache content served. Zero when freshly fetched.
	Age time.Duration
	Err error
}

// OK reports whether the Result carries a catalog.
func (r Result) OK() bool { return r.Status != StatusFailed }

// Fetcher retrieves the course catalog and keeps a single cache file.
type Fetcher struct {
	cfg    Config
	client *http.Client
	now    func() time.Time
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client. Its Timeout is left as given.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithClock replaces time.Now for cache age computations.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// New validates cfg, creates the cache directory and returns a Fetcher.
func New(cfg Config, opts ...Option) (*Fetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f := &Fetcher{
		cfg:    cfg.Clone(),
		client: &http.Client{Timeout: cfg.Timeout},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}

	if err := cacheutil.EnsureDir(cfg.CacheDir); err != nil {
		return nil, err
	}

	return f, nil
}

// Config returns a copy of the fetcher's configuration.
func (f *Fetcher) Config() Config { return f.cfg.Clone() }

// CachePath is the location of the cache file.
func (f *Fetcher) CachePath() string {
	return filepath.Join(f.cfg.CacheDir, f.cfg.CacheFile)
}

// CacheAge is the age of the cache file, or cacheutil.InfiniteAge if there is
// none.
func (f *Fetcher) CacheAge() time.Duration {
	return cacheutil.Age(f.cfg.CacheDir, f.cfg.CacheFile, f.now())
}

// FetchAll returns the catalog. With useCache, a cache younger than MaxAge
// is served without touching the network. Otherwise the catalog is fetched
// and cached; if that fails, any cache, however old, is served instead.
// Errors are logged and reported in the Result, never returned.
func (f *Fetcher) FetchAll(ctx context.Context, useCache bool) Result {
	if useCache {
		age := f.CacheAge()
		if age < f.cfg.MaxAge {
			cat, err := f.LoadCache()
			if err == nil {
				log.Infof("using cached data (age: %.1f hours)", age.Hours())
				return Result{Catalog: cat, Status: StatusCached, Age: age}
			}
			log.WithError(err).Warn("cache unreadable, refreshing")
		} else if age != cacheutil.InfiniteAge {
			log.Infof("cache is %.1f hours old, refreshing", age.Hours())
		}
	}

	log.WithField("url", f.cfg.BaseURL).Info("fetching courses")

	cat, fetchErr := f.fetchRemote(ctx)
	if fetchErr == nil {
		if err := f.SaveCache(cat); err != nil {
			log.WithError(err).Error("failed to save cache")
		} else {
			log.WithField("path", f.CachePath()).Debug("cached data saved")
		}
		log.Infof("fetched %d courses", len(cat))
		return Result{Catalog: cat, Status: StatusFetched}
	}

	log.WithError(fetchErr).Error("failed to fetch courses")

	age := f.CacheAge()
	if age == cacheutil.InfiniteAge {
		return Result{Catalog: catalog.Catalog{}, Status: StatusFailed, Err: fetchErr}
	}

	cat, err := f.LoadCache()
	if err != nil {
		log.WithError(err).Error("failed to load stale cache")
		return Result{Catalog: catalog.Catalog{}, Status: StatusFailed, Err: errors.Join(fetchErr, err)}
	}

	log.Warnf("using stale cache as fallback (age: %.1f hours)", age.Hours())
	return Result{Catalog: cat, Status: StatusStale, Age: age, Err: fetchErr}
}

// LoadCache reads and parses the cache file regardless of its age.
func (f *Fetcher) LoadCache() (catalog.Catalog, error) {
	entry, ok, err := cacheutil.Read(f.cfg.CacheDir, f.cfg.CacheFile)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no cache at %s", f.CachePath())
	}
	cat, err := catalog.Parse(entry.Data, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load cache %s: %w", entry.Path, err)
	}
	return cat, nil
}

// SaveCache overwrites the cache file with cat.
func (f *Fetcher) SaveCache(cat catalog.Catalog) error {
	b, err := cat.Marshal()
	if err != nil {
		return err
	}
	_, err = cacheutil.Write(f.cfg.CacheDir, f.cfg.CacheFile, b)
	return err
}

// Fetch performs the remote request without consulting or updating the
// cache.
func (f *Fetcher) Fetch(ctx context.Context) (catalog.Catalog, error) {
	return f.fetchRemote(ctx)
}

func (f *Fetcher) fetchRemote(ctx context.Context) (catalog.Catalog, error) {
	req, err := f.newRequest(ctx)
	if err != nil {
		return nil, err
	}

	_, body, err := httpx.Do(ctx, f.client, req)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Parse(body, f.cfg.ResultsPath)
	if err != nil {
		return nil, fmt.Errorf("%w body=%s", err, httpx.Snippet(body, 200))
	}
	return cat, nil
}

func (f *Fetcher) newRequest(ctx context.Context) (*http.Request, error) {
	u, err := url.Parse(f.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	q := u.Query()
	for k, v := range f.cfg.Params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	var body io.Reader
	if f.cfg.Method != http.MethodGet && len(f.cfg.Payload) > 0 {
		b, err := json.Marshal(f.cfg.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, f.cfg.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range f.cfg.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// courses returns the given catalog, or the cached-or-fetched one when it
// is nil.
func (f *Fetcher) courses(ctx context.Context, courses catalog.Catalog) catalog.Catalog {
	if courses != nil {
		return courses
	}
	return f.FetchAll(ctx, true).Catalog
}

// CourseByCode looks up a course by code in courses, or in the cached or
// fetched catalog when courses is nil.
func (f *Fetcher) CourseByCode(ctx context.Context, code string, courses catalog.Catalog) (catalog.Course, bool) {
	return f.courses(ctx, courses).FindByCode(code)
}

// CoursesBySubject lists a subject's courses from courses, or from the
// cached or fetched catalog when courses is nil.
func (f *Fetcher) CoursesBySubject(ctx context.Context, subject string, courses catalog.Catalog) catalog.Catalog {
	return f.courses(ctx, courses).FindBySubject(subject)
}

// SearchCourses runs a free-text search over courses, or over the cached or
// fetched catalog when courses is nil.
func (f *Fetcher) SearchCourses(ctx context.Context, query string, courses catalog.Catalog) catalog.Catalog {
	return f.courses(ctx, courses).Search(query)
}

// ExportPath is where Export writes when no destination is given.
func (f *Fetcher) ExportPath() string {
	name := f.cfg.ExportFile
	if name == "" {
		name = DefaultExportFile
	}
	return filepath.Join(f.cfg.CacheDir, name)
}

// Export writes the catalog, cached or fetched, as indented JSON to dest
// (ExportPath when empty). It reports success; failures are logged.
func (f *Fetcher) Export(ctx context.Context, dest string) bool {
	res := f.FetchAll(ctx, true)
	if len(res.Catalog) == 0 {
		log.Error("nothing to export")
		return false
	}
	return f.ExportCatalog(ctx, res.Catalog, dest)
}

// ExportCatalog writes cat to dest (ExportPath when empty).
func (f *Fetcher) ExportCatalog(ctx context.Context, cat catalog.Catalog, dest string) bool {
	if dest == "" {
		dest = f.ExportPath()
	}

	b, err := cat.Marshal()
	if err != nil {
		log.WithError(err).Error("export error")
		return false
	}

	where, err := export.Write(ctx, dest, append(b, '\n'), f.cfg.Export)
	if err != nil {
		log.WithError(err).WithField("dest", dest).Error("export error")
		return false
	}

	log.Infof("exported %d courses to %s", len(cat), where)
	return true
}
