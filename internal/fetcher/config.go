// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetcher

import (
	"fmt"
	"maps"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/staranto/coursectl/internal/export"
)

const (
	DefaultBaseURL     = "https://catalog.ncsu.edu/api/"
	DefaultResultsPath = "results"
	DefaultCacheFile   = "courses_cache.json"
	DefaultExportFile  = "courses.json"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxAge      = 24 * time.Hour
)

// Config describes where the catalog comes from and where it is cached.
type Config struct {
	BaseURL string `validate:"required,url"`
	Method  string `validate:"required,oneof=GET POST"`

	// Params are added to the query string, Headers to every request.
	Params  map[string]string
	Headers map[string]string

	// Payload is sent as a JSON body on POST. The remote search endpoint
	// accepts it, but whether it narrows the result is up to the server.
	Payload map[string]string

	// ResultsPath is the gjson path to the course array when the response
	// is an object rather than a bare array.
	ResultsPath string

	Timeout time.Duration `validate:"gt=0"`

	CacheDir  string        `validate:"required"`
	CacheFile string        `validate:"required"`
	MaxAge    time.Duration `validate:"gt=0"`

	// ExportFile is the default export target, relative to CacheDir.
	ExportFile string

	Export export.Options
}

// DefaultConfig returns the settings for the NCSU course search API.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Method:  http.MethodPost,
		Params: map[string]string{
			"page":  "fose",
			"route": "search",
		},
		Headers: map[string]string{
			"Accept":          "application/json, text/javascript, */*; q=0.01",
			"Accept-Encoding": "gzip, deflate, br, zstd",
			"Accept-Language": "en-US,en;q=0.9",
			"Content-Type":    "application/json",
			"Origin":          "https://catalog.ncsu.edu",
			"Referer":         "https://catalog.ncsu.edu/course-search/",
			"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		},
		Payload: map[string]string{
			"keyword": "",
			"subject": "",
			"level":   "",
			"year":    "",
		},
		ResultsPath: DefaultResultsPath,
		Timeout:     DefaultTimeout,
		CacheDir:    "./data",
		CacheFile:   DefaultCacheFile,
		MaxAge:      DefaultMaxAge,
		ExportFile:  DefaultExportFile,
	}
}

// Clone returns a copy whose maps can be modified independently.
func (c Config) Clone() Config {
	out := c
	out.Params = maps.Clone(c.Params)
	out.Headers = maps.Clone(c.Headers)
	out.Payload = maps.Clone(c.Payload)
	return out
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the config for values a fetch cannot proceed without.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid fetcher config: %w", err)
	}
	return nil
}
