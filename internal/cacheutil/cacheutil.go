// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
)

// InfiniteAge is the age reported for an entry that does not exist.
const InfiniteAge = time.Duration(math.MaxInt64)

// Entry represents a cached artifact on disk.
type Entry struct {
	Name    string
	Path    string
	Data    []byte
	ModTime time.Time
}

// Age reports how old the entry is relative to now.
//
// Freshness is taken from the file mtime, not from the payload. A skewed
// clock or anything that touches the file will shift it.
func (e *Entry) Age(now time.Time) time.Duration {
	if e == nil {
		return InfiniteAge
	}
	return now.Sub(e.ModTime)
}

// Dir resolves the base cache directory.
// Precedence:
//  1. configured (the --cache-dir flag or config cache.dir), if non-empty
//  2. COURSECTL_CACHE_DIR, if set and non-empty
//  3. os.UserCacheDir()/coursectl
//
// Returns ("", false) if a base cannot be resolved.
func Dir(configured string) (string, bool) {
	if configured != "" {
		return configured, true
	}
	if c, ok := os.LookupEnv("COURSECTL_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "coursectl"), true
	}
	return "", false
}

// Enabled returns true unless COURSECTL_CACHE explicitly disables it
// ("0"/"false").
func Enabled() bool {
	enabled, _ := os.LookupEnv("COURSECTL_CACHE")
	return enabled == "" || (enabled != "0" && enabled != "false")
}

// EnsureDir creates dir and its parents if needed.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}

// EntryPath returns where the named entry lives under dir, and whether a
// regular file is there now.
func EntryPath(dir, name string) (string, bool) {
	p := filepath.Join(dir, name)
	if info, err := os.Stat(p); err == nil && !info.IsDir() {
		return p, true
	}
	return p, false
}

// Stat returns the entry metadata without reading its content.
func Stat(dir, name string) (*Entry, bool) {
	p, ok := EntryPath(dir, name)
	if !ok {
		return nil, false
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, false
	}
	return &Entry{Name: name, Path: p, ModTime: info.ModTime()}, true
}

// Age returns the age of the named entry, or InfiniteAge when it is absent.
func Age(dir, name string, now time.Time) time.Duration {
	e, ok := Stat(dir, name)
	if !ok {
		return InfiniteAge
	}
	return e.Age(now)
}

// Read loads the named entry. A missing entry is reported with ok == false
// and a nil error; any other failure comes back as the error.
func Read(dir, name string) (*Entry, bool, error) {
	p, ok := EntryPath(dir, name)
	if !ok {
		return nil, false, nil
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, false, fmt.Errorf("failed to stat cache entry: %w", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return &Entry{
		Name:    name,
		Path:    p,
		Data:    bytes.TrimSpace(b),
		ModTime: info.ModTime(),
	}, true, nil
}

// Write stores data as the named entry, replacing any previous content.
func Write(dir, name string, data []byte) (string, error) {
	if err := EnsureDir(dir); err != nil {
		return "", err
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, os.FileMode(0o644)); err != nil { //nolint:mnd
		return p, fmt.Errorf("failed to write to cache: %w", err)
	}
	return p, nil
}

// Purge removes files under dir older than the provided number of hours and
// returns how many were removed. If hours <= 0 it is a no-op.
func Purge(dir string, hours int, now time.Time) (int, error) {
	if hours <= 0 {
		log.Debug("cache cleaning disabled")
		return 0, nil
	}
	maxAge := time.Duration(hours) * time.Hour
	removed := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if now.Sub(info.ModTime()) > maxAge {
			if err := os.Remove(path); err == nil {
				removed++
				log.Debugf("removed cache file %s", path)
			} else {
				log.WithError(err).Warnf("failed to remove cache file %s", path)
			}
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to purge cache: %w", err)
	}
	return removed, nil
}
