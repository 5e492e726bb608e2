// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/staranto/coursectl/internal/config"
	"github.com/staranto/coursectl/internal/fetcher"
)

// fetcherConfigFor parses args with the fetch flags against cfgFile and
// returns what NewFetcherConfig built.
func fetcherConfigFor(t *testing.T, cfgFile string, args ...string) (fetcher.Config, error) {
	t.Helper()
	t.Setenv("COURSECTL_CFG", filepath.Join("testdata", cfgFile))
	t.Setenv("COURSECTL_CACHE_DIR", t.TempDir())
	_, err := config.Load()
	require.NoError(t, err)

	var (
		fc     fetcher.Config
		fcErr  error
		called bool
	)
	cmd := &cli.Command{
		Name:  "fetchconfig",
		Flags: NewFetchFlags("fetch"),
		Action: func(_ context.Context, cmd *cli.Command) error {
			called = true
			fc, fcErr = NewFetcherConfig(cmd)
			return nil
		},
	}
	require.NoError(t, cmd.Run(context.Background(), append([]string{"fetchconfig"}, args...)))
	require.True(t, called)
	return fc, fcErr
}

func TestNewFetcherConfig_Durations(t *testing.T) {
	tests := []struct {
		name    string
		cfg     string
		args    []string
		timeout time.Duration
		maxAge  time.Duration
	}{
		{
			name:    "defaults",
			cfg:     "coursectl.yaml",
			timeout: fetcher.DefaultTimeout,
			maxAge:  fetcher.DefaultMaxAge,
		},
		{
			name:    "config bare seconds and duration string",
			cfg:     "durations.yaml",
			timeout: 45 * time.Second,
			maxAge:  2 * time.Hour,
		},
		{
			name:    "flags win over config",
			cfg:     "durations.yaml",
			args:    []string{"--timeout", "5s", "--max-age", "10m"},
			timeout: 5 * time.Second,
			maxAge:  10 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc, err := fetcherConfigFor(t, tt.cfg, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.timeout, fc.Timeout)
			assert.Equal(t, tt.maxAge, fc.MaxAge)
		})
	}
}

func TestNewFetcherConfig_BadDuration(t *testing.T) {
	_, err := fetcherConfigFor(t, "bad-duration.yaml")
	assert.ErrorContains(t, err, "config timeout")

	// An explicit flag does not consult the config.
	fc, err := fetcherConfigFor(t, "bad-duration.yaml", "--timeout", "3s")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, fc.Timeout)
}
