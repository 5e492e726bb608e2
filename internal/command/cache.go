// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/coursectl/internal/cacheutil"
	"github.com/staranto/coursectl/internal/config"
	"github.com/staranto/coursectl/internal/meta"
)

// CacheInfoAction prints where the cache lives and whether it is fresh.
func CacheInfoAction(ctx context.Context, cmd *cli.Command) error {
	config.Config.Namespace = "cache"

	f, err := NewFetcher(cmd)
	if err != nil {
		return err
	}
	fc := f.Config()
	w := writer(cmd)

	fmt.Fprintf(w, "Path:    %s\n", f.CachePath())
	fmt.Fprintf(w, "Enabled: %t\n", cacheutil.Enabled())
	fmt.Fprintf(w, "Max age: %s\n", fc.MaxAge)

	info, err := os.Stat(f.CachePath())
	if err != nil {
		fmt.Fprintln(w, "Exists:  false")
		return nil
	}

	age := f.CacheAge()
	fmt.Fprintln(w, "Exists:  true")
	fmt.Fprintf(w, "Size:    %s\n", humanize.Bytes(uint64(info.Size())))
	fmt.Fprintf(w, "Updated: %s\n", humanize.Time(info.ModTime()))
	fmt.Fprintf(w, "Fresh:   %t\n", age < fc.MaxAge)

	return nil
}

// CachePurgeAction removes cache files older than --hours.
func CachePurgeAction(ctx context.Context, cmd *cli.Command) error {
	config.Config.Namespace = "cache"

	if err := FlagValidators(cmd.Int("hours"), PositiveValidator); err != nil {
		return fmt.Errorf("--hours %w", err)
	}

	fc, err := NewFetcherConfig(cmd)
	if err != nil {
		return err
	}

	hours := int(cmd.Int("hours"))
	removed, err := cacheutil.Purge(fc.CacheDir, hours, time.Now())
	if err != nil {
		return err
	}
	log.Debugf("purged %d files from %s", removed, fc.CacheDir)

	fmt.Fprintf(writer(cmd), "Removed %d files older than %d hours from %s\n", removed, hours, fc.CacheDir)
	return nil
}

// CacheCommandBuilder constructs the cli.Command for "cache" and its
// subcommands.
func CacheCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "cache",
		Usage:     "inspect or clean the local cache",
		UsageText: `coursectl cache [info|purge] [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "show the cache location and age",
				UsageText: `coursectl cache info [options]`,
				Metadata: map[string]any{
					"meta": meta,
				},
				Flags:  NewFetchFlags("cache"),
				Action: CacheInfoAction,
			},
			{
				Name:      "purge",
				Usage:     "remove cache files older than --hours",
				UsageText: `coursectl cache purge [options]`,
				Metadata: map[string]any{
					"meta": meta,
				},
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "hours",
						Usage: "age in hours after which a cache file is removed",
						Sources: cli.NewValueSourceChain(
							yaml.YAML("cache.clean", altsrc.StringSourcer(cfg.Source)),
						),
						Value: 24,
					},
				}, NewFetchFlags("cache")...),
				Action: CachePurgeAction,
			},
		},
	}
}
