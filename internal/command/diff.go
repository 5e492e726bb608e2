// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/coursectl/internal/catalog"
	"github.com/staranto/coursectl/internal/config"
	"github.com/staranto/coursectl/internal/differ"
	"github.com/staranto/coursectl/internal/fetcher"
	"github.com/staranto/coursectl/internal/meta"
)

// DiffCommandAction is the action handler for "diff". It compares a saved
// catalog, FILE or the cache, against a fresh fetch.
func DiffCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args)

	if ShortCircuitTLDR(ctx, cmd, "diff") {
		return nil
	}

	config.Config.Namespace = "diff"

	f, err := NewFetcher(cmd)
	if err != nil {
		return err
	}

	before, err := loadBaseline(f, cmd.Args().First(), cmd.String("results-path"))
	if err != nil {
		return err
	}

	after, err := f.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	w := writer(cmd)
	summary, err := differ.Diff(w, before, after, colorEnabled(cmd))
	if err != nil {
		return err
	}

	if summary.Empty() {
		fmt.Fprintln(w, "No changes.")
	} else {
		fmt.Fprintln(w, summary.String())
	}

	if cmd.Bool("save") {
		if err := f.SaveCache(after); err != nil {
			return err
		}
		log.Infof("saved %d courses to %s", len(after), f.CachePath())
	}

	return nil
}

// loadBaseline reads the catalog to compare against. A file may hold a bare
// array or a response document.
func loadBaseline(f *fetcher.Fetcher, path string, resultsPath string) (catalog.Catalog, error) {
	if path == "" {
		cat, err := f.LoadCache()
		if err != nil {
			return nil, fmt.Errorf("no cached catalog to compare against: %w", err)
		}
		return cat, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Parse(b, resultsPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// DiffCommandBuilder constructs the cli.Command for "diff".
func DiffCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "compare a saved catalog with a fresh fetch",
		UsageText: `coursectl diff [FILE] [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			&cli.BoolWithInverseFlag{
				Name:    "color",
				Aliases: []string{"c"},
				Usage:   "enable colored diff output",
				Sources: cli.NewValueSourceChain(configSources("diff", "color")...),
				Value:   false,
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "replace the cache with the fetched catalog",
				Value: false,
			},
		}, NewFetchFlags("diff")...),
		Action: DiffCommandAction,
	}
}
