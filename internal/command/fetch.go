// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/coursectl/internal/config"
	"github.com/staranto/coursectl/internal/fetcher"
	"github.com/staranto/coursectl/internal/httpx"
	"github.com/staranto/coursectl/internal/meta"
	"github.com/staranto/coursectl/internal/output"
)

// FetchCommandAction is the action handler for "fetch". It runs one fetch
// and prints what came back: the status, the course count, the first record
// and the course count of one subject.
func FetchCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args)

	if ShortCircuitTLDR(ctx, cmd, "fetch") {
		return nil
	}

	config.Config.Namespace = "fetch"

	if err := FlagValidators(cmd.Int("top"), PositiveValidator); err != nil {
		return fmt.Errorf("--top %w", err)
	}

	f, err := NewFetcher(cmd)
	if err != nil {
		return err
	}

	res := f.FetchAll(ctx, UseCache(cmd))
	w := writer(cmd)

	fmt.Fprintf(w, "Status: %s\n", res.Status)
	if res.Status == fetcher.StatusCached || res.Status == fetcher.StatusStale {
		fmt.Fprintf(w, "Cache age: %s\n", humanize.Time(time.Now().Add(-res.Age)))
	}
	if res.Err != nil {
		fmt.Fprintf(w, "Error: %v\n", res.Err)
	}

	fmt.Fprintf(w, "Total courses fetched: %d\n", len(res.Catalog))

	if len(res.Catalog) > 0 {
		b, err := json.MarshalIndent(res.Catalog[0], "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "First course: %s\n", httpx.Snippet(b, 300))
	}

	subject := cmd.String("subject")
	fmt.Fprintf(w, "%s courses: %d\n", subject, len(res.Catalog.FindBySubject(subject)))

	if cmd.Bool("stats") {
		output.WriteStats(w, output.Summarize(res.Catalog, int(cmd.Int("top"))))
	}

	if !res.OK() {
		return fmt.Errorf("fetch failed: %w", res.Err)
	}
	return nil
}

// FetchCommandBuilder constructs the cli.Command for "fetch".
func FetchCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "fetch the catalog and report what came back",
		UsageText: `coursectl fetch [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "subject",
				Usage: "subject to count as a smoke check",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("fetch.subject", altsrc.StringSourcer(cfg.Source)),
				),
				Value: "CSC",
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "print summary statistics",
				Value: false,
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "number of subjects listed by --stats",
				Value: 5,
			},
		}, NewFetchFlags("fetch")...),
		Action: FetchCommandAction,
	}
}
