// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/coursectl/internal/attrs"
	"github.com/staranto/coursectl/internal/config"
	"github.com/staranto/coursectl/internal/filters"
	"github.com/staranto/coursectl/internal/meta"
)

var ErrExportFailed = errors.New("export failed")

// ExportCommandAction is the action handler for "export". The destination
// is the first argument, a local path or an s3:// or sftp:// URL. Without
// one the catalog lands next to the cache.
func ExportCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args)

	if ShortCircuitTLDR(ctx, cmd, "export") {
		return nil
	}

	config.Config.Namespace = "export"

	f, err := NewFetcher(cmd)
	if err != nil {
		return err
	}

	res := f.FetchAll(ctx, UseCache(cmd))
	if !res.OK() {
		return fmt.Errorf("no course data available: %w", res.Err)
	}

	cat := filters.Apply(res.Catalog, attrs.AttrList{}, cmd.String("filter"))
	if len(cat) == 0 {
		return fmt.Errorf("%w: nothing to export", ErrExportFailed)
	}

	dest := cmd.Args().First()
	if dest == "" {
		dest = f.ExportPath()
	}

	if !f.ExportCatalog(ctx, cat, dest) {
		return fmt.Errorf("%w: %s", ErrExportFailed, dest)
	}

	fmt.Fprintf(writer(cmd), "Exported %d courses to %s\n", len(cat), dest)
	return nil
}

// ExportCommandBuilder constructs the cli.Command for "export".
func ExportCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "write the catalog as JSON to a file, S3 or SFTP",
		UsageText: `coursectl export [DEST] [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "comma-separated list of filters selecting the courses to export",
				Validator: func(value string) error {
					return FlagValidators(value, JammedFlagValidator)
				},
			},
		}, NewFetchFlags("export")...),
		Action: ExportCommandAction,
	}
}
