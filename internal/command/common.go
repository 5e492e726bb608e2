// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/staranto/coursectl/internal/attrs"
	"github.com/staranto/coursectl/internal/cacheutil"
	"github.com/staranto/coursectl/internal/catalog"
	"github.com/staranto/coursectl/internal/config"
	"github.com/staranto/coursectl/internal/export"
	"github.com/staranto/coursectl/internal/fetcher"
	"github.com/staranto/coursectl/internal/meta"
	"github.com/staranto/coursectl/internal/output"
)

// DefaultAttrs are the columns shown when --attrs adds nothing.
var DefaultAttrs = []string{"code", "subject", "title"}

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr coursectl-<subcmd>` and returns true so the caller can exit early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "coursectl-"+subcmd)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// DumpSchemaIfRequested prints the keys found in cat when --schema is set,
// and returns true if it handled the request.
func DumpSchemaIfRequested(cmd *cli.Command, cat catalog.Catalog) bool {
	if cmd.Bool("schema") {
		output.DumpSchema(writer(cmd), cat)
		return true
	}
	return false
}

// BuildAttrs constructs an AttrList with defaults and optional extras from
// --attrs, then applies the global transform spec.
func BuildAttrs(cmd *cli.Command, defaults ...string) (al attrs.AttrList) {
	//nolint:errcheck
	{
		for _, d := range defaults {
			al.Set(d)
		}
		if extras := cmd.String("attrs"); extras != "" {
			al.Set(extras)
		}
		al.SetGlobalTransformSpec()
	}
	return
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// writer is where command output goes: the root command's Writer, or stdout.
func writer(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}
	return os.Stdout
}

// UseCache reports whether a fresh cache may be served. --refresh and
// COURSECTL_CACHE=0 both turn it off.
func UseCache(cmd *cli.Command) bool {
	return !cmd.Bool("refresh") && cacheutil.Enabled()
}

// NewFetcherConfig layers the config file and the fetch flags over
// fetcher.DefaultConfig.
func NewFetcherConfig(cmd *cli.Command) (fetcher.Config, error) {
	fc := fetcher.DefaultConfig()

	fc.BaseURL = cmd.String("base-url")
	fc.ResultsPath = cmd.String("results-path")

	var err error
	if fc.Timeout, err = durationSetting(cmd, "timeout", "timeout"); err != nil {
		return fc, err
	}
	if fc.MaxAge, err = durationSetting(cmd, "max-age", "cache.max_age"); err != nil {
		return fc, err
	}

	if method, _ := config.GetString("method", ""); method != "" {
		fc.Method = strings.ToUpper(method)
	}

	dir, ok := cacheutil.Dir(cmd.String("cache-dir"))
	if !ok {
		return fc, fmt.Errorf("cannot resolve a cache directory, use --cache-dir")
	}
	fc.CacheDir = dir

	// Config maps are merged over the defaults key by key, so a config file
	// can add a header without restating the rest.
	for key, dst := range map[string]map[string]string{
		"params":  fc.Params,
		"headers": fc.Headers,
		"payload": fc.Payload,
	} {
		if m, err := config.GetStringMap(key); err == nil {
			maps.Copy(dst, m)
		}
	}

	fc.Export = export.Options{
		SFTPPassword: os.Getenv("COURSECTL_SFTP_PASS"),
	}
	fc.Export.S3Region, _ = config.GetString("export.s3.region", "")
	fc.Export.S3Profile, _ = config.GetString("export.s3.profile", "")
	fc.Export.S3Endpoint, _ = config.GetString("export.s3.endpoint", "")
	fc.Export.S3PathStyle, _ = config.GetBool("export.s3.path_style", false)
	fc.Export.SFTPKnownHosts, _ = config.GetString("export.sftp.known_hosts", "")
	fc.Export.SFTPInsecureIgnoreHostKey, _ = config.GetBool("export.sftp.insecure", false)

	return fc, nil
}

// durationSetting returns the flag when it was given on the command line,
// then the config key, then the flag default. Config values may be a
// duration string or a bare number of seconds.
func durationSetting(cmd *cli.Command, flag, key string) (time.Duration, error) {
	if cmd.IsSet(flag) {
		return cmd.Duration(flag), nil
	}
	d, err := config.GetDuration(key, cmd.Duration(flag))
	if err != nil {
		return 0, fmt.Errorf("config %s: %w", key, err)
	}
	return d, nil
}

// NewFetcher builds a Fetcher from the command's flags and config.
func NewFetcher(cmd *cli.Command) (*fetcher.Fetcher, error) {
	fc, err := NewFetcherConfig(cmd)
	if err != nil {
		return nil, err
	}
	log.Debugf("fetcher config: url=%s cache=%s max_age=%s", fc.BaseURL, fc.CacheDir, fc.MaxAge)
	return fetcher.New(fc)
}

// LoadCatalog fetches the catalog the way the command's flags ask for. Only
// a fetch that produced nothing at all is an error.
func LoadCatalog(ctx context.Context, cmd *cli.Command) (catalog.Catalog, fetcher.Result, error) {
	f, err := NewFetcher(cmd)
	if err != nil {
		return nil, fetcher.Result{}, err
	}

	res := f.FetchAll(ctx, UseCache(cmd))
	if !res.OK() {
		return nil, res, fmt.Errorf("no course data available: %w", res.Err)
	}
	return res.Catalog, res, nil
}

// colorEnabled reports the --color setting. Without an explicit --color,
// color is on when stdout is a terminal and NO_COLOR is unset.
func colorEnabled(cmd *cli.Command) bool {
	if cmd.IsSet("color") {
		return cmd.Bool("color")
	}
	return term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""
}

// OutputOptions collects the presentation flags.
func OutputOptions(cmd *cli.Command) output.Options {
	return output.Options{
		Format: cmd.String("output"),
		Filter: cmd.String("filter"),
		Sort:   cmd.String("sort"),
		Titles: cmd.Bool("titles"),
		Color:  colorEnabled(cmd),
	}
}

// Emit passes cat through the common output routine.
func Emit(cmd *cli.Command, cat catalog.Catalog, defaults ...string) error {
	al := BuildAttrs(cmd, defaults...)
	log.Debugf("attrs: %v", al.String())
	return output.SliceDiceSpit(writer(cmd), cat, al, OutputOptions(cmd))
}

// QueryCommandBuilder is a helper that constructs a cli.Command for the
// course query subcommands (code, subject, search) using a consistent
// pattern. The builder wires metadata, adds fetch and global flags, and sets
// up validators.
type QueryCommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (qcb *QueryCommandBuilder) Build() *cli.Command {
	flags := append([]cli.Flag{}, qcb.Flags...)
	flags = append(flags, NewFetchFlags(qcb.Name)...)
	flags = append(flags, NewGlobalFlags(qcb.Name)...)

	return &cli.Command{
		Name:      qcb.Name,
		Usage:     qcb.Usage,
		UsageText: qcb.UsageText,
		Metadata: map[string]any{
			"meta": qcb.Meta,
		},
		Flags: flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: qcb.Action,
	}
}

// QueryActionRunner encapsulates the common query action pattern for all
// query subcommands. It handles metadata, short-circuit checks, loading the
// catalog and output emission, with the selection itself provided by
// SelectFn.
type QueryActionRunner struct {
	CommandName  string
	DefaultAttrs []string
	SelectFn     func(context.Context, *cli.Command, catalog.Catalog) (catalog.Catalog, error)
}

// Run executes the query action with the provided context and command.
func (qar *QueryActionRunner) Run(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args)

	if ShortCircuitTLDR(ctx, cmd, qar.CommandName) {
		return nil
	}

	config.Config.Namespace = qar.CommandName

	cat, _, err := LoadCatalog(ctx, cmd)
	if err != nil {
		return err
	}

	selected, err := qar.SelectFn(ctx, cmd, cat)
	if err != nil {
		return err
	}

	if DumpSchemaIfRequested(cmd, selected) {
		return nil
	}

	return Emit(cmd, selected, qar.DefaultAttrs...)
}
