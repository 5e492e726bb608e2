// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os/exec"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/coursectl/internal/config"
	"github.com/staranto/coursectl/internal/fetcher"
)

func init() {
	cfg, _ = config.Load("")
}

var cfg config.Type

// Flags hold parse state, so every command gets its own instance.
func schemaFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "schema",
		Usage:       "list the keys found in the course records",
		HideDefault: true,
	}
}

func tldrFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "tldr",
		Usage:       "show tldr page",
		Hidden:      !pathHas("tldr"),
		HideDefault: true,
	}
}

// configSources chains the namespaced and the bare config file keys, in that
// order, for a flag.
func configSources(ns string, key string) []cli.ValueSource {
	return []cli.ValueSource{
		yaml.YAML(ns+"."+key, altsrc.StringSourcer(cfg.Source)),
		yaml.YAML(key, altsrc.StringSourcer(cfg.Source)),
	}
}

// NewGlobalFlags returns the presentation flags shared by every command that
// prints courses. params[0] is the config namespace.
func NewGlobalFlags(params ...string) (flags []cli.Flag) {
	ns := params[0]

	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "attrs",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of attributes to include in results",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(configSources(ns, "color")...),
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(configSources(ns, "output")...),
			Value:   "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".sort", altsrc.StringSourcer(cfg.Source)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(configSources(ns, "titles")...),
			Value:   false,
		},
		schemaFlag(),
	}

	return
}

// NewFetchFlags returns the flags that shape how the catalog is fetched and
// cached. params[0] is the config namespace.
func NewFetchFlags(params ...string) []cli.Flag {
	ns := params[0]

	return []cli.Flag{
		&cli.StringFlag{
			Name:  "base-url",
			Usage: "course search API endpoint",
			Sources: cli.NewValueSourceChain(append(
				[]cli.ValueSource{cli.EnvVar("COURSECTL_BASE_URL")},
				configSources(ns, "base_url")...)...),
			Value: fetcher.DefaultBaseURL,
		},
		&cli.StringFlag{
			Name:    "cache-dir",
			Aliases: []string{"d"},
			Usage:   "directory holding the cache file. Defaults to the user cache dir",
			Sources: cli.NewValueSourceChain(configSources(ns, "cache.dir")...),
		},
		&cli.DurationFlag{
			Name:  "max-age",
			Usage: "cache age after which the catalog is fetched again. Config cache.max_age",
			Value: fetcher.DefaultMaxAge,
		},
		&cli.BoolFlag{
			Name:    "refresh",
			Aliases: []string{"r"},
			Usage:   "ignore a fresh cache and fetch the catalog",
			Value:   false,
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "request timeout. Config timeout",
			Value: fetcher.DefaultTimeout,
		},
		&cli.StringFlag{
			Name:    "results-path",
			Usage:   "path to the course array when the response is an object",
			Sources: cli.NewValueSourceChain(configSources(ns, "results_path")...),
			Value:   fetcher.DefaultResultsPath,
		},
		tldrFlag(),
	}
}

// pathHas checks if the given executable is on the PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}
