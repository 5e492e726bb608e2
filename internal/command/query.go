// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/coursectl/internal/catalog"
	"github.com/staranto/coursectl/internal/meta"
)

var ErrCourseNotFound = errors.New("course not found")

// CodeCommandBuilder constructs the cli.Command for "code", which looks up a
// single course.
func CodeCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	runner := &QueryActionRunner{
		CommandName:  "code",
		DefaultAttrs: append(append([]string{}, DefaultAttrs...), "description::60"),
		SelectFn: func(_ context.Context, cmd *cli.Command, cat catalog.Catalog) (catalog.Catalog, error) {
			code := strings.Join(cmd.Args().Slice(), " ")
			if strings.TrimSpace(code) == "" {
				return nil, errors.New("a course code is required")
			}
			c, ok := cat.FindByCode(code)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, code)
			}
			return catalog.Catalog{c}, nil
		},
	}

	return (&QueryCommandBuilder{
		Name:      "code",
		Usage:     "look up a course by code",
		UsageText: `coursectl code CODE [options]`,
		Meta:      meta,
		Action:    runner.Run,
	}).Build()
}

// SubjectCommandBuilder constructs the cli.Command for "subject", which lists
// every course of a subject.
func SubjectCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	runner := &QueryActionRunner{
		CommandName:  "subject",
		DefaultAttrs: DefaultAttrs,
		SelectFn: func(_ context.Context, cmd *cli.Command, cat catalog.Catalog) (catalog.Catalog, error) {
			subject := cmd.Args().First()
			if strings.TrimSpace(subject) == "" {
				return nil, errors.New("a subject is required")
			}
			return cat.FindBySubject(subject), nil
		},
	}

	return (&QueryCommandBuilder{
		Name:      "subject",
		Usage:     "list the courses of a subject",
		UsageText: `coursectl subject SUBJECT [options]`,
		Meta:      meta,
		Action:    runner.Run,
	}).Build()
}

// SearchCommandBuilder constructs the cli.Command for "search". With no
// query every course is listed.
func SearchCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	runner := &QueryActionRunner{
		CommandName:  "search",
		DefaultAttrs: DefaultAttrs,
		SelectFn: func(_ context.Context, cmd *cli.Command, cat catalog.Catalog) (catalog.Catalog, error) {
			return cat.Search(strings.Join(cmd.Args().Slice(), " ")), nil
		},
	}

	return (&QueryCommandBuilder{
		Name:      "search",
		Usage:     "free-text course search",
		UsageText: `coursectl search [QUERY] [options]`,
		Meta:      meta,
		Action:    runner.Run,
	}).Build()
}
