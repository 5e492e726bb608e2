// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetcher

import (
	"context"

	"github.com/apex/log"

	"github.com/staranto/coursectl/internal/catalog"
)

// One-shot helpers for callers that do not keep a Fetcher around. A config
// that fails validation is logged and treated like a failed fetch.

// AllCourses returns the catalog, or an empty one if nothing could be had.
func AllCourses(ctx context.Context, cfg Config, useCache bool) catalog.Catalog {
	f, err := New(cfg)
	if err != nil {
		log.WithError(err).Error("cannot build fetcher")
		return catalog.Catalog{}
	}
	return f.FetchAll(ctx, useCache).Catalog
}

// LookupCourse finds one course by code.
func LookupCourse(ctx context.Context, cfg Config, code string) (catalog.Course, bool) {
	f, err := New(cfg)
	if err != nil {
		log.WithError(err).Error("cannot build fetcher")
		return nil, false
	}
	return f.CourseByCode(ctx, code, nil)
}

// SubjectCourses lists every course of a subject.
func SubjectCourses(ctx context.Context, cfg Config, subject string) catalog.Catalog {
	f, err := New(cfg)
	if err != nil {
		log.WithError(err).Error("cannot build fetcher")
		return catalog.Catalog{}
	}
	return f.CoursesBySubject(ctx, subject, nil)
}
