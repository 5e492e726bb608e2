// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/apex/log"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"

	"github.com/staranto/coursectl/internal/catalog"
)

// Summary lists course keys by kind of change.
type Summary struct {
	Added   []string
	Removed []string
	Changed []string
}

// Empty reports whether the catalogs were identical.
func (s Summary) Empty() bool {
	return len(s.Added)+len(s.Removed)+len(s.Changed) == 0
}

func (s Summary) String() string {
	return fmt.Sprintf("%d added, %d removed, %d changed", len(s.Added), len(s.Removed), len(s.Changed))
}

// Compare diffs two catalogs course by course. Courses are matched on their
// code (see catalog.ByCode), so reordering alone is not a change.
func Compare(before, after catalog.Catalog) (gojsondiff.Diff, map[string]any, Summary, error) {
	left, err := plain(before)
	if err != nil {
		return nil, nil, Summary{}, fmt.Errorf("failed to prepare left side: %w", err)
	}
	right, err := plain(after)
	if err != nil {
		return nil, nil, Summary{}, fmt.Errorf("failed to prepare right side: %w", err)
	}

	diff := gojsondiff.New().CompareObjects(left, right)

	var sum Summary
	for _, d := range diff.Deltas() {
		switch d := d.(type) {
		case *gojsondiff.Added:
			sum.Added = append(sum.Added, d.PostPosition().String())
		case *gojsondiff.Deleted:
			sum.Removed = append(sum.Removed, d.PrePosition().String())
		default:
			if pd, ok := d.(gojsondiff.PostDelta); ok {
				sum.Changed = append(sum.Changed, pd.PostPosition().String())
			}
		}
	}
	sort.Strings(sum.Added)
	sort.Strings(sum.Removed)
	sort.Strings(sum.Changed)

	return diff, left, sum, nil
}

// Diff writes an ASCII delta of before and after to w and returns the
// summary. Nothing is written when the catalogs are identical.
func Diff(w io.Writer, before, after catalog.Catalog, coloring bool) (Summary, error) {
	diff, left, sum, err := Compare(before, after)
	if err != nil {
		return sum, err
	}
	log.Debugf("diff: %s", sum)

	if !diff.Modified() {
		return sum, nil
	}

	f := formatter.NewAsciiFormatter(left, formatter.AsciiFormatterConfig{
		ShowArrayIndex: false,
		Coloring:       coloring,
	})
	text, err := f.Format(diff)
	if err != nil {
		return sum, fmt.Errorf("failed to format diff: %w", err)
	}

	_, err = io.WriteString(w, text)
	return sum, err
}

// plain keys the catalog by course code and round-trips it through JSON so
// numbers are float64, which is what gojsondiff understands.
func plain(cat catalog.Catalog) (map[string]any, error) {
	b, err := json.Marshal(cat.ByCode())
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
