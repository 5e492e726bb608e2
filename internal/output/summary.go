// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/staranto/coursectl/internal/catalog"
)

// SubjectCount is one line of the top subjects list.
type SubjectCount struct {
	Subject string
	Count   int
}

// Stats summarizes a catalog.
type Stats struct {
	Total       int
	Subjects    int
	Top         []SubjectCount
	MissingCode int
}

// Summarize computes Stats for cat, keeping the top n subjects by course
// count. Ties are broken alphabetically. Courses without a subject are not
// counted as a subject.
func Summarize(cat catalog.Catalog, n int) Stats {
	st := Stats{Total: len(cat)}

	for _, c := range cat {
		if c.Code() == "" {
			st.MissingCode++
		}
	}

	subjects := cat.Subjects()
	delete(subjects, "")
	st.Subjects = len(subjects)

	for s, count := range subjects {
		st.Top = append(st.Top, SubjectCount{Subject: s, Count: count})
	}
	sort.Slice(st.Top, func(i, j int) bool {
		if st.Top[i].Count == st.Top[j].Count {
			return st.Top[i].Subject < st.Top[j].Subject
		}
		return st.Top[i].Count > st.Top[j].Count
	})
	if n >= 0 && len(st.Top) > n {
		st.Top = st.Top[:n]
	}

	return st
}

// WriteStats prints st in a short human readable form.
func WriteStats(w io.Writer, st Stats) {
	fmt.Fprintf(w, "Total courses: %s\n", humanize.Comma(int64(st.Total)))
	fmt.Fprintf(w, "Subjects: %s\n", humanize.Comma(int64(st.Subjects)))
	if st.MissingCode > 0 {
		fmt.Fprintf(w, "Missing code: %s\n", humanize.Comma(int64(st.MissingCode)))
	}

	if len(st.Top) == 0 {
		return
	}

	parts := make([]string, 0, len(st.Top))
	for _, sc := range st.Top {
		parts = append(parts, fmt.Sprintf("%s (%s)", sc.Subject, humanize.Comma(int64(sc.Count))))
	}
	fmt.Fprintf(w, "Top subjects: %s\n", strings.Join(parts, ", "))
}

// DumpSchema prints every key found across the catalog with the number of
// courses carrying it, followed by the logical fields and their aliases.
// These are the keys directly available to --attrs and --filter.
func DumpSchema(w io.Writer, cat catalog.Catalog) {
	seen := map[string]int{}
	for _, c := range cat {
		for k := range c {
			seen[k]++
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "Keys in %s courses --\n", humanize.Comma(int64(len(cat))))
	for _, k := range keys {
		fmt.Fprintf(w, "%s %d\n", k, seen[k])
	}

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Logical fields --")
	for _, f := range catalog.Fields {
		fmt.Fprintf(w, "%s: %s\n", f, strings.Join(catalog.Aliases[f], ", "))
	}
}
