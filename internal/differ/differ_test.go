// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package differ

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/coursectl/internal/catalog"
)

func before() catalog.Catalog {
	return catalog.Catalog{
		{"code": "CSC 216", "subject": "CSC", "title": "Software Development Fundamentals", "credits": json.Number("3")},
		{"code": "CSC 316", "subject": "CSC", "title": "Data Structures"},
		{"code": "MA 141", "subject": "MA", "title": "Calculus I"},
	}
}

func TestDiff_Identical(t *testing.T) {
	var buf bytes.Buffer

	// Order does not matter.
	reordered := before()
	reordered[0], reordered[2] = reordered[2], reordered[0]

	sum, err := Diff(&buf, before(), reordered, false)
	require.NoError(t, err)
	assert.True(t, sum.Empty())
	assert.Empty(t, buf.String())
}

func TestDiff_Changes(t *testing.T) {
	after := before()
	after[0]["credits"] = json.Number("4")
	after = append(after[:1], after[2:]...) // drop CSC 316
	after = append(after, catalog.Course{"code": "PY 205", "subject": "PY", "title": "Physics I"})

	var buf bytes.Buffer
	sum, err := Diff(&buf, before(), after, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"PY 205"}, sum.Added)
	assert.Equal(t, []string{"CSC 316"}, sum.Removed)
	assert.Equal(t, []string{"CSC 216"}, sum.Changed)
	assert.Equal(t, "1 added, 1 removed, 1 changed", sum.String())

	out := buf.String()
	assert.Contains(t, out, `"PY 205"`)
	assert.Contains(t, out, `"CSC 316"`)
	assert.Contains(t, out, "+")
	assert.Contains(t, out, "-")
}

func TestCompare_EmptySides(t *testing.T) {
	_, _, sum, err := Compare(catalog.Catalog{}, before())
	require.NoError(t, err)
	assert.Len(t, sum.Added, 3)
	assert.Empty(t, sum.Removed)

	_, _, sum, err = Compare(before(), nil)
	require.NoError(t, err)
	assert.Len(t, sum.Removed, 3)
}

func TestCompare_InsertKeepsKeys(t *testing.T) {
	tests := []struct {
		name        string
		before      catalog.Catalog
		after       catalog.Catalog
		wantAdded   []string
		wantRemoved []string
		wantChanged []string
	}{
		{
			name:      "insert ahead of a course without a code",
			before:    catalog.Catalog{{"code": "CSC 116"}, {"title": "No code course"}},
			after:     catalog.Catalog{{"code": "MA 141"}, {"code": "CSC 116"}, {"title": "No code course"}},
			wantAdded: []string{"MA 141"},
		},
		{
			name: "shared code reordered and inserted",
			before: catalog.Catalog{
				{"code": "CSC 216", "section": "001"},
				{"code": "CSC 216", "section": "002"},
				{"title": "Seminar"},
			},
			after: catalog.Catalog{
				{"title": "Seminar"},
				{"code": "PY 205"},
				{"code": "CSC 216", "section": "001"},
				{"code": "CSC 216", "section": "002"},
			},
			wantAdded: []string{"PY 205"},
		},
		{
			name:        "course without a code edited in place",
			before:      catalog.Catalog{{"title": "Seminar", "credits": json.Number("1")}},
			after:       catalog.Catalog{{"code": "MA 141"}, {"title": "Seminar", "credits": json.Number("2")}},
			wantAdded:   []string{"MA 141"},
			wantChanged: []string{"#SEMINAR"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, sum, err := Compare(tt.before, tt.after)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAdded, sum.Added)
			assert.Empty(t, sum.Removed)
			assert.Equal(t, tt.wantChanged, sum.Changed)
		})
	}
}
