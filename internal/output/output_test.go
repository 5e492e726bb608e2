// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/coursectl/internal/attrs"
	"github.com/staranto/coursectl/internal/catalog"
)

func sample() catalog.Catalog {
	return catalog.Catalog{
		{"code": "MA 141", "subject": "MA", "title": "Calculus I", "credits": json.Number("4")},
		{"code": "CSC 316", "subject": "CSC", "title": "Data Structures and Algorithms", "credits": json.Number("3")},
		{"courseCode": "CSC 216", "courseSubject": "CSC", "name": "Software Development Fundamentals", "credits": json.Number("3")},
		{"subject": "PY", "title": "Untitled Seminar"},
	}
}

func defaultAttrs(t *testing.T, extra string) attrs.AttrList {
	t.Helper()
	var al attrs.AttrList
	require.NoError(t, al.Set("code,subject,title"))
	require.NoError(t, al.Set(extra))
	al.SetGlobalTransformSpec()
	return al
}

func TestSortDataset(t *testing.T) {
	testData := []map[string]any{
		{"code": "MA 141", "credits": json.Number("4")},
		{"code": "CSC 316", "credits": json.Number("3")},
		{"code": "CSC 216", "credits": json.Number("3")},
		{"code": "PY 101"},
	}

	tests := []struct {
		name      string
		spec      string
		wantOrder []string
	}{
		{"ascending", "code", []string{"CSC 216", "CSC 316", "MA 141", "PY 101"}},
		{"descending", "-code", []string{"PY 101", "MA 141", "CSC 316", "CSC 216"}},
		{"numeric with nil first", "credits", []string{"PY 101", "CSC 316", "CSC 216", "MA 141"}},
		{"multiple keys", "-credits, code", []string{"MA 141", "CSC 216", "CSC 316", "PY 101"}},
		{"empty spec keeps order", "", []string{"MA 141", "CSC 316", "CSC 216", "PY 101"}},
		{"lone dash ignored", "-", []string{"MA 141", "CSC 316", "CSC 216", "PY 101"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]map[string]any, len(testData))
			copy(data, testData)
			SortDataset(data, tt.spec)
			got := make([]string, 0, len(data))
			for _, r := range data {
				got = append(got, r["code"].(string))
			}
			assert.Equal(t, tt.wantOrder, got)
		})
	}
}

func TestInterfaceToString(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		emptyVal string
		want     string
	}{
		{name: "string", value: "hello", want: "hello"},
		{name: "empty string", value: "", emptyVal: "-", want: "-"},
		{name: "json number", value: json.Number("3"), want: "3"},
		{name: "int", value: 42, want: "42"},
		{name: "zero int is a value", value: 0, emptyVal: "-", want: "0"},
		{name: "float64", value: 1.5, want: "1.5"},
		{name: "bool false is a value", value: false, want: "false"},
		{name: "nil default", value: nil, want: ""},
		{name: "nil custom", value: nil, emptyVal: "-", want: "-"},
		{name: "empty slice", value: []any{}, emptyVal: "-", want: "-"},
		{name: "slice", value: []any{"fall", "spring"}, want: `["fall","spring"]`},
		{name: "map", value: map[string]any{"x": json.Number("1")}, want: `{"x":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			if tt.emptyVal != "" {
				got = InterfaceToString(tt.value, tt.emptyVal)
			} else {
				got = InterfaceToString(tt.value)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSliceDiceSpit_JSON(t *testing.T) {
	var buf bytes.Buffer
	al := defaultAttrs(t, "")

	err := SliceDiceSpit(&buf, sample(), al, Options{Format: "json", Filter: "subject=CSC", Sort: "code"})
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []map[string]any{
		{"code": "CSC 216", "subject": "CSC", "title": "Software Development Fundamentals"},
		{"code": "CSC 316", "subject": "CSC", "title": "Data Structures and Algorithms"},
	}, got)
}

func TestSliceDiceSpit_YAML(t *testing.T) {
	var buf bytes.Buffer
	al := defaultAttrs(t, "!subject,!title,credits")

	err := SliceDiceSpit(&buf, sample(), al, Options{Format: "yaml", Filter: "code=MA 141"})
	require.NoError(t, err)
	assert.Equal(t, "- code: MA 141\n  credits: 4\n", buf.String())
}

func TestSliceDiceSpit_Raw(t *testing.T) {
	var buf bytes.Buffer
	al := defaultAttrs(t, "")

	err := SliceDiceSpit(&buf, sample(), al, Options{Format: "raw", Filter: "code=CSC 216"})
	require.NoError(t, err)

	// Raw keeps the original keys.
	back, err := catalog.Parse(buf.Bytes(), "")
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, "Software Development Fundamentals", back[0]["name"])
}

func TestSliceDiceSpit_Text(t *testing.T) {
	var buf bytes.Buffer
	al := defaultAttrs(t, "title:Title:U")

	err := SliceDiceSpit(&buf, sample(), al, Options{Format: "text", Titles: true, Sort: "code"})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, []string{"code", "subject", "Title"}, strings.Fields(lines[0]))
	// Missing code sorts first and renders as -.
	assert.Equal(t, []string{"-", "PY", "UNTITLED", "SEMINAR"}, strings.Fields(lines[1]))
	assert.Contains(t, lines[2], "CSC 216")
	assert.Contains(t, lines[2], "SOFTWARE DEVELOPMENT FUNDAMENTALS")
}

func TestSliceDiceSpit_TextEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := SliceDiceSpit(&buf, sample(), defaultAttrs(t, ""), Options{Format: "text", Filter: "code=NOPE"})
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestSummarize(t *testing.T) {
	cat := sample()
	cat = append(cat, catalog.Course{"code": "CSC 401", "subject": "csc"})

	st := Summarize(cat, 2)
	assert.Equal(t, 5, st.Total)
	assert.Equal(t, 3, st.Subjects)
	assert.Equal(t, 1, st.MissingCode)
	assert.Equal(t, []SubjectCount{{"CSC", 3}, {"MA", 1}}, st.Top)

	var buf bytes.Buffer
	WriteStats(&buf, st)
	assert.Equal(t, "Total courses: 5\nSubjects: 3\nMissing code: 1\nTop subjects: CSC (3), MA (1)\n", buf.String())
}

func TestSummarize_Empty(t *testing.T) {
	st := Summarize(catalog.Catalog{}, 5)
	assert.Equal(t, Stats{}, st)

	var buf bytes.Buffer
	WriteStats(&buf, st)
	assert.Equal(t, "Total courses: 0\nSubjects: 0\n", buf.String())
}

func TestDumpSchema(t *testing.T) {
	var buf bytes.Buffer
	DumpSchema(&buf, sample())

	out := buf.String()
	assert.Contains(t, out, "Keys in 4 courses --\n")
	assert.Contains(t, out, "credits 3\n")
	assert.Contains(t, out, "courseCode 1\n")
	assert.Contains(t, out, "code: code, courseCode, course_code\n")
}

func TestGetColors(t *testing.T) {
	header, even, odd := getColors("colors")
	assert.NotEmpty(t, header)
	assert.NotEmpty(t, even)
	assert.NotEmpty(t, odd)
}

func BenchmarkSortDataset(b *testing.B) {
	testData := []map[string]any{
		{"code": "MA 141", "credits": json.Number("4")},
		{"code": "CSC 316", "credits": json.Number("3")},
		{"code": "CSC 216", "credits": json.Number("3")},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		data := make([]map[string]any, len(testData))
		copy(data, testData)
		SortDataset(data, "-credits,code")
	}
}
