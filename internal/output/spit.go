// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"gopkg.in/yaml.v2"

	"github.com/staranto/coursectl/internal/attrs"
	"github.com/staranto/coursectl/internal/catalog"
	"github.com/staranto/coursectl/internal/config"
	"github.com/staranto/coursectl/internal/filters"
)

// Options are the presentation settings shared by every command.
type Options struct {
	// Format is one of text, json, yaml or raw.
	Format string
	Filter string
	Sort   string
	Titles bool
	Color  bool
}

// SliceDiceSpit orchestrates filtering, transforming, sorting and rendering
// of a catalog according to the options and attribute specifications.
func SliceDiceSpit(w io.Writer, cat catalog.Catalog, al attrs.AttrList, opts Options) error {
	if w == nil {
		w = os.Stdout
	}

	// Filter out the courses we don't want. Do it first so that the following
	// steps work on a smaller dataset.
	cat = filters.Apply(cat, al, opts.Filter)

	// If raw, dump the matching records untouched and go home.
	if opts.Format == "raw" {
		b, err := cat.Marshal()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}

	rows := make([]map[string]any, 0, len(cat))
	for _, c := range cat {
		rows = append(rows, al.Row(c))
	}

	SortDataset(rows, opts.Sort)

	switch opts.Format {
	case "json":
		b, err := json.Marshal(rows)
		if err != nil {
			return fmt.Errorf("failed to marshal json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		b, err := yaml.Marshal(plainRows(rows))
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(b)
		return err
	default:
		TableWriter(w, rows, al, opts)
	}

	return nil
}

// TableWriter renders the rows in a tabular form honoring color and titles.
func TableWriter(w io.Writer, rows []map[string]any, al attrs.AttrList, opts Options) {
	if len(rows) == 0 {
		return
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if opts.Color {
		headerColor, evenColor, oddColor := getColors("colors")

		headerStyle = headerStyle.Foreground(lipgloss.Color(headerColor))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(evenColor))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(oddColor))
	}

	included := al.Included()

	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		row := make([]string, 0, len(included))
		for _, a := range included {
			row = append(row, InterfaceToString(r[a.OutputKey], "-"))
		}
		data = append(data, row)
	}

	pad, _ := config.GetInt("padding", 1)
	log.Debugf("padding: %v", pad)

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(pad)
			}

			return style
		}).
		Headers().
		Rows(data...)

	if opts.Titles {
		headers := make([]string, 0, len(included))
		for _, a := range included {
			headers = append(headers, a.OutputKey)
		}

		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(headers...).BorderHeader(false)
	}

	fmt.Fprintln(w, t)
}

// getColors returns configured color values for table rendering.
func getColors(key string) (header string, even string, odd string) {
	header, _ = config.GetString(fmt.Sprintf("%s.title", key), "#cc0000")
	even, _ = config.GetString(fmt.Sprintf("%s.even", key), "#ffffff")
	odd, _ = config.GetString(fmt.Sprintf("%s.odd", key), "#00c8f0")
	return
}

// SortDataset sorts rows in place by the comma-separated keys in spec. A
// leading - on a key sorts descending. Numbers compare numerically, anything
// else by its string form. Rows missing a key sort first.
func SortDataset(rows []map[string]any, spec string) {
	keys := splitSpec(spec)
	if len(keys) == 0 {
		return
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			desc := false
			if k[0] == '-' {
				desc = true
				k = k[1:]
			}

			c := compare(rows[i][k], rows[j][k])
			if c == 0 {
				continue
			}
			if desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func splitSpec(spec string) []string {
	var keys []string
	for _, k := range strings.Split(spec, ",") {
		k = strings.TrimSpace(k)
		if k != "" && k != "-" {
			keys = append(keys, k)
		}
	}
	return keys
}

func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}

	sa, sb := InterfaceToString(a), InterfaceToString(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	default:
		return 0
	}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// plainRows swaps json.Number for int64 or float64 so yaml renders numbers
// unquoted.
func plainRows(rows []map[string]any) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		m := make(map[string]any, len(r))
		for k, v := range r {
			m[k] = plainValue(v)
		}
		out[i] = m
	}
	return out
}

func plainValue(v any) any {
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = plainValue(v[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k := range v {
			out[k] = plainValue(v[k])
		}
		return out
	default:
		return v
	}
}

// InterfaceToString converts supported primitive or composite values to a
// string. A custom empty value may be provided.
func InterfaceToString(value any, emptyValue ...string) string {
	if len(emptyValue) == 0 {
		emptyValue = []string{""}
	}

	switch value := value.(type) {
	case nil:
		return emptyValue[0]
	case string:
		if value == "" {
			return emptyValue[0]
		}
		return value
	case json.Number:
		return value.String()
	case int:
		return strconv.Itoa(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	case []any:
		if len(value) == 0 {
			return emptyValue[0]
		}
	case map[string]any:
		if len(value) == 0 {
			return emptyValue[0]
		}
	}

	jsonBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(jsonBytes)
}
