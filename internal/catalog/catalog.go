// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNotCatalog is returned when a document holds no course array where one
// was expected.
var ErrNotCatalog = errors.New("document is not a course catalog")

// Field is a logical course field. The remote API is loose about naming, so
// each Field is resolved through an ordered list of candidate keys.
type Field string

const (
	FieldCode        Field = "code"
	FieldSubject     Field = "subject"
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
)

// Aliases maps each logical field to the keys that may hold it, in the order
// they are tried.
var Aliases = map[Field][]string{
	FieldCode:        {"code", "courseCode", "course_code"},
	FieldSubject:     {"subject", "courseSubject"},
	FieldTitle:       {"title", "name"},
	FieldDescription: {"description", "desc"},
}

// Fields lists the logical fields in display order.
var Fields = []Field{FieldCode, FieldSubject, FieldTitle, FieldDescription}

// LookupField returns the Field named s, if there is one.
func LookupField(s string) (Field, bool) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	_, ok := Aliases[f]
	return f, ok
}

// Course is a single catalog record. Its keys are whatever the remote service
// sent.
type Course map[string]any

// Value returns the first non-empty value among the aliases of f, as a
// string. A course with none of them yields "".
func (c Course) Value(f Field) string {
	keys, ok := Aliases[f]
	if !ok {
		keys = []string{string(f)}
	}
	for _, k := range keys {
		if s := Stringify(c[k]); s != "" {
			return s
		}
	}
	return ""
}

// Code is shorthand for c.Value(FieldCode).
func (c Course) Code() string { return c.Value(FieldCode) }

// Subject is shorthand for c.Value(FieldSubject).
func (c Course) Subject() string { return c.Value(FieldSubject) }

// Stringify renders a decoded JSON value as text. nil becomes "".
func Stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// Catalog is the ordered list of courses from one fetch.
type Catalog []Course

// Parse extracts a Catalog from doc. A top-level array is the catalog itself.
// Otherwise the array is looked up at resultsPath (gjson syntax). Numbers are
// kept as json.Number so they survive a round trip untouched.
func Parse(doc []byte, resultsPath string) (Catalog, error) {
	doc = bytes.TrimSpace(doc)
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("invalid json: %w", ErrNotCatalog)
	}

	raw := doc
	root := gjson.ParseBytes(doc)
	if !root.IsArray() {
		if resultsPath == "" {
			return nil, fmt.Errorf("top level is %s: %w", root.Type, ErrNotCatalog)
		}
		res := root.Get(resultsPath)
		if !res.IsArray() {
			return nil, fmt.Errorf("no array at %q: %w", resultsPath, ErrNotCatalog)
		}
		raw = []byte(res.Raw)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var cat Catalog
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("failed to decode courses: %w", err)
	}
	if cat == nil {
		cat = Catalog{}
	}
	return cat, nil
}

// Marshal renders the catalog as indented JSON.
func (cat Catalog) Marshal() ([]byte, error) {
	if cat == nil {
		cat = Catalog{}
	}
	b, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return b, nil
}

// normalize is the comparison form used by exact-match lookups.
func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// FindByCode returns the first course whose code equals code, ignoring case
// and surrounding whitespace.
func (cat Catalog) FindByCode(code string) (Course, bool) {
	want := normalize(code)
	for _, c := range cat {
		if normalize(c.Code()) == want {
			return c, true
		}
	}
	return nil, false
}

// FindBySubject returns every course whose subject equals subject, ignoring
// case and surrounding whitespace, in catalog order.
func (cat Catalog) FindBySubject(subject string) Catalog {
	want := normalize(subject)
	matches := Catalog{}
	for _, c := range cat {
		if normalize(c.Subject()) == want {
			matches = append(matches, c)
		}
	}
	return matches
}

// Search returns every course whose title, description or code contains
// query, ignoring case, in catalog order.
func (cat Catalog) Search(query string) Catalog {
	q := strings.ToLower(query)
	matches := Catalog{}
	for _, c := range cat {
		for _, f := range []Field{FieldTitle, FieldDescription, FieldCode} {
			if strings.Contains(strings.ToLower(c.Value(f)), q) {
				matches = append(matches, c)
				break
			}
		}
	}
	return matches
}

// Subjects counts courses per normalized subject. Courses without a subject
// are counted under "".
func (cat Catalog) Subjects() map[string]int {
	counts := make(map[string]int)
	for _, c := range cat {
		counts[normalize(c.Subject())]++
	}
	return counts
}

// ByCode indexes the catalog by normalized code. The n-th repeat of a code
// is keyed "<code>#n", counting from 2. A course without a code is keyed
// "#<TITLE>", or "#<hash>" of its content when it has no title either. No
// key depends on where the course sits in the catalog.
func (cat Catalog) ByCode() map[string]Course {
	out := make(map[string]Course, len(cat))
	seen := make(map[string]int, len(cat))
	for _, c := range cat {
		key := normalize(c.Code())
		if key == "" {
			key = "#" + anonymousKey(c)
		}
		seen[key]++
		if n := seen[key]; n > 1 {
			key = fmt.Sprintf("%s#%d", key, n)
		}
		out[key] = c
	}
	return out
}

func anonymousKey(c Course) string {
	if title := normalize(c.Value(FieldTitle)); title != "" {
		return title
	}
	// encoding/json sorts map keys, so equal courses hash the same.
	b, err := json.Marshal(c)
	if err != nil {
		b = []byte(fmt.Sprintf("%v", map[string]any(c)))
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:4])
}
