// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package driller

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var indexRE = regexp.MustCompile(`\[(\d+)\]`)

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`?`, `\?`,
	`#`, `\#`,
	`@`, `\@`,
	`|`, `\|`,
)

// Driller walks path through doc and returns what it finds. Segments are
// separated by dots and may carry an [n] index; a bare numeric segment is an
// index too. A single element array is stepped through transparently, so
// "sections.crn" finds the crn of a course's only section. A missing path
// yields an empty Result.
func Driller(doc string, path string) gjson.Result {
	path = indexRE.ReplaceAllString(path, ".$1")

	cur := gjson.Parse(doc)
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			continue
		}
		if isIndex(seg) {
			cur = cur.Get(seg)
		} else {
			cur = unwrap(cur).Get(escaper.Replace(seg))
		}
		if !cur.Exists() {
			return gjson.Result{}
		}
	}

	return unwrap(cur)
}

func isIndex(seg string) bool {
	for _, r := range seg {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func unwrap(r gjson.Result) gjson.Result {
	if r.IsArray() {
		if a := r.Array(); len(a) == 1 {
			return a[0]
		}
	}
	return r
}
