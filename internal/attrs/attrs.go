// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package attrs

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/staranto/coursectl/internal/catalog"
	"github.com/staranto/coursectl/internal/driller"
)

// Attr represents each of the columns to be included in the output. A Key is
// either a logical course field (code, subject, title, description), resolved
// through the alias table, or a raw key of the course record.
type Attr struct {
	// The field or key to extract from the course.
	Key string
	// Raw keys were given with a leading . and are drilled into the course
	// record, so nested values like .sections[0].crn are reachable.
	Raw bool
	// Should this Attr be included in output or is it just
	// intended for filtering?
	Include bool
	// The key to use in the output. This is also the column title when
	// output=text.
	OutputKey string
	// Transformation spec to apply to the output value.
	TransformSpec string
}

// Value extracts the attr's value from c. Missing values are nil.
func (a *Attr) Value(c catalog.Course) any {
	if a.Raw {
		b, err := json.Marshal(c)
		if err != nil {
			return nil
		}
		r := driller.Driller(string(b), a.Key)
		switch {
		case !r.Exists():
			return nil
		case r.Type == gjson.Number:
			return json.Number(r.Raw)
		default:
			return r.Value()
		}
	}

	if f, ok := catalog.LookupField(a.Key); ok {
		if v := c.Value(f); v != "" {
			return v
		}
		return nil
	}

	return c[a.Key]
}

var lengthRE = regexp.MustCompile(`-?\d+`)

// Transform applies the case and length transformations in TransformSpec to
// string values. Other values pass through untouched.
func (a *Attr) Transform(value any) any {
	result, ok := value.(string)
	if !ok {
		return value
	}

	// We need to know which case transformation appears last. This covers the
	// case where there has been a global case transformation prepended to the
	// attrs transformation and, thus, allows the attr's to carry more weight.
	// IOW...  --attrs '*::U,title::l' will be lower case.
	lastL := strings.LastIndexAny(a.TransformSpec, "lL")
	lastU := strings.LastIndexAny(a.TransformSpec, "uU")

	if lastL > lastU {
		result = strings.ToLower(result)
	} else if lastU > lastL {
		result = strings.ToUpper(result)
	}

	// Is it a length-based transformation?
	if a.TransformSpec != "" {
		// Same logic as above re: case. This allows a more specific length
		// transformation to override a global one.
		match := lengthRE.FindAllString(a.TransformSpec, -1)
		if len(match) != 0 {
			// Take the last (overriding) match.
			l, _ := strconv.Atoi(match[len(match)-1])
			abs := int(math.Abs(float64(l)))
			runes := []rune(result)
			if len(runes) > abs {
				lr := abs/2 - 1
				if l < 0 && lr > 0 {
					result = string(runes[:lr]) + ".." + string(runes[len(runes)-lr:])
				} else {
					result = string(runes[:abs])
				}
			}
		}
	}

	return result
}

type AttrList []Attr

// Return a string representation of the AttrList. This should match the format
// of the original --attrs flag.
func (a *AttrList) String() string {
	result := make([]string, 0, len(*a))
	for _, attr := range *a {
		key := attr.Key
		if attr.Raw {
			key = "." + key
		}
		result = append(result, fmt.Sprintf("%s:%s:%s", key, attr.OutputKey, attr.TransformSpec))
	}
	return strings.Join(result, ",")
}

// Parse each spec from the --attrs flag and add it to the AttrList.
func (a *AttrList) Set(value string) error {
	if value == "" || value == "*" {
		return nil
	}

	const (
		keyIdx = iota
		outputIdx
		transformIdx
	)

	// There are three : delimited fields in each spec. The first is the key to
	// extract from the course. The second is the key to use in the output.
	// The third is the transformation spec to apply to the output value. The
	// latter two are optional. The output key will default to the last
	// section of the key.
	specs := strings.Split(value, ",")
specloop:
	for _, spec := range specs {
		attr := Attr{
			Include: true,
		}

		fields := strings.Split(spec, ":")

		// If the key begins with a !, it is excluded from the output.
		attr.Key = strings.TrimSpace(fields[keyIdx])
		if strings.HasPrefix(attr.Key, "!") {
			attr.Include = false
			attr.Key = attr.Key[1:]
		}
		if attr.Key == "" {
			return fmt.Errorf("empty attribute in %q", spec)
		}

		if attr.Key == "*" {
			attr.Include = false
		}

		// Fixup the output field. If there is only one field it is considered the
		// extract key and the output key will become the last segment of the
		// . notation.
		if len(fields) == 1 || fields[outputIdx] == "" {
			segments := strings.Split(attr.Key, ".")
			attr.OutputKey = segments[len(segments)-1]
		} else {
			attr.OutputKey = strings.TrimSpace(fields[outputIdx])
		}

		if len(fields) > transformIdx {
			attr.TransformSpec = strings.TrimSpace(fields[transformIdx])
		}

		// A leading . means a raw path into the course record.
		if strings.HasPrefix(attr.Key, ".") {
			attr.Key = attr.Key[1:]
			attr.Raw = true
		}

		// If the attr already exists in the list (because it's one of the defaults
		// for cmd or the user double-entered it) just apply the OutputKey, Include
		// and TransformSpec to the existing Attr.
		for i := range *a {
			if (*a)[i].Key == attr.Key || (*a)[i].OutputKey == attr.Key {
				(*a)[i].Include = attr.Include
				(*a)[i].OutputKey = attr.OutputKey
				(*a)[i].TransformSpec = attr.TransformSpec
				continue specloop
			}
		}

		*a = append(*a, attr)
	}

	return nil
}

// SetGlobalTransformSpec inserts a global transform spec into the front of all
// attrs in the list.
func (alist *AttrList) SetGlobalTransformSpec() {
	spec := ""

	// Find the global transform spec. If there is more than one, we're not
	// dealing with it and just taking the first.
	for a := range *alist {
		if (*alist)[a].Key == "*" {
			spec = (*alist)[a].TransformSpec
			break
		}
	}

	if spec == "" {
		return
	}

	for a := range *alist {
		(*alist)[a].TransformSpec = spec + "," + (*alist)[a].TransformSpec
	}
}

// Included returns the attrs that make it into the output.
func (alist AttrList) Included() AttrList {
	out := AttrList{}
	for _, a := range alist {
		if a.Include {
			out = append(out, a)
		}
	}
	return out
}

// Row projects c onto the list, keyed by OutputKey, with transforms applied.
// Excluded attrs are left out.
func (alist AttrList) Row(c catalog.Course) map[string]any {
	row := make(map[string]any, len(alist))
	for i := range alist {
		a := &alist[i]
		if !a.Include {
			continue
		}
		row[a.OutputKey] = a.Transform(a.Value(c))
	}
	return row
}
