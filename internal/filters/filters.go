// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/coursectl/internal/attrs"
	"github.com/staranto/coursectl/internal/catalog"
)

// filterRegex is the pattern used to parse filter expressions into key, operator, and target components.
// It matches: key + operator + target, where operator can be negated with !
// Operators are one of = ^ ~ < > @ or /, optionally prefixed with '!'.
// This allows forms like '=', '!=', '^', '!^', etc.
var filterRegex = regexp.MustCompile(`^(.*?)(!?[=^~<>@/])(.*)$`)

// Filter represents a single parsed --filter expression including the key,
// operand, optional negation and target value.
type Filter struct {
	Key     string
	Negate  bool
	Operand string
	Target  string
}

// BuildFilters parses a filter specification string into a slice of Filter.
// Invalid specs (unsupported operand or malformed expression) are skipped.
func BuildFilters(spec string) []Filter {
	// Don't prealloc because we don't know what len will be and performance is
	// not critical.
	//nolint:prealloc
	var filters []Filter

	// If there are no filters specified, go home early.
	if spec == "" {
		return filters
	}

	// Default delimiter is ",", allow an override.
	delim := ","
	if d, ok := os.LookupEnv("COURSECTL_FILTER_DELIM"); ok {
		delim = d
	}

	// Split the spec and iterate over each filter spec entry.
	filterSpecs := strings.Split(spec, delim)
	for _, filterSpec := range filterSpecs {
		parts := filterRegex.FindStringSubmatch(filterSpec)

		// If a supported operand was not found, log an error and throw it away.
		if parts == nil {
			log.Error("invalid filter: " + filterSpec)
			continue
		}

		// parts[2] is the operand. It may have a leading negation. If so, trim it
		// and just use the remainder as the working operand.
		negate := strings.HasPrefix(parts[2], "!")
		if negate {
			parts[2] = strings.TrimPrefix(parts[2], "!")
		}

		// We've got a valid filter, append it to the result set.
		filters = append(filters, Filter{
			Key:     parts[1],
			Negate:  negate,
			Operand: parts[2],
			Target:  parts[3],
		})
	}

	return filters
}

// Apply returns the courses in cat that match every filter in spec, in their
// original order. The result is never nil.
func Apply(cat catalog.Catalog, al attrs.AttrList, spec string) catalog.Catalog {
	// Build a slice of filters from the spec once so we can discard invalid
	// entries and avoid reparsing for each candidate row.
	filters := BuildFilters(spec)

	out := catalog.Catalog{}
	for _, candidate := range cat {
		if applyFilters(candidate, al, filters) {
			out = append(out, candidate)
		}
	}
	return out
}

// resolve finds the attr a filter key refers to. Output keys of al win, so
// "--attrs title:Name --filter Name@Data" works. Any other key is parsed the
// way --attrs parses one, which lets filters use fields that are not shown.
func resolve(al attrs.AttrList, key string) *attrs.Attr {
	for i := range al {
		if al[i].OutputKey == key {
			return &al[i]
		}
	}

	var adhoc attrs.AttrList
	if err := adhoc.Set(key); err != nil || len(adhoc) == 0 {
		return nil
	}
	log.Debugf("filter key %s not in attrs, using it as is", key)
	return &adhoc[0]
}

// applyFilters returns true if the candidate matches all of the provided
// filters. A course lacking a filtered value never matches.
func applyFilters(candidate catalog.Course, al attrs.AttrList, filters []Filter) bool {
	for _, filter := range filters {
		attr := resolve(al, filter.Key)
		if attr == nil {
			log.Error(fmt.Sprintf("invalid filter key: %s", filter.Key))
			continue
		}

		value := attr.Value(candidate)
		if value == nil || !match(value, filter) {
			return false
		}
	}

	return true
}

// match checks one value against one filter. Strings and bools compare as
// text, numbers numerically, and lists or objects only support '@'.
func match(value any, filter Filter) bool {
	switch v := value.(type) {
	case string:
		return checkStringOperand(v, filter)
	case bool:
		return checkStringOperand(strconv.FormatBool(v), filter)
	case []any, map[string]any:
		if filter.Operand != "@" {
			log.Debugf("operand %s does not apply to %s", filter.Operand, filter.Key)
			return true
		}
		return checkContainsOperand(v, filter)
	}

	if num, ok := toFloat64(value); ok {
		return checkNumericOperand(num, filter)
	}
	return true
}

// checkContainsOperand evaluates a membership style filter (operand '@')
// against list or object values. List items compare by their text, so
// "crosslisted@216" finds json.Number(216).
func checkContainsOperand(value any, filter Filter) bool {
	found := false
	switch val := value.(type) {
	case []any:
		for _, item := range val {
			if catalog.Stringify(item) == filter.Target {
				found = true
				break
			}
		}
	case map[string]any:
		_, found = val[filter.Target]
	default:
		log.Error(fmt.Sprintf("unsupported type for contains filtering: %T", value))
		return false
	}
	return found != filter.Negate
}

// checkNumericOperand compares a numeric value against the filter target using
// numeric semantics. Supported operands: =, >, < and the negated form via
// filter.Negate (e.g., != is represented as Negate + "=").
func checkNumericOperand(value float64, filter Filter) bool {
	// Parse the target as a float64
	tgt, err := strconv.ParseFloat(strings.TrimSpace(filter.Target), 64)
	if err != nil {
		log.Error("invalid numeric target: " + filter.Target)
		return false
	}

	switch filter.Operand {
	case "=":
		return (value == tgt) == !filter.Negate
	case ">":
		return (value > tgt) == !filter.Negate
	case "<":
		return (value < tgt) == !filter.Negate
	default:
		log.Error("unsupported numeric operand: " + filter.Operand)
		return false
	}
}

// checkStringOperand evaluates a string comparison style filter against the
// provided value using the operand semantics.
func checkStringOperand(value string, filter Filter) bool {
	switch filter.Operand {
	case "=":
		return value == filter.Target == !filter.Negate
	case "~":
		return strings.EqualFold(value, filter.Target) == !filter.Negate
	case "^":
		return strings.HasPrefix(value, filter.Target) == !filter.Negate
	case ">":
		return value > filter.Target == !filter.Negate
	case "<":
		return value < filter.Target == !filter.Negate
	case "@":
		return strings.Contains(value, filter.Target) == !filter.Negate
	case "/":
		matched, err := regexp.MatchString(filter.Target, value)
		if err != nil {
			log.Error("invalid regex: " + filter.Target)
			return false
		}
		return matched == !filter.Negate
	default:
		log.Error("unsupported filtering operand: " + filter.Operand)
		return false
	}
}

// toFloat64 normalizes json.Number and the Go numeric kinds to float64.
// Returns (0, false) for anything else.
func toFloat64(v any) (float64, bool) {
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	default:
		return 0, false
	}
}
