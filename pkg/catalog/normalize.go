package catalog

import (
	"math"
	"strconv"
	"strings"
)

// CategorySeparator joins category path segments for display and filtering
const CategorySeparator = " › "

// NormalizeFilters splits raw filter input on commas and newlines, trims each
// token and drops empty ones. Duplicates and order are preserved.
func NormalizeFilters(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == '\n'
	})

	return trimNonEmpty(fields)
}

// NormalizeDimensions splits raw dimension input on commas only
func NormalizeDimensions(value string) []string {
	return trimNonEmpty(strings.Split(value, ","))
}

func trimNonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}

	return out
}

// JoinCategoryPath renders a category path
func JoinCategoryPath(path []string) string {
	return strings.Join(path, CategorySeparator)
}

// UnionStrings returns the distinct values of all lists in first-seen order
func UnionStrings(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)

	for _, list := range lists {
		for _, v := range list {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}

	return out
}

// RemoveString returns list without any occurrence of value
func RemoveString(list []string, value string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}

	return out
}

// ContainsString reports whether list contains value
func ContainsString(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}

	return false
}

// FormatNumber renders a float as the shortest decimal that round-trips.
// Magnitudes of 1e21 and above or below 1e-6 use exponent notation with an
// explicit sign and no padding, e.g. 1e+21 and 1.5e-7.
func FormatNumber(v float64) string {
	abs := math.Abs(v)
	if abs == 0 || math.IsNaN(v) || math.IsInf(v, 0) || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(v, 'e', -1, 64), "e")

	return mantissa + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
}
