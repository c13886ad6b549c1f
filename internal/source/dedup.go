// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"strings"
	"unicode"
)

// appendUnique appends the items of src whose natural key is non-empty and
// not yet in seen, stopping once dst holds limit records. A limit of zero or
// less means no ceiling. Order of first appearance is preserved.
func appendUnique[T any](dst []T, seen map[string]bool, src []T, key func(T) string, limit int) []T {
	for _, item := range src {
		if limit > 0 && len(dst) >= limit {
			break
		}
		k := key(item)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		dst = append(dst, item)
	}
	return dst
}

// dedupe returns the records of items with unique natural keys, in order,
// capped at limit.
func dedupe[T any](items []T, key func(T) string, limit int) []T {
	return appendUnique(make([]T, 0, len(items)), map[string]bool{}, items, key, limit)
}

// normalizePatentNumber upper-cases a patent number and drops separators, so
// "us 10,123,456" and "US10123456" compare equal.
func normalizePatentNumber(n string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(n) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// pairKey returns an order-independent key for an interaction between a and b.
func pairKey(a, b string, extra ...string) string {
	a, b = strings.ToUpper(a), strings.ToUpper(b)
	if b < a {
		a, b = b, a
	}
	return strings.Join(append([]string{a, b}, extra...), "|")
}

// snippet truncates s to n runes, marking the cut with "...".
func snippet(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
