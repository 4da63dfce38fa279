package matching

import (
	"sort"
	"strings"
)

// Filter returns the options containing query, ignoring case, accents and dashes.
// Options starting with the query come first; the original order is kept otherwise.
// An empty query returns every option.
func Filter(options []string, query string) []string {
	q := Normalize(query)
	if q == "" {
		return append([]string{}, options...)
	}

	type hit struct {
		value  string
		prefix bool
	}
	hits := make([]hit, 0, len(options))
	for _, opt := range options {
		n := Normalize(opt)
		if !strings.Contains(n, q) {
			continue
		}
		hits = append(hits, hit{value: opt, prefix: strings.HasPrefix(n, q)})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].prefix && !hits[j].prefix
	})

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.value
	}
	return out
}
