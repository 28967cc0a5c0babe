// Package view derives read-only projections from the item collection:
// filtered and searched listings plus aggregate statistics. Everything
// here is pure; callers pass items in and render what comes out.
package view

import (
	"math"
	"strings"

	"trek/internal/model"
)

// StatusAll matches every status when used as a filter value.
const StatusAll = "all"

// Filter returns the items matching both the status filter and the search
// query, in input order. StatusAll or the empty string keeps every status.
// A query matches when any of the named fields contains it, ignoring
// case; with no fields named, only the title is searched. A blank query
// keeps everything.
func Filter(items []model.Item, status, query string, fields []string) []model.Item {
	if len(fields) == 0 {
		fields = []string{"title"}
	}
	query = strings.ToLower(strings.TrimSpace(query))

	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if status != "" && status != StatusAll && it.Status != status {
			continue
		}
		if query != "" && !matches(it, query, fields) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func matches(it model.Item, query string, fields []string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(it.Field(f)), query) {
			return true
		}
	}
	return false
}

// Statistics summarizes a collection for headers and the stats command.
type Statistics struct {
	Total             int
	ByStatus          map[string]int
	CompletionPercent int
}

// Stats counts items per observed status and the share carrying
// completedStatus, rounded to the nearest whole percent. An empty
// collection reports zero percent, not a division error.
func Stats(items []model.Item, completedStatus string) Statistics {
	st := Statistics{Total: len(items), ByStatus: map[string]int{}}
	if len(items) == 0 {
		return st
	}
	done := 0
	for _, it := range items {
		st.ByStatus[it.Status]++
		if it.Status == completedStatus {
			done++
		}
	}
	st.CompletionPercent = int(math.Round(float64(done) / float64(st.Total) * 100))
	return st
}
