// Package listview filters, searches, sorts, groups and paginates
// in-memory entity slices. Every derivation is recomputed from the source
// slice, so repeated reads with unchanged inputs give identical results.
package listview

import (
	"sort"
	"strings"
	"time"
)

// FilterAll is the sentinel meaning a categorical filter is inactive.
const FilterAll = "all"

// Date range filter values. Ranges are evaluated against the clock at
// read time, not at the time the filter was set.
const (
	RangeAll    = "all"
	RangeToday  = "today"
	Range7Days  = "7d"
	Range30Days = "30d"
)

// DefaultPageSize is the page length used when none is configured.
const DefaultPageSize = 10

// Controller holds the source slice and the current view inputs for one
// entity type. It never mutates the source.
type Controller[T any] struct {
	// SearchFields extracts the strings the search term is matched
	// against, case-insensitively.
	SearchFields func(T) []string
	// FilterField extracts the categorical value compared against each
	// active filter, keyed by filter name.
	FilterFields map[string]func(T) string
	// TimeField extracts the timestamp used by the date-range filter.
	// Nil disables date filtering.
	TimeField func(T) time.Time
	// Less orders the view. Nil leaves source order untouched.
	Less func(a, b T) bool
	// Now is the clock for range evaluation. Nil means time.Now.
	Now func() time.Time

	PageSize int

	source    []T
	search    string
	filters   map[string]string
	dateRange string
	page      int
}

// SetSource replaces the underlying slice and resets to the first page.
func (c *Controller[T]) SetSource(items []T) {
	c.source = items
	c.page = 1
}

// SetSearch updates the search term and resets to the first page.
func (c *Controller[T]) SetSearch(term string) {
	c.search = strings.TrimSpace(term)
	c.page = 1
}

// SetFilter updates one categorical filter and resets to the first page.
// FilterAll deactivates the filter.
func (c *Controller[T]) SetFilter(name, value string) {
	if c.filters == nil {
		c.filters = make(map[string]string)
	}
	c.filters[name] = value
	c.page = 1
}

// SetDateRange updates the date-range filter and resets to the first page.
func (c *Controller[T]) SetDateRange(r string) {
	c.dateRange = r
	c.page = 1
}

// SetPage moves to the given page. Out-of-range values clamp.
func (c *Controller[T]) SetPage(p int) {
	if p < 1 {
		p = 1
	}
	if last := c.Pages(); p > last {
		p = last
	}
	c.page = p
}

// Page returns the current page number, 1-based.
func (c *Controller[T]) Page() int {
	if c.page < 1 {
		return 1
	}
	return c.page
}

// view computes the filtered, searched, sorted slice.
func (c *Controller[T]) view() []T {
	out := make([]T, 0, len(c.source))
	cutoff, hasCutoff := c.cutoff()
	term := strings.ToLower(c.search)

	for _, item := range c.source {
		if term != "" && !c.matches(item, term) {
			continue
		}
		if !c.passesFilters(item) {
			continue
		}
		if hasCutoff && c.TimeField != nil && c.TimeField(item).Before(cutoff) {
			continue
		}
		out = append(out, item)
	}

	if c.Less != nil {
		sort.SliceStable(out, func(i, j int) bool { return c.Less(out[i], out[j]) })
	}
	return out
}

func (c *Controller[T]) matches(item T, term string) bool {
	if c.SearchFields == nil {
		return true
	}
	for _, field := range c.SearchFields(item) {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func (c *Controller[T]) passesFilters(item T) bool {
	for name, want := range c.filters {
		if want == "" || want == FilterAll {
			continue
		}
		extract, ok := c.FilterFields[name]
		if !ok {
			continue
		}
		if !strings.EqualFold(extract(item), want) {
			return false
		}
	}
	return true
}

func (c *Controller[T]) cutoff() (time.Time, bool) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	t := now()
	switch c.dateRange {
	case RangeToday:
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location()), true
	case Range7Days:
		return t.AddDate(0, 0, -7), true
	case Range30Days:
		return t.AddDate(0, 0, -30), true
	default:
		return time.Time{}, false
	}
}

// All returns the full filtered view without pagination.
func (c *Controller[T]) All() []T {
	return c.view()
}

// Total returns the number of items in the filtered view.
func (c *Controller[T]) Total() int {
	return len(c.view())
}

// Pages returns the page count for the current view, at least 1.
func (c *Controller[T]) Pages() int {
	size := c.pageSize()
	n := (len(c.view()) + size - 1) / size
	if n < 1 {
		n = 1
	}
	return n
}

// Items returns the current page of the filtered view.
func (c *Controller[T]) Items() []T {
	view := c.view()
	size := c.pageSize()

	page := c.Page()
	if last := (len(view) + size - 1) / size; last > 0 && page > last {
		page = last
	}

	start := (page - 1) * size
	if start >= len(view) {
		return nil
	}
	end := start + size
	if end > len(view) {
		end = len(view)
	}
	return view[start:end]
}

func (c *Controller[T]) pageSize() int {
	if c.PageSize > 0 {
		return c.PageSize
	}
	return DefaultPageSize
}

// Group is one bucket of a grouped view.
type Group[T any] struct {
	Key   string
	Items []T
}

// GroupBy partitions the full filtered view by key. Groups appear in
// order of first occurrence and items keep view order within a group.
func (c *Controller[T]) GroupBy(key func(T) string) []Group[T] {
	view := c.view()
	index := make(map[string]int)
	var groups []Group[T]
	for _, item := range view {
		k := key(item)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[T]{Key: k})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}
