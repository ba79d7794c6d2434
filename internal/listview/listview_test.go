package listview

import (
	"reflect"
	"testing"
	"time"

	"github.com/dengarop/herdbook/internal/model"
)

func herd() []model.Cow {
	return []model.Cow{
		{ID: 1, Tag: "TW-2025-ABC-0001", Breed: "Nilotic", Color: "brown"},
		{ID: 2, Tag: "TW-2025-ABC-0002", Breed: "Ankole-Watusi", Color: "white"},
		{ID: 3, Tag: "TW-2025-ABC-0003", Breed: "Nuer", Color: "brown"},
		{ID: 4, Tag: "TW-2025-ABC-0004", Breed: "Nilotic", Color: "black"},
		{ID: 5, Tag: "TW-2025-ABC-0005", Breed: "Dinka", Color: "white"},
	}
}

func cowController() *Controller[model.Cow] {
	c := &Controller[model.Cow]{
		SearchFields: func(cow model.Cow) []string {
			return []string{cow.Tag, cow.Breed, cow.Owner.FullName}
		},
		FilterFields: map[string]func(model.Cow) string{
			"breed": func(cow model.Cow) string { return cow.Breed },
			"color": func(cow model.Cow) string { return cow.Color },
		},
		TimeField: func(cow model.Cow) time.Time { return cow.CreatedAt },
		PageSize:  2,
	}
	c.SetSource(herd())
	return c
}

func ids(cows []model.Cow) []int64 {
	out := make([]int64, len(cows))
	for i, c := range cows {
		out[i] = c.ID
	}
	return out
}

func TestSearchMatchesSubstringCaseInsensitive(t *testing.T) {
	c := cowController()
	c.SetSearch("nilo")

	got := ids(c.All())
	if !reflect.DeepEqual(got, []int64{1, 4}) {
		t.Errorf("search result ids = %v, want [1 4]", got)
	}
}

func TestSearchPreservesSourceOrder(t *testing.T) {
	c := cowController()
	c.SetSearch("TW-2025")

	got := ids(c.All())
	if !reflect.DeepEqual(got, []int64{1, 2, 3, 4, 5}) {
		t.Errorf("ids = %v, want source order", got)
	}
}

func TestFilteredViewNeverExceedsSource(t *testing.T) {
	c := cowController()
	terms := []string{"", "a", "nilotic", "zzz", "0003"}
	for _, term := range terms {
		c.SetSearch(term)
		if n := c.Total(); n > len(herd()) {
			t.Errorf("search %q: total %d exceeds source %d", term, n, len(herd()))
		}
	}
}

func TestCategoricalFilterWithAllSentinel(t *testing.T) {
	c := cowController()
	c.SetFilter("color", "brown")
	if got := ids(c.All()); !reflect.DeepEqual(got, []int64{1, 3}) {
		t.Errorf("brown ids = %v, want [1 3]", got)
	}

	c.SetFilter("color", FilterAll)
	if got := c.Total(); got != 5 {
		t.Errorf("after reset Total() = %d, want 5", got)
	}
}

func TestFiltersCompose(t *testing.T) {
	c := cowController()
	c.SetFilter("breed", "Nilotic")
	c.SetFilter("color", "black")
	if got := ids(c.All()); !reflect.DeepEqual(got, []int64{4}) {
		t.Errorf("ids = %v, want [4]", got)
	}
}

func TestPageResetsOnInputChange(t *testing.T) {
	set := map[string]func(c *Controller[model.Cow]){
		"search": func(c *Controller[model.Cow]) { c.SetSearch("tw") },
		"filter": func(c *Controller[model.Cow]) { c.SetFilter("color", "brown") },
		"range":  func(c *Controller[model.Cow]) { c.SetDateRange(Range30Days) },
		"source": func(c *Controller[model.Cow]) { c.SetSource(herd()) },
	}
	for name, change := range set {
		t.Run(name, func(t *testing.T) {
			c := cowController()
			c.SetPage(3)
			if c.Page() != 3 {
				t.Fatalf("setup: Page() = %d", c.Page())
			}
			change(c)
			if c.Page() != 1 {
				t.Errorf("after %s change Page() = %d, want 1", name, c.Page())
			}
		})
	}
}

func TestPagination(t *testing.T) {
	c := cowController()
	if got := c.Pages(); got != 3 {
		t.Fatalf("Pages() = %d, want 3", got)
	}

	c.SetPage(3)
	if got := ids(c.Items()); !reflect.DeepEqual(got, []int64{5}) {
		t.Errorf("last page ids = %v, want [5]", got)
	}

	c.SetPage(99)
	if c.Page() != 3 {
		t.Errorf("overshoot Page() = %d, want clamped to 3", c.Page())
	}
}

func TestStableSortKeepsEqualKeysInOrder(t *testing.T) {
	c := cowController()
	c.Less = func(a, b model.Cow) bool { return a.Color < b.Color }

	got := ids(c.All())
	// black, then browns in source order, then whites in source order.
	if !reflect.DeepEqual(got, []int64{4, 1, 3, 2, 5}) {
		t.Errorf("sorted ids = %v", got)
	}
}

func TestViewIsIdempotent(t *testing.T) {
	c := cowController()
	c.SetSearch("tw")
	c.SetFilter("color", "white")

	first := ids(c.All())
	second := ids(c.All())
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated reads differ: %v vs %v", first, second)
	}
}

func TestDateRangeEvaluatedAtReadTime(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	cows := []model.Cow{
		{ID: 1, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: 2, CreatedAt: now.AddDate(0, 0, -3)},
		{ID: 3, CreatedAt: now.AddDate(0, 0, -20)},
		{ID: 4, CreatedAt: now.AddDate(0, 0, -40)},
	}
	c := &Controller[model.Cow]{
		TimeField: func(cow model.Cow) time.Time { return cow.CreatedAt },
		Now:       func() time.Time { return now },
	}
	c.SetSource(cows)

	tests := []struct {
		r    string
		want []int64
	}{
		{RangeAll, []int64{1, 2, 3, 4}},
		{RangeToday, []int64{1}},
		{Range7Days, []int64{1, 2}},
		{Range30Days, []int64{1, 2, 3}},
	}
	for _, tt := range tests {
		c.SetDateRange(tt.r)
		if got := ids(c.All()); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("range %q ids = %v, want %v", tt.r, got, tt.want)
		}
	}

	// The same filter re-reads against a later clock.
	c.SetDateRange(Range7Days)
	c.Now = func() time.Time { return now.AddDate(0, 0, 10) }
	if got := ids(c.All()); !reflect.DeepEqual(got, []int64{3}) {
		t.Errorf("after clock advance ids = %v, want [3]", got)
	}
}

func TestGroupBy(t *testing.T) {
	c := cowController()
	groups := c.GroupBy(func(cow model.Cow) string { return cow.Color })

	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}
	if groups[0].Key != "brown" || !reflect.DeepEqual(ids(groups[0].Items), []int64{1, 3}) {
		t.Errorf("first group = %q %v", groups[0].Key, ids(groups[0].Items))
	}
	if groups[1].Key != "white" || groups[2].Key != "black" {
		t.Errorf("group order = %q, %q", groups[1].Key, groups[2].Key)
	}
}
