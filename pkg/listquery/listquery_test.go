package listquery_test

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fleetform/pkg/listquery"
)

func TestParseAppliesDefaultsAndClamps(t *testing.T) {
	cases := map[string]listquery.State{
		"":                                  listquery.Default(),
		"page=0&pageSize=1000":              {Page: 1, PageSize: listquery.MaxPageSize},
		"page=3&pageSize=x":                 {Page: 3, PageSize: listquery.DefaultPageSize},
		"sort=plateNumber:DESC&search= ab ": {Page: 1, PageSize: 20, Sort: listquery.Sort{Field: "plateNumber", Direction: listquery.Desc}, Search: "ab"},
		"sort=name%20drop":                  listquery.Default(),
	}
	for raw, want := range cases {
		query, err := url.ParseQuery(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if diff := cmp.Diff(want, listquery.Parse(query)); diff != "" {
			t.Fatalf("Parse(%q) mismatch (-want +got):\n%s", raw, diff)
		}
	}
}

func TestValuesRoundTrip(t *testing.T) {
	state := listquery.State{Page: 2, PageSize: 50, Sort: listquery.Sort{Field: "carYear", Direction: listquery.Desc}, Search: "toyota"}
	encoded := state.Values().Encode()

	query, _ := url.ParseQuery(encoded)
	if diff := cmp.Diff(state, listquery.Parse(query)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	if got := listquery.Default().Values().Encode(); got != "" {
		t.Fatalf("expected defaults to be omitted, got %q", got)
	}
}

func TestMergeKeepsUnrelatedParameters(t *testing.T) {
	query := url.Values{"id": {"42"}, "page": {"9"}}
	merged := listquery.Default().WithSearch("bus").Merge(query)

	want := url.Values{"id": {"42"}, "search": {"bus"}}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestTransitions(t *testing.T) {
	state := listquery.Default().WithPage(4)
	state = state.WithSearch("x")
	if state.Page != 1 {
		t.Fatalf("expected search to reset page, got %d", state.Page)
	}
	state = state.WithSort("plateNumber")
	if state.Sort.Direction != listquery.Asc {
		t.Fatalf("expected ascending first, got %s", state.Sort.Direction)
	}
	state = state.WithSort("plateNumber")
	if state.Sort.Direction != listquery.Desc {
		t.Fatalf("expected toggle to descending, got %s", state.Sort.Direction)
	}
	if got := state.WithPage(3).Offset(); got != 40 {
		t.Fatalf("expected offset 40, got %d", got)
	}
	if got := state.TotalPages(41); got != 3 {
		t.Fatalf("expected 3 pages, got %d", got)
	}
	if got := state.Backend().Get("pageSize"); got != "20" {
		t.Fatalf("expected backend page size, got %q", got)
	}
}
