package view

import (
	"testing"
	"time"

	"github.com/aegis-response/aegis_console/internal/subscriber"
)

func sampleRecords() []subscriber.Record {
	exp := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return []subscriber.Record{
		{ID: "1", Name: "Bob", Email: "b@x.com", Phone: 5550001, HomeAddress: "North Pier", Subscription: "premium"},
		{ID: "2", Name: "Ann", Email: "a@x.com", Phone: 5550002, HomeAddress: "South Gate", Subscription: "free", SubscriptionExpiration: &exp},
		{ID: "3", Name: "alice", Email: "alice@mail.org", Phone: 5550003, HomeAddress: "East Side", Subscription: "free"},
	}
}

func names(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Name)
	}
	return out
}

func equalNames(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestProjectFilterMatchesAcrossFields(t *testing.T) {
	records := sampleRecords()

	cases := []struct {
		query string
		want  []string
	}{
		{"alice", []string{"alice"}},
		{"ALICE", []string{"alice"}},
		{"  ann ", []string{"Ann"}},
		{"@x.com", []string{"Bob", "Ann"}},
		{"5550001", []string{"Bob"}},
		{"south", []string{"Ann"}},
		{"premium", []string{"Bob"}},
		{"", []string{"Bob", "Ann", "alice"}},
		{"nothing-here", nil},
	}

	for _, tc := range cases {
		rows := Project(records, tc.query, Sort{}, NewSelection())
		if !equalNames(names(rows), tc.want...) {
			t.Fatalf("query %q: expected %v, got %v", tc.query, tc.want, names(rows))
		}
	}
}

func TestProjectFilterNeverMatchesAbsentFields(t *testing.T) {
	records := []subscriber.Record{{ID: "1", Name: "Solo", Email: "s@x.com"}}
	rows := Project(records, "premium", Sort{}, NewSelection())
	if len(rows) != 0 {
		t.Fatalf("expected no match against empty subscription, got %d rows", len(rows))
	}
}

func TestProjectSortByName(t *testing.T) {
	records := sampleRecords()
	s := Sort{}.Toggle("name")

	rows := Project(records, "", s, NewSelection())
	// case-sensitive lexicographic: uppercase before lowercase
	if !equalNames(names(rows), "Ann", "Bob", "alice") {
		t.Fatalf("ascending: got %v", names(rows))
	}

	s = s.Toggle("name")
	rows = Project(records, "", s, NewSelection())
	if !equalNames(names(rows), "alice", "Bob", "Ann") {
		t.Fatalf("descending: got %v", names(rows))
	}
}

func TestSortCycleReturnsToOriginalOrder(t *testing.T) {
	records := sampleRecords()

	s := Sort{}
	s = s.Toggle("name")
	s = s.Toggle("name")
	s = s.Toggle("name")

	if s != (Sort{}) {
		t.Fatalf("expected unsorted state after three toggles, got %+v", s)
	}
	rows := Project(records, "", s, NewSelection())
	if !equalNames(names(rows), "Bob", "Ann", "alice") {
		t.Fatalf("expected original order, got %v", names(rows))
	}
}

func TestToggleNewKeyStartsAscending(t *testing.T) {
	s := Sort{}.Toggle("name").Toggle("name") // name desc
	s = s.Toggle("email")
	if s.Key != "email" || s.Direction != Ascending {
		t.Fatalf("expected email asc, got %+v", s)
	}
}

func TestSortStabilityOnTies(t *testing.T) {
	records := []subscriber.Record{
		{ID: "1", Name: "Dana", Subscription: "free"},
		{ID: "2", Name: "Carl", Subscription: "free"},
		{ID: "3", Name: "Abby", Subscription: "free"},
	}

	rows := Project(records, "", Sort{Key: "subscription", Direction: Ascending}, NewSelection())
	if !equalNames(names(rows), "Dana", "Carl", "Abby") {
		t.Fatalf("tied records must keep pre-sort order, got %v", names(rows))
	}
}

func TestSortNullsLastBothDirections(t *testing.T) {
	records := sampleRecords() // only Ann has subscription_expiration

	for _, dir := range []Direction{Ascending, Descending} {
		rows := Project(records, "", Sort{Key: "subscription_expiration", Direction: dir}, NewSelection())
		if rows[0].Name != "Ann" {
			t.Fatalf("direction %q: expected Ann first, got %v", dir, names(rows))
		}
	}
}

func TestSortNumericNotLexicographic(t *testing.T) {
	records := []subscriber.Record{
		{ID: "1", Name: "A", Phone: 100},
		{ID: "2", Name: "B", Phone: 20},
	}
	rows := Project(records, "", Sort{Key: "phone", Direction: Ascending}, NewSelection())
	if !equalNames(names(rows), "B", "A") {
		t.Fatalf("expected numeric order 20 < 100, got %v", names(rows))
	}
}

func TestProjectDoesNotMutateInput(t *testing.T) {
	records := sampleRecords()
	Project(records, "", Sort{Key: "name", Direction: Descending}, NewSelection())
	if records[0].Name != "Bob" {
		t.Fatalf("input order changed: %v", records[0].Name)
	}
}

func TestSelectionAnnotation(t *testing.T) {
	records := sampleRecords()
	sel := NewSelection()
	sel.Toggle("2")

	rows := Project(records, "", Sort{}, sel)
	for _, row := range rows {
		if row.Selected != (row.ID == "2") {
			t.Fatalf("row %s: unexpected selected=%v", row.ID, row.Selected)
		}
	}
}

func TestToggleAll(t *testing.T) {
	records := sampleRecords()
	sel := NewSelection()
	rows := Project(records, "", Sort{}, sel)

	sel.ToggleAll(rows)
	if !sel.AllSelected(rows) {
		t.Fatalf("expected all selected after first toggle")
	}

	sel.ToggleAll(rows)
	if len(sel.IDs()) != 0 {
		t.Fatalf("expected empty selection after second toggle, got %v", sel.IDs())
	}
}

func TestToggleAllPartialSelectsEverything(t *testing.T) {
	records := sampleRecords()
	sel := NewSelection()
	sel.Toggle("1")
	rows := Project(records, "", Sort{}, sel)

	sel.ToggleAll(rows)
	if !sel.AllSelected(rows) {
		t.Fatalf("partial selection must flip to all-on")
	}
}
