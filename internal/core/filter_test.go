package core

import "testing"

// row builds a record from facet values; issued < 0 means missing.
func row(status, registry, country, typ string, issued float64) Record {
	r := NewRecord()
	if status != "" {
		r.Text[FieldStatus] = status
	}
	if registry != "" {
		r.Text[FieldRegistry] = registry
	}
	if country != "" {
		r.Text[FieldCountry] = country
	}
	if typ != "" {
		r.Text[FieldType] = typ
	}
	if issued >= 0 {
		r.Num[FieldCreditsIssued] = issued
	}
	return r
}

func testDataset(rows ...Record) Dataset {
	ds := NewDataset()
	for _, f := range []Field{FieldStatus, FieldRegistry, FieldCountry, FieldType, FieldCreditsIssued} {
		ds.Columns[f] = true
	}
	ds.Rows = rows
	return ds
}

func ids(d Dataset) []string {
	out := make([]string, len(d.Rows))
	for i, r := range d.Rows {
		out[i], _ = r.Str(FieldStatus)
	}
	return out
}

func TestApplyFacetMembership(t *testing.T) {
	ds := testDataset(
		row("Registered", "Verra", "Kenya", "Soil", 10),
		row("Completed", "Verra", "Brazil", "Livestock", 20),
		row("Registered", "Gold Standard", "Kenya", "Soil", 30),
	)

	tests := []struct {
		name string
		sel  Selection
		want int
	}{
		{"no restriction", Selection{}, 3},
		{"status facet", Selection{Statuses: []string{"Registered"}}, 2},
		{"two facets intersect", Selection{Statuses: []string{"Registered"}, Registries: []string{"Verra"}}, 1},
		{"all sentinel disables facet", Selection{Statuses: []string{AllValues}}, 3},
		{"sentinel beats concrete values", Selection{Statuses: []string{"Registered", AllValues}}, 3},
		{"empty set is unrestricted", Selection{Statuses: nil, Countries: []string{"Kenya"}}, 2},
		{"no match", Selection{Statuses: []string{"Withdrawn"}}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Apply(ds, tc.sel)
			if got.Len() != tc.want {
				t.Fatalf("expected %d rows, got %d", tc.want, got.Len())
			}
		})
	}
}

func TestApplyIssuedOnlyFlag(t *testing.T) {
	// Scenario: statuses [Registered, Completed, Registered] with
	// issued [10, 20, 0]. Status={Registered} plus the flag keeps only
	// the first row; the third is Registered but has no positive
	// issuance.
	ds := testDataset(
		row("Registered", "Verra", "Kenya", "Soil", 10),
		row("Completed", "Verra", "Brazil", "Soil", 20),
		row("Registered", "Verra", "Kenya", "Soil", 0),
	)
	sel := Selection{Statuses: []string{"Registered"}, IssuedOnly: true}

	got := Apply(ds, sel)
	if got.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", got.Len())
	}
	if v, _ := got.Rows[0].Value(FieldCreditsIssued); v != 10 {
		t.Fatalf("expected the issued=10 row, got issued=%v", v)
	}
}

func TestApplyIssuedOnlyExcludesMissing(t *testing.T) {
	ds := testDataset(
		row("Registered", "", "", "", 100),
		row("Registered", "", "", "", -1), // missing issued
	)
	got := Apply(ds, Selection{IssuedOnly: true})
	if got.Len() != 1 {
		t.Fatalf("rows with missing issued must be excluded under the flag, got %d rows", got.Len())
	}
}

func TestApplyPreservesOrderAndIsSubset(t *testing.T) {
	ds := testDataset(
		row("A", "r1", "c1", "t1", 1),
		row("B", "r1", "c1", "t1", 2),
		row("A", "r2", "c2", "t2", 3),
		row("C", "r1", "c1", "t1", 4),
		row("A", "r1", "c3", "t1", 5),
	)
	sel := Selection{Statuses: []string{"A", "C"}}

	got := Apply(ds, sel)
	if got.Len() > ds.Len() {
		t.Fatalf("output larger than input: %d > %d", got.Len(), ds.Len())
	}
	want := []string{"A", "A", "C", "A"}
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("expected %v, got %v", want, g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("order not preserved: expected %v, got %v", want, g)
		}
	}
}

func TestApplyIdempotent(t *testing.T) {
	ds := testDataset(
		row("Registered", "Verra", "Kenya", "Soil", 10),
		row("Completed", "Verra", "Brazil", "Soil", 0),
		row("Registered", "ACR", "Kenya", "Rice", -1),
	)
	sel := Selection{Statuses: []string{"Registered"}, IssuedOnly: true}

	once := Apply(ds, sel)
	twice := Apply(once, sel)
	if once.Len() != twice.Len() {
		t.Fatalf("not idempotent: %d vs %d rows", once.Len(), twice.Len())
	}
}

func TestApplyMissingColumnIsNoOp(t *testing.T) {
	// A dataset without the registry column must ignore the registry
	// facet entirely rather than filter everything out.
	ds := NewDataset()
	ds.Columns[FieldStatus] = true
	ds.Rows = []Record{row("Registered", "", "", "", -1)}

	got := Apply(ds, Selection{Registries: []string{"Verra"}})
	if got.Len() != 1 {
		t.Fatalf("absent facet column must be a no-op filter, got %d rows", got.Len())
	}
}

func TestDefaultSelection(t *testing.T) {
	sel := DefaultSelection([]string{"Registered", "Completed"})
	if !sel.IssuedOnly {
		t.Fatal("issued-only flag must default to enabled")
	}
	if len(sel.Statuses) != 2 {
		t.Fatalf("expected 2 default statuses, got %d", len(sel.Statuses))
	}
	if len(sel.Registries) != 0 || len(sel.Countries) != 0 || len(sel.Types) != 0 {
		t.Fatal("non-status facets must default to unrestricted")
	}
}
