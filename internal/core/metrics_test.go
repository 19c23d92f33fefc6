package core

import (
	"math"
	"testing"
)

func numRow(fields map[Field]float64, text map[Field]string) Record {
	r := NewRecord()
	for f, v := range fields {
		r.Num[f] = v
	}
	for f, v := range text {
		r.Text[f] = v
	}
	return r
}

func TestSumOf(t *testing.T) {
	empty := NewDataset()
	if got := SumOf(empty, FieldCreditsIssued); got != 0 {
		t.Fatalf("sum over empty dataset: expected 0, got %v", got)
	}

	allMissing := NewDataset()
	allMissing.Columns[FieldCreditsIssued] = true
	allMissing.Rows = []Record{NewRecord(), NewRecord()}
	if got := SumOf(allMissing, FieldCreditsIssued); got != 0 {
		t.Fatalf("sum over all-missing column: expected 0, got %v", got)
	}

	ds := NewDataset()
	ds.Columns[FieldCreditsIssued] = true
	ds.Rows = []Record{
		numRow(map[Field]float64{FieldCreditsIssued: 100}, nil),
		numRow(map[Field]float64{FieldCreditsIssued: 0}, nil),
		NewRecord(), // missing, not zero
	}
	if got := SumOf(ds, FieldCreditsIssued); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
}

func TestRetirementRate(t *testing.T) {
	// Scenario: issued [100, 0, missing], retired [50, 0, 0] gives
	// sum(issued)=100 and a 50% rate.
	ds := NewDataset()
	ds.Columns[FieldCreditsIssued] = true
	ds.Columns[FieldCreditsRetired] = true
	ds.Rows = []Record{
		numRow(map[Field]float64{FieldCreditsIssued: 100, FieldCreditsRetired: 50}, nil),
		numRow(map[Field]float64{FieldCreditsIssued: 0, FieldCreditsRetired: 0}, nil),
		numRow(map[Field]float64{FieldCreditsRetired: 0}, nil),
	}

	rate, ok := RetirementRate(ds)
	if !ok {
		t.Fatal("rate should be defined")
	}
	if math.Abs(rate-50.0) > 1e-9 {
		t.Fatalf("expected 50.0, got %v", rate)
	}

	// Zero issuance leaves the rate undefined, never a division error.
	zero := NewDataset()
	zero.Columns[FieldCreditsIssued] = true
	zero.Rows = []Record{numRow(map[Field]float64{FieldCreditsIssued: 0}, nil)}
	if _, ok := RetirementRate(zero); ok {
		t.Fatal("rate must be undefined when sum(issued) == 0")
	}

	if _, ok := RetirementRate(NewDataset()); ok {
		t.Fatal("rate must be undefined for an empty view")
	}
}

func TestGroupSum(t *testing.T) {
	ds := NewDataset()
	ds.Columns[FieldRegistry] = true
	ds.Columns[FieldCreditsIssued] = true
	ds.Rows = []Record{
		numRow(map[Field]float64{FieldCreditsIssued: 10}, map[Field]string{FieldRegistry: "Verra"}),
		numRow(nil, map[Field]string{FieldRegistry: "CAR"}), // all-missing group
		numRow(map[Field]float64{FieldCreditsIssued: 40}, map[Field]string{FieldRegistry: "Gold Standard"}),
		numRow(map[Field]float64{FieldCreditsIssued: 20}, map[Field]string{FieldRegistry: "Verra"}),
	}

	got := GroupSum(ds, FieldRegistry, FieldCreditsIssued)
	want := []GroupTotal{
		{Key: "Gold Standard", Total: 40},
		{Key: "Verra", Total: 30},
		{Key: "CAR", Total: 0},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d groups, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("group %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}

	if GroupSum(ds, FieldCountry, FieldCreditsIssued) != nil {
		t.Fatal("absent grouping column must yield nil")
	}
}

func TestGroupSumTiesKeepFirstSeenOrder(t *testing.T) {
	ds := NewDataset()
	ds.Columns[FieldRegistry] = true
	ds.Columns[FieldCreditsIssued] = true
	ds.Rows = []Record{
		numRow(map[Field]float64{FieldCreditsIssued: 5}, map[Field]string{FieldRegistry: "B"}),
		numRow(map[Field]float64{FieldCreditsIssued: 5}, map[Field]string{FieldRegistry: "A"}),
	}
	got := GroupSum(ds, FieldRegistry, FieldCreditsIssued)
	if got[0].Key != "B" || got[1].Key != "A" {
		t.Fatalf("tied groups must keep first-seen order, got %+v", got)
	}
}

func TestGroupCounts(t *testing.T) {
	ds := NewDataset()
	ds.Columns[FieldType] = true
	ds.Rows = []Record{
		numRow(nil, map[Field]string{FieldType: "Soil"}),
		numRow(nil, map[Field]string{FieldType: "Livestock"}),
		numRow(nil, map[Field]string{FieldType: "Soil"}),
		NewRecord(), // missing type skipped
	}
	got := GroupCounts(ds, FieldType)
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(got))
	}
	if got[0].Key != "Soil" || got[0].Count != 2 {
		t.Fatalf("expected Soil=2 first, got %+v", got[0])
	}
	if got[1].Key != "Livestock" || got[1].Count != 1 {
		t.Fatalf("expected Livestock=1 second, got %+v", got[1])
	}
}

func TestTopBy(t *testing.T) {
	ds := NewDataset()
	ds.Columns[FieldCreditsIssued] = true
	ds.Columns[FieldProjectID] = true
	ds.Rows = []Record{
		numRow(map[Field]float64{FieldCreditsIssued: 10}, map[Field]string{FieldProjectID: "p1"}),
		numRow(map[Field]float64{FieldCreditsIssued: 30}, map[Field]string{FieldProjectID: "p2"}),
		numRow(map[Field]float64{FieldCreditsIssued: 30}, map[Field]string{FieldProjectID: "p3"}),
		numRow(nil, map[Field]string{FieldProjectID: "p4"}),
	}

	top := TopBy(ds, FieldCreditsIssued, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(top))
	}
	// Tie between p2 and p3 broken by original row order.
	if id, _ := top[0].Str(FieldProjectID); id != "p2" {
		t.Fatalf("expected p2 first, got %s", id)
	}
	if id, _ := top[1].Str(FieldProjectID); id != "p3" {
		t.Fatalf("expected p3 second, got %s", id)
	}

	// Fewer rows than n returns them all.
	all := TopBy(ds, FieldCreditsIssued, 10)
	if len(all) != ds.Len() {
		t.Fatalf("expected all %d rows, got %d", ds.Len(), len(all))
	}
}

func TestDescriptiveStats(t *testing.T) {
	ds := NewDataset()
	ds.Columns[FieldCreditsIssued] = true
	ds.Rows = []Record{
		numRow(map[Field]float64{FieldCreditsIssued: 10}, nil),
		numRow(map[Field]float64{FieldCreditsIssued: 20}, nil),
		numRow(map[Field]float64{FieldCreditsIssued: 90}, nil),
		NewRecord(),
	}

	st, ok := DescriptiveStats(ds, FieldCreditsIssued)
	if !ok {
		t.Fatal("stats should be defined")
	}
	if st.Mean != 40 || st.Median != 20 || st.Min != 10 || st.Max != 90 {
		t.Fatalf("unexpected stats: %+v", st)
	}

	// Even count takes the midpoint median.
	ds.Rows = ds.Rows[:2]
	st, _ = DescriptiveStats(ds, FieldCreditsIssued)
	if st.Median != 15 {
		t.Fatalf("expected median 15, got %v", st.Median)
	}

	if _, ok := DescriptiveStats(NewDataset(), FieldCreditsIssued); ok {
		t.Fatal("stats must be undefined with no present values")
	}
}

func TestMaxBy(t *testing.T) {
	ds := NewDataset()
	ds.Columns[FieldCreditsIssued] = true
	ds.Columns[FieldProjectID] = true
	ds.Rows = []Record{
		numRow(map[Field]float64{FieldCreditsIssued: 50}, map[Field]string{FieldProjectID: "first"}),
		numRow(map[Field]float64{FieldCreditsIssued: 50}, map[Field]string{FieldProjectID: "second"}),
		numRow(map[Field]float64{FieldCreditsIssued: 10}, map[Field]string{FieldProjectID: "third"}),
	}

	rec, ok := MaxBy(ds, FieldCreditsIssued)
	if !ok {
		t.Fatal("expected a max record")
	}
	if id, _ := rec.Str(FieldProjectID); id != "first" {
		t.Fatalf("ties must keep the first occurrence, got %s", id)
	}

	if _, ok := MaxBy(NewDataset(), FieldCreditsIssued); ok {
		t.Fatal("empty view has no max record")
	}
}
