package core

// StatusCredits pairs issued and retired totals for one status group,
// feeding the grouped bar chart.
type StatusCredits struct {
	Status  string
	Issued  float64
	Retired float64
}

// Bundle is everything the presentation surface renders for one cycle:
// the five scalar metrics, the chart series, the small tables and the
// filtered rows. It is a pure function of (Dataset, Selection) and owns
// nothing beyond the cycle that built it.
type Bundle struct {
	// Scalar metrics.
	TotalProjects  int
	TotalIssued    float64
	TotalRetired   float64
	TotalRemaining float64
	RetirementRate float64
	HasRetirement  bool

	// Chart series.
	CreditsByRegistry []GroupTotal    // top 10 by issued credits
	CountByType       []GroupCount
	CreditsByStatus   []StatusCredits // issued vs retired per status
	CreditsByCountry  []GroupTotal    // top 15 by issued credits

	// Tables.
	IssuedStats      Stats
	HasIssuedStats   bool
	TopMethodologies []GroupCount // top 10 by frequency
	TopProject       Record
	HasTopProject    bool

	// The filtered view backing the table and the CSV export.
	View Dataset
}

// BuildBundle applies sel to d and computes every aggregate the
// dashboard shows. Attributes absent from the dataset degrade to empty
// series or omitted cards; nothing here errors.
func BuildBundle(d Dataset, sel Selection) Bundle {
	view := Apply(d, sel)

	b := Bundle{
		TotalProjects:  view.Len(),
		TotalIssued:    SumOf(view, FieldCreditsIssued),
		TotalRetired:   SumOf(view, FieldCreditsRetired),
		TotalRemaining: SumOf(view, FieldCreditsLeft),
		View:           view,
	}
	b.RetirementRate, b.HasRetirement = RetirementRate(view)

	b.CreditsByRegistry = headTotals(GroupSum(view, FieldRegistry, FieldCreditsIssued), 10)
	b.CountByType = GroupCounts(view, FieldType)
	b.CreditsByCountry = headTotals(GroupSum(view, FieldCountry, FieldCreditsIssued), 15)
	b.CreditsByStatus = statusSeries(view)

	b.IssuedStats, b.HasIssuedStats = DescriptiveStats(view, FieldCreditsIssued)
	b.TopMethodologies = headCounts(GroupCounts(view, FieldMethodology), 10)
	b.TopProject, b.HasTopProject = MaxBy(view, FieldCreditsIssued)

	return b
}

// statusSeries joins issued and retired totals on status, ordered by
// issued descending (the GroupSum order of the issued series).
func statusSeries(view Dataset) []StatusCredits {
	issued := GroupSum(view, FieldStatus, FieldCreditsIssued)
	if issued == nil {
		return nil
	}
	retired := make(map[string]float64)
	for _, g := range GroupSum(view, FieldStatus, FieldCreditsRetired) {
		retired[g.Key] = g.Total
	}
	out := make([]StatusCredits, len(issued))
	for i, g := range issued {
		out[i] = StatusCredits{Status: g.Key, Issued: g.Total, Retired: retired[g.Key]}
	}
	return out
}

func headTotals(in []GroupTotal, n int) []GroupTotal {
	if len(in) > n {
		return in[:n]
	}
	return in
}

func headCounts(in []GroupCount, n int) []GroupCount {
	if len(in) > n {
		return in[:n]
	}
	return in
}
