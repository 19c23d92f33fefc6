package core

import "sort"

// GroupTotal is one group's summed value of a numeric attribute.
type GroupTotal struct {
	Key   string
	Total float64
}

// GroupCount is one group's row frequency.
type GroupCount struct {
	Key   string
	Count int
}

// Stats holds descriptive statistics over the present values of a
// numeric attribute.
type Stats struct {
	Mean   float64
	Median float64
	Min    float64
	Max    float64
}

// SumOf sums the present values of f. Missing values act as the
// additive identity, so an empty dataset, an absent column, or an
// all-missing column all sum to 0. Never errors.
func SumOf(d Dataset, f Field) float64 {
	var sum float64
	for _, r := range d.Rows {
		if v, ok := r.Value(f); ok {
			sum += v
		}
	}
	return sum
}

// RetirementRate returns 100 * sum(retired) / sum(issued). The second
// return is false when sum(issued) is 0, in which case the rate is
// undefined and must not be rendered.
func RetirementRate(d Dataset) (float64, bool) {
	issued := SumOf(d, FieldCreditsIssued)
	if issued <= 0 {
		return 0, false
	}
	return 100 * SumOf(d, FieldCreditsRetired) / issued, true
}

// GroupSum sums value per distinct textual value of by, sorted
// descending by total with first-seen group order on ties. Groups whose
// rows all miss the value attribute are retained at 0. Rows missing the
// grouping attribute are skipped. An absent grouping column yields nil.
func GroupSum(d Dataset, by, value Field) []GroupTotal {
	if !d.Has(by) {
		return nil
	}
	idx := make(map[string]int)
	var out []GroupTotal
	for _, r := range d.Rows {
		key, ok := r.Str(by)
		if !ok || key == "" {
			continue
		}
		i, seen := idx[key]
		if !seen {
			i = len(out)
			idx[key] = i
			out = append(out, GroupTotal{Key: key})
		}
		if v, ok := r.Value(value); ok {
			out[i].Total += v
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

// GroupCounts counts rows per distinct textual value of by, sorted
// descending by count with first-seen group order on ties.
func GroupCounts(d Dataset, by Field) []GroupCount {
	if !d.Has(by) {
		return nil
	}
	idx := make(map[string]int)
	var out []GroupCount
	for _, r := range d.Rows {
		key, ok := r.Str(by)
		if !ok || key == "" {
			continue
		}
		i, seen := idx[key]
		if !seen {
			i = len(out)
			idx[key] = i
			out = append(out, GroupCount{Key: key})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// TopBy returns the n rows with the greatest value of f, stable-sorted
// so ties keep original row order. Rows missing f sort below all
// present values. Fewer than n rows returns them all.
func TopBy(d Dataset, f Field, n int) []Record {
	rows := append([]Record(nil), d.Rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		vi, oki := rows[i].Value(f)
		vj, okj := rows[j].Value(f)
		if oki != okj {
			return oki
		}
		return vi > vj
	})
	if n > len(rows) {
		n = len(rows)
	}
	return rows[:n]
}

// DescriptiveStats computes mean, median, min and max over the present
// values of f. ok is false when no values are present; callers must
// omit the statistics rather than render them.
func DescriptiveStats(d Dataset, f Field) (Stats, bool) {
	var vals []float64
	for _, r := range d.Rows {
		if v, ok := r.Value(f); ok {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return Stats{}, false
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range vals {
		sum += v
	}
	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	return Stats{
		Mean:   sum / float64(len(vals)),
		Median: median,
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}, true
}

// MaxBy returns the record holding the maximum present value of f. ok
// is false when the dataset is empty or the attribute is entirely
// missing. The first occurrence in row order wins ties.
func MaxBy(d Dataset, f Field) (Record, bool) {
	var (
		best  Record
		bestV float64
		found bool
	)
	for _, r := range d.Rows {
		v, ok := r.Value(f)
		if !ok {
			continue
		}
		if !found || v > bestV {
			best, bestV, found = r, v, true
		}
	}
	return best, found
}
