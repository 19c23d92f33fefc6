package core

// Field identifies one canonical attribute of a project record. The
// upstream workbook does not guarantee column presence, so every
// attribute is optional: readers get (value, ok) access and must treat
// an absent attribute as "feature unavailable", not as an error.
type Field string

const (
	FieldProjectID       Field = "project_id"
	FieldProjectName     Field = "project_name"
	FieldRegistry        Field = "voluntary_registry"
	FieldARBProject      Field = "arb_project"
	FieldStatus          Field = "voluntary_status"
	FieldScope           Field = "scope"
	FieldType            Field = "type"
	FieldReductionType   Field = "reduction_or_removal"
	FieldMethodology     Field = "methodology_protocol"
	FieldRegion          Field = "region"
	FieldCountry         Field = "country"
	FieldState           Field = "state"
	FieldIncomeLevel     Field = "income_level"
	FieldCreditsIssued   Field = "total_credits_issued"
	FieldCreditsRetired  Field = "total_credits_retired"
	FieldCreditsLeft     Field = "total_credits_remaining"
	FieldBufferDeposits  Field = "total_buffer_pool_deposits"
)

// TextFields lists the textual attributes in display order.
var TextFields = []Field{
	FieldProjectID,
	FieldProjectName,
	FieldRegistry,
	FieldARBProject,
	FieldStatus,
	FieldScope,
	FieldType,
	FieldReductionType,
	FieldMethodology,
	FieldRegion,
	FieldCountry,
	FieldState,
	FieldIncomeLevel,
}

// NumericFields lists the credit-quantity attributes in display order.
var NumericFields = []Field{
	FieldCreditsIssued,
	FieldCreditsRetired,
	FieldCreditsLeft,
	FieldBufferDeposits,
}

// AllFields is TextFields followed by NumericFields.
var AllFields = append(append([]Field(nil), TextFields...), NumericFields...)

// Record is one row of the dataset. Text and numeric values live in
// separate maps; a key that is absent means the source cell was absent
// or, for numeric fields, could not be coerced to a number.
type Record struct {
	Text map[Field]string
	Num  map[Field]float64
}

// NewRecord returns a Record with both value maps allocated.
func NewRecord() Record {
	return Record{
		Text: make(map[Field]string),
		Num:  make(map[Field]float64),
	}
}

// Str returns the textual value of f and whether it is present.
func (r Record) Str(f Field) (string, bool) {
	v, ok := r.Text[f]
	return v, ok
}

// Value returns the numeric value of f and whether it is present.
// Missing is distinct from zero: a cell that failed numeric coercion
// never appears here.
func (r Record) Value(f Field) (float64, bool) {
	v, ok := r.Num[f]
	return v, ok
}

// Dataset is an ordered sequence of records plus the set of canonical
// columns that survived normalization. Row order is preserved by every
// downstream operation.
type Dataset struct {
	Columns map[Field]bool
	Rows    []Record
}

// NewDataset returns an empty dataset.
func NewDataset() Dataset {
	return Dataset{Columns: make(map[Field]bool)}
}

// Has reports whether the named column was present in the source.
func (d Dataset) Has(f Field) bool {
	return d.Columns[f]
}

// Len returns the row count.
func (d Dataset) Len() int {
	return len(d.Rows)
}

// DistinctValues returns the distinct textual values of f in first-seen
// row order. Used to populate the facet controls.
func (d Dataset) DistinctValues(f Field) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range d.Rows {
		v, ok := r.Str(f)
		if !ok || v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
