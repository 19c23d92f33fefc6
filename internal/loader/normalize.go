package loader

import (
	"regexp"
	"strconv"
	"strings"

	"agcarbon/internal/core"
)

// renameTable maps cleaned source header labels (lowercased, markup
// stripped, whitespace collapsed) to canonical fields. Labels absent
// from the workbook are simply skipped; no placeholder columns are
// created. Several upstream spellings map to the same field because
// the file's headers drift between releases.
var renameTable = map[string]core.Field{
	"project id":                 core.FieldProjectID,
	"project name":               core.FieldProjectName,
	"voluntary registry":         core.FieldRegistry,
	"arb project":                core.FieldARBProject,
	"arb/wa project":             core.FieldARBProject,
	"voluntary status":           core.FieldStatus,
	"scope":                      core.FieldScope,
	"type":                       core.FieldType,
	"project type":               core.FieldType,
	"reduction / removal":        core.FieldReductionType,
	"reduction/removal":          core.FieldReductionType,
	"methodology / protocol":     core.FieldMethodology,
	"methodology/protocol":       core.FieldMethodology,
	"region":                     core.FieldRegion,
	"country":                    core.FieldCountry,
	"state":                      core.FieldState,
	"income level":               core.FieldIncomeLevel,
	"country income level":       core.FieldIncomeLevel,
	"total credits issued":       core.FieldCreditsIssued,
	"total credits retired":      core.FieldCreditsRetired,
	"total credits remaining":    core.FieldCreditsLeft,
	"total buffer pool deposits": core.FieldBufferDeposits,
}

var (
	breakTagRe   = regexp.MustCompile(`(?i)<br\s*/?>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// cleanHeader strips line-break markup that the source embeds in its
// header cells and collapses whitespace so the rename table can match
// on a stable form.
func cleanHeader(h string) string {
	h = breakTagRe.ReplaceAllString(h, " ")
	h = whitespaceRe.ReplaceAllString(h, " ")
	return strings.ToLower(strings.TrimSpace(h))
}

// numericFields marks the columns coerced to float64 during
// normalization.
var numericFields = map[core.Field]bool{
	core.FieldCreditsIssued:  true,
	core.FieldCreditsRetired: true,
	core.FieldCreditsLeft:    true,
	core.FieldBufferDeposits: true,
}

// coerceNumber parses a workbook cell as a number, tolerating thousands
// separators and surrounding space. The boolean is false when the cell
// is not a number; the caller records the value as missing, never as
// zero, so sums can treat missing as identity while statistics exclude
// it.
func coerceNumber(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" || s == "-" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Normalize converts raw sheet rows (header row first) into a dataset
// keyed by canonical fields. Pure and total: unknown columns are
// ignored, unparseable numeric cells become missing, and nothing here
// errors.
func Normalize(rows [][]string) core.Dataset {
	ds := core.NewDataset()
	if len(rows) == 0 {
		return ds
	}

	// Map column index -> canonical field from the header row.
	cols := make(map[int]core.Field)
	for i, h := range rows[0] {
		if f, ok := renameTable[cleanHeader(h)]; ok {
			cols[i] = f
			ds.Columns[f] = true
		}
	}

	for _, raw := range rows[1:] {
		rec := core.NewRecord()
		empty := true
		for i, f := range cols {
			if i >= len(raw) {
				continue
			}
			cell := strings.TrimSpace(raw[i])
			if cell == "" {
				continue
			}
			empty = false
			if numericFields[f] {
				if v, ok := coerceNumber(cell); ok {
					rec.Num[f] = v
				}
				continue
			}
			rec.Text[f] = cell
		}
		if empty {
			continue
		}
		ds.Rows = append(ds.Rows, rec)
	}
	return ds
}
