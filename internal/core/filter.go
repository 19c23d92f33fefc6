package core

// AllValues is the sentinel facet value meaning "no restriction". A
// facet whose accepted set is empty, or contains this sentinel anywhere
// (even alongside concrete values), contributes no filter. This matches
// the source controls, where picking "All" disables the facet outright.
const AllValues = "All"

// Selection is the user-driven filter state for one render cycle. It is
// created fresh from the request and fully replaces any previous
// selection; there are no merge semantics and no persistence.
type Selection struct {
	Statuses   []string
	Registries []string
	Countries  []string
	Types      []string

	// IssuedOnly restricts to rows whose issued-credits value is
	// present and strictly positive. Rows with a missing issued value
	// are excluded while the flag is set.
	IssuedOnly bool
}

// DefaultSelection returns the initial dashboard selection: the given
// statuses, every other facet unrestricted, issued-only enabled.
func DefaultSelection(statuses []string) Selection {
	return Selection{
		Statuses:   append([]string(nil), statuses...),
		IssuedOnly: true,
	}
}

// unrestricted reports whether the accepted set disables its facet.
func unrestricted(accepted []string) bool {
	if len(accepted) == 0 {
		return true
	}
	for _, v := range accepted {
		if v == AllValues {
			return true
		}
	}
	return false
}

// facetFilter keeps rows whose value of f is in the accepted set. A
// dataset without the column, or an unrestricted set, passes every row
// through untouched.
func facetFilter(d Dataset, f Field, accepted []string) Dataset {
	if unrestricted(accepted) || !d.Has(f) {
		return d
	}
	allow := make(map[string]struct{}, len(accepted))
	for _, v := range accepted {
		allow[v] = struct{}{}
	}
	out := Dataset{Columns: d.Columns}
	for _, r := range d.Rows {
		v, ok := r.Str(f)
		if !ok {
			continue
		}
		if _, keep := allow[v]; keep {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Apply runs the facet filters in a stable order (status, registry,
// country, type, then the issued-credits flag) and returns the
// intersection. The order is documented for debugging only; AND
// composition makes it immaterial to the result. Relative row order of
// the input is preserved and the input is never mutated.
func Apply(d Dataset, sel Selection) Dataset {
	out := facetFilter(d, FieldStatus, sel.Statuses)
	out = facetFilter(out, FieldRegistry, sel.Registries)
	out = facetFilter(out, FieldCountry, sel.Countries)
	out = facetFilter(out, FieldType, sel.Types)

	if sel.IssuedOnly && out.Has(FieldCreditsIssued) {
		filtered := Dataset{Columns: out.Columns}
		for _, r := range out.Rows {
			v, ok := r.Value(FieldCreditsIssued)
			if ok && v > 0 {
				filtered.Rows = append(filtered.Rows, r)
			}
		}
		out = filtered
	}
	return out
}
