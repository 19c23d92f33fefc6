package http

import (
	"encoding/csv"
	"net/http"

	"agcarbon/internal/core"
)

// exportFilename is the fixed download name for the filtered view.
const exportFilename = "agriculture_carbon_projects.csv"

// handleExport streams the current filtered view as CSV. The header row
// covers the canonical columns present in the dataset; missing cells
// are written empty, not zero.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ds, err := s.source.Dataset(r.Context())
	if err != nil {
		s.log.ErrorContext(r.Context(), "export unavailable", "error", err)
		http.Error(w, "dataset unavailable", http.StatusServiceUnavailable)
		return
	}

	sel := parseSelection(r, s.defaults)
	view := core.Apply(ds, sel)

	var fields []core.Field
	for _, f := range core.AllFields {
		if view.Has(f) {
			fields = append(fields, f)
		}
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)

	cw := csv.NewWriter(w)
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = string(f)
	}
	if err := cw.Write(header); err != nil {
		s.log.ErrorContext(r.Context(), "export write failed", "error", err)
		return
	}

	row := make([]string, len(fields))
	for _, rec := range view.Rows {
		for i, f := range fields {
			row[i] = ""
			if v, ok := rec.Str(f); ok {
				row[i] = v
			} else if v, ok := rec.Value(f); ok {
				row[i] = formatCell(v)
			}
		}
		if err := cw.Write(row); err != nil {
			s.log.ErrorContext(r.Context(), "export write failed", "error", err)
			return
		}
	}
	cw.Flush()
}
