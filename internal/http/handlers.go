package http

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"agcarbon/internal/core"
	"agcarbon/internal/loader"
)

// tableColumns are the selectable columns shown on the dashboard table.
// Columns absent from the dataset are omitted rather than rendered
// empty.
var tableColumns = []core.Field{
	core.FieldProjectID,
	core.FieldProjectName,
	core.FieldRegistry,
	core.FieldStatus,
	core.FieldCountry,
	core.FieldType,
	core.FieldCreditsIssued,
	core.FieldCreditsRetired,
	core.FieldCreditsLeft,
}

// columnTitles maps canonical fields to display headers.
var columnTitles = map[core.Field]string{
	core.FieldProjectID:      "Project ID",
	core.FieldProjectName:    "Project Name",
	core.FieldRegistry:       "Registry",
	core.FieldARBProject:     "ARB Project",
	core.FieldStatus:         "Status",
	core.FieldScope:          "Scope",
	core.FieldType:           "Type",
	core.FieldReductionType:  "Reduction / Removal",
	core.FieldMethodology:    "Methodology",
	core.FieldRegion:         "Region",
	core.FieldCountry:        "Country",
	core.FieldState:          "State",
	core.FieldIncomeLevel:    "Income Level",
	core.FieldCreditsIssued:  "Credits Issued",
	core.FieldCreditsRetired: "Credits Retired",
	core.FieldCreditsLeft:    "Credits Remaining",
	core.FieldBufferDeposits: "Buffer Pool Deposits",
}

const maxTableRows = 50

type facetOption struct {
	Value    string
	Selected bool
}

type statRow struct {
	Label string
	Value string
}

type groupRow struct {
	Key   string
	Value string
}

type dashboardView struct {
	TotalProjects  int
	TotalIssued    string
	TotalRetired   string
	TotalRemaining string
	RetirementRate string
	HasRetirement  bool

	StatusOptions   []facetOption
	RegistryOptions []facetOption
	CountryOptions  []facetOption
	TypeOptions     []facetOption
	IssuedOnly      bool

	Query string // encoded selection, appended to chart/export URLs

	HasRegistryChart bool
	HasTypeChart     bool
	HasStatusChart   bool
	HasCountryChart  bool

	IssuedStats   []statRow
	Methodologies []groupRow

	TopProjectName   string
	TopProjectDetail string
	HasTopProject    bool

	TableHeaders []string
	TableRows    [][]string
	RowsShown    int
	RowsTotal    int
}

type errorView struct {
	Title   string
	Message string
}

// handleDashboard renders the report page: sidebar filters, metric
// cards, charts and tables, all recomputed from the cached dataset and
// the request's selection.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	ds, err := s.source.Dataset(r.Context())
	if err != nil {
		s.renderLoadFailure(w, r, err)
		return
	}

	sel := parseSelection(r, s.defaults)
	bundle := core.BuildBundle(ds, sel)
	view := s.buildDashboardView(ds, sel, bundle)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "dashboard_page", view); err != nil {
		s.log.ErrorContext(r.Context(), "dashboard template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// renderLoadFailure shows the single top-level failure banner. Nothing
// derived from the absent dataset is rendered.
func (s *Server) renderLoadFailure(w http.ResponseWriter, r *http.Request, err error) {
	s.log.ErrorContext(r.Context(), "dataset unavailable", "error", err)

	view := errorView{Title: "Dataset unavailable", Message: err.Error()}
	switch {
	case loader.IsTransport(err):
		view.Message = "The offsets workbook could not be downloaded. Check connectivity and try again."
	case loader.IsParse(err):
		view.Message = "The downloaded file is not a readable workbook."
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	if terr := s.templates.ExecuteTemplate(w, "error_page", view); terr != nil {
		http.Error(w, view.Message, http.StatusServiceUnavailable)
	}
}

func (s *Server) buildDashboardView(ds core.Dataset, sel core.Selection, b core.Bundle) dashboardView {
	view := dashboardView{
		TotalProjects:  b.TotalProjects,
		TotalIssued:    formatAmount(b.TotalIssued),
		TotalRetired:   formatAmount(b.TotalRetired),
		TotalRemaining: formatAmount(b.TotalRemaining),
		HasRetirement:  b.HasRetirement,
		IssuedOnly:     sel.IssuedOnly,
		Query:          encodeSelection(sel).Encode(),

		HasRegistryChart: len(b.CreditsByRegistry) > 0,
		HasTypeChart:     len(b.CountByType) > 0,
		HasStatusChart:   len(b.CreditsByStatus) > 0,
		HasCountryChart:  len(b.CreditsByCountry) > 0,

		RowsTotal: b.View.Len(),
	}
	if b.HasRetirement {
		view.RetirementRate = formatPercent(b.RetirementRate)
	}

	// Facet options come from the full dataset so narrowing one facet
	// never hides the others' choices.
	view.StatusOptions = options(ds, core.FieldStatus, sel.Statuses)
	view.RegistryOptions = options(ds, core.FieldRegistry, sel.Registries)
	view.CountryOptions = options(ds, core.FieldCountry, sel.Countries)
	view.TypeOptions = options(ds, core.FieldType, sel.Types)

	if b.HasIssuedStats {
		view.IssuedStats = []statRow{
			{Label: "Mean", Value: formatAmount(b.IssuedStats.Mean)},
			{Label: "Median", Value: formatAmount(b.IssuedStats.Median)},
			{Label: "Max", Value: formatAmount(b.IssuedStats.Max)},
			{Label: "Min", Value: formatAmount(b.IssuedStats.Min)},
		}
	}
	for _, m := range b.TopMethodologies {
		view.Methodologies = append(view.Methodologies, groupRow{Key: m.Key, Value: formatCell(float64(m.Count))})
	}

	if b.HasTopProject {
		view.HasTopProject = true
		view.TopProjectName, _ = b.TopProject.Str(core.FieldProjectName)
		if view.TopProjectName == "" {
			view.TopProjectName, _ = b.TopProject.Str(core.FieldProjectID)
		}
		if issued, ok := b.TopProject.Value(core.FieldCreditsIssued); ok {
			detail := formatAmount(issued) + " credits issued"
			if country, ok := b.TopProject.Str(core.FieldCountry); ok {
				detail += ", " + country
			}
			view.TopProjectDetail = detail
		}
	}

	view.TableHeaders, view.TableRows = tableData(b.View, maxTableRows)
	view.RowsShown = len(view.TableRows)
	return view
}

// options lists a facet's choices from the full dataset, alphabetical,
// with the current selection marked.
func options(ds core.Dataset, f core.Field, selected []string) []facetOption {
	values := ds.DistinctValues(f)
	sort.Strings(values)

	chosen := make(map[string]bool, len(selected))
	for _, v := range selected {
		chosen[v] = true
	}

	out := make([]facetOption, 0, len(values))
	for _, v := range values {
		out = append(out, facetOption{Value: v, Selected: chosen[v]})
	}
	return out
}

// tableData projects the filtered view onto the present table columns.
func tableData(view core.Dataset, limit int) ([]string, [][]string) {
	var fields []core.Field
	var headers []string
	for _, f := range tableColumns {
		if view.Has(f) {
			fields = append(fields, f)
			headers = append(headers, columnTitles[f])
		}
	}

	n := view.Len()
	if n > limit {
		n = limit
	}
	rows := make([][]string, 0, n)
	for _, rec := range view.Rows[:n] {
		cells := make([]string, len(fields))
		for i, f := range fields {
			if v, ok := rec.Str(f); ok {
				cells[i] = v
			} else if v, ok := rec.Value(f); ok {
				cells[i] = formatCell(v)
			}
		}
		rows = append(rows, cells)
	}
	return headers, rows
}

// handleHealth performs a basic liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleReady reports readiness. The dataset loads lazily on the first
// dashboard request, so "pending" is still ready; only missing
// templates make the service unready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	datasetState := "pending"
	if st, ok := s.source.(*loader.Store); ok && st.Loaded() {
		datasetState = "loaded"
	}
	checks["dataset"] = datasetState
	checks["chart_cache_entries"] = s.chartCache.Size()

	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}
