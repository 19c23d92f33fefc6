package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"agcarbon/internal/core"
)

// formMarker is the query parameter proving the filter form was
// submitted. Without it the request gets the configured default
// selection; with it, absent facet parameters mean "unrestricted".
const formMarker = "f"

// parseSelection builds the cycle's filter selection from the query.
// The selection fully replaces any previous one; nothing is merged.
func parseSelection(r *http.Request, defaults core.Selection) core.Selection {
	q := r.URL.Query()
	if q.Get(formMarker) == "" {
		return defaults
	}
	return core.Selection{
		Statuses:   facetValues(q, "status"),
		Registries: facetValues(q, "registry"),
		Countries:  facetValues(q, "country"),
		Types:      facetValues(q, "type"),
		IssuedOnly: q.Get("issued") != "",
	}
}

func facetValues(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// encodeSelection is the inverse of parseSelection, used to carry the
// current selection into chart and export URLs.
func encodeSelection(sel core.Selection) url.Values {
	q := url.Values{}
	q.Set(formMarker, "1")
	for _, v := range sel.Statuses {
		q.Add("status", v)
	}
	for _, v := range sel.Registries {
		q.Add("registry", v)
	}
	for _, v := range sel.Countries {
		q.Add("country", v)
	}
	for _, v := range sel.Types {
		q.Add("type", v)
	}
	if sel.IssuedOnly {
		q.Set("issued", "1")
	}
	return q
}

// selectionKey is a stable cache key for a selection. url.Values.Encode
// sorts by key, so equal selections produce equal keys.
func selectionKey(sel core.Selection) string {
	return encodeSelection(sel).Encode()
}

// formatAmount renders a credit quantity for a metric card.
func formatAmount(v float64) string {
	switch {
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// formatCell renders a numeric cell for tables and the CSV export.
func formatCell(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatPercent renders the retirement-rate card.
func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

var templateFuncs = template.FuncMap{
	"amount": formatAmount,
	"pct":    formatPercent,
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
