// Package loader downloads the offsets workbook, locates the
// agriculture sheet and normalizes it into a core.Dataset. The fetch
// happens at most once per process (see Store); everything downstream
// works from the cached, read-only dataset.
package loader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"agcarbon/internal/core"
	applog "agcarbon/internal/log"

	"github.com/xuri/excelize/v2"
)

// Kind classifies a hard load failure.
type Kind int

const (
	// KindTransport covers connection errors, timeouts and non-2xx
	// responses.
	KindTransport Kind = iota + 1
	// KindParse covers a body that is not a readable workbook.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindParse:
		return "parse"
	}
	return "unknown"
}

// LoadError is a terminal pipeline failure. Soft conditions (missing
// columns, unparseable cells) never surface here; they degrade locally
// during normalization.
type LoadError struct {
	Kind Kind
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load dataset: %s: %v", e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsTransport reports whether err is a transport-kind LoadError.
func IsTransport(err error) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Kind == KindTransport
}

// IsParse reports whether err is a parse-kind LoadError.
func IsParse(err error) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Kind == KindParse
}

// Options configures a Client.
type Options struct {
	// URL of the multi-sheet .xlsx workbook.
	URL string
	// SheetName is the exact target sheet name, tried first.
	SheetName string
	// SheetKeyword is matched case-insensitively as a substring when
	// the exact name is absent; the first matching sheet wins. The
	// upstream file's sheet naming is not contractually stable, hence
	// the fallback chain ending at the first sheet.
	SheetKeyword string
	// Timeout bounds the whole fetch. Zero means 30s.
	Timeout time.Duration

	HTTPClient *http.Client
	Logger     *applog.Logger
}

// Client performs one fetch-and-normalize pass. It holds no dataset
// state; caching lives in Store.
type Client struct {
	url          string
	sheetName    string
	sheetKeyword string
	httpc        *http.Client
	log          *applog.Logger
}

// New returns a Client for the given options.
func New(opts Options) *Client {
	httpc := opts.HTTPClient
	if httpc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpc = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentLoader)
	}
	return &Client{
		url:          opts.URL,
		sheetName:    opts.SheetName,
		sheetKeyword: opts.SheetKeyword,
		httpc:        httpc,
		log:          logger,
	}
}

// Load fetches the workbook, picks the target sheet and returns the
// normalized dataset. A single attempt: no retries, all-or-nothing.
func (c *Client) Load(ctx context.Context) (core.Dataset, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return core.Dataset{}, &LoadError{Kind: KindTransport, Err: err}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return core.Dataset{}, &LoadError{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return core.Dataset{}, &LoadError{
			Kind: KindTransport,
			Err:  fmt.Errorf("unexpected status %s from %s", resp.Status, c.url),
		}
	}

	f, err := excelize.OpenReader(resp.Body)
	if err != nil {
		return core.Dataset{}, &LoadError{Kind: KindParse, Err: err}
	}
	defer f.Close()

	sheet, err := c.pickSheet(f)
	if err != nil {
		return core.Dataset{}, &LoadError{Kind: KindParse, Err: err}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return core.Dataset{}, &LoadError{Kind: KindParse, Err: fmt.Errorf("read sheet %q: %w", sheet, err)}
	}

	ds := Normalize(rows)
	c.log.InfoContext(ctx, "dataset loaded",
		"url", c.url,
		"sheet", sheet,
		"rows", ds.Len(),
		"duration_ms", time.Since(start).Milliseconds())
	return ds, nil
}

// pickSheet resolves the sheet of interest: exact name match, then
// case-insensitive keyword substring, then the first sheet.
func (c *Client) pickSheet(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", errors.New("workbook contains no sheets")
	}

	for _, s := range sheets {
		if s == c.sheetName {
			return s, nil
		}
	}

	if kw := strings.ToLower(strings.TrimSpace(c.sheetKeyword)); kw != "" {
		for _, s := range sheets {
			if strings.Contains(strings.ToLower(s), kw) {
				c.log.Warn("target sheet not found, matched by keyword", "sheet", s, "keyword", c.sheetKeyword)
				return s, nil
			}
		}
	}

	c.log.Warn("target sheet not found, falling back to first sheet", "sheet", sheets[0])
	return sheets[0], nil
}
