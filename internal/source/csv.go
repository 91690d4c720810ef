// Package source loads the compliance table the analysis filters.
//
// The table is CSV with a header row, either on disk or behind an HTTP(S)
// URL such as a published spreadsheet export. Required columns are checked
// up front; optional columns fall back to defaults.
package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"github.com/dshills/compliscope/internal/schema"
)

// Canonical column names.
const (
	ColName        = "Compliance Name"
	ColDomain      = "Domain"
	ColAppliesTo   = "Applies To"
	ColFollowed    = "Followed By Compunnel"
	ColChecklist1  = "Checklist 1"
	ColChecklist2  = "Checklist 2"
	ColChecklist3  = "Checklist 3"
	ColPriority    = "Priority"
	ColAlert       = "Trigger Alert"
	ColWhyRequired = "Why Required"
	ColDateAdded   = "Date Added"
)

// RequiredColumns must be present in every table.
var RequiredColumns = []string{ColName, ColDomain, ColAppliesTo, ColFollowed}

// aliases maps lower-cased header spellings to canonical column names.
var aliases = map[string]string{
	"compliance name":       ColName,
	"compliance":            ColName,
	"framework":             ColName,
	"domain":                ColDomain,
	"applies to":            ColAppliesTo,
	"applicability":         ColAppliesTo,
	"followed by compunnel": ColFollowed,
	"followed":              ColFollowed,
	"followed by org":       ColFollowed,
	"checklist 1":           ColChecklist1,
	"checklist item 1":      ColChecklist1,
	"checklist 2":           ColChecklist2,
	"checklist item 2":      ColChecklist2,
	"checklist 3":           ColChecklist3,
	"checklist item 3":      ColChecklist3,
	"priority":              ColPriority,
	"trigger alert":         ColAlert,
	"alert":                 ColAlert,
	"why required":          ColWhyRequired,
	"date added":            ColDateAdded,
}

// Source provides the compliance records for an analysis.
type Source interface {
	Records(ctx context.Context) ([]schema.Record, error)
	Location() string
}

// MissingColumnsError reports required columns absent from the header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("compliance table is missing required column(s): %s", strings.Join(e.Columns, ", "))
}

// row is the gocsv mapping of one table line.
type row struct {
	Name        string `csv:"Compliance Name"`
	Domain      string `csv:"Domain"`
	AppliesTo   string `csv:"Applies To"`
	Followed    string `csv:"Followed By Compunnel"`
	Checklist1  string `csv:"Checklist 1"`
	Checklist2  string `csv:"Checklist 2"`
	Checklist3  string `csv:"Checklist 3"`
	Priority    string `csv:"Priority"`
	Alert       string `csv:"Trigger Alert"`
	WhyRequired string `csv:"Why Required"`
	DateAdded   string `csv:"Date Added"`
}

// CSV reads the compliance table from a file path or an http(s) URL.
type CSV struct {
	location string
	client   *http.Client
	logger   *zap.Logger
}

// Option configures a CSV source.
type Option func(*CSV)

// WithHTTPClient sets the client used for URL locations.
func WithHTTPClient(c *http.Client) Option {
	return func(s *CSV) { s.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *CSV) { s.logger = l }
}

// NewCSV returns a source for location.
func NewCSV(location string, opts ...Option) *CSV {
	s := &CSV{
		location: location,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Location returns the configured path or URL.
func (s *CSV) Location() string { return s.location }

// Records fetches and parses the table.
func (s *CSV) Records(ctx context.Context) ([]schema.Record, error) {
	if s.location == "" {
		return nil, errors.New("no compliance table configured")
	}
	data, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	records, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.location, err)
	}
	s.logger.Debug("compliance table loaded",
		zap.String("location", s.location),
		zap.Int("records", len(records)),
	)
	return records, nil
}

func (s *CSV) fetch(ctx context.Context) ([]byte, error) {
	if !isURL(s.location) {
		data, err := os.ReadFile(s.location)
		if err != nil {
			return nil, fmt.Errorf("reading compliance table: %w", err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.location, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching compliance table: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching compliance table: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading compliance table response: %w", err)
	}
	return data, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Parse decodes a compliance table. Header spellings are normalized through
// the alias table before decoding.
func Parse(r io.Reader) ([]schema.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	lines, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(lines) == 0 {
		return nil, &MissingColumnsError{Columns: RequiredColumns}
	}

	lines[0] = canonicalHeader(lines[0])
	if missing := missingColumns(lines[0]); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	var rows []row
	if err := gocsv.UnmarshalCSV(&lineReader{lines: lines}, &rows); err != nil {
		return nil, fmt.Errorf("decoding CSV: %w", err)
	}

	records := make([]schema.Record, 0, len(rows))
	for _, rw := range rows {
		if clean(rw.Name) == "" {
			continue
		}
		records = append(records, rw.record())
	}
	return records, nil
}

func (rw row) record() schema.Record {
	return schema.Record{
		Name:        clean(rw.Name),
		Domain:      strings.ToLower(clean(rw.Domain)),
		AppliesTo:   splitLabels(rw.AppliesTo),
		Checklist:   checklist(rw.Checklist1, rw.Checklist2, rw.Checklist3),
		Followed:    strings.EqualFold(clean(rw.Followed), "yes"),
		Priority:    schema.ParsePriority(clean(rw.Priority)),
		WhyRequired: clean(rw.WhyRequired),
		Alert:       truthy(rw.Alert),
		DateAdded:   clean(rw.DateAdded),
	}
}

// clean trims a cell and treats spreadsheet NaN markers as empty.
func clean(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "nan", "none", "null", "n/a":
		return ""
	}
	return s
}

func splitLabels(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(clean(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// checklist keeps non-empty items. Cells reading Yes/No are status values
// that leaked into checklist columns and are dropped.
func checklist(items ...string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = clean(it)
		if it == "" || strings.EqualFold(it, "yes") || strings.EqualFold(it, "no") {
			continue
		}
		out = append(out, it)
	}
	return out
}

func truthy(s string) bool {
	switch strings.ToLower(clean(s)) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

func canonicalHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if c, ok := aliases[strings.ToLower(h)]; ok {
			h = c
		}
		out[i] = h
	}
	return out
}

func missingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, c := range RequiredColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// lineReader feeds already-read CSV lines to gocsv.
type lineReader struct {
	lines [][]string
	pos   int
}

func (l *lineReader) Read() ([]string, error) {
	if l.pos >= len(l.lines) {
		return nil, io.EOF
	}
	line := l.lines[l.pos]
	l.pos++
	return line, nil
}

func (l *lineReader) ReadAll() ([][]string, error) {
	rest := l.lines[l.pos:]
	l.pos = len(l.lines)
	return rest, nil
}
