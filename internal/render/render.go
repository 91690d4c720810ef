package render

import (
	"errors"
	"fmt"
	"time"

	"github.com/dshills/compliscope/internal/schema"
)

// ErrUnknownFormat is returned by NewRenderer for unsupported formats.
var ErrUnknownFormat = errors.New("unknown format")

// Formats lists the supported output formats.
var Formats = []string{"json", "md", "csv", "pdf", "text"}

// Default deadlines for pending frameworks in the action plan.
const (
	DefaultHighDays     = 30
	DefaultStandardDays = 90
)

// Renderer formats a Result into bytes for output.
type Renderer interface {
	Render(result *schema.Result) ([]byte, error)
}

// Options tunes the renderers. Zero values fall back to defaults.
type Options struct {
	Owner        string // action-plan owner; empty leaves the column blank
	HighDays     int
	StandardDays int
	Color        bool // text renderer only
}

func (o Options) withDefaults() Options {
	if o.HighDays <= 0 {
		o.HighDays = DefaultHighDays
	}
	if o.StandardDays <= 0 {
		o.StandardDays = DefaultStandardDays
	}
	return o
}

// Deadline returns the action deadline for a record priority, counted from
// the time the result was generated.
func (o Options) Deadline(generated time.Time, p schema.Priority) time.Time {
	o = o.withDefaults()
	days := o.StandardDays
	if p == schema.PriorityHigh {
		days = o.HighDays
	}
	return generated.AddDate(0, 0, days)
}

// NewRenderer returns a Renderer for the given format string.
// Supported formats: "json", "md", "csv", "pdf", "text".
func NewRenderer(format string, opts Options) (Renderer, error) {
	opts = opts.withDefaults()
	switch format {
	case "json":
		return &jsonRenderer{}, nil
	case "md":
		return &markdownRenderer{opts: opts}, nil
	case "csv":
		return &actionPlanRenderer{opts: opts}, nil
	case "pdf":
		return &pdfRenderer{opts: opts}, nil
	case "text":
		return &textRenderer{opts: opts}, nil
	default:
		return nil, fmt.Errorf("%w %q: supported formats are json, md, csv, pdf, text", ErrUnknownFormat, format)
	}
}

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	switch format {
	case "json":
		return "application/json"
	case "md":
		return "text/markdown; charset=utf-8"
	case "csv":
		return "text/csv; charset=utf-8"
	case "pdf":
		return "application/pdf"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension returns the file extension for format.
func Extension(format string) string {
	if format == "text" {
		return "txt"
	}
	return format
}
