package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/dshills/compliscope/internal/schema"
)

// textRenderer prints a terminal summary, coloured when Options.Color is set.
type textRenderer struct {
	opts Options
}

type palette struct {
	title, ok, warn, bad, dim *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		title: color.New(color.Bold),
		ok:    color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		bad:   color.New(color.FgRed, color.Bold),
		dim:   color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.title, p.ok, p.warn, p.bad, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) status(s schema.Status) *color.Color {
	switch s {
	case schema.StatusCompliant:
		return p.ok
	case schema.StatusPartial:
		return p.warn
	case schema.StatusNonCompliant:
		return p.bad
	}
	return p.dim
}

func (r *textRenderer) Render(result *schema.Result) ([]byte, error) {
	p := newPalette(r.opts.Color)
	v := newView(result, r.opts)
	var b bytes.Buffer

	p.title.Fprintln(&b, "Compliance analysis")
	fmt.Fprintf(&b, "  Domain:    %s\n  Data type: %s\n  Region:    %s\n\n",
		result.Labels.Domain, result.Labels.DataType, result.Labels.Region)

	s := result.Summary
	fmt.Fprintf(&b, "Status: %s  %d%% compliant (%d met, %d pending, %d high priority pending)\n",
		p.status(s.Status).Sprint(s.Status), s.CompliancePercent, s.Followed, s.Pending, s.HighPriorityPending)

	if len(result.Records) == 0 {
		fmt.Fprintln(&b)
		p.dim.Fprintln(&b, "No applicable compliance frameworks found.")
		return b.Bytes(), nil
	}

	if len(v.Alerts) > 0 {
		fmt.Fprintln(&b)
		p.bad.Fprintln(&b, "Alerts:")
		for _, rec := range v.Alerts {
			fmt.Fprintf(&b, "  ! %s (%s)\n", rec.Name, rec.Priority)
		}
	}

	fmt.Fprintln(&b)
	p.title.Fprintln(&b, "Frameworks:")
	for _, rec := range result.Records {
		mark := p.ok.Sprint("[met]    ")
		if rec.Pending() {
			mark = p.warn.Sprint("[pending]")
			if rec.HighPriority() {
				mark = p.bad.Sprint("[pending]")
			}
		}
		fmt.Fprintf(&b, "  %s %s (%s)", mark, rec.Name, rec.Priority)
		if rec.Pending() {
			fmt.Fprintf(&b, " due %s", v.Deadline(rec))
		}
		fmt.Fprintln(&b)
		if len(rec.Checklist) > 0 {
			p.dim.Fprintf(&b, "      %s\n", strings.Join(rec.Checklist, "; "))
		}
	}
	return b.Bytes(), nil
}
