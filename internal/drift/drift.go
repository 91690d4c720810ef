// Package drift compares a previous analysis result with the current one.
package drift

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/dshills/compliscope/internal/schema"
)

// LabelChange records a category whose matched label moved between runs.
type LabelChange struct {
	Category string `json:"category"`
	Before   string `json:"before"`
	After    string `json:"after"`
}

// Report is the difference between a baseline result and a current result.
type Report struct {
	Labels        []LabelChange `json:"labels"`
	Added         []string      `json:"added"`
	Removed       []string      `json:"removed"`
	NewlyFollowed []string      `json:"newly_followed"`
	Regressed     []string      `json:"regressed"`
	StatusBefore  schema.Status `json:"status_before"`
	StatusAfter   schema.Status `json:"status_after"`
	PercentBefore int           `json:"percent_before"`
	PercentAfter  int           `json:"percent_after"`
}

// Changed reports whether anything differs between the two results.
func (r *Report) Changed() bool {
	return len(r.Labels) > 0 || len(r.Added) > 0 || len(r.Removed) > 0 ||
		len(r.NewlyFollowed) > 0 || len(r.Regressed) > 0 ||
		r.StatusBefore != r.StatusAfter || r.PercentBefore != r.PercentAfter
}

// Compare builds a Report. Frameworks are keyed by name, case-insensitively.
// Name lists are sorted so output is stable across runs.
func Compare(baseline, current *schema.Result) *Report {
	r := &Report{
		StatusBefore:  baseline.Summary.Status,
		StatusAfter:   current.Summary.Status,
		PercentBefore: baseline.Summary.CompliancePercent,
		PercentAfter:  current.Summary.CompliancePercent,
	}

	for _, c := range []struct{ name, before, after string }{
		{"domain", baseline.Labels.Domain, current.Labels.Domain},
		{"data_type", baseline.Labels.DataType, current.Labels.DataType},
		{"region", baseline.Labels.Region, current.Labels.Region},
	} {
		if !strings.EqualFold(c.before, c.after) {
			r.Labels = append(r.Labels, LabelChange{Category: c.name, Before: c.before, After: c.after})
		}
	}

	before := index(baseline.Records)
	after := index(current.Records)
	for key, cur := range after {
		prev, ok := before[key]
		switch {
		case !ok:
			r.Added = append(r.Added, cur.Name)
		case !prev.Followed && cur.Followed:
			r.NewlyFollowed = append(r.NewlyFollowed, cur.Name)
		case prev.Followed && !cur.Followed:
			r.Regressed = append(r.Regressed, cur.Name)
		}
	}
	for key, prev := range before {
		if _, ok := after[key]; !ok {
			r.Removed = append(r.Removed, prev.Name)
		}
	}
	for _, names := range [][]string{r.Added, r.Removed, r.NewlyFollowed, r.Regressed} {
		sort.Strings(names)
	}
	return r
}

func index(records []schema.Record) map[string]schema.Record {
	m := make(map[string]schema.Record, len(records))
	for _, rec := range records {
		m[strings.ToLower(strings.TrimSpace(rec.Name))] = rec
	}
	return m
}

// Patch returns a diff-match-patch text patch turning before into after.
// Both sides are normalized first to avoid spurious whitespace hunks.
// Returns "" when the texts are equal.
func Patch(before, after string) string {
	before, after = normalize(before), normalize(after)
	if before == after {
		return ""
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	return dmp.PatchToText(dmp.PatchMake(before, diffs))
}

// normalize trims trailing whitespace from each line and converts CRLF to LF.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

// Format renders the report as a short human-readable summary.
func Format(r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# compliance drift\n")
	fmt.Fprintf(&b, "status: %s -> %s\n", r.StatusBefore, r.StatusAfter)
	fmt.Fprintf(&b, "compliance: %d%% -> %d%% (%+d)\n", r.PercentBefore, r.PercentAfter, r.PercentAfter-r.PercentBefore)
	for _, c := range r.Labels {
		fmt.Fprintf(&b, "label %s: %s -> %s\n", c.Category, c.Before, c.After)
	}
	list := func(title string, names []string) {
		if len(names) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s:\n", title)
		for _, n := range names {
			fmt.Fprintf(&b, "  %s\n", n)
		}
	}
	list("added", r.Added)
	list("removed", r.Removed)
	list("newly followed", r.NewlyFollowed)
	list("regressed", r.Regressed)
	if !r.Changed() {
		b.WriteString("no changes\n")
	}
	return b.String()
}
