package render

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/dshills/compliscope/internal/review"
	"github.com/dshills/compliscope/internal/schema"
)

type markdownRenderer struct {
	opts Options
}

// view is the data handed to the markdown and text templates.
type view struct {
	*schema.Result
	Alerts  []schema.Record
	Pending []schema.Record
	opts    Options
}

func newView(r *schema.Result, opts Options) view {
	var alerts []schema.Record
	for _, rec := range r.Records {
		if rec.Alert && rec.Pending() {
			alerts = append(alerts, rec)
		}
	}
	return view{Result: r, Alerts: alerts, Pending: review.Pending(r.Records), opts: opts}
}

// Deadline formats the action deadline for rec.
func (v view) Deadline(rec schema.Record) string {
	return v.opts.Deadline(v.GeneratedAt, rec.Priority).Format("2006-01-02")
}

// cellEscaper keeps table cell text on one row and inside its column.
var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")

var mdFuncs = template.FuncMap{
	"join": strings.Join,
	"cell": func(v any) string { return cellEscaper.Replace(fmt.Sprint(v)) },
	"followed": func(b bool) string {
		if b {
			return "Yes"
		}
		return "No"
	},
}

var mdTemplate = template.Must(template.New("report").Funcs(mdFuncs).Parse(`# Compliance Report

**Status:** {{ .Summary.Status }}
**Compliance:** {{ .Summary.CompliancePercent }}% ({{ .Summary.Followed }} of {{ .Summary.Total }} followed)
**Pending:** {{ .Summary.Pending }} | **High priority pending:** {{ .Summary.HighPriorityPending }} | **Alerts:** {{ .Summary.AlertsPending }}

| Category | Matched label |
|---|---|
| Domain | {{ cell .Labels.Domain }} |
| Data type | {{ cell .Labels.DataType }} |
| Region | {{ cell .Labels.Region }} |
{{ if not .Records }}
---

## No applicable compliance frameworks

No framework in the compliance table applies to the matched labels.
{{ else }}{{ if .Alerts }}
---

## Alerts
{{ range .Alerts }}
- **{{ .Name }}** ({{ .Priority }}) is flagged for alert and not yet followed.
{{- end }}
{{ end }}
---

## Frameworks
{{ range .Records }}
### {{ .Name }}
{{ if .Checklist }}
**Checklist:**
{{ range .Checklist }}
- {{ . }}
{{- end }}
{{ end }}
**Followed:** {{ followed .Followed }} | **Priority:** {{ .Priority }}{{ if .Alert }} | **Trigger Alert:** Yes{{ end }}
{{- if .WhyRequired }}

**Why required:** {{ .WhyRequired }}
{{- end }}
{{- if .DateAdded }}

**Date added:** {{ .DateAdded }}
{{- end }}
{{ end }}{{ if .Pending }}
---

## Action Plan

| Compliance | Priority | Deadline |
|---|---|---|
{{- range .Pending }}
| {{ cell .Name }} | {{ cell .Priority }} | {{ $.Deadline . }} |
{{- end }}
{{ end }}{{ end }}
---
*Analysis {{ .ID }} | Generated {{ .GeneratedAt.Format "2006-01-02 15:04 MST" }} | Match mode: {{ .Input.MatchMode }}*
`))

func (r *markdownRenderer) Render(result *schema.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := mdTemplate.Execute(&buf, newView(result, r.opts)); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.Bytes(), nil
}
