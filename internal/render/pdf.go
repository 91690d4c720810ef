package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/dshills/compliscope/internal/schema"
)

type pdfRenderer struct {
	opts Options
}

func (r *pdfRenderer) Render(result *schema.Result) ([]byte, error) {
	v := newView(result, r.opts)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Compliance Report", true)
	pdf.SetCreator("compliscope", true)
	pdf.SetCreationDate(result.GeneratedAt)
	pdf.SetModificationDate(result.GeneratedAt)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// Core fonts are cp1252; translate so accented text survives.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	width, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	body := width - left - right

	heading := func(s string, size float64) {
		pdf.SetFont("Helvetica", "B", size)
		pdf.MultiCell(body, size*0.5, tr(s), "", "L", false)
		pdf.Ln(1)
	}
	line := func(s string) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(body, 5, tr(s), "", "L", false)
	}

	heading("Compliance Report", 18)
	line(fmt.Sprintf("Analysis %s, generated %s", result.ID, result.GeneratedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(3)

	heading("Matched categories", 13)
	line(fmt.Sprintf("Domain: %s", result.Labels.Domain))
	line(fmt.Sprintf("Data type: %s", result.Labels.DataType))
	line(fmt.Sprintf("Region: %s", result.Labels.Region))
	pdf.Ln(3)

	s := result.Summary
	heading("Summary", 13)
	line(fmt.Sprintf("Status: %s", s.Status))
	line(fmt.Sprintf("Compliance: %d%% (%d of %d followed)", s.CompliancePercent, s.Followed, s.Total))
	line(fmt.Sprintf("Pending: %d, high priority pending: %d, alerts: %d", s.Pending, s.HighPriorityPending, s.AlertsPending))
	pdf.Ln(3)

	if len(result.Records) == 0 {
		heading("No applicable compliance frameworks", 13)
		line("No framework in the compliance table applies to the matched labels.")
	}

	for _, rec := range result.Records {
		heading(rec.Name, 12)
		status := "Followed: Yes"
		if rec.Pending() {
			status = fmt.Sprintf("Followed: No (due %s)", v.Deadline(rec))
		}
		line(fmt.Sprintf("%s | Priority: %s", status, rec.Priority))
		if rec.Alert {
			line("Trigger Alert: Yes")
		}
		for _, item := range rec.Checklist {
			line("- " + item)
		}
		if rec.WhyRequired != "" {
			line("Why required: " + rec.WhyRequired)
		}
		if rec.DateAdded != "" {
			line("Date added: " + rec.DateAdded)
		}
		pdf.Ln(2)
	}

	if len(v.Pending) > 0 {
		heading("Action Plan", 13)
		owner := r.opts.Owner
		if owner == "" {
			owner = "unassigned"
		}
		names := make([]string, 0, len(v.Pending))
		for _, rec := range v.Pending {
			names = append(names, fmt.Sprintf("%s (%s, due %s)", rec.Name, rec.Priority, v.Deadline(rec)))
		}
		line(fmt.Sprintf("Owner: %s", owner))
		line(strings.Join(names, "\n"))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering pdf: %w", err)
	}
	return buf.Bytes(), nil
}
