package render

import (
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/dshills/compliscope/internal/review"
	"github.com/dshills/compliscope/internal/schema"
)

// actionItem is one row of the action-plan CSV.
type actionItem struct {
	Compliance  string `csv:"Compliance"`
	Priority    string `csv:"Priority"`
	Owner       string `csv:"Owner"`
	Deadline    string `csv:"Deadline"`
	Alert       string `csv:"Trigger Alert"`
	WhyRequired string `csv:"Why Required"`
	Checklist   string `csv:"Checklist"`
}

// actionPlanRenderer writes the not-yet-followed frameworks with an owner and
// a deadline derived from priority. Followed frameworks are left out.
type actionPlanRenderer struct {
	opts Options
}

func (r *actionPlanRenderer) Render(result *schema.Result) ([]byte, error) {
	pending := review.Pending(result.Records)
	items := make([]actionItem, 0, len(pending))
	for _, rec := range pending {
		alert := ""
		if rec.Alert {
			alert = "Yes"
		}
		items = append(items, actionItem{
			Compliance:  rec.Name,
			Priority:    string(rec.Priority),
			Owner:       r.opts.Owner,
			Deadline:    r.opts.Deadline(result.GeneratedAt, rec.Priority).Format("2006-01-02"),
			Alert:       alert,
			WhyRequired: rec.WhyRequired,
			Checklist:   strings.Join(rec.Checklist, "; "),
		})
	}
	out, err := gocsv.MarshalBytes(&items)
	if err != nil {
		return nil, fmt.Errorf("rendering action plan: %w", err)
	}
	return out, nil
}
