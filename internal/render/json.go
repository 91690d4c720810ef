package render

import (
	"encoding/json"

	"github.com/dshills/compliscope/internal/schema"
)

type jsonRenderer struct{}

// Render writes the result as indented JSON. Nil slices are written as []
// so consumers always see "records": [] for an empty match set.
func (r *jsonRenderer) Render(result *schema.Result) ([]byte, error) {
	out := *result
	if out.Records == nil {
		out.Records = []schema.Record{}
	}
	if out.Matches == nil {
		out.Matches = []schema.Match{}
	}
	recs := make([]schema.Record, len(out.Records))
	for i, rec := range out.Records {
		if rec.AppliesTo == nil {
			rec.AppliesTo = []string{}
		}
		if rec.Checklist == nil {
			rec.Checklist = []string{}
		}
		recs[i] = rec
	}
	out.Records = recs
	return json.MarshalIndent(&out, "", "  ")
}
