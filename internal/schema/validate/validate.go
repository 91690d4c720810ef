// Package validate checks a previously saved JSON result before it is used
// as a drift baseline.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/compliscope/internal/schema"
)

// Parse strips markdown fences, unmarshals JSON, and validates the structure
// of a saved analysis result.
func Parse(raw []byte) (*schema.Result, error) {
	cleaned := stripFences(string(raw))
	if cleaned == "" {
		return nil, fmt.Errorf("baseline is empty")
	}

	var result schema.Result
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("JSON parse failed: %w", err)
	}

	if err := validateResult(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// stripFences removes leading/trailing markdown code fences (```json ... ``` or ``` ... ```).
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
	}
	if strings.HasSuffix(s, "```") {
		if idx := strings.LastIndex(s, "\n```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

func validateResult(r *schema.Result) error {
	if err := validateLabels(r.Labels); err != nil {
		return err
	}
	if err := validateSummary(r.Summary, len(r.Records)); err != nil {
		return err
	}
	for i, rec := range r.Records {
		if err := validateRecord(rec, i); err != nil {
			return err
		}
	}
	return nil
}

func validateLabels(l schema.Labels) error {
	for _, f := range []struct{ name, value string }{
		{"domain", l.Domain},
		{"data_type", l.DataType},
		{"region", l.Region},
	} {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("labels.%s is required", f.name)
		}
	}
	return nil
}

func validateSummary(s schema.Summary, records int) error {
	if !schema.IsValidStatus(s.Status) {
		return fmt.Errorf("summary: invalid status %q", s.Status)
	}
	if s.Total != records {
		return fmt.Errorf("summary: total %d does not match %d records", s.Total, records)
	}
	if s.CompliancePercent < 0 || s.CompliancePercent > 100 {
		return fmt.Errorf("summary: compliance_percent %d out of range 0..100", s.CompliancePercent)
	}
	if s.Followed < 0 || s.Followed > s.Total {
		return fmt.Errorf("summary: followed %d out of range 0..%d", s.Followed, s.Total)
	}
	return nil
}

func validateRecord(rec schema.Record, idx int) error {
	prefix := fmt.Sprintf("record[%d]", idx)
	if strings.TrimSpace(rec.Name) == "" {
		return fmt.Errorf("%s: name is required", prefix)
	}
	switch rec.Priority {
	case schema.PriorityHigh, schema.PriorityStandard:
	default:
		return fmt.Errorf("%s: invalid priority %q (must be High or Standard)", prefix, rec.Priority)
	}
	return nil
}
