package review

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/compliscope/internal/schema"
)

// Tool is reported in every result.
const Tool = "compliscope"

// Options carries the metadata stamped onto an assembled result.
type Options struct {
	Version string
	Now     time.Time
	Input   schema.Input
	Matches []schema.Match
}

// Assemble bundles matched labels and filtered records into a result and
// computes its summary. The records slice is copied.
func Assemble(labels schema.Labels, records []schema.Record, opts Options) *schema.Result {
	recs := make([]schema.Record, len(records))
	copy(recs, records)

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	return &schema.Result{
		Tool:        Tool,
		Version:     opts.Version,
		ID:          uuid.NewString(),
		GeneratedAt: now.UTC(),
		Input:       opts.Input,
		Labels:      labels,
		Matches:     opts.Matches,
		Summary:     Summarize(recs),
		Records:     recs,
	}
}

// Summarize computes the aggregate metrics for records.
func Summarize(records []schema.Record) schema.Summary {
	followed, pending, highPending, alerts := Counts(records)
	pct := Percent(followed, len(records))
	return schema.Summary{
		Status:              Status(len(records), pct),
		Total:               len(records),
		Followed:            followed,
		Pending:             pending,
		HighPriorityPending: highPending,
		AlertsPending:       alerts,
		CompliancePercent:   pct,
	}
}

// Counts returns the followed, pending, high-priority pending and
// alert-flagged pending counts.
func Counts(records []schema.Record) (followed, pending, highPending, alerts int) {
	for _, r := range records {
		if r.Followed {
			followed++
			continue
		}
		pending++
		if r.HighPriority() {
			highPending++
		}
		if r.Alert {
			alerts++
		}
	}
	return
}

// Percent returns followed/total as a whole percentage rounded down.
// Zero records score 0.
func Percent(followed, total int) int {
	if total <= 0 {
		return 0
	}
	return followed * 100 / total
}

// Status derives the headline status from the record count and percentage.
func Status(total, percent int) schema.Status {
	switch {
	case total == 0:
		return schema.StatusNoMatches
	case percent >= 100:
		return schema.StatusCompliant
	case percent > 0:
		return schema.StatusPartial
	default:
		return schema.StatusNonCompliant
	}
}

// Pending returns the records not yet followed, alert-flagged first and then
// High before Standard, otherwise in input order.
func Pending(records []schema.Record) []schema.Record {
	var buckets [3][]schema.Record
	for _, r := range records {
		if r.Followed {
			continue
		}
		switch {
		case r.Alert:
			buckets[0] = append(buckets[0], r)
		case r.HighPriority():
			buckets[1] = append(buckets[1], r)
		default:
			buckets[2] = append(buckets[2], r)
		}
	}
	out := make([]schema.Record, 0, len(buckets[0])+len(buckets[1])+len(buckets[2]))
	for _, b := range buckets {
		out = append(out, b...)
	}
	return out
}
