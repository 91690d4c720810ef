package schema

import "time"

// Wildcard labels accepted in the Domain and Applies To columns.
const (
	WildcardAll    = "all"
	WildcardGlobal = "global"
)

// Result is the analysis output consumed by every renderer.
type Result struct {
	Tool        string    `json:"tool"`
	Version     string    `json:"version"`
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`
	Input       Input     `json:"input"`
	Labels      Labels    `json:"labels"`
	Matches     []Match   `json:"matches"`
	Summary     Summary   `json:"summary"`
	Records     []Record  `json:"records"`
}

// Input captures what the analysis was run against.
type Input struct {
	Description     string `json:"description"` // after redaction
	DescriptionHash string `json:"description_hash"`
	Source          string `json:"source"`
	Taxonomy        string `json:"taxonomy"`
	MatchMode       string `json:"match_mode"`
}

// Labels are the three matched category labels.
type Labels struct {
	Domain   string `json:"domain"`
	DataType string `json:"data_type"`
	Region   string `json:"region"`
}

// Match explains how one taxonomy label was selected.
type Match struct {
	Taxonomy string       `json:"taxonomy"`
	Label    string       `json:"label"`
	Score    float64      `json:"score"`
	Fallback bool         `json:"fallback"`
	Scores   []LabelScore `json:"scores,omitempty"`
}

// LabelScore is the normalized score for one candidate label.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Summary holds the aggregate metrics derived from the matched records.
type Summary struct {
	Status              Status `json:"status"`
	Total               int    `json:"total"`
	Followed            int    `json:"followed"`
	Pending             int    `json:"pending"`
	HighPriorityPending int    `json:"high_priority_pending"`
	AlertsPending       int    `json:"alerts_pending"`
	CompliancePercent   int    `json:"compliance_percent"`
}

// Status is the headline outcome of an analysis.
type Status string

const (
	StatusCompliant    Status = "COMPLIANT"
	StatusPartial      Status = "PARTIAL"
	StatusNonCompliant Status = "NON_COMPLIANT"
	StatusNoMatches    Status = "NO_MATCHES"
)

// IsValidStatus reports whether s is one of the defined statuses.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusCompliant, StatusPartial, StatusNonCompliant, StatusNoMatches:
		return true
	}
	return false
}

// Priority of a compliance framework.
type Priority string

const (
	PriorityHigh     Priority = "High"
	PriorityStandard Priority = "Standard"
)

// ParsePriority maps a raw column value to a Priority. Anything other than
// "high" (case-insensitive) is Standard.
func ParsePriority(s string) Priority {
	if equalFoldTrim(s, "high") {
		return PriorityHigh
	}
	return PriorityStandard
}

// Record is one regulatory framework row from the compliance table.
type Record struct {
	Name        string   `json:"name"`
	Domain      string   `json:"domain"`
	AppliesTo   []string `json:"applies_to"`
	Checklist   []string `json:"checklist"`
	Followed    bool     `json:"followed"`
	Priority    Priority `json:"priority"`
	WhyRequired string   `json:"why_required,omitempty"`
	Alert       bool     `json:"alert"`
	DateAdded   string   `json:"date_added,omitempty"`
}

// Pending reports whether the record still needs action.
func (r Record) Pending() bool { return !r.Followed }

// HighPriority reports whether the record is High priority.
func (r Record) HighPriority() bool { return r.Priority == PriorityHigh }
