// Package requirement selects the compliance records that apply to a set of
// matched labels.
package requirement

import (
	"strings"

	"github.com/dshills/compliscope/internal/schema"
)

// Filter returns the records that apply to labels, in their original order.
// The input slice is not modified.
//
// A record applies when its domain is the matched domain or "all", and its
// Applies To set contains the matched data type, the matched region, "all"
// or "global". Either applicability hit is enough.
func Filter(labels schema.Labels, records []schema.Record) []schema.Record {
	out := make([]schema.Record, 0, len(records))
	for _, r := range records {
		if Applies(labels, r) {
			out = append(out, r)
		}
	}
	return out
}

// Applies reports whether a single record applies to labels.
func Applies(labels schema.Labels, r schema.Record) bool {
	return domainMatches(labels.Domain, r.Domain) && appliesToMatches(labels, r.AppliesTo)
}

func domainMatches(matched, domain string) bool {
	domain = strings.TrimSpace(domain)
	return strings.EqualFold(domain, schema.WildcardAll) || strings.EqualFold(domain, strings.TrimSpace(matched))
}

func appliesToMatches(labels schema.Labels, appliesTo []string) bool {
	dataType := strings.TrimSpace(labels.DataType)
	region := strings.TrimSpace(labels.Region)
	for _, a := range appliesTo {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if schema.IsWildcard(a) || strings.EqualFold(a, dataType) || strings.EqualFold(a, region) {
			return true
		}
	}
	return false
}
