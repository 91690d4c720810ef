// Package analysis runs the full pipeline for one description: match the
// three taxonomies, filter the compliance table and assemble the result.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/compliscope/internal/description"
	"github.com/dshills/compliscope/internal/match"
	"github.com/dshills/compliscope/internal/redact"
	"github.com/dshills/compliscope/internal/requirement"
	"github.com/dshills/compliscope/internal/review"
	"github.com/dshills/compliscope/internal/schema"
	"github.com/dshills/compliscope/internal/source"
	"github.com/dshills/compliscope/internal/taxonomy"
)

// ErrEmptyDescription is returned before matching when the description has
// no content.
var ErrEmptyDescription = description.ErrEmpty

// SourceError wraps a failure to load the compliance table.
type SourceError struct {
	Location string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("loading compliance table %s: %s", e.Location, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Config holds the collaborators of an Analyzer.
type Config struct {
	Taxonomies   *taxonomy.Set
	TaxonomyName string // path or "builtin", for reports
	Matcher      *match.Matcher
	Source       source.Source
	Version      string
	Logger       *zap.Logger
	Now          func() time.Time
}

// Analyzer runs analyses. It holds no per-analysis state.
type Analyzer struct {
	taxonomies   *taxonomy.Set
	taxonomyName string
	matcher      *match.Matcher
	source       source.Source
	version      string
	logger       *zap.Logger
	now          func() time.Time
}

// New validates cfg and returns an Analyzer.
func New(cfg Config) (*Analyzer, error) {
	if cfg.Source == nil {
		return nil, errors.New("analysis: a compliance source is required")
	}
	if cfg.Taxonomies == nil {
		cfg.Taxonomies = taxonomy.Default()
		cfg.TaxonomyName = "builtin"
	}
	if err := cfg.Taxonomies.Validate(); err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	if cfg.Matcher == nil {
		cfg.Matcher = match.New(match.ModeWord)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TaxonomyName == "" {
		cfg.TaxonomyName = "builtin"
	}
	return &Analyzer{
		taxonomies:   cfg.Taxonomies,
		taxonomyName: cfg.TaxonomyName,
		matcher:      cfg.Matcher,
		source:       cfg.Source,
		version:      cfg.Version,
		logger:       cfg.Logger,
		now:          cfg.Now,
	}, nil
}

// Analyze matches d, filters the compliance table and returns the result.
func (a *Analyzer) Analyze(ctx context.Context, d *description.Description) (*schema.Result, error) {
	if err := d.Validate(); err != nil {
		return nil, ErrEmptyDescription
	}

	records, err := a.source.Records(ctx)
	if err != nil {
		return nil, &SourceError{Location: a.source.Location(), Err: err}
	}

	labels, matches := a.matcher.MatchSet(d.Text, a.taxonomies)
	applicable := requirement.Filter(labels, records)

	text, n := redact.Redact(d.Text)
	if n > 0 {
		a.logger.Warn("redacted sensitive values from description", zap.Int("count", n))
	}

	result := review.Assemble(labels, applicable, review.Options{
		Version: a.version,
		Now:     a.now(),
		Input: schema.Input{
			Description:     text,
			DescriptionHash: d.Hash,
			Source:          a.source.Location(),
			Taxonomy:        a.taxonomyName,
			MatchMode:       string(a.matcher.Mode()),
		},
		Matches: matches,
	})

	a.logger.Info("analysis complete",
		zap.String("id", result.ID),
		zap.String("domain", labels.Domain),
		zap.String("data_type", labels.DataType),
		zap.String("region", labels.Region),
		zap.Int("records", len(records)),
		zap.Int("matched", result.Summary.Total),
		zap.Int("compliance_percent", result.Summary.CompliancePercent),
	)
	return result, nil
}

// Taxonomies returns the taxonomy set in use.
func (a *Analyzer) Taxonomies() *taxonomy.Set { return a.taxonomies }
