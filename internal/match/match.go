// Package match selects the best taxonomy label for a free-text description.
//
// Each label is scored by summing per-keyword weights: 2 when the keyword is
// the whole trimmed input, 1 when it occurs in the text. The sum is divided
// by the label's keyword count so long keyword lists do not always win. The
// highest score wins; ties go to the earliest label. When nothing scores the
// taxonomy's fallback label is returned.
package match

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dshills/compliscope/internal/schema"
	"github.com/dshills/compliscope/internal/taxonomy"
)

const (
	exactWeight      = 2
	occurrenceWeight = 1
)

// Mode controls what counts as a keyword occurrence.
type Mode string

const (
	// ModeWord requires the keyword to sit on word boundaries.
	ModeWord Mode = "word"
	// ModeSubstring accepts the keyword anywhere in the text.
	ModeSubstring Mode = "substring"
)

// ParseMode converts a flag or config value to a Mode. Empty means ModeWord.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeWord, "":
		return ModeWord, nil
	case ModeSubstring:
		return ModeSubstring, nil
	default:
		return "", fmt.Errorf("unknown match mode %q: valid modes are word, substring", s)
	}
}

// Result is the outcome of matching one taxonomy.
type Result struct {
	Label    string
	Score    float64
	Fallback bool
	Scores   []schema.LabelScore
}

// Matcher scores text against taxonomies. The zero value uses ModeWord.
type Matcher struct {
	mode Mode
}

// New returns a Matcher using mode.
func New(mode Mode) *Matcher {
	if mode == "" {
		mode = ModeWord
	}
	return &Matcher{mode: mode}
}

// Mode returns the occurrence policy in use.
func (m *Matcher) Mode() Mode {
	if m.mode == "" {
		return ModeWord
	}
	return m.mode
}

// Match returns the best-scoring label of t for text.
func (m *Matcher) Match(text string, t *taxonomy.Taxonomy) Result {
	lower := cases.Lower(language.Und)
	folded := lower.String(text)
	trimmed := strings.TrimSpace(folded)

	scores := make([]schema.LabelScore, 0, len(t.Labels))
	best, bestScore := -1, 0.0
	for i, l := range t.Labels {
		s := m.score(folded, trimmed, l.Keywords, lower)
		scores = append(scores, schema.LabelScore{Label: l.Name, Score: s})
		if s > bestScore {
			best, bestScore = i, s
		}
	}

	if best < 0 {
		return Result{Label: t.FallbackLabel(), Fallback: true, Scores: scores}
	}
	return Result{Label: t.Labels[best].Name, Score: bestScore, Scores: scores}
}

// MatchSet matches text against all three taxonomies of s.
func (m *Matcher) MatchSet(text string, s *taxonomy.Set) (schema.Labels, []schema.Match) {
	matches := make([]schema.Match, 0, 3)
	for _, t := range s.All() {
		r := m.Match(text, t)
		matches = append(matches, schema.Match{
			Taxonomy: t.Name,
			Label:    r.Label,
			Score:    r.Score,
			Fallback: r.Fallback,
			Scores:   r.Scores,
		})
	}
	labels := schema.Labels{
		Domain:   matches[0].Label,
		DataType: matches[1].Label,
		Region:   matches[2].Label,
	}
	return labels, matches
}

func (m *Matcher) score(text, trimmed string, keywords []string, lower cases.Caser) float64 {
	if len(keywords) == 0 {
		return 0
	}
	total := 0
	for _, kw := range keywords {
		kw = strings.TrimSpace(lower.String(kw))
		if kw == "" {
			continue
		}
		switch {
		case kw == trimmed:
			total += exactWeight
		case m.occurs(text, kw):
			total += occurrenceWeight
		}
	}
	return float64(total) / float64(len(keywords))
}

func (m *Matcher) occurs(text, kw string) bool {
	if m.Mode() == ModeSubstring {
		return strings.Contains(text, kw)
	}
	return containsWord(text, kw)
}

// containsWord reports whether kw occurs in text with no letter, digit or
// underscore directly before or after it.
func containsWord(text, kw string) bool {
	for start := 0; start <= len(text)-len(kw); {
		i := strings.Index(text[start:], kw)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(kw)
		if boundaryBefore(text, i) && boundaryAfter(text, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		start = i + size
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
