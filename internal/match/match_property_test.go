package match

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dshills/compliscope/internal/taxonomy"
)

// Property: text equal to a keyword is scored with the whole-text weight and
// beats a label that only matches a substring of it, regardless of order.
func TestMatch_ExactBeatsSubstringProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("exact whole-text match wins", prop.ForAll(
		func(kw string) bool {
			tx := &taxonomy.Taxonomy{
				Name: "x",
				Labels: []taxonomy.Label{
					{Name: "partial", Keywords: []string{kw[:len(kw)-1], "0"}},
					{Name: "exact", Keywords: []string{kw, "1"}},
				},
			}
			r := New(ModeSubstring).Match(kw, tx)
			return r.Label == "exact" && r.Score == 1.0 && r.Scores[0].Score == 0.5
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) >= 2 }),
	))

	properties.TestingRun(t)
}

// Property: digits never match alphabetic keywords, so the fallback wins.
func TestMatch_FallbackProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	set := taxonomy.Default()
	properties.Property("unmatched text yields the fallback label", prop.ForAll(
		func(text string) bool {
			for _, mode := range []Mode{ModeWord, ModeSubstring} {
				for _, tx := range set.All() {
					r := New(mode).Match(text, tx)
					if !r.Fallback || r.Label != tx.FallbackLabel() {
						return false
					}
				}
			}
			return true
		},
		gen.NumString(),
	))

	properties.TestingRun(t)
}

// Property: matching is deterministic.
func TestMatch_DeterministicProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	set := taxonomy.Default()
	m := New(ModeWord)
	properties.Property("same text, same labels", prop.ForAll(
		func(words []string) bool {
			text := ""
			for _, w := range words {
				text += w + " "
			}
			a, _ := m.MatchSet(text, set)
			b, _ := m.MatchSet(text, set)
			return a == b
		},
		gen.SliceOf(gen.OneConstOf("patient", "bank", "india", "eu", "card", "school", "cloud", "zz")),
	))

	properties.TestingRun(t)
}
