package requirement

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/compliscope/internal/schema"
)

func records() []schema.Record {
	return []schema.Record{
		{Name: "HIPAA", Domain: "healthcare", AppliesTo: []string{"health", "us"}},
		{Name: "GDPR", Domain: "all", AppliesTo: []string{"eu"}},
		{Name: "ISO 27001", Domain: "all", AppliesTo: []string{"all"}},
		{Name: "PCI-DSS", Domain: "finance", AppliesTo: []string{"payment"}},
		{Name: "DPDP Act", Domain: "all", AppliesTo: []string{"personal", "india"}},
		{Name: "SOC 2", Domain: "technology", AppliesTo: []string{"global"}},
	}
}

func names(rs []schema.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}

func TestFilter_DomainAndApplicability(t *testing.T) {
	labels := schema.Labels{Domain: "healthcare", DataType: "health", Region: "India"}
	got := Filter(labels, records())
	assert.Equal(t, []string{"HIPAA", "ISO 27001", "DPDP Act"}, names(got))
}

func TestFilter_ApplicabilityIsOr(t *testing.T) {
	// Region alone is enough when the data type does not match.
	labels := schema.Labels{Domain: "finance", DataType: "biometric", Region: "EU"}
	assert.Contains(t, names(Filter(labels, records())), "GDPR")

	// Data type alone is enough when the region does not match.
	labels = schema.Labels{Domain: "finance", DataType: "payment", Region: "Canada"}
	assert.Contains(t, names(Filter(labels, records())), "PCI-DSS")
}

func TestFilter_DomainIsRequired(t *testing.T) {
	// Applicability matches but the domain does not.
	labels := schema.Labels{Domain: "education", DataType: "payment", Region: "global"}
	assert.NotContains(t, names(Filter(labels, records())), "PCI-DSS")
}

func TestFilter_ScenarioB_WildcardRecordAlwaysMatches(t *testing.T) {
	all := schema.Record{Name: "Baseline", Domain: "all", AppliesTo: []string{"all"}}
	for _, l := range []schema.Labels{
		{Domain: "healthcare", DataType: "health", Region: "EU"},
		{Domain: "general", DataType: "all", Region: "global"},
		{Domain: "", DataType: "", Region: ""},
		{Domain: "x", DataType: "y", Region: "z"},
	} {
		assert.Len(t, Filter(l, []schema.Record{all}), 1, "labels %+v", l)
	}
}

func TestFilter_GlobalApplicability(t *testing.T) {
	labels := schema.Labels{Domain: "technology", DataType: "children", Region: "UK"}
	assert.Equal(t, []string{"ISO 27001", "SOC 2"}, names(Filter(labels, records())))
}

func TestFilter_CaseInsensitive(t *testing.T) {
	rs := []schema.Record{{Name: "GDPR", Domain: "ALL", AppliesTo: []string{" EU "}}}
	got := Filter(schema.Labels{Domain: "Healthcare", DataType: "health", Region: "eu"}, rs)
	assert.Len(t, got, 1)
}

func TestFilter_NoMatchesIsEmptyNotNil(t *testing.T) {
	got := Filter(schema.Labels{Domain: "none", DataType: "none", Region: "none"},
		[]schema.Record{{Name: "HIPAA", Domain: "healthcare", AppliesTo: []string{"health"}}})
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	in := records()
	before := names(in)
	_ = Filter(schema.Labels{Domain: "healthcare", DataType: "health", Region: "US"}, in)
	assert.Equal(t, before, names(in))
}

var (
	genLabel  = gen.OneConstOf("healthcare", "finance", "technology", "all", "global", "health", "payment", "eu", "india", "us")
	genRecord = gopter.CombineGens(
		gen.Identifier(),
		genLabel,
		gen.SliceOfN(2, genLabel),
	).Map(func(v []interface{}) schema.Record {
		return schema.Record{
			Name:      v[0].(string),
			Domain:    v[1].(string),
			AppliesTo: v[2].([]string),
		}
	})
	genLabels = gopter.CombineGens(genLabel, genLabel, genLabel).Map(func(v []interface{}) schema.Labels {
		return schema.Labels{Domain: v[0].(string), DataType: v[1].(string), Region: v[2].(string)}
	})
)

func TestFilter_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("idempotent", prop.ForAll(
		func(labels schema.Labels, rs []schema.Record) bool {
			once := Filter(labels, rs)
			twice := Filter(labels, once)
			return assert.ObjectsAreEqual(names(once), names(twice))
		},
		genLabels, gen.SliceOf(genRecord),
	))

	properties.Property("stable: output is a subsequence of input", prop.ForAll(
		func(labels schema.Labels, rs []schema.Record) bool {
			out := Filter(labels, rs)
			j := 0
			for i := 0; i < len(rs) && j < len(out); i++ {
				if rs[i].Name == out[j].Name {
					j++
				}
			}
			return j == len(out)
		},
		genLabels, gen.SliceOf(genRecord),
	))

	properties.Property("every kept record applies", prop.ForAll(
		func(labels schema.Labels, rs []schema.Record) bool {
			for _, r := range Filter(labels, rs) {
				if !Applies(labels, r) {
					return false
				}
			}
			return true
		},
		genLabels, gen.SliceOf(genRecord),
	))

	properties.TestingRun(t)
}
