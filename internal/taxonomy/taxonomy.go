package taxonomy

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Label is one category in a taxonomy together with the keywords that
// indicate it. A label with no keywords can only be reached as a fallback.
type Label struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords,flow"`
}

// Taxonomy is an ordered mapping from label to keywords. Order matters: it
// decides ties and the fallback when no Fallback is named.
type Taxonomy struct {
	Name     string  `yaml:"name"`
	Fallback string  `yaml:"fallback,omitempty"`
	Labels   []Label `yaml:"labels"`
}

// Set groups the three taxonomies an analysis matches against.
type Set struct {
	Domain   *Taxonomy `yaml:"domain"`
	DataType *Taxonomy `yaml:"data_type"`
	Region   *Taxonomy `yaml:"region"`
}

// FallbackLabel returns the label used when no keyword matches: the named
// Fallback if it exists in the taxonomy, otherwise the first label.
func (t *Taxonomy) FallbackLabel() string {
	if t.Fallback != "" && t.Has(t.Fallback) {
		return t.Fallback
	}
	if len(t.Labels) == 0 {
		return ""
	}
	return t.Labels[0].Name
}

// Has reports whether name is a label of t (case-insensitive).
func (t *Taxonomy) Has(name string) bool {
	for _, l := range t.Labels {
		if strings.EqualFold(l.Name, name) {
			return true
		}
	}
	return false
}

// Validate checks that t has at least one label, that label names are
// non-empty and unique, and that a named fallback exists.
func (t *Taxonomy) Validate() error {
	if len(t.Labels) == 0 {
		return fmt.Errorf("taxonomy %q: at least one label is required", t.Name)
	}
	seen := make(map[string]bool, len(t.Labels))
	for i, l := range t.Labels {
		key := strings.ToLower(strings.TrimSpace(l.Name))
		if key == "" {
			return fmt.Errorf("taxonomy %q: label[%d] has an empty name", t.Name, i)
		}
		if seen[key] {
			return fmt.Errorf("taxonomy %q: duplicate label %q", t.Name, l.Name)
		}
		seen[key] = true
	}
	if t.Fallback != "" && !t.Has(t.Fallback) {
		return fmt.Errorf("taxonomy %q: fallback %q is not a label", t.Name, t.Fallback)
	}
	return nil
}

// normalize lower-cases and trims keywords and drops empty ones.
func (t *Taxonomy) normalize() {
	lower := cases.Lower(language.Und)
	for i := range t.Labels {
		t.Labels[i].Name = strings.TrimSpace(t.Labels[i].Name)
		kws := make([]string, 0, len(t.Labels[i].Keywords))
		for _, kw := range t.Labels[i].Keywords {
			kw = strings.TrimSpace(lower.String(kw))
			if kw != "" {
				kws = append(kws, kw)
			}
		}
		t.Labels[i].Keywords = kws
	}
}

// All returns the taxonomies in matching order: domain, data type, region.
func (s *Set) All() []*Taxonomy {
	return []*Taxonomy{s.Domain, s.DataType, s.Region}
}

// Validate checks every taxonomy in the set.
func (s *Set) Validate() error {
	if s.Domain == nil || s.DataType == nil || s.Region == nil {
		return errors.New("taxonomy set must define domain, data_type and region")
	}
	for _, t := range s.All() {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Marshal encodes the set as YAML in the same layout Load reads.
func (s *Set) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encoding taxonomies: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding taxonomies: %w", err)
	}
	return buf.Bytes(), nil
}

// Default returns the built-in taxonomies. Each call returns a fresh copy.
func Default() *Set {
	s := &Set{
		Domain:   domains(),
		DataType: dataTypes(),
		Region:   regions(),
	}
	for _, t := range s.All() {
		t.normalize()
	}
	return s
}

// Parse decodes a YAML taxonomy set. Unknown keys are rejected.
func Parse(data []byte) (*Set, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var s Set
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parsing taxonomies: %w", err)
	}
	for _, t := range []*Taxonomy{s.Domain, s.DataType, s.Region} {
		if t != nil {
			t.normalize()
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads a taxonomy set from path. An empty path returns Default().
func Load(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy file: %w", err)
	}
	return Parse(data)
}
