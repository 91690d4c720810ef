package taxonomy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_Valid(t *testing.T) {
	s := Default()
	if err := s.Validate(); err != nil {
		t.Fatalf("Default().Validate: %v", err)
	}
	for _, tx := range s.All() {
		t.Run(tx.Name, func(t *testing.T) {
			fb := tx.FallbackLabel()
			if fb == "" {
				t.Fatal("empty fallback label")
			}
			if !tx.Has(fb) {
				t.Errorf("fallback %q is not a label", fb)
			}
		})
	}
}

func TestDefault_FreshCopy(t *testing.T) {
	a := Default()
	a.Domain.Labels[0].Name = "mutated"
	b := Default()
	if b.Domain.Labels[0].Name == "mutated" {
		t.Error("Default() shares state between calls")
	}
}

func TestDefault_KeywordsLowercase(t *testing.T) {
	for _, tx := range Default().All() {
		for _, l := range tx.Labels {
			for _, kw := range l.Keywords {
				if kw != strings.ToLower(kw) {
					t.Errorf("%s/%s keyword %q not lower-case", tx.Name, l.Name, kw)
				}
			}
		}
	}
}

func TestFallbackLabel_FirstWhenUnnamed(t *testing.T) {
	tx := &Taxonomy{Name: "x", Labels: []Label{{Name: "a"}, {Name: "b"}}}
	if got := tx.FallbackLabel(); got != "a" {
		t.Errorf("FallbackLabel = %q, want a", got)
	}
}

func TestValidate_DuplicateLabel(t *testing.T) {
	tx := &Taxonomy{Name: "x", Labels: []Label{{Name: "EU"}, {Name: "eu"}}}
	if err := tx.Validate(); err == nil {
		t.Error("expected error for duplicate label, got nil")
	}
}

func TestValidate_MissingFallback(t *testing.T) {
	tx := &Taxonomy{Name: "x", Fallback: "global", Labels: []Label{{Name: "EU"}}}
	if err := tx.Validate(); err == nil {
		t.Error("expected error for fallback that is not a label, got nil")
	}
}

func TestValidate_Empty(t *testing.T) {
	tx := &Taxonomy{Name: "x"}
	if err := tx.Validate(); err == nil {
		t.Error("expected error for empty taxonomy, got nil")
	}
}

func TestMarshalParse_RoundTrip(t *testing.T) {
	data, err := Default().Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v\n%s", err, data)
	}
	if got, want := len(s.Region.Labels), len(Default().Region.Labels); got != want {
		t.Errorf("region labels = %d, want %d", got, want)
	}
	if s.Region.Fallback != "global" {
		t.Errorf("region fallback = %q, want global", s.Region.Fallback)
	}
}

func TestParse_NormalizesKeywords(t *testing.T) {
	data := []byte(`
domain:
  name: domain
  labels:
    - name: healthcare
      keywords: ["  Patient ", "", "HOSPITAL"]
data_type:
  name: data_type
  labels:
    - name: all
region:
  name: region
  fallback: global
  labels:
    - name: global
`)
	s, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := s.Domain.Labels[0].Keywords
	if len(got) != 2 || got[0] != "patient" || got[1] != "hospital" {
		t.Errorf("keywords = %q, want [patient hospital]", got)
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("domain:\n  name: d\n  colour: red\n"))
	if err == nil {
		t.Error("expected error for unknown field, got nil")
	}
}

func TestParse_MissingTaxonomy(t *testing.T) {
	_, err := Parse([]byte("domain:\n  name: d\n  labels:\n    - name: a\n"))
	if err == nil {
		t.Error("expected error when data_type and region are missing, got nil")
	}
}

func TestLoad_EmptyPathReturnsDefault(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("Load(''): %v", err)
	}
	if s.Domain.FallbackLabel() != "general" {
		t.Errorf("expected default domain taxonomy, got fallback %q", s.Domain.FallbackLabel())
	}
}

func TestLoad_File(t *testing.T) {
	data, err := Default().Marshal()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Errorf("Load: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/taxonomy.yaml"); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}
