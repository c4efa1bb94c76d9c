package policy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// numberedSuffix catches split volumes beyond the ones listed in the table.
var numberedSuffix = regexp.MustCompile(`\.\d{3}$`)

// Registry holds all format families.
type Registry struct {
	families []FormatFamily
	byID     map[string]FormatFamily
}

// NewRegistry creates a registry with all default families.
func NewRegistry() *Registry {
	return NewRegistryWithFamilies(DefaultFamilies()...)
}

// NewRegistryWithFamilies creates a registry with custom families (for testing).
func NewRegistryWithFamilies(families ...FormatFamily) *Registry {
	r := &Registry{byID: make(map[string]FormatFamily)}
	for _, f := range families {
		r.Register(f)
	}
	return r
}

// Register adds a family. A family with an existing ID replaces it in place.
func (r *Registry) Register(f FormatFamily) {
	if _, ok := r.byID[f.ID()]; ok {
		for i, existing := range r.families {
			if existing.ID() == f.ID() {
				r.families[i] = f
			}
		}
	} else {
		r.families = append(r.families, f)
	}
	r.byID[f.ID()] = f
}

// Get returns a family by ID.
func (r *Registry) Get(id string) (FormatFamily, bool) {
	f, ok := r.byID[id]
	return f, ok
}

// GetAll returns all families in registration order.
func (r *Registry) GetAll() []FormatFamily {
	out := make([]FormatFamily, len(r.families))
	copy(out, r.families)
	return out
}

// Classifier matches file names against a Registry.
// Matching is case-insensitive and suffix-based only.
type Classifier struct {
	extensions   []string
	conventional []string
}

// NewClassifier flattens the registry tables into a classifier.
func NewClassifier(r *Registry) *Classifier {
	c := &Classifier{}
	for _, f := range r.GetAll() {
		c.extensions = append(c.extensions, f.Extensions()...)
		c.conventional = append(c.conventional, f.Conventional()...)
	}
	return c
}

// NewDefaultClassifier builds a classifier over the built-in table.
func NewDefaultClassifier() *Classifier {
	return NewClassifier(NewRegistry())
}

// IsArchive reports whether name ends with a known archive suffix or a
// three-digit volume number.
func (c *Classifier) IsArchive(name string) bool {
	lower := strings.ToLower(name)
	if hasAnySuffix(lower, c.extensions) {
		return true
	}
	return numberedSuffix.MatchString(lower)
}

// IsConventional reports whether name is in the silent-extraction subset.
func (c *Classifier) IsConventional(name string) bool {
	return hasAnySuffix(strings.ToLower(name), c.conventional)
}

// FamilyOf returns the first family whose table matches name.
func (r *Registry) FamilyOf(name string) (FormatFamily, error) {
	lower := strings.ToLower(name)
	for _, f := range r.families {
		if hasAnySuffix(lower, f.Extensions()) {
			return f, nil
		}
	}
	if numberedSuffix.MatchString(lower) {
		if f, ok := r.Get("split"); ok {
			return f, nil
		}
	}
	return nil, fmt.Errorf("no format family for %q", name)
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

// Ensure Classifier implements domain.ArchiveClassifier.
var _ domain.ArchiveClassifier = (*Classifier)(nil)
