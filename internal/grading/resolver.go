package grading

import (
	"fmt"
	"strings"
)

// Family is one scale family as declared in the calibration config.
type Family struct {
	Kind     Kind                   `yaml:"kind" json:"kind" validate:"required,oneof=btec a_level pass_fail none"`
	Name     string                 `yaml:"name" json:"name" validate:"required"`
	Aliases  []string               `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Prefixes []string               `yaml:"prefixes,omitempty" json:"prefixes,omitempty"`
	Default  *Calibration           `yaml:"default_calibration,omitempty" json:"default_calibration,omitempty"`
	Subjects map[string]Calibration `yaml:"subjects,omitempty" json:"subjects,omitempty" validate:"dive"`
	Floor    *Band                  `yaml:"floor,omitempty" json:"floor,omitempty"`
	Bands    []Band                 `yaml:"bands,omitempty" json:"bands,omitempty" validate:"dive"`
	Target   bool                   `yaml:"target,omitempty" json:"target,omitempty"`
}

func (f Family) definition(subject string, cal *Calibration) ScaleDefinition {
	def := ScaleDefinition{
		Kind:        f.Kind,
		Name:        f.Name,
		Subject:     subject,
		Calibration: cal,
		Bands:       f.Bands,
		Target:      f.Target,
	}
	if f.Floor != nil {
		def.Floor = *f.Floor
	}
	return def
}

type subjectRef struct {
	family int
	cal    Calibration
}

// Table resolves course type tags to scale definitions. It is built once and
// never mutated, so it is safe for concurrent use.
type Table struct {
	families []Family
	subjects map[string]subjectRef
	aliases  map[string]int
}

// NewTable validates families and indexes their names, aliases and subject keys.
func NewTable(families []Family) (*Table, error) {
	t := &Table{
		families: families,
		subjects: map[string]subjectRef{},
		aliases:  map[string]int{},
	}
	for i, f := range families {
		if err := checkFamily(f); err != nil {
			return nil, fmt.Errorf("scale %q: %w", f.Name, err)
		}
		names := append([]string{f.Name}, f.Aliases...)
		for _, n := range names {
			k := normalizeTag(n)
			if prev, dup := t.aliases[k]; dup && prev != i {
				return nil, fmt.Errorf("scale %q: alias %q already used by %q", f.Name, n, families[prev].Name)
			}
			t.aliases[k] = i
		}
		for subject, cal := range f.Subjects {
			k := normalizeTag(subject)
			if prev, dup := t.subjects[k]; dup {
				return nil, fmt.Errorf("scale %q: subject %q already calibrated by %q", f.Name, subject, families[prev.family].Name)
			}
			t.subjects[k] = subjectRef{family: i, cal: cal}
		}
	}
	return t, nil
}

func checkFamily(f Family) error {
	switch f.Kind {
	case KindBTEC, KindALevel:
		if f.Default == nil {
			return fmt.Errorf("kind %s requires a default_calibration", f.Kind)
		}
		if len(f.Bands) == 0 {
			return fmt.Errorf("kind %s requires bands", f.Kind)
		}
	case KindPassFail, KindNone:
		if len(f.Subjects) > 0 {
			return fmt.Errorf("kind %s cannot carry subject calibrations", f.Kind)
		}
	default:
		return fmt.Errorf("unknown kind %q", f.Kind)
	}
	if len(f.Bands) > 0 && f.Floor == nil {
		return fmt.Errorf("bands declared without a floor")
	}
	for i := 1; i < len(f.Bands); i++ {
		if f.Bands[i].Threshold <= f.Bands[i-1].Threshold {
			return fmt.Errorf("band %q threshold %v not above %v", f.Bands[i].Label, f.Bands[i].Threshold, f.Bands[i-1].Threshold)
		}
		if f.Bands[i].Level <= f.Bands[i-1].Level {
			return fmt.Errorf("band %q level %d not above %d", f.Bands[i].Label, f.Bands[i].Level, f.Bands[i-1].Level)
		}
	}
	if len(f.Bands) > 0 && f.Floor.Level >= f.Bands[0].Level {
		return fmt.Errorf("floor level %d not below first band level %d", f.Floor.Level, f.Bands[0].Level)
	}
	if f.Target && bandWidth(f.Bands) == 0 {
		return fmt.Errorf("target semantics need evenly spaced bands")
	}
	return nil
}

// Resolve maps a course type tag to a scale definition. Subject calibrations
// win over family aliases, aliases over prefixes. Unknown tags resolve to NoScale.
func (t *Table) Resolve(tag string) ScaleDefinition {
	k := normalizeTag(tag)
	if k == "" || t == nil {
		return NoScale()
	}
	if ref, ok := t.subjects[k]; ok {
		cal := ref.cal
		return t.families[ref.family].definition(k, &cal)
	}
	if i, ok := t.aliases[k]; ok {
		return t.families[i].definition("", t.families[i].Default)
	}
	for _, f := range t.families {
		for _, p := range f.Prefixes {
			if strings.HasPrefix(k, normalizeTag(p)) {
				return f.definition("", f.Default)
			}
		}
	}
	return NoScale()
}

// Recognizes reports whether tag resolves to a real scale family through a
// subject calibration, an alias or a prefix.
func (t *Table) Recognizes(tag string) bool {
	return t.Resolve(tag).Kind != KindNone
}

// Families returns a copy of the configured families in declaration order.
func (t *Table) Families() []Family {
	if t == nil {
		return nil
	}
	out := make([]Family, len(t.families))
	copy(out, t.families)
	return out
}

func normalizeTag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
