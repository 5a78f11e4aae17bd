// Package profile holds the registration wizard state and turns it into backend profiles.
package profile

import (
	"fmt"
	"strconv"
	"strings"
)

// Field names as used by the wizard and in error messages.
const (
	FieldName              = "name"
	FieldAge               = "age"
	FieldSex               = "sex"
	FieldPassword          = "password"
	FieldOpenness          = "openness"
	FieldConscientiousness = "conscientiousness"
	FieldExtraversion      = "extraversion"
	FieldAgreeableness     = "agreeableness"
	FieldNeuroticism       = "neuroticism"
	FieldHobbies           = "hobbies"
	FieldSmoking           = "smoking"
	FieldDrinking          = "drinking"
)

const (
	minAge   = 1
	maxAge   = 120
	minTrait = 1
	maxTrait = 5
)

// PersonalInfo is the first wizard step.
type PersonalInfo struct {
	Name     string
	Age      string
	Sex      string
	Password string
}

// Personality is the second wizard step. Values are raw digits as typed.
type Personality struct {
	Openness          string
	Conscientiousness string
	Extraversion      string
	Agreeableness     string
	Neuroticism       string
}

// Lifestyle is the third wizard step. Hobbies stay a comma separated string until submission.
type Lifestyle struct {
	Hobbies  string
	Smoking  string
	Drinking string
}

type Form struct {
	PersonalInfo PersonalInfo
	Personality  Personality
	Lifestyle    Lifestyle
}

type trait struct {
	field string
	title string
	get   func(*Personality) *string
}

var traits = []trait{
	{FieldOpenness, "Openness", func(p *Personality) *string { return &p.Openness }},
	{FieldConscientiousness, "Conscientiousness", func(p *Personality) *string { return &p.Conscientiousness }},
	{FieldExtraversion, "Extraversion", func(p *Personality) *string { return &p.Extraversion }},
	{FieldAgreeableness, "Agreeableness", func(p *Personality) *string { return &p.Agreeableness }},
	{FieldNeuroticism, "Neuroticism", func(p *Personality) *string { return &p.Neuroticism }},
}

// TraitFields lists the five personality fields in wizard order.
func TraitFields() []string {
	fields := make([]string, 0, len(traits))
	for _, t := range traits {
		fields = append(fields, t.field)
	}
	return fields
}

func (f *Form) slot(name string) *string {
	switch name {
	case FieldName:
		return &f.PersonalInfo.Name
	case FieldAge:
		return &f.PersonalInfo.Age
	case FieldSex:
		return &f.PersonalInfo.Sex
	case FieldPassword:
		return &f.PersonalInfo.Password
	case FieldHobbies:
		return &f.Lifestyle.Hobbies
	case FieldSmoking:
		return &f.Lifestyle.Smoking
	case FieldDrinking:
		return &f.Lifestyle.Drinking
	}

	for _, t := range traits {
		if t.field == name {
			return t.get(&f.Personality)
		}
	}

	return nil
}

// Get returns the raw value of a field, or "" for unknown names.
func (f *Form) Get(name string) string {
	if s := f.slot(name); s != nil {
		return *s
	}
	return ""
}

// SetField applies an edit. Edits that break the field's input mask are rejected
// and leave the previous value in place; SetField reports whether the edit was applied.
func (f *Form) SetField(name, value string) bool {
	s := f.slot(name)
	if s == nil {
		return false
	}

	if mask := MaskFor(name); mask != nil {
		if err := mask(value); err != nil {
			return false
		}
	}

	*s = value
	return true
}

// MaskFor returns the per-keystroke rule of a field, or nil when anything goes.
func MaskFor(name string) func(string) error {
	switch name {
	case FieldAge:
		return rangeMask(minAge, maxAge)
	case FieldOpenness, FieldConscientiousness, FieldExtraversion, FieldAgreeableness, FieldNeuroticism:
		return rangeMask(minTrait, maxTrait)
	default:
		return nil
	}
}

func rangeMask(lo, hi int) func(string) error {
	return func(value string) error {
		if value == "" {
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("must be a whole number")
		}
		if n < lo || n > hi {
			return fmt.Errorf("must be between %d-%d", lo, hi)
		}
		return nil
	}
}

// NormalizeHobbies splits a comma separated list, trims every item and drops empty ones.
func NormalizeHobbies(raw string) []string {
	hobbies := make([]string, 0)
	for _, h := range strings.Split(raw, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hobbies = append(hobbies, h)
		}
	}
	return hobbies
}
