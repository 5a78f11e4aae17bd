package profile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/matchmate/internal/backend"
)

type Step int

const (
	StepPersonalInfo Step = iota
	StepPersonality
	StepLifestyle
)

// Steps returns the wizard steps in order.
func Steps() []Step {
	return []Step{StepPersonalInfo, StepPersonality, StepLifestyle}
}

func (s Step) String() string {
	switch s {
	case StepPersonalInfo:
		return "Personal Info"
	case StepPersonality:
		return "Personality Traits"
	case StepLifestyle:
		return "Lifestyle"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Fields lists the form fields collected by the step.
func (s Step) Fields() []string {
	switch s {
	case StepPersonalInfo:
		return []string{FieldName, FieldAge, FieldSex, FieldPassword}
	case StepPersonality:
		return TraitFields()
	case StepLifestyle:
		return []string{FieldHobbies, FieldSmoking, FieldDrinking}
	default:
		return nil
	}
}

// Progress returns the share of filled fields of a step in percent.
func (f *Form) Progress(step Step) float64 {
	fields := step.Fields()
	if len(fields) == 0 {
		return 0
	}

	filled := 0
	for _, name := range fields {
		if f.Get(name) != "" {
			filled++
		}
	}
	return float64(filled) / float64(len(fields)) * 100
}

// ValidateStep returns the problems of a single step. An empty result means the step is valid.
func (f *Form) ValidateStep(step Step) []string {
	switch step {
	case StepPersonalInfo:
		var errs []string
		if strings.TrimSpace(f.PersonalInfo.Name) == "" {
			errs = append(errs, "Name is required")
		}
		if !inRange(f.PersonalInfo.Age, minAge, maxAge) {
			errs = append(errs, "Valid age (1-120) is required")
		}
		if strings.TrimSpace(f.PersonalInfo.Sex) == "" {
			errs = append(errs, "Gender is required")
		}
		if strings.TrimSpace(f.PersonalInfo.Password) == "" {
			errs = append(errs, "Password is required")
		}
		return errs
	case StepPersonality:
		return validateTraits(&f.Personality)
	case StepLifestyle:
		return validateLifestyle(f.Lifestyle.Hobbies, f.Lifestyle.Smoking, f.Lifestyle.Drinking)
	default:
		return nil
	}
}

// ValidateAll runs every step. The required-field checks come first, trait ranges last.
func (f *Form) ValidateAll() []string {
	errs := make([]string, 0)
	errs = append(errs, f.ValidateStep(StepPersonalInfo)...)
	errs = append(errs, f.ValidateStep(StepLifestyle)...)
	errs = append(errs, f.ValidateStep(StepPersonality)...)
	return errs
}

// Profile validates the whole form and converts it into a registration payload.
// Nothing is returned for an invalid form.
func (f *Form) Profile() (*backend.Profile, error) {
	if errs := f.ValidateAll(); len(errs) > 0 {
		return nil, &ValidationError{Messages: errs}
	}

	p, err := f.Record().Normalize()
	if err != nil {
		return nil, err
	}
	p.Sex = strings.TrimSpace(f.PersonalInfo.Sex)
	p.Password = f.PersonalInfo.Password

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Record returns the comparable part of the form.
func (f *Form) Record() Record {
	return Record{
		Name:              f.PersonalInfo.Name,
		Age:               f.PersonalInfo.Age,
		Sex:               f.PersonalInfo.Sex,
		Openness:          f.Personality.Openness,
		Conscientiousness: f.Personality.Conscientiousness,
		Extraversion:      f.Personality.Extraversion,
		Agreeableness:     f.Personality.Agreeableness,
		Neuroticism:       f.Personality.Neuroticism,
		Hobbies:           f.Lifestyle.Hobbies,
		Smoking:           f.Lifestyle.Smoking,
		Drinking:          f.Lifestyle.Drinking,
	}
}

func validateTraits(p *Personality) []string {
	var errs []string
	for _, t := range traits {
		if !inRange(*t.get(p), minTrait, maxTrait) {
			errs = append(errs, fmt.Sprintf("%s must be between %d-%d", t.title, minTrait, maxTrait))
		}
	}
	return errs
}

func validateLifestyle(hobbies, smoking, drinking string) []string {
	var errs []string
	if len(NormalizeHobbies(hobbies)) == 0 {
		errs = append(errs, "At least one hobby is required")
	}
	errs = append(errs, validateHabit("Smoking", smoking)...)
	errs = append(errs, validateHabit("Drinking", drinking)...)
	return errs
}

func validateHabit(title, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return []string{title + " preference is required"}
	}
	for _, h := range backend.Habits() {
		if strings.EqualFold(value, string(h)) {
			return nil
		}
	}
	return []string{fmt.Sprintf("%s preference must be one of yes, no, occasionally", title)}
}

func inRange(raw string, lo, hi int) bool {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return n >= lo && n <= hi
}
