package profile

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/spigell/matchmate/internal/backend"
)

// ValidationError carries the human readable problems that blocked a submission.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "Please fix the following errors: " + strings.Join(e.Messages, ", ")
}

// Record is a raw profile as entered on the compare screen or read from a file.
// It has no password.
type Record struct {
	Name              string `yaml:"name" json:"name"`
	Age               string `yaml:"age" json:"age"`
	Sex               string `yaml:"sex,omitempty" json:"sex,omitempty"`
	Openness          string `yaml:"openness" json:"openness"`
	Conscientiousness string `yaml:"conscientiousness" json:"conscientiousness"`
	Extraversion      string `yaml:"extraversion" json:"extraversion"`
	Agreeableness     string `yaml:"agreeableness" json:"agreeableness"`
	Neuroticism       string `yaml:"neuroticism" json:"neuroticism"`
	Hobbies           string `yaml:"hobbies" json:"hobbies"`
	Smoking           string `yaml:"smoking" json:"smoking"`
	Drinking          string `yaml:"drinking" json:"drinking"`
}

// Validate returns the problems that prevent the record from being compared.
func (r Record) Validate() []string {
	errs := make([]string, 0)
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, "Name is required")
	}
	if !inRange(r.Age, minAge, maxAge) {
		errs = append(errs, "Valid age (1-120) is required")
	}
	errs = append(errs, validateLifestyle(r.Hobbies, r.Smoking, r.Drinking)...)
	errs = append(errs, validateTraits(&Personality{
		Openness:          r.Openness,
		Conscientiousness: r.Conscientiousness,
		Extraversion:      r.Extraversion,
		Agreeableness:     r.Agreeableness,
		Neuroticism:       r.Neuroticism,
	})...)
	return errs
}

// Normalize validates the record and parses it into a backend profile.
// Unparsable numbers are reported, never coerced to zero.
func (r Record) Normalize() (*backend.Profile, error) {
	if errs := r.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Messages: errs}
	}

	return &backend.Profile{
		Name:              strings.TrimSpace(r.Name),
		Age:               atoi(r.Age),
		Sex:               strings.TrimSpace(r.Sex),
		Openness:          atoi(r.Openness),
		Conscientiousness: atoi(r.Conscientiousness),
		Extraversion:      atoi(r.Extraversion),
		Agreeableness:     atoi(r.Agreeableness),
		Neuroticism:       atoi(r.Neuroticism),
		Hobbies:           NormalizeHobbies(r.Hobbies),
		Smoking:           backend.Habit(strings.ToLower(strings.TrimSpace(r.Smoking))),
		Drinking:          backend.Habit(strings.ToLower(strings.TrimSpace(r.Drinking))),
	}, nil
}

// RecordFromProfile turns a stored profile back into editable raw values.
func RecordFromProfile(p *backend.Profile) Record {
	return Record{
		Name:              p.Name,
		Age:               strconv.Itoa(p.Age),
		Sex:               p.Sex,
		Openness:          strconv.Itoa(p.Openness),
		Conscientiousness: strconv.Itoa(p.Conscientiousness),
		Extraversion:      strconv.Itoa(p.Extraversion),
		Agreeableness:     strconv.Itoa(p.Agreeableness),
		Neuroticism:       strconv.Itoa(p.Neuroticism),
		Hobbies:           strings.Join(p.Hobbies, ", "),
		Smoking:           string(p.Smoking),
		Drinking:          string(p.Drinking),
	}
}

// atoi is only called on values that passed inRange.
func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

// Submission guards a form against being sent twice while a request is in flight.
type Submission struct {
	inProgress atomic.Bool
}

// Begin marks the submission as started. It returns false if one is already running.
func (s *Submission) Begin() bool {
	return s.inProgress.CompareAndSwap(false, true)
}

func (s *Submission) Done() {
	s.inProgress.Store(false)
}

func (s *Submission) InProgress() bool {
	return s.inProgress.Load()
}
