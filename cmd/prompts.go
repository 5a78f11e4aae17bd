package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/spigell/matchmate/internal/backend"
	"github.com/spigell/matchmate/internal/notify"
	"github.com/spigell/matchmate/internal/profile"
)

const (
	PromptBack    = "back"
	PromptChat    = "Chat"
	PromptHide    = "Hide from my matches"
	PromptProfile = "Show profile"
)

var errAborted = errors.New("aborted")

// asker collects answers. promptAsker is the terminal implementation.
type asker interface {
	Ask(q question) (string, error)
	Choose(label string, items []string) (string, error)
}

type question struct {
	Label    string
	Default  string
	Secret   bool
	Validate func(string) error
}

type promptAsker struct{}

func (promptAsker) Ask(q question) (string, error) {
	p := promptui.Prompt{
		Label:   q.Label,
		Default: q.Default,
	}
	if q.Validate != nil {
		p.Validate = promptui.ValidateFunc(q.Validate)
	}
	if q.Secret {
		p.Mask = '*'
	}

	value, err := p.Run()
	return value, promptError(err)
}

func (promptAsker) Choose(label string, items []string) (string, error) {
	s := promptui.Select{
		Label: label,
		Items: items,
		Size:  10,
	}
	_, value, err := s.Run()
	return value, promptError(err)
}

func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrAbort) {
		return errAborted
	}
	return err
}

var fieldLabels = map[string]string{
	profile.FieldName:              "Username",
	profile.FieldAge:               "Age",
	profile.FieldSex:               "Gender",
	profile.FieldPassword:          "Password",
	profile.FieldOpenness:          "Openness (1-5)",
	profile.FieldConscientiousness: "Conscientiousness (1-5)",
	profile.FieldExtraversion:      "Extraversion (1-5)",
	profile.FieldAgreeableness:     "Agreeableness (1-5)",
	profile.FieldNeuroticism:       "Neuroticism (1-5)",
	profile.FieldHobbies:           "Hobbies (comma separated)",
	profile.FieldSmoking:           "Smoking",
	profile.FieldDrinking:          "Drinking",
}

func habitItems() []string {
	items := make([]string, 0, len(backend.Habits()))
	for _, h := range backend.Habits() {
		items = append(items, string(h))
	}
	return items
}

// fillForm walks the wizard step by step. A step is repeated until it validates.
func fillForm(a asker, form *profile.Form, n *notify.Notifier) error {
	steps := profile.Steps()
	for i, step := range steps {
		for {
			n.Info("Step %d of %d: %s", i+1, len(steps), step)

			for _, field := range step.Fields() {
				if err := askField(a, form, field); err != nil {
					return err
				}
			}

			errs := form.ValidateStep(step)
			if len(errs) == 0 {
				break
			}
			n.Validation(errs)
		}
	}
	return nil
}

func askField(a asker, form *profile.Form, field string) error {
	label := fieldLabels[field]
	if label == "" {
		label = field
	}

	if field == profile.FieldSmoking || field == profile.FieldDrinking {
		value, err := a.Choose(label, habitItems())
		if err != nil {
			return err
		}
		form.SetField(field, value)
		return nil
	}

	mask := profile.MaskFor(field)
	value, err := a.Ask(question{
		Label:    label,
		Default:  form.Get(field),
		Secret:   field == profile.FieldPassword,
		Validate: mask,
	})
	if err != nil {
		return err
	}

	if field != profile.FieldPassword {
		value = strings.TrimSpace(value)
	}
	if !form.SetField(field, value) {
		// the terminal prompt already enforces the mask; a scripted answer may not
		return fmt.Errorf("%s: rejected value %q", label, value)
	}
	return nil
}
