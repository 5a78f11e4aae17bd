package cmd

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/spigell/matchmate/internal/backend"
	"github.com/spigell/matchmate/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile [name]",
	Short: "Show a profile, or create/update your own",
	Args:  cobra.MaximumNArgs(1),
	RunE:  withRuntime(runProfile),
}

func init() {
	rootCmd.AddCommand(profileCmd)

	profileCmd.Flags().Bool("create", false, "fill in and create your profile")
	profileCmd.Flags().Bool("update", false, "edit your existing profile")
	profileCmd.MarkFlagsMutuallyExclusive("create", "update")
}

func runProfile(rt *runtime, cmd *cobra.Command, args []string) error {
	create, _ := cmd.Flags().GetBool("create")
	update, _ := cmd.Flags().GetBool("update")

	if len(args) == 1 && !create && !update {
		p, err := rt.api.GetProfile(args[0])
		if err != nil {
			return rt.fail(err, "Could not load the profile")
		}
		return printYAML(cmd.OutOrStdout(), p)
	}

	if _, err := rt.requireSession(); err != nil {
		return err
	}

	current, err := rt.api.GetMyProfile()
	if err != nil && !isNotFound(err) {
		return rt.fail(err, "Could not load your profile")
	}

	if !create && !update {
		if current == nil {
			rt.notify.Info("No profile yet. Run `%s profile --create` to add one.", app)
			return nil
		}
		return printYAML(cmd.OutOrStdout(), current)
	}

	if current == nil {
		current = &backend.ProfileDetails{}
	}
	details, err := fillDetails(promptAsker{}, current)
	if err != nil {
		return rt.aborted(err)
	}

	send := rt.api.CreateProfile
	if update {
		send = rt.api.UpdateProfile
	}
	saved, err := send(details)
	if err != nil {
		return rt.fail(err, "Could not save your profile")
	}

	rt.notify.Success("Profile saved")
	return printYAML(cmd.OutOrStdout(), saved)
}

func isNotFound(err error) bool {
	var apiErr *backend.APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// fillDetails asks for the legacy profile fields, offering current values as defaults.
func fillDetails(a asker, current *backend.ProfileDetails) (*backend.ProfileDetails, error) {
	out := *current

	number := func(label string, field string, value int) (int, error) {
		def := ""
		if value > 0 {
			def = strconv.Itoa(value)
		}
		for {
			raw, err := a.Ask(question{Label: label, Default: def, Validate: profile.MaskFor(field)})
			if err != nil {
				return 0, err
			}
			if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && profile.MaskFor(field)(raw) == nil {
				return n, nil
			}
		}
	}
	text := func(label, value string) (string, error) {
		raw, err := a.Ask(question{Label: label, Default: value})
		return strings.TrimSpace(raw), err
	}

	var err error
	if out.Age, err = number("Age", profile.FieldAge, out.Age); err != nil {
		return nil, err
	}
	if out.Gender, err = text("Gender", out.Gender); err != nil {
		return nil, err
	}
	if out.Location, err = text("Location", out.Location); err != nil {
		return nil, err
	}

	traits := []struct {
		field string
		value *int
	}{
		{profile.FieldOpenness, &out.Openness},
		{profile.FieldConscientiousness, &out.Conscientiousness},
		{profile.FieldExtraversion, &out.Extraversion},
		{profile.FieldAgreeableness, &out.Agreeableness},
		{profile.FieldNeuroticism, &out.Neuroticism},
	}
	for _, t := range traits {
		if *t.value, err = number(fieldLabels[t.field], t.field, *t.value); err != nil {
			return nil, err
		}
	}

	hobbies, err := text(fieldLabels[profile.FieldHobbies], strings.Join(out.Hobbies, ", "))
	if err != nil {
		return nil, err
	}
	out.Hobbies = profile.NormalizeHobbies(hobbies)

	for _, habit := range []struct {
		field string
		value *backend.Habit
	}{
		{profile.FieldSmoking, &out.Smoking},
		{profile.FieldDrinking, &out.Drinking},
	} {
		choice, err := a.Choose(fieldLabels[habit.field], habitItems())
		if err != nil {
			return nil, err
		}
		*habit.value = backend.Habit(choice)
	}

	return &out, nil
}
