package cmd

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/spigell/matchmate/internal/compare"
	"github.com/spigell/matchmate/internal/matches"
	"github.com/spigell/matchmate/internal/profile"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Check the compatibility of two profiles",
	Long: "Compare two profiles read from YAML files (--first, --second) or typed in.\n" +
		"The score is computed and stored by the backend.",
	RunE: withRuntime(runCompare),
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().String("first", "", "YAML file with the first profile")
	compareCmd.Flags().String("second", "", "YAML file with the second profile")
}

func runCompare(rt *runtime, cmd *cobra.Command, _ []string) error {
	first, _ := cmd.Flags().GetString("first")
	second, _ := cmd.Flags().GetString("second")

	records := make([]profile.Record, 2)
	for i, path := range []string{first, second} {
		var err error
		if strings.TrimSpace(path) != "" {
			records[i], err = readRecord(path)
			if err != nil {
				return rt.fail(err, err.Error())
			}
			continue
		}

		rt.notify.Info("Profile %d", i+1)
		if records[i], err = askRecord(promptAsker{}); err != nil {
			return rt.aborted(err)
		}
	}

	engine := compare.NewEngine(rt.api, rt.logger)
	result, err := engine.Compare(rt.ctx, records[0], records[1])
	if err != nil {
		return rt.fail(err, "Comparison failed")
	}

	printer := matches.Printer{Out: cmd.OutOrStdout(), Color: !color.NoColor}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s & %s\n%s %s\n",
		result.First, result.Second,
		printer.Paint(result.Color, result.Score.String()),
		result.Tier.Label,
	)
	return err
}

func readRecord(path string) (profile.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return profile.Record{}, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return profile.Record{}, fmt.Errorf("parse %s: %w", path, err)
	}

	var record profile.Record
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &record,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		DecodeHook:       joinListHook,
	})
	if err != nil {
		return profile.Record{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return profile.Record{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if record == (profile.Record{}) {
		return profile.Record{}, errors.New(path + " holds no profile")
	}
	return record, nil
}

// joinListHook accepts hobbies written as a YAML list.
func joinListHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String || from.Kind() != reflect.Slice {
		return data, nil
	}

	list := reflect.ValueOf(data)
	parts := make([]string, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		parts = append(parts, fmt.Sprint(list.Index(i).Interface()))
	}
	return strings.Join(parts, ", "), nil
}

// askRecord collects a profile for comparison. It reuses the wizard masks but has no password.
func askRecord(a asker) (profile.Record, error) {
	var form profile.Form
	for _, step := range profile.Steps() {
		for _, field := range step.Fields() {
			if field == profile.FieldPassword || field == profile.FieldSex {
				continue
			}
			if err := askField(a, &form, field); err != nil {
				return profile.Record{}, err
			}
		}
	}
	return form.Record(), nil
}
