package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/matchmate/internal/filtering"
	"github.com/spigell/matchmate/internal/logger"
	"github.com/spigell/matchmate/internal/matches"
)

var matchesCmd = &cobra.Command{
	Use:   "matches [name]",
	Short: "Show the people the service matched you with",
	Args:  cobra.MaximumNArgs(1),
	RunE:  withRuntime(runMatches),
}

func init() {
	rootCmd.AddCommand(matchesCmd)

	matchesCmd.Flags().Bool("group", false, "group matches by tier")
	matchesCmd.Flags().Float64("min-score", 0, "hide matches scored below this percentage")
	matchesCmd.Flags().StringP("exclude-file", "e", "", "file with matches you have hidden")
	matchesCmd.Flags().BoolP("pick", "p", false, "pick a match to chat with, view or hide")

	viper.BindPFlag("matches.min-score", matchesCmd.Flags().Lookup("min-score"))
	viper.BindPFlag("matches.exclude-file", matchesCmd.Flags().Lookup("exclude-file"))
}

func runMatches(rt *runtime, cmd *cobra.Command, args []string) error {
	current, err := rt.requireSession()
	if err != nil {
		return err
	}

	name := current.Username
	if len(args) == 1 {
		name = args[0]
	}

	view, err := loadMatches(rt, current.Username, name)
	if err != nil {
		return err
	}

	printer := matches.Printer{Out: cmd.OutOrStdout(), Color: !color.NoColor}
	if group, _ := cmd.Flags().GetBool("group"); group {
		err = printer.PrintGrouped(view)
	} else {
		err = printer.Print(view)
	}
	if err != nil {
		return err
	}

	if pick, _ := cmd.Flags().GetBool("pick"); !pick || view.Empty {
		return nil
	}
	return pickMatch(rt, promptAsker{}, current.Username, view)
}

// loadMatches fetches, filters and renders the matches of name for the signed-in user.
func loadMatches(rt *runtime, me, name string) (matches.View, error) {
	found, err := rt.api.GetMatches(name)
	if err != nil {
		return matches.View{}, rt.fail(err, "Failed to fetch matches. Please try again.")
	}

	log := logger.WithSession(rt.logger, me, "")
	log.Debug("matches received", zap.Int("count", found.Len()), zap.Strings("names", found.Names()))

	cfg := &filtering.Config{
		MinScore:    rt.config.Matches.MinScore,
		ExcludeFile: rt.config.Matches.ExcludeFile,
	}
	steps := filtering.Defaults()
	if name != me {
		filtering.DisableByName(steps, "self", "browsing matches of "+name)
	}

	filtered, err := filtering.Run(rt.ctx, cfg, filtering.Deps{Logger: log, Username: me}, steps, found)
	if err != nil {
		return matches.View{}, rt.fail(err, err.Error())
	}

	for _, status := range filtering.Describe(steps) {
		log.Debug("filter status",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	return matches.Render(filtered.Items, me), nil
}

func pickMatch(rt *runtime, a asker, me string, view matches.View) error {
	for {
		if view.Empty {
			rt.notify.Info(matches.EmptyText)
			return nil
		}

		items := make([]string, 0, len(view.Cards)+1)
		for _, card := range view.Cards {
			items = append(items, fmt.Sprintf("%s %s %s", card.Icon, card.Name, card.Percent))
		}

		selected, err := a.Choose("Choose a match and press ENTER", append(items, PromptBack))
		if err != nil {
			return rt.aborted(err)
		}
		if selected == PromptBack {
			return nil
		}

		card := view.Cards[indexOf(items, selected)]

		action, err := a.Choose(card.Name, []string{PromptChat, PromptProfile, PromptHide, PromptBack})
		if err != nil {
			return rt.aborted(err)
		}

		switch action {
		case PromptChat:
			return runChat(rt, me, card.Name, card.Score.Percent())
		case PromptProfile:
			p, err := rt.api.GetProfile(card.Name)
			if err != nil {
				rt.notify.Error(err, "Could not load the profile")
				continue
			}
			if err := printYAML(rt.out, p); err != nil {
				return err
			}
		case PromptHide:
			if err := hideMatch(rt, card.Name); err != nil {
				return err
			}
			view = withoutCard(view, card.Name)
		}
	}
}

func indexOf(items []string, value string) int {
	for i, item := range items {
		if item == value {
			return i
		}
	}
	return -1
}

func withoutCard(view matches.View, name string) matches.View {
	cards := make([]matches.Card, 0, len(view.Cards))
	for _, card := range view.Cards {
		if card.Name != name {
			cards = append(cards, card)
		}
	}
	view.Cards = cards
	view.Empty = len(cards) == 0
	return view
}

func hideMatch(rt *runtime, name string) error {
	path := strings.TrimSpace(rt.config.Matches.ExcludeFile)
	if path == "" {
		rt.notify.Info("Set matches.exclude-file (or --exclude-file) to hide matches")
		return nil
	}

	hidden, err := filtering.LoadHiddenMatches(path)
	if err != nil {
		return rt.fail(err, "Could not read "+path)
	}
	hidden.Hide(name)
	if err := hidden.ToFile(path); err != nil {
		return rt.fail(err, "Could not write "+path)
	}

	rt.logger.Info("appended to exclude file", zap.String("filename", path), zap.String("match", name))
	rt.notify.Success("%s will not show up again", name)
	return nil
}
