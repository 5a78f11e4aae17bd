package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/matchmate/internal/ai"
	"github.com/spigell/matchmate/internal/ai/gemini"
	"github.com/spigell/matchmate/internal/chat"
	"github.com/spigell/matchmate/internal/logger"
	"github.com/spigell/matchmate/internal/secrets"
)

const (
	quitCommand     = "/quit"
	suggestTimeout  = 30 * time.Second
	PromptSendIt    = "Send it"
	PromptSkipIt    = "Write my own"
	geminiKeyEnv    = "GEMINI_API_KEY"
	defaultProvider = "gemini"
)

var chatCmd = &cobra.Command{
	Use:   "chat <name>",
	Short: "Chat with a match",
	Args:  cobra.ExactArgs(1),
	RunE: withRuntime(func(rt *runtime, _ *cobra.Command, args []string) error {
		current, err := rt.requireSession()
		if err != nil {
			return err
		}
		return runChat(rt, current.Username, args[0], 0)
	}),
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

// runChat owns the room for as long as the conversation is on screen.
func runChat(rt *runtime, me, other string, score float64) error {
	log := logger.WithSession(rt.logger, me, other)

	room, err := chat.Open(rt.ctx, chat.Config{
		URL:      rt.config.chatURL(),
		RoomID:   chat.RoomID(me, other),
		Username: me,
		Token:    rt.session.Current().Token,
	}, log)
	if err != nil {
		return rt.fail(err, "Could not open the chat")
	}
	defer room.Close()

	rt.notify.Info("Chat with %s (type %s to leave)", other, quitCommand)

	printed := 0
	flush := func() {
		msgs := room.Messages()
		for _, msg := range msgs[printed:] {
			fmt.Fprintln(rt.out, formatMessage(msg, me))
		}
		printed = len(msgs)
	}

	if line := suggestOpening(rt, log, me, other, score); line != "" {
		if err := room.Send(line); err != nil {
			log.Warn("sending suggestion", zap.Error(err))
		}
	}

	lines := make(chan string)
	go readLines(os.Stdin, lines)

	for {
		select {
		case <-room.Updates():
			flush()
		case <-room.Done():
			flush()
			rt.notify.Info("Chat closed")
			return nil
		case <-rt.ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == quitCommand {
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := room.Send(line); err != nil {
				log.Warn("sending message", zap.Error(err))
			}
		}
	}
}

func readLines(r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

func formatMessage(msg chat.Message, me string) string {
	sender := msg.Sender
	switch sender {
	case "":
		sender = "server"
	case me:
		sender = "you"
	}

	stamp := ""
	if ts, err := time.Parse(time.RFC3339, msg.Timestamp); err == nil {
		stamp = "[" + ts.Local().Format("15:04") + "] "
	}
	return stamp + sender + ": " + msg.Text
}

// suggestOpening returns an opening line the user accepted, or "".
// Any failure only costs the suggestion.
func suggestOpening(rt *runtime, log *zap.Logger, me, other string, score float64) string {
	if !rt.config.AI.Enabled {
		return ""
	}

	suggester, err := newSuggester(rt.ctx, rt.config.AI, log)
	if err != nil {
		log.Warn("skipping icebreaker", zap.Error(err))
		return ""
	}

	mine, err := rt.api.GetProfile(me)
	if err != nil {
		log.Warn("skipping icebreaker", zap.Error(err))
		return ""
	}
	theirs, err := rt.api.GetProfile(other)
	if err != nil {
		log.Warn("skipping icebreaker", zap.Error(err))
		return ""
	}

	ctx, cancel := context.WithTimeout(rt.ctx, suggestTimeout)
	defer cancel()

	suggestion, err := suggester.Suggest(ctx, ai.Pair{Me: mine, Match: theirs, Score: score})
	if err != nil {
		log.Warn("skipping icebreaker", zap.Error(err))
		return ""
	}

	rt.notify.Info("💡 %s", suggestion.Line)
	choice, err := promptAsker{}.Choose("Start with this line?", []string{PromptSendIt, PromptSkipIt})
	if err != nil || choice != PromptSendIt {
		return ""
	}
	return suggestion.Line
}

func newSuggester(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Suggester, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != defaultProvider {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  geminiKeyEnv,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or %s)", err, geminiKeyEnv)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model)
	if err != nil {
		return nil, err
	}

	genLogger := logger.WithFields(log, logger.AIFields(defaultProvider, generator.Model())...)
	return gemini.NewIcebreaker(generator, genLogger, cfg.Gemini.MaxLogLength), nil
}
