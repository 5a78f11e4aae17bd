// Package notify turns command outcomes into short lines for the user.
//
// Failures never escape a command as panics or retries: they become one
// notification and the user decides what to do next.
package notify

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/matchmate/internal/backend"
	"github.com/spigell/matchmate/internal/profile"
)

const (
	prefixSuccess = "✅"
	prefixError   = "⚠️"
)

type Notifier struct {
	out    io.Writer
	logger *zap.Logger
}

func New(out io.Writer, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{out: out, logger: logger}
}

func (n *Notifier) Success(format string, args ...any) {
	n.print(prefixSuccess, fmt.Sprintf(format, args...))
}

func (n *Notifier) Info(format string, args ...any) {
	fmt.Fprintf(n.out, format+"\n", args...)
}

// Error reports err. Validation problems are listed, backend errors show their
// detail, anything else shows fallback. It returns the text shown.
func (n *Notifier) Error(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var validation *profile.ValidationError
	if errors.As(err, &validation) {
		return n.Validation(validation.Messages)
	}

	msg := backend.Message(err, fallback)
	n.logger.Debug("action failed", zap.Error(err))
	n.print(prefixError, msg)
	return msg
}

// Validation lists messages in one line. An empty list prints nothing.
func (n *Notifier) Validation(messages []string) string {
	if len(messages) == 0 {
		return ""
	}
	msg := (&profile.ValidationError{Messages: messages}).Error()
	n.print(prefixError, msg)
	return msg
}

func (n *Notifier) print(prefix, msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	fmt.Fprintf(n.out, "%s %s\n", prefix, msg)
}
