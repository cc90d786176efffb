package logsvc

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/examprep/portal/core"
	"github.com/examprep/portal/core/session"
)

// ConsoleLogger writes structured lines through zerolog.
type ConsoleLogger struct {
	zl zerolog.Logger
}

var _ core.Logger = (*ConsoleLogger)(nil)

func NewConsoleLogger(zl zerolog.Logger) *ConsoleLogger {
	return &ConsoleLogger{zl: zl}
}

// NewWriterLogger logs to w, tagging every line with component; level defaults to debug when unparsable.
func NewWriterLogger(w io.Writer, component, level string) *ConsoleLogger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.DebugLevel
	}
	zl := zerolog.New(w).With().Timestamp().Str("component", component).Logger().Level(lvl)
	return NewConsoleLogger(zl)
}

// NewStdoutLogger is NewWriterLogger on os.Stdout.
func NewStdoutLogger(component, level string) *ConsoleLogger {
	return NewWriterLogger(os.Stdout, component, level)
}

// NewNopLogger discards everything, for tests.
func NewNopLogger() *ConsoleLogger {
	return NewConsoleLogger(zerolog.Nop())
}

// expected args: error, map[string]interface{}, session.Session; anything else is logged as-is
func (l ConsoleLogger) write(ev *zerolog.Event, msg string, args []interface{}) {
	var errs []error
	for _, arg := range args {
		switch a := arg.(type) {
		case nil:
		case error:
			errs = append(errs, a)
		case map[string]interface{}:
			ev = ev.Fields(a)
		case session.Session:
			if sub := a.Subject(); sub != "" {
				ev = ev.Str("subject", sub)
			}
		default:
			ev = ev.Interface("data", a)
		}
	}
	switch len(errs) {
	case 0:
	case 1:
		ev = ev.Err(errs[0])
	default:
		ev = ev.Errs("errors", errs)
	}
	ev.Msg(msg)
}

func (l ConsoleLogger) Debug(msg string, args ...interface{}) { l.write(l.zl.Debug(), msg, args) }
func (l ConsoleLogger) Info(msg string, args ...interface{})  { l.write(l.zl.Info(), msg, args) }
func (l ConsoleLogger) Warn(msg string, args ...interface{})  { l.write(l.zl.Warn(), msg, args) }
func (l ConsoleLogger) Error(msg string, args ...interface{}) { l.write(l.zl.Error(), msg, args) }
func (l ConsoleLogger) Fatal(msg string, args ...interface{}) { l.write(l.zl.Fatal(), msg, args) }
