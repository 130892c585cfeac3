package logger

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// CronLogger adapts a zerolog logger to robfig/cron's Logger interface so
// scheduler messages (skips, recovered panics) stay structured.
type CronLogger struct {
	l zerolog.Logger
}

func NewCronLogger(l zerolog.Logger) CronLogger {
	return CronLogger{l: l.With().Str("component", "cron").Logger()}
}

// Info logs at debug level; cron reports every schedule tick here.
func (c CronLogger) Info(msg string, keysAndValues ...any) {
	withFields(c.l.Debug(), keysAndValues).Msg(msg)
}

func (c CronLogger) Error(err error, msg string, keysAndValues ...any) {
	withFields(c.l.Error().Err(err), keysAndValues).Msg(msg)
}

func withFields(ev *zerolog.Event, kv []any) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		ev = ev.Interface(fmt.Sprint(kv[i]), kv[i+1])
	}
	if len(kv)%2 == 1 {
		ev = ev.Interface("extra", kv[len(kv)-1])
	}
	return ev
}

var _ cron.Logger = CronLogger{}
