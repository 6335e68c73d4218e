package whatsapp

import (
	"github.com/rs/zerolog"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// zeroLogger routes whatsmeow's printf-style logging into zerolog.
// Library debug output is very chatty and goes to trace.
type zeroLogger struct {
	log    zerolog.Logger
	module string
}

func newLogger(log zerolog.Logger, module string) waLog.Logger {
	return zeroLogger{log: log.With().Str("module", module).Logger(), module: module}
}

func (l zeroLogger) Errorf(msg string, args ...interface{}) { l.log.Error().Msgf(msg, args...) }
func (l zeroLogger) Warnf(msg string, args ...interface{})  { l.log.Warn().Msgf(msg, args...) }
func (l zeroLogger) Infof(msg string, args ...interface{})  { l.log.Info().Msgf(msg, args...) }
func (l zeroLogger) Debugf(msg string, args ...interface{}) { l.log.Trace().Msgf(msg, args...) }

func (l zeroLogger) Sub(module string) waLog.Logger {
	full := l.module + "/" + module
	return zeroLogger{log: l.log.With().Str("module", full).Logger(), module: full}
}
