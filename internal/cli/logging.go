package cli

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"scenecore/internal/core"
)

// newLogger builds the process logger. Level comes from the --log-level flag
// with SCENECORE_LOG_LEVEL as fallback.
func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level == "" {
		level = os.Getenv("SCENECORE_LOG_LEVEL")
	}
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	return log
}

// logrusAdapter bridges a logrus logger to the engine's logging interface.
type logrusAdapter struct {
	log *logrus.Logger
}

func (a logrusAdapter) Debug(msg string, args ...any) { a.entry(args).Debug(msg) }
func (a logrusAdapter) Info(msg string, args ...any)  { a.entry(args).Info(msg) }
func (a logrusAdapter) Warn(msg string, args ...any)  { a.entry(args).Warn(msg) }
func (a logrusAdapter) Error(msg string, args ...any) { a.entry(args).Error(msg) }

func (a logrusAdapter) entry(args []any) *logrus.Entry {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		fields[key] = args[i+1]
	}
	return a.log.WithFields(fields)
}

var _ core.Logger = logrusAdapter{}
