package observability

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a text logger with full timestamps at the given level.
// An empty level means info.
func NewLogger(level string, output io.Writer) (*logrus.Logger, error) {
	if output == nil {
		output = os.Stderr
	}
	if level == "" {
		level = "info"
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	log := logrus.New()
	log.SetOutput(output)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return log, nil
}

// Discard returns a logger that drops everything. Loaders built for tests
// and short-lived tools use it to stay quiet.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
