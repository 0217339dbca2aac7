package cli

import (
	"io"

	"github.com/sirupsen/logrus"
)

// newLogger returns the diagnostics logger. It writes to errOut so stdout
// stays clean for command output.
func newLogger(errOut io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(errOut)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    true,
	})

	log.SetLevel(logrus.WarnLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	return log
}
