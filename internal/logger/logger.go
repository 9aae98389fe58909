// Package logger builds the service's structured zerolog logger and the
// optional sink that ships log lines to a Loki endpoint.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a JSON logger writing to stdout and, when sink is non-nil, to
// the shipping sink as well.
func New(service string, sink io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var out io.Writer = os.Stdout
	if sink != nil {
		out = zerolog.MultiLevelWriter(os.Stdout, sink)
	}
	return zerolog.New(out).With().
		Timestamp().
		Str("service", service).
		Logger()
}
