// Package logger configures the zerolog logger shared by the CLI and the
// library packages.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options control where and how log lines are written.
type Options struct {
	Debug bool
	// Out defaults to stderr.
	Out io.Writer
	// Console forces the human readable writer, otherwise it is used when
	// debugging or when Out is a terminal.
	Console bool
}

// Setup installs the global logger used by the library packages and returns
// it for command level logging.
func Setup(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()

	if opts.Console || opts.Debug || isTerminal(out) {
		logger = logger.Output(zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    !isTerminal(out),
			TimeFormat: time.TimeOnly,
		}).Level(level).With().Stack().Logger()
	}
	if opts.Debug {
		logger = logger.With().Caller().Logger()
	}

	log.Logger = logger

	return logger
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
