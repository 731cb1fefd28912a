// Package logging configures the global zerolog logger: console plus a
// per-run log file, with every line passed through a redaction filter so
// credentials never reach a sink.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options controls logger setup.
type Options struct {
	// Dir is the log file directory. Empty disables the file sink.
	Dir   string
	Debug bool

	// Secrets are masked verbatim in addition to the pattern rules.
	Secrets []string
}

// Setup replaces the global logger with a redacted console writer and,
// when a directory is configured, a per-run JSON log file. The returned
// function closes the log file.
func Setup(opts Options) (func(), error) {
	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr}}
	closeFile := func() {}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		name := fmt.Sprintf("raintag_%s.log", time.Now().Format("20060102_150405"))
		file, err := os.OpenFile(filepath.Join(opts.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}

		writers = append(writers, file)
		closeFile = func() { file.Close() }
	}

	var out io.Writer = writers[0]
	if len(writers) > 1 {
		out = zerolog.MultiLevelWriter(writers...)
	}

	log.Logger = log.Output(NewRedactingWriter(out, opts.Secrets...))

	return closeFile, nil
}
