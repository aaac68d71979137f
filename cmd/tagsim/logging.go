package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tagsim/internal/config"
)

// logLevel resolves the level from the flag, then $LOG_LEVEL, then info.
func logLevel(flag string) (log.Level, error) {
	name := strings.TrimSpace(flag)
	if name == "" {
		name = strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	}
	if name == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(strings.ToLower(name))
	if err != nil {
		return log.InfoLevel, &config.ValidationError{Problems: []string{
			fmt.Sprintf("unknown log level %q", name),
		}}
	}
	return lvl, nil
}

// newLogger builds the process logger. Logs go to --log-file when set;
// otherwise to stderr, unless quiet is set, in which case they are dropped.
// The returned close function releases the log file.
func newLogger(quiet bool) (*log.Logger, func() error, error) {
	lvl, err := logLevel(flagLogLevel)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = os.Stderr
	closeFn := func() error { return nil }
	switch {
	case flagLogFile != "":
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closeFn = f.Close
	case quiet:
		out = io.Discard
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Prefix:          "tagsim",
		Level:           lvl,
	})
	return logger, closeFn, nil
}
