// Copyright (c) 2025 BVK Chaitanya

package cmdutil

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/visvasity/sglog"
)

type LogFlags struct {
	logDir   string
	logDebug bool
}

func (f *LogFlags) SetFlags(fset *flag.FlagSet) {
	fset.StringVar(&f.logDir, "log-dir", "", "directory for the log files (default <data-dir>/logs); - logs to stderr only")
	fset.BoolVar(&f.logDebug, "log-debug", false, "when true, debug messages are also logged")
}

// Setup installs the default slog logger. Returned function flushes the logs.
func (f *LogFlags) Setup(dataDir string) (func(), error) {
	if f.logDir == "-" {
		level := slog.LevelInfo
		if f.logDebug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return func() {}, nil
	}
	if len(f.logDir) == 0 {
		f.logDir = filepath.Join(dataDir, "logs")
	}
	if err := os.MkdirAll(f.logDir, 0700); err != nil {
		return nil, fmt.Errorf("could not create log directory %q: %w", f.logDir, err)
	}
	backend := sglog.NewBackend(&sglog.Options{
		LogDirs:    []string{f.logDir},
		LogLinkDir: f.logDir,
	})
	if f.logDebug {
		backend.SetLevel(slog.LevelDebug)
	}
	slog.SetDefault(slog.New(backend.Handler()))
	return backend.Close, nil
}
