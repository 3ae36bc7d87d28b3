// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
	logMaxAgeDays = 28
)

// newLogger returns the CLI logger writing to w, and to a rotating logFile
// when one is configured. The returned func closes the log file.
func newLogger(w io.Writer, verbose bool, logFile string) (*log.Logger, func() error) {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}

	closeFn := func() error { return nil }
	if logFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
		}
		w = io.MultiWriter(w, rotating)
		closeFn = rotating.Close
	}

	logger := log.NewWithOptions(w, log.Options{
		Prefix: "loadgraph",
		Level:  level,
	})
	return logger, closeFn
}
