// Package logging wraps the standard logger. Output goes to stderr until
// Setup routes it to a rotating file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/menta2k/photo-editor/internal/config"
)

var debug atomic.Bool

// Setup applies the logging configuration and returns the writer now in use.
// Closing a returned *lumberjack.Logger is the caller's job.
func Setup(cfg config.LoggingConfig) (io.Writer, error) {
	debug.Store(cfg.Debug)

	var out io.Writer = os.Stderr
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		out = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
	}

	log.SetOutput(out)
	flags := log.Ldate | log.Ltime
	if cfg.Debug {
		flags |= log.Lshortfile
	}
	log.SetFlags(flags)
	return out, nil
}

// SetDebug toggles Debug and Debugf output
func SetDebug(enabled bool) {
	debug.Store(enabled)
}

// DebugEnabled reports whether debug output is on
func DebugEnabled() bool {
	return debug.Load()
}

// Print calls the standard log.Print()
func Print(v ...interface{}) {
	log.Output(2, fmt.Sprint(v...))
}

// Printf calls the standard log.Printf()
func Printf(format string, v ...interface{}) {
	log.Output(2, fmt.Sprintf(format, v...))
}

// Println calls the standard log.Println()
func Println(v ...interface{}) {
	log.Output(2, fmt.Sprintln(v...))
}

// Fatalf calls the standard log.Fatalf()
func Fatalf(format string, v ...interface{}) {
	log.Output(2, fmt.Sprintf(format, v...))
	os.Exit(1)
}

// Debug calls the standard log.Print() with a [DEBUG] prefix
func Debug(v ...interface{}) {
	if debug.Load() {
		log.Output(2, "[DEBUG] "+fmt.Sprint(v...))
	}
}

// Debugf calls the standard log.Printf() with a [DEBUG] prefix
func Debugf(format string, v ...interface{}) {
	if debug.Load() {
		log.Output(2, "[DEBUG] "+fmt.Sprintf(format, v...))
	}
}
