// Package logging configures the process-wide logrus logger.
//
// Setup is called once at startup. Logging is off unless enabled, in which case
// every entry down to trace level goes to a file under the user's home directory.
// The package owns the open file; there is no teardown, it is closed when the
// process exits or replaced by a later Setup.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// MaxLogSize is the size above which an existing log file is rotated at startup
const MaxLogSize = 10 * 1024 * 1024

// logFile is the file the standard logger currently writes to, nil when disabled
var logFile *os.File

// Setup directs the standard logger to path when enabled, or discards all output
// The terminal is never a log target
func Setup(enabled bool, path, level string) error {
	if !enabled {
		log.SetOutput(io.Discard)
		log.SetLevel(log.PanicLevel)
		swapFile(nil)
		return nil
	}

	lvl := log.TraceLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return errors.Wrap(err, "log level")
		}
		lvl = parsed
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create log dir")
	}

	if err := rotate(path); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, "open log file")
	}

	log.SetOutput(f)
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000000",
	})
	swapFile(f)

	return nil
}

// swapFile records f as the log file and closes the one it replaces
func swapFile(f *os.File) {
	prev := logFile
	logFile = f
	if prev != nil && prev != f {
		prev.Close()
	}
}

// rotate renames path to a timestamped sibling when it exceeds MaxLogSize
func rotate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "stat log file")
	}
	if info.Size() <= MaxLogSize {
		return nil
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	rotated := fmt.Sprintf("%s-%s%s", base, time.Now().Format("20060102-150405"), ext)

	if err := os.Rename(path, rotated); err != nil {
		return errors.Wrap(err, "rotate log file")
	}
	return nil
}
