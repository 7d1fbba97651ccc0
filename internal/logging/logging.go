package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Init builds a logger writing to the given file. Stdout belongs to the TUI,
// so an empty path or an unwritable file degrades to a silent logger rather
// than failing startup.
func Init(level, file string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	if file == "" {
		log.SetOutput(io.Discard)
		return log
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		log.SetOutput(io.Discard)
		return log
	}
	out, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.SetOutput(io.Discard)
		return log
	}
	log.SetOutput(out)
	return log
}
