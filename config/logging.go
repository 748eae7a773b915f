package config

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// LogWriter receives the standard logger, gorm and gin output.
var LogWriter io.Writer = os.Stdout

const defaultLogFile = "logs/referral-api.log"

// LogFilePath is LOG_FILE when set, logs/referral-api.log otherwise.
// The monitor routes tail the same file.
func LogFilePath() string {
	if p := strings.TrimSpace(os.Getenv("LOG_FILE")); p != "" {
		return filepath.Clean(p)
	}
	return filepath.FromSlash(defaultLogFile)
}

// InitLogging tees the standard logger to stdout and the log file. When the
// file cannot be opened logging stays on stdout and the returned file is nil.
// The caller closes the file.
func InitLogging() (*os.File, io.Writer) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetPrefix("[referral-api] ")

	path := LogFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("log dir %s: %v, logging to stdout only", filepath.Dir(path), err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("log file %s: %v, logging to stdout only", path, err)
		LogWriter = os.Stdout
	} else {
		LogWriter = io.MultiWriter(os.Stdout, file)
	}
	log.SetOutput(LogWriter)
	return file, LogWriter
}
