package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitLoggingWritesToLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "api.log")
	t.Setenv("LOG_FILE", path)
	defer func() {
		log.SetOutput(os.Stderr)
		log.SetPrefix("")
		log.SetFlags(log.LstdFlags)
		LogWriter = os.Stdout
	}()

	if got := LogFilePath(); got != path {
		t.Fatalf("LogFilePath = %q, want %q", got, path)
	}

	file, _ := InitLogging()
	if file == nil {
		t.Fatal("log file was not opened")
	}
	log.Print("referral 7 submitted")
	file.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "[referral-api] ") || !strings.Contains(string(data), "referral 7 submitted") {
		t.Fatalf("log contents = %q", data)
	}
}

func TestLogFilePathDefault(t *testing.T) {
	t.Setenv("LOG_FILE", "")
	if got := LogFilePath(); got != filepath.FromSlash("logs/referral-api.log") {
		t.Fatalf("LogFilePath = %q", got)
	}
}
