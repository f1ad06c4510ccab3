package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestConfigureJSON(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	Configure(l, &buf, Options{Level: "debug", Format: "json"})

	l.WithField("job_id", "abc").Debug("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "hello" {
		t.Errorf("expected msg hello, got %v", entry["msg"])
	}
	if entry["job_id"] != "abc" {
		t.Errorf("expected job_id abc, got %v", entry["job_id"])
	}
}

func TestConfigureInvalidLevel(t *testing.T) {
	l := logrus.New()
	Configure(l, &bytes.Buffer{}, Options{Level: "loud"})

	if l.GetLevel() != logrus.InfoLevel {
		t.Errorf("expected info level, got %s", l.GetLevel())
	}
}

func TestSetupCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	defer logrus.SetOutput(os.Stderr)

	closer, err := Setup(Options{Dir: dir, Level: "info"})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer closer.Close()

	logrus.Info("written to file")

	if _, err := os.Stat(filepath.Join(dir, "app.log")); err != nil {
		t.Errorf("expected log file to exist: %v", err)
	}
}
