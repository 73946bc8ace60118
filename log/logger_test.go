package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLoggerLevels(tst *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("assetdb", Warn, &buf)

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	l.Warn("warn %d", 3)
	l.Error("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		tst.Errorf("Expected debug and info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "WARN  [assetdb] warn 3") {
		tst.Errorf("Expected warn line, got %q", out)
	}
	if !strings.Contains(out, "ERROR [assetdb] error 4") {
		tst.Errorf("Expected error line, got %q", out)
	}
}

func TestLoggerNamed(tst *testing.T) {
	var buf bytes.Buffer
	root := NewWriterLogger("assetdb", Debug, &buf)
	child := root.Named("registry").Named("scripts")

	if child.Name != "assetdb/registry/scripts" {
		tst.Fatalf("Expected joined name, got '%s'", child.Name)
	}

	child.Info("hello")
	if !strings.Contains(buf.String(), "[assetdb/registry/scripts] hello") {
		tst.Errorf("Expected child to share writer, got %q", buf.String())
	}

	if NewWriterLogger("", Debug, &buf).Named("x").Name != "x" {
		tst.Errorf("Expected unnamed parent to produce bare child name")
	}
}

func TestLoggerJSON(tst *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("metadata", Debug, &buf)
	l.JSON = true

	l.Info("stored %s", "Assets/a.png")

	var entry logEntry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		tst.Fatalf("Expected valid json, got error: %v", err)
	}
	if entry.Level != "INFO" || entry.Component != "metadata" || entry.Message != "stored Assets/a.png" {
		tst.Errorf("Unexpected entry: %+v", entry)
	}
}

func TestParse(tst *testing.T) {
	cases := map[string]LogLevel{
		"debug":   Debug,
		"INFO":    Info,
		"warning": Warn,
		"Error":   Error,
		"fatal":   Fatal,
		"":        Info,
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			tst.Errorf("Expected no error for '%s', got %v", in, err)
		}
		if got != want {
			tst.Errorf("Expected %s for '%s', got %s", want, in, got)
		}
	}

	if _, err := Parse("loud"); err == nil {
		tst.Errorf("Expected error for invalid level")
	}
}
