package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(os.Stdout)

	defer SetLevel(GetLevel())
	SetLevel(Warning)

	logger := New("test")
	logger.Info("hidden message")
	logger.Warningf("visible %s", "warning")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Fatalf("expected info message to be filtered out; got %q", out)
	}
	if !strings.Contains(out, "visible warning") {
		t.Fatalf("expected warning message to be logged; got %q", out)
	}
	if !strings.Contains(out, "[test]") {
		t.Fatalf("expected log line to contain module name; got %q", out)
	}
}

func TestSetSinkKeepsLevel(t *testing.T) {
	defer SetLevel(GetLevel())
	SetLevel(Debug)

	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(os.Stdout)

	New("test").Debug("debug line")
	if !strings.Contains(buf.String(), "debug line") {
		t.Fatalf("expected debug output after sink change; got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	type spec struct {
		in    string
		exp   Level
		isErr bool
	}

	specs := []spec{
		{"debug", Debug, false},
		{"INFO", Info, false},
		{" notice ", Notice, false},
		{"Warning", Warning, false},
		{"error", Error, false},
		{"critical", Error, false},
		{"chatty", Notice, true},
	}

	for index, s := range specs {
		level, err := ParseLevel(s.in)
		if s.isErr {
			if err == nil {
				t.Fatalf("[spec %d] expected an error parsing %q", index, s.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", index, err)
		}
		if level != s.exp {
			t.Fatalf("[spec %d] expected level to be %s; got %s", index, s.exp, level)
		}
	}
}
