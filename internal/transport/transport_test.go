package transport

import (
	"context"
	"strings"
	"testing"
)

func TestLocalExecEmptyCommand(t *testing.T) {
	l := NewLocal(DefaultOptions())
	if _, _, _, err := l.Exec(context.Background(), nil); err == nil {
		t.Error("Exec(nil): want error, got nil")
	}
}

func TestLocalExecEcho(t *testing.T) {
	l := NewLocal(DefaultOptions())
	code, stdout, _, err := l.Exec(context.Background(), []string{"echo", "hello"})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if strings.TrimSpace(stdout) != "hello" {
		t.Errorf("stdout = %q, want %q", stdout, "hello")
	}
}

func TestLocalExecNonZeroExit(t *testing.T) {
	l := NewLocal(DefaultOptions())
	code, _, _, err := l.Exec(context.Background(), []string{"false"})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if code == 0 {
		t.Error("exit code = 0, want non-zero")
	}
}
