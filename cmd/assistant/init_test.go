package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/defaults"
)

// clearUmask sets the process umask to 0 so file permission assertions
// are deterministic.
func clearUmask(t *testing.T) {
	t.Helper()
	old := syscall.Umask(0)
	t.Cleanup(func() { syscall.Umask(old) })
}

func TestRunInit_FreshDirectory(t *testing.T) {
	clearUmask(t)
	dir := t.TempDir()
	var buf bytes.Buffer

	if err := runInit(&buf, dir); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "data"))
	if err != nil || !info.IsDir() {
		t.Errorf("data directory not created: %v", err)
	}

	cfgPath := filepath.Join(dir, "config.yaml")
	cfgInfo, err := os.Stat(cfgPath)
	if err != nil {
		t.Fatalf("config.yaml not created: %v", err)
	}
	if got := cfgInfo.Mode().Perm(); got != 0o600 {
		t.Errorf("config.yaml permissions = %o, want 0600", got)
	}
	content, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(content, defaults.ConfigYAML) {
		t.Error("config.yaml does not match the embedded example")
	}
	if !strings.Contains(buf.String(), "✓") {
		t.Errorf("output:\n%s", buf.String())
	}
}

func TestRunInit_KeepsExistingConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	custom := []byte("assistant:\n  name: Jarvis\n")
	if err := os.WriteFile(cfgPath, custom, 0o600); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := runInit(&buf, dir); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	got, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, custom) {
		t.Errorf("config.yaml overwritten: %q", got)
	}
	if !strings.Contains(buf.String(), "exists, kept") {
		t.Errorf("output:\n%s", buf.String())
	}
}
