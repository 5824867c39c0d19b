package defaults

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/examples"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/config"
)

func TestConfigYAML_MatchesExample(t *testing.T) {
	if !bytes.Equal(ConfigYAML, examples.ConfigYAML) {
		t.Error("embedded config differs from examples/config.example.yaml; run go generate ./internal/defaults")
	}
}

func TestConfigYAML_LoadsAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, ConfigYAML, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Assistant.Name != "Puneeth" || cfg.Speech.Mode != "typed" {
		t.Errorf("assistant = %+v, speech mode = %q", cfg.Assistant, cfg.Speech.Mode)
	}
	if len(cfg.Launcher.Websites) != 2 {
		t.Errorf("websites = %+v", cfg.Launcher.Websites)
	}
}
