package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Listen != "127.0.0.1:0" {
		t.Errorf("Expected default listen 127.0.0.1:0, got '%s'", cfg.Server.Listen)
	}
	if cfg.Server.BaseDir != "." {
		t.Errorf("Expected default base dir '.', got '%s'", cfg.Server.BaseDir)
	}
	if cfg.Preview.PanelMaxChars != 50000 {
		t.Errorf("Expected panel max chars 50000, got %d", cfg.Preview.PanelMaxChars)
	}
	if cfg.Preview.FloatingMaxChars != 200000 {
		t.Errorf("Expected floating max chars 200000, got %d", cfg.Preview.FloatingMaxChars)
	}
	if cfg.Preview.TableMaxRows != 1000 {
		t.Errorf("Expected table max rows 1000, got %d", cfg.Preview.TableMaxRows)
	}
	if cfg.UI.ThemePollInterval != 3*time.Second {
		t.Errorf("Expected theme poll interval 3s, got %v", cfg.UI.ThemePollInterval)
	}
	if cfg.UI.DefaultView != "list" {
		t.Errorf("Expected default view 'list', got '%s'", cfg.UI.DefaultView)
	}
	if !cfg.UI.UseTrash {
		t.Error("Expected use_trash to default to true")
	}
	if cfg.DataDir == "" {
		t.Error("Expected data dir to be filled in")
	}
	if cfg.Server.TrashDir != filepath.Join(cfg.DataDir, "trash") {
		t.Errorf("Expected trash dir under data dir, got '%s'", cfg.Server.TrashDir)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data-manager.yaml")
	content := `
data_dir: ` + dir + `
server:
  listen: 127.0.0.1:8188
  base_dir: /srv/comfy
ssh:
  connect_timeout: 5s
ui:
  locale: zh
  default_view: grid
preview:
  table_max_rows: 50
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Listen != "127.0.0.1:8188" {
		t.Errorf("Expected listen from file, got '%s'", cfg.Server.Listen)
	}
	if cfg.Server.BaseDir != "/srv/comfy" {
		t.Errorf("Expected base dir from file, got '%s'", cfg.Server.BaseDir)
	}
	if cfg.SSH.ConnectTimeout != 5*time.Second {
		t.Errorf("Expected 5s connect timeout, got %v", cfg.SSH.ConnectTimeout)
	}
	if cfg.UI.Locale != "zh" || cfg.UI.DefaultView != "grid" {
		t.Errorf("Expected zh/grid, got %s/%s", cfg.UI.Locale, cfg.UI.DefaultView)
	}
	if cfg.Preview.TableMaxRows != 50 {
		t.Errorf("Expected table max rows 50, got %d", cfg.Preview.TableMaxRows)
	}
	// Untouched keys keep their defaults
	if cfg.Preview.PanelMaxChars != 50000 {
		t.Errorf("Expected default panel max chars, got %d", cfg.Preview.PanelMaxChars)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte("data_dir: "+dir+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DM_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected env override 'debug', got '%s'", cfg.Log.Level)
	}
}

func TestLoadRejectsInvalidView(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte("ui:\n  default_view: tiles\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid default view")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing explicit config file")
	}
}
