package main

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	tests := []struct {
		in, want string
	}{
		{"~/foo", filepath.Join(home, "foo")},
		{"~/mail/inbox.txt", filepath.Join(home, "mail/inbox.txt")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"~", "~"}, // no slash after ~, not expanded
	}
	for _, tt := range tests {
		got := expandHome(tt.in)
		if got != tt.want {
			t.Errorf("expandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContractHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := contractHome(filepath.Join(home, "mail", "a.pdf")); got != "~/mail/a.pdf" {
		t.Errorf("contractHome = %q, want ~/mail/a.pdf", got)
	}
	if got := contractHome("/elsewhere/a.pdf"); got != "/elsewhere/a.pdf" {
		t.Errorf("contractHome = %q, want path unchanged", got)
	}
}

func TestResolveAPIBasePrecedence(t *testing.T) {
	cfg := newDefaultConfig()
	cfg.APIBase = "http://from-config:8000"

	t.Setenv(apiBaseEnv, "")
	if got := resolveAPIBase("", cfg); got != "http://from-config:8000" {
		t.Errorf("config only: got %q", got)
	}

	t.Setenv(apiBaseEnv, "http://from-env:9000/")
	if got := resolveAPIBase("", cfg); got != "http://from-env:9000" {
		t.Errorf("env over config: got %q, want trailing slash trimmed", got)
	}
	if got := resolveAPIBase("  http://from-flag  ", cfg); got != "http://from-flag" {
		t.Errorf("flag over env: got %q", got)
	}

	t.Setenv(apiBaseEnv, "")
	if got := resolveAPIBase("", config{}); got != defaultAPIBase {
		t.Errorf("nothing set: got %q, want %q", got, defaultAPIBase)
	}
}

func TestNormalizeFillsZeroValues(t *testing.T) {
	cfg := config{APIBase: "  ", TimeoutSeconds: -1}
	cfg.normalize()
	def := newDefaultConfig()
	if cfg.APIBase != def.APIBase {
		t.Errorf("APIBase = %q, want %q", cfg.APIBase, def.APIBase)
	}
	if cfg.TimeoutSeconds != def.TimeoutSeconds {
		t.Errorf("TimeoutSeconds = %d, want %d", cfg.TimeoutSeconds, def.TimeoutSeconds)
	}
	if cfg.PreviewChars != def.PreviewChars {
		t.Errorf("PreviewChars = %d, want %d", cfg.PreviewChars, def.PreviewChars)
	}
	if cfg.timeout() != 30*time.Second {
		t.Errorf("timeout() = %v, want 30s", cfg.timeout())
	}
}

func TestLoadConfigSetsInstalledAndKeepsValues(t *testing.T) {
	cfgRoot := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgRoot)

	path, err := configPath()
	if err != nil {
		t.Fatalf("configPath: %v", err)
	}
	if err := saveConfig(path, config{
		APIBase:        "http://api.internal:8080",
		TimeoutSeconds: 5,
	}); err != nil {
		t.Fatalf("saveConfig: %v", err)
	}

	loaded := loadConfig()
	if loaded.APIBase != "http://api.internal:8080" {
		t.Fatalf("APIBase = %q", loaded.APIBase)
	}
	if loaded.TimeoutSeconds != 5 {
		t.Fatalf("TimeoutSeconds = %d, want 5", loaded.TimeoutSeconds)
	}
	if loaded.PreviewChars != defaultPreviewChars {
		t.Fatalf("PreviewChars = %d, want default %d", loaded.PreviewChars, defaultPreviewChars)
	}
	if loaded.Installed == "" {
		t.Fatal("Installed should be set when missing")
	}

	// Installed timestamp should be persisted to disk for future loads.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}
	var persisted config
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("unmarshal persisted config: %v", err)
	}
	if persisted.Installed == "" {
		t.Fatal("persisted Installed should not be empty")
	}
}

func TestLoadConfigRawMissingFile(t *testing.T) {
	cfgRoot := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgRoot)

	cfg := loadConfigRaw()
	if cfg.APIBase != newDefaultConfig().APIBase {
		t.Fatalf("loadConfigRaw with missing file: APIBase = %q, want default %q", cfg.APIBase, newDefaultConfig().APIBase)
	}
}

func TestLoadConfigRawDoesNotTriggerSetup(t *testing.T) {
	cfgRoot := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgRoot)

	cfg := loadConfigRaw()
	if cfg.Installed != "" {
		t.Fatalf("loadConfigRaw should not set Installed, got %q", cfg.Installed)
	}

	path, _ := configPath()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("loadConfigRaw should not create config file, but %s exists", path)
	}
}

func TestLoadConfigInvalidJSONFallsBackToDefaults(t *testing.T) {
	cfgRoot := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgRoot)

	path, err := configPath()
	if err != nil {
		t.Fatalf("configPath: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{invalid"), 0644); err != nil {
		t.Fatalf("write invalid config: %v", err)
	}

	loaded := loadConfig()
	def := newDefaultConfig()
	if loaded.APIBase != def.APIBase || loaded.TimeoutSeconds != def.TimeoutSeconds || loaded.PreviewChars != def.PreviewChars {
		t.Fatalf("loadConfig = %+v, want defaults %+v", loaded, def)
	}
}

func TestSaveConfigLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := saveConfig(path, newDefaultConfig()); err != nil {
		t.Fatalf("saveConfig: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "config.json" {
		t.Fatalf("dir entries = %v, want only config.json", entries)
	}
}

func TestRunSetupReadsAnswers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	answers := strings.Join([]string{"http://classifier:9000/", "", "abc"}, "\n") + "\n"
	scanner := bufio.NewScanner(strings.NewReader(answers))

	cfg := runSetup(path, newDefaultConfig(), scanner)
	if cfg.APIBase != "http://classifier:9000" {
		t.Errorf("APIBase = %q, want trailing slash trimmed", cfg.APIBase)
	}
	if cfg.TimeoutSeconds != defaultTimeout {
		t.Errorf("TimeoutSeconds = %d, want kept default", cfg.TimeoutSeconds)
	}
	if cfg.PreviewChars != defaultPreviewChars {
		t.Errorf("PreviewChars = %d, want default after invalid answer", cfg.PreviewChars)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config not saved: %v", err)
	}
}

func TestLogPathDefaultsNextToConfig(t *testing.T) {
	cfgRoot := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgRoot)

	want := filepath.Join(cfgRoot, "mailtriage", "mailtriage.log")
	if got := newDefaultConfig().logPath(); got != want {
		t.Errorf("logPath = %q, want %q", got, want)
	}
	cfg := config{LogFile: "/var/tmp/mt.log"}
	if got := cfg.logPath(); got != "/var/tmp/mt.log" {
		t.Errorf("logPath = %q, want configured file", got)
	}
}
