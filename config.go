package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ─── Config ──────────────────────────────────────────────────────────────────

const (
	defaultAPIBase      = "http://localhost:8000"
	defaultTimeout      = 30
	defaultPreviewChars = 600
	apiBaseEnv          = "MAILTRIAGE_API_BASE"
)

type config struct {
	APIBase        string `json:"api_base"`            // classifier backend, without trailing /analyze
	TimeoutSeconds int    `json:"timeout_seconds"`     // per-request timeout
	PreviewChars   int    `json:"preview_chars"`       // length of the extracted-text preview
	LogFile        string `json:"log_file,omitempty"`  // slog JSON output; empty = config dir default
	Installed      string `json:"installed,omitempty"` // RFC3339 timestamp of first setup
}

// newDefaultConfig returns a fresh default config.
func newDefaultConfig() config {
	return config{
		APIBase:        defaultAPIBase,
		TimeoutSeconds: defaultTimeout,
		PreviewChars:   defaultPreviewChars,
	}
}

func configPath() (string, error) {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(cfgDir, "mailtriage", "config.json"), nil
}

func (c config) timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// logPath returns the configured log file, defaulting to a file next to
// the config.
func (c config) logPath() string {
	if c.LogFile != "" {
		return expandHome(c.LogFile)
	}
	path, err := configPath()
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(path), "mailtriage.log")
}

// resolveAPIBase applies the override order: flag, environment, config file.
func resolveAPIBase(flag string, cfg config) string {
	for _, v := range []string{flag, os.Getenv(apiBaseEnv), cfg.APIBase} {
		if v = strings.TrimSpace(v); v != "" {
			return strings.TrimRight(v, "/")
		}
	}
	return defaultAPIBase
}

// expandHome expands a leading "~/" to the user's home directory.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// contractHome replaces the user's home directory prefix with "~/" for display.
func contractHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if rel, ok := strings.CutPrefix(path, home+string(filepath.Separator)); ok {
		return "~/" + rel
	}
	return path
}

// normalize fills zero values left by older or hand-edited config files.
func (c *config) normalize() {
	def := newDefaultConfig()
	if strings.TrimSpace(c.APIBase) == "" {
		c.APIBase = def.APIBase
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = def.TimeoutSeconds
	}
	if c.PreviewChars <= 0 {
		c.PreviewChars = def.PreviewChars
	}
}

// loadConfigRaw reads the config file without triggering first-time setup.
// Returns defaults if the file is missing or unreadable.
func loadConfigRaw() config {
	path, err := configPath()
	if err != nil {
		return newDefaultConfig()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return newDefaultConfig()
	}
	cfg := newDefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return newDefaultConfig()
	}
	cfg.normalize()
	return cfg
}

func loadConfig() config {
	path, err := configPath()
	if err != nil {
		return newDefaultConfig()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return setupConfig(path)
		}
		return newDefaultConfig()
	}
	cfg := newDefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: corrupt config (%v), using defaults. Run `mailtriage --setup` to fix.\n", err)
		return newDefaultConfig()
	}
	cfg.normalize()
	if cfg.Installed == "" {
		cfg.Installed = time.Now().Format(time.RFC3339)
		_ = saveConfig(path, cfg)
	}
	return cfg
}

func saveConfig(path string, cfg config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	// Atomic write: a crash mid-write can't leave a truncated config behind.
	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// setupConfig runs first-time setup when stdin is interactive. Piped or
// redirected stdin gets defaults without prompting.
func setupConfig(path string) config {
	cfg := newDefaultConfig()
	cfg.Installed = time.Now().Format(time.RFC3339)
	if fi, err := os.Stdin.Stat(); err != nil || fi.Mode()&os.ModeCharDevice == 0 {
		_ = saveConfig(path, cfg)
		return cfg
	}
	scanner := bufio.NewScanner(os.Stdin)
	showWelcome()
	return runSetup(path, cfg, scanner)
}

func showWelcome() {
	brand := lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	dim := lipgloss.NewStyle().Foreground(colorDim)
	key := lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	fmt.Println()
	fmt.Println("  " + brand.Render("mailtriage"))
	fmt.Println(dim.Render("  Classifica e-mails como produtivos ou improdutivos e sugere uma resposta."))
	fmt.Println()
	fmt.Println("  " + key.Render("tab") + dim.Render(" texto/arquivo   ") + key.Render("ctrl+s") + dim.Render(" analisar   ") + key.Render("ctrl+y") + dim.Render(" copiar resposta"))
	fmt.Println()
}

func runSetup(path string, current config, scanner *bufio.Scanner) config {
	promptStyle := lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	dimStyle := lipgloss.NewStyle().Foreground(colorDim)
	if scanner == nil {
		scanner = bufio.NewScanner(os.Stdin)
	}

	fmt.Println(promptStyle.Render("  mailtriage setup"))
	fmt.Println(dimStyle.Render("  Press enter to keep the current value."))
	fmt.Println()

	prompt := func(label, defVal string) string {
		fmt.Printf("%s %s: ", promptStyle.Render(label), dimStyle.Render("["+defVal+"]"))
		if scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				return line
			}
		}
		return defVal
	}
	promptInt := func(label string, defVal int) int {
		v := prompt(label, strconv.Itoa(defVal))
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			fmt.Println(dimStyle.Render("  Not a positive number, keeping " + strconv.Itoa(defVal)))
			return defVal
		}
		return n
	}

	cfg := current

	fmt.Println(dimStyle.Render("  Base URL of the classifier API (POST <url>/analyze)."))
	cfg.APIBase = strings.TrimRight(prompt("API base URL     ", current.APIBase), "/")
	fmt.Println()

	fmt.Println(dimStyle.Render("  Seconds to wait for the API before giving up."))
	cfg.TimeoutSeconds = promptInt("Request timeout  ", current.TimeoutSeconds)
	fmt.Println()

	fmt.Println(dimStyle.Render("  Characters of extracted file text shown as preview."))
	cfg.PreviewChars = promptInt("Preview length   ", current.PreviewChars)
	fmt.Println()

	if err := saveConfig(path, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save config: %v\n", err)
	} else {
		fmt.Printf("%s %s\n\n", dimStyle.Render("Saved to"), path)
	}
	return cfg
}
