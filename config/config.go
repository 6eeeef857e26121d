package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable for the assembler, API server and inspector.
type Config struct {
	Assembler AssemblerConfig `toml:"assembler"`
	API       APIConfig       `toml:"api"`
	Inspector InspectorConfig `toml:"inspector"`
	Trace     TraceConfig     `toml:"trace"`
}

// AssemblerConfig tunes encoder.State allocation and assembler.Program
// diagnostics.
type AssemblerConfig struct {
	MaxSections        int    `toml:"max_sections"`
	InitialBufCapacity int    `toml:"initial_buf_capacity"`
	MaxPCLabels        int    `toml:"max_pc_labels"`
	MaxGlobalLabels    int    `toml:"max_global_labels"`
	PoolWarnThreshold  int    `toml:"pool_warn_threshold"`
	DefaultEntry       string `toml:"default_entry"`
}

// APIConfig configures the live-session HTTP/websocket server.
type APIConfig struct {
	ListenAddr       string   `toml:"listen_addr"`
	AllowedOrigins   []string `toml:"allowed_origins"`
	SessionIdleTTL   int      `toml:"session_idle_ttl_seconds"`
	MaxSessions      int      `toml:"max_sessions"`
	WriteTimeoutSecs int      `toml:"write_timeout_seconds"`
}

// InspectorConfig tunes the read-only tcell/tview program inspector.
type InspectorConfig struct {
	ColorOutput   bool   `toml:"color_output"`
	BytesPerLine  int    `toml:"bytes_per_line"`
	SourceContext int    `toml:"source_context"`
	NumberFormat  string `toml:"number_format"` // hex, dec, both
}

// TraceConfig configures assembly-session diagnostics logging.
type TraceConfig struct {
	OutputFile    string `toml:"output_file"`
	IncludeOffset bool   `toml:"include_offset"`
	MaxEntries    int    `toml:"max_entries"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Assembler.MaxSections = 16
	cfg.Assembler.InitialBufCapacity = 16
	cfg.Assembler.MaxPCLabels = 64
	cfg.Assembler.MaxGlobalLabels = 64
	cfg.Assembler.PoolWarnThreshold = 48
	cfg.Assembler.DefaultEntry = "L1"

	cfg.API.ListenAddr = ":8420"
	cfg.API.AllowedOrigins = []string{"localhost", "127.0.0.1"}
	cfg.API.SessionIdleTTL = 1800
	cfg.API.MaxSessions = 64
	cfg.API.WriteTimeoutSecs = 10

	cfg.Inspector.ColorOutput = true
	cfg.Inspector.BytesPerLine = 16
	cfg.Inspector.SourceContext = 5
	cfg.Inspector.NumberFormat = "hex"

	cfg.Trace.OutputFile = "assembly-trace.log"
	cfg.Trace.IncludeOffset = true
	cfg.Trace.MaxEntries = 100000

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "dynasm-thumb2")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "dynasm-thumb2")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file, falling back to
// defaults for any field the file doesn't set.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
