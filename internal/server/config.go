package server

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"sigs.k8s.io/yaml"

	"DerivLex/internal/automaton"
)

// Duration is a time.Duration that reads and writes as a string such as
// "30s" in config files.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config configures the lexer service.
type Config struct {
	// Port is the TCP port to listen on.
	Port string `json:"port"`

	// DataDir holds compiled table files. Empty keeps lexers in memory only.
	DataDir string `json:"data_dir"`

	LogLevel string `json:"log_level"`

	// CacheSize is the number of compiled tables kept in the LRU.
	CacheSize int `json:"cache_size"`

	// MaxStates bounds the DFA size of a single lexer.
	MaxStates int `json:"max_states"`

	// MaxBodyBytes bounds request bodies, including scan input.
	MaxBodyBytes int64 `json:"max_body_bytes"`

	ReadTimeout  Duration `json:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout"`
	IdleTimeout  Duration `json:"idle_timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:         "8080",
		DataDir:      "data",
		LogLevel:     "info",
		CacheSize:    128,
		MaxStates:    automaton.MaxDFAStates,
		MaxBodyBytes: 4 << 20,
		ReadTimeout:  Duration(30 * time.Second),
		WriteTimeout: Duration(60 * time.Second),
		IdleTimeout:  Duration(120 * time.Second),
	}
}

// LoadConfig returns DefaultConfig overlaid with the YAML or JSON file at
// path, if path is not empty, and then with the environment.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from DERIVLEX_* variables looked up with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("DERIVLEX_PORT"); v != "" {
		c.Port = v
	}
	if v := getenv("DERIVLEX_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := getenv("DERIVLEX_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	for _, iv := range []struct {
		key string
		dst *int
	}{
		{"DERIVLEX_CACHE_SIZE", &c.CacheSize},
		{"DERIVLEX_MAX_STATES", &c.MaxStates},
	} {
		v := getenv(iv.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", iv.key, err)
		}
		*iv.dst = n
	}
	return nil
}
