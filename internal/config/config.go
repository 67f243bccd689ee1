package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.lounge/config.toml.
type Config struct {
	DefaultProfile string      `toml:"default_profile"`
	Protocol       string      `toml:"protocol"`
	Credentials    Credentials `toml:"credentials"`
	Network        Network     `toml:"network"`
	UI             UI          `toml:"ui"`
}

// Credentials are the application credentials some protocols require.
type Credentials struct {
	APIID   int32  `toml:"api_id"`
	APIHash string `toml:"api_hash"`
}

// Network tunes the command worker and the protocol adapter.
type Network struct {
	QueueSize          int      `toml:"queue_size"`
	PollTimeout        Duration `toml:"poll_timeout"`
	AggregationTimeout Duration `toml:"aggregation_timeout"`
}

// UI tunes the host loop.
type UI struct {
	TickInterval Duration `toml:"tick_interval"`
	ChatLimit    int      `toml:"chat_limit"`
	HistoryLimit int      `toml:"history_limit"`
	MaxChats     int      `toml:"max_chats"`
}

// Duration is a time.Duration that reads and writes as "1s", "50ms", ...
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DefaultProfile: "main",
		Protocol:       "whatsapp",
		Network: Network{
			QueueSize:          256,
			PollTimeout:        Duration{time.Second},
			AggregationTimeout: Duration{2 * time.Minute},
		},
		UI: UI{
			TickInterval: Duration{50 * time.Millisecond},
			ChatLimit:    20,
			HistoryLimit: 30,
		},
	}
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault reads config from path, layered over Default. A missing file
// is not an error.
func LoadOrDefault(path string) (*Config, error) {
	cfg := Default()
	_, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
