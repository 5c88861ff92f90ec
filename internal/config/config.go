package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/tlvcodec/internal/logging"
	"github.com/danmuck/tlvcodec/internal/protocol/frame"
	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"

	maxDepthCeiling = 1024
)

// Config is the resolved tool configuration.
type Config struct {
	Limits LimitsConfig `toml:"limits"`
	Frame  FrameConfig  `toml:"frame"`
	Log    LogConfig    `toml:"log"`
	Server ServerConfig `toml:"server"`
}

type LimitsConfig struct {
	MaxDepth        int    `toml:"max_depth"`
	MaxStringLength uint64 `toml:"max_string_length"`
}

type FrameConfig struct {
	MaxPayloadBytes uint32 `toml:"max_payload_bytes"`
	Compress        bool   `toml:"compress"`
}

type ServerConfig struct {
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
}

type LogConfig struct {
	Level   string `toml:"level"`
	Format  string `toml:"format"`
	NoColor bool   `toml:"no_color"`
}

// Default mirrors the codec and frame package defaults.
func Default() Config {
	limits := tlv.DefaultLimits()
	return Config{
		Limits: LimitsConfig{
			MaxDepth:        limits.MaxDepth,
			MaxStringLength: limits.MaxStringLength,
		},
		Frame: FrameConfig{
			MaxPayloadBytes: frame.DefaultLimits().MaxPayloadBytes,
		},
		Log: LogConfig{
			Level:  "info",
			Format: FormatConsole,
		},
		Server: ServerConfig{
			Addr:        "127.0.0.1:7420",
			CorsOrigins: []string{"http://localhost:3000"},
		},
	}
}

// Load reads path over Default. Only keys present in the file override
// defaults; unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw Config
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config parse failed (%s): unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if meta.IsDefined("limits", "max_depth") {
		cfg.Limits.MaxDepth = raw.Limits.MaxDepth
	}
	if meta.IsDefined("limits", "max_string_length") {
		cfg.Limits.MaxStringLength = raw.Limits.MaxStringLength
	}
	if meta.IsDefined("frame", "max_payload_bytes") {
		cfg.Frame.MaxPayloadBytes = raw.Frame.MaxPayloadBytes
	}
	if meta.IsDefined("frame", "compress") {
		cfg.Frame.Compress = raw.Frame.Compress
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "format") {
		cfg.Log.Format = strings.ToLower(strings.TrimSpace(raw.Log.Format))
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}
	if meta.IsDefined("server", "addr") {
		cfg.Server.Addr = strings.TrimSpace(raw.Server.Addr)
	}
	if meta.IsDefined("server", "cors_origins") {
		cfg.Server.CorsOrigins = raw.Server.CorsOrigins
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if cfg.Limits.MaxDepth < 1 || cfg.Limits.MaxDepth > maxDepthCeiling {
		return fmt.Errorf("limits.max_depth must be in [1, %d], got %d", maxDepthCeiling, cfg.Limits.MaxDepth)
	}
	if cfg.Limits.MaxStringLength == 0 {
		return fmt.Errorf("limits.max_string_length must be positive")
	}
	if cfg.Frame.MaxPayloadBytes == 0 {
		return fmt.Errorf("frame.max_payload_bytes must be positive")
	}
	if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
		return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case FormatConsole, FormatJSON:
	default:
		return fmt.Errorf("log.format must be %q or %q, got %q", FormatConsole, FormatJSON, cfg.Log.Format)
	}
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	return nil
}
