package config

import (
	"github.com/danmuck/tlvcodec/internal/logging"
	"github.com/danmuck/tlvcodec/internal/protocol/frame"
	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
)

func (c Config) TLVLimits() tlv.Limits {
	return tlv.Limits{
		MaxDepth:        c.Limits.MaxDepth,
		MaxStringLength: c.Limits.MaxStringLength,
	}
}

func (c Config) FrameLimits() frame.Limits {
	return frame.Limits{MaxPayloadBytes: c.Frame.MaxPayloadBytes}
}

// LoggingConfig layers the [log] section over the runtime profile.
func (c Config) LoggingConfig() logging.Config {
	cfg := logging.Defaults(logging.ProfileRuntime)
	if lvl, ok := logging.ParseLevel(c.Log.Level); ok {
		cfg.Level = lvl
	}
	cfg.Bypass = c.Log.Format == FormatJSON
	cfg.NoColor = c.Log.NoColor
	return cfg
}
