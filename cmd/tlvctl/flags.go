package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danmuck/tlvcodec/internal/config"
	"github.com/danmuck/tlvcodec/internal/logging"
	"github.com/spf13/pflag"
)

var errNoInput = errors.New("no input: pass --hex or --in")

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
}

func newFlagSet(env *environment, name string, g *globalFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("tlvctl "+name, pflag.ContinueOnError)
	fs.SetOutput(env.stderr)
	fs.StringVar(&g.configPath, "config", "", "path to a tlvctl TOML config (defaults apply when empty)")
	fs.StringVar(&g.logLevel, "log-level", "", "override log.level")
	return fs
}

// setup resolves configuration and installs the process logger.
func (g *globalFlags) setup() (config.Config, error) {
	cfg := config.Default()
	if g.configPath != "" {
		loaded, err := config.Load(g.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
		if err := config.Validate(cfg); err != nil {
			return config.Config{}, err
		}
	}
	logging.ConfigureFrom(cfg.LoggingConfig())
	return cfg, nil
}

// inputFlags select where a command reads its payload from.
type inputFlags struct {
	hex string
	in  string
}

func (f *inputFlags) add(fs *pflag.FlagSet) {
	fs.StringVar(&f.hex, "hex", "", "payload as hex; spaces and 0x prefixes are ignored")
	fs.StringVar(&f.in, "in", "", "read the raw payload from a file, or - for stdin")
}

func (f *inputFlags) read(stdin io.Reader) ([]byte, error) {
	switch {
	case f.hex != "" && f.in != "":
		return nil, errors.New("--hex and --in are mutually exclusive")
	case f.hex != "":
		return decodeHex(f.hex)
	case f.in == "-":
		return io.ReadAll(stdin)
	case f.in != "":
		return os.ReadFile(f.in)
	default:
		return nil, errNoInput
	}
}

func decodeHex(s string) ([]byte, error) {
	var b strings.Builder
	for _, field := range strings.Fields(s) {
		field = strings.TrimPrefix(strings.TrimPrefix(field, "0x"), "0X")
		b.WriteString(field)
	}
	out, err := hex.DecodeString(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return out, nil
}

// writeOutput writes raw bytes to path, or spaced hex to w when path is empty.
func writeOutput(w io.Writer, path string, data []byte) error {
	if path != "" {
		return os.WriteFile(path, data, 0o644)
	}
	_, err := fmt.Fprintf(w, "% X\n", data)
	return err
}
