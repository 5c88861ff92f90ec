package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/danmuck/tlvcodec/internal/clusters/application"
	"github.com/danmuck/tlvcodec/internal/config"
	"github.com/danmuck/tlvcodec/internal/protocol/frame"
	"github.com/danmuck/tlvcodec/internal/protocol/schema"
	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
	"github.com/danmuck/tlvcodec/internal/protocol/transcode"
	"github.com/danmuck/tlvcodec/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func runDecode(env *environment, args []string) error {
	var g globalFlags
	var in inputFlags
	var format, structure string
	var framed bool
	fs := newFlagSet(env, "decode", &g)
	in.add(fs)
	fs.StringVar(&format, "format", "text", "output format: text|json|yaml|cbor|diag")
	fs.StringVar(&structure, "struct", "", "decode as a named structure (see tlvctl structures)")
	fs.BoolVar(&framed, "frame", false, "input is a framed message")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := g.setup()
	if err != nil {
		return err
	}
	data, err := in.read(env.stdin)
	if err != nil {
		return err
	}
	if framed {
		if data, err = unframe(data, cfg); err != nil {
			return err
		}
	}

	if structure != "" {
		d, ok := application.DefaultRegistry().Resolve(structure)
		if !ok {
			return fmt.Errorf("unknown structure %q", structure)
		}
		v, err := d.Decode(data, cfg.TLVLimits())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(env.stdout, v.String())
		return err
	}

	e, err := tlv.ParseElement(data, cfg.TLVLimits())
	if err != nil {
		return err
	}
	out, err := render(e, format)
	if err != nil {
		return err
	}
	_, err = env.stdout.Write(out)
	return err
}

func render(e tlv.Element, format string) ([]byte, error) {
	switch format {
	case "text":
		return []byte(transcode.DumpString(e)), nil
	case "json":
		out, err := transcode.ToJSON(e)
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case "yaml":
		return transcode.ToYAML(e)
	case "cbor":
		return transcode.ToCBOR(e)
	case "diag":
		raw, err := transcode.ToCBOR(e)
		if err != nil {
			return nil, err
		}
		diag, err := transcode.Diagnose(raw)
		if err != nil {
			return nil, err
		}
		return []byte(diag + "\n"), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func unframe(data []byte, cfg config.Config) ([]byte, error) {
	br := bytes.NewReader(data)
	f, err := frame.ReadFrame(br, cfg.FrameLimits())
	if err != nil {
		return nil, err
	}
	if trailing := br.Len(); trailing > 0 {
		log.Warn().Int("bytes", trailing).Msg("ignoring bytes after frame")
	}
	log.Debug().
		Uint32("message_id", f.Header.MessageID).
		Uint16("flags", f.Header.Flags).
		Int("payload_len", len(f.Payload)).
		Msg("frame decoded")
	return f.Payload, nil
}

func runValidate(env *environment, args []string) error {
	var g globalFlags
	var in inputFlags
	var framed bool
	fs := newFlagSet(env, "validate", &g)
	in.add(fs)
	fs.BoolVar(&framed, "frame", false, "input is a framed message")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := g.setup()
	if err != nil {
		return err
	}
	data, err := in.read(env.stdin)
	if err != nil {
		return err
	}
	if framed {
		if data, err = unframe(data, cfg); err != nil {
			return err
		}
	}
	e, err := tlv.ParseElement(data, cfg.TLVLimits())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(env.stdout, "ok: %s %s, %d bytes\n", e.Tag, e.Type, len(data))
	return err
}

// outputFlags control how encoders emit their result.
type outputFlags struct {
	out       string
	framed    bool
	messageID uint32
	compress  bool
}

func (o *outputFlags) add(fs *pflag.FlagSet) {
	fs.StringVar(&o.out, "out", "", "write raw bytes to this file instead of hex to stdout")
	fs.BoolVar(&o.framed, "frame", false, "wrap the payload in a frame")
	fs.Uint32Var(&o.messageID, "message-id", 1, "frame message id")
	fs.BoolVar(&o.compress, "compress", false, "zstd-compress the framed payload (also frame.compress in config)")
}

func (o *outputFlags) emit(env *environment, cfg config.Config, payload []byte) error {
	if !o.framed {
		return writeOutput(env.stdout, o.out, payload)
	}
	f := frame.New(o.messageID, 0, payload)
	if o.compress || cfg.Frame.Compress {
		f = frame.Compress(f)
	}
	var buf bytes.Buffer
	if err := frame.WriteFrame(&buf, f, cfg.FrameLimits()); err != nil {
		return err
	}
	return writeOutput(env.stdout, o.out, buf.Bytes())
}

func runEncodeJSON(env *environment, args []string) error {
	var g globalFlags
	var in inputFlags
	var o outputFlags
	fs := newFlagSet(env, "encode-json", &g)
	fs.StringVar(&in.in, "in", "", "typed JSON or JSONC file, or - for stdin")
	o.add(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := g.setup()
	if err != nil {
		return err
	}
	src, err := in.read(env.stdin)
	if err != nil {
		return err
	}
	e, err := transcode.FromJSON(src)
	if err != nil {
		return err
	}
	w := tlv.NewWriter(cfg.TLVLimits())
	if err := tlv.WriteElement(w, e); err != nil {
		return err
	}
	payload, err := w.Finish()
	if err != nil {
		return err
	}
	return o.emit(env, cfg, payload)
}

func runEncodeApp(env *environment, args []string) error {
	var g globalFlags
	var o outputFlags
	var vendor, endpoint uint16
	var appID string
	fs := newFlagSet(env, "encode-app", &g)
	fs.Uint16Var(&vendor, "vendor", 0, "catalog vendor id")
	fs.StringVar(&appID, "app-id", "", "application id")
	fs.Uint16Var(&endpoint, "endpoint", 0, "endpoint; encodes an ApplicationEPStruct when set")
	o.add(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if appID == "" {
		return errors.New("--app-id is required")
	}
	cfg, err := g.setup()
	if err != nil {
		return err
	}

	app := application.ApplicationStruct{CatalogVendorID: vendor, ApplicationID: appID}
	var payload []byte
	if fs.Changed("endpoint") {
		ep := application.ApplicationEPStruct{Application: app, Endpoint: &endpoint}
		payload, err = schema.MarshalLimits(application.ApplicationEPCodec(), ep, cfg.TLVLimits())
	} else {
		payload, err = schema.MarshalLimits(application.ApplicationCodec(), app, cfg.TLVLimits())
	}
	if err != nil {
		return err
	}
	return o.emit(env, cfg, payload)
}

func runStructures(env *environment, args []string) error {
	var g globalFlags
	fs := newFlagSet(env, "structures", &g)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := g.setup(); err != nil {
		return err
	}
	for _, d := range application.DefaultRegistry().List() {
		fmt.Fprintf(env.stdout, "%-18s %s\n", d.Name, d.Description)
		for _, name := range d.FieldNames() {
			fmt.Fprintf(env.stdout, "  %s\n", name)
		}
	}
	return nil
}

func runConfigInit(env *environment, args []string) error {
	var output string
	var force bool
	fs := newFlagSet(env, "config-init", &globalFlags{})
	fs.StringVar(&output, "output", "tlvctl.toml", "where to write the template")
	fs.BoolVar(&force, "force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := config.WriteTemplate(output, force); err != nil {
		return err
	}
	_, err := fmt.Fprintf(env.stdout, "wrote config template to %s\n", output)
	return err
}

func runServe(env *environment, args []string) error {
	var g globalFlags
	var addr string
	fs := newFlagSet(env, "serve", &g)
	fs.StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := g.setup()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := server.New(server.Config{
		Name:        "tlvctl",
		Addr:        cfg.Server.Addr,
		CorsOrigins: cfg.Server.CorsOrigins,
		TLVLimits:   cfg.TLVLimits(),
		FrameLimits: cfg.FrameLimits(),
		Registry:    application.DefaultRegistry(),
	})
	return svc.Run(ctx)
}
