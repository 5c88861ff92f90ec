package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
	"github.com/danmuck/tlvcodec/internal/testutil/testlog"
)

const appHex = "15 24 00 7B 2C 01 03 61 62 63 18"

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	env := &environment{stdin: strings.NewReader(""), stdout: &stdout, stderr: &stderr}
	err := run(env, args)
	return stdout.String(), err
}

func TestDecodeText(t *testing.T) {
	testlog.Start(t)
	out, err := runCmd(t, "decode", "--hex", appHex)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := "anonymous structure\n  0 uint8 123\n  1 utf8/1 \"abc\"\nend\n"
	if out != want {
		t.Fatalf("decode text:\n%q\nwant:\n%q", out, want)
	}
}

func TestDecodeJSONAndDiag(t *testing.T) {
	testlog.Start(t)
	out, err := runCmd(t, "decode", "--format", "json", "--hex", "0x15 0x24 0x00 0x7B 0x2C 0x01 0x03 0x61 0x62 0x63 0x18")
	if err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if out != "{\":STRUCT\":{\"0:UINT\":123,\"1:STRING\":\"abc\"}}\n" {
		t.Fatalf("decode json: %q", out)
	}

	out, err = runCmd(t, "decode", "--format", "diag", "--hex", appHex)
	if err != nil {
		t.Fatalf("decode diag: %v", err)
	}
	if out != "{0: 123, 1: \"abc\"}\n" {
		t.Fatalf("decode diag: %q", out)
	}

	if _, err := runCmd(t, "decode", "--format", "xml", "--hex", appHex); err == nil {
		t.Fatalf("unknown format should fail")
	}
}

func TestDecodeStruct(t *testing.T) {
	testlog.Start(t)
	out, err := runCmd(t, "decode", "--struct", "application", "--hex", appHex)
	if err != nil {
		t.Fatalf("decode struct: %v", err)
	}
	if !strings.Contains(out, "catalogVendorID : 123") || !strings.Contains(out, "applicationID : abc") {
		t.Fatalf("decode struct: %q", out)
	}

	_, err = runCmd(t, "decode", "--struct", "application", "--hex", "15 24 00 7B 18")
	if !errors.Is(err, tlv.ErrMissingField) {
		t.Fatalf("expected missing field, got %v", err)
	}
	if _, err := runCmd(t, "decode", "--struct", "nope", "--hex", appHex); err == nil {
		t.Fatalf("unknown structure should fail")
	}
}

func TestEncodeApp(t *testing.T) {
	testlog.Start(t)
	out, err := runCmd(t, "encode-app", "--vendor", "123", "--app-id", "abc")
	if err != nil {
		t.Fatalf("encode-app: %v", err)
	}
	if out != appHex+"\n" {
		t.Fatalf("encode-app: got %q", out)
	}

	out, err = runCmd(t, "encode-app", "--vendor", "1", "--app-id", "a", "--endpoint", "5")
	if err != nil {
		t.Fatalf("encode-app endpoint: %v", err)
	}
	if out != "15 35 00 24 00 01 2C 01 01 61 18 24 01 05 18\n" {
		t.Fatalf("encode-app endpoint: got %q", out)
	}

	if _, err := runCmd(t, "encode-app", "--vendor", "1"); err == nil {
		t.Fatalf("missing app id should fail")
	}
}

func TestFramedRoundTrip(t *testing.T) {
	testlog.Start(t)
	for _, compress := range []bool{false, true} {
		args := []string{"encode-app", "--vendor", "123", "--app-id", strings.Repeat("abc", 64), "--frame", "--message-id", "7"}
		if compress {
			args = append(args, "--compress")
		}
		framed, err := runCmd(t, args...)
		if err != nil {
			t.Fatalf("encode framed (compress=%v): %v", compress, err)
		}
		out, err := runCmd(t, "decode", "--frame", "--struct", "application", "--hex", framed)
		if err != nil {
			t.Fatalf("decode framed (compress=%v): %v", compress, err)
		}
		if !strings.Contains(out, "catalogVendorID : 123") {
			t.Fatalf("decode framed: %q", out)
		}
	}
}

func TestEncodeJSONFile(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "app.jsonc")
	body := "{\n  // ApplicationStruct\n  \":STRUCT\": {\"0:UINT\": 123, \"1:STRING\": \"abc\"},\n}\n"
	if err := os.WriteFile(src, []byte(body), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	out, err := runCmd(t, "encode-json", "--in", src)
	if err != nil {
		t.Fatalf("encode-json: %v", err)
	}
	if out != appHex+"\n" {
		t.Fatalf("encode-json: got %q", out)
	}

	bin := filepath.Join(dir, "app.tlv")
	if _, err := runCmd(t, "encode-json", "--in", src, "--out", bin); err != nil {
		t.Fatalf("encode-json --out: %v", err)
	}
	out, err = runCmd(t, "validate", "--in", bin)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if out != "ok: anonymous structure, 11 bytes\n" {
		t.Fatalf("validate: %q", out)
	}
}

func TestValidateRejectsTrailingBytes(t *testing.T) {
	testlog.Start(t)
	_, err := runCmd(t, "validate", "--hex", appHex+" 00")
	if !errors.Is(err, tlv.ErrInvalidLength) {
		t.Fatalf("expected invalid length, got %v", err)
	}
}

func TestInputSelection(t *testing.T) {
	testlog.Start(t)
	if _, err := runCmd(t, "decode"); !errors.Is(err, errNoInput) {
		t.Fatalf("expected no input error, got %v", err)
	}
	if _, err := runCmd(t, "decode", "--hex", appHex, "--in", "x"); err == nil {
		t.Fatalf("--hex with --in should fail")
	}
	if _, err := runCmd(t, "decode", "--hex", "zz"); err == nil {
		t.Fatalf("bad hex should fail")
	}
}

func TestConfigInitAndLoad(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "tlvctl.toml")
	if _, err := runCmd(t, "config-init", "--output", path); err != nil {
		t.Fatalf("config-init: %v", err)
	}
	if _, err := runCmd(t, "config-init", "--output", path); err == nil {
		t.Fatalf("config-init should refuse to overwrite")
	}
	if _, err := runCmd(t, "decode", "--config", path, "--hex", appHex); err != nil {
		t.Fatalf("decode with config: %v", err)
	}
	if _, err := runCmd(t, "decode", "--config", path, "--log-level", "loud", "--hex", appHex); err == nil {
		t.Fatalf("invalid log level should fail")
	}
}

func TestDispatch(t *testing.T) {
	testlog.Start(t)
	if _, err := runCmd(t); err == nil {
		t.Fatalf("missing command should fail")
	}
	if _, err := runCmd(t, "frobnicate"); err == nil {
		t.Fatalf("unknown command should fail")
	}
	out, err := runCmd(t, "help")
	if err != nil || !strings.Contains(out, "encode-json") {
		t.Fatalf("help: err=%v out=%q", err, out)
	}
	if _, err := runCmd(t, "decode", "--help"); err != nil {
		t.Fatalf("--help should not fail: %v", err)
	}
	out, err = runCmd(t, "structures")
	if err != nil || !strings.Contains(out, "playback-position") {
		t.Fatalf("structures: err=%v out=%q", err, out)
	}
}

func TestEncodeJSONKeepsExplicitWidths(t *testing.T) {
	testlog.Start(t)
	src := filepath.Join(t.TempDir(), "wide.json")
	if err := os.WriteFile(src, []byte(`{":STRUCT":{"0:UINT16":5,"1:STRING/2":"ab"}}`), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	out, err := runCmd(t, "encode-json", "--in", src)
	if err != nil {
		t.Fatalf("encode-json: %v", err)
	}
	if want := "15 25 00 05 00 2D 01 02 00 61 62 18\n"; out != want {
		t.Fatalf("encode-json: got %q want %q", out, want)
	}
}
