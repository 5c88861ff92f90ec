// tlvctl inspects and produces TLV payloads: it decodes raw or framed
// bytes into readable forms, encodes typed JSON and application
// structures, and can serve the same operations over HTTP.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/pflag"
)

type command struct {
	summary string
	run     func(env *environment, args []string) error
}

var commands = map[string]command{
	"decode":      {"decode a TLV payload (hex or binary) into text, json, yaml, cbor or diag", runDecode},
	"validate":    {"check that a payload is exactly one well-formed element", runValidate},
	"encode-json": {"encode typed JSON or JSONC into TLV", runEncodeJSON},
	"encode-app":  {"encode an ApplicationStruct", runEncodeApp},
	"structures":  {"list the structures decode --struct understands", runStructures},
	"config-init": {"write a commented default configuration file", runConfigInit},
	"serve":       {"run the HTTP inspection service", runServe},
}

// environment carries the process streams so commands stay testable.
type environment struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	env := &environment{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if err := run(env, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tlvctl: %v\n", err)
		os.Exit(1)
	}
}

func run(env *environment, args []string) error {
	if len(args) == 0 {
		printHelp(env.stderr)
		return errors.New("missing command")
	}
	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		printHelp(env.stdout)
		return nil
	}
	cmd, ok := commands[name]
	if !ok {
		printHelp(env.stderr)
		return fmt.Errorf("unknown command %q", name)
	}
	err := cmd.run(env, args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	return err
}

func printHelp(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "tlvctl: TLV payload inspector.\n\nUsage:\n  tlvctl <command> [flags]\n\nCommands:\n")
	for _, name := range names {
		fmt.Fprintf(w, "  %-12s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(w, "\nRun \"tlvctl <command> --help\" for command flags.\n")
}
