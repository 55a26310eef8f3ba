// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
)

// Subcommand names.
const (
	CommandCheck           = "check"
	CommandNormalize       = "normalize"
	CommandCompare         = "compare"
	CommandPull            = "pull"
	CommandPushTranslation = "push-translation"
	CommandPushResource    = "push-resource"
)

var commands = []string{
	CommandCheck,
	CommandNormalize,
	CommandCompare,
	CommandPull,
	CommandPushTranslation,
	CommandPushResource,
}

var (
	errNoCommand      = errors.New("no command given")
	errUnknownCommand = errors.New("unknown command")
	errDomainRequired = errors.New("push-resource requires -domain")
)

// CommandLine is the parsed command line.
type CommandLine struct {
	Command    string
	ConfigFile string

	// DryRun is nil when -dryrun was not given, leaving the configured value.
	DryRun *bool

	// Domain limits processing to one resource slug.
	Domain string
	// Language limits processing to one site language code.
	Language string

	Force     bool
	ColorDiff bool
}

// Usage writes the command synopsis to w.
func Usage(w io.Writer) {
	fmt.Fprintf(w, "usage: txsync [-config file] <command> [flags]\n\ncommands:\n")

	for _, name := range commands {
		fmt.Fprintf(w, "  %s\n", name)
	}
}

// ParseCommandLine parses the program arguments, excluding the program name.
//
// Global flags precede the command; command flags follow it.
func ParseCommandLine(args []string, output io.Writer) (CommandLine, error) {
	var cl CommandLine

	global := flag.NewFlagSet("txsync", flag.ContinueOnError)
	global.SetOutput(output)
	global.StringVar(&cl.ConfigFile, "config", "", "Path to a txsync configuration file in YAML or TOML format.")
	global.Usage = func() { Usage(output) }

	if err := global.Parse(args); err != nil {
		return cl, err
	}

	rest := global.Args()
	if len(rest) == 0 {
		return cl, errNoCommand
	}

	cl.Command = rest[0]
	if !slices.Contains(commands, cl.Command) {
		return cl, fmt.Errorf("%w: %q", errUnknownCommand, cl.Command)
	}

	fs := flag.NewFlagSet(cl.Command, flag.ContinueOnError)
	fs.SetOutput(output)

	dryRun := fs.Bool("dryrun", true, "Log mutating actions instead of performing them.")

	fs.StringVar(&cl.Domain, "domain", "", "Limit processing to one resource slug.")
	fs.StringVar(&cl.Language, "language", "", "Limit processing to one language code.")

	if cl.Command == CommandCompare {
		fs.BoolVar(&cl.Force, "force", false, "Compare entries even when metadata is identical.")
		fs.BoolVar(&cl.ColorDiff, "colordiff", IsTerminal(), "Colourize entry diffs.")
	}

	if err := fs.Parse(rest[1:]); err != nil {
		return cl, err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "dryrun" {
			cl.DryRun = dryRun
		}
	})

	if cl.Command == CommandPushResource && cl.Domain == "" {
		return cl, errDomainRequired
	}

	return cl, nil
}

// Apply overrides configuration values with command-line flags.
func (cl CommandLine) Apply(cfg *Config) {
	if cl.DryRun != nil {
		cfg.Sync.DryRun = *cl.DryRun
	}
}
