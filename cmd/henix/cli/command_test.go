// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

type observeParams struct {
	RemoteRoot string `flag:"remote-root" desc:"remote root" default:"/etc/henix"`
	Boot       bool   `flag:"boot" desc:"boot only"`
}

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "henix",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "deploy",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					called = "deploy"
					return nil
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"deploy"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "deploy" {
		t.Errorf("dispatched to %q, want %q", called, "deploy")
	}
}

func TestCommand_Execute_NestedSubcommands(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "henix",
		Subcommands: []*Command{
			{
				Name: "journal",
				Subcommands: []*Command{
					{
						Name: "show",
						Run: func(_ context.Context, args []string, _ *slog.Logger) error {
							called = "journal show"
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"journal", "show", "extra-arg"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "journal show" {
		t.Errorf("dispatched to %q, want %q", called, "journal show")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "extra-arg" {
		t.Errorf("args = %v, want [extra-arg]", receivedArgs)
	}
}

func TestCommand_Execute_ParamsPopulated(t *testing.T) {
	var params observeParams
	var positional []string

	command := &Command{
		Name:   "deploy",
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if logger == nil {
				t.Error("Run received a nil logger")
			}
			positional = args
			return nil
		},
	}

	err := command.Execute(context.Background(), []string{"--remote-root", "/srv/henix", "--boot", "web"})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if params.RemoteRoot != "/srv/henix" {
		t.Errorf("RemoteRoot = %q, want %q", params.RemoteRoot, "/srv/henix")
	}
	if !params.Boot {
		t.Error("Boot = false, want true")
	}
	if len(positional) != 1 || positional[0] != "web" {
		t.Errorf("args = %v, want [web]", positional)
	}
}

func TestCommand_Execute_InvalidLogLevel(t *testing.T) {
	var params struct {
		LogParams
	}
	ran := false
	command := &Command{
		Name:   "deploy",
		Params: func() any { return &params },
		Run: func(context.Context, []string, *slog.Logger) error {
			ran = true
			return nil
		},
	}

	err := command.Execute(context.Background(), []string{"--log-level", "chatty"})
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Category != CategoryValidation {
		t.Fatalf("Execute() error = %v, want validation ToolError", err)
	}
	if ran {
		t.Error("Run called despite invalid log level")
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name:   "deploy",
		Params: func() any { return &observeParams{} },
		Run:    func(context.Context, []string, *slog.Logger) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--remote-rot"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "did you mean --remote-root") {
		t.Errorf("error = %q, want suggestion for '--remote-root'", errStr)
	}
	if !strings.Contains(errStr, "--help") {
		t.Errorf("error = %q, should point to --help", errStr)
	}
}

func TestCommand_Execute_UnknownFlagNoSuggestion(t *testing.T) {
	command := &Command{
		Name:   "deploy",
		Params: func() any { return &observeParams{} },
		Run:    func(context.Context, []string, *slog.Logger) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--zzzzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not suggest for distant flag", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "henix",
		Subcommands: []*Command{
			{Name: "deploy"},
			{Name: "status"},
			{Name: "version"},
		},
	}

	err := root.Execute(context.Background(), []string{"deplyo"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), "did you mean \"deploy\"") {
		t.Errorf("error = %q, want suggestion for 'deploy'", err.Error())
	}
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Category != CategoryValidation {
		t.Errorf("error = %v, want validation ToolError", err)
	}
}

func TestCommand_Execute_UnknownSubcommandNoSuggestion(t *testing.T) {
	root := &Command{
		Name: "henix",
		Subcommands: []*Command{
			{Name: "deploy"},
			{Name: "status"},
		},
	}

	err := root.Execute(context.Background(), []string{"zzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not contain suggestion for distant input", err.Error())
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			root := &Command{
				Name:    "henix",
				Summary: "Deploy NixOS configurations over SSH",
				Subcommands: []*Command{
					{Name: "deploy", Summary: "Deploy the fleet"},
				},
			}

			if err := root.Execute(context.Background(), []string{helpArg}); err != nil {
				t.Errorf("Execute(%q) error: %v", helpArg, err)
			}
		})
	}
}

func TestCommand_Execute_NoArgsShowsHelp(t *testing.T) {
	root := &Command{
		Name: "henix",
		Subcommands: []*Command{
			{Name: "deploy", Summary: "Deploy the fleet"},
		},
	}

	err := root.Execute(context.Background(), []string{})
	if err == nil {
		t.Fatal("Execute() = nil, want error for missing subcommand")
	}
	if !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %q, want 'subcommand required'", err.Error())
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	command := &Command{
		Name:        "henix",
		Description: "Deploy NixOS configurations to a fleet over SSH.",
		Subcommands: []*Command{
			{Name: "deploy", Summary: "Copy, build, and activate configurations"},
			{Name: "status", Summary: "Show the last recorded run"},
		},
		Examples: []Example{
			{
				Description: "Deploy only the web node",
				Command:     "henix deploy --target web",
			},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"Deploy NixOS configurations to a fleet over SSH.",
		"Usage:",
		"henix <command> [flags]",
		"Commands:",
		"deploy",
		"Copy, build, and activate configurations",
		"Examples:",
		"# Deploy only the web node",
		"henix deploy --target web",
		"Run 'henix <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_PrintHelp_WithFlags(t *testing.T) {
	command := &Command{
		Name:    "deploy",
		Summary: "Deploy the fleet",
		Usage:   "henix deploy [flags]",
		Params:  func() any { return &observeParams{} },
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"henix deploy [flags]",
		"Flags:",
		"--remote-root",
		"/etc/henix",
		"--boot",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &Command{Name: "henix"}
	journal := &Command{Name: "journal", parent: root}
	show := &Command{Name: "show", parent: journal}

	if got := root.fullName(); got != "henix" {
		t.Errorf("root.fullName() = %q, want %q", got, "henix")
	}
	if got := show.fullName(); got != "henix journal show" {
		t.Errorf("show.fullName() = %q, want %q", got, "henix journal show")
	}
}
