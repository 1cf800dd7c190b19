// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"io"
	"strings"

	"github.com/bureau-foundation/henix/lib/linemux"
)

// Command is one program invocation on the remote host.
type Command struct {
	// Name is the program to run, looked up on the remote PATH.
	Name string

	// Args are passed as separate words; each is shell-quoted.
	Args []string

	// Stdin, if set, is streamed to the remote process and then closed.
	Stdin io.Reader
}

// Shell returns a Command that runs script with "sh -c". Use it for
// pipelines and compound commands; values interpolated into script
// must be quoted with [Quote].
func Shell(script string) Command {
	return Command{Name: "sh", Args: []string{"-c", script}}
}

// String renders the command line sent to the remote shell.
func (c Command) String() string {
	words := make([]string, 0, len(c.Args)+1)
	words = append(words, Quote(c.Name))
	for _, arg := range c.Args {
		words = append(words, Quote(arg))
	}
	return strings.Join(words, " ")
}

// Quote returns s quoted for a POSIX shell. Words made only of
// characters that are never special are returned unchanged so log
// output stays readable.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, needsQuoting) == -1 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

func needsQuoting(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("_-./:@%+=,", r)
}

// Captured is the result of [Session.RunCaptured].
type Captured struct {
	Status linemux.ExitStatus
	Stdout []byte
	Stderr []byte
}
