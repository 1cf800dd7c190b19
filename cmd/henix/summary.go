// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/bureau-foundation/henix/lib/deploy"
	"github.com/bureau-foundation/henix/lib/journal"
)

// outputProfile picks the colour profile for file: the terminal's own
// when it is a terminal, plain ASCII otherwise.
func outputProfile(file *os.File) termenv.Profile {
	if !term.IsTerminal(int(file.Fd())) {
		return termenv.Ascii
	}
	return termenv.NewOutput(file).EnvColorProfile()
}

// renderSummary writes one row per node: name, outcome, duration, and
// for failures the stage and error. Rows follow the order of nodes.
func renderSummary(w io.Writer, profile termenv.Profile, run journal.Run) error {
	renderer := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	renderer.SetColorProfile(profile)

	header := renderer.NewStyle().Bold(true)
	succeeded := renderer.NewStyle().Foreground(lipgloss.Color("2"))
	failed := renderer.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dim := renderer.NewStyle().Faint(true)

	nameWidth := len("NODE")
	outcomeWidth := len("OUTCOME")
	for _, node := range run.Nodes {
		nameWidth = max(nameWidth, lipgloss.Width(node.Name))
		outcomeWidth = max(outcomeWidth, lipgloss.Width(node.Outcome))
	}
	nameColumn := renderer.NewStyle().Width(nameWidth + 2)
	outcomeColumn := renderer.NewStyle().Width(outcomeWidth + 2)
	durationColumn := renderer.NewStyle().Width(10)

	var builder strings.Builder
	title := fmt.Sprintf("henix %s", run.Mode)
	if run.ID != "" {
		title += " " + dim.Render("run "+run.ID)
	}
	builder.WriteString(title + "\n\n")
	builder.WriteString(header.Render(
		nameColumn.Render("NODE")+outcomeColumn.Render("OUTCOME")+durationColumn.Render("DURATION")+"DETAIL") + "\n")

	failures := 0
	for _, node := range run.Nodes {
		outcomeStyle := succeeded
		detail := ""
		if node.Failed() {
			failures++
			outcomeStyle = failed
			detail = nodeDetail(node)
		} else if node.Hash != "" {
			detail = dim.Render(shortHash(node.Hash))
		}
		if node.LinkError != "" {
			detail = strings.TrimSpace(detail + " link: " + node.LinkError)
		}
		builder.WriteString(nameColumn.Render(node.Name) +
			outcomeColumn.Render(outcomeStyle.Render(node.Outcome)) +
			durationColumn.Render(node.Duration.Round(100*time.Millisecond).String()) +
			detail + "\n")
	}

	builder.WriteString("\n")
	if len(run.Nodes) == 0 {
		builder.WriteString("no nodes deployed\n")
	} else if failures == 0 {
		builder.WriteString(succeeded.Render(fmt.Sprintf("%d of %d nodes succeeded", len(run.Nodes), len(run.Nodes))) + "\n")
	} else {
		builder.WriteString(failed.Render(fmt.Sprintf("%d of %d nodes failed", failures, len(run.Nodes))) + "\n")
	}

	_, err := io.WriteString(w, builder.String())
	return err
}

// nodeDetail describes a failed node: the stage it stopped at, the
// error, and any rollback error.
func nodeDetail(node journal.Node) string {
	var parts []string
	if node.Stage != "" && node.Stage != string(deploy.StageDone) {
		parts = append(parts, "at "+node.Stage)
	}
	if node.Error != "" {
		parts = append(parts, node.Error)
	}
	if node.RollbackError != "" {
		parts = append(parts, "rollback: "+node.RollbackError)
	}
	return strings.Join(parts, ": ")
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
