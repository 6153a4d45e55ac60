// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package doctor

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spawn-dev/spawn/cmd/spawn/cli"
)

// Styles colours the status column. The zero value prints plain text.
type Styles struct {
	Status map[Status]lipgloss.Style
}

// ColorStyles returns the styles used when writing to a terminal.
func ColorStyles() Styles {
	return Styles{Status: map[Status]lipgloss.Style{
		StatusPass:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		StatusFixed: lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		StatusFail:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		StatusWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		StatusSkip:  lipgloss.NewStyle().Faint(true),
	}}
}

func (s Styles) render(status Status) string {
	label := fmt.Sprintf("[%-5s]", strings.ToUpper(string(status)))
	if style, ok := s.Status[status]; ok {
		return style.Render(label)
	}
	return label
}

// PrintChecklist writes results as a human-readable checklist followed
// by a summary line. It returns an *cli.ExitError with code 1 when any
// check failed.
func PrintChecklist(w io.Writer, results []Result, fixMode bool, styles Styles) error {
	fixable := 0
	fixed := 0
	for _, result := range results {
		fmt.Fprintf(w, "%s  %-32s  %s\n", styles.render(result.Status), result.Name, result.Message)
		switch result.Status {
		case StatusFail:
			if result.FixHint != "" {
				fixable++
				fmt.Fprintf(w, "         %-32s  fix: %s\n", "", result.FixHint)
			}
		case StatusFixed:
			fixed++
		}
	}
	fmt.Fprintln(w)

	if AnyFailed(results) {
		if !fixMode && fixable > 0 {
			fmt.Fprintf(w, "Run with --fix to repair %d issue(s).\n", fixable)
		} else {
			fmt.Fprintln(w, "Some checks failed.")
		}
		return &cli.ExitError{Code: 1}
	}
	if fixed > 0 {
		fmt.Fprintf(w, "%d issue(s) repaired.\n", fixed)
		return nil
	}
	fmt.Fprintln(w, "All checks passed.")
	return nil
}
