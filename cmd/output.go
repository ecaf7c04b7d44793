// Copyright 2025 Antenore Gatta
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/antenore/discover/internal/ignore"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// printer writes verdicts, styled when the destination is a terminal.
type printer struct {
	out    io.Writer
	styled bool

	ignored lipgloss.Style
	kept    lipgloss.Style
	source  lipgloss.Style
	header  lipgloss.Style
}

func newPrinter(out io.Writer) *printer {
	return &printer{
		out:     out,
		styled:  isTerminal(out),
		ignored: lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		kept:    lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
		source:  lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

func (p *printer) line(s string) {
	fmt.Fprintln(p.out, s)
}

func (p *printer) heading(s string) {
	fmt.Fprintln(p.out, p.render(p.header, s))
}

// verdict prints one "ignored"/"kept" line for check.
func (p *printer) verdict(path string, ignored bool) {
	label := p.render(p.kept, "kept   ")
	if ignored {
		label = p.render(p.ignored, "ignored")
	}
	fmt.Fprintf(p.out, "%s  %s\n", label, path)
}

// explanation prints the rule deciding path, if any.
func (p *printer) explanation(path string, v ignore.Verdict, ok bool) {
	switch {
	case !ok:
		fmt.Fprintf(p.out, "%s  %s  %s\n", p.render(p.kept, "kept   "), path, p.render(p.source, "(no matching rule)"))
	case v.Ignored:
		fmt.Fprintf(p.out, "%s  %s  %s %s\n", p.render(p.ignored, "ignored"), path, v.Pattern, p.render(p.source, "("+v.Source+")"))
	default:
		fmt.Fprintf(p.out, "%s  %s  %s %s\n", p.render(p.kept, "kept   "), path, v.Pattern, p.render(p.source, "("+v.Source+")"))
	}
}

// rule prints one pattern with its source.
func (p *printer) rule(r ignore.Rule) {
	fmt.Fprintf(p.out, "%s %s\n", p.render(p.source, fmt.Sprintf("%-16s", r.Source)), r.Raw)
}
