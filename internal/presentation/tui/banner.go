package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func profileFor(w io.Writer) termenv.Profile {
	if !IsTerminal(w) {
		return termenv.Ascii
	}
	return termenv.NewOutput(w).ColorProfile()
}

// PrintBanner writes the application title and version. Colors are only
// used when w is a terminal.
func PrintBanner(w io.Writer, title, version string) {
	bannerWithProfile(w, profileFor(w), title, version)
}

func bannerWithProfile(w io.Writer, p termenv.Profile, title, version string) {
	line := p.String(title).Foreground(p.Color("#818cf8")).Bold()
	fmt.Fprintln(w)
	if version == "" {
		fmt.Fprintln(w, line)
	} else {
		fmt.Fprintln(w, line, p.String("v"+version).Foreground(p.Color("#c084fc")))
	}
	fmt.Fprintln(w)
}

// PromptStyle returns a decorator for the console prompt, or nil when w is
// not a terminal.
func PromptStyle(w io.Writer) func(string) string {
	if !IsTerminal(w) {
		return nil
	}
	return promptStyleWithProfile(profileFor(w))
}

func promptStyleWithProfile(p termenv.Profile) func(string) string {
	return func(prompt string) string {
		return p.String(prompt).Foreground(p.Color("#a78bfa")).Bold().String()
	}
}
