package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

func (k statusKind) label() string {
	switch k {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (k statusKind) color() string {
	switch k {
	case statusOK:
		return "\x1b[32m"
	case statusWarn:
		return "\x1b[33m"
	case statusError:
		return "\x1b[31m"
	default:
		return "\x1b[34m"
	}
}

const ansiReset = "\x1b[0m"

// renderStatusLine formats one readiness check as
//
//	  <label>:           [OK] detail
//
// colorized by kind when the output is a terminal.
func renderStatusLine(label string, kind statusKind, detail string, colorize bool) string {
	status := "[" + kind.label() + "]"
	if detail != "" {
		status += " " + detail
	}
	line := fmt.Sprintf("  %-20s %s", label+":", status)
	if !colorize {
		return line
	}
	return kind.color() + line + ansiReset
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(heading))
	if colorize {
		blue := statusInfo.color()
		heading = blue + heading + ansiReset
		rule = blue + rule + ansiReset
	}
	return []string{heading, rule}
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
