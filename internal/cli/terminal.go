package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/vijay-prabhu/researchdesk/internal/pipeline"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
	ColorGray   = "\033[90m"
)

// Spinner frames for animated progress
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Terminal provides terminal-aware output utilities.
// Progress goes to stderr so piped results stay clean.
type Terminal struct {
	IsTerminal   bool
	UseColor     bool
	out          io.Writer
	spinnerIndex int
}

// NewTerminal creates a new Terminal writing to stderr
func NewTerminal() *Terminal {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))
	return &Terminal{
		IsTerminal: isTerminal,
		UseColor:   isTerminal, // Only use color in terminal
		out:        os.Stderr,
	}
}

// ClearLine clears the current line (terminal only)
func (t *Terminal) ClearLine() {
	if t.IsTerminal {
		fmt.Fprint(t.out, "\r\033[K")
	}
}

// Spinner returns the next spinner frame
func (t *Terminal) Spinner() string {
	if !t.IsTerminal {
		return ""
	}
	frame := spinnerFrames[t.spinnerIndex]
	t.spinnerIndex = (t.spinnerIndex + 1) % len(spinnerFrames)
	return frame
}

// Color wraps text in ANSI color codes (terminal only)
func (t *Terminal) Color(color, text string) string {
	if !t.UseColor {
		return text
	}
	return color + text + ColorReset
}

// Progress returns a callback that renders pipeline progress. In a terminal
// the line is redrawn in place; otherwise one line is printed per phase.
func (t *Terminal) Progress() pipeline.ProgressCallback {
	var lastPhase pipeline.Phase
	return func(p pipeline.Progress) {
		msg := t.Color(PhaseColor(p.Phase), progressMessage(t, p))

		if t.IsTerminal {
			t.ClearLine()
			fmt.Fprint(t.out, msg)
		} else if p.Phase != lastPhase {
			fmt.Fprintln(t.out, msg)
		}
		lastPhase = p.Phase
	}
}

func progressMessage(t *Terminal, p pipeline.Progress) string {
	switch p.Phase {
	case pipeline.PhaseOptimizing:
		return fmt.Sprintf("%s Optimizing query...", t.Spinner())
	case pipeline.PhaseSearching:
		if p.Current > 0 {
			return fmt.Sprintf("Search: %d results", p.Current)
		}
		return fmt.Sprintf("%s %s...", t.Spinner(), p.Description)
	case pipeline.PhaseSummarizing:
		eta := ""
		if d := p.ETA(); d > 0 {
			eta = fmt.Sprintf(" (ETA: %s)", FormatETA(d))
		}
		return fmt.Sprintf("Summarizing: %d/%d (%d%%)%s", p.Current, p.Total, p.Percentage(), eta)
	case pipeline.PhaseScoring:
		return fmt.Sprintf("Scoring: %d/%d", p.Current, p.Total)
	default:
		return p.Description
	}
}

// FormatETA formats a duration as a human-readable ETA string
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		if s > 0 {
			return fmt.Sprintf("%dm%ds", m, s)
		}
		return fmt.Sprintf("%dm", m)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}

// PhaseColor returns the appropriate color for a pipeline phase
func PhaseColor(phase pipeline.Phase) string {
	switch phase {
	case pipeline.PhaseOptimizing:
		return ColorCyan
	case pipeline.PhaseSearching:
		return ColorBlue
	case pipeline.PhaseSummarizing:
		return ColorPurple
	case pipeline.PhaseScoring:
		return ColorGreen
	default:
		return ColorWhite
	}
}
