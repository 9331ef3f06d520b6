package display

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/hiteshptrivedi/display-info/models"
)

// Sink is the display surface. The core's only contract with it is "set the
// current text and color"; layout and fonts are the sink's problem.
type Sink interface {
	Show(text string, color models.Color)
}

// TerminalSink paints each frame to a terminal, standing in for the LED
// matrix.
type TerminalSink struct {
	out io.Writer
}

func NewTerminalSink() *TerminalSink {
	return &TerminalSink{out: os.Stdout}
}

func (s *TerminalSink) Show(text string, color models.Color) {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(fmt.Sprintf("#%06X", uint32(color)))).
		Bold(true)
	fmt.Fprintln(s.out, style.Render(text))
}

// NullSink discards frames.
type NullSink struct{}

func (NullSink) Show(string, models.Color) {}
