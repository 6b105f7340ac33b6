package render

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/OldStager01/alert-arbiter/pkg/models"
)

const defaultWidth = 48

// Banner draws the alert the way the driver would see it. Silent alerts
// collapse to a single dim line.
func Banner(rec *models.AlertRecord, width int) string {
	if width <= 0 {
		width = defaultWidth
	}

	if rec.Kind == models.EventTypeAlertCleared {
		return dimStyle.Render(fmt.Sprintf("frame %d  (no alert)", rec.Frame))
	}

	if rec.Text1 == "" && rec.Text2 == "" {
		return dimStyle.Render(fmt.Sprintf("frame %d  (silent) %s", rec.Frame, rec.AlertType))
	}

	var lines []string
	if rec.Text1 != "" {
		lines = append(lines, text1Style.Render(rec.Text1))
	}
	if rec.Text2 != "" {
		lines = append(lines, text2Style.Render(rec.Text2))
	}

	body := bannerStyle.
		Width(width).
		BorderForeground(priorityColor(rec.Priority)).
		Render(lipgloss.JoinVertical(lipgloss.Center, lines...))

	return lipgloss.JoinVertical(lipgloss.Left, body, footer(rec))
}

func footer(rec *models.AlertRecord) string {
	parts := []string{
		frameStyle.Render(fmt.Sprintf("frame %d", rec.Frame)),
		labelStyle.Render(rec.AlertType),
		lipgloss.NewStyle().Foreground(priorityColor(rec.Priority)).Render(rec.Priority),
		stateStyle(rec.State).Render(rec.State),
	}
	if rec.Latched {
		parts = append(parts, dimStyle.Render("latched"))
	}
	if rec.Fallback {
		parts = append(parts, critStyle.Render("fallback"))
	}
	return strings.Join(parts, "  ")
}

// Line is the one-row form used when replaying long drives.
func Line(rec *models.AlertRecord) string {
	switch rec.Kind {
	case models.EventTypeAlertCleared:
		return fmt.Sprintf("%s  %s", frameStyle.Render(fmt.Sprintf("%8d", rec.Frame)), dimStyle.Render("cleared"))
	case models.EventTypeDisengaged:
		return fmt.Sprintf("%s  %s %s", frameStyle.Render(fmt.Sprintf("%8d", rec.Frame)), critStyle.Render("disengaged"), labelStyle.Render(rec.AlertType))
	}

	text := strings.TrimSpace(rec.Text1 + " " + rec.Text2)
	if text == "" {
		text = "(silent)"
	}
	return fmt.Sprintf("%s  %s %s  %s",
		frameStyle.Render(fmt.Sprintf("%8d", rec.Frame)),
		lipgloss.NewStyle().Foreground(priorityColor(rec.Priority)).Render(fmt.Sprintf("%-7s", rec.Priority)),
		labelStyle.Render(rec.AlertType),
		text,
	)
}

// TerminalSink prints alert changes to a terminal. It satisfies sink.Sink.
type TerminalSink struct {
	w       io.Writer
	width   int
	compact bool
	mu      sync.Mutex
}

func NewTerminalSink(w io.Writer, width int, compact bool) *TerminalSink {
	return &TerminalSink{w: w, width: width, compact: compact}
}

func (t *TerminalSink) Name() string {
	return "terminal"
}

func (t *TerminalSink) Publish(_ context.Context, rec *models.AlertRecord) error {
	out := Line(rec)
	if !t.compact {
		out = Banner(rec, t.width)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintln(t.w, out)
	return err
}

func (t *TerminalSink) Close() error {
	return nil
}
