package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/types"
)

// PrettyFormatter renders the report for a terminal using lipgloss.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.header(r))
	w.WriteString("\n")
	w.WriteString(f.table(r))
	w.WriteString(f.footer(r))
	w.WriteString("\n")

	if len(r.Warnings) > 0 {
		w.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
		w.WriteString("\n")
		for _, warning := range r.Warnings {
			w.WriteString(WarningStyle.Render("  " + warning))
			w.WriteString("\n")
		}
	}
	return nil
}

func (f *PrettyFormatter) header(r *Result) string {
	lines := []string{
		LabelStyle.Render("Directory:") + " " + ValueStyle.Render(r.Source),
		LabelStyle.Render("Processed:") + " " + ValueStyle.Render(fmt.Sprintf("%s in %s",
			plural(r.Stats.Entries, "entry", "entries"), formatDuration(r.Stats.Duration))),
	}
	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) table(r *Result) string {
	media := r.Media()
	if len(media) == 0 {
		return MutedStyle.Render("  No photo or video files found") + "\n"
	}

	sizeWidth := 8
	for _, e := range media {
		sizeWidth = max(sizeWidth, len(e.SizeHuman))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s\n",
		TableHeaderStyle.Render(padRight("STATUS", 7)),
		TableHeaderStyle.Render(padLeft("SIZE", sizeWidth)),
		TableHeaderStyle.Render(padRight("CREATED", 26)),
		TableHeaderStyle.Render("PATH")))

	for _, e := range media {
		sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s\n",
			statusStyle(e.Status).Render(padRight(e.Status, 7)),
			SizeStyle.Render(padLeft(e.SizeHuman, sizeWidth)),
			ValueStyle.Render(padRight(e.Created, 26)),
			PathStyle.Render(e.Name)))
	}
	return sb.String()
}

func (f *PrettyFormatter) footer(r *Result) string {
	parts := []string{
		LabelStyle.Render("Media:") + " " + ValueStyle.Render(fmt.Sprintf("%d", r.Stats.Media)),
		LabelStyle.Render("Created:") + " " + SuccessStyle.Render(fmt.Sprintf("%d", r.Stats.Created)),
		LabelStyle.Render("Skipped:") + " " + MutedStyle.Render(fmt.Sprintf("%d", r.Stats.Skipped)),
		LabelStyle.Render("Total:") + " " + SizeStyle.Render(humanize.IBytes(uint64(r.Stats.MediaBytes))),
	}
	if r.HistoryID != "" {
		parts = append(parts, MutedStyle.Render("history "+r.HistoryID))
	}
	return FooterBox.Render(strings.Join(parts, "  "))
}

func statusStyle(status string) lipgloss.Style {
	switch types.SidecarStatus(status) {
	case types.SidecarCreated:
		return SuccessStyle
	case types.SidecarExists:
		return MutedStyle
	default:
		return ValueStyle
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatDuration formats d for people: "850ms", "2.5s", "3m 4s", "1h 2m".
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
