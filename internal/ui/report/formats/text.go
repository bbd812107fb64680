package formats

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	pathStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	positionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B"))

	ruleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)
)

// WriteText prints diagnostics grouped by file, eslint style, followed by
// a summary line.
func WriteText(w io.Writer, r Report, color bool) error {
	style := func(s lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	order, groups := groupByPath(r.Diagnostics)
	for _, path := range order {
		b.WriteString(style(pathStyle, path))
		b.WriteByte('\n')
		for _, d := range groups[path] {
			fmt.Fprintf(&b, "  %s  %s  %s  %s\n",
				style(positionStyle, fmt.Sprintf("%d:%d", d.Line, d.Column)),
				style(warnStyle, "warning"),
				d.Message,
				style(ruleStyle, d.RuleID))
		}
		b.WriteByte('\n')
	}

	for _, f := range r.Failed {
		fmt.Fprintf(&b, "%s %s: %s\n", style(errorStyle, "error"), f.Path, f.Error)
	}

	if len(r.Diagnostics) == 0 {
		b.WriteString(style(successStyle, fmt.Sprintf("No Baseline %s issues as of %s", r.Support, r.AsOf)))
		fmt.Fprintf(&b, " (%d files%s)\n", r.FilesScanned, took(r.Duration))
	} else {
		b.WriteString(style(warnStyle, fmt.Sprintf("%d %s", len(r.Diagnostics), plural(len(r.Diagnostics), "problem", "problems"))))
		fmt.Fprintf(&b, " in %d of %d files (Baseline %s, as of %s%s)\n", len(order), r.FilesScanned, r.Support, r.AsOf, took(r.Duration))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func took(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return ", " + d.Round(time.Millisecond).String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
