// Package display provides terminal output formatting for pitlane.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/gauthierbraillon/pitlane/internal/aggregator"
	"github.com/gauthierbraillon/pitlane/internal/catalog"
	"github.com/gauthierbraillon/pitlane/internal/starred"
)

const (
	separator  = " • "
	starMarker = "★ "
	timeLayout = "Mon Jan 2, 15:04 MST"
)

// FormatterOption configures the TerminalFormatter.
type FormatterOption func(*TerminalFormatter)

// WithClock overrides the time source (useful for testing).
func WithClock(now func() time.Time) FormatterOption {
	return func(f *TerminalFormatter) {
		f.now = now
	}
}

// WithLocation sets the zone event times are shown in.
func WithLocation(loc *time.Location) FormatterOption {
	return func(f *TerminalFormatter) {
		if loc != nil {
			f.loc = loc
		}
	}
}

// TerminalFormatter formats schedules and series for terminal display.
type TerminalFormatter struct {
	now func() time.Time
	loc *time.Location
}

// NewTerminalFormatter creates a new terminal formatter.
func NewTerminalFormatter(opts ...FormatterOption) *TerminalFormatter {
	f := &TerminalFormatter{
		now: time.Now,
		loc: time.Local,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FormatEvent formats a single event for display.
func (f *TerminalFormatter) FormatEvent(e aggregator.Event) string {
	var lines []string

	// Header: ★ [SERIES] Name
	header := fmt.Sprintf("[%s] %s", e.Series, e.Name)
	if e.Starred {
		header = starMarker + header
	}
	lines = append(lines, header)

	when := e.Start.In(f.loc).Format(timeLayout) + separator + f.FormatRelative(e.Start)
	lines = append(lines, "  "+when)

	where := e.Location
	if e.Circuit != "" && e.Circuit != e.Location {
		where += separator + e.Circuit
	}
	if where != "" {
		lines = append(lines, "  "+where)
	}

	return strings.Join(lines, "\n") + "\n"
}

// FormatSchedule formats a timeline for display.
func (f *TerminalFormatter) FormatSchedule(events []aggregator.Event) string {
	if len(events) == 0 {
		return "No upcoming events.\n"
	}

	formatted := make([]string, 0, len(events))
	for _, e := range events {
		formatted = append(formatted, f.FormatEvent(e))
	}

	return strings.Join(formatted, "\n")
}

// FormatFailures describes providers that contributed nothing to a cycle.
func (f *TerminalFormatter) FormatFailures(failures []aggregator.ProviderFailure) string {
	if len(failures) == 0 {
		return ""
	}
	var b strings.Builder
	for _, fail := range failures {
		name := fail.Provider
		if fail.Selector != "" {
			name += ":" + fail.Selector
		}
		fmt.Fprintf(&b, "warning: %s unavailable: %s\n", name, fail.Message)
	}
	return b.String()
}

// FormatSeries formats one catalog entry with its next event, if known.
func (f *TerminalFormatter) FormatSeries(d catalog.Descriptor, next *aggregator.Event, isStarred bool) string {
	var lines []string

	header := fmt.Sprintf("%s (%s)", d.Name, d.Code)
	if isStarred {
		header = starMarker + header
	}
	lines = append(lines, header)
	lines = append(lines, "  "+d.Category.DisplayName())

	if d.Description != "" {
		lines = append(lines, "", "  "+d.Description)
	}
	if d.About != "" {
		lines = append(lines, "  "+d.About)
	}
	if next != nil {
		lines = append(lines, "", "  Next: "+next.Name+separator+f.FormatRelative(next.Start))
	}
	if d.Link != "" {
		lines = append(lines, "", "  "+d.Link)
	}

	return strings.Join(lines, "\n") + "\n"
}

// FormatCatalog lists every series grouped by category.
func (f *TerminalFormatter) FormatCatalog(set starred.Set) string {
	var b strings.Builder
	for i, cat := range catalog.Categories {
		entries := catalog.ByCategory(cat)
		if len(entries) == 0 {
			continue
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(cat.DisplayName() + "\n")
		for _, d := range entries {
			marker := "  "
			if set.Contains(d.Code) {
				marker = starMarker
			}
			fmt.Fprintf(&b, "  %s%-8s %s\n", marker, d.Code, f.TruncateText(d.Name+separator+d.Description, 72))
		}
	}
	return b.String()
}

// FormatRelative describes when t falls relative to today, by calendar day.
func (f *TerminalFormatter) FormatRelative(t time.Time) string {
	days := calendarDays(f.now().In(f.loc), t.In(f.loc))

	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "yesterday"
	case days < 0:
		return fmt.Sprintf("%d days ago", -days)
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

// calendarDays counts midnights between from and to in their (shared) location.
func calendarDays(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// TruncateText truncates text to maxLen runes, adding "..." if truncated.
func (f *TerminalFormatter) TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}
