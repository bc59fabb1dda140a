package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/primes/pkg/primes/counter"
)

// PrettyFormatter renders the result in a bordered box for terminals.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	lines := []string{
		TitleStyle.Render("Prime count"),
		f.row("Bound:", ValueStyle.Render(humanize.Comma(int64(r.Max)))),
		f.row("Primes:", CountStyle.Render(humanize.Comma(r.Primes))),
		f.row("CPU time:", ValueStyle.Render(counter.FormatSeconds(r.CPUSeconds)+"s")),
	}

	if r.Wall > 0 {
		lines = append(lines, f.row("Wall time:", ValueStyle.Render(FormatDuration(r.Wall))))
	}
	if r.Host != "" {
		lines = append(lines, f.row("Host:", ValueStyle.Render(r.Host)))
	}
	if r.ID != "" {
		lines = append(lines, f.row("Run:", MutedStyle.Render(r.ID)))
	}
	if r.Max < 2 {
		lines = append(lines, WarningStyle.Render("Bounds below 2 contain no primes"))
	}

	w.WriteString(ResultBox.Render(strings.Join(lines, "\n")))
	w.WriteByte('\n')
	return nil
}

func (f *PrettyFormatter) row(label, value string) string {
	return fmt.Sprintf("%s %s", LabelStyle.Width(11).Render(label), value)
}

// FormatDuration renders a duration compactly: 850ms, 12.3s, 4m 5s, 2h 10m.
func FormatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
