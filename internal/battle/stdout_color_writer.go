// ColorStdoutWriter prints human-friendly, colorized battle events to STDOUT.
package battle

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"hacklab-sim/internal/scenario"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// ColorStdoutWriter prints event rows using ANSI colors, with a one-time
// scenario overview header.
type ColorStdoutWriter struct {
	scn  *scenario.Scenario
	out  io.Writer
	once sync.Once
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(scn *scenario.Scenario) *ColorStdoutWriter {
	return &ColorStdoutWriter{scn: scn, out: os.Stdout}
}

func (w *ColorStdoutWriter) printOverview() {
	if w.scn == nil {
		return
	}
	fmt.Fprintf(w.out, "Scenario: %s\n", w.scn.Name)
	if w.scn.Description != "" {
		fmt.Fprintln(w.out, w.scn.Description)
	}
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Phase\tDuration\tAttacks\tDefenses\n")
	for _, p := range w.scn.Phases {
		fmt.Fprintf(tw, "%s\t%ds\t%d\t%d\n", p.Name, p.DurationSeconds, len(p.Attacks), len(p.Defenses))
	}
	tw.Flush()
	fmt.Fprintln(w.out)
}

func teamColor(team string) string {
	switch team {
	case string(TeamRed):
		return colorRed
	case string(TeamBlue):
		return colorBlue
	default:
		return colorGray
	}
}

func severityColor(sev string) string {
	switch Severity(sev) {
	case SeverityCritical:
		return colorMagenta
	case SeverityHigh:
		return colorRed
	case SeverityMedium:
		return colorYellow
	default:
		return colorGreen
	}
}

// WriteEvent outputs a single event row in colorized format.
func (w *ColorStdoutWriter) WriteEvent(row EventRow) error {
	w.once.Do(w.printOverview)

	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, row.Timestamp.Format(time.RFC3339), colorReset)
	fmt.Fprintf(w.out, "%s%-7s%s ", teamColor(row.Team), row.Team, colorReset)
	fmt.Fprintf(w.out, "%s%s%s ", colorCyan, row.Type, colorReset)
	fmt.Fprintf(w.out, "%sphase=%s%s ", colorGray, row.Phase, colorReset)
	if row.Severity != "" {
		fmt.Fprintf(w.out, "%s%s%s ", severityColor(row.Severity), row.Severity, colorReset)
	}
	fmt.Fprint(w.out, row.Message)
	if row.Points != 0 {
		fmt.Fprintf(w.out, " %s+%.0f%s", colorGreen, row.Points, colorReset)
	}
	fmt.Fprintln(w.out)
	return nil
}

// WriteEvents outputs multiple event rows.
func (w *ColorStdoutWriter) WriteEvents(rows []EventRow) error {
	for _, r := range rows {
		_ = w.WriteEvent(r)
	}
	return nil
}

// WriteScore prints a compact score line.
func (w *ColorStdoutWriter) WriteScore(row ScoreRow) error {
	w.once.Do(w.printOverview)
	fmt.Fprintf(w.out, "%s[%s]%s %sSCORE%s red=%.0f blue=%.0f adv=%s attacks=%d blocks=%d rate=%.2f compromised=%d\n",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorYellow, colorReset,
		row.RedPoints, row.BluePoints, row.Advantage,
		row.TotalAttacks, row.TotalBlocks, row.SuccessRate, row.Compromised)
	return nil
}
