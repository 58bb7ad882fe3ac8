package runner

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// PrintSummary writes the end-of-run table.
func PrintSummary(out io.Writer, snap Snapshot) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	fmt.Fprintln(out)
	cyan.Fprintln(out, "📊 Run summary")
	fmt.Fprintf(out, "  Elapsed:     %s\n", snap.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "  Operations:  %s (%.1f ops/s)\n", humanize.Comma(int64(snap.Ops)), snap.OpsPerSecond())
	fmt.Fprintf(out, "  Documents:   %s written\n", humanize.Comma(snap.Documents))
	if snap.Found+snap.Missed > 0 {
		fmt.Fprintf(out, "  Lookups:     %s found, %s missed\n", humanize.Comma(snap.Found), humanize.Comma(snap.Missed))
	}
	if snap.Failures > 0 {
		red.Fprintf(out, "  Failures:    %s\n", humanize.Comma(int64(snap.Failures)))
	} else {
		green.Fprintln(out, "  Failures:    0")
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-12s %12s %10s %12s %12s\n", "TASK", "OPS", "FAILED", "AVG", "MAX")
	for _, t := range snap.Tasks {
		if t.Ops == 0 {
			continue
		}
		fmt.Fprintf(out, "  %-12s %12s %10s %12s %12s\n",
			t.Name,
			humanize.Comma(int64(t.Ops)),
			humanize.Comma(int64(t.Failures)),
			t.AverageLatency.Round(time.Microsecond),
			t.MaxLatency.Round(time.Microsecond),
		)
		if t.LastError != nil {
			red.Fprintf(out, "    last error: %v\n", t.LastError)
		}
	}
}
