package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"browser-bench/internal/application/port/output"
	"browser-bench/internal/domain/entity"

	"github.com/fatih/color"
)

var _ output.ReporterPort = (*Reporter)(nil)

// Reporter prints run progress for a human watching the terminal.
type Reporter struct {
	mu  sync.Mutex
	out io.Writer

	header  *color.Color
	success *color.Color
	failed  *color.Color
	unknown *color.Color
	dim     *color.Color
}

func NewReporter(out io.Writer) *Reporter {
	if out == nil {
		out = os.Stdout
	}
	return &Reporter{
		out:     out,
		header:  color.New(color.FgCyan, color.Bold),
		success: color.New(color.FgGreen, color.Bold),
		failed:  color.New(color.FgRed, color.Bold),
		unknown: color.New(color.FgYellow, color.Bold),
		dim:     color.New(color.Faint),
	}
}

func (r *Reporter) TaskStarted(task entity.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.header.Fprintf(r.out, "\n=== Now at task %s ===\n", task.ID)
}

// TaskProgress prints the one-line result of a finished task.
func (r *Reporter) TaskProgress(o entity.TaskOutcome, snap output.StatsSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "Task %s [%d/%d] Steps: %d Status: %s Score: %s\n",
		o.TaskID,
		snap.Completed,
		snap.TotalTasks,
		o.NumSteps,
		r.glyph(o.Success),
		snap.SuccessRate(),
	)
}

func (r *Reporter) Summary(snap output.StatsSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.header.Fprintln(r.out, "\n=== Task Summary ===")
	r.success.Fprintf(r.out, "Successful tasks (%d): ", len(snap.Success))
	fmt.Fprintln(r.out, idList(snap.Success))
	r.failed.Fprintf(r.out, "Failed tasks (%d): ", len(snap.Failed))
	fmt.Fprintln(r.out, idList(snap.Failed))
	if len(snap.Unknown) > 0 {
		r.unknown.Fprintf(r.out, "Unknown tasks (%d): ", len(snap.Unknown))
		fmt.Fprintln(r.out, idList(snap.Unknown))
	}
	if len(snap.Faulted) > 0 {
		r.dim.Fprintf(r.out, "Faulted tasks (%d): %s\n", len(snap.Faulted), idList(snap.Faulted))
	}
	fmt.Fprintf(r.out, "Current success rate: %s\n", snap.SuccessRate())
	r.header.Fprintln(r.out, "==================")
}

func (r *Reporter) glyph(v entity.Verdict) string {
	switch v {
	case entity.VerdictSuccess:
		return r.success.Sprint(v.Glyph())
	case entity.VerdictFailed:
		return r.failed.Sprint(v.Glyph())
	default:
		return r.unknown.Sprint(v.Glyph())
	}
}

func idList(ids []string) string {
	return "[" + strings.Join(ids, ", ") + "]"
}
