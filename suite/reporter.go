package suite

import (
	"fmt"
	"io"
	"sync"

	"github.com/gookit/color"
)

// Reporter is told about each result as soon as a worker finishes it.
// Implementations must be safe for concurrent use.
type Reporter interface {
	Started(jobs int)
	Finished(r *Result)
}

// SilentReporter does not output any progress
type SilentReporter struct{}

func (SilentReporter) Started(int)        {}
func (SilentReporter) Finished(*Result) {}

// ColorReporter writes one status line per result (typically to stderr).
type ColorReporter struct {
	Writer io.Writer

	mu   sync.Mutex
	done int
	jobs int
}

func (r *ColorReporter) Started(jobs int) {
	r.mu.Lock()
	r.jobs = jobs
	r.done = 0
	r.mu.Unlock()
}

func (r *ColorReporter) Finished(res *Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done++
	fmt.Fprintf(r.Writer, "[%d/%d] %s %s %s\n",
		r.done, r.jobs, statusLabel(res.Status), res.Case.Name, color.Gray.Sprintf("(%s, %s)", res.Backend, res.Duration))
}
