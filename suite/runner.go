package suite

import (
	"bytes"
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/marrow-lang/marrow/cas"
	"github.com/marrow-lang/marrow/project"
)

type Status int

const (
	Passed Status = iota
	Failed        // output differs from the expected file
	Errored       // build or runtime error
	Skipped       // cancelled before it ran
	Unchecked     // ran cleanly but the case has no expected output
)

func (s Status) String() string {
	switch s {
	case Passed:
		return "pass"
	case Failed:
		return "fail"
	case Errored:
		return "error"
	case Skipped:
		return "skip"
	case Unchecked:
		return "unchecked"
	}
	return "unknown"
}

// Result is the outcome of one case on one backend.
type Result struct {
	Case     Case
	Backend  string
	Status   Status
	Output   string
	Err      error
	Cached   bool
	Duration time.Duration
}

// Runner fans cases out to a pool of workers. Each (case, backend) pair is
// one job.
type Runner struct {
	Workers      int      // defaults to runtime.NumCPU()
	Backends     []string // defaults to vm then tree
	MaxCallDepth int
	// Store, when set, is shared by every vm job so a source compiled once
	// is served from the cache afterwards.
	Store    cas.CAS
	Reporter Reporter
	// KeepGoing runs every job even after a failure.
	KeepGoing bool
}

type job struct {
	index   int
	c       Case
	backend string
}

func (r *Runner) backends() []string {
	if len(r.Backends) == 0 {
		return []string{project.BackendVM, project.BackendTree}
	}
	return r.Backends
}

// Run executes every case on every backend and blocks until all workers
// have drained. It returns an error only when ctx itself is cancelled.
func (r *Runner) Run(ctx context.Context, cases []Case) (*Summary, error) {
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	reporter := r.Reporter
	if reporter == nil {
		reporter = SilentReporter{}
	}
	backends := r.backends()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan job)
	results := make([]*Result, len(cases)*len(backends))
	var failures int64
	var wg sync.WaitGroup

	reporter.Started(len(results))
	start := time.Now()
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range jobs {
				var res *Result
				if runCtx.Err() != nil {
					res = &Result{Case: j.c, Backend: j.backend, Status: Skipped}
				} else {
					res = r.runOne(j.c, j.backend)
				}
				results[j.index] = res
				if res.Status == Failed || res.Status == Errored {
					atomic.AddInt64(&failures, 1)
					if !r.KeepGoing {
						cancel()
					}
				}
				log.Trace().Int("worker", id).Str("case", j.c.Name).Str("backend", j.backend).Stringer("status", res.Status).Msg("Runner: job done")
				reporter.Finished(res)
			}
		}(i)
	}

	for ci, c := range cases {
		for bi, b := range backends {
			jobs <- job{index: ci*len(backends) + bi, c: c, backend: b}
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := newSummary(results, backends)
	s.Elapsed = time.Since(start)
	log.Debug().
		Int("jobs", len(results)).
		Int64("failures", atomic.LoadInt64(&failures)).
		Dur("elapsed", s.Elapsed).
		Msg("Runner: finished")
	return s, nil
}

func (r *Runner) runOne(c Case, backend string) *Result {
	res := &Result{Case: c, Backend: backend}
	start := time.Now()
	defer func() { res.Duration = time.Since(start).Round(time.Microsecond) }()

	p := project.ForFile(c.File)
	p.Program.Backend = backend
	if r.MaxCallDepth > 0 {
		p.Limits.MaxCallDepth = r.MaxCallDepth
	}
	if err := p.Validate(); err != nil {
		res.Status, res.Err = Errored, err
		return res
	}
	exec, err := p.BuildExecutor(r.Store)
	if err != nil {
		res.Status, res.Err = Errored, err
		return res
	}
	res.Cached = exec.Cached

	var out bytes.Buffer
	_, err = exec.Run(&out)
	res.Output = out.String()
	switch {
	case err != nil:
		res.Status, res.Err = Errored, err
	case !c.HasExpected:
		res.Status = Unchecked
	case res.Output == c.Expected:
		res.Status = Passed
	default:
		res.Status = Failed
	}
	return res
}

// Summary holds every result in case order, backends in the order they
// were requested.
type Summary struct {
	Results  []*Result
	Backends []string
	Counts   map[Status]int
	// Disagreements names the cases whose backends printed different
	// output.
	Disagreements []string
	Elapsed       time.Duration
}

func newSummary(results []*Result, backends []string) *Summary {
	s := &Summary{Results: results, Backends: backends, Counts: make(map[Status]int)}
	for _, r := range results {
		s.Counts[r.Status]++
	}
	for i := 0; i+len(backends) <= len(results); i += len(backends) {
		group := results[i : i+len(backends)]
		for _, r := range group[1:] {
			if r.Status == Skipped || group[0].Status == Skipped {
				continue
			}
			if r.Output != group[0].Output {
				s.Disagreements = append(s.Disagreements, group[0].Case.Name)
				break
			}
		}
	}
	sort.Strings(s.Disagreements)
	return s
}

// OK reports whether every job passed (or had nothing to check) and the
// backends agreed everywhere.
func (s *Summary) OK() bool {
	return s.Counts[Failed] == 0 && s.Counts[Errored] == 0 && s.Counts[Skipped] == 0 && len(s.Disagreements) == 0
}

// Failures returns the results that did not pass.
func (s *Summary) Failures() []*Result {
	var out []*Result
	for _, r := range s.Results {
		if r.Status == Failed || r.Status == Errored {
			out = append(out, r)
		}
	}
	return out
}
