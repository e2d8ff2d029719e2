package smoke

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/compresr/flightdesk/internal/monitoring"
)

// DefaultConcurrency is how many checks run at once.
const DefaultConcurrency = 4

// DefaultIsolationPause is the idle time before isolated checks. One second
// refills a per-IP token bucket whose burst equals its per-second rate.
const DefaultIsolationPause = time.Second

// Result is the outcome of one check.
type Result struct {
	Name     string        `json:"name"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Passed reports whether the check succeeded.
func (r Result) Passed() bool { return r.Err == nil }

// Report is the outcome of one suite run, in suite order.
type Report struct {
	BaseURL  string        `json:"base_url"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Results  []Result      `json:"results"`
}

// Failed returns the failing results.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Passed() {
			out = append(out, res)
		}
	}
	return out
}

// OK reports whether every check passed.
func (r Report) OK() bool { return len(r.Failed()) == 0 }

// WriteText prints one line per check and a summary.
func (r Report) WriteText(w io.Writer) {
	for _, res := range r.Results {
		status := "PASS"
		if !res.Passed() {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%-4s %-26s %8s\n", status, res.Name, res.Duration.Round(time.Millisecond))
		if !res.Passed() {
			fmt.Fprintf(w, "     %v\n", res.Err)
		}
	}
	fmt.Fprintf(w, "\n%d/%d passed against %s in %s\n",
		len(r.Results)-len(r.Failed()), len(r.Results), r.BaseURL, r.Duration.Round(time.Millisecond))
}

// Runner executes a list of checks against one client.
type Runner struct {
	client      *Client
	checks      []Check
	logger      *monitoring.Logger
	concurrency int
	pause       time.Duration
}

// NewRunner creates a runner. Nil checks run the default suite.
func NewRunner(client *Client, checks []Check, logger *monitoring.Logger) *Runner {
	if checks == nil {
		checks = DefaultChecks()
	}
	if logger == nil {
		logger = monitoring.Nop()
	}
	return &Runner{
		client:      client,
		checks:      checks,
		logger:      logger,
		concurrency: DefaultConcurrency,
		pause:       DefaultIsolationPause,
	}
}

// WithConcurrency sets how many checks run at once (minimum 1).
func (r *Runner) WithConcurrency(n int) *Runner {
	if n < 1 {
		n = 1
	}
	r.concurrency = n
	return r
}

// WithIsolationPause sets the idle time between the concurrent batch and
// the isolated checks.
func (r *Runner) WithIsolationPause(d time.Duration) *Runner {
	if d < 0 {
		d = 0
	}
	r.pause = d
	return r
}

// Run executes every check. A failing check never stops the others.
// Regular checks run concurrently; isolated checks run afterwards, one at a
// time, once the batch has finished and the pause has elapsed. Results keep
// suite order either way.
func (r *Runner) Run(ctx context.Context) Report {
	report := Report{
		BaseURL: r.client.BaseURL(),
		Started: time.Now(),
		Results: make([]Result, len(r.checks)),
	}

	var isolated []int
	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup
	for i, check := range r.checks {
		if check.Isolated {
			isolated = append(isolated, i)
			continue
		}
		wg.Add(1)
		go func(i int, check Check) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			report.Results[i] = r.runOne(ctx, check)
		}(i, check)
	}
	wg.Wait()

	if len(isolated) > 0 && len(isolated) < len(r.checks) {
		r.idle(ctx)
	}
	for _, i := range isolated {
		report.Results[i] = r.runOne(ctx, r.checks[i])
	}

	report.Duration = time.Since(report.Started)
	r.logger.Info().
		Str("base_url", report.BaseURL).
		Int("checks", len(report.Results)).
		Int("failed", len(report.Failed())).
		Dur("duration", report.Duration).
		Msg("smoke run finished")
	return report
}

// idle waits out the isolation pause, or until ctx is done.
func (r *Runner) idle(ctx context.Context) {
	if r.pause <= 0 {
		return
	}
	t := time.NewTimer(r.pause)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (r *Runner) runOne(ctx context.Context, check Check) (res Result) {
	start := time.Now()
	res.Name = check.Name
	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("check panicked: %v", p)
		}
		res.Duration = time.Since(start)
		if res.Err != nil {
			res.Error = res.Err.Error()
			r.logger.Warn().Str("check", check.Name).Err(res.Err).Msg("smoke check failed")
		} else {
			r.logger.Debug().Str("check", check.Name).Dur("duration", res.Duration).Msg("smoke check passed")
		}
	}()

	res.Err = check.Run(ctx, r.client)
	return res
}
