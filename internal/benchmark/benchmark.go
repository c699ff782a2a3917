// Package benchmark compares the run time of two deployments of the same function, typically
// an x86_64 and an arm64 build.
package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
)

const DefaultCalls = 100

type Config struct {
	Baseline  string
	Candidate string
	Payload   []byte
	Calls     int
	// Progress receives the progress bar; nil disables it.
	Progress io.Writer
}

type Result struct {
	Calls             int     `json:"calls"`
	BaselineAvgMs     float64 `json:"baseline_avg_ms"`
	CandidateAvgMs    float64 `json:"candidate_avg_ms"`
	ImprovementFactor float64 `json:"improvement"`
}

func newBar(w io.Writer, n int) *progressbar.ProgressBar {
	if w == nil {
		w = io.Discard
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("invoking"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
	)
}

// Run invokes both functions once to warm them, then Calls more times each, alternating.
func Run(ctx context.Context, invoker Invoker, cfg Config) (Result, error) {
	if cfg.Baseline == "" || cfg.Candidate == "" {
		return Result{}, fmt.Errorf("both functions must be set")
	}
	if cfg.Calls <= 0 {
		cfg.Calls = DefaultCalls
	}

	slog.Info("warming functions", "baseline", cfg.Baseline, "candidate", cfg.Candidate)
	for _, fn := range []string{cfg.Baseline, cfg.Candidate} {
		if _, err := invoker.Invoke(ctx, fn, cfg.Payload); err != nil {
			return Result{}, fmt.Errorf("error warming %s: %w", fn, err)
		}
	}

	bar := newBar(cfg.Progress, cfg.Calls)
	var baseline, candidate float64
	for i := 0; i < cfg.Calls; i++ {
		d, err := invoker.Invoke(ctx, cfg.Baseline, cfg.Payload)
		if err != nil {
			return Result{}, err
		}
		baseline += d

		d, err = invoker.Invoke(ctx, cfg.Candidate, cfg.Payload)
		if err != nil {
			return Result{}, err
		}
		candidate += d

		_ = bar.Add(1)
	}
	_ = bar.Finish()

	res := Result{
		Calls:          cfg.Calls,
		BaselineAvgMs:  baseline / float64(cfg.Calls),
		CandidateAvgMs: candidate / float64(cfg.Calls),
	}
	if res.BaselineAvgMs > 0 {
		res.ImprovementFactor = 1 - res.CandidateAvgMs/res.BaselineAvgMs
	}
	return res, nil
}

func (r Result) Report(w io.Writer, baselineName, candidateName string) {
	fmt.Fprintf(w, "Average duration %s: %.2f ms\n", baselineName, r.BaselineAvgMs)
	fmt.Fprintf(w, "Average duration %s: %.2f ms\n", candidateName, r.CandidateAvgMs)
	fmt.Fprintf(w, "*** Improvement of %s over %s: %.0f%% ***\n", candidateName, baselineName, r.ImprovementFactor*100)
}
