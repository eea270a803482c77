// Package build runs declaration targets: a full build, an up-to-date
// check against an existing dist, and a watch loop rebuilding on change.
package build

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/dtsgen/dts"
	"github.com/teranos/dtsgen/errors"
	"github.com/teranos/dtsgen/logger"
)

// Emitter produces one target's artifact. *dts.Emitter satisfies it.
type Emitter interface {
	Emit(ctx context.Context, target dts.BuildTarget) error
}

// Result is the outcome of one target
type Result struct {
	Target   dts.BuildTarget
	Duration time.Duration
	Done     bool
	Err      error
}

// Report summarizes a run
type Report struct {
	RunID    string
	Results  []Result
	Duration time.Duration
}

// Built returns the number of targets that completed
func (r Report) Built() int {
	n := 0
	for _, res := range r.Results {
		if res.Done {
			n++
		}
	}
	return n
}

// Failed returns the results that carry an error
func (r Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Runner builds targets concurrently
type Runner struct {
	Emitter     Emitter
	Concurrency int
	logger      *zap.SugaredLogger
}

// NewRunner creates a runner with at most concurrency targets in flight
func NewRunner(emitter Emitter, concurrency int) *Runner {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{
		Emitter:     emitter,
		Concurrency: concurrency,
		logger:      logger.ComponentLogger("build"),
	}
}

// Run emits every target. The first failure cancels targets not yet
// started and is returned; the report still lists what completed.
func (r *Runner) Run(ctx context.Context, targets []dts.BuildTarget) (Report, error) {
	report := Report{
		RunID:   uuid.NewString(),
		Results: make([]Result, len(targets)),
	}
	ctx = logger.WithRunID(ctx, report.RunID)
	ctx = logger.WithComponent(ctx, "build")
	log := r.log().With(logger.FieldsFromContext(ctx)...)

	log.Debugw("Starting build", logger.FieldCount, len(targets))
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Concurrency)

	for i, target := range targets {
		report.Results[i].Target = target

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			t0 := time.Now()
			err := r.Emitter.Emit(gctx, target)
			elapsed := time.Since(t0)

			res := &report.Results[i]
			res.Duration = elapsed
			if err != nil {
				res.Err = err
				log.Warnw("Target failed",
					logger.FieldTarget, target.String(),
					logger.FieldInput, target.Input,
					logger.FieldOutput, target.Output.File,
					logger.FieldError, err,
				)
				return err
			}

			res.Done = true
			log.Infow("Emitted declaration",
				logger.FieldInput, target.Input,
				logger.FieldOutput, target.Output.File,
				logger.FieldDurationMS, elapsed.Milliseconds(),
				logger.FieldMode, target.Mode(),
			)
			return nil
		})
	}

	err := g.Wait()
	report.Duration = time.Since(start)
	if err != nil {
		return report, errors.Wrapf(err, "build %s", report.RunID)
	}

	log.Debugw("Build finished",
		logger.FieldCount, report.Built(),
		logger.FieldDurationMS, report.Duration.Milliseconds(),
	)
	return report, nil
}

func (r *Runner) log() *zap.SugaredLogger {
	if r.logger == nil {
		return logger.ComponentLogger("build")
	}
	return r.logger
}
