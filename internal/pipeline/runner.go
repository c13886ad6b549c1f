// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/variant-research/pkg/types"
)

// Renderer writes the report for a record. *report.Renderer satisfies it.
type Renderer interface {
	WriteFile(path string, rec types.AggregateRecord, generatedAt time.Time) error
}

// History persists finished runs. *history.Store satisfies it.
type History interface {
	Record(ctx context.Context, run types.RunRecord) error
}

// RunObserver observes finished runs. *metrics.Metrics satisfies it.
type RunObserver interface {
	ObserveRun(state string, elapsed time.Duration)
}

// RunnerOptions configures a Runner. Only ReportPath is required.
type RunnerOptions struct {
	// ReportPath returns the default report location for a query key.
	ReportPath func(queryKey string) string

	History  History
	Observer RunObserver
	Logger   *zap.Logger

	// Now supplies the report generation timestamp (default time.Now).
	Now func() time.Time
}

// Runner drives one research run from query key to rendered report.
type Runner struct {
	agg      *Aggregator
	renderer Renderer
	opts     RunnerOptions
	logger   *zap.Logger
}

// NewRunner returns a runner rendering the aggregator's records with renderer.
func NewRunner(agg *Aggregator, renderer Renderer, opts RunnerOptions) *Runner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{agg: agg, renderer: renderer, opts: opts, logger: logger}
}

// Outcome is the result of one Execute call.
type Outcome struct {
	RunID      string
	QueryKey   string
	Sources    []string
	State      State
	States     []State
	Record     types.AggregateRecord
	ReportPath string
	Summary    types.RunSummary
	StartedAt  time.Time
	FinishedAt time.Time

	// Err is a *types.PipelineAbortedError when State is aborted or
	// render_failed, nil otherwise.
	Err error
}

// Execute resolves, fetches and renders queryKey. The report goes to
// reportPath, or to the default location when reportPath is empty. Execute
// always returns an outcome in a terminal state.
func (r *Runner) Execute(ctx context.Context, queryKey, reportPath string) Outcome {
	out := Outcome{
		RunID:     uuid.NewString(),
		QueryKey:  types.NormalizeQueryKey(queryKey),
		Sources:   r.agg.Sources(),
		State:     StateStart,
		States:    []State{StateStart},
		StartedAt: r.opts.Now(),
	}
	log := r.logger.With(zap.String("run_id", out.RunID), zap.String("query_key", out.QueryKey))
	onState := func(s State) {
		if !CanTransition(out.State, s) {
			log.Warn("unexpected state transition",
				zap.String("from", string(out.State)), zap.String("to", string(s)))
		}
		out.State = s
		out.States = append(out.States, s)
		if r.agg.opts.OnState != nil {
			r.agg.opts.OnState(s)
		}
		log.Debug("state", zap.String("state", string(s)))
	}

	rec, err := r.agg.run(ctx, out.QueryKey, onState)
	if err != nil {
		out.Err = err
		return r.finish(ctx, out, log)
	}
	out.Record = rec
	out.Summary = rec.Summary()

	if reportPath == "" && r.opts.ReportPath != nil {
		reportPath = r.opts.ReportPath(out.QueryKey)
	}
	onState(StateRendering)
	if err := r.renderer.WriteFile(reportPath, rec, r.opts.Now()); err != nil {
		onState(StateRenderFailed)
		out.Err = &types.PipelineAbortedError{Phase: types.PhaseRender, Err: err}
		return r.finish(ctx, out, log)
	}
	out.ReportPath = reportPath
	onState(StateDone)
	return r.finish(ctx, out, log)
}

func (r *Runner) finish(ctx context.Context, out Outcome, log *zap.Logger) Outcome {
	out.FinishedAt = r.opts.Now()
	elapsed := out.FinishedAt.Sub(out.StartedAt)

	if out.Err != nil {
		log.Error("run failed", zap.String("state", string(out.State)), zap.Error(out.Err))
	} else {
		log.Info("run finished",
			zap.String("report", out.ReportPath),
			zap.Int("ok", out.Summary.OK),
			zap.Int("degraded", out.Summary.Degraded),
			zap.Int("failed", out.Summary.Failed),
			zap.Duration("elapsed", elapsed))
	}

	if r.opts.Observer != nil {
		r.opts.Observer.ObserveRun(string(out.State), elapsed)
	}
	if r.opts.History != nil {
		if err := r.opts.History.Record(ctx, out.RunRecord()); err != nil {
			log.Warn("recording run history", zap.Error(err))
		}
	}
	return out
}

// RunRecord converts the outcome into its persisted form. Sources are
// listed in registration order.
func (o Outcome) RunRecord() types.RunRecord {
	run := types.RunRecord{
		ID:         o.RunID,
		QueryKey:   o.QueryKey,
		GeneSymbol: o.Record.Subject.GeneSymbol,
		State:      string(o.State),
		StartedAt:  o.StartedAt,
		FinishedAt: o.FinishedAt,
		ReportPath: o.ReportPath,
		Sources:    []types.SourceOutcome{},
	}
	if o.Err != nil {
		run.Error = o.Err.Error()
	}
	if o.Record.Sources == nil {
		return run
	}
	for _, name := range o.Sources {
		res := o.Record.Source(name)
		run.Sources = append(run.Sources, types.SourceOutcome{
			Source:  name,
			Status:  res.Status,
			Records: res.Count(),
			Errors:  len(res.Errors),
		})
	}
	return run
}
