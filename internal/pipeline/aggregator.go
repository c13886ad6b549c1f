// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline resolves a query key, fans the resolved subject out to
// every source client concurrently, and merges their results into one
// AggregateRecord. A Runner drives a full run through rendering.
package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/variant-research/internal/source"
	"github.com/pdiddy/variant-research/pkg/types"
)

// Resolver maps a query key to a resolved subject.
type Resolver interface {
	Resolve(ctx context.Context, queryKey string) (types.Subject, error)
}

// Store persists snapshots. *snapshot.Store satisfies it.
type Store interface {
	SaveSubject(types.Subject) error
	SaveResult(key string, r types.SourceResult) error
	LoadResult(key, source string) (types.SourceResult, error)
}

// Recorder observes per-source outcomes. *metrics.Metrics satisfies it.
type Recorder interface {
	ObserveSource(source string, status types.Status, records int, elapsed time.Duration)
}

// Options configures an Aggregator. Every field is optional.
type Options struct {
	// Store receives the subject and each result as soon as it exists.
	Store Store

	// Resume reuses a valid, non-error snapshot instead of fetching.
	// Requires Store.
	Resume bool

	Recorder Recorder
	Logger   *zap.Logger

	// OnState is called on every state change, from the calling goroutine.
	OnState func(State)
}

// Aggregator runs the resolver and the registered source clients.
type Aggregator struct {
	resolver Resolver
	clients  []source.Client
	opts     Options
	logger   *zap.Logger
}

// NewAggregator returns an aggregator over clients. Client names must be
// unique and non-empty.
func NewAggregator(resolver Resolver, clients []source.Client, opts Options) (*Aggregator, error) {
	if resolver == nil {
		return nil, fmt.Errorf("no resolver configured")
	}
	seen := make(map[string]bool, len(clients))
	for _, c := range clients {
		name := c.Name()
		if name == "" {
			return nil, fmt.Errorf("source client with empty name")
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate source client %q", name)
		}
		seen[name] = true
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{resolver: resolver, clients: clients, opts: opts, logger: logger}, nil
}

// Sources returns the registered client names in registration order.
func (a *Aggregator) Sources() []string {
	names := make([]string, len(a.clients))
	for i, c := range a.clients {
		names[i] = c.Name()
	}
	return names
}

// Run resolves queryKey, fetches from every client concurrently and returns
// the merged record. A resolution failure returns a PipelineAbortedError and
// no client is called. Client failures never fail the run: each is recorded
// in its SourceResult, and the record always holds one entry per client.
func (a *Aggregator) Run(ctx context.Context, queryKey string) (types.AggregateRecord, error) {
	return a.run(ctx, queryKey, a.opts.OnState)
}

func (a *Aggregator) run(ctx context.Context, queryKey string, onState func(State)) (types.AggregateRecord, error) {
	setState := func(s State) {
		if onState != nil {
			onState(s)
		}
	}
	key := types.NormalizeQueryKey(queryKey)
	log := a.logger.With(zap.String("query_key", key))

	setState(StateResolving)
	subj, err := a.resolver.Resolve(ctx, key)
	if err == nil {
		err = subj.Validate()
	}
	if err != nil {
		setState(StateAborted)
		log.Error("resolution failed", zap.Error(err))
		return types.AggregateRecord{}, &types.PipelineAbortedError{Phase: types.PhaseResolve, Err: err}
	}
	setState(StateResolved)
	log.Info("subject resolved",
		zap.String("gene", subj.GeneSymbol), zap.String("ensembl_id", subj.EnsemblGeneID))

	if a.opts.Store != nil {
		if err := a.opts.Store.SaveSubject(subj); err != nil {
			log.Warn("saving subject snapshot", zap.Error(err))
		}
	}

	setState(StateFetching)
	results := make([]types.SourceResult, len(a.clients))

	// Every task records its own outcome and returns nil, so one failing
	// client never cancels its siblings.
	var g errgroup.Group
	for i, c := range a.clients {
		i, c := i, c
		g.Go(func() error {
			results[i] = a.fetch(ctx, c, subj)
			return nil
		})
	}
	g.Wait()

	rec := types.AggregateRecord{Subject: subj, Sources: make(map[string]types.SourceResult, len(results))}
	for _, r := range results {
		rec.Sources[r.Source] = r
	}
	setState(StateFetched)

	sum := rec.Summary()
	log.Info("sources fetched",
		zap.Int("ok", sum.OK), zap.Int("degraded", sum.Degraded), zap.Int("failed", sum.Failed))
	return rec, nil
}

// fetch runs one client, or reuses its snapshot when resuming, and
// normalizes the result. A panic becomes an error result.
func (a *Aggregator) fetch(ctx context.Context, c source.Client, subj types.Subject) (res types.SourceResult) {
	name := c.Name()
	log := a.logger.With(zap.String("source", name))
	start := time.Now()

	if r, ok := a.resumed(subj.QueryKey, name); ok {
		log.Info("reusing snapshot", zap.String("status", string(r.Status)))
		return r
	}

	defer func() {
		if p := recover(); p != nil {
			log.Error("source client panicked", zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
			res = types.ErrorResult(name, fmt.Sprintf("%s: panic: %v", name, p))
		}
		res = normalize(name, res)
		elapsed := time.Since(start)

		if a.opts.Store != nil {
			if err := a.opts.Store.SaveResult(subj.QueryKey, res); err != nil {
				log.Warn("saving result snapshot", zap.Error(err))
			}
		}
		if a.opts.Recorder != nil {
			a.opts.Recorder.ObserveSource(name, res.Status, res.Count(), elapsed)
		}
		log.Info("source finished",
			zap.String("status", string(res.Status)),
			zap.Int("records", res.Count()),
			zap.Int("errors", len(res.Errors)),
			zap.Duration("elapsed", elapsed))
	}()

	return c.Fetch(ctx, subj)
}

func (a *Aggregator) resumed(key, name string) (types.SourceResult, bool) {
	if !a.opts.Resume || a.opts.Store == nil {
		return types.SourceResult{}, false
	}
	r, err := a.opts.Store.LoadResult(key, name)
	if err != nil || r.Status == types.StatusError {
		return types.SourceResult{}, false
	}
	return r, true
}

// normalize forces the registered name onto the result and repairs an
// unknown status.
func normalize(name string, r types.SourceResult) types.SourceResult {
	if r.Source != name {
		r.Source = name
	}
	if r.Errors == nil {
		r.Errors = []string{}
	}
	if !types.ValidStatus(r.Status) {
		r.Errors = append(r.Errors, fmt.Sprintf("%s: invalid status %q", name, r.Status))
		r.Status = types.StatusError
	}
	return r
}
