// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvedSubject matches any UnresolvedSubjectError via errors.Is.
	ErrUnresolvedSubject = errors.New("could not resolve subject")

	// ErrRender matches any RenderError via errors.Is.
	ErrRender = errors.New("report rendering failed")
)

// UnresolvedSubjectError reports that a query key could not be mapped to a
// canonical gene symbol. It is fatal for the run.
type UnresolvedSubjectError struct {
	QueryKey string
	Reason   string
	Err      error
}

func (e *UnresolvedSubjectError) Error() string {
	msg := fmt.Sprintf("could not resolve %q: %s", e.QueryKey, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnresolvedSubjectError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnresolvedSubject}
	}
	return []error{ErrUnresolvedSubject, e.Err}
}

// SourceClientError describes one failed sub-query of a source client. It is
// recorded into the SourceResult and never propagated.
type SourceClientError struct {
	Source string
	Op     string
	Err    error
}

func (e *SourceClientError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Source, e.Op, e.Err)
}

func (e *SourceClientError) Unwrap() error { return e.Err }

// RenderError reports a failure while assembling or writing the report.
// Snapshots on disk are unaffected, so rendering can be retried.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("rendering report: %v", e.Err)
	}
	return fmt.Sprintf("rendering report %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() []error { return []error{ErrRender, e.Err} }

// Phase names a pipeline phase for PipelineAbortedError.
type Phase string

const (
	PhaseResolve Phase = "resolve"
	PhaseRender  Phase = "render"
)

// PipelineAbortedError reports that a fatal error stopped the pipeline in
// the given phase.
type PipelineAbortedError struct {
	Phase Phase
	Err   error
}

func (e *PipelineAbortedError) Error() string {
	return fmt.Sprintf("pipeline aborted during %s: %v", e.Phase, e.Err)
}

func (e *PipelineAbortedError) Unwrap() error { return e.Err }
