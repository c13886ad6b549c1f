// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnresolvedSubjectError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &UnresolvedSubjectError{QueryKey: "rs1", Reason: "lookup failed", Err: cause}

	assert.Equal(t, `could not resolve "rs1": lookup failed: connection reset`, err.Error())
	assert.ErrorIs(t, err, ErrUnresolvedSubject)
	assert.ErrorIs(t, err, cause)

	bare := &UnresolvedSubjectError{QueryKey: "rs1", Reason: "no hits"}
	assert.Equal(t, `could not resolve "rs1": no hits`, bare.Error())
	assert.ErrorIs(t, bare, ErrUnresolvedSubject)
}

func TestPipelineAbortedErrorUnwrapsCause(t *testing.T) {
	inner := &UnresolvedSubjectError{QueryKey: "rs1", Reason: "no hits"}
	err := &PipelineAbortedError{Phase: PhaseResolve, Err: inner}

	assert.Contains(t, err.Error(), "pipeline aborted during resolve")
	assert.ErrorIs(t, err, ErrUnresolvedSubject)

	var ue *UnresolvedSubjectError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "rs1", ue.QueryKey)
}

func TestRenderError(t *testing.T) {
	cause := errors.New("disk full")
	err := &RenderError{Path: "reports/rs1_report.html", Err: cause}

	assert.Equal(t, "rendering report reports/rs1_report.html: disk full", err.Error())
	assert.ErrorIs(t, err, ErrRender)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "rendering report: disk full", (&RenderError{Err: cause}).Error())
}

func TestSourceClientError(t *testing.T) {
	cause := errors.New("HTTP 500")
	err := &SourceClientError{Source: SourceClinical, Op: "clinvar esearch", Err: cause}
	assert.Equal(t, "clinical clinvar esearch: HTTP 500", err.Error())
	assert.ErrorIs(t, err, cause)
}
