// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/variant-research/pkg/types"
)

func TestObserveSource(t *testing.T) {
	m := New()
	m.ObserveSource(types.SourcePatents, types.StatusPartial, 0, 2*time.Second)
	m.ObserveSource(types.SourcePatents, types.StatusPartial, 3, time.Second)
	m.ObserveSource(types.SourceProtein, types.StatusOK, 120, 10*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SourceFetchesTotal.WithLabelValues("patents", "partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceFetchesTotal.WithLabelValues("protein", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SourceRecords.WithLabelValues("patents")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.SourceLatency))
}

func TestObserveRun(t *testing.T) {
	m := New()
	m.ObserveRun("done", time.Minute)
	m.ObserveRun("aborted", time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("aborted")))
	assert.Greater(t, testutil.ToFloat64(m.LastRunTimestamp), 0.0)
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveSource(types.SourceClinical, types.StatusError, 0, time.Second)
	m.ObserveRun("done", time.Minute)

	path := filepath.Join(t.TempDir(), "textfile", "variant_research.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `variant_research_source_fetches_total{source="clinical",status="error"} 1`)
	assert.Contains(t, text, `variant_research_runs_total{state="done"} 1`)

	expected := `
# HELP variant_research_runs_total Research runs by terminal state.
# TYPE variant_research_runs_total counter
variant_research_runs_total{state="done"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "variant_research_runs_total"))
}
