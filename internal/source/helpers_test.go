// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"net/http"
	"testing"
	"time"

	"github.com/pdiddy/variant-research/internal/httputil"
	"github.com/pdiddy/variant-research/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
	httputil.MaxRetryAfter = time.Millisecond
}

// agt is the resolved subject for rs699 used across client tests.
var agt = types.Subject{
	QueryKey:      "rs699",
	GeneSymbol:    "AGT",
	GeneName:      "angiotensinogen",
	EnsemblGeneID: "ENSG00000135744",
	Errors:        []string{},
}

// testOptions returns client options with pacing disabled.
func testOptions(cfg types.SourcesConfig) Options {
	cfg.PatentsViewInterval = time.Nanosecond
	cfg.DefaultInterval = time.Nanosecond
	cfg.UserAgent = "variant-research-test"
	return Options{
		HTTP:   &http.Client{Timeout: 5 * time.Second},
		Config: cfg,
		NCBI:   httputil.NewPacer(0),
	}
}

// override replaces *target with value for the duration of t.
func override(t *testing.T, target *string, value string) {
	t.Helper()
	old := *target
	*target = value
	t.Cleanup(func() { *target = old })
}
