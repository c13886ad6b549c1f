// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source implements the clients that query one upstream research
// source each for a resolved subject: literature, patents, clinical,
// protein and drug targets. Every client turns upstream failures into
// entries of the result's Errors list and never returns an error, so one
// failing source cannot affect the others.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/variant-research/internal/httputil"
	"github.com/pdiddy/variant-research/pkg/types"
)

// Client fetches the records of one source for a resolved subject.
type Client interface {
	// Name returns the source identifier, unique within a run.
	Name() string

	// Fetch queries the upstream service. It never returns an error:
	// failures are recorded in the result's Errors and Status.
	Fetch(ctx context.Context, subject types.Subject) types.SourceResult
}

// Default pacing and NCBI identification, used when the config leaves them zero.
const (
	DefaultPatentsViewInterval = 1500 * time.Millisecond
	DefaultInterval            = 200 * time.Millisecond
	DefaultTimeout             = 30 * time.Second
	DefaultDownloadTimeout     = 60 * time.Second
	DefaultNCBITool            = "variant_research"
	DefaultNCBIEmail           = "variant_research@example.com"
)

// Options holds what every client is constructed with. Credentials travel in
// Config; no client reads the environment.
type Options struct {
	HTTP   *http.Client
	Config types.SourcesConfig

	// NCBI paces E-utilities calls. Clients that talk to NCBI must share
	// one Pacer so the combined request rate stays under the limit.
	NCBI *httputil.Pacer

	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Config.Timeout <= 0 {
		o.Config.Timeout = DefaultTimeout
	}
	if o.Config.DownloadTimeout <= 0 {
		o.Config.DownloadTimeout = DefaultDownloadTimeout
	}
	if o.Config.PatentsViewInterval <= 0 {
		o.Config.PatentsViewInterval = DefaultPatentsViewInterval
	}
	if o.Config.DefaultInterval <= 0 {
		o.Config.DefaultInterval = DefaultInterval
	}
	if o.Config.NCBI.Tool == "" {
		o.Config.NCBI.Tool = DefaultNCBITool
	}
	if o.Config.NCBI.Email == "" {
		o.Config.NCBI.Email = DefaultNCBIEmail
	}
	if o.HTTP == nil {
		o.HTTP = &http.Client{Timeout: o.Config.Timeout}
	}
	if o.NCBI == nil {
		o.NCBI = httputil.NewPacer(o.Config.NCBI.MinInterval())
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// outcome accumulates sub-query attempts and error messages for one Fetch
// call and derives the final status from them.
type outcome struct {
	source    string
	attempted int
	failed    int
	errors    []string
}

func newOutcome(source string) *outcome {
	return &outcome{source: source, errors: []string{}}
}

// record counts one attempted sub-query and reports whether it succeeded.
func (o *outcome) record(op string, err error) bool {
	o.attempted++
	if err == nil {
		return true
	}
	o.failed++
	o.errors = append(o.errors, (&types.SourceClientError{Source: o.source, Op: op, Err: err}).Error())
	return false
}

// note adds a soft message that does not count as a failed sub-query.
func (o *outcome) note(format string, args ...any) {
	o.errors = append(o.errors, fmt.Sprintf(format, args...))
}

// status applies the status rule: nothing attempted is partial, every
// attempt failing is an error, some failing is partial, otherwise ok.
func (o *outcome) status() types.Status {
	switch {
	case o.attempted == 0:
		return types.StatusPartial
	case o.failed == o.attempted:
		return types.StatusError
	case o.failed > 0:
		return types.StatusPartial
	default:
		return types.StatusOK
	}
}

func (o *outcome) result() types.SourceResult {
	return types.SourceResult{Source: o.source, Status: o.status(), Errors: o.errors}
}

// fetcher performs paced HTTP calls against one upstream service group.
type fetcher struct {
	client    *http.Client
	pacer     *httputil.Pacer
	userAgent string
}

func newFetcher(opts Options, pacer *httputil.Pacer) fetcher {
	return fetcher{client: opts.HTTP, pacer: pacer, userAgent: opts.Config.UserAgent}
}

// do waits on the pacer, sends req with 429 retries and checks for 200 OK.
// The caller closes the returned body.
func (f fetcher) do(ctx context.Context, service string, req *http.Request) (io.ReadCloser, error) {
	if err := f.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	resp, err := httputil.DoWithRetry(ctx, f.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", service, err)
	}
	if err := httputil.CheckStatus(service, resp); err != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func (f fetcher) get(ctx context.Context, service, reqURL string, header http.Header) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	return f.do(ctx, service, req)
}

func (f fetcher) getJSON(ctx context.Context, service, reqURL string, header http.Header, v any) error {
	body, err := f.get(ctx, service, reqURL, header)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("parsing %s response: %w", service, err)
	}
	return nil
}

func (f fetcher) getXML(ctx context.Context, service, reqURL string, v any) error {
	body, err := f.get(ctx, service, reqURL, nil)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := xml.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("parsing %s response: %w", service, err)
	}
	return nil
}

func (f fetcher) getBytes(ctx context.Context, service, reqURL string) ([]byte, error) {
	body, err := f.get(ctx, service, reqURL, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", service, err)
	}
	return data, nil
}

func (f fetcher) postJSON(ctx context.Context, service, reqURL string, payload, v any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", service, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := f.do(ctx, service, req)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("parsing %s response: %w", service, err)
	}
	return nil
}
