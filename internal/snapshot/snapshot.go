// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package snapshot persists the resolved subject and each source result as
// JSON files in the reports directory, so a report can be re-rendered and an
// interrupted run resumed without querying the network again.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/variant-research/pkg/types"
)

const (
	subjectSuffix = "_variant.json"
	reportSuffix  = "_report.html"
)

// ErrNotFound is returned when no snapshot exists for a key and source.
var ErrNotFound = errors.New("snapshot not found")

// Store reads and writes snapshot files under one directory. Each file is
// written by exactly one goroutine, so Store needs no locking.
type Store struct {
	dir string
}

// New returns a store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string { return s.dir }

// SubjectPath returns the path of the subject snapshot for key.
func (s *Store) SubjectPath(key string) string {
	return filepath.Join(s.dir, FileKey(key)+subjectSuffix)
}

// ResultPath returns the path of the result snapshot for key and source.
func (s *Store) ResultPath(key, source string) string {
	return filepath.Join(s.dir, FileKey(key)+"_"+FileKey(source)+".json")
}

// ReportPath returns the default report path for key.
func (s *Store) ReportPath(key string) string {
	return filepath.Join(s.dir, FileKey(key)+reportSuffix)
}

// FileKey maps a query key or source name to a safe file name component:
// the normalized key with every character outside [a-z0-9_-] replaced by "_".
func FileKey(key string) string {
	key = types.NormalizeQueryKey(key)
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// SaveSubject writes the subject snapshot.
func (s *Store) SaveSubject(subj types.Subject) error {
	return s.write(s.SubjectPath(subj.QueryKey), subj)
}

// LoadSubject reads the subject snapshot for key. A missing or malformed
// file, or one without a gene symbol, is reported as an
// UnresolvedSubjectError, the same way a failed resolution is.
func (s *Store) LoadSubject(key string) (types.Subject, error) {
	key = types.NormalizeQueryKey(key)
	var subj types.Subject
	if err := s.read(s.SubjectPath(key), &subj); err != nil {
		return types.Subject{}, &types.UnresolvedSubjectError{QueryKey: key, Reason: "no usable subject snapshot", Err: err}
	}
	if subj.QueryKey == "" {
		subj.QueryKey = key
	}
	if subj.Errors == nil {
		subj.Errors = []string{}
	}
	if err := subj.Validate(); err != nil {
		return types.Subject{}, err
	}
	return subj, nil
}

// SaveResult writes the snapshot of one source result.
func (s *Store) SaveResult(key string, r types.SourceResult) error {
	return s.write(s.ResultPath(key, r.Source), r)
}

// LoadResult reads the snapshot for key and source. The file must name the
// same source, carry a known status, and hold that source's payload unless
// the status is error. Unknown fields are ignored.
func (s *Store) LoadResult(key, source string) (types.SourceResult, error) {
	var r types.SourceResult
	if err := s.read(s.ResultPath(key, source), &r); err != nil {
		return types.SourceResult{}, err
	}
	switch {
	case r.Source != source:
		return types.SourceResult{}, fmt.Errorf("snapshot %s: source %q does not match %q",
			s.ResultPath(key, source), r.Source, source)
	case !types.ValidStatus(r.Status):
		return types.SourceResult{}, fmt.Errorf("snapshot %s: unknown status %q",
			s.ResultPath(key, source), r.Status)
	case r.Status != types.StatusError && !r.HasPayload():
		return types.SourceResult{}, fmt.Errorf("snapshot %s: missing %s payload",
			s.ResultPath(key, source), source)
	}
	if r.Errors == nil {
		r.Errors = []string{}
	}
	return r, nil
}

// LoadRecord rebuilds the aggregate record for key from snapshots. The
// subject must load; a source whose snapshot is missing or invalid becomes
// an error result carrying the reason.
func (s *Store) LoadRecord(key string, sources []string) (types.AggregateRecord, error) {
	subj, err := s.LoadSubject(key)
	if err != nil {
		return types.AggregateRecord{}, err
	}
	rec := types.AggregateRecord{Subject: subj, Sources: make(map[string]types.SourceResult, len(sources))}
	for _, name := range sources {
		r, err := s.LoadResult(subj.QueryKey, name)
		if err != nil {
			r = types.ErrorResult(name, fmt.Sprintf("%s: %v", name, err))
		}
		rec.Sources[name] = r
	}
	return rec, nil
}

func (s *Store) read(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return nil
}

// write marshals v and replaces path atomically via a temp file and rename,
// so readers never see a half-written snapshot.
func (s *Store) write(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating reports directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing snapshot: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing snapshot: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming snapshot: %w", err)
	}
	return nil
}
