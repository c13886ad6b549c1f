// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/variant-research/pkg/types"
)

var errEmptyNetwork = errors.New("empty BioPlex network file")

// bioplex scans the BioPlex 293T network for edges touching gene. The
// network file is downloaded once and cached on disk.
func (c *Protein) bioplex(ctx context.Context, gene string) ([]types.BioPlexInteraction, error) {
	path, err := c.bioplexFile(ctx)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening BioPlex cache: %w", err)
	}
	defer f.Close()
	return scanBioPlex(f, gene)
}

// bioplexFile returns the cached network file path, downloading it first
// when absent. The download is written to a temp file and renamed so a
// partial download never poisons the cache.
func (c *Protein) bioplexFile(ctx context.Context) (string, error) {
	dest := filepath.Join(c.cacheDir, bioplexCacheFile)
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		return dest, nil
	}
	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache directory: %w", err)
	}

	c.logger.Info("downloading BioPlex network", zap.String("dest", dest))
	body, err := c.download.get(ctx, "BioPlex", bioplexDataURL, nil)
	if err != nil {
		return "", err
	}
	defer body.Close()

	tmpFile, err := os.CreateTemp(c.cacheDir, ".bioplex-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return dest, nil
}

// scanBioPlex reads the tab-separated network and returns every edge whose
// SymbolA or SymbolB equals gene, case-insensitively. The network repeats
// pairs in both orientations, so callers dedupe before applying a ceiling.
func scanBioPlex(r io.Reader, gene string) ([]types.BioPlexInteraction, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errEmptyNetwork
	}
	if err != nil {
		return nil, fmt.Errorf("reading BioPlex header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"SymbolA", "SymbolB"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("BioPlex file missing %s column", required)
		}
	}
	cell := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []types.BioPlexInteraction
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading BioPlex row: %w", err)
		}
		a, b := cell(rec, "SymbolA"), cell(rec, "SymbolB")
		if !strings.EqualFold(a, gene) && !strings.EqualFold(b, gene) {
			continue
		}

		edge := types.BioPlexInteraction{
			SymbolA:  a,
			SymbolB:  b,
			UniprotA: cell(rec, "UniprotA"),
			UniprotB: cell(rec, "UniprotB"),
		}
		if p, err := strconv.ParseFloat(cell(rec, "pInt"), 64); err == nil {
			edge.PInteraction = &p
		}
		out = append(out, edge)
	}
	return out, nil
}
