// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files. Each
// file in the directory represents one secret: the filename is the key name
// and the trimmed file contents are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Recognized key files.
const (
	PatentsViewAPIKey = "patentsview-api-key"
	BioGRIDAPIKey     = "biogrid-api-key"
	NCBIAPIKey        = "ncbi-api-key"
	NCBIEmail         = "ncbi-email"
)

// Secrets maps key names to values.
type Secrets map[string]string

// Load reads all files in dir. A missing directory is not an error; Load
// returns an empty set. Unreadable files are reported through warn and skipped.
func Load(dir string, warn func(name string, err error)) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Secrets)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if warn != nil {
				warn(name, err)
			}
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			s[name] = value
		}
	}
	return s, nil
}

// Or returns override when it is non-empty, and the stored value for key
// otherwise. Flags and environment variables take precedence over files.
func (s Secrets) Or(key, override string) string {
	if override != "" {
		return override
	}
	return s[key]
}

// Names returns the loaded key names in sorted order, never the values.
func (s Secrets) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
