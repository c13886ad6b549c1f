// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T) string
		want   Secrets
		errMsg string
	}{
		{
			name: "missing directory returns empty set",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: Secrets{},
		},
		{
			name: "empty directory returns empty set",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
			want: Secrets{},
		},
		{
			name: "reads all key files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, PatentsViewAPIKey, "pv-key-123")
				writeFile(t, dir, BioGRIDAPIKey, "bg-key-456")
				writeFile(t, dir, NCBIAPIKey, "ncbi-789")
				return dir
			},
			want: Secrets{
				PatentsViewAPIKey: "pv-key-123",
				BioGRIDAPIKey:     "bg-key-456",
				NCBIAPIKey:        "ncbi-789",
			},
		},
		{
			name: "trims whitespace and newlines",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, NCBIEmail, "  someone@example.org\n\n")
				return dir
			},
			want: Secrets{NCBIEmail: "someone@example.org"},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, BioGRIDAPIKey, "   \n")
				writeFile(t, dir, PatentsViewAPIKey, "pv")
				return dir
			},
			want: Secrets{PatentsViewAPIKey: "pv"},
		},
		{
			name: "skips dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden", "nope")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
				writeFile(t, dir, NCBIAPIKey, "k")
				return dir
			},
			want: Secrets{NCBIAPIKey: "k"},
		},
		{
			name: "path is a file",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "plain", "x")
				return filepath.Join(dir, "plain")
			},
			errMsg: "reading secrets directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setup(t)
			got, err := Load(dir, nil)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission bits")
	}
	dir := t.TempDir()
	writeFile(t, dir, PatentsViewAPIKey, "value123")

	badPath := filepath.Join(dir, BioGRIDAPIKey)
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	var warned []string
	got, err := Load(dir, func(name string, _ error) { warned = append(warned, name) })
	require.NoError(t, err)
	assert.Equal(t, "value123", got[PatentsViewAPIKey])
	_, hasBad := got[BioGRIDAPIKey]
	assert.False(t, hasBad, "unreadable file should not appear in result")
	assert.Equal(t, []string{BioGRIDAPIKey}, warned)
}

func TestSecretsOr(t *testing.T) {
	s := Secrets{PatentsViewAPIKey: "from-file"}

	assert.Equal(t, "from-env", s.Or(PatentsViewAPIKey, "from-env"))
	assert.Equal(t, "from-file", s.Or(PatentsViewAPIKey, ""))
	assert.Empty(t, s.Or(BioGRIDAPIKey, ""))
}

func TestSecretsNames(t *testing.T) {
	s := Secrets{NCBIAPIKey: "a", BioGRIDAPIKey: "b"}
	assert.Equal(t, []string{BioGRIDAPIKey, NCBIAPIKey}, s.Names())
	assert.Empty(t, Secrets{}.Names())
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
