package companion

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etcdsp/rsprov/internal/config"
	"github.com/etcdsp/rsprov/internal/model"
)

// buildSnapshotZip assembles an in-memory forge-style snapshot archive:
// every entry lives under a single "<repo>-<branch>/" top directory.
func buildSnapshotZip(t *testing.T, topDir string, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	// Forge archives include the top directory as its own entry.
	_, err := zw.Create(topDir + "/")
	require.NoError(t, err)

	for name, content := range files {
		w, err := zw.Create(topDir + "/" + name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// snapshotServer serves the archive bytes at the forge snapshot path.
func snapshotServer(t *testing.T, branch string, archive []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/archive/refs/heads/"+branch+".zip" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(archive)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestArchiveURL verifies the snapshot URL construction.
func TestArchiveURL(t *testing.T) {
	cfg := config.CompanionConfig{Repo: "https://github.com/etcdsp/rs_py/", Branch: "main"}
	assert.Equal(t, "https://github.com/etcdsp/rs_py/archive/refs/heads/main.zip", ArchiveURL(cfg))
}

// TestFetch_FreshDestination verifies a first fetch extracts the
// snapshot with the top-level directory stripped.
func TestFetch_FreshDestination(t *testing.T) {
	archive := buildSnapshotZip(t, "rs_py-main", map[string]string{
		"viewer.py":       "print('viewer')",
		"util/replay.py":  "print('replay')",
		"calib/intrinsic": "matrix",
	})
	srv := snapshotServer(t, "main", archive)

	dest := filepath.Join(t.TempDir(), "rs_py")
	cfg := config.CompanionConfig{Repo: srv.URL, Branch: "main", Dest: dest}

	require.NoError(t, NewFetcher().Fetch(context.Background(), cfg))

	data, err := os.ReadFile(filepath.Join(dest, "viewer.py"))
	require.NoError(t, err)
	assert.Equal(t, "print('viewer')", string(data))
	assert.FileExists(t, filepath.Join(dest, "util", "replay.py"))
	// The top-level archive directory must not survive extraction.
	assert.NoDirExists(t, filepath.Join(dest, "rs_py-main"))
}

// TestFetch_ReplacesExistingCopy pins the core postcondition: a
// previously-existing destination ends up holding exactly the fresh
// snapshot, with the old content fully removed.
func TestFetch_ReplacesExistingCopy(t *testing.T) {
	archive := buildSnapshotZip(t, "rs_py-main", map[string]string{
		"viewer.py": "new content",
	})
	srv := snapshotServer(t, "main", archive)

	dest := filepath.Join(t.TempDir(), "rs_py")
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "stale-dir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "old.py"), []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "viewer.py"), []byte("old content"), 0o644))

	cfg := config.CompanionConfig{Repo: srv.URL, Branch: "main", Dest: dest}
	require.NoError(t, NewFetcher().Fetch(context.Background(), cfg))

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	require.Len(t, entries, 1, "only the fresh snapshot may remain")
	assert.Equal(t, "viewer.py", entries[0].Name())

	data, err := os.ReadFile(filepath.Join(dest, "viewer.py"))
	require.NoError(t, err)
	assert.Equal(t, "new content", string(data))
}

// TestFetch_DownloadErrorCarriesExitCode verifies a missing branch
// (404) is reported with the download exit code.
func TestFetch_DownloadErrorCarriesExitCode(t *testing.T) {
	srv := snapshotServer(t, "main", nil)

	cfg := config.CompanionConfig{
		Repo:   srv.URL,
		Branch: "does-not-exist",
		Dest:   filepath.Join(t.TempDir(), "rs_py"),
	}

	err := NewFetcher().Fetch(context.Background(), cfg)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitDownloadFailed, cliErr.Code)
}

// TestFetch_RejectsZipSlip verifies traversal entries are refused
// before anything is written outside the destination.
func TestFetch_RejectsZipSlip(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("rs_py-main/../../escape.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("bad"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	srv := snapshotServer(t, "main", buf.Bytes())

	parent := t.TempDir()
	cfg := config.CompanionConfig{
		Repo:   srv.URL,
		Branch: "main",
		Dest:   filepath.Join(parent, "rs_py"),
	}

	err = NewFetcher().Fetch(context.Background(), cfg)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(parent, "escape.txt"))
}

// TestStripTopDir verifies top-component stripping edge cases.
func TestStripTopDir(t *testing.T) {
	tests := []struct {
		in   string
		out  string
		ok   bool
	}{
		{"rs_py-main/viewer.py", "viewer.py", true},
		{"rs_py-main/util/replay.py", "util/replay.py", true},
		{"rs_py-main/", "", false},
		{"rs_py-main", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			out, ok := stripTopDir(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.out, out)
		})
	}
}
