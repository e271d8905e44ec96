// fetch.go implements the snapshot download and extraction.
//
// Forge snapshot archives wrap everything in a single "<repo>-<branch>/"
// top-level directory; extraction strips that component so the
// destination holds the repository contents directly. Entry paths are
// validated against directory traversal before anything is written.
package companion

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/etcdsp/rsprov/internal/config"
	"github.com/etcdsp/rsprov/internal/model"
)

// downloadTimeout bounds the archive download. Snapshot archives of the
// companion repository are a few megabytes; ten minutes covers even a
// congested uplink on a board behind tethered networking.
const downloadTimeout = 10 * time.Minute

// Fetcher downloads and extracts companion repository snapshots.
type Fetcher struct {
	// Client is the HTTP client used for the archive download.
	Client *http.Client
}

// NewFetcher creates a Fetcher with a timeout-bounded HTTP client.
func NewFetcher() *Fetcher {
	return &Fetcher{Client: &http.Client{Timeout: downloadTimeout}}
}

// ArchiveURL returns the forge's zip snapshot URL for the branch tip.
func ArchiveURL(cfg config.CompanionConfig) string {
	return strings.TrimSuffix(cfg.Repo, "/") + "/archive/refs/heads/" + cfg.Branch + ".zip"
}

// Fetch replaces the destination with a fresh snapshot of the
// configured branch. The sequence is: remove any existing copy,
// download the archive, extract it with the top-level directory
// stripped, delete the archive. A failed download after removal leaves
// no copy at all: the fetch has no rollback, matching the rest of the
// provisioning flow.
func (f *Fetcher) Fetch(ctx context.Context, cfg config.CompanionConfig) error {
	if err := os.RemoveAll(cfg.Dest); err != nil {
		return model.WrapCLIError(model.ExitDownloadFailed,
			fmt.Sprintf("failed to remove existing copy at %s", cfg.Dest), err)
	}

	archivePath, err := f.download(ctx, ArchiveURL(cfg))
	if err != nil {
		return err
	}
	defer os.Remove(archivePath)

	if err := extractStripped(archivePath, cfg.Dest); err != nil {
		return err
	}
	return nil
}

// download retrieves the archive into a temp file and returns its path.
func (f *Fetcher) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", model.WrapCLIError(model.ExitDownloadFailed, "failed to build archive request", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", model.WrapCLIError(model.ExitDownloadFailed,
			fmt.Sprintf("failed to download %s", url), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", model.NewCLIError(model.ExitDownloadFailed,
			fmt.Sprintf("archive download %s returned %s", url, resp.Status))
	}

	tmp, err := os.CreateTemp("", "rsprov-companion-*.zip")
	if err != nil {
		return "", model.WrapCLIError(model.ExitDownloadFailed, "failed to create archive temp file", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", model.WrapCLIError(model.ExitDownloadFailed, "failed to write archive", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", model.WrapCLIError(model.ExitDownloadFailed, "failed to write archive", err)
	}
	return tmp.Name(), nil
}

// extractStripped extracts the archive into dest with the single
// top-level directory component removed from every entry path.
func extractStripped(archivePath, dest string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return model.WrapCLIError(model.ExitDownloadFailed, "failed to open downloaded archive", err)
	}
	defer zr.Close()

	for _, entry := range zr.File {
		rel, ok := stripTopDir(entry.Name)
		if !ok {
			// The top-level directory entry itself, or an empty name.
			continue
		}

		target, err := secureJoin(dest, rel)
		if err != nil {
			return err
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return model.WrapCLIError(model.ExitDownloadFailed,
					fmt.Sprintf("failed to create directory %s", target), err)
			}
			continue
		}

		if err := writeEntry(entry, target); err != nil {
			return err
		}
	}
	return nil
}

// stripTopDir removes the first path component of an archive entry
// name. Returns ok=false for the top-level directory itself.
func stripTopDir(name string) (string, bool) {
	name = strings.TrimPrefix(name, "/")
	_, rest, found := strings.Cut(name, "/")
	if !found || rest == "" {
		return "", false
	}
	return rest, true
}

// secureJoin joins rel onto dest and rejects entries that would escape
// it (zip-slip).
func secureJoin(dest, rel string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(rel))
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", model.NewCLIError(model.ExitDownloadFailed,
			fmt.Sprintf("archive entry %q escapes the destination directory", rel))
	}
	return target, nil
}

// writeEntry writes a single archive file entry to target, preserving
// the entry's mode bits.
func writeEntry(entry *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return model.WrapCLIError(model.ExitDownloadFailed,
			fmt.Sprintf("failed to create directory for %s", target), err)
	}

	src, err := entry.Open()
	if err != nil {
		return model.WrapCLIError(model.ExitDownloadFailed,
			fmt.Sprintf("failed to read archive entry %s", entry.Name), err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, entry.Mode().Perm())
	if err != nil {
		return model.WrapCLIError(model.ExitDownloadFailed,
			fmt.Sprintf("failed to create %s", target), err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return model.WrapCLIError(model.ExitDownloadFailed,
			fmt.Sprintf("failed to extract %s", target), err)
	}
	return dst.Close()
}
