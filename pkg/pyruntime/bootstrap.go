package pyruntime

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"gdl/pkg/archive"
	"gdl/pkg/cache"
	"gdl/pkg/config"
	"gdl/pkg/display"
	"gdl/pkg/downloader"
)

// Plan contains the resolved paths for one interpreter bootstrap.
type Plan struct {
	// AssetURL is the archive download URL selected from the release index.
	AssetURL string
	// ChecksumURL is the sibling .sha256 asset for the archive.
	ChecksumURL string
	// DownloadPath is where the archive lands in the download cache.
	DownloadPath string
	// ChecksumPath is where the checksum file lands in the download cache.
	ChecksumPath string
	// RuntimeDir is the final destination next to the launcher.
	RuntimeDir string
}

// NewPlan derives the bootstrap filesystem layout from the asset URL and
// the launcher configuration.
func NewPlan(cfg config.ReadOnly, assetURL string) (*Plan, error) {
	if err := os.MkdirAll(cfg.GetDownloadDir(), 0755); err != nil {
		return nil, err
	}

	fileName := filepath.Base(assetURL)
	if fileName == "" || fileName == "." || fileName == "/" {
		return nil, fmt.Errorf("cannot derive filename from asset url: %s", assetURL)
	}
	if !archive.IsSupported(cfg.GetOS(), fileName) {
		return nil, fmt.Errorf("unsupported interpreter archive: %s", fileName)
	}

	downloadPath := filepath.Join(cfg.GetDownloadDir(), fileName)

	return &Plan{
		AssetURL:     assetURL,
		ChecksumURL:  assetURL + ".sha256",
		DownloadPath: downloadPath,
		ChecksumPath: downloadPath + ".sha256",
		RuntimeDir:   cfg.GetRuntimeDir(),
	}, nil
}

// Bootstrap downloads, verifies, and unpacks a standalone CPython build
// into the runtime directory next to the launcher. Already-present stages
// are skipped, so an interrupted bootstrap resumes where it stopped.
func Bootstrap(ctx context.Context, cfg config.ReadOnly, disp display.Display) error {
	task := disp.StartTask("python-runtime")
	defer task.Done()

	dl := downloader.NewDefaultDownloader()

	task.SetStage("Resolve", indexURL)
	indexJSON, err := fetchIndex(ctx, dl, task)
	if err != nil {
		return err
	}
	assetURL, err := SelectAsset(indexJSON, cfg.GetOS(), cfg.GetArch())
	if err != nil {
		return err
	}

	plan, err := NewPlan(cfg, assetURL)
	if err != nil {
		return err
	}

	if err := DownloadStage(ctx, dl, plan, task); err != nil {
		return fmt.Errorf("download stage failed: %w", err)
	}
	if err := VerifyStage(plan, task); err != nil {
		return fmt.Errorf("verify stage failed: %w", err)
	}
	if err := ExtractStage(plan, task); err != nil {
		return fmt.Errorf("extract stage failed: %w", err)
	}

	slog.Info("Interpreter bootstrap complete", "runtime", plan.RuntimeDir)
	return nil
}

// DownloadStage retrieves the interpreter archive and its checksum file.
// The two fetches run concurrently; each is cached and skipped when a
// previous run already produced it.
func DownloadStage(ctx context.Context, dl downloader.Downloader, plan *Plan, task display.Task) error {
	slog.Info("Downloading interpreter", "url", plan.AssetURL, "path", plan.DownloadPath)
	task.SetStage("Download", filepath.Base(plan.DownloadPath))

	g, ctx := errgroup.WithContext(ctx)

	fetch := func(url, path string, t display.Task) func() error {
		return func() error {
			return cache.Ensure(path, nil, func() error {
				tmp := path + ".part"
				f, err := os.Create(tmp)
				if err != nil {
					return err
				}
				if err := dl.Download(ctx, url, f, t); err != nil {
					f.Close()
					os.Remove(tmp)
					return err
				}
				if err := f.Close(); err != nil {
					os.Remove(tmp)
					return err
				}
				return os.Rename(tmp, path)
			})
		}
	}

	g.Go(fetch(plan.AssetURL, plan.DownloadPath, task))
	g.Go(fetch(plan.ChecksumURL, plan.ChecksumPath, nil))

	return g.Wait()
}

// VerifyStage compares the archive against its published sha256 digest.
// A mismatch removes the archive so the next run re-downloads it.
func VerifyStage(plan *Plan, task display.Task) error {
	task.SetStage("Verify", filepath.Base(plan.DownloadPath))

	want, err := readChecksum(plan.ChecksumPath)
	if err != nil {
		return err
	}

	f, err := os.Open(plan.DownloadPath)
	if err != nil {
		return err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}
	got := hex.EncodeToString(h.Sum(nil))

	if !strings.EqualFold(got, want) {
		os.Remove(plan.DownloadPath)
		return fmt.Errorf("checksum mismatch for %s: got %s, want %s",
			filepath.Base(plan.DownloadPath), got, want)
	}
	return nil
}

// ExtractStage unpacks the verified archive into the runtime directory.
// Extraction goes through a temporary directory so the final runtime
// appears atomically.
func ExtractStage(plan *Plan, task display.Task) error {
	slog.Info("Extracting interpreter", "path", plan.RuntimeDir)
	task.SetStage("Extract", plan.RuntimeDir)

	return cache.Ensure(plan.RuntimeDir, nil, func() error {
		tmpDir := plan.RuntimeDir + ".tmp"
		if err := os.RemoveAll(tmpDir); err != nil {
			return err
		}
		if err := os.MkdirAll(tmpDir, 0755); err != nil {
			return err
		}
		defer os.RemoveAll(tmpDir)

		if err := archive.Extract(plan.DownloadPath, tmpDir); err != nil {
			return err
		}

		return os.Rename(tmpDir, plan.RuntimeDir)
	})
}

// readChecksum parses a sha256 file: the digest is the first field, often
// followed by the filename.
func readChecksum(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", fmt.Errorf("empty checksum file: %s", path)
	}
	sum := fields[0]
	if len(sum) != sha256.Size*2 {
		return "", fmt.Errorf("malformed checksum in %s: %q", path, sum)
	}
	return sum, nil
}
