package pyruntime

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"gdl/pkg/config"
	"gdl/pkg/downloader"
)

type mockTask struct{}

func (m *mockTask) Log(msg string)                       {}
func (m *mockTask) SetStage(name string, target string)  {}
func (m *mockTask) Progress(percent int, message string) {}
func (m *mockTask) Done()                                {}

const assetName = "cpython-3.12.8+20250106-x86_64-unknown-linux-gnu-install_only.tar.gz"

func makeInterpreterArchive(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	content := []byte("#!/fake python\n")
	hdr := &tar.Header{Name: "python/bin/python3", Mode: 0755, Size: int64(len(content))}
	tw.WriteHeader(hdr)
	tw.Write(content)
	tw.Close()
	gw.Close()
	return buf.Bytes()
}

func testConfig(t *testing.T) config.ReadOnly {
	t.Helper()
	cfg, err := config.Init()
	if err != nil {
		t.Fatal(err)
	}
	w := cfg.Checkout()
	base := t.TempDir()
	w.SetBaseDir(base)
	w.SetDownloadDir(filepath.Join(base, "downloads"))
	w.Freeze()
	return w
}

func TestBootstrapStages(t *testing.T) {
	archiveData := makeInterpreterArchive(t)
	sum := sha256.Sum256(archiveData)
	digest := hex.EncodeToString(sum[:])

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/" + assetName:
			w.Write(archiveData)
		case "/" + assetName + ".sha256":
			fmt.Fprintf(w, "%s  %s\n", digest, assetName)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	cfg := testConfig(t)
	plan, err := NewPlan(cfg, ts.URL+"/"+assetName)
	if err != nil {
		t.Fatal(err)
	}

	dl := downloader.NewDefaultDownloader()
	task := &mockTask{}
	ctx := context.Background()

	if err := DownloadStage(ctx, dl, plan, task); err != nil {
		t.Fatalf("DownloadStage failed: %v", err)
	}
	if _, err := os.Stat(plan.DownloadPath); err != nil {
		t.Fatalf("archive missing after download: %v", err)
	}
	if _, err := os.Stat(plan.ChecksumPath); err != nil {
		t.Fatalf("checksum missing after download: %v", err)
	}

	if err := VerifyStage(plan, task); err != nil {
		t.Fatalf("VerifyStage failed: %v", err)
	}

	if err := ExtractStage(plan, task); err != nil {
		t.Fatalf("ExtractStage failed: %v", err)
	}

	python := filepath.Join(plan.RuntimeDir, "python", "bin", "python3")
	if _, err := os.Stat(python); err != nil {
		t.Errorf("interpreter missing after extract: %v", err)
	}

	// No temp dir may survive the atomic extract
	if _, err := os.Stat(plan.RuntimeDir + ".tmp"); !os.IsNotExist(err) {
		t.Error("extract temp dir left behind")
	}
}

func TestVerifyStageMismatch(t *testing.T) {
	archiveData := makeInterpreterArchive(t)
	wrong := sha256.Sum256([]byte("something else"))
	digest := hex.EncodeToString(wrong[:])

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/" + assetName:
			w.Write(archiveData)
		case "/" + assetName + ".sha256":
			fmt.Fprintf(w, "%s  %s\n", digest, assetName)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	cfg := testConfig(t)
	plan, err := NewPlan(cfg, ts.URL+"/"+assetName)
	if err != nil {
		t.Fatal(err)
	}

	dl := downloader.NewDefaultDownloader()
	task := &mockTask{}
	if err := DownloadStage(context.Background(), dl, plan, task); err != nil {
		t.Fatal(err)
	}

	if err := VerifyStage(plan, task); err == nil {
		t.Fatal("expected checksum mismatch error")
	}

	// The bad archive must be removed so the next run re-downloads it
	if _, err := os.Stat(plan.DownloadPath); !os.IsNotExist(err) {
		t.Error("corrupt archive not removed after mismatch")
	}
}

func TestNewPlanRejectsUnsupportedArchive(t *testing.T) {
	cfg := testConfig(t)
	if _, err := NewPlan(cfg, "https://example.com/python.rar"); err == nil {
		t.Fatal("expected error for unsupported archive extension")
	}
}
