package venv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func lookupEnv(env []string, key string) (string, bool) {
	prefix := key + "="
	for _, e := range env {
		if strings.HasPrefix(e, prefix) {
			return strings.TrimPrefix(e, prefix), true
		}
	}
	return "", false
}

func TestActivateComposesEnvironment(t *testing.T) {
	base := t.TempDir()
	cfg := testConfig(t, base)
	root := cfg.GetEnvRoot()
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PYTHONHOME", "/opt/other-python")

	mgr := newTestManager(t, cfg, "python3", cfg.GetDependencies())
	act, err := mgr.Activate()
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	defer act.Release()

	if got, ok := lookupEnv(act.Env, "VIRTUAL_ENV"); !ok || got != root {
		t.Errorf("VIRTUAL_ENV = %q, want %q", got, root)
	}

	path, ok := lookupEnv(act.Env, "PATH")
	if !ok {
		t.Fatal("PATH missing from activated environment")
	}
	binDir := EnvBinDir(root, cfg.GetOS())
	if !strings.HasPrefix(path, binDir+string(os.PathListSeparator)) && path != binDir {
		t.Errorf("PATH does not start with %q: %q", binDir, path)
	}

	if _, ok := lookupEnv(act.Env, "PYTHONHOME"); ok {
		t.Error("PYTHONHOME leaked into the activated environment")
	}
}

func TestActivateWritesRunMarker(t *testing.T) {
	base := t.TempDir()
	cfg := testConfig(t, base)
	root := cfg.GetEnvRoot()
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatal(err)
	}

	mgr := newTestManager(t, cfg, "python3", cfg.GetDependencies())
	act, err := mgr.Activate()
	if err != nil {
		t.Fatal(err)
	}

	markers, err := filepath.Glob(filepath.Join(root, runStateDir, "run-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(markers) != 1 {
		t.Fatalf("expected one run marker, found %v", markers)
	}

	if err := act.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(markers[0]); !os.IsNotExist(err) {
		t.Error("run marker survived Release")
	}

	// Releasing again, as deferred cleanup does, must stay silent
	if err := act.Release(); err != nil {
		t.Errorf("second Release returned %v", err)
	}
}

func TestPrependPathDeduplicates(t *testing.T) {
	sep := string(os.PathListSeparator)
	got := prependPath("/usr/bin"+sep+"/env/bin"+sep+"/bin", "/env/bin")
	want := "/env/bin" + sep + "/usr/bin" + sep + "/bin"
	if got != want {
		t.Errorf("prependPath = %q, want %q", got, want)
	}
}
