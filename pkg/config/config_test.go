package config

import (
	"path/filepath"
	"testing"
)

func TestDerivedPathsFollowBaseDir(t *testing.T) {
	cfg, err := Init()
	if err != nil {
		t.Fatal(err)
	}
	base := t.TempDir()
	w := cfg.Checkout()
	w.SetBaseDir(base)
	w.Freeze()

	if got, want := w.GetEnvRoot(), filepath.Join(base, EnvDirName); got != want {
		t.Errorf("env root = %q, want %q", got, want)
	}
	if got, want := w.GetTargetScript(), filepath.Join(base, TargetScriptName); got != want {
		t.Errorf("target script = %q, want %q", got, want)
	}
	if got, want := w.GetRuntimeDir(), filepath.Join(base, RuntimeDirName); got != want {
		t.Errorf("runtime dir = %q, want %q", got, want)
	}
}

func TestDefaultDependencies(t *testing.T) {
	cfg, err := Init()
	if err != nil {
		t.Fatal(err)
	}

	deps := cfg.GetDependencies()
	if len(deps) != 2 || deps[0] != "numpy" || deps[1] != "pillow" {
		t.Errorf("default dependencies = %v", deps)
	}

	// The accessor hands out a copy
	deps[0] = "scipy"
	if cfg.GetDependencies()[0] != "numpy" {
		t.Error("mutating the returned slice changed the configuration")
	}
}

func TestFreezePreventsModification(t *testing.T) {
	cfg, err := Init()
	if err != nil {
		t.Fatal(err)
	}
	w := cfg.Checkout()
	w.Freeze()

	defer func() {
		if recover() == nil {
			t.Error("SetBaseDir on a frozen config did not panic")
		}
	}()
	w.SetBaseDir("/elsewhere")
}

func TestCheckoutOnce(t *testing.T) {
	cfg, err := Init()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Checkout()

	defer func() {
		if recover() == nil {
			t.Error("second Checkout did not panic")
		}
	}()
	cfg.Checkout()
}

func TestSetDependenciesRejectsEmpty(t *testing.T) {
	cfg, err := Init()
	if err != nil {
		t.Fatal(err)
	}
	w := cfg.Checkout()

	defer func() {
		if recover() == nil {
			t.Error("empty dependency list did not panic")
		}
	}()
	w.SetDependencies(nil)
}
