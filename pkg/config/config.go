package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"

	"gdl/pkg/common"
)

// ReadOnly defines the read-only interface for Config.
// Immutable
type ReadOnly interface {
	GetBaseDir() string
	GetEnvRoot() string
	GetTargetScript() string
	GetRuntimeDir() string
	GetDownloadDir() string
	GetDependencies() []string
	GetOS() OSType
	GetArch() ArchType
	Freeze()
	Checkout() Writable
}

// Writable defines the writable interface for Config.
// Mutable
type Writable interface {
	ReadOnly
	SetBaseDir(string)
	SetDownloadDir(string)
	SetDependencies([]string)
}

// EnvDirName is the name of the virtualenv directory colocated with the
// launcher binary.
const EnvDirName = "venv"

// TargetScriptName is the name of the digitizer script colocated with the
// launcher binary.
const TargetScriptName = "graph_digitizer.py"

// RuntimeDirName is where a bootstrapped standalone interpreter is unpacked.
const RuntimeDirName = "runtime"

// DefaultDependencies is the fixed, ordered list of libraries the digitizer
// needs inside its environment.
var DefaultDependencies = []string{"numpy", "pillow"}

// Config holds the launcher-relative paths and system info for gdl.
// Mutable
type Config struct {
	baseDir     string
	downloadDir string

	envRoot      string
	targetScript string
	runtimeDir   string

	deps []string

	os   OSType
	arch ArchType

	frozen bool
	edited bool
}

var _ ReadOnly = (*Config)(nil)
var _ Writable = (*Config)(nil)

func (c *Config) GetBaseDir() string      { return c.baseDir }
func (c *Config) GetEnvRoot() string      { return c.envRoot }
func (c *Config) GetTargetScript() string { return c.targetScript }
func (c *Config) GetRuntimeDir() string   { return c.runtimeDir }
func (c *Config) GetDownloadDir() string  { return c.downloadDir }
func (c *Config) GetOS() OSType           { return c.os }
func (c *Config) GetArch() ArchType       { return c.arch }

// GetDependencies returns the ordered dependency list. The returned slice is
// a copy; the configured list never changes after Freeze.
func (c *Config) GetDependencies() []string {
	return append([]string(nil), c.deps...)
}

func (c *Config) SetBaseDir(s string) {
	if c.frozen {
		panic("cannot modify frozen config")
	}
	c.baseDir = s
	c.updateDerived()
}

func (c *Config) SetDownloadDir(s string) {
	if c.frozen {
		panic("cannot modify frozen config")
	}
	c.downloadDir = s
}

func (c *Config) SetDependencies(deps []string) {
	if c.frozen {
		panic("cannot modify frozen config")
	}
	if len(deps) == 0 {
		panic("dependency list must be non-empty")
	}
	c.deps = append([]string(nil), deps...)
}

func (c *Config) Freeze() {
	c.frozen = true
}

func (c *Config) Checkout() Writable {
	if c.frozen {
		panic("cannot checkout from frozen config")
	}
	if c.edited {
		panic("config already checked out")
	}
	c.edited = true
	return c
}

func (c *Config) updateDerived() {
	c.envRoot = filepath.Join(c.baseDir, EnvDirName)
	c.targetScript = filepath.Join(c.baseDir, TargetScriptName)
	c.runtimeDir = filepath.Join(c.baseDir, RuntimeDirName)
}

// Init initializes the configuration. The environment root and target script
// are derived from the launcher's own install location, never from the
// current working directory, so the launcher is runnable from anywhere.
// Downloads go to the XDG cache so a removed environment does not force a
// re-download of the interpreter.
func Init() (ReadOnly, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate launcher executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	osType, err := common.ParseOS(runtime.GOOS)
	if err != nil {
		return nil, err
	}
	archType, err := common.ParseArch(runtime.GOARCH)
	if err != nil {
		return nil, err
	}

	c := &Config{
		baseDir:     filepath.Dir(exe),
		downloadDir: filepath.Join(xdg.CacheHome, "gdl", "downloads"),
		deps:        append([]string(nil), DefaultDependencies...),
		os:          osType,
		arch:        archType,
	}

	c.updateDerived()

	return c, nil
}
