// Package config manages launcher-wide settings and directory layout.
// All paths are derived from the launcher's install location; only the
// download cache follows the XDG specification.
package config

import (
	"gdl/pkg/common"
)

// OSType represents a target operating system.
type OSType = common.OSType

const (
	// OSLinux represents the Linux operating system.
	OSLinux OSType = common.OSLinux
	// OSDarwin represents macOS/Darwin.
	OSDarwin OSType = common.OSDarwin
	// OSWindows represents Microsoft Windows.
	OSWindows OSType = common.OSWindows
	// OSUnknown is used when the operating system cannot be determined.
	OSUnknown OSType = common.OSUnknown
)

// ArchType represents a target CPU architecture.
type ArchType = common.ArchType

const (
	// ArchX64 represents the x86_64/AMD64 architecture.
	ArchX64 ArchType = common.ArchX64
	// ArchArm64 represents the AArch64/ARM64 architecture.
	ArchArm64 ArchType = common.ArchArm64
	// ArchUnknown is used when the architecture cannot be determined.
	ArchUnknown ArchType = common.ArchUnknown
)

