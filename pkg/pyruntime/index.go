package pyruntime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"

	"gdl/pkg/config"
	"gdl/pkg/display"
	"gdl/pkg/downloader"
)

// indexURL is the release index of the standalone CPython distribution.
const indexURL = "https://api.github.com/repos/astral-sh/python-build-standalone/releases/latest"

// pythonSeries is the interpreter line the digitizer is developed against.
const pythonSeries = "3.12"

// assetQuery picks the first release asset whose name matches the host
// pattern and yields its download URL.
const assetQuery = `[.assets[] | select(.name | test($pattern))][0].browser_download_url`

// targetTriple maps host OS/arch onto the platform triple embedded in
// standalone CPython asset names.
func targetTriple(osType config.OSType, arch config.ArchType) (string, error) {
	switch {
	case osType == config.OSLinux && arch == config.ArchX64:
		return "x86_64-unknown-linux-gnu", nil
	case osType == config.OSLinux && arch == config.ArchArm64:
		return "aarch64-unknown-linux-gnu", nil
	case osType == config.OSDarwin && arch == config.ArchX64:
		return "x86_64-apple-darwin", nil
	case osType == config.OSDarwin && arch == config.ArchArm64:
		return "aarch64-apple-darwin", nil
	case osType == config.OSWindows && arch == config.ArchX64:
		return "x86_64-pc-windows-msvc", nil
	default:
		return "", fmt.Errorf("no standalone interpreter build for %s/%s", osType, arch)
	}
}

// assetPattern builds the regex matching an install-only asset for the host.
func assetPattern(osType config.OSType, arch config.ArchType) (string, error) {
	triple, err := targetTriple(osType, arch)
	if err != nil {
		return "", err
	}
	series := `cpython-` + regexEscapeDots(pythonSeries)
	return fmt.Sprintf(`^%s\.[0-9]+\+[0-9]+-%s-install_only\.tar\.gz$`, series, triple), nil
}

func regexEscapeDots(s string) string {
	out := make([]byte, 0, len(s)*2)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

// SelectAsset applies the host pattern to release index JSON and returns
// the matching asset URL.
func SelectAsset(indexJSON []byte, osType config.OSType, arch config.ArchType) (string, error) {
	pattern, err := assetPattern(osType, arch)
	if err != nil {
		return "", err
	}

	var payload any
	if err := json.Unmarshal(indexJSON, &payload); err != nil {
		return "", fmt.Errorf("failed to parse release index: %w", err)
	}

	q, err := gojq.Parse(assetQuery)
	if err != nil {
		return "", fmt.Errorf("failed to parse asset query: %w", err)
	}
	code, err := gojq.Compile(q, gojq.WithVariables([]string{"$pattern"}))
	if err != nil {
		return "", fmt.Errorf("failed to compile asset query: %w", err)
	}

	iter := code.Run(payload, pattern)
	for {
		res, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := res.(error); ok {
			return "", fmt.Errorf("asset query failed: %w", err)
		}
		if url, ok := res.(string); ok && url != "" {
			return url, nil
		}
	}

	return "", fmt.Errorf("no interpreter asset matches %s", pattern)
}

// fetchIndex downloads the release index JSON.
func fetchIndex(ctx context.Context, dl downloader.Downloader, task display.Task) ([]byte, error) {
	var buf bytes.Buffer
	if err := dl.Download(ctx, indexURL, &buf, task); err != nil {
		return nil, fmt.Errorf("failed to fetch release index: %w", err)
	}
	return buf.Bytes(), nil
}
