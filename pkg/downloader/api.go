// Package downloader provides a modular system for retrieving remote
// resources. It supports multiple schemes (HTTP, HTTPS) and reports
// progress via the display package. The interpreter bootstrap uses it for
// release indexes, archives, and checksum files.
package downloader

import (
	"context"
	"io"

	"gdl/pkg/display"
)

// Downloader manages the retrieval of resources from various URIs.
type Downloader interface {
	// Download retrieves the resource at the specified URI and writes it to
	// w, reporting progress and logs to the provided display Task.
	Download(ctx context.Context, uri string, w io.Writer, task display.Task) error
}

// SchemeHandler defines the interface for handling specific URI schemes.
type SchemeHandler interface {
	// Download executes the download for a URI supported by this handler.
	Download(ctx context.Context, uri string, w io.Writer, task display.Task) error
	// Schemes returns the URI schemes (e.g. ["http", "https"]) this
	// handler can process.
	Schemes() []string
}
