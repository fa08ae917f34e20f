// Package fetcher retrieves remote grid archives over HTTP or FTP and
// extracts them. It is the transport layer below the tile provider; it knows
// nothing about grids or tiles.
package fetcher

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
)

// ErrNotFound reports that the remote resource does not exist. Callers use it
// to distinguish a missing tile from a transport failure.
var ErrNotFound = eris.New("fetcher: resource not found")

// Fetcher downloads a remote resource.
type Fetcher interface {
	// Download returns the resource body. The caller must close it.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
	// DownloadToFile writes the resource to path, returning the byte count.
	DownloadToFile(ctx context.Context, url, path string) (int64, error)
}
