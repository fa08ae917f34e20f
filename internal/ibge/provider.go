package ibge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/aldrones/groundrisk/internal/fetcher"
	"github.com/aldrones/groundrisk/internal/resilience"
)

// ErrTileNotFound reports that the provider has no archive for a tile id.
var ErrTileNotFound = eris.New("ibge: tile not found")

// Provider supplies raw grid datasets as local shapefile paths.
type Provider interface {
	// FetchMacroIndex returns the path to the macro grid .shp file.
	FetchMacroIndex(ctx context.Context) (string, error)
	// FetchTile returns the path to a tile's .shp file, or ErrTileNotFound.
	FetchTile(ctx context.Context, id TileID) (string, error)
}

// ArchiveOptions configures an ArchiveProvider.
type ArchiveOptions struct {
	// MacroURL is the macro grid archive URL.
	MacroURL string
	// TileURLTemplate is the tile archive URL with a %d placeholder for the
	// tile id.
	TileURLTemplate string
	// CacheDir is the on-disk download cache, reused across processes.
	CacheDir string
}

// ArchiveProvider fetches grid ZIP archives, extracts them into an on-disk
// cache directory and hands out shapefile paths. Archives already present on
// disk are not downloaded again.
type ArchiveProvider struct {
	fetcher fetcher.Fetcher
	opts    ArchiveOptions
	breaker *resilience.CircuitBreaker
	log     *zap.Logger
}

// NewArchiveProvider creates a provider over the given transport. Repeated
// transient download failures open a circuit so a broken upstream fails fast;
// permanent conditions such as a tile that simply does not exist never trip
// it.
func NewArchiveProvider(f fetcher.Fetcher, opts ArchiveOptions) *ArchiveProvider {
	log := zap.L().With(zap.String("component", "ibge.provider"))

	cbCfg := resilience.DefaultCircuitBreakerConfig()
	cbCfg.ShouldTrip = resilience.IsTransient
	cbCfg.OnStateChange = func(from, to resilience.CircuitState) {
		log.Warn("grid source circuit state changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}

	return &ArchiveProvider{
		fetcher: f,
		opts:    opts,
		breaker: resilience.NewCircuitBreaker(cbCfg),
		log:     log,
	}
}

// FetchMacroIndex downloads and extracts the macro grid archive on first use.
func (p *ArchiveProvider) FetchMacroIndex(ctx context.Context) (string, error) {
	dir := filepath.Join(p.opts.CacheDir, "grade_500km")
	return p.fetchArchive(ctx, p.opts.MacroURL, dir)
}

// FetchTile downloads and extracts one tile archive on first use.
func (p *ArchiveProvider) FetchTile(ctx context.Context, id TileID) (string, error) {
	url := fmt.Sprintf(p.opts.TileURLTemplate, int(id))
	dir := filepath.Join(p.opts.CacheDir, fmt.Sprintf("grade_id%d", int(id)))

	path, err := p.fetchArchive(ctx, url, dir)
	if err != nil {
		if errors.Is(err, fetcher.ErrNotFound) {
			return "", eris.Wrapf(ErrTileNotFound, "tile %d", int(id))
		}
		return "", err
	}
	return path, nil
}

// fetchArchive ensures the archive at url is downloaded and extracted under
// dir, returning the path to the contained .shp file.
func (p *ArchiveProvider) fetchArchive(ctx context.Context, url, dir string) (string, error) {
	// A previous run may already have extracted this archive.
	if shpPath, err := findFileByExt(dir, ".shp"); err == nil {
		p.log.Debug("archive already extracted", zap.String("shapefile", shpPath))
		return shpPath, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrap(err, "ibge: create cache dir")
	}

	parts := strings.Split(url, "/")
	zipPath := filepath.Join(dir, parts[len(parts)-1])

	if info, err := os.Stat(zipPath); err == nil && info.Size() > 0 {
		p.log.Debug("zip already present, skipping download", zap.String("path", zipPath))
	} else {
		p.log.Info("downloading grid archive", zap.String("url", url))
		_, err := resilience.ExecuteVal(ctx, p.breaker, func(ctx context.Context) (int64, error) {
			return p.fetcher.DownloadToFile(ctx, url, zipPath)
		})
		if err != nil {
			// Don't leave a partial archive that would be mistaken for a
			// completed download on the next run.
			_ = os.Remove(zipPath)
			return "", err
		}
	}

	if _, err := fetcher.ExtractZIP(zipPath, dir); err != nil {
		return "", eris.Wrap(err, "ibge: extract grid archive")
	}

	shpPath, err := findFileByExt(dir, ".shp")
	if err != nil {
		return "", eris.Wrap(err, "ibge: locate .shp in archive")
	}
	return shpPath, nil
}

// findFileByExt walks dir for the first file with the given extension.
func findFileByExt(dir, ext string) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ext) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", eris.Wrapf(err, "ibge: walk %s", dir)
	}
	if found == "" {
		return "", eris.Errorf("ibge: no %s file under %s", ext, dir)
	}
	return found, nil
}
