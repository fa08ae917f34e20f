package ibge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"

	"github.com/aldrones/groundrisk/internal/geo"
)

// square returns a closed square polygon with the given lower-left corner.
func square(x, y, side float64) geom.Polygon {
	return geom.Polygon{{
		{X: x, Y: y},
		{X: x + side, Y: y},
		{X: x + side, Y: y + side},
		{X: x, Y: y + side},
	}}
}

// writePrj writes a .prj sidecar declaring the fixture's coordinates as
// WGS84, which makes loading a no-op reprojection.
func writePrj(t *testing.T, shpPath string) {
	t.Helper()
	prj := strings.TrimSuffix(shpPath, ".shp") + ".prj"
	require.NoError(t, os.WriteFile(prj, []byte(geo.WGS84), 0o644))
}

// writeGridShapefile writes a population grid shapefile fixture.
func writeGridShapefile(t *testing.T, shpPath string, cells []*Cell) {
	t.Helper()
	enc, err := shp.NewEncoderFromFields(shpPath, goshp.POLYGON,
		goshp.StringField("ID_UNICO", 30),
		goshp.FloatField("TOTAL", 12, 2),
	)
	require.NoError(t, err)
	for _, c := range cells {
		require.NoError(t, enc.EncodeFields(c.Polygonal, c.ID, c.Pop))
	}
	enc.Close()
	writePrj(t, shpPath)
}

// writeMacroShapefile writes a macro grid shapefile fixture. Tile ids are
// labeled the way IBGE does it: "ID_<n>".
func writeMacroShapefile(t *testing.T, shpPath string, cells map[TileID]geom.Polygon) {
	t.Helper()
	enc, err := shp.NewEncoderFromFields(shpPath, goshp.POLYGON,
		goshp.StringField("QUADRANTE", 20),
	)
	require.NoError(t, err)
	for id, g := range cells {
		require.NoError(t, enc.EncodeFields(g, fmt.Sprintf("ID_%d", int(id))))
	}
	enc.Close()
	writePrj(t, shpPath)
}

// fakeProvider serves pre-written shapefiles and counts fetches.
type fakeProvider struct {
	mu         sync.Mutex
	macroPath  string
	macroErr   error
	tilePaths  map[TileID]string
	macroCalls int
	tileCalls  map[TileID]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		tilePaths: make(map[TileID]string),
		tileCalls: make(map[TileID]int),
	}
}

func (p *fakeProvider) FetchMacroIndex(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.macroCalls++
	if p.macroErr != nil {
		return "", p.macroErr
	}
	return p.macroPath, nil
}

func (p *fakeProvider) FetchTile(_ context.Context, id TileID) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tileCalls[id]++
	path, ok := p.tilePaths[id]
	if !ok {
		return "", ErrTileNotFound
	}
	return path, nil
}

func (p *fakeProvider) fetchCount(id TileID) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tileCalls[id]
}

// registerTile writes a tile fixture and registers it with the provider.
func registerTile(t *testing.T, p *fakeProvider, dir string, id TileID, cells []*Cell) {
	t.Helper()
	shpPath := filepath.Join(dir, fmt.Sprintf("grade_id%d.shp", int(id)))
	writeGridShapefile(t, shpPath, cells)
	p.tilePaths[id] = shpPath
}
