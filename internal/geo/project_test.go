package geo

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x, y, side float64) geom.Polygon {
	return geom.Polygon{{
		{X: x, Y: y},
		{X: x + side, Y: y},
		{X: x + side, Y: y + side},
		{X: x, Y: y + side},
	}}
}

func TestProjector_Identity(t *testing.T) {
	p, err := NewProjector(AlbersBrazil, AlbersBrazil)
	require.NoError(t, err)

	sq := square(0, 0, 1000)
	out, err := p.Project(sq)
	require.NoError(t, err)
	assert.InDelta(t, 1e6, out.Area(), 1e-6)
	assert.InDelta(t, 1.0, AreaKm2(out), 1e-9)
}

func TestProjector_WGS84ToAlbers(t *testing.T) {
	p, err := NewProjector(WGS84, AlbersBrazil)
	require.NoError(t, err)

	// A square of 0.1 x 0.1 degrees near the projection origin. At the
	// equator-ish latitudes involved this is roughly 11 x 11 km; the exact
	// value is not important, only that the projected area is plausible and
	// not the raw degree² number.
	sq := square(-54.05, -12.05, 0.1)
	out, err := p.Project(sq)
	require.NoError(t, err)

	km2 := AreaKm2(out)
	assert.Greater(t, km2, 100.0)
	assert.Less(t, km2, 150.0)
}

func TestProjector_BadSR(t *testing.T) {
	_, err := NewProjector("not a projection", AlbersBrazil)
	assert.Error(t, err)
}

func TestUnionAll(t *testing.T) {
	a := square(0, 0, 10)
	b := square(5, 0, 10) // overlaps a
	u := UnionAll([]geom.Polygon{a, b})
	require.NotNil(t, u)
	assert.InDelta(t, 150.0, u.Area(), 1e-9)

	assert.Nil(t, UnionAll(nil))
	assert.Nil(t, UnionAll([]geom.Polygon{{}}))

	single := UnionAll([]geom.Polygon{a})
	assert.InDelta(t, 100.0, single.Area(), 1e-9)
}

func TestEmpty(t *testing.T) {
	assert.True(t, Empty(nil))
	assert.True(t, Empty(geom.Polygon{}))
	assert.False(t, Empty(square(0, 0, 1)))

	// Degenerate ring with no area.
	line := geom.Polygon{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}}
	assert.True(t, Empty(line))
}
