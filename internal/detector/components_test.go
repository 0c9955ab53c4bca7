package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectedComponentsSeparateBlobs(t *testing.T) {
	mask, w, h := maskFromRows(
		"##....",
		"##....",
		"..##..",
		"..##..",
	)
	comps, labels := connectedComponents(mask, w, h)
	require.Len(t, comps, 1, "blobs touch diagonally")
	assert.Equal(t, 8, comps[0].count)
	assert.Equal(t, 1, labels[0])

	mask, w, h = maskFromRows(
		"##.....",
		"##.....",
		".......",
		".....##",
	)
	comps, _ = connectedComponents(mask, w, h)
	require.Len(t, comps, 2)
	assert.Equal(t, compStats{count: 4, minX: 0, minY: 0, maxX: 1, maxY: 1, external: true}, comps[0])
	assert.Equal(t, compStats{count: 2, minX: 5, minY: 3, maxX: 6, maxY: 3, external: true}, comps[1])
}

func TestConnectedComponentsNestedIsNotExternal(t *testing.T) {
	mask, w, h := maskFromRows(
		".........",
		".#######.",
		".#.....#.",
		".#.....#.",
		".#..#..#.",
		".#.....#.",
		".#.....#.",
		".#######.",
		".........",
	)
	comps, labels := connectedComponents(mask, w, h)
	require.Len(t, comps, 2)
	assert.True(t, comps[0].external)
	assert.False(t, comps[1].external)
	assert.Equal(t, 2, labels[4*w+4])
}

func TestConnectedComponentsDiagonalRingClosesHole(t *testing.T) {
	// An 8-connected ring still closes the hole for a 4-connected background.
	mask, w, h := maskFromRows(
		"...#...",
		"..#.#..",
		".#...#.",
		"#..#..#",
		".#...#.",
		"..#.#..",
		"...#...",
	)
	comps, _ := connectedComponents(mask, w, h)
	require.Len(t, comps, 2)
	assert.True(t, comps[0].external)
	assert.False(t, comps[1].external)
}

func TestConnectedComponentsTouchingBorderIsExternal(t *testing.T) {
	mask, w, h := maskFromRows(
		"###",
		"###",
	)
	comps, _ := connectedComponents(mask, w, h)
	require.Len(t, comps, 1)
	assert.True(t, comps[0].external)
}
