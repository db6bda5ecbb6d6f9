// Package adaptive learns spatial placement patterns from an existing
// database and uses them to place new morphemes whose position isn't known
// a priori, and to re-optimize a database's layout after bulk ingestion
// (spec §4.8).
package adaptive

import (
	"math"

	"github.com/lingodb/lingo/internal/core"
)

// densityResolution is the edge length of the 3D density grid.
const densityResolution = 20

// GradientVector is a learned semantic opposition axis, e.g. "in" -> "out".
type GradientVector struct {
	StartConcept     string
	EndConcept       string
	Vector           core.Coordinate3D
	ConsistencyScore float32
	SampleCount      int
}

// densityField is a resolution^3 grid of local morpheme density, built by
// splatting a small Gaussian kernel around every known position.
type densityField struct {
	grid [densityResolution][densityResolution][densityResolution]float32
}

func (d *densityField) at(pos core.Coordinate3D) float32 {
	ix, iy, iz := gridIndex(pos)
	return d.grid[ix][iy][iz]
}

// splat adds a 3x3x3 Gaussian-weighted bump centered on pos, matching the
// reference density-field construction.
func (d *densityField) splat(pos core.Coordinate3D) {
	ix, iy, iz := gridIndex(pos)
	for di := 0; di < 3; di++ {
		for dj := 0; dj < 3; dj++ {
			for dk := 0; dk < 3; dk++ {
				i := clampGridIndex(ix + di - 1)
				j := clampGridIndex(iy + dj - 1)
				k := clampGridIndex(iz + dk - 1)
				dist := distance3(float32(di-1), float32(dj-1), float32(dk-1))
				d.grid[i][j][k] += gaussian(dist)
			}
		}
	}
}

func gridIndex(pos core.Coordinate3D) (int, int, int) {
	ix := clampGridIndex(int(pos.X * float32(densityResolution)))
	iy := clampGridIndex(int(pos.Y * float32(densityResolution)))
	iz := clampGridIndex(int(pos.Z * float32(densityResolution)))
	return ix, iy, iz
}

func clampGridIndex(i int) int {
	if i < 0 {
		return 0
	}
	if i >= densityResolution {
		return densityResolution - 1
	}
	return i
}

func distance3(dx, dy, dz float32) float32 {
	return float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
}

// gaussian is exp(-dist^2), the same unnormalized kernel the reference
// density field uses.
func gaussian(dist float32) float32 {
	return float32(math.Exp(float64(-dist * dist)))
}

// spatialPatterns is everything learned from an existing database's
// positions.
type spatialPatterns struct {
	typeCentroids     map[core.MorphemeType]core.Coordinate3D
	etymologyClusters map[core.EtymologyOrigin][]core.Coordinate3D
	gradientVectors   []GradientVector
	density           densityField
}

func newSpatialPatterns() spatialPatterns {
	return spatialPatterns{
		typeCentroids:     make(map[core.MorphemeType]core.Coordinate3D),
		etymologyClusters: make(map[core.EtymologyOrigin][]core.Coordinate3D),
	}
}

func centroid(positions []core.Coordinate3D) (core.Coordinate3D, bool) {
	if len(positions) == 0 {
		return core.Coordinate3D{}, false
	}
	var sum core.Coordinate3D
	for _, p := range positions {
		sum = sum.Add(p)
	}
	n := float32(len(positions))
	return core.Coordinate3D{X: sum.X / n, Y: sum.Y / n, Z: sum.Z / n}, true
}

// knownOppositions is the fixed seed set of opposition pairs gradients are
// learned from, mirroring the reference implementation's hard-coded list.
var knownOppositions = [][2]string{
	{"in", "out"},
	{"up", "down"},
	{"pre", "post"},
	{"micro", "macro"},
}
