package s2cell

import "math"

const MaxLevel = 30

// ValidLevel reports whether level is within 0..MaxLevel.
func ValidLevel(level int) bool { return level >= 0 && level <= MaxLevel }

// gridSize is the number of cells along one face axis at level. A negative
// level is a caller bug and panics on the shift.
func gridSize(level int) int { return 1 << level }

// UVToST applies the quadratic warp that keeps cells near equal area.
func UVToST(uv float64) float64 {
	if uv >= 0 {
		return 0.5 * math.Sqrt(1+3*uv)
	}
	return 1 - 0.5*math.Sqrt(1-3*uv)
}

// STToUV is the exact inverse of UVToST.
func STToUV(st float64) float64 {
	if st >= 0.5 {
		return (1 / 3.0) * (4*st*st - 1)
	}
	return (1 / 3.0) * (1 - 4*(1-st)*(1-st))
}

// STToIJ scales st onto the level grid and clamps to [0, 2^level-1]. Values
// landing on or past either edge (including NaN) are absorbed by the clamp.
func STToIJ(st float64, level int) int {
	size := gridSize(level)
	f := math.Floor(st * float64(size))
	switch {
	case !(f >= 0):
		return 0
	case f >= float64(size):
		return size - 1
	}
	return int(f)
}

// IJToST returns the st coordinate of grid line ij plus offset, where an
// offset of 0 is the low edge, 0.5 the centre and 1 the high edge.
func IJToST(ij, level int, offset float64) float64 {
	return (float64(ij) + offset) / float64(gridSize(level))
}
