package s2cell

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Face identifies one of the six cube faces.
type Face int

const (
	FacePosX Face = iota
	FacePosY
	FacePosZ
	FaceNegX
	FaceNegY
	FaceNegZ

	NumFaces = 6
)

func (f Face) Valid() bool { return f >= 0 && f < NumFaces }

// InvalidFaceError is the panic value raised when a face index outside 0..5
// reaches a projection table. It marks a programming error, not a runtime
// condition.
type InvalidFaceError struct {
	Face Face
}

func (e InvalidFaceError) Error() string {
	return fmt.Sprintf("s2cell: invalid face %d", int(e.Face))
}

func mustFace(f Face) {
	if !f.Valid() {
		panic(InvalidFaceError{Face: f})
	}
}

// FaceUV is a point projected onto a cube face, u and v in [-1,1].
type FaceUV struct {
	Face Face
	U, V float64
}

// FaceST is the area-equalised form of FaceUV, s and t in [0,1].
type FaceST struct {
	Face Face
	S, T float64
}

func (p FaceUV) ST() FaceST {
	return FaceST{Face: p.Face, S: UVToST(p.U), T: UVToST(p.V)}
}

func (p FaceST) UV() FaceUV {
	return FaceUV{Face: p.Face, U: STToUV(p.S), V: STToUV(p.T)}
}

// per-face projection of a vector onto (u,v); each divides the two minor
// axes by the face's own axis
var faceToUV = [NumFaces]func(p r3.Vector) (u, v float64){
	FacePosX: func(p r3.Vector) (float64, float64) { return p.Y / p.X, p.Z / p.X },
	FacePosY: func(p r3.Vector) (float64, float64) { return -p.X / p.Y, p.Z / p.Y },
	FacePosZ: func(p r3.Vector) (float64, float64) { return -p.X / p.Z, -p.Y / p.Z },
	FaceNegX: func(p r3.Vector) (float64, float64) { return p.Z / p.X, p.Y / p.X },
	FaceNegY: func(p r3.Vector) (float64, float64) { return p.Z / p.Y, -p.X / p.Y },
	FaceNegZ: func(p r3.Vector) (float64, float64) { return -p.Y / p.Z, -p.X / p.Z },
}

// inverse of faceToUV, unnormalised
var faceFromUV = [NumFaces]func(u, v float64) r3.Vector{
	FacePosX: func(u, v float64) r3.Vector { return r3.Vector{X: 1, Y: u, Z: v} },
	FacePosY: func(u, v float64) r3.Vector { return r3.Vector{X: -u, Y: 1, Z: v} },
	FacePosZ: func(u, v float64) r3.Vector { return r3.Vector{X: -u, Y: -v, Z: 1} },
	FaceNegX: func(u, v float64) r3.Vector { return r3.Vector{X: -1, Y: -v, Z: -u} },
	FaceNegY: func(u, v float64) r3.Vector { return r3.Vector{X: v, Y: -1, Z: -u} },
	FaceNegZ: func(u, v float64) r3.Vector { return r3.Vector{X: v, Y: u, Z: -1} },
}

// largestAbsAxis returns 0, 1 or 2 for x, y or z. On equal magnitudes the
// first axis in x, y, z order wins.
func largestAbsAxis(p r3.Vector) int {
	ax, ay, az := math.Abs(p.X), math.Abs(p.Y), math.Abs(p.Z)
	switch {
	case ax >= ay && ax >= az:
		return 0
	case ay >= az:
		return 1
	default:
		return 2
	}
}

// FaceForVector picks the cube face v projects onto.
func FaceForVector(v r3.Vector) Face {
	axis := largestAbsAxis(v)
	var c float64
	switch axis {
	case 0:
		c = v.X
	case 1:
		c = v.Y
	default:
		c = v.Z
	}
	f := Face(axis)
	if c < 0 {
		f += 3
	}
	return f
}

// VectorToFaceUV projects v onto the face it points at.
func VectorToFaceUV(v r3.Vector) FaceUV {
	f := FaceForVector(v)
	u, w := ProjectOntoFace(f, v)
	return FaceUV{Face: f, U: u, V: w}
}

// ProjectOntoFace projects v onto face f regardless of whether f is the
// face v points at. Panics with InvalidFaceError for a face outside 0..5.
func ProjectOntoFace(f Face, v r3.Vector) (u, w float64) {
	mustFace(f)
	return faceToUV[f](v)
}

// FaceUVToVector rebuilds the (unnormalised) vector for (u,v) on face f.
// Panics with InvalidFaceError for a face outside 0..5.
func FaceUVToVector(f Face, u, v float64) r3.Vector {
	mustFace(f)
	return faceFromUV[f](u, v)
}
