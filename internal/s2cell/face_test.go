package s2cell

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaceProjection_RoundTrip(t *testing.T) {
	for f := Face(0); f < NumFaces; f++ {
		for a := -99; a <= 99; a += 9 {
			for b := -99; b <= 99; b += 11 {
				u, v := float64(a)/100, float64(b)/100
				got := VectorToFaceUV(FaceUVToVector(f, u, v))
				require.Equal(t, f, got.Face, "face %d u=%v v=%v", f, u, v)
				assert.InDelta(t, u, got.U, 1e-12)
				assert.InDelta(t, v, got.V, 1e-12)
			}
		}
	}
}

func TestFaceForVector_AxesAndSigns(t *testing.T) {
	cases := []struct {
		v    r3.Vector
		want Face
	}{
		{r3.Vector{X: 1}, FacePosX},
		{r3.Vector{Y: 1}, FacePosY},
		{r3.Vector{Z: 1}, FacePosZ},
		{r3.Vector{X: -1}, FaceNegX},
		{r3.Vector{Y: -1}, FaceNegY},
		{r3.Vector{Z: -1}, FaceNegZ},
		{r3.Vector{X: 0.2, Y: -0.9, Z: 0.3}, FaceNegY},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FaceForVector(tc.v), "%v", tc.v)
	}
}

func TestFaceForVector_TiesPreferEarlierAxis(t *testing.T) {
	assert.Equal(t, FacePosX, FaceForVector(r3.Vector{X: 1, Y: 1, Z: 0.5}))
	assert.Equal(t, FacePosX, FaceForVector(r3.Vector{X: 1, Y: 0.5, Z: 1}))
	assert.Equal(t, FacePosY, FaceForVector(r3.Vector{X: 0.5, Y: 1, Z: 1}))
	assert.Equal(t, FacePosX, FaceForVector(r3.Vector{X: 1, Y: -1, Z: -1}))
	assert.Equal(t, FaceNegX, FaceForVector(r3.Vector{X: -1, Y: 1, Z: 1}))
}

func TestInvalidFace_Panics(t *testing.T) {
	for _, f := range []Face{-1, NumFaces, 42} {
		func() {
			defer func() {
				rec := recover()
				require.NotNil(t, rec, "face %d must panic", f)
				err, ok := rec.(InvalidFaceError)
				require.True(t, ok, "panic value %T", rec)
				assert.Equal(t, f, err.Face)
				assert.Contains(t, err.Error(), "invalid face")
			}()
			FaceUVToVector(f, 0, 0)
		}()
	}

	assert.Panics(t, func() { ProjectOntoFace(7, r3.Vector{X: 1}) })
}

func TestPointVector_RoundTrip(t *testing.T) {
	for lat := -89.5; lat <= 89.5; lat += 7.25 {
		for lng := -179.5; lng <= 179.5; lng += 11.5 {
			p := VectorToPoint(PointToVector(GeoPoint{Lat: lat, Lng: lng}))
			assert.InDelta(t, lat, p.Lat, 1e-9)
			assert.InDelta(t, lng, p.Lng, 1e-9)
		}
	}
}

func TestVectorToPoint_ScaleInvariant(t *testing.T) {
	v := r3.Vector{X: 0.3, Y: -0.4, Z: 0.5}
	a := VectorToPoint(v)
	b := VectorToPoint(v.Mul(17))
	assert.InDelta(t, a.Lat, b.Lat, 1e-12)
	assert.InDelta(t, a.Lng, b.Lng, 1e-12)
}
