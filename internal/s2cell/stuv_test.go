package s2cell

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSTUV_InverseLaw(t *testing.T) {
	for k := 0; k <= 1000; k++ {
		s := float64(k) / 1000
		assert.InDelta(t, s, UVToST(STToUV(s)), 1e-9, "s=%v", s)

		uv := -1 + 2*float64(k)/1000
		assert.InDelta(t, uv, STToUV(UVToST(uv)), 1e-9, "uv=%v", uv)
	}
}

func TestUVToST_RangeAndMonotonic(t *testing.T) {
	assert.Equal(t, 0.0, UVToST(-1))
	assert.Equal(t, 0.5, UVToST(0))
	assert.Equal(t, 1.0, UVToST(1))

	prev := UVToST(-1)
	for k := 1; k <= 2000; k++ {
		cur := UVToST(-1 + float64(k)/1000)
		require.Greater(t, cur, prev)
		prev = cur
	}
}

func TestSTToIJ_ClampsEdges(t *testing.T) {
	cases := []struct {
		name  string
		st    float64
		level int
		want  int
	}{
		{"low edge", 0, 5, 0},
		{"high edge", 1, 5, 31},
		{"past high", 1.0000001, 5, 31},
		{"below low", -0.2, 5, 0},
		{"middle", 0.5, 5, 16},
		{"level zero", 0.99, 0, 0},
		{"nan", math.NaN(), 10, 0},
		{"inf", math.Inf(1), 10, 1023},
		{"max level", 1, MaxLevel, 1<<MaxLevel - 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, STToIJ(tc.st, tc.level))
		})
	}
}

func TestIJToST_Offsets(t *testing.T) {
	assert.Equal(t, 0.25, IJToST(1, 2, 0))
	assert.Equal(t, 0.375, IJToST(1, 2, 0.5))
	assert.Equal(t, 0.5, IJToST(1, 2, 1))
	assert.Equal(t, 1.0, IJToST(0, 0, 1))
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel(0))
	assert.True(t, ValidLevel(MaxLevel))
	assert.False(t, ValidLevel(-1))
	assert.False(t, ValidLevel(MaxLevel+1))
}
