package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValuePoints_BandAndPurchaseYear(t *testing.T) {
	points := ValuePoints(
		[]float64{20000, 17000, 15000},
		[]float64{1500, 20000},
		2020, 1,
	)

	require.Len(t, points, 3)

	assert.Equal(t, 2020, points[0].Year)
	assert.Equal(t, 18500.0, points[0].Lower)
	assert.Equal(t, 21500.0, points[0].Upper)
	assert.False(t, points[0].IsPurchaseYear)

	// Lower bound is clamped at zero.
	assert.Equal(t, 0.0, points[1].Lower)
	assert.Equal(t, 37000.0, points[1].Upper)
	assert.True(t, points[1].IsPurchaseYear)

	// No deviation for the last year: band collapses onto the value.
	assert.Equal(t, 2022, points[2].Year)
	assert.Equal(t, 15000.0, points[2].Lower)
	assert.Equal(t, 15000.0, points[2].Upper)
}

func TestHasBand(t *testing.T) {
	assert.False(t, HasBand(nil))
	assert.False(t, HasBand([]float64{0, 0}))
	assert.True(t, HasBand([]float64{0, 12.5}))
}
