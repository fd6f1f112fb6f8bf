package mip

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntegralScale(t *testing.T) {
	assert := require.New(t)

	scale, ok := IntegralScale([]float64{1, 2, 3}, 1e-9)
	assert.True(ok)
	assert.Equal(1.0, scale)

	scale, ok = IntegralScale([]float64{0.5, 0.25, 3}, 1e-9)
	assert.True(ok)
	assert.Equal(4.0, scale)

	scale, ok = IntegralScale([]float64{1.0 / 3.0, 2}, 1e-9)
	assert.True(ok)
	assert.Equal(3.0, scale)

	scale, ok = IntegralScale(nil, 1e-9)
	assert.True(ok)
	assert.Equal(1.0, scale)

	scale, ok = IntegralScale([]float64{0, 0}, 1e-9)
	assert.True(ok)
	assert.Equal(1.0, scale)
}

func TestIntegralScaleIrrational(t *testing.T) {
	assert := require.New(t)
	_, ok := IntegralScale([]float64{0.123456789, 1}, 1e-9)
	assert.False(ok)
}
