package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestCalculator() *Calculator {
	return &Calculator{Density: SteelDensity, Currency: "€"}
}

func TestPieceMass(t *testing.T) {
	c := newTestCalculator()

	volume := math.Pi * 25 * 100
	assert.InDelta(t, 7853.98, volume, 0.01)
	assert.InDelta(t, volume*7.87e-6, c.PieceMass(10, 100), 1e-12)
}

func TestPiecePrice(t *testing.T) {
	c := newTestCalculator()

	price, ok := c.PiecePriceValue(2.0, 10, 100)
	assert.True(t, ok)
	assert.InDelta(t, 0.1236, price, 0.0001)

	text, ok := c.PiecePrice("16MnCr5", 2.0, 10, 100)
	assert.True(t, ok)
	assert.Equal(t, "Current material price for 16MnCr5 in size D10x100: 0.12 €/pc.", text)
}

func TestPiecePriceLargeBar(t *testing.T) {
	c := newTestCalculator()

	// D100x1000 at 1.50/kg: 7853981.63 mm³ * 7.87e-6 = 61.81 kg
	text, ok := c.PiecePrice("42CrMo4", 1.5, 100, 1000)
	assert.True(t, ok)
	assert.Equal(t, "Current material price for 42CrMo4 in size D100x1000: 92.72 €/pc.", text)
}

func TestPiecePriceAbsent(t *testing.T) {
	tests := []struct {
		name     string
		avg      float64
		diameter int
		length   int
	}{
		{name: "Zero diameter", avg: 2, diameter: 0, length: 100},
		{name: "Negative diameter", avg: 2, diameter: -10, length: 100},
		{name: "Zero length", avg: 2, diameter: 10, length: 0},
		{name: "Zero average", avg: 0, diameter: 10, length: 100},
		{name: "Negative average", avg: -1, diameter: 10, length: 100},
	}

	c := newTestCalculator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, ok := c.PiecePrice("16MnCr5", tt.avg, tt.diameter, tt.length)
			assert.False(t, ok)
			assert.Empty(t, text)
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, "0.13", Round2(0.125))
	assert.Equal(t, "2.00", Round2(2))
	assert.Equal(t, "1234.57", Round2(1234.5678))
}

func TestFormatAverage(t *testing.T) {
	assert.Equal(t, "Average kg-price: 1.85 €/kg", FormatAverage(1.849, "€"))
}
