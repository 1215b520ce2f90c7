package pricing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// SteelDensity is the density of steel in kg/mm³.
const SteelDensity = 7.87e-6

// Calculator derives the material price of one round bar piece.
type Calculator struct {
	Density  float64
	Currency string
}

// PieceMass returns the mass in kg of a round bar; diameter and length are
// in millimeters.
func (c *Calculator) PieceMass(diameter, length int) float64 {
	radius := float64(diameter) / 2
	volume := math.Pi * radius * radius * float64(length)
	return volume * c.Density
}

// PiecePriceValue returns the unrounded piece price. ok is false unless
// diameter, length and avgKgPrice are all positive.
func (c *Calculator) PiecePriceValue(avgKgPrice float64, diameter, length int) (price float64, ok bool) {
	if diameter <= 0 || length <= 0 || avgKgPrice <= 0 {
		return 0, false
	}
	return c.PieceMass(diameter, length) * avgKgPrice, true
}

// PiecePrice formats the piece price sentence for material.
func (c *Calculator) PiecePrice(material string, avgKgPrice float64, diameter, length int) (string, bool) {
	price, ok := c.PiecePriceValue(avgKgPrice, diameter, length)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("Current material price for %s in size D%dx%d: %s %s/pc.",
		material, diameter, length, Round2(price), c.Currency), true
}

// Round2 renders v with two decimals, rounding half away from zero.
func Round2(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatAverage renders the average kg-price summary line.
func FormatAverage(avgKgPrice float64, currency string) string {
	return fmt.Sprintf("Average kg-price: %s %s/kg", Round2(avgKgPrice), currency)
}
