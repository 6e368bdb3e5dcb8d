// Package pricing derives gross prices from net prices and tax rates.
//
// Amounts keep full precision through every calculation; rounding to cents
// happens only when a Money value is rendered.
package pricing

import (
	"github.com/shopspring/decimal"
)

// DefaultTaxRate is applied when a product is created without a tax rate.
var DefaultTaxRate = decimal.RequireFromString("0.19")

// netDivisionPrecision is the number of fractional digits kept by ComputeNet.
const netDivisionPrecision = 16

// ComputeGross returns net * (1 + taxRate).
func ComputeGross(net, taxRate decimal.Decimal) decimal.Decimal {
	return net.Mul(decimal.NewFromInt(1).Add(taxRate))
}

// ComputeNet returns gross / (1 + taxRate). A tax rate of -1 would divide by
// zero and yields zero instead.
func ComputeNet(gross, taxRate decimal.Decimal) decimal.Decimal {
	divisor := decimal.NewFromInt(1).Add(taxRate)
	if divisor.IsZero() {
		return decimal.Zero
	}
	return gross.DivRound(divisor, netDivisionPrecision)
}

// LineTotal returns unitPrice * quantity.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
