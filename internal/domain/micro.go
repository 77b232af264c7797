package domain

import (
	"fmt"
	"math"
	"math/big"
	"math/bits"
	"strings"

	"github.com/shopspring/decimal"
)

// MicroScale is the number of micro-units in one display unit.
const MicroScale = 1_000_000

// microDecimals is the number of implied decimals of Micro.
const microDecimals = 6

// Micro is an amount of the base currency in 10^-6 units. Everything that
// crosses the ledger boundary is a Micro; decimals only exist for display
// and user input.
type Micro uint64

// ParseMicro converts a user decimal ("1.2345675") to micro-units, flooring
// anything past the sixth decimal. Negative or malformed input is rejected.
func ParseMicro(s string) (Micro, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a decimal", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	scaled := d.Shift(microDecimals).Floor().BigInt()
	if !scaled.IsUint64() {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidAmount, s)
	}
	return Micro(scaled.Uint64()), nil
}

// String renders the amount with exactly six decimals. The conversion is
// exact, so nothing is ever rounded up.
func (m Micro) String() string {
	return fmt.Sprintf("%d.%06d", uint64(m)/MicroScale, uint64(m)%MicroScale)
}

// Decimal returns the amount as a decimal in display units.
func (m Micro) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(m)), -microDecimals)
}

// Times multiplies by a share count. ok is false on overflow.
func (m Micro) Times(shares uint64) (total Micro, ok bool) {
	hi, lo := bits.Mul64(uint64(m), shares)
	if hi != 0 {
		return Micro(math.MaxUint64), false
	}
	return Micro(lo), true
}

// PerShare floors a total over a share count. Zero shares yields zero.
func (m Micro) PerShare(shares uint64) Micro {
	if shares == 0 {
		return 0
	}
	return m / Micro(shares)
}

// TotalFor computes the cost of shares at a floored per-share price.
// The total is always derived from the per-share price, never rounded on its own.
func TotalFor(pricePerShare Micro, shares uint64) (Micro, error) {
	total, ok := pricePerShare.Times(shares)
	if !ok {
		return 0, fmt.Errorf("%w: %s x %d overflows", ErrInvalidAmount, pricePerShare, shares)
	}
	return total, nil
}

// SlippageFloor is the least a seller accepts: total - total*pct/100,
// using the same integer arithmetic as the settlement engine.
func SlippageFloor(total Micro, pct uint64) Micro {
	cut := mulDiv(uint64(total), pct, 100)
	if cut >= uint64(total) {
		return 0
	}
	return total - Micro(cut)
}

// SlippageCeil is the most a buyer pays: total + total*pct/100.
func SlippageCeil(total Micro, pct uint64) Micro {
	extra := mulDiv(uint64(total), pct, 100)
	sum, carry := bits.Add64(uint64(total), extra, 0)
	if carry != 0 {
		return Micro(math.MaxUint64)
	}
	return Micro(sum)
}

// mulDiv computes floor(a*b/c) without intermediate overflow, saturating
// when the result does not fit.
func mulDiv(a, b, c uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, c)
	return q
}
