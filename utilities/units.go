package utilities

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// FormatUnits renders an amount of base units with the given number of
// decimals, e.g. 1500000 with 6 decimals is "1.5".
func FormatUnits(amount uint64, decimals int32) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -decimals).String()
}

// ParseUnits converts a decimal string into base units. Fractions finer than
// the currency allows are rejected.
func ParseUnits(value string, decimals int32) (uint64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}

	if d.IsNegative() {
		return 0, fmt.Errorf("invalid amount %q: negative", value)
	}

	units := d.Shift(decimals)
	if !units.Equal(units.Truncate(0)) {
		return 0, fmt.Errorf("invalid amount %q: more than %d decimals", value, decimals)
	}

	if !units.BigInt().IsUint64() {
		return 0, fmt.Errorf("invalid amount %q: out of range", value)
	}

	return units.BigInt().Uint64(), nil
}
