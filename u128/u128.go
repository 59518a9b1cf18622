package u128

import (
	"errors"

	"lukechampine.com/uint128"
)

var ErrDivideByZero = errors.New("u128: division by zero")

// MulDiv returns floor(a*b/d) using a 128-bit intermediate product.
// ok is false when the quotient does not fit in 64 bits.
func MulDiv(a, b, d uint64) (q uint64, ok bool, err error) {
	if d == 0 {
		return 0, false, ErrDivideByZero
	}
	// 64x64 never overflows 128 bits
	quo := uint128.From64(a).Mul64(b).Div64(d)
	if quo.Hi != 0 {
		return 0, false, nil
	}
	return quo.Lo, true, nil
}

// MulDivCeil returns ceil(a*b/d) using a 128-bit intermediate product.
func MulDivCeil(a, b, d uint64) (q uint64, ok bool, err error) {
	if d == 0 {
		return 0, false, ErrDivideByZero
	}
	quo, rem := uint128.From64(a).Mul64(b).QuoRem64(d)
	if rem != 0 {
		quo = quo.Add64(1)
	}
	if quo.Hi != 0 {
		return 0, false, nil
	}
	return quo.Lo, true, nil
}
