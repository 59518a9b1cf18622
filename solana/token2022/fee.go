package token2022

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/captainenkay0712/token-2022-library/u128"
)

// Rounding selects how the raw basis point fee is rounded before capping.
type Rounding uint8

const (
	// RoundDown floors amount*bps/10000.
	RoundDown Rounding = iota
	// RoundUp takes the ceiling, which is what the Token-2022 program itself
	// charges when it executes a transfer.
	RoundUp
)

func (r Rounding) String() string {
	if r == RoundUp {
		return "up"
	}
	return "down"
}

// ParseRounding accepts "up"/"ceil" and "down"/"floor", case-insensitively.
func ParseRounding(s string) (Rounding, error) {
	switch strings.ToLower(s) {
	case "up", "ceil":
		return RoundUp, nil
	case "down", "floor":
		return RoundDown, nil
	}
	return RoundDown, errors.Errorf("unknown fee rounding %q", s)
}

// CalculateFee returns min(floor(amount*basisPoints/10000), maximumFee).
//
// The product is formed in 128 bits so any u64 amount is safe. basisPoints is
// expected to be at most MaxFeeBasisPoints; larger values are not rejected
// here but the result is still capped by maximumFee.
func CalculateFee(basisPoints uint16, maximumFee uint64, amount uint64) uint64 {
	return CalculateFeeWithRounding(basisPoints, maximumFee, amount, RoundDown)
}

// CalculateFeeWithRounding is CalculateFee with an explicit rounding mode.
func CalculateFeeWithRounding(basisPoints uint16, maximumFee uint64, amount uint64, rounding Rounding) uint64 {
	if basisPoints == 0 || amount == 0 {
		return 0
	}

	var (
		raw uint64
		ok  bool
	)
	switch rounding {
	case RoundUp:
		raw, ok, _ = u128.MulDivCeil(amount, uint64(basisPoints), MaxFeeBasisPoints)
	default:
		raw, ok, _ = u128.MulDiv(amount, uint64(basisPoints), MaxFeeBasisPoints)
	}
	if !ok {
		raw = math.MaxUint64
	}
	if raw > maximumFee {
		return maximumFee
	}
	return raw
}

// CalculatePreFeeAmount returns the gross amount that has to be sent so the
// recipient is credited postFeeAmount after the ledger (round-up) fee.
// ok is false when the gross amount does not fit in a u64.
func CalculatePreFeeAmount(basisPoints uint16, maximumFee uint64, postFeeAmount uint64) (uint64, bool) {
	if postFeeAmount == 0 {
		return 0, true
	}
	if basisPoints == 0 {
		return postFeeAmount, true
	}

	capped := func() (uint64, bool) {
		if postFeeAmount > math.MaxUint64-maximumFee {
			return 0, false
		}
		return postFeeAmount + maximumFee, true
	}

	if basisPoints >= MaxFeeBasisPoints {
		return capped()
	}

	rawPreFee, ok, _ := u128.MulDivCeil(postFeeAmount, MaxFeeBasisPoints, uint64(MaxFeeBasisPoints-basisPoints))
	if !ok || rawPreFee-postFeeAmount >= maximumFee {
		return capped()
	}
	return rawPreFee, true
}

// CalculateInverseFee returns the ledger fee charged on the pre-fee amount
// that nets postFeeAmount.
func CalculateInverseFee(basisPoints uint16, maximumFee uint64, postFeeAmount uint64) (uint64, bool) {
	preFeeAmount, ok := CalculatePreFeeAmount(basisPoints, maximumFee, postFeeAmount)
	if !ok {
		return 0, false
	}
	return CalculateFeeWithRounding(basisPoints, maximumFee, preFeeAmount, RoundUp), true
}

// CalculateFeeExcludedAmount splits a gross transfer amount into what the
// recipient receives and the fee withheld, using the ledger (round-up) fee.
func CalculateFeeExcludedAmount(fee TransferFee, amount uint64) (net uint64, withheld uint64) {
	withheld = CalculateFeeWithRounding(fee.BasisPoints, fee.MaximumFee, amount, RoundUp)
	return amount - withheld, withheld
}

// ToUIAmount converts a raw token amount into its decimal representation.
func ToUIAmount(amount uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromUint64(amount).Shift(-int32(decimals))
}
