package transferfee

import (
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/captainenkay0712/token-2022-library/solana/token2022"
)

// FeeQuote is the fee a transfer of Amount would be charged.
type FeeQuote struct {
	Amount      uint64
	Fee         uint64
	NetAmount   uint64 // credited to the destination
	BasisPoints uint16
	MaximumFee  uint64
	Decimals    uint8
}

func (q *FeeQuote) UIAmount() decimal.Decimal {
	return token2022.ToUIAmount(q.Amount, q.Decimals)
}

func (q *FeeQuote) UIFee() decimal.Decimal {
	return token2022.ToUIAmount(q.Fee, q.Decimals)
}

func (q *FeeQuote) UINetAmount() decimal.Decimal {
	return token2022.ToUIAmount(q.NetAmount, q.Decimals)
}

// Rate returns the fee rate as a fraction, 0.01 for 100 basis points.
func (q *FeeQuote) Rate() decimal.Decimal {
	return decimal.NewFromInt(int64(q.BasisPoints)).Shift(-4)
}

// QuoteFee quotes a transfer of amount under the newer schedule.
func QuoteFee(mintState *token2022.Mint, amount uint64, rounding token2022.Rounding) (*FeeQuote, error) {
	return quote(mintState, solana.PublicKey{}, amount, nil, rounding)
}

// QuoteFeeForEpoch quotes a transfer of amount under the schedule in effect
// at epoch.
func QuoteFeeForEpoch(mintState *token2022.Mint, amount uint64, epoch uint64, rounding token2022.Rounding) (*FeeQuote, error) {
	return quote(mintState, solana.PublicKey{}, amount, &epoch, rounding)
}

func quote(mintState *token2022.Mint, mint solana.PublicKey, amount uint64, epoch *uint64, rounding token2022.Rounding) (*FeeQuote, error) {
	schedule, err := activeSchedule(mintState, mint, epoch)
	if err != nil {
		return nil, err
	}
	fee := token2022.CalculateFeeWithRounding(schedule.BasisPoints, schedule.MaximumFee, amount, rounding)
	return &FeeQuote{
		Amount:      amount,
		Fee:         fee,
		NetAmount:   amount - fee,
		BasisPoints: schedule.BasisPoints,
		MaximumFee:  schedule.MaximumFee,
		Decimals:    mintState.Decimals,
	}, nil
}
