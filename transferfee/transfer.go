package transferfee

import (
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"github.com/captainenkay0712/token-2022-library/solana/token2022"
)

// TransferParams describes a fee-checked transfer.
type TransferParams struct {
	Source      solana.PublicKey   // sending token account
	Mint        solana.PublicKey   // mint carrying the TransferFeeConfig extension
	Destination solana.PublicKey   // receiving token account
	Owner       solana.PublicKey   // owner or delegate of Source, multisig address when Signers is set
	Signers     []solana.PublicKey // multisig signers, empty for a single owner
	Amount      uint64             // gross amount debited from Source
	Decimals    uint8              // echoed for validation by the program

	// Epoch selects the schedule in effect at that epoch. nil uses the newer
	// schedule.
	Epoch    *uint64
	Rounding token2022.Rounding
}

// TransferCheckedWithFeeInstruction generates a TransferCheckedWithFee
// instruction carrying the fee the mint's schedule charges on params.Amount.
// The returned fee is the value embedded in the instruction; the program
// rejects the transfer if it computes a different one.
//
// Example:
//
// mintState, _ := m.GetMint(ctx, mint)
//
// ix, fee, _ := TransferCheckedWithFeeInstruction(
//
//	token2022.DefaultPrograms(),
//	mintState.Mint,
//	TransferParams{
//		Source:      sourceATA,
//		Mint:        mint,
//		Destination: destinationATA,
//		Owner:       owner.PublicKey(),
//		Amount:      1_000_000,
//		Decimals:    mintState.Decimals,
//	},
//
// )
func TransferCheckedWithFeeInstruction(
	programs token2022.Programs,
	mintState *token2022.Mint,
	params TransferParams,
) (solana.Instruction, uint64, error) {
	schedule, err := activeSchedule(mintState, params.Mint, params.Epoch)
	if err != nil {
		return nil, 0, err
	}

	fee := token2022.CalculateFeeWithRounding(schedule.BasisPoints, schedule.MaximumFee, params.Amount, params.Rounding)

	ix, err := token2022.TransferCheckedWithFeeInstruction(
		programs.Token,
		params.Source,
		params.Mint,
		params.Destination,
		params.Owner,
		params.Signers,
		params.Amount,
		params.Decimals,
		fee,
	)
	if err != nil {
		return nil, 0, err
	}
	return ix, fee, nil
}

func activeSchedule(mintState *token2022.Mint, mint solana.PublicKey, epoch *uint64) (token2022.TransferFee, error) {
	if mintState == nil || mintState.Extensions.TransferFeeConfig == nil {
		return token2022.TransferFee{}, errors.Wrapf(token2022.ErrMissingFeeConfig, "mint %s", mint)
	}
	cfg := mintState.Extensions.TransferFeeConfig
	if epoch == nil {
		return cfg.NewerTransferFee, nil
	}
	return cfg.FeeForEpoch(*epoch), nil
}
