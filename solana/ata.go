package solana

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/pkg/errors"

	"github.com/captainenkay0712/token-2022-library/solana/token2022"
)

// FindAssociatedTokenAddress derives the associated token account of wallet
// for a mint owned by programs.Token.
func FindAssociatedTokenAddress(programs token2022.Programs, wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindProgramAddress(
		[][]byte{wallet.Bytes(), programs.Token.Bytes(), mint.Bytes()},
		programs.AssociatedToken,
	)
	return ata, err
}

// CreateAssociatedTokenAccountInstruction builds an ATA create instruction
// against programs.Token.
func CreateAssociatedTokenAccountInstruction(programs token2022.Programs, payer, ata, owner, mint solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(programs.AssociatedToken, ataAccounts(programs, payer, ata, owner, mint), []byte{})
}

// CreateAssociatedTokenAccountIdempotentInstruction succeeds when the
// account already exists.
func CreateAssociatedTokenAccountIdempotentInstruction(programs token2022.Programs, payer, ata, owner, mint solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(programs.AssociatedToken, ataAccounts(programs, payer, ata, owner, mint), []byte{1})
}

func ataAccounts(programs token2022.Programs, payer, ata, owner, mint solana.PublicKey) solana.AccountMetaSlice {
	return solana.AccountMetaSlice{
		solana.NewAccountMeta(payer, true, true),
		solana.NewAccountMeta(ata, true, false),
		solana.NewAccountMeta(owner, false, false),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(system.ProgramID, false, false),
		solana.NewAccountMeta(programs.Token, false, false),
	}
}

// PrepareTokenATA checks if the ATA exists and appends a create instruction
// when it doesn't.
func PrepareTokenATA(
	ctx context.Context,
	rpcClient AccountFetcher,
	programs token2022.Programs,
	owner solana.PublicKey,
	tokenMint solana.PublicKey,
	payer solana.PublicKey,
	instructions *[]solana.Instruction,
) (solana.PublicKey, error) {
	tokenATA, err := FindAssociatedTokenAddress(programs, owner, tokenMint)
	if err != nil {
		return solana.PublicKey{}, err
	}

	_, err = GetAccountInfo(ctx, rpcClient, tokenATA)
	switch {
	case err == nil:
	case errors.Is(err, token2022.ErrAccountNotFound):
		*instructions = append(*instructions, CreateAssociatedTokenAccountInstruction(programs, payer, tokenATA, owner, tokenMint))
	default:
		return solana.PublicKey{}, err
	}
	return tokenATA, nil
}
