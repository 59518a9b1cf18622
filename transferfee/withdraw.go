package transferfee

import (
	"github.com/gagliardetto/solana-go"

	"github.com/captainenkay0712/token-2022-library/solana/token2022"
)

// WithdrawWithheldTokensFromMintInstruction generates the instruction that
// moves the mint's harvested pool to destination. authority must be the
// mint's withdraw withheld authority, or a multisig when signers are given.
func WithdrawWithheldTokensFromMintInstruction(
	programs token2022.Programs,
	mint solana.PublicKey,
	destination solana.PublicKey,
	authority solana.PublicKey,
	signers ...solana.PublicKey,
) (solana.Instruction, error) {
	return token2022.WithdrawWithheldTokensFromMintInstruction(programs.Token, mint, destination, authority, signers)
}

// WithdrawWithheldTokensFromAccountsInstruction generates the instruction
// that moves the withheld fees of sources straight to destination, skipping
// the mint pool.
//
// An empty sources list yields a nil instruction and no error.
//
// Example:
//
// sources, _ := CollectWithheldAccounts(ctx, rpcClient, programs, mint)
//
// ix, _ := WithdrawWithheldTokensFromAccountsInstruction(
//
//	programs,
//	mint,
//	destinationATA, // receives the fees
//	withdrawAuthority.PublicKey(),
//	sources,
//
// )
func WithdrawWithheldTokensFromAccountsInstruction(
	programs token2022.Programs,
	mint solana.PublicKey,
	destination solana.PublicKey,
	authority solana.PublicKey,
	sources []solana.PublicKey,
	signers ...solana.PublicKey,
) (solana.Instruction, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	return token2022.WithdrawWithheldTokensFromAccountsInstruction(programs.Token, mint, destination, authority, signers, sources)
}
