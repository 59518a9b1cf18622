package mint

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/captainenkay0712/token-2022-library/solana/token2022"
)

// CreateMintParams describes a mint to create.
type CreateMintParams struct {
	Payer           solana.PublicKey  // funds the new account
	Mint            solana.PublicKey  // new mint address, must sign
	MintAuthority   solana.PublicKey  // authority allowed to mint
	FreezeAuthority *solana.PublicKey // optional authority allowed to freeze accounts
	Decimals        uint8
	Extensions      []token2022.ExtensionConfig // in initialization order
}

// Plan is the ordered instruction list that creates a mint, together with
// the size and rent it was built for.
type Plan struct {
	Space        uint64
	Lamports     uint64
	Instructions []solana.Instruction
}

// MintSpace returns the account size a mint carrying extensions needs.
func MintSpace(extensions []token2022.ExtensionConfig) (uint64, error) {
	if err := token2022.ValidateExtensions(extensions); err != nil {
		return 0, err
	}
	types, err := token2022.ExtensionTypes(extensions)
	if err != nil {
		return 0, err
	}
	return token2022.MintLen(types)
}

// CreateMintInstructions builds the instructions that create a mint.
//
// The account is allocated once with room for every extension, each
// extension is initialized in the order given, and the base mint is
// initialized last. lamports must be the runtime's rent-exempt minimum for
// MintSpace(params.Extensions) bytes.
//
// Example:
//
// space, _ := MintSpace(extensions)
//
// lamports, _ := rpcClient.GetMinimumBalanceForRentExemption(ctx, space, rpc.CommitmentFinalized)
//
// plan, _ := CreateMintInstructions(
//
//	token2022.DefaultPrograms(),
//	CreateMintParams{
//		Payer:         payer.PublicKey(),
//		Mint:          mint.PublicKey(),
//		MintAuthority: payer.PublicKey(),
//		Decimals:      9,
//		Extensions: []token2022.ExtensionConfig{
//			token2022.TransferFeeConfigExtension{BasisPoints: 100, MaximumFee: 5_000},
//		},
//	},
//	lamports,
//
// )
func CreateMintInstructions(programs token2022.Programs, params CreateMintParams, lamports uint64) (*Plan, error) {
	space, err := MintSpace(params.Extensions)
	if err != nil {
		return nil, err
	}

	instructions := make([]solana.Instruction, 0, len(params.Extensions)+2)
	instructions = append(instructions, system.NewCreateAccountInstruction(
		lamports,
		space,
		programs.Token,
		params.Payer,
		params.Mint,
	).Build())

	for _, ext := range params.Extensions {
		ix, err := ExtensionInitializer(programs, params.Mint, ext)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, ix)
	}

	instructions = append(instructions, token2022.InitializeMintInstruction(
		programs.Token,
		params.Mint,
		params.Decimals,
		params.MintAuthority,
		params.FreezeAuthority,
	))

	return &Plan{
		Space:        space,
		Lamports:     lamports,
		Instructions: instructions,
	}, nil
}

// ExtensionInitializer returns the instruction that initializes ext on mint.
// It has to run before the base mint is initialized.
func ExtensionInitializer(programs token2022.Programs, mint solana.PublicKey, ext token2022.ExtensionConfig) (solana.Instruction, error) {
	if e, ok := token2022.AsMintCloseAuthority(ext); ok {
		return token2022.InitializeMintCloseAuthorityInstruction(programs.Token, mint, e.CloseAuthority), nil
	}
	if e, ok := token2022.AsTransferFeeConfig(ext); ok {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		return token2022.InitializeTransferFeeConfigInstruction(
			programs.Token,
			mint,
			e.ConfigAuthority,
			e.WithdrawAuthority,
			e.BasisPoints,
			e.MaximumFee,
		), nil
	}

	if _, err := token2022.ExtensionTypes([]token2022.ExtensionConfig{ext}); err != nil {
		return nil, err
	}
	return nil, &token2022.UnsupportedExtensionError{Type: ext.Type()}
}
