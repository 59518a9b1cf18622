package mint

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/captainenkay0712/token-2022-library/solana/token2022"
)

func createAccountSpace(t *testing.T, ix solana.Instruction) (lamports, space uint64, owner solana.PublicKey) {
	t.Helper()
	require.Equal(t, solana.SystemProgramID, ix.ProgramID())
	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 52)
	return binary.LittleEndian.Uint64(data[4:12]), binary.LittleEndian.Uint64(data[12:20]), solana.PublicKeyFromBytes(data[20:52])
}

func decode(t *testing.T, ix solana.Instruction) interface{} {
	t.Helper()
	decoded, err := token2022.DecodeInstruction(solana.Token2022ProgramID, ix)
	require.NoError(t, err)
	return decoded.Data
}

func TestCreateMintInstructions(t *testing.T) {
	programs := token2022.DefaultPrograms()
	payer := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	closer := solana.NewWallet().PublicKey()
	withdrawer := solana.NewWallet().PublicKey()

	plan, err := CreateMintInstructions(programs, CreateMintParams{
		Payer:         payer,
		Mint:          mint,
		MintAuthority: payer,
		Decimals:      9,
		Extensions: []token2022.ExtensionConfig{
			token2022.MintCloseAuthorityExtension{CloseAuthority: &closer},
			token2022.TransferFeeConfigExtension{WithdrawAuthority: &withdrawer, BasisPoints: 100, MaximumFee: 5_000},
		},
	}, 3_000_000)
	require.NoError(t, err)

	assert.EqualValues(t, 314, plan.Space)
	assert.EqualValues(t, 3_000_000, plan.Lamports)
	require.Len(t, plan.Instructions, 4)

	lamports, space, owner := createAccountSpace(t, plan.Instructions[0])
	assert.EqualValues(t, 3_000_000, lamports)
	assert.EqualValues(t, 314, space)
	assert.Equal(t, programs.Token, owner)
	accounts := plan.Instructions[0].Accounts()
	assert.Equal(t, payer, accounts[0].PublicKey)
	assert.Equal(t, mint, accounts[1].PublicKey)
	assert.True(t, accounts[1].IsSigner)

	closeInit, ok := decode(t, plan.Instructions[1]).(*token2022.InitializeMintCloseAuthorityData)
	require.True(t, ok)
	assert.Equal(t, closer, *closeInit.CloseAuthority)

	feeInit, ok := decode(t, plan.Instructions[2]).(*token2022.InitializeTransferFeeConfigData)
	require.True(t, ok)
	assert.Nil(t, feeInit.ConfigAuthority)
	assert.Equal(t, withdrawer, *feeInit.WithdrawAuthority)
	assert.EqualValues(t, 100, feeInit.BasisPoints)
	assert.EqualValues(t, 5_000, feeInit.MaximumFee)

	initMint, ok := decode(t, plan.Instructions[3]).(*token2022.InitializeMintData)
	require.True(t, ok)
	assert.EqualValues(t, 9, initMint.Decimals)
	assert.Equal(t, payer, initMint.MintAuthority)
	assert.Nil(t, initMint.FreezeAuthority)

	for _, ix := range plan.Instructions[1:] {
		assert.Equal(t, mint, ix.Accounts()[0].PublicKey)
	}
}

func TestCreateMintInstructionsOrderIndependentSize(t *testing.T) {
	programs := token2022.DefaultPrograms()
	closeExt := token2022.MintCloseAuthorityExtension{}
	feeExt := &token2022.TransferFeeConfigExtension{BasisPoints: 50, MaximumFee: 1}

	forward, err := CreateMintInstructions(programs, CreateMintParams{Extensions: []token2022.ExtensionConfig{closeExt, feeExt}}, 0)
	require.NoError(t, err)
	reverse, err := CreateMintInstructions(programs, CreateMintParams{Extensions: []token2022.ExtensionConfig{feeExt, closeExt}}, 0)
	require.NoError(t, err)

	assert.Equal(t, forward.Space, reverse.Space)
	_, forwardSpace, _ := createAccountSpace(t, forward.Instructions[0])
	_, reverseSpace, _ := createAccountSpace(t, reverse.Instructions[0])
	assert.Equal(t, forwardSpace, reverseSpace)

	// initializers follow the declared order
	assert.IsType(t, &token2022.InitializeMintCloseAuthorityData{}, decode(t, forward.Instructions[1]))
	assert.IsType(t, &token2022.InitializeTransferFeeConfigData{}, decode(t, reverse.Instructions[1]))
}

func TestCreateMintInstructionsWithoutExtensions(t *testing.T) {
	freeze := solana.NewWallet().PublicKey()
	plan, err := CreateMintInstructions(token2022.DefaultPrograms(), CreateMintParams{
		Decimals:        0,
		FreezeAuthority: &freeze,
	}, 1_461_600)
	require.NoError(t, err)

	assert.EqualValues(t, token2022.MintSize, plan.Space)
	require.Len(t, plan.Instructions, 2)
	initMint := decode(t, plan.Instructions[1]).(*token2022.InitializeMintData)
	assert.Equal(t, freeze, *initMint.FreezeAuthority)
}

func TestCreateMintInstructionsRejects(t *testing.T) {
	programs := token2022.DefaultPrograms()

	_, err := CreateMintInstructions(programs, CreateMintParams{Extensions: []token2022.ExtensionConfig{
		token2022.MintCloseAuthorityExtension{},
		&token2022.MintCloseAuthorityExtension{},
	}}, 0)
	var dup *token2022.DuplicateExtensionError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, token2022.ExtensionMintCloseAuthority, dup.Type)

	_, err = CreateMintInstructions(programs, CreateMintParams{Extensions: []token2022.ExtensionConfig{nil}}, 0)
	var unsupported *token2022.UnsupportedExtensionError
	assert.ErrorAs(t, err, &unsupported)

	_, err = CreateMintInstructions(programs, CreateMintParams{Extensions: []token2022.ExtensionConfig{
		token2022.TransferFeeConfigExtension{BasisPoints: 10_001},
	}}, 0)
	assert.ErrorIs(t, err, token2022.ErrInvalidBasisPoints)
}

func TestCreateMintInstructionsCustomProgram(t *testing.T) {
	programs := token2022.Programs{
		Token:           solana.NewWallet().PublicKey(),
		AssociatedToken: solana.NewWallet().PublicKey(),
	}
	plan, err := CreateMintInstructions(programs, CreateMintParams{Extensions: []token2022.ExtensionConfig{
		token2022.TransferFeeConfigExtension{},
	}}, 0)
	require.NoError(t, err)

	_, _, owner := createAccountSpace(t, plan.Instructions[0])
	assert.Equal(t, programs.Token, owner)
	for _, ix := range plan.Instructions[1:] {
		assert.Equal(t, programs.Token, ix.ProgramID())
	}
}

func TestMintSpace(t *testing.T) {
	space, err := MintSpace(nil)
	require.NoError(t, err)
	assert.EqualValues(t, 82, space)

	space, err = MintSpace([]token2022.ExtensionConfig{token2022.TransferFeeConfigExtension{}})
	require.NoError(t, err)
	assert.EqualValues(t, 278, space)
}
