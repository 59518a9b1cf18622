package token2022

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/pkg/errors"
)

// Token-2022 instruction discriminators. The base ones are shared with the
// legacy SPL token program.
const (
	InstructionInitializeMint               = token.Instruction_InitializeMint
	InstructionCloseAccount                 = token.Instruction_CloseAccount
	InstructionMintToChecked                = token.Instruction_MintToChecked
	InstructionInitializeMintCloseAuthority = uint8(25)
	InstructionTransferFeeExtension         = uint8(26)
)

// Second byte of a TransferFeeExtension instruction.
const (
	TransferFeeInitializeTransferFeeConfig        uint8 = 0
	TransferFeeTransferCheckedWithFee             uint8 = 1
	TransferFeeWithdrawWithheldTokensFromMint     uint8 = 2
	TransferFeeWithdrawWithheldTokensFromAccounts uint8 = 3
	TransferFeeHarvestWithheldTokensToMint        uint8 = 4
)

// MaxSourcesPerInstruction bounds the source list of a withdraw, which
// encodes its length in one byte.
const MaxSourcesPerInstruction = 255

type InitializeMintData struct {
	Decimals        uint8
	MintAuthority   solana.PublicKey
	FreezeAuthority *solana.PublicKey
}

func (d InitializeMintData) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteUint8(d.Decimals); err != nil {
		return err
	}
	if err := enc.WriteBytes(d.MintAuthority[:], false); err != nil {
		return err
	}
	return writeOptionPubkey(enc, d.FreezeAuthority)
}

func (d *InitializeMintData) UnmarshalWithDecoder(dec *bin.Decoder) (err error) {
	if d.Decimals, err = dec.ReadUint8(); err != nil {
		return err
	}
	raw, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	d.MintAuthority = solana.PublicKeyFromBytes(raw)
	d.FreezeAuthority, err = readOptionPubkey(dec)
	return err
}

type InitializeMintCloseAuthorityData struct {
	CloseAuthority *solana.PublicKey
}

func (d InitializeMintCloseAuthorityData) MarshalWithEncoder(enc *bin.Encoder) error {
	return writeOptionPubkey(enc, d.CloseAuthority)
}

func (d *InitializeMintCloseAuthorityData) UnmarshalWithDecoder(dec *bin.Decoder) (err error) {
	d.CloseAuthority, err = readOptionPubkey(dec)
	return err
}

type InitializeTransferFeeConfigData struct {
	ConfigAuthority   *solana.PublicKey
	WithdrawAuthority *solana.PublicKey
	BasisPoints       uint16
	MaximumFee        uint64
}

func (d InitializeTransferFeeConfigData) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := writeOptionPubkey(enc, d.ConfigAuthority); err != nil {
		return err
	}
	if err := writeOptionPubkey(enc, d.WithdrawAuthority); err != nil {
		return err
	}
	if err := enc.WriteUint16(d.BasisPoints, binary.LittleEndian); err != nil {
		return err
	}
	return enc.WriteUint64(d.MaximumFee, binary.LittleEndian)
}

func (d *InitializeTransferFeeConfigData) UnmarshalWithDecoder(dec *bin.Decoder) (err error) {
	if d.ConfigAuthority, err = readOptionPubkey(dec); err != nil {
		return err
	}
	if d.WithdrawAuthority, err = readOptionPubkey(dec); err != nil {
		return err
	}
	if d.BasisPoints, err = dec.ReadUint16(binary.LittleEndian); err != nil {
		return err
	}
	d.MaximumFee, err = dec.ReadUint64(binary.LittleEndian)
	return err
}

type TransferCheckedWithFeeData struct {
	Amount   uint64
	Decimals uint8
	Fee      uint64
}

func (d TransferCheckedWithFeeData) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteUint64(d.Amount, binary.LittleEndian); err != nil {
		return err
	}
	if err := enc.WriteUint8(d.Decimals); err != nil {
		return err
	}
	return enc.WriteUint64(d.Fee, binary.LittleEndian)
}

func (d *TransferCheckedWithFeeData) UnmarshalWithDecoder(dec *bin.Decoder) (err error) {
	if d.Amount, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return err
	}
	if d.Decimals, err = dec.ReadUint8(); err != nil {
		return err
	}
	d.Fee, err = dec.ReadUint64(binary.LittleEndian)
	return err
}

type WithdrawWithheldTokensFromMintData struct{}

type WithdrawWithheldTokensFromAccountsData struct {
	NumTokenAccounts uint8
}

type HarvestWithheldTokensToMintData struct{}

type MintToCheckedData struct {
	Amount   uint64
	Decimals uint8
}

func (d MintToCheckedData) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteUint64(d.Amount, binary.LittleEndian); err != nil {
		return err
	}
	return enc.WriteUint8(d.Decimals)
}

func (d *MintToCheckedData) UnmarshalWithDecoder(dec *bin.Decoder) (err error) {
	if d.Amount, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return err
	}
	d.Decimals, err = dec.ReadUint8()
	return err
}

type CloseAccountData struct{}

// InitializeMintInstruction initializes the base mint. Every extension
// initializer has to run before it.
func InitializeMintInstruction(programID, mint solana.PublicKey, decimals uint8, mintAuthority solana.PublicKey, freezeAuthority *solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		programID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(mint, true, false),
			solana.NewAccountMeta(solana.SysVarRentPubkey, false, false),
		},
		encodeData(InitializeMintData{
			Decimals:        decimals,
			MintAuthority:   mintAuthority,
			FreezeAuthority: freezeAuthority,
		}, InstructionInitializeMint),
	)
}

func InitializeMintCloseAuthorityInstruction(programID, mint solana.PublicKey, closeAuthority *solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		programID,
		solana.AccountMetaSlice{solana.NewAccountMeta(mint, true, false)},
		encodeData(InitializeMintCloseAuthorityData{CloseAuthority: closeAuthority}, InstructionInitializeMintCloseAuthority),
	)
}

func InitializeTransferFeeConfigInstruction(programID, mint solana.PublicKey, configAuthority, withdrawAuthority *solana.PublicKey, basisPoints uint16, maximumFee uint64) solana.Instruction {
	return solana.NewInstruction(
		programID,
		solana.AccountMetaSlice{solana.NewAccountMeta(mint, true, false)},
		encodeData(InitializeTransferFeeConfigData{
			ConfigAuthority:   configAuthority,
			WithdrawAuthority: withdrawAuthority,
			BasisPoints:       basisPoints,
			MaximumFee:        maximumFee,
		}, InstructionTransferFeeExtension, TransferFeeInitializeTransferFeeConfig),
	)
}

// TransferCheckedWithFeeInstruction moves amount from source to destination,
// asserting the ledger charges exactly fee.
func TransferCheckedWithFeeInstruction(programID, source, mint, destination, authority solana.PublicKey, signers []solana.PublicKey, amount uint64, decimals uint8, fee uint64) (solana.Instruction, error) {
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(source, true, false),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(destination, true, false),
	}
	accounts, err := appendAuthority(accounts, authority, signers)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(
		programID,
		accounts,
		encodeData(TransferCheckedWithFeeData{Amount: amount, Decimals: decimals, Fee: fee},
			InstructionTransferFeeExtension, TransferFeeTransferCheckedWithFee),
	), nil
}

func WithdrawWithheldTokensFromMintInstruction(programID, mint, destination, authority solana.PublicKey, signers []solana.PublicKey) (solana.Instruction, error) {
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(mint, true, false),
		solana.NewAccountMeta(destination, true, false),
	}
	accounts, err := appendAuthority(accounts, authority, signers)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(
		programID,
		accounts,
		[]byte{InstructionTransferFeeExtension, TransferFeeWithdrawWithheldTokensFromMint},
	), nil
}

// WithdrawWithheldTokensFromAccountsInstruction sweeps the withheld fees of
// sources straight into destination.
func WithdrawWithheldTokensFromAccountsInstruction(programID, mint, destination, authority solana.PublicKey, signers []solana.PublicKey, sources []solana.PublicKey) (solana.Instruction, error) {
	if len(sources) > MaxSourcesPerInstruction {
		return nil, errors.Wrapf(ErrTooManySources, "%d sources", len(sources))
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(destination, true, false),
	}
	accounts, err := appendAuthority(accounts, authority, signers)
	if err != nil {
		return nil, err
	}
	for _, source := range sources {
		accounts = append(accounts, solana.NewAccountMeta(source, true, false))
	}
	return solana.NewInstruction(
		programID,
		accounts,
		[]byte{InstructionTransferFeeExtension, TransferFeeWithdrawWithheldTokensFromAccounts, uint8(len(sources))},
	), nil
}

// HarvestWithheldTokensToMintInstruction moves withheld fees from sources to
// the mint. It needs no signature.
func HarvestWithheldTokensToMintInstruction(programID, mint solana.PublicKey, sources []solana.PublicKey) solana.Instruction {
	accounts := solana.AccountMetaSlice{solana.NewAccountMeta(mint, true, false)}
	for _, source := range sources {
		accounts = append(accounts, solana.NewAccountMeta(source, true, false))
	}
	return solana.NewInstruction(
		programID,
		accounts,
		[]byte{InstructionTransferFeeExtension, TransferFeeHarvestWithheldTokensToMint},
	)
}

func MintToCheckedInstruction(programID, mint, destination, authority solana.PublicKey, signers []solana.PublicKey, amount uint64, decimals uint8) (solana.Instruction, error) {
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(mint, true, false),
		solana.NewAccountMeta(destination, true, false),
	}
	accounts, err := appendAuthority(accounts, authority, signers)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(
		programID,
		accounts,
		encodeData(MintToCheckedData{Amount: amount, Decimals: decimals}, InstructionMintToChecked),
	), nil
}

// CloseAccountInstruction closes a token account, or a mint carrying a close
// authority, sending its lamports to destination.
func CloseAccountInstruction(programID, account, destination, authority solana.PublicKey, signers []solana.PublicKey) (solana.Instruction, error) {
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(account, true, false),
		solana.NewAccountMeta(destination, true, false),
	}
	accounts, err := appendAuthority(accounts, authority, signers)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(programID, accounts, []byte{InstructionCloseAccount}), nil
}

// appendAuthority adds the authority account. With multisig signers the
// authority is the multisig and only the signers sign.
func appendAuthority(accounts solana.AccountMetaSlice, authority solana.PublicKey, signers []solana.PublicKey) (solana.AccountMetaSlice, error) {
	if len(signers) > MaxSigners {
		return nil, errors.Wrapf(ErrTooManySigners, "%d signers", len(signers))
	}
	accounts = append(accounts, solana.NewAccountMeta(authority, false, len(signers) == 0))
	for _, signer := range signers {
		accounts = append(accounts, solana.NewAccountMeta(signer, false, true))
	}
	return accounts, nil
}

func encodeData(payload bin.BinaryMarshaler, discriminator ...uint8) []byte {
	buf := bytes.NewBuffer(append([]byte{}, discriminator...))
	// bytes.Buffer writes never fail
	_ = payload.MarshalWithEncoder(bin.NewBinEncoder(buf))
	return buf.Bytes()
}

// Instruction options carry a one byte tag followed by the key, zeroed when
// absent.
func writeOptionPubkey(enc *bin.Encoder, pk *solana.PublicKey) error {
	if pk == nil {
		if err := enc.WriteUint8(0); err != nil {
			return err
		}
		return enc.WriteBytes(make([]byte, solana.PublicKeyLength), false)
	}
	if err := enc.WriteUint8(1); err != nil {
		return err
	}
	return enc.WriteBytes(pk[:], false)
}

func readOptionPubkey(dec *bin.Decoder) (*solana.PublicKey, error) {
	tag, err := dec.ReadUint8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		// the key bytes are optional when absent
		if dec.Remaining() >= solana.PublicKeyLength {
			if _, err := dec.ReadNBytes(solana.PublicKeyLength); err != nil {
				return nil, err
			}
		}
		return nil, nil
	case 1:
		raw, err := dec.ReadNBytes(solana.PublicKeyLength)
		if err != nil {
			return nil, err
		}
		pk := solana.PublicKeyFromBytes(raw)
		return &pk, nil
	default:
		return nil, errors.Wrapf(ErrInvalidInstruction, "invalid option tag %d", tag)
	}
}

// DecodedInstruction is a Token-2022 instruction split into its accounts and
// a typed payload. Data is one of the *Data types of this package.
type DecodedInstruction struct {
	Accounts []*solana.AccountMeta
	Data     interface{}
}

// DecodeInstruction parses an instruction built against programID.
func DecodeInstruction(programID solana.PublicKey, ix solana.Instruction) (*DecodedInstruction, error) {
	if !ix.ProgramID().Equals(programID) {
		return nil, errors.Wrapf(ErrInvalidInstruction, "program %s", ix.ProgramID())
	}
	data, err := ix.Data()
	if err != nil {
		return nil, errors.Wrap(err, "instruction data")
	}
	if len(data) == 0 {
		return nil, errors.Wrap(ErrInvalidInstruction, "empty data")
	}

	var payload bin.BinaryUnmarshaler
	var out interface{}
	body := data[1:]

	switch data[0] {
	case InstructionInitializeMint:
		p := &InitializeMintData{}
		payload, out = p, p
	case InstructionInitializeMintCloseAuthority:
		p := &InitializeMintCloseAuthorityData{}
		payload, out = p, p
	case InstructionMintToChecked:
		p := &MintToCheckedData{}
		payload, out = p, p
	case InstructionCloseAccount:
		out = &CloseAccountData{}
	case InstructionTransferFeeExtension:
		if len(body) == 0 {
			return nil, errors.Wrap(ErrInvalidInstruction, "missing transfer fee instruction")
		}
		sub := body[0]
		body = body[1:]
		switch sub {
		case TransferFeeInitializeTransferFeeConfig:
			p := &InitializeTransferFeeConfigData{}
			payload, out = p, p
		case TransferFeeTransferCheckedWithFee:
			p := &TransferCheckedWithFeeData{}
			payload, out = p, p
		case TransferFeeWithdrawWithheldTokensFromMint:
			out = &WithdrawWithheldTokensFromMintData{}
		case TransferFeeWithdrawWithheldTokensFromAccounts:
			if len(body) < 1 {
				return nil, errors.Wrap(ErrInvalidInstruction, "missing source count")
			}
			out = &WithdrawWithheldTokensFromAccountsData{NumTokenAccounts: body[0]}
		case TransferFeeHarvestWithheldTokensToMint:
			out = &HarvestWithheldTokensToMintData{}
		default:
			return nil, errors.Wrapf(ErrInvalidInstruction, "unknown transfer fee instruction %d", sub)
		}
	default:
		return nil, errors.Wrapf(ErrInvalidInstruction, "unknown instruction %d", data[0])
	}

	if payload != nil {
		if err := payload.UnmarshalWithDecoder(bin.NewBinDecoder(body)); err != nil {
			return nil, errors.Wrapf(ErrInvalidInstruction, "decode %T: %v", out, err)
		}
	}
	return &DecodedInstruction{Accounts: ix.Accounts(), Data: out}, nil
}
