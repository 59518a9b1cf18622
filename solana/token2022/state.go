package token2022

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

type AccountState uint8

const (
	AccountStateUninitialized AccountState = 0
	AccountStateInitialized   AccountState = 1
	AccountStateFrozen        AccountState = 2
)

// Mint is a decoded Token-2022 mint.
type Mint struct {
	// Optional authority used to mint new tokens
	MintAuthority *solana.PublicKey

	// Total supply of tokens
	Supply uint64

	// Number of base 10 digits to the right of the decimal place
	Decimals uint8

	IsInitialized bool

	// Optional authority to freeze token accounts
	FreezeAuthority *solana.PublicKey

	Extensions Extensions
}

// Account is a decoded Token-2022 token account.
type Account struct {
	// Mint associated with the account
	Mint solana.PublicKey

	// Owner of the account
	Owner solana.PublicKey

	// Number of tokens the account holds
	Amount uint64

	// Authority that can transfer tokens from the account
	Delegate *solana.PublicKey

	State AccountState

	// If the account is a native token account, the rent-exempt reserve
	IsNative *uint64

	// Number of tokens the delegate is authorized to transfer
	DelegatedAmount uint64

	// Optional authority to close the account
	CloseAuthority *solana.PublicKey

	Extensions Extensions
}

func (a *Account) IsInitialized() bool { return a.State != AccountStateUninitialized }
func (a *Account) IsFrozen() bool      { return a.State == AccountStateFrozen }

// WithheldAmount returns the fees withheld in the account, zero when the
// account has no TransferFeeAmount extension.
func (a *Account) WithheldAmount() uint64 {
	if a == nil || a.Extensions.TransferFeeAmount == nil {
		return 0
	}
	return a.Extensions.TransferFeeAmount.WithheldAmount
}

// Extensions holds the TLV entries of an account in on-chain order. Entries
// this package understands are decoded as well.
type Extensions struct {
	Types []ExtensionType
	Raw   map[ExtensionType][]byte

	TransferFeeConfig  *TransferFeeConfig
	TransferFeeAmount  *TransferFeeAmount
	MintCloseAuthority *MintCloseAuthority
}

// Has reports whether an entry of type t is present.
func (e *Extensions) Has(t ExtensionType) bool {
	_, ok := e.Raw[t]
	return ok
}

// DecodeMint decodes a mint with or without extensions.
func DecodeMint(data []byte) (*Mint, error) {
	if len(data) < MintSize {
		return nil, errors.Wrapf(ErrInvalidAccountData, "mint data too short: %d", len(data))
	}
	if len(data) != MintSize && (len(data) <= AccountSize || len(data) == MultisigSize) {
		return nil, errors.Wrapf(ErrInvalidAccountData, "unexpected mint length %d", len(data))
	}

	dec := bin.NewBinDecoder(data[:MintSize])
	m := &Mint{}
	var err error
	if m.MintAuthority, err = readCOptionPubkey(dec); err != nil {
		return nil, err
	}
	if m.Supply, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return nil, errors.Wrap(err, "read supply")
	}
	if m.Decimals, err = dec.ReadUint8(); err != nil {
		return nil, errors.Wrap(err, "read decimals")
	}
	if m.IsInitialized, err = dec.ReadBool(); err != nil {
		return nil, errors.Wrap(err, "read is_initialized")
	}
	if m.FreezeAuthority, err = readCOptionPubkey(dec); err != nil {
		return nil, err
	}

	if len(data) == MintSize {
		return m, nil
	}
	if AccountType(data[AccountSize]) != AccountTypeMint {
		return nil, errors.Wrapf(ErrInvalidAccountData, "account type %d is not a mint", data[AccountSize])
	}
	if m.Extensions, err = decodeExtensions(data[AccountSize+AccountTypeSize:]); err != nil {
		return nil, err
	}
	return m, nil
}

// DecodeAccount decodes a token account with or without extensions.
func DecodeAccount(data []byte) (*Account, error) {
	if len(data) < AccountSize || len(data) == MultisigSize {
		return nil, errors.Wrapf(ErrInvalidAccountData, "unexpected token account length %d", len(data))
	}

	dec := bin.NewBinDecoder(data[:AccountSize])
	a := &Account{}
	mint, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return nil, errors.Wrap(err, "read mint")
	}
	a.Mint = solana.PublicKeyFromBytes(mint)
	owner, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return nil, errors.Wrap(err, "read owner")
	}
	a.Owner = solana.PublicKeyFromBytes(owner)
	if a.Amount, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return nil, errors.Wrap(err, "read amount")
	}
	if a.Delegate, err = readCOptionPubkey(dec); err != nil {
		return nil, err
	}
	state, err := dec.ReadUint8()
	if err != nil {
		return nil, errors.Wrap(err, "read state")
	}
	a.State = AccountState(state)
	if a.IsNative, err = readCOptionUint64(dec); err != nil {
		return nil, err
	}
	if a.DelegatedAmount, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return nil, errors.Wrap(err, "read delegated_amount")
	}
	if a.CloseAuthority, err = readCOptionPubkey(dec); err != nil {
		return nil, err
	}

	if len(data) == AccountSize {
		return a, nil
	}
	if AccountType(data[AccountSize]) != AccountTypeAccount {
		return nil, errors.Wrapf(ErrInvalidAccountData, "account type %d is not a token account", data[AccountSize])
	}
	if a.Extensions, err = decodeExtensions(data[AccountSize+AccountTypeSize:]); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeExtensions(tlv []byte) (Extensions, error) {
	exts := Extensions{Raw: make(map[ExtensionType][]byte)}

	off := 0
	for off+ExtensionTypeSize+ExtensionLengthSize <= len(tlv) {
		t := ExtensionType(binary.LittleEndian.Uint16(tlv[off:]))
		l := int(binary.LittleEndian.Uint16(tlv[off+ExtensionTypeSize:]))
		if t == ExtensionUninitialized {
			// zero padding up to the end of the account
			break
		}
		off += ExtensionTypeSize + ExtensionLengthSize
		if off+l > len(tlv) {
			return exts, errors.Wrapf(ErrInvalidAccountData, "extension %s overruns data: len=%d remaining=%d", t, l, len(tlv)-off)
		}
		if _, dup := exts.Raw[t]; dup {
			return exts, errors.Wrapf(ErrInvalidAccountData, "extension %s repeated", t)
		}
		val := tlv[off : off+l]
		off += l

		exts.Types = append(exts.Types, t)
		exts.Raw[t] = val

		var err error
		switch t {
		case ExtensionTransferFeeConfig:
			exts.TransferFeeConfig, err = decodeTransferFeeConfig(val)
		case ExtensionTransferFeeAmount:
			if len(val) < transferFeeAmountLen {
				err = errors.Wrap(ErrInvalidAccountData, "transfer fee amount truncated")
				break
			}
			exts.TransferFeeAmount = &TransferFeeAmount{WithheldAmount: binary.LittleEndian.Uint64(val)}
		case ExtensionMintCloseAuthority:
			if len(val) < mintCloseAuthorityLen {
				err = errors.Wrap(ErrInvalidAccountData, "mint close authority truncated")
				break
			}
			exts.MintCloseAuthority = &MintCloseAuthority{CloseAuthority: optionalNonZeroPubkey(val)}
		}
		if err != nil {
			return exts, err
		}
	}
	return exts, nil
}

func decodeTransferFeeConfig(val []byte) (*TransferFeeConfig, error) {
	if len(val) < transferFeeConfigLen {
		return nil, errors.Wrapf(ErrInvalidAccountData, "transfer fee config truncated: %d", len(val))
	}
	readFee := func(b []byte) TransferFee {
		return TransferFee{
			Epoch:       binary.LittleEndian.Uint64(b[0:8]),
			MaximumFee:  binary.LittleEndian.Uint64(b[8:16]),
			BasisPoints: binary.LittleEndian.Uint16(b[16:18]),
		}
	}
	return &TransferFeeConfig{
		TransferFeeConfigAuthority: optionalNonZeroPubkey(val[0:32]),
		WithdrawWithheldAuthority:  optionalNonZeroPubkey(val[32:64]),
		WithheldAmount:             binary.LittleEndian.Uint64(val[64:72]),
		OlderTransferFee:           readFee(val[72:90]),
		NewerTransferFee:           readFee(val[90:108]),
	}, nil
}

// optionalNonZeroPubkey maps the all-zero key to nil.
func optionalNonZeroPubkey(b []byte) *solana.PublicKey {
	pk := solana.PublicKeyFromBytes(b[:solana.PublicKeyLength])
	if pk.IsZero() {
		return nil
	}
	return &pk
}

func readCOptionPubkey(dec *bin.Decoder) (*solana.PublicKey, error) {
	tag, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return nil, errors.Wrap(err, "read option tag")
	}
	raw, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return nil, errors.Wrap(err, "read option pubkey")
	}
	switch tag {
	case 0:
		return nil, nil
	case 1:
		pk := solana.PublicKeyFromBytes(raw)
		return &pk, nil
	default:
		return nil, errors.Wrapf(ErrInvalidAccountData, "invalid option tag %d", tag)
	}
}

func readCOptionUint64(dec *bin.Decoder) (*uint64, error) {
	tag, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return nil, errors.Wrap(err, "read option tag")
	}
	v, err := dec.ReadUint64(binary.LittleEndian)
	if err != nil {
		return nil, errors.Wrap(err, "read option u64")
	}
	switch tag {
	case 0:
		return nil, nil
	case 1:
		return &v, nil
	default:
		return nil, errors.Wrapf(ErrInvalidAccountData, "invalid option tag %d", tag)
	}
}

// EncodeMint serializes m in the on-chain layout. Extensions are written in
// Extensions.Types order, using the decoded value where one is set.
func EncodeMint(m *Mint) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	if err := writeCOptionPubkey(enc, m.MintAuthority); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(m.Supply, binary.LittleEndian); err != nil {
		return nil, err
	}
	if err := enc.WriteUint8(m.Decimals); err != nil {
		return nil, err
	}
	if err := enc.WriteBool(m.IsInitialized); err != nil {
		return nil, err
	}
	if err := writeCOptionPubkey(enc, m.FreezeAuthority); err != nil {
		return nil, err
	}
	return appendExtensions(buf.Bytes(), AccountTypeMint, &m.Extensions)
}

// EncodeAccount serializes a in the on-chain layout.
func EncodeAccount(a *Account) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	if err := enc.WriteBytes(a.Mint[:], false); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(a.Owner[:], false); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(a.Amount, binary.LittleEndian); err != nil {
		return nil, err
	}
	if err := writeCOptionPubkey(enc, a.Delegate); err != nil {
		return nil, err
	}
	if err := enc.WriteUint8(uint8(a.State)); err != nil {
		return nil, err
	}
	if a.IsNative != nil {
		if err := enc.WriteUint32(1, binary.LittleEndian); err != nil {
			return nil, err
		}
		if err := enc.WriteUint64(*a.IsNative, binary.LittleEndian); err != nil {
			return nil, err
		}
	} else if err := enc.WriteBytes(make([]byte, 12), false); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(a.DelegatedAmount, binary.LittleEndian); err != nil {
		return nil, err
	}
	if err := writeCOptionPubkey(enc, a.CloseAuthority); err != nil {
		return nil, err
	}
	return appendExtensions(buf.Bytes(), AccountTypeAccount, &a.Extensions)
}

func appendExtensions(base []byte, accountType AccountType, exts *Extensions) ([]byte, error) {
	if len(exts.Types) == 0 {
		return base, nil
	}

	out := make([]byte, AccountSize, AccountSize+AccountTypeSize)
	copy(out, base)
	out = append(out, byte(accountType))

	for _, t := range exts.Types {
		val, err := exts.value(t)
		if err != nil {
			return nil, err
		}
		out = binary.LittleEndian.AppendUint16(out, uint16(t))
		out = binary.LittleEndian.AppendUint16(out, uint16(len(val)))
		out = append(out, val...)
	}
	if len(out) == MultisigSize {
		out = append(out, 0, 0)
	}
	return out, nil
}

func (e *Extensions) value(t ExtensionType) ([]byte, error) {
	switch {
	case t == ExtensionTransferFeeConfig && e.TransferFeeConfig != nil:
		c := e.TransferFeeConfig
		out := make([]byte, 0, transferFeeConfigLen)
		out = append(out, pubkeyOrZero(c.TransferFeeConfigAuthority)...)
		out = append(out, pubkeyOrZero(c.WithdrawWithheldAuthority)...)
		out = binary.LittleEndian.AppendUint64(out, c.WithheldAmount)
		for _, f := range []TransferFee{c.OlderTransferFee, c.NewerTransferFee} {
			out = binary.LittleEndian.AppendUint64(out, f.Epoch)
			out = binary.LittleEndian.AppendUint64(out, f.MaximumFee)
			out = binary.LittleEndian.AppendUint16(out, f.BasisPoints)
		}
		return out, nil
	case t == ExtensionTransferFeeAmount && e.TransferFeeAmount != nil:
		return binary.LittleEndian.AppendUint64(nil, e.TransferFeeAmount.WithheldAmount), nil
	case t == ExtensionMintCloseAuthority && e.MintCloseAuthority != nil:
		return pubkeyOrZero(e.MintCloseAuthority.CloseAuthority), nil
	}
	if raw, ok := e.Raw[t]; ok {
		return raw, nil
	}
	length, err := ExtensionLen(t)
	if err != nil {
		return nil, err
	}
	return make([]byte, length), nil
}

func pubkeyOrZero(pk *solana.PublicKey) []byte {
	if pk == nil {
		return make([]byte, solana.PublicKeyLength)
	}
	return pk.Bytes()
}

func writeCOptionPubkey(enc *bin.Encoder, pk *solana.PublicKey) error {
	if pk == nil {
		if err := enc.WriteUint32(0, binary.LittleEndian); err != nil {
			return err
		}
		return enc.WriteBytes(make([]byte, solana.PublicKeyLength), false)
	}
	if err := enc.WriteUint32(1, binary.LittleEndian); err != nil {
		return err
	}
	return enc.WriteBytes(pk[:], false)
}
