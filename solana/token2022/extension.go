package token2022

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

// ExtensionType is the u16 tag of a TLV entry.
type ExtensionType uint16

const (
	ExtensionUninitialized ExtensionType = iota
	ExtensionTransferFeeConfig
	ExtensionTransferFeeAmount
	ExtensionMintCloseAuthority
	ExtensionConfidentialTransferMint
	ExtensionConfidentialTransferAccount
	ExtensionDefaultAccountState
	ExtensionImmutableOwner
	ExtensionMemoTransfer
	ExtensionNonTransferable
	ExtensionInterestBearingConfig
	ExtensionCpiGuard
	ExtensionPermanentDelegate
	ExtensionNonTransferableAccount
	ExtensionTransferHook
	ExtensionTransferHookAccount
	ExtensionConfidentialTransferFeeConfig
	ExtensionConfidentialTransferFeeAmount
	ExtensionMetadataPointer
	ExtensionTokenMetadata
	ExtensionGroupPointer
	ExtensionTokenGroup
	ExtensionGroupMemberPointer
	ExtensionTokenGroupMember
)

var extensionNames = [...]string{
	"Uninitialized",
	"TransferFeeConfig",
	"TransferFeeAmount",
	"MintCloseAuthority",
	"ConfidentialTransferMint",
	"ConfidentialTransferAccount",
	"DefaultAccountState",
	"ImmutableOwner",
	"MemoTransfer",
	"NonTransferable",
	"InterestBearingConfig",
	"CpiGuard",
	"PermanentDelegate",
	"NonTransferableAccount",
	"TransferHook",
	"TransferHookAccount",
	"ConfidentialTransferFeeConfig",
	"ConfidentialTransferFeeAmount",
	"MetadataPointer",
	"TokenMetadata",
	"GroupPointer",
	"TokenGroup",
	"GroupMemberPointer",
	"TokenGroupMember",
}

func (t ExtensionType) String() string {
	if int(t) < len(extensionNames) {
		return extensionNames[t]
	}
	return fmt.Sprintf("ExtensionType(%d)", uint16(t))
}

const (
	transferFeeLen        = 8 + 8 + 2
	transferFeeConfigLen  = 32 + 32 + 8 + transferFeeLen*2
	transferFeeAmountLen  = 8
	mintCloseAuthorityLen = 32
)

type catalogEntry struct {
	length   int
	mintSide bool
}

// catalog lists the fixed-length extensions this library can size. Variable
// length extensions such as TokenMetadata are absent on purpose.
var catalog = map[ExtensionType]catalogEntry{
	ExtensionTransferFeeConfig:             {length: transferFeeConfigLen, mintSide: true},
	ExtensionTransferFeeAmount:             {length: transferFeeAmountLen},
	ExtensionMintCloseAuthority:            {length: mintCloseAuthorityLen, mintSide: true},
	ExtensionConfidentialTransferMint:      {length: 65, mintSide: true},
	ExtensionConfidentialTransferAccount:   {length: 295},
	ExtensionDefaultAccountState:           {length: 1, mintSide: true},
	ExtensionImmutableOwner:                {length: 0},
	ExtensionMemoTransfer:                  {length: 1},
	ExtensionNonTransferable:               {length: 0, mintSide: true},
	ExtensionInterestBearingConfig:         {length: 52, mintSide: true},
	ExtensionCpiGuard:                      {length: 1},
	ExtensionPermanentDelegate:             {length: 32, mintSide: true},
	ExtensionNonTransferableAccount:        {length: 0},
	ExtensionTransferHook:                  {length: 64, mintSide: true},
	ExtensionTransferHookAccount:           {length: 1},
	ExtensionConfidentialTransferFeeConfig: {length: 129, mintSide: true},
	ExtensionConfidentialTransferFeeAmount: {length: 64},
	ExtensionMetadataPointer:               {length: 64, mintSide: true},
	ExtensionGroupPointer:                  {length: 64, mintSide: true},
	ExtensionTokenGroup:                    {length: 80, mintSide: true},
	ExtensionGroupMemberPointer:            {length: 64, mintSide: true},
	ExtensionTokenGroupMember:              {length: 72, mintSide: true},
}

// ExtensionLen returns the TLV value length of t.
func ExtensionLen(t ExtensionType) (int, error) {
	entry, ok := catalog[t]
	if !ok {
		return 0, &UnsupportedExtensionError{Type: t}
	}
	return entry.length, nil
}

// IsMintExtension reports whether t lives on mints rather than token accounts.
func IsMintExtension(t ExtensionType) bool {
	return catalog[t].mintSide
}

// MintLen returns the account size of a mint carrying the given extensions.
// Repeated types are counted once and order does not matter.
func MintLen(types []ExtensionType) (uint64, error) {
	return accountLen(MintSize, types)
}

// AccountLen returns the account size of a token account carrying the given
// extensions.
func AccountLen(types []ExtensionType) (uint64, error) {
	return accountLen(AccountSize, types)
}

func accountLen(baseSize int, types []ExtensionType) (uint64, error) {
	if len(types) == 0 {
		return uint64(baseSize), nil
	}

	seen := make(map[ExtensionType]struct{}, len(types))
	tlvLen := 0
	for _, t := range types {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		length, err := ExtensionLen(t)
		if err != nil {
			return 0, err
		}
		tlvLen += ExtensionTypeSize + ExtensionLengthSize + length
	}

	size := AccountSize + AccountTypeSize + tlvLen
	if size == MultisigSize {
		size += ExtensionTypeSize
	}
	return uint64(size), nil
}

// ExtensionConfig is the creation time configuration of one mint extension.
// The set of variants is closed: MintCloseAuthorityExtension and
// TransferFeeConfigExtension.
type ExtensionConfig interface {
	Type() ExtensionType
	isExtensionConfig()
}

// MintCloseAuthorityExtension lets CloseAuthority close the mint once its
// supply is zero.
type MintCloseAuthorityExtension struct {
	CloseAuthority *solana.PublicKey
}

func (MintCloseAuthorityExtension) Type() ExtensionType { return ExtensionMintCloseAuthority }
func (MintCloseAuthorityExtension) isExtensionConfig()  {}

// TransferFeeConfigExtension charges BasisPoints on every transfer, capped
// at MaximumFee.
type TransferFeeConfigExtension struct {
	ConfigAuthority   *solana.PublicKey
	WithdrawAuthority *solana.PublicKey
	BasisPoints       uint16
	MaximumFee        uint64
}

func (TransferFeeConfigExtension) Type() ExtensionType { return ExtensionTransferFeeConfig }
func (TransferFeeConfigExtension) isExtensionConfig()  {}

func (e TransferFeeConfigExtension) Validate() error {
	if e.BasisPoints > MaxFeeBasisPoints {
		return errors.Wrapf(ErrInvalidBasisPoints, "got %d", e.BasisPoints)
	}
	return nil
}

// ExtensionTypes maps configs to their tags. Nil entries are rejected.
func ExtensionTypes(exts []ExtensionConfig) ([]ExtensionType, error) {
	types := make([]ExtensionType, 0, len(exts))
	for _, ext := range exts {
		t, err := extensionTypeOf(ext)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// ValidateExtensions rejects nil entries, repeated variants and invalid
// parameters.
func ValidateExtensions(exts []ExtensionConfig) error {
	seen := make(map[ExtensionType]struct{}, len(exts))
	for _, ext := range exts {
		t, err := extensionTypeOf(ext)
		if err != nil {
			return err
		}
		if fee, ok := AsTransferFeeConfig(ext); ok {
			if err := fee.Validate(); err != nil {
				return err
			}
		}
		if _, dup := seen[t]; dup {
			return &DuplicateExtensionError{Type: t}
		}
		seen[t] = struct{}{}
	}
	return nil
}

// AsTransferFeeConfig unwraps either form of the transfer fee variant.
func AsTransferFeeConfig(ext ExtensionConfig) (TransferFeeConfigExtension, bool) {
	switch e := ext.(type) {
	case TransferFeeConfigExtension:
		return e, true
	case *TransferFeeConfigExtension:
		if e != nil {
			return *e, true
		}
	}
	return TransferFeeConfigExtension{}, false
}

// AsMintCloseAuthority unwraps either form of the close authority variant.
func AsMintCloseAuthority(ext ExtensionConfig) (MintCloseAuthorityExtension, bool) {
	switch e := ext.(type) {
	case MintCloseAuthorityExtension:
		return e, true
	case *MintCloseAuthorityExtension:
		if e != nil {
			return *e, true
		}
	}
	return MintCloseAuthorityExtension{}, false
}

func extensionTypeOf(ext ExtensionConfig) (ExtensionType, error) {
	switch e := ext.(type) {
	case MintCloseAuthorityExtension:
		return e.Type(), nil
	case *MintCloseAuthorityExtension:
		if e != nil {
			return ExtensionMintCloseAuthority, nil
		}
		return 0, &UnsupportedExtensionError{Type: ExtensionMintCloseAuthority}
	case TransferFeeConfigExtension:
		return e.Type(), nil
	case *TransferFeeConfigExtension:
		if e != nil {
			return ExtensionTransferFeeConfig, nil
		}
		return 0, &UnsupportedExtensionError{Type: ExtensionTransferFeeConfig}
	default:
		return 0, &UnsupportedExtensionError{Type: ExtensionUninitialized}
	}
}
