package token2022

import (
	"github.com/gagliardetto/solana-go"
)

const (
	// MintSize is the length of a mint without extensions.
	MintSize = 82
	// AccountSize is the length of a token account without extensions. Mints
	// carrying extensions are padded up to this length before the account
	// type byte so the two layouts can never be confused.
	AccountSize = 165
	// MultisigSize is the length of a multisig account.
	MultisigSize = 355

	AccountTypeSize     = 1
	ExtensionTypeSize   = 2
	ExtensionLengthSize = 2

	// MaxFeeBasisPoints is 100%.
	MaxFeeBasisPoints = 10_000

	// MaxSigners is the upper bound on multisig signers.
	MaxSigners = 11
)

// AccountType is the byte stored right after the base account layout once
// extensions are present.
type AccountType uint8

const (
	AccountTypeUninitialized AccountType = 0
	AccountTypeMint          AccountType = 1
	AccountTypeAccount       AccountType = 2
)

// Programs holds the program addresses instructions are built against.
// Builders never fall back to package level program IDs.
type Programs struct {
	Token           solana.PublicKey // Token-2022 program
	AssociatedToken solana.PublicKey // associated token account program
}

// DefaultPrograms returns the mainnet Token-2022 and ATA program addresses.
func DefaultPrograms() Programs {
	return Programs{
		Token:           solana.Token2022ProgramID,
		AssociatedToken: solana.SPLAssociatedTokenAccountProgramID,
	}
}

// TransferFee represents the transfer fee configuration for a specific epoch
type TransferFee struct {
	Epoch       uint64 // Epoch when this fee configuration is active
	MaximumFee  uint64 // Maximum fee amount in token units
	BasisPoints uint16 // Fee rate in basis points (1/10000)
}

// Fee returns the fee charged on amount under this schedule.
func (f TransferFee) Fee(amount uint64) uint64 {
	return CalculateFee(f.BasisPoints, f.MaximumFee, amount)
}

// TransferFeeConfig represents the complete transfer fee configuration for a token
type TransferFeeConfig struct {
	TransferFeeConfigAuthority *solana.PublicKey // Authority that can modify transfer fee configuration
	WithdrawWithheldAuthority  *solana.PublicKey // Authority that can withdraw withheld fees
	WithheldAmount             uint64            // Fees harvested into the mint, pending withdrawal
	OlderTransferFee           TransferFee       // Previous epoch's transfer fee configuration
	NewerTransferFee           TransferFee       // Current/next epoch's transfer fee configuration
}

// FeeForEpoch picks the older schedule while currentEpoch is before the newer
// schedule's activation epoch, the newer one otherwise.
func (c *TransferFeeConfig) FeeForEpoch(currentEpoch uint64) TransferFee {
	if c == nil {
		return TransferFee{}
	}
	if currentEpoch < c.NewerTransferFee.Epoch {
		return c.OlderTransferFee
	}
	return c.NewerTransferFee
}

// TransferFeeAmount is the account side of the transfer fee extension.
type TransferFeeAmount struct {
	WithheldAmount uint64
}

// MintCloseAuthority is the decoded mint close authority extension.
type MintCloseAuthority struct {
	CloseAuthority *solana.PublicKey
}
