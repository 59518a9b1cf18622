package token2022

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrMissingFeeConfig is returned when a fee-checked operation targets a
	// mint without the TransferFeeConfig extension.
	ErrMissingFeeConfig = errors.New("token2022: mint has no transfer fee config")
	// ErrMissingCloseAuthority is returned when closing a mint that cannot be closed.
	ErrMissingCloseAuthority = errors.New("token2022: mint has no close authority")
	// ErrInvalidBasisPoints is returned for fee rates above 100%.
	ErrInvalidBasisPoints = errors.New("token2022: basis points exceed 10000")
	// ErrAccountNotFound is returned when an account the operation reads does
	// not exist.
	ErrAccountNotFound = errors.New("token2022: account not found")
	// ErrInvalidAccountData is returned when raw account bytes do not match
	// the expected layout.
	ErrInvalidAccountData = errors.New("token2022: invalid account data")
	// ErrInvalidInstruction is returned when instruction data cannot be decoded.
	ErrInvalidInstruction = errors.New("token2022: invalid instruction data")
	// ErrTooManySources is returned when more source accounts are supplied
	// than a single instruction can address.
	ErrTooManySources = errors.New("token2022: too many source accounts")
	// ErrTooManySigners is returned when more than MaxSigners multisig signers are supplied.
	ErrTooManySigners = errors.New("token2022: too many signers")
)

// DuplicateExtensionError is returned when one extension variant is listed
// more than once for the same mint.
type DuplicateExtensionError struct {
	Type ExtensionType
}

func (e *DuplicateExtensionError) Error() string {
	return fmt.Sprintf("token2022: duplicate extension %s", e.Type)
}

// UnsupportedExtensionError is returned for extension configs this library
// cannot size or initialize.
type UnsupportedExtensionError struct {
	Type ExtensionType
}

func (e *UnsupportedExtensionError) Error() string {
	return fmt.Sprintf("token2022: unsupported extension %s", e.Type)
}
