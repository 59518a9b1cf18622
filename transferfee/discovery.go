package transferfee

import (
	"context"
	"iter"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"

	solanago "github.com/captainenkay0712/token-2022-library/solana"
	"github.com/captainenkay0712/token-2022-library/solana/token2022"
)

// WithheldAccount is a token account of the mint holding withheld fees.
type WithheldAccount struct {
	Address        solana.PublicKey
	Owner          solana.PublicKey
	WithheldAmount uint64
}

// ScanOption adjusts the getProgramAccounts request behind a scan.
type ScanOption func(*rpc.GetProgramAccountsOpts)

// WithScanEncoding requests the accounts in encoding. With
// solana.EncodingJSONParsed the node decodes the accounts and the withheld
// amount is read from the parsed extensions.
func WithScanEncoding(encoding solana.EncodingType) ScanOption {
	return func(opts *rpc.GetProgramAccountsOpts) {
		if encoding != "" {
			opts.Encoding = encoding
		}
	}
}

// FindWithheldAccounts returns the token accounts of mint whose withheld
// amount is non-zero.
//
// Nothing is read until the sequence is ranged over. Every range performs a
// fresh scan, so ranging again after a harvest reflects the new state. The
// scan error, if any, is yielded once and ends the sequence; decode errors
// are yielded per account and the caller may keep going.
//
// Example:
//
//	for address, err := range FindWithheldAccounts(ctx, rpcClient, programs, mint) {
//		if err != nil {
//			return err
//		}
//		sources = append(sources, address)
//	}
func FindWithheldAccounts(
	ctx context.Context,
	rpcClient solanago.AccountScanner,
	programs token2022.Programs,
	mint solana.PublicKey,
	opts ...ScanOption,
) iter.Seq2[solana.PublicKey, error] {
	return func(yield func(solana.PublicKey, error) bool) {
		for account, err := range ScanWithheldAccounts(ctx, rpcClient, programs, mint, opts...) {
			var address solana.PublicKey
			if account != nil {
				address = account.Address
			}
			if !yield(address, err) {
				return
			}
		}
	}
}

// ScanWithheldAccounts is FindWithheldAccounts yielding the owner and the
// withheld amount along with each address.
func ScanWithheldAccounts(
	ctx context.Context,
	rpcClient solanago.AccountScanner,
	programs token2022.Programs,
	mint solana.PublicKey,
	opts ...ScanOption,
) iter.Seq2[*WithheldAccount, error] {
	return func(yield func(*WithheldAccount, error) bool) {
		filter := solanago.MintAccountsFilter(mint)
		for _, fn := range opts {
			fn(filter)
		}

		out, err := rpcClient.GetProgramAccountsWithOpts(ctx, programs.Token, filter)
		if err != nil {
			yield(nil, errors.Wrapf(err, "failed to scan token accounts of %s", mint))
			return
		}

		for _, keyed := range out {
			if keyed == nil || keyed.Account == nil {
				continue
			}
			account, err := decodeWithheld(keyed)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			if account.WithheldAmount == 0 {
				continue
			}
			if !yield(account, nil) {
				return
			}
		}
	}
}

// CollectWithheldAccounts drains FindWithheldAccounts, stopping at the first
// error.
func CollectWithheldAccounts(
	ctx context.Context,
	rpcClient solanago.AccountScanner,
	programs token2022.Programs,
	mint solana.PublicKey,
	opts ...ScanOption,
) ([]solana.PublicKey, error) {
	var addresses []solana.PublicKey
	for address, err := range FindWithheldAccounts(ctx, rpcClient, programs, mint, opts...) {
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, address)
	}
	return addresses, nil
}

func decodeWithheld(keyed *rpc.KeyedAccount) (*WithheldAccount, error) {
	data := keyed.Account.Data
	if data == nil {
		return nil, errors.Wrapf(token2022.ErrInvalidAccountData, "account %s has no data", keyed.Pubkey)
	}

	if raw := data.GetBinary(); len(raw) > 0 {
		account, err := token2022.DecodeAccount(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "account %s", keyed.Pubkey)
		}
		return &WithheldAccount{
			Address:        keyed.Pubkey,
			Owner:          account.Owner,
			WithheldAmount: account.WithheldAmount(),
		}, nil
	}

	// jsonParsed responses
	parsed, err := solanago.ParseTokenAccountJSON(data.GetRawJSON())
	if err != nil {
		return nil, errors.Wrapf(err, "account %s", keyed.Pubkey)
	}
	return &WithheldAccount{
		Address:        keyed.Pubkey,
		Owner:          parsed.Owner,
		WithheldAmount: parsed.WithheldAmount,
	}, nil
}
