package solana

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"

	"github.com/captainenkay0712/token-2022-library/solana/token2022"
)

func GetLatestBlockhash(ctx context.Context, rpcClient ChainState) (solana.Hash, error) {
	recent, err := rpcClient.GetLatestBlockhash(ctx, DefaultCommitment)
	if err != nil {
		return solana.Hash{}, err
	}
	return recent.Value.Blockhash, nil
}

// MintAccountsFilter selects the token accounts of mint. Token accounts store
// their mint in the first 32 bytes. No data size filter is set since accounts
// carrying extensions are longer than the base layout.
func MintAccountsFilter(mint solana.PublicKey) *rpc.GetProgramAccountsOpts {
	return &rpc.GetProgramAccountsOpts{
		Commitment: DefaultCommitment,
		Encoding:   solana.EncodingBase64,
		Filters: []rpc.RPCFilter{
			{
				Memcmp: &rpc.RPCFilterMemcmp{
					Offset: 0,
					Bytes:  mint[:],
				},
			},
		},
	}
}

// GetAccountInfo returns token2022.ErrAccountNotFound when the account does
// not exist.
func GetAccountInfo(ctx context.Context, rpcClient AccountFetcher, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	out, err := rpcClient.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{Commitment: DefaultCommitment})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, errors.Wrap(token2022.ErrAccountNotFound, account.String())
	}
	if err != nil {
		return nil, err
	}
	if out == nil || out.Value == nil {
		return nil, errors.Wrap(token2022.ErrAccountNotFound, account.String())
	}
	return out, nil
}

func GetMultipleAccountInfo(ctx context.Context, rpcClient MultipleAccountFetcher, accounts []solana.PublicKey) (*rpc.GetMultipleAccountsResult, error) {
	return rpcClient.GetMultipleAccountsWithOpts(ctx, accounts, &rpc.GetMultipleAccountsOpts{Commitment: DefaultCommitment, Encoding: solana.EncodingBase64})
}

func GetCurrentEpoch(ctx context.Context, rpcClient ChainState) (uint64, error) {
	epochInfo, err := rpcClient.GetEpochInfo(ctx, DefaultCommitment)
	if err != nil {
		return 0, err
	}
	return epochInfo.Epoch, nil
}

// GetMinimumBalanceForRentExemption asks the runtime for the rent-exempt
// balance of size bytes.
func GetMinimumBalanceForRentExemption(ctx context.Context, rpcClient RentSource, size uint64) (uint64, error) {
	lamports, err := rpcClient.GetMinimumBalanceForRentExemption(ctx, size, DefaultCommitment)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to get rent exemption for %d bytes", size)
	}
	return lamports, nil
}
