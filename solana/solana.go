package solana

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// DefaultCommitment is used for every read and for preflight. It is process
// wide; RateLimitedClient.WithCommitment pins a level per client instead.
var DefaultCommitment = rpc.CommitmentFinalized

// AccountFetcher reads a single account.
type AccountFetcher interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
}

// MultipleAccountFetcher reads several accounts in one call.
type MultipleAccountFetcher interface {
	GetMultipleAccountsWithOpts(ctx context.Context, accounts []solana.PublicKey, opts *rpc.GetMultipleAccountsOpts) (*rpc.GetMultipleAccountsResult, error)
}

// RentSource reports the runtime's rent-exempt minimum for a data size.
type RentSource interface {
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64, commitment rpc.CommitmentType) (uint64, error)
}

// AccountScanner lists the accounts owned by a program.
type AccountScanner interface {
	GetProgramAccountsWithOpts(ctx context.Context, program solana.PublicKey, opts *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error)
}

// ChainState exposes the cluster state transactions are built against.
type ChainState interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetEpochInfo(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetEpochInfoResult, error)
}

// TransactionSender submits transactions and reports their status.
type TransactionSender interface {
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// RPC is everything the clients need from a node. *rpc.Client and
// *RateLimitedClient both satisfy it.
type RPC interface {
	AccountFetcher
	RentSource
	AccountScanner
	ChainState
	TransactionSender
}

var (
	_ RPC = (*rpc.Client)(nil)
	_ RPC = (*RateLimitedClient)(nil)

	_ MultipleAccountFetcher = (*rpc.Client)(nil)
	_ MultipleAccountFetcher = (*RateLimitedClient)(nil)
)
