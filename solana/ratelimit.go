package solana

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/time/rate"
)

// Node is the part of *rpc.Client a RateLimitedClient forwards to.
type Node interface {
	RPC
	MultipleAccountFetcher
	RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64, commitment rpc.CommitmentType) (solana.Signature, error)
}

var _ Node = (*rpc.Client)(nil)

// RateLimitedClient throttles every call to the wrapped client. When a
// commitment is set it replaces the one each call carries, so clients built
// on different RateLimitedClients read at their own level.
type RateLimitedClient struct {
	client     *rpc.Client
	node       Node
	limiter    *rate.Limiter
	commitment rpc.CommitmentType
}

// NewRateLimitedClient wraps client with a limiter allowing
// requestsPerSecond calls per second. A non-positive rate disables limiting.
func NewRateLimitedClient(client *rpc.Client, requestsPerSecond float64) *RateLimitedClient {
	c := NewRateLimitedNode(client, requestsPerSecond)
	c.client = client
	return c
}

// NewRateLimitedNode is NewRateLimitedClient for any Node.
func NewRateLimitedNode(node Node, requestsPerSecond float64) *RateLimitedClient {
	limit := rate.Inf
	burst := 1
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
		burst = int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &RateLimitedClient{
		node:    node,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// WithCommitment pins every read and preflight of c to commitment.
func (c *RateLimitedClient) WithCommitment(commitment rpc.CommitmentType) *RateLimitedClient {
	c.commitment = commitment
	return c
}

// Commitment returns the pinned commitment, or DefaultCommitment when none
// is set.
func (c *RateLimitedClient) Commitment() rpc.CommitmentType {
	return c.level(DefaultCommitment)
}

// Client returns the underlying RPC client, nil when built from a Node.
func (c *RateLimitedClient) Client() *rpc.Client {
	return c.client
}

func (c *RateLimitedClient) level(commitment rpc.CommitmentType) rpc.CommitmentType {
	if c.commitment != "" {
		return c.commitment
	}
	return commitment
}

func (c *RateLimitedClient) GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if c.commitment != "" {
		o := rpc.GetAccountInfoOpts{}
		if opts != nil {
			o = *opts
		}
		o.Commitment = c.commitment
		opts = &o
	}
	return c.node.GetAccountInfoWithOpts(ctx, account, opts)
}

func (c *RateLimitedClient) GetMultipleAccountsWithOpts(ctx context.Context, accounts []solana.PublicKey, opts *rpc.GetMultipleAccountsOpts) (*rpc.GetMultipleAccountsResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if c.commitment != "" {
		o := rpc.GetMultipleAccountsOpts{}
		if opts != nil {
			o = *opts
		}
		o.Commitment = c.commitment
		opts = &o
	}
	return c.node.GetMultipleAccountsWithOpts(ctx, accounts, opts)
}

func (c *RateLimitedClient) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64, commitment rpc.CommitmentType) (uint64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	return c.node.GetMinimumBalanceForRentExemption(ctx, dataSize, c.level(commitment))
}

func (c *RateLimitedClient) GetProgramAccountsWithOpts(ctx context.Context, program solana.PublicKey, opts *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if c.commitment != "" {
		o := rpc.GetProgramAccountsOpts{}
		if opts != nil {
			o = *opts
		}
		o.Commitment = c.commitment
		opts = &o
	}
	return c.node.GetProgramAccountsWithOpts(ctx, program, opts)
}

func (c *RateLimitedClient) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.node.GetLatestBlockhash(ctx, c.level(commitment))
}

func (c *RateLimitedClient) GetEpochInfo(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetEpochInfoResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.node.GetEpochInfo(ctx, c.level(commitment))
}

func (c *RateLimitedClient) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return solana.Signature{}, err
	}
	opts.PreflightCommitment = c.level(opts.PreflightCommitment)
	return c.node.SendTransactionWithOpts(ctx, tx, opts)
}

func (c *RateLimitedClient) GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.node.GetSignatureStatuses(ctx, searchTransactionHistory, signatures...)
}

// RequestAirdrop asks a devnet or local validator faucet for lamports.
func (c *RateLimitedClient) RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64) (solana.Signature, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return solana.Signature{}, err
	}
	return c.node.RequestAirdrop(ctx, account, lamports, c.level(DefaultCommitment))
}
