package token2022lib

import (
	"context"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/captainenkay0712/token-2022-library/config"
	"github.com/captainenkay0712/token-2022-library/mint"
	solanago "github.com/captainenkay0712/token-2022-library/solana"
	"github.com/captainenkay0712/token-2022-library/transferfee"
)

// NewMintClient creates a new mint client.
//
// Example:
//
// mintClient := NewMintClient(rpcClient)
//
// mintClient.CreateMint(ctx, wsClient, payer, mintWallet, payer.PublicKey(), nil, 9, token2022.TransferFeeConfigExtension{BasisPoints: 100, MaximumFee: 5_000})
//
// mintClient.MintTo(ctx, wsClient, payer, payer, mintWallet.PublicKey(), user.PublicKey(), 1_000_000_000)
var NewMintClient = mint.NewMint

// NewTransferFeeClient creates a new transfer fee client.
//
// Example:
//
// feeClient := NewTransferFeeClient(rpcClient, transferfee.WithDiscoveryEncoding(solana.EncodingJSONParsed))
//
// feeClient.Transfer(ctx, wsClient, payer, owner, mint, receiver.PublicKey(), 1_000_000)
//
// feeClient.HarvestAll(ctx, wsClient, payer, mint)
var NewTransferFeeClient = transferfee.NewTransferFee

// Clients bundles the clients built from one configuration.
type Clients struct {
	RPC         *solanago.RateLimitedClient
	WS          *ws.Client // nil when no websocket endpoint is configured
	Mint        *mint.Mint
	TransferFee *transferfee.TransferFee
}

// New connects to the endpoints in cfg and builds both clients against the
// configured programs. The configured commitment is pinned on the returned
// RPC client; solanago.DefaultCommitment is left untouched.
//
// Example:
//
// cfg, _ := config.Load("token2022.yaml")
//
// clients, _ := New(ctx, cfg)
//
// defer clients.Close()
//
// clients.TransferFee.HarvestAll(ctx, clients.WS, payer, mint)
func New(ctx context.Context, cfg *config.Config) (*Clients, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	programs, err := cfg.Programs()
	if err != nil {
		return nil, err
	}

	rounding, err := cfg.Rounding()
	if err != nil {
		return nil, err
	}

	log := logrus.NewEntry(cfg.NewLogger())

	rpcClient := solanago.NewRateLimitedClient(rpc.New(cfg.RPCEndpoint), cfg.RequestsPerSecond).
		WithCommitment(cfg.CommitmentType())

	var wsClient *ws.Client
	if cfg.WSEndpoint != "" {
		wsClient, err = ws.Connect(ctx, cfg.WSEndpoint)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to connect to %s", cfg.WSEndpoint)
		}
	}

	log.WithFields(logrus.Fields{
		"rpc":           cfg.RPCEndpoint,
		"ws":            cfg.WSEndpoint,
		"token_program": programs.Token.String(),
		"commitment":    cfg.Commitment,
		"fee_rounding":  rounding.String(),
	}).Debug("clients ready")

	return &Clients{
		RPC: rpcClient,
		WS:  wsClient,
		Mint: NewMintClient(rpcClient,
			mint.WithPrograms(programs),
			mint.WithLogger(log.WithField("type", "mint")),
		),
		TransferFee: NewTransferFeeClient(rpcClient,
			transferfee.WithPrograms(programs),
			transferfee.WithLogger(log.WithField("type", "transferfee")),
			transferfee.WithFeeRounding(rounding),
			transferfee.WithDiscoveryEncoding(cfg.Encoding()),
		),
	}, nil
}

// Close closes the websocket connection, if any.
func (c *Clients) Close() {
	if c.WS != nil {
		c.WS.Close()
	}
}
