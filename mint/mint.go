package mint

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	solanago "github.com/captainenkay0712/token-2022-library/solana"
	"github.com/captainenkay0712/token-2022-library/solana/token2022"
)

// Mint creates, funds and closes Token-2022 mints.
type Mint struct {
	rpcClient solanago.RPC
	programs  token2022.Programs
	log       *logrus.Entry
}

func NewMint(
	rpcClient solanago.RPC,
	opts ...Option,
) *Mint {
	o := &Mint{
		rpcClient: rpcClient,
		programs:  token2022.DefaultPrograms(),
		log:       logrus.StandardLogger().WithField("type", "mint"),
	}
	for _, fn := range opts {
		fn(o)
	}
	return o
}

type Option func(*Mint)

// WithPrograms overrides the Token-2022 and ATA program addresses.
func WithPrograms(programs token2022.Programs) Option {
	return func(m *Mint) {
		m.programs = programs
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(m *Mint) {
		m.log = log
	}
}

// Programs returns the program addresses instructions are built against.
func (m *Mint) Programs() token2022.Programs {
	return m.programs
}

// GetMint fetches and decodes a mint, extensions included.
func (m *Mint) GetMint(ctx context.Context, mint solana.PublicKey) (*solanago.Token, error) {
	return solanago.GetMint(ctx, m.rpcClient, m.programs.Token, mint)
}

// CreateMint creates a mint carrying extensions in a single transaction.
// It depends on the CreateMintInstructions function.
// This function is blocking and will wait for on-chain confirmation before returning.
//
// Example:
//
// mint := solana.NewWallet()
//
// sig, _ := m.CreateMint(
//
//	ctx,
//	wsClient,
//	payer, // payer account
//	mint, // new mint account
//	payer.PublicKey(), // mint authority
//	nil, // no freeze authority
//	9, // decimals
//	token2022.MintCloseAuthorityExtension{CloseAuthority: &closer},
//	token2022.TransferFeeConfigExtension{WithdrawAuthority: &withdrawer, BasisPoints: 100, MaximumFee: 5_000},
//
// )
func (m *Mint) CreateMint(
	ctx context.Context,
	wsClient *ws.Client,
	payer *solana.Wallet,
	mint *solana.Wallet,
	mintAuthority solana.PublicKey,
	freezeAuthority *solana.PublicKey,
	decimals uint8,
	extensions ...token2022.ExtensionConfig,
) (string, error) {
	log := m.log.WithFields(logrus.Fields{
		"method": "CreateMint",
		"mint":   mint.PublicKey().String(),
	})

	space, err := MintSpace(extensions)
	if err != nil {
		return "", err
	}

	lamports, err := solanago.GetMinimumBalanceForRentExemption(ctx, m.rpcClient, space)
	if err != nil {
		return "", err
	}

	plan, err := CreateMintInstructions(m.programs, CreateMintParams{
		Payer:           payer.PublicKey(),
		Mint:            mint.PublicKey(),
		MintAuthority:   mintAuthority,
		FreezeAuthority: freezeAuthority,
		Decimals:        decimals,
		Extensions:      extensions,
	}, lamports)
	if err != nil {
		return "", err
	}

	log.WithFields(logrus.Fields{
		"space":      plan.Space,
		"lamports":   plan.Lamports,
		"extensions": len(extensions),
	}).Debug("creating mint")

	sig, err := solanago.SendTransaction(ctx,
		m.rpcClient,
		wsClient,
		plan.Instructions,
		payer.PublicKey(),
		solanago.KeyGetter(payer.PrivateKey, mint.PrivateKey),
	)
	if err != nil {
		log.WithError(err).Warn("failure creating mint")
		return "", err
	}

	log.WithField("signature", sig.String()).Info("mint created")
	return sig.String(), nil
}

// CloseMintInstruction generates the instruction that closes a mint and
// returns its rent to destination. The mint must carry the
// MintCloseAuthority extension naming closeAuthority, and its supply must be
// zero for the ledger to accept it.
func CloseMintInstruction(
	programs token2022.Programs,
	mintState *token2022.Mint,
	mint solana.PublicKey,
	destination solana.PublicKey,
	closeAuthority solana.PublicKey,
	signers ...solana.PublicKey,
) (solana.Instruction, error) {
	ext := mintState.Extensions.MintCloseAuthority
	if ext == nil || ext.CloseAuthority == nil {
		return nil, errors.Wrapf(token2022.ErrMissingCloseAuthority, "mint %s", mint)
	}
	return token2022.CloseAccountInstruction(programs.Token, mint, destination, closeAuthority, signers)
}

// CloseMint closes a mint whose supply is zero.
// It depends on the CloseMintInstruction function.
// This function is blocking and will wait for on-chain confirmation before returning.
func (m *Mint) CloseMint(
	ctx context.Context,
	wsClient *ws.Client,
	payer *solana.Wallet,
	closeAuthority *solana.Wallet,
	mint solana.PublicKey,
	destination solana.PublicKey,
) (string, error) {
	log := m.log.WithFields(logrus.Fields{
		"method": "CloseMint",
		"mint":   mint.String(),
	})

	mintState, err := m.GetMint(ctx, mint)
	if err != nil {
		return "", err
	}

	ix, err := CloseMintInstruction(m.programs, mintState.Mint, mint, destination, closeAuthority.PublicKey())
	if err != nil {
		return "", err
	}

	sig, err := solanago.SendTransaction(ctx,
		m.rpcClient,
		wsClient,
		[]solana.Instruction{ix},
		payer.PublicKey(),
		solanago.KeyGetter(payer.PrivateKey, closeAuthority.PrivateKey),
	)
	if err != nil {
		log.WithError(err).Warn("failure closing mint")
		return "", err
	}

	log.WithField("signature", sig.String()).Info("mint closed")
	return sig.String(), nil
}

// MintToInstruction generates the instructions that mint amount tokens to
// owner's associated token account, creating the account when missing.
func MintToInstruction(
	ctx context.Context,
	rpcClient solanago.AccountFetcher,
	programs token2022.Programs,
	payer solana.PublicKey,
	mint solana.PublicKey,
	mintState *token2022.Mint,
	mintAuthority solana.PublicKey,
	owner solana.PublicKey,
	amount uint64,
) ([]solana.Instruction, solana.PublicKey, error) {
	var instructions []solana.Instruction

	destination, err := solanago.PrepareTokenATA(ctx, rpcClient, programs, owner, mint, payer, &instructions)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}

	ix, err := token2022.MintToCheckedInstruction(programs.Token, mint, destination, mintAuthority, nil, amount, mintState.Decimals)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	return append(instructions, ix), destination, nil
}

// MintTo mints amount tokens to owner's associated token account.
// It depends on the MintToInstruction function.
// This function is blocking and will wait for on-chain confirmation before returning.
//
// Example:
//
// sig, _ := m.MintTo(
//
//	ctx,
//	wsClient,
//	payer, // payer account
//	payer, // mint authority
//	mint.PublicKey(), // mint address
//	user.PublicKey(), // receiving wallet
//	1_000_000_000, // raw amount
//
// )
func (m *Mint) MintTo(
	ctx context.Context,
	wsClient *ws.Client,
	payer *solana.Wallet,
	mintAuthority *solana.Wallet,
	mint solana.PublicKey,
	owner solana.PublicKey,
	amount uint64,
) (string, error) {
	log := m.log.WithFields(logrus.Fields{
		"method": "MintTo",
		"mint":   mint.String(),
		"owner":  owner.String(),
		"amount": amount,
	})

	mintState, err := m.GetMint(ctx, mint)
	if err != nil {
		return "", err
	}

	instructions, destination, err := MintToInstruction(ctx, m.rpcClient, m.programs, payer.PublicKey(), mint, mintState.Mint, mintAuthority.PublicKey(), owner, amount)
	if err != nil {
		return "", err
	}

	sig, err := solanago.SendTransaction(ctx,
		m.rpcClient,
		wsClient,
		solanago.MergeInstructions(m.programs, instructions),
		payer.PublicKey(),
		solanago.KeyGetter(payer.PrivateKey, mintAuthority.PrivateKey),
	)
	if err != nil {
		log.WithError(err).Warn("failure minting")
		return "", err
	}

	log.WithFields(logrus.Fields{
		"signature":   sig.String(),
		"destination": destination.String(),
	}).Info("minted")
	return sig.String(), nil
}

// GetOrCreateAssociatedTokenAccount returns owner's associated token account
// for mint, creating it first when it does not exist.
func (m *Mint) GetOrCreateAssociatedTokenAccount(
	ctx context.Context,
	wsClient *ws.Client,
	payer *solana.Wallet,
	mint solana.PublicKey,
	owner solana.PublicKey,
) (solana.PublicKey, error) {
	var instructions []solana.Instruction
	ata, err := solanago.PrepareTokenATA(ctx, m.rpcClient, m.programs, owner, mint, payer.PublicKey(), &instructions)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if len(instructions) == 0 {
		return ata, nil
	}

	sig, err := solanago.SendTransaction(ctx,
		m.rpcClient,
		wsClient,
		instructions,
		payer.PublicKey(),
		solanago.KeyGetter(payer.PrivateKey),
	)
	if err != nil {
		return solana.PublicKey{}, err
	}

	m.log.WithFields(logrus.Fields{
		"method":    "GetOrCreateAssociatedTokenAccount",
		"account":   ata.String(),
		"signature": sig.String(),
	}).Debug("created associated token account")
	return ata, nil
}
