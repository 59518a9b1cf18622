package transferfee

import (
	"context"
	"iter"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/sirupsen/logrus"

	solanago "github.com/captainenkay0712/token-2022-library/solana"
	"github.com/captainenkay0712/token-2022-library/solana/token2022"
)

// DefaultBatchSize is the number of source accounts put in one harvest or
// withdraw transaction. It keeps the transaction under the packet size.
const DefaultBatchSize = 20

// TransferFee moves tokens of fee-bearing mints and settles the fees they
// accumulate.
type TransferFee struct {
	rpcClient solanago.RPC
	programs  token2022.Programs
	rounding  token2022.Rounding
	batchSize int
	encoding  solana.EncodingType
	log       *logrus.Entry
}

func NewTransferFee(
	rpcClient solanago.RPC,
	opts ...Option,
) *TransferFee {
	o := &TransferFee{
		rpcClient: rpcClient,
		programs:  token2022.DefaultPrograms(),
		rounding:  token2022.RoundUp,
		batchSize: DefaultBatchSize,
		encoding:  solana.EncodingBase64,
		log:       logrus.StandardLogger().WithField("type", "transferfee"),
	}
	for _, fn := range opts {
		fn(o)
	}
	return o
}

type Option func(*TransferFee)

// WithPrograms overrides the Token-2022 and ATA program addresses.
func WithPrograms(programs token2022.Programs) Option {
	return func(m *TransferFee) {
		m.programs = programs
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(m *TransferFee) {
		m.log = log
	}
}

// WithFeeRounding sets how embedded fees are rounded. The default,
// token2022.RoundUp, matches what the program charges on-chain; with
// token2022.RoundDown a transfer whose amount*bps is not a multiple of 10000
// is rejected.
func WithFeeRounding(rounding token2022.Rounding) Option {
	return func(m *TransferFee) {
		m.rounding = rounding
	}
}

// WithBatchSize sets how many source accounts go in one transaction.
func WithBatchSize(size int) Option {
	return func(m *TransferFee) {
		if size > 0 && size <= token2022.MaxSourcesPerInstruction {
			m.batchSize = size
		}
	}
}

// WithDiscoveryEncoding sets the account encoding withheld-fee scans request,
// solana.EncodingBase64 or solana.EncodingJSONParsed.
func WithDiscoveryEncoding(encoding solana.EncodingType) Option {
	return func(m *TransferFee) {
		m.encoding = encoding
	}
}

// Programs returns the program addresses instructions are built against.
func (m *TransferFee) Programs() token2022.Programs {
	return m.programs
}

func (m *TransferFee) Rounding() token2022.Rounding {
	return m.rounding
}

// GetMint fetches and decodes a mint, extensions included.
func (m *TransferFee) GetMint(ctx context.Context, mint solana.PublicKey) (*solanago.Token, error) {
	return solanago.GetMint(ctx, m.rpcClient, m.programs.Token, mint)
}

// CheckFee quotes the fee a transfer of amount pays at the current epoch.
//
// Example:
//
// quote, _ := m.CheckFee(ctx, mint, 1_000_000)
//
// fmt.Println(quote.UIFee(), quote.UINetAmount())
func (m *TransferFee) CheckFee(
	ctx context.Context,
	mint solana.PublicKey,
	amount uint64,
) (*FeeQuote, error) {
	mintState, err := m.GetMint(ctx, mint)
	if err != nil {
		return nil, err
	}
	epoch, err := solanago.GetCurrentEpoch(ctx, m.rpcClient)
	if err != nil {
		return nil, err
	}
	return quote(mintState.Mint, mint, amount, &epoch, m.rounding)
}

// TransferInstruction generates the instructions that send amount of mint
// from owner's associated token account to destinationOwner's, creating the
// destination account when it is missing.
func TransferInstruction(
	ctx context.Context,
	rpcClient solanago.AccountFetcher,
	programs token2022.Programs,
	payer solana.PublicKey,
	owner solana.PublicKey,
	destinationOwner solana.PublicKey,
	mint solana.PublicKey,
	mintState *token2022.Mint,
	amount uint64,
	epoch *uint64,
	rounding token2022.Rounding,
) ([]solana.Instruction, uint64, error) {
	source, err := solanago.FindAssociatedTokenAddress(programs, owner, mint)
	if err != nil {
		return nil, 0, err
	}

	var instructions []solana.Instruction
	destination, err := solanago.PrepareTokenATA(ctx, rpcClient, programs, destinationOwner, mint, payer, &instructions)
	if err != nil {
		return nil, 0, err
	}

	ix, fee, err := TransferCheckedWithFeeInstruction(programs, mintState, TransferParams{
		Source:      source,
		Mint:        mint,
		Destination: destination,
		Owner:       owner,
		Amount:      amount,
		Decimals:    mintState.Decimals,
		Epoch:       epoch,
		Rounding:    rounding,
	})
	if err != nil {
		return nil, 0, err
	}
	return append(instructions, ix), fee, nil
}

// Transfer sends amount of mint from owner to destinationOwner with the fee
// the mint charges at the current epoch.
// It depends on the TransferInstruction function.
// This function is blocking and will wait for on-chain confirmation before returning.
//
// Example:
//
// sig, fee, _ := m.Transfer(
//
//	ctx,
//	wsClient,
//	payer, // payer account
//	owner, // sender wallet
//	mint, // fee-bearing mint
//	receiver.PublicKey(), // receiving wallet
//	1_000_000, // raw amount
//
// )
func (m *TransferFee) Transfer(
	ctx context.Context,
	wsClient *ws.Client,
	payer *solana.Wallet,
	owner *solana.Wallet,
	mint solana.PublicKey,
	destinationOwner solana.PublicKey,
	amount uint64,
) (string, uint64, error) {
	log := m.log.WithFields(logrus.Fields{
		"method": "Transfer",
		"mint":   mint.String(),
		"amount": amount,
	})

	mintState, err := m.GetMint(ctx, mint)
	if err != nil {
		return "", 0, err
	}

	epoch, err := solanago.GetCurrentEpoch(ctx, m.rpcClient)
	if err != nil {
		return "", 0, err
	}

	instructions, fee, err := TransferInstruction(ctx,
		m.rpcClient,
		m.programs,
		payer.PublicKey(),
		owner.PublicKey(),
		destinationOwner,
		mint,
		mintState.Mint,
		amount,
		&epoch,
		m.rounding,
	)
	if err != nil {
		return "", 0, err
	}

	sig, err := solanago.SendTransaction(ctx,
		m.rpcClient,
		wsClient,
		solanago.MergeInstructions(m.programs, instructions),
		payer.PublicKey(),
		solanago.KeyGetter(payer.PrivateKey, owner.PrivateKey),
	)
	if err != nil {
		log.WithError(err).Warn("failure transferring")
		return "", 0, err
	}

	log.WithFields(logrus.Fields{
		"signature": sig.String(),
		"fee":       fee,
	}).Info("transferred")
	return sig.String(), fee, nil
}

// Harvest moves the withheld fees of sources into the mint. An empty sources
// list sends nothing and returns an empty signature.
// This function is blocking and will wait for on-chain confirmation before returning.
func (m *TransferFee) Harvest(
	ctx context.Context,
	wsClient *ws.Client,
	payer *solana.Wallet,
	mint solana.PublicKey,
	sources []solana.PublicKey,
) (string, error) {
	ix, ok := HarvestWithheldTokensToMintInstruction(m.programs, mint, sources)
	if !ok {
		m.log.WithFields(logrus.Fields{
			"method": "Harvest",
			"mint":   mint.String(),
		}).Debug("nothing to harvest")
		return "", nil
	}
	return m.send(ctx, wsClient, "Harvest", mint, []solana.Instruction{ix}, payer, len(sources))
}

// HarvestAll finds every account of mint holding withheld fees and harvests
// them into the mint, one transaction per batch of accounts.
// It depends on the FindWithheldAccounts function.
// This function is blocking and will wait for on-chain confirmation before returning.
//
// Example:
//
// sigs, _ := m.HarvestAll(ctx, wsClient, payer, mint)
//
// sig, _ := m.WithdrawFromMint(ctx, wsClient, payer, withdrawAuthority, mint, treasury.PublicKey())
func (m *TransferFee) HarvestAll(
	ctx context.Context,
	wsClient *ws.Client,
	payer *solana.Wallet,
	mint solana.PublicKey,
) ([]string, error) {
	sources, err := CollectWithheldAccounts(ctx, m.rpcClient, m.programs, mint, WithScanEncoding(m.encoding))
	if err != nil {
		return nil, err
	}

	var sigs []string
	for _, ix := range HarvestBatches(m.programs, mint, sources, m.batchSize) {
		sig, err := m.send(ctx, wsClient, "HarvestAll", mint, []solana.Instruction{ix}, payer, len(ix.Accounts())-1)
		if err != nil {
			return sigs, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

// WithdrawFromMint moves the mint's harvested fees to destinationOwner's
// associated token account, creating it when missing.
// This function is blocking and will wait for on-chain confirmation before returning.
func (m *TransferFee) WithdrawFromMint(
	ctx context.Context,
	wsClient *ws.Client,
	payer *solana.Wallet,
	withdrawAuthority *solana.Wallet,
	mint solana.PublicKey,
	destinationOwner solana.PublicKey,
) (string, error) {
	var instructions []solana.Instruction
	destination, err := solanago.PrepareTokenATA(ctx, m.rpcClient, m.programs, destinationOwner, mint, payer.PublicKey(), &instructions)
	if err != nil {
		return "", err
	}

	ix, err := WithdrawWithheldTokensFromMintInstruction(m.programs, mint, destination, withdrawAuthority.PublicKey())
	if err != nil {
		return "", err
	}
	instructions = append(instructions, ix)

	return m.send(ctx, wsClient, "WithdrawFromMint", mint, instructions, payer, 0, withdrawAuthority)
}

// WithdrawFromAccounts moves the withheld fees of sources straight to
// destinationOwner's associated token account, one transaction per batch of
// sources. The destination is created in the first transaction when missing.
// An empty sources list sends nothing.
// This function is blocking and will wait for on-chain confirmation before returning.
//
// Example:
//
// sigs, _ := m.WithdrawFromAccounts(ctx, wsClient, payer, withdrawAuthority, mint, treasury.PublicKey(), sources)
func (m *TransferFee) WithdrawFromAccounts(
	ctx context.Context,
	wsClient *ws.Client,
	payer *solana.Wallet,
	withdrawAuthority *solana.Wallet,
	mint solana.PublicKey,
	destinationOwner solana.PublicKey,
	sources []solana.PublicKey,
) ([]string, error) {
	if len(sources) == 0 {
		return nil, nil
	}

	var instructions []solana.Instruction
	destination, err := solanago.PrepareTokenATA(ctx, m.rpcClient, m.programs, destinationOwner, mint, payer.PublicKey(), &instructions)
	if err != nil {
		return nil, err
	}

	var sigs []string
	for _, batch := range chunk(sources, m.batchSize) {
		ix, err := WithdrawWithheldTokensFromAccountsInstruction(m.programs, mint, destination, withdrawAuthority.PublicKey(), batch)
		if err != nil {
			return sigs, err
		}

		sig, err := m.send(ctx, wsClient, "WithdrawFromAccounts", mint, append(instructions, ix), payer, len(batch), withdrawAuthority)
		if err != nil {
			return sigs, err
		}
		sigs = append(sigs, sig)
		instructions = nil
	}
	return sigs, nil
}

// FindWithheldAccounts lazily lists the accounts of mint holding withheld
// fees. See the package level FindWithheldAccounts.
func (m *TransferFee) FindWithheldAccounts(ctx context.Context, mint solana.PublicKey) iter.Seq2[solana.PublicKey, error] {
	return FindWithheldAccounts(ctx, m.rpcClient, m.programs, mint, WithScanEncoding(m.encoding))
}

func (m *TransferFee) send(
	ctx context.Context,
	wsClient *ws.Client,
	method string,
	mint solana.PublicKey,
	instructions []solana.Instruction,
	payer *solana.Wallet,
	sources int,
	signers ...*solana.Wallet,
) (string, error) {
	log := m.log.WithFields(logrus.Fields{
		"method":  method,
		"mint":    mint.String(),
		"sources": sources,
	})

	keys := []solana.PrivateKey{payer.PrivateKey}
	for _, signer := range signers {
		keys = append(keys, signer.PrivateKey)
	}

	sig, err := solanago.SendTransaction(ctx,
		m.rpcClient,
		wsClient,
		solanago.MergeInstructions(m.programs, instructions),
		payer.PublicKey(),
		solanago.KeyGetter(keys...),
	)
	if err != nil {
		log.WithError(err).Warn("failure sending transaction")
		return "", err
	}

	log.WithField("signature", sig.String()).Info("fees settled")
	return sig.String(), nil
}
