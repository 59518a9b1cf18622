package transferfee

import (
	"bytes"
	"context"
	"strconv"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	solanago "github.com/captainenkay0712/token-2022-library/solana"
	"github.com/captainenkay0712/token-2022-library/solana/token2022"
)

var (
	errFeeMismatch       = errors.New("ledger: fee mismatch")
	errInsufficientFunds = errors.New("ledger: insufficient funds")
	errBadAuthority      = errors.New("ledger: invalid authority")
)

// ledger is an in-memory Token-2022 program for a single fee-bearing mint.
// It executes the instructions this package emits, charging fees the way the
// program does, and serves the reads the clients make.
type ledger struct {
	programs    token2022.Programs
	mintAddress solana.PublicKey
	mint        *token2022.Mint
	accounts    map[solana.PublicKey]*token2022.Account
	epoch       uint64

	scanErr   error
	scans     int
	encodings []solana.EncodingType
	sent      []*solana.Transaction
}

var _ solanago.RPC = (*ledger)(nil)

func newLedger(t *testing.T, basisPoints uint16, maximumFee uint64, withdrawAuthority solana.PublicKey) *ledger {
	t.Helper()
	authority := solana.NewWallet().PublicKey()
	return &ledger{
		programs:    token2022.DefaultPrograms(),
		mintAddress: solana.NewWallet().PublicKey(),
		mint: &token2022.Mint{
			MintAuthority: &authority,
			Decimals:      6,
			IsInitialized: true,
			Extensions: token2022.Extensions{
				Types: []token2022.ExtensionType{token2022.ExtensionTransferFeeConfig},
				TransferFeeConfig: &token2022.TransferFeeConfig{
					WithdrawWithheldAuthority: &withdrawAuthority,
					OlderTransferFee:          token2022.TransferFee{BasisPoints: basisPoints, MaximumFee: maximumFee},
					NewerTransferFee:          token2022.TransferFee{BasisPoints: basisPoints, MaximumFee: maximumFee},
				},
			},
		},
		accounts: make(map[solana.PublicKey]*token2022.Account),
	}
}

func (l *ledger) pool() uint64 {
	return l.mint.Extensions.TransferFeeConfig.WithheldAmount
}

// open creates owner's associated token account holding amount.
func (l *ledger) open(t *testing.T, owner solana.PublicKey, amount uint64) solana.PublicKey {
	t.Helper()
	address, err := solanago.FindAssociatedTokenAddress(l.programs, owner, l.mintAddress)
	require.NoError(t, err)
	l.accounts[address] = newLedgerAccount(l.mintAddress, owner, amount)
	return address
}

func newLedgerAccount(mint, owner solana.PublicKey, amount uint64) *token2022.Account {
	return &token2022.Account{
		Mint:   mint,
		Owner:  owner,
		Amount: amount,
		State:  token2022.AccountStateInitialized,
		Extensions: token2022.Extensions{
			Types:             []token2022.ExtensionType{token2022.ExtensionTransferFeeAmount},
			TransferFeeAmount: &token2022.TransferFeeAmount{},
		},
	}
}

func (l *ledger) account(address solana.PublicKey) (*token2022.Account, error) {
	acc, ok := l.accounts[address]
	if !ok {
		return nil, errors.Wrap(token2022.ErrAccountNotFound, address.String())
	}
	return acc, nil
}

func (l *ledger) withheld(address solana.PublicKey) uint64 {
	return l.accounts[address].WithheldAmount()
}

// execute runs instructions all-or-nothing.
func (l *ledger) execute(instructions ...solana.Instruction) error {
	accounts := make(map[solana.PublicKey]*token2022.Account, len(l.accounts))
	for k, v := range l.accounts {
		c := *v
		amount := *v.Extensions.TransferFeeAmount
		c.Extensions.TransferFeeAmount = &amount
		accounts[k] = &c
	}
	pool := l.pool()

	for _, ix := range instructions {
		if err := l.apply(ix); err != nil {
			l.accounts = accounts
			l.mint.Extensions.TransferFeeConfig.WithheldAmount = pool
			return err
		}
	}
	return nil
}

func (l *ledger) apply(ix solana.Instruction) error {
	if ix.ProgramID().Equals(l.programs.AssociatedToken) {
		metas := ix.Accounts()
		if _, ok := l.accounts[metas[1].PublicKey]; !ok {
			l.accounts[metas[1].PublicKey] = newLedgerAccount(metas[3].PublicKey, metas[2].PublicKey, 0)
		}
		return nil
	}

	decoded, err := token2022.DecodeInstruction(l.programs.Token, ix)
	if err != nil {
		return err
	}
	metas := decoded.Accounts
	cfg := l.mint.Extensions.TransferFeeConfig

	switch d := decoded.Data.(type) {
	case *token2022.TransferCheckedWithFeeData:
		source, err := l.account(metas[0].PublicKey)
		if err != nil {
			return err
		}
		destination, err := l.account(metas[2].PublicKey)
		if err != nil {
			return err
		}
		if !metas[3].IsSigner || !metas[3].PublicKey.Equals(source.Owner) {
			return errBadAuthority
		}
		if d.Decimals != l.mint.Decimals {
			return errors.New("ledger: decimals mismatch")
		}
		schedule := cfg.FeeForEpoch(l.epoch)
		fee := token2022.CalculateFeeWithRounding(schedule.BasisPoints, schedule.MaximumFee, d.Amount, token2022.RoundUp)
		if fee != d.Fee {
			return errors.Wrapf(errFeeMismatch, "expected %d got %d", fee, d.Fee)
		}
		if source.Amount < d.Amount {
			return errInsufficientFunds
		}
		source.Amount -= d.Amount
		destination.Amount += d.Amount - fee
		destination.Extensions.TransferFeeAmount.WithheldAmount += fee

	case *token2022.HarvestWithheldTokensToMintData:
		for _, meta := range metas[1:] {
			source, err := l.account(meta.PublicKey)
			if err != nil {
				return err
			}
			cfg.WithheldAmount += source.WithheldAmount()
			source.Extensions.TransferFeeAmount.WithheldAmount = 0
		}

	case *token2022.WithdrawWithheldTokensFromMintData:
		if !metas[2].IsSigner || !metas[2].PublicKey.Equals(*cfg.WithdrawWithheldAuthority) {
			return errBadAuthority
		}
		destination, err := l.account(metas[1].PublicKey)
		if err != nil {
			return err
		}
		destination.Amount += cfg.WithheldAmount
		cfg.WithheldAmount = 0

	case *token2022.WithdrawWithheldTokensFromAccountsData:
		if !metas[2].IsSigner || !metas[2].PublicKey.Equals(*cfg.WithdrawWithheldAuthority) {
			return errBadAuthority
		}
		destination, err := l.account(metas[1].PublicKey)
		if err != nil {
			return err
		}
		for _, meta := range metas[len(metas)-int(d.NumTokenAccounts):] {
			source, err := l.account(meta.PublicKey)
			if err != nil {
				return err
			}
			destination.Amount += source.WithheldAmount()
			source.Extensions.TransferFeeAmount.WithheldAmount = 0
		}

	default:
		return errors.Errorf("ledger: unsupported instruction %T", decoded.Data)
	}
	return nil
}

func (l *ledger) GetAccountInfoWithOpts(_ context.Context, account solana.PublicKey, _ *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error) {
	var (
		data []byte
		err  error
	)
	switch acc, ok := l.accounts[account]; {
	case account.Equals(l.mintAddress):
		data, err = token2022.EncodeMint(l.mint)
	case ok:
		data, err = token2022.EncodeAccount(acc)
	default:
		return nil, rpc.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rpc.GetAccountInfoResult{Value: &rpc.Account{
		Owner: l.programs.Token,
		Data:  rpc.DataBytesOrJSONFromBytes(data),
	}}, nil
}

func (l *ledger) GetMinimumBalanceForRentExemption(_ context.Context, dataSize uint64, _ rpc.CommitmentType) (uint64, error) {
	return dataSize * 6_960, nil
}

func (l *ledger) GetProgramAccountsWithOpts(_ context.Context, program solana.PublicKey, opts *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error) {
	l.scans++
	var encoding solana.EncodingType
	if opts != nil {
		encoding = opts.Encoding
	}
	l.encodings = append(l.encodings, encoding)
	if l.scanErr != nil {
		return nil, l.scanErr
	}
	if !program.Equals(l.programs.Token) {
		return nil, nil
	}

	var out rpc.GetProgramAccountsResult
	for address, acc := range l.accounts {
		if !matches(opts, acc) {
			continue
		}
		data, err := accountData(acc, encoding)
		if err != nil {
			return nil, err
		}
		out = append(out, &rpc.KeyedAccount{
			Pubkey:  address,
			Account: &rpc.Account{Owner: l.programs.Token, Data: data},
		})
	}
	return out, nil
}

func matches(opts *rpc.GetProgramAccountsOpts, acc *token2022.Account) bool {
	if opts == nil {
		return true
	}
	for _, filter := range opts.Filters {
		if filter.Memcmp == nil {
			continue
		}
		if filter.Memcmp.Offset != 0 || !bytes.Equal(filter.Memcmp.Bytes, acc.Mint[:]) {
			return false
		}
	}
	return true
}

// accountData renders acc the way a node does for encoding.
func accountData(acc *token2022.Account, encoding solana.EncodingType) (*rpc.DataBytesOrJSON, error) {
	if encoding != solana.EncodingJSONParsed {
		raw, err := token2022.EncodeAccount(acc)
		if err != nil {
			return nil, err
		}
		return rpc.DataBytesOrJSONFromBytes(raw), nil
	}

	raw := []byte(`{"parsed":{"info":{"extensions":[{"extension":"transferFeeAmount","state":{"withheldAmount":` +
		strconv.FormatUint(acc.WithheldAmount(), 10) + `}}],"mint":"` + acc.Mint.String() + `","owner":"` + acc.Owner.String() +
		`","state":"initialized","tokenAmount":{"amount":"` + strconv.FormatUint(acc.Amount, 10) + `","decimals":6}},"type":"account"},"program":"spl-token-2022","space":182}`)
	data := new(rpc.DataBytesOrJSON)
	if err := data.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return data, nil
}

func (l *ledger) GetLatestBlockhash(context.Context, rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	return &rpc.GetLatestBlockhashResult{Value: &rpc.LatestBlockhashResult{Blockhash: solana.Hash{1}}}, nil
}

func (l *ledger) GetEpochInfo(context.Context, rpc.CommitmentType) (*rpc.GetEpochInfoResult, error) {
	return &rpc.GetEpochInfoResult{Epoch: l.epoch}, nil
}

func (l *ledger) SendTransactionWithOpts(_ context.Context, tx *solana.Transaction, _ rpc.TransactionOpts) (solana.Signature, error) {
	instructions := make([]solana.Instruction, 0, len(tx.Message.Instructions))
	for _, ci := range tx.Message.Instructions {
		programID, err := tx.Message.ResolveProgramIDIndex(ci.ProgramIDIndex)
		if err != nil {
			return solana.Signature{}, err
		}
		metas, err := ci.ResolveInstructionAccounts(&tx.Message)
		if err != nil {
			return solana.Signature{}, err
		}
		instructions = append(instructions, solana.NewInstruction(programID, metas, ci.Data))
	}
	if err := l.execute(instructions...); err != nil {
		return solana.Signature{}, err
	}
	l.sent = append(l.sent, tx)
	return tx.Signatures[0], nil
}

func (l *ledger) GetSignatureStatuses(context.Context, bool, ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{
		{ConfirmationStatus: rpc.ConfirmationStatusFinalized},
	}}, nil
}
