package solana

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"github.com/captainenkay0712/token-2022-library/solana/token2022"
)

// Account is a decoded token account together with its address.
type Account struct {
	*token2022.Account
	Address solana.PublicKey
}

type AccountLayout struct {
}

func (l *AccountLayout) Decode(data []byte) (*Account, error) {
	account, err := token2022.DecodeAccount(data)
	if err != nil {
		return nil, err
	}
	return &Account{Account: account}, nil
}

// GetTokenAccount fetches and decodes a token account.
func GetTokenAccount(ctx context.Context, rpcClient AccountFetcher, address solana.PublicKey) (*Account, error) {
	out, err := GetAccountInfo(ctx, rpcClient, address)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get token account %s", address)
	}
	account, err := new(AccountLayout).Decode(out.Value.Data.GetBinary())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode token account %s", address)
	}
	account.Address = address
	return account, nil
}
