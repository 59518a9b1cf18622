package solana

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"github.com/captainenkay0712/token-2022-library/solana/token2022"
)

// Token represents a Token-2022 mint with its address and owning program
type Token struct {
	*token2022.Mint
	Address solana.PublicKey
	// Program that owns the mint account
	Owner solana.PublicKey
}

// TokenLayout provides methods for decoding mint data
type TokenLayout struct {
}

func (l *TokenLayout) Decode(data []byte) (*Token, error) {
	mint, err := token2022.DecodeMint(data)
	if err != nil {
		return nil, err
	}
	return &Token{Mint: mint}, nil
}

// GetMint fetches and decodes a mint. The account must be owned by
// programID.
func GetMint(ctx context.Context, rpcClient AccountFetcher, programID, mint solana.PublicKey) (*Token, error) {
	out, err := GetAccountInfo(ctx, rpcClient, mint)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get mint %s", mint)
	}
	if !out.Value.Owner.Equals(programID) {
		return nil, errors.Wrapf(token2022.ErrInvalidAccountData, "mint %s is owned by %s", mint, out.Value.Owner)
	}

	token, err := new(TokenLayout).Decode(out.Value.Data.GetBinary())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode mint %s", mint)
	}
	token.Address = mint
	token.Owner = out.Value.Owner
	return token, nil
}

// GetMultipleToken fetches several mints at once. Missing accounts leave a
// nil entry.
func GetMultipleToken(ctx context.Context, rpcClient MultipleAccountFetcher, tokens ...solana.PublicKey) ([]*Token, error) {
	outs, err := GetMultipleAccountInfo(ctx, rpcClient, tokens)
	if err != nil {
		return nil, err
	}
	list := make([]*Token, len(outs.Value))
	for i, out := range outs.Value {
		if out == nil {
			continue
		}

		token, err := new(TokenLayout).Decode(out.Data.GetBinary())
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode mint %s", tokens[i])
		}
		token.Address = tokens[i]
		token.Owner = out.Owner

		list[i] = token
	}
	return list, nil
}
