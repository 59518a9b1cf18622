package solana

import (
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/captainenkay0712/token-2022-library/solana/token2022"
)

// ParsedTokenAccount is the subset of a jsonParsed token account this
// library reads.
type ParsedTokenAccount struct {
	Mint           solana.PublicKey
	Owner          solana.PublicKey
	Amount         uint64
	WithheldAmount uint64
}

/*
	{
		"parsed": {
			"info": {
				"extensions": [
					{"extension": "transferFeeAmount", "state": {"withheldAmount": 5000}}
				],
				"isNative": false,
				"mint": "...",
				"owner": "...",
				"state": "initialized",
				"tokenAmount": {"amount": "995000", "decimals": 9, ...}
			},
			"type": "account"
		},
		"program": "spl-token-2022",
		"space": 182
	}
*/

// ParseTokenAccountJSON reads a token account returned with jsonParsed
// encoding.
func ParseTokenAccountJSON(raw []byte) (*ParsedTokenAccount, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.Wrap(token2022.ErrInvalidAccountData, "invalid json")
	}
	if kind := gjson.GetBytes(raw, "parsed.type").String(); kind != "account" {
		return nil, errors.Wrapf(token2022.ErrInvalidAccountData, "parsed type %q", kind)
	}

	mint, err := solana.PublicKeyFromBase58(gjson.GetBytes(raw, "parsed.info.mint").String())
	if err != nil {
		return nil, errors.Wrap(err, "parse mint")
	}
	owner, err := solana.PublicKeyFromBase58(gjson.GetBytes(raw, "parsed.info.owner").String())
	if err != nil {
		return nil, errors.Wrap(err, "parse owner")
	}

	return &ParsedTokenAccount{
		Mint:           mint,
		Owner:          owner,
		Amount:         gjson.GetBytes(raw, "parsed.info.tokenAmount.amount").Uint(),
		WithheldAmount: gjson.GetBytes(raw, `parsed.info.extensions.#(extension=="transferFeeAmount").state.withheldAmount`).Uint(),
	}, nil
}
