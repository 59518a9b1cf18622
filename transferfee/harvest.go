package transferfee

import (
	"github.com/gagliardetto/solana-go"

	"github.com/captainenkay0712/token-2022-library/solana/token2022"
)

// HarvestWithheldTokensToMintInstruction generates the instruction that moves
// the withheld fees of sources into the mint's pool. Anyone may harvest, so
// no authority is involved.
//
// ok is false when sources is empty: there is nothing to harvest and no
// instruction should be sent. Accounts holding nothing withheld are accepted
// and contribute zero.
func HarvestWithheldTokensToMintInstruction(
	programs token2022.Programs,
	mint solana.PublicKey,
	sources []solana.PublicKey,
) (ix solana.Instruction, ok bool) {
	if len(sources) == 0 {
		return nil, false
	}
	return token2022.HarvestWithheldTokensToMintInstruction(programs.Token, mint, sources), true
}

// HarvestBatches splits sources into groups of at most size accounts, one
// harvest instruction each. The order of sources is kept.
func HarvestBatches(
	programs token2022.Programs,
	mint solana.PublicKey,
	sources []solana.PublicKey,
	size int,
) []solana.Instruction {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var instructions []solana.Instruction
	for _, batch := range chunk(sources, size) {
		if ix, ok := HarvestWithheldTokensToMintInstruction(programs, mint, batch); ok {
			instructions = append(instructions, ix)
		}
	}
	return instructions
}

func chunk(keys []solana.PublicKey, size int) [][]solana.PublicKey {
	var out [][]solana.PublicKey
	for len(keys) > size {
		out = append(out, keys[:size:size])
		keys = keys[size:]
	}
	if len(keys) > 0 {
		out = append(out, keys)
	}
	return out
}
