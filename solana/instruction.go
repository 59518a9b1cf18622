package solana

import (
	"bytes"

	"github.com/gagliardetto/solana-go"

	"github.com/captainenkay0712/token-2022-library/solana/token2022"
)

// SplitInstructions splits instructions into three phases: start, middle, end.
// Associated token account creations go first and account closes go last,
// each deduplicated so a batch never creates or closes the same account twice.
func SplitInstructions(programs token2022.Programs, oldInstructions []solana.Instruction) ([]solana.Instruction, []solana.Instruction, []solana.Instruction) {
	var (
		startInstruction  []solana.Instruction
		middleInstruction []solana.Instruction
		endInstruction    []solana.Instruction
	)
	for _, v := range oldInstructions {
		switch {
		case v.ProgramID().Equals(programs.AssociatedToken):
			if !containsInstruction(startInstruction, v) {
				startInstruction = append(startInstruction, v)
			}
		case v.ProgramID().Equals(programs.Token) && isCloseAccount(v):
			if !containsInstruction(endInstruction, v) {
				endInstruction = append(endInstruction, v)
			}
		default:
			middleInstruction = append(middleInstruction, v)
		}
	}
	return startInstruction, middleInstruction, endInstruction
}

// MergeInstructions merges instructions
func MergeInstructions(programs token2022.Programs, oldInstructions []solana.Instruction) []solana.Instruction {
	var (
		newInstructions []solana.Instruction
	)

	startInstruction, middleInstruction, endInstruction := SplitInstructions(programs, oldInstructions)

	newInstructions = append(newInstructions, startInstruction...)
	newInstructions = append(newInstructions, middleInstruction...)
	newInstructions = append(newInstructions, endInstruction...)

	return newInstructions
}

func isCloseAccount(ix solana.Instruction) bool {
	data, err := ix.Data()
	return err == nil && len(data) == 1 && data[0] == token2022.InstructionCloseAccount
}

func containsInstruction(list []solana.Instruction, ix solana.Instruction) bool {
	for _, other := range list {
		if sameInstruction(other, ix) {
			return true
		}
	}
	return false
}

func sameInstruction(a, b solana.Instruction) bool {
	if !a.ProgramID().Equals(b.ProgramID()) {
		return false
	}
	aa, ba := a.Accounts(), b.Accounts()
	if len(aa) != len(ba) {
		return false
	}
	for i := range aa {
		if !aa[i].PublicKey.Equals(ba[i].PublicKey) {
			return false
		}
	}
	ad, err := a.Data()
	if err != nil {
		return false
	}
	bd, err := b.Data()
	if err != nil {
		return false
	}
	return bytes.Equal(ad, bd)
}

// Signers collects the accounts that have to sign instructions, payer first.
func Signers(payer solana.PublicKey, instructions []solana.Instruction) []solana.PublicKey {
	seen := map[solana.PublicKey]struct{}{payer: {}}
	signers := []solana.PublicKey{payer}
	for _, ix := range instructions {
		for _, account := range ix.Accounts() {
			if !account.IsSigner {
				continue
			}
			if _, ok := seen[account.PublicKey]; ok {
				continue
			}
			seen[account.PublicKey] = struct{}{}
			signers = append(signers, account.PublicKey)
		}
	}
	return signers
}
