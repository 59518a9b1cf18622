package solana

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	sendandconfirmtransaction "github.com/gagliardetto/solana-go/rpc/sendAndConfirmTransaction"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/pkg/errors"
)

// Submitter is what SendTransaction needs from a node.
type Submitter interface {
	ChainState
	TransactionSender
}

// KeyGetter returns the sign callback for a fixed set of keys.
func KeyGetter(keys ...solana.PrivateKey) func(key solana.PublicKey) *solana.PrivateKey {
	return func(key solana.PublicKey) *solana.PrivateKey {
		for i := range keys {
			if keys[i].PublicKey().Equals(key) {
				return &keys[i]
			}
		}
		return nil
	}
}

// SendTransaction signs instructions into one transaction paid by payer,
// submits it and waits for confirmation. Failures are returned as is and
// never retried.
func SendTransaction(
	ctx context.Context,
	rpcClient Submitter,
	wsClient *ws.Client,
	instructions []solana.Instruction,
	payer solana.PublicKey,
	sign func(key solana.PublicKey) *solana.PrivateKey,
) (solana.Signature, error) {
	latestBlockhash, err := GetLatestBlockhash(ctx, rpcClient)
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "failed to get latest blockhash")
	}

	tx, err := solana.NewTransaction(instructions, latestBlockhash, solana.TransactionPayer(payer))
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "failed to build transaction")
	}

	return SendBuiltTransaction(ctx, rpcClient, wsClient, tx, sign)
}

// SendBuiltTransaction signs an already built transaction, submits it and
// waits for confirmation.
func SendBuiltTransaction(
	ctx context.Context,
	rpcClient Submitter,
	wsClient *ws.Client,
	tx *solana.Transaction,
	sign func(key solana.PublicKey) *solana.PrivateKey,
) (solana.Signature, error) {
	if _, err := tx.Sign(sign); err != nil {
		return solana.Signature{}, errors.Wrap(err, "failed to sign transaction")
	}

	sig, err := rpcClient.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: DefaultCommitment,
		},
	)
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "failed to send transaction")
	}

	if wsClient != nil {
		confirmed, err := sendandconfirmtransaction.WaitForConfirmation(ctx, wsClient, sig, nil)
		if confirmed {
			if err != nil {
				return sig, errors.Wrap(err, "transaction confirmed but failed")
			}
			return sig, nil
		}
	}
	return sig, waitForStatus(ctx, rpcClient, sig)
}

var statusPollInterval = 500 * time.Millisecond

func waitForStatus(ctx context.Context, rpcClient TransactionSender, sig solana.Signature) error {
	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	for {
		statusResp, err := rpcClient.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			return errors.Wrap(err, "rpc GetSignatureStatuses error")
		}
		if len(statusResp.Value) > 0 && statusResp.Value[0] != nil {
			status := statusResp.Value[0]
			if status.Err != nil {
				return errors.Errorf("transaction confirmed but failed: %v", status.Err)
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "transaction not confirmed (maybe dropped)")
		case <-ticker.C:
		}
	}
}
