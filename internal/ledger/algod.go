package ledger

import (
	"context"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/signchain/signchain/internal/model"
)

type node interface {
	SuggestedParams(ctx context.Context) (types.SuggestedParams, error)
	SendRaw(ctx context.Context, raw []byte) (string, error)
	WaitForConfirmation(ctx context.Context, txID string, rounds uint64) (uint64, error)
}

type algodNode struct {
	client *algod.Client
}

func (n algodNode) SuggestedParams(ctx context.Context) (types.SuggestedParams, error) {
	return n.client.SuggestedParams().Do(ctx)
}

func (n algodNode) SendRaw(ctx context.Context, raw []byte) (string, error) {
	return n.client.SendRawTransaction(raw).Do(ctx)
}

func (n algodNode) WaitForConfirmation(ctx context.Context, txID string, rounds uint64) (uint64, error) {
	info, err := transaction.WaitForConfirmation(n.client, txID, rounds, ctx)
	if err != nil {
		return 0, err
	}
	return info.ConfirmedRound, nil
}

// Live talks to an algod node.
type Live struct {
	node          node
	confirmRounds uint64
}

func NewLive(server, token string, confirmRounds uint64) (*Live, error) {
	client, err := algod.MakeClient(server, token)
	if err != nil {
		return nil, fmt.Errorf("create algod client: %w", err)
	}
	return newLive(algodNode{client: client}, confirmRounds), nil
}

func newLive(n node, confirmRounds uint64) *Live {
	if confirmRounds == 0 {
		confirmRounds = 4
	}
	return &Live{node: n, confirmRounds: confirmRounds}
}

func (l *Live) Mode() model.LedgerMode {
	return model.LedgerModeLive
}

func (l *Live) PrepareNote(ctx context.Context, sender string, note []byte) (*Unsigned, error) {
	params, err := l.node.SuggestedParams(ctx)
	if err != nil {
		return nil, fmt.Errorf("algod suggested params: %w", err)
	}
	return buildNoteTxn(sender, note, params)
}

func (l *Live) Submit(ctx context.Context, signed []byte) (Receipt, error) {
	if _, err := DecodeSigned(signed); err != nil {
		return Receipt{}, err
	}

	txID, err := l.node.SendRaw(ctx, signed)
	if err != nil {
		return Receipt{}, fmt.Errorf("algod send transaction: %w", err)
	}

	round, err := l.node.WaitForConfirmation(ctx, txID, l.confirmRounds)
	if err != nil {
		return Receipt{TxID: txID}, fmt.Errorf("%w: %s: %v", ErrConfirmationFailed, txID, err)
	}
	return Receipt{TxID: txID, ConfirmedRound: round}, nil
}
