// Package ledger anchors document identifiers on Algorand through zero-value
// self payments that carry the identifier in the transaction note.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/signchain/signchain/internal/model"
)

// MaxNoteSize is the protocol limit for a transaction note.
const MaxNoteSize = 1024

var (
	ErrInvalidAddress     = errors.New("invalid ledger address")
	ErrInvalidNote        = errors.New("invalid transaction note")
	ErrMalformedTx        = errors.New("malformed signed transaction")
	ErrUnsignedTx         = errors.New("transaction is not signed")
	ErrConfirmationFailed = errors.New("transaction was not confirmed")
)

type Ledger interface {
	Mode() model.LedgerMode
	PrepareNote(ctx context.Context, sender string, note []byte) (*Unsigned, error)
	Submit(ctx context.Context, signed []byte) (Receipt, error)
}

// UnsignedSubmitter is implemented by ledgers that accept transactions
// without a signature.
type UnsignedSubmitter interface {
	SubmitUnsigned(ctx context.Context, unsigned *Unsigned) (Receipt, error)
}

// Signer signs transactions for a single account.
type Signer interface {
	Address() string
	SignTransaction(tx types.Transaction) (txID string, signed []byte, err error)
}

type Unsigned struct {
	TxID        string
	Transaction types.Transaction
}

// Encode returns the canonical msgpack form expected by external wallets.
func (u *Unsigned) Encode() []byte {
	return msgpack.Encode(u.Transaction)
}

type Receipt struct {
	TxID           string
	ConfirmedRound uint64
}

// DecodeSigned parses a msgpack signed transaction and checks that it carries
// a signature of some kind.
func DecodeSigned(raw []byte) (types.SignedTxn, error) {
	var stx types.SignedTxn
	if len(raw) == 0 {
		return stx, ErrMalformedTx
	}
	if err := msgpack.Decode(raw, &stx); err != nil {
		return stx, fmt.Errorf("%w: %v", ErrMalformedTx, err)
	}
	if stx.Sig == (types.Signature{}) && stx.Msig.Blank() && stx.Lsig.Blank() {
		return stx, ErrUnsignedTx
	}
	return stx, nil
}

func buildNoteTxn(sender string, note []byte, params types.SuggestedParams) (*Unsigned, error) {
	if _, err := types.DecodeAddress(sender); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(note) == 0 || len(note) > MaxNoteSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidNote, len(note))
	}

	txn, err := transaction.MakePaymentTxn(sender, sender, 0, note, "", params)
	if err != nil {
		return nil, fmt.Errorf("build payment transaction: %w", err)
	}
	return &Unsigned{TxID: crypto.GetTxID(txn), Transaction: txn}, nil
}
