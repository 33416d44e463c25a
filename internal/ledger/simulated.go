package ledger

import (
	"context"
	"encoding/base64"
	"math/rand/v2"

	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/signchain/signchain/internal/model"
)

const (
	testnetGenesisID   = "testnet-v1.0"
	testnetGenesisHash = "SGO1GKSzyE7IEPItTxCByw9x8FmnrCDexi9/cOUJOiI="

	mockTxAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Simulated builds real transactions against static testnet parameters but
// never broadcasts them. Submitted transactions get a mock "TX" identifier.
type Simulated struct{}

func NewSimulated() *Simulated {
	return &Simulated{}
}

func (s *Simulated) Mode() model.LedgerMode {
	return model.LedgerModeSimulated
}

func (s *Simulated) PrepareNote(ctx context.Context, sender string, note []byte) (*Unsigned, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return buildNoteTxn(sender, note, simulatedParams())
}

func (s *Simulated) Submit(ctx context.Context, signed []byte) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if _, err := DecodeSigned(signed); err != nil {
		return Receipt{}, err
	}
	return Receipt{TxID: mockTxID()}, nil
}

// SubmitUnsigned stands in for a wallet that signs off-line. The
// transaction is accepted as prepared and a mock identifier returned.
func (s *Simulated) SubmitUnsigned(ctx context.Context, unsigned *Unsigned) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if unsigned == nil {
		return Receipt{}, ErrMalformedTx
	}
	return Receipt{TxID: mockTxID()}, nil
}

func simulatedParams() types.SuggestedParams {
	genesisHash, _ := base64.StdEncoding.DecodeString(testnetGenesisHash)
	return types.SuggestedParams{
		Fee:             0,
		MinFee:          1000,
		GenesisID:       testnetGenesisID,
		GenesisHash:     genesisHash,
		FirstRoundValid: 1,
		LastRoundValid:  1001,
	}
}

func mockTxID() string {
	id := make([]byte, 12)
	for i := range id {
		id[i] = mockTxAlphabet[rand.IntN(len(mockTxAlphabet))]
	}
	return "TX" + string(id)
}
