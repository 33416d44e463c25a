package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/signchain/signchain/internal/excel"
	"github.com/signchain/signchain/internal/ledger"
	"github.com/signchain/signchain/internal/model"
	"github.com/signchain/signchain/internal/repository"
	"github.com/signchain/signchain/internal/storage"
	"github.com/signchain/signchain/internal/wallet"
)

// signingLedger builds transactions like the simulated ledger but requires
// signatures and can fail on submit.
type signingLedger struct {
	inner     *ledger.Simulated
	submitErr error
	submitted int
}

func (l *signingLedger) Mode() model.LedgerMode {
	return model.LedgerModeLive
}

func (l *signingLedger) PrepareNote(ctx context.Context, sender string, note []byte) (*ledger.Unsigned, error) {
	return l.inner.PrepareNote(ctx, sender, note)
}

func (l *signingLedger) Submit(ctx context.Context, signed []byte) (ledger.Receipt, error) {
	if l.submitErr != nil {
		return ledger.Receipt{}, l.submitErr
	}
	stx, err := ledger.DecodeSigned(signed)
	if err != nil {
		return ledger.Receipt{}, err
	}
	l.submitted++
	return ledger.Receipt{TxID: crypto.GetTxID(stx.Txn), ConfirmedRound: 7}, nil
}

func newAnchorService(l ledger.Ledger, signer ledger.Signer) (*AnchorService, *repository.MemoryAnchorRepository, *fakeRecorder) {
	store := repository.NewMemoryAnchorRepository()
	rec := &fakeRecorder{}
	svc := NewAnchorService(l, signer, store, excel.NewGenerator(), rec, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC) }
	return svc, store, rec
}

func principalFor(account crypto.Account) model.Principal {
	return model.Principal{Address: account.Address.String(), WalletType: "pera"}
}

func signPrepared(t *testing.T, account crypto.Account, prepared *PreparedTransaction) string {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(prepared.Transaction)
	require.NoError(t, err)
	var txn types.Transaction
	require.NoError(t, msgpack.Decode(raw, &txn))
	_, signed, err := crypto.SignTransaction(account.PrivateKey, txn)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(signed)
}

func TestPrepareTransactionForPrincipal(t *testing.T) {
	account := crypto.GenerateAccount()
	svc, _, _ := newAnchorService(ledger.NewSimulated(), nil)

	prepared, err := svc.PrepareTransaction(context.Background(), PrepareTransactionInput{
		CID:       storage.SimulatedCID,
		Principal: principalFor(account),
	})
	require.NoError(t, err)

	assert.Equal(t, "ipfs://"+storage.SimulatedCID, prepared.Note)
	assert.Equal(t, model.LedgerModeSimulated, prepared.Mode)
	assert.NotEmpty(t, prepared.TxID)

	raw, err := base64.StdEncoding.DecodeString(prepared.Transaction)
	require.NoError(t, err)
	var txn types.Transaction
	require.NoError(t, msgpack.Decode(raw, &txn))
	assert.Equal(t, account.Address, txn.Sender)
	assert.Equal(t, account.Address, txn.Receiver)
	assert.Equal(t, []byte(prepared.Note), txn.Note)
}

func TestPrepareTransactionValidates(t *testing.T) {
	account := crypto.GenerateAccount()
	svc, _, _ := newAnchorService(ledger.NewSimulated(), nil)

	_, err := svc.PrepareTransaction(context.Background(), PrepareTransactionInput{CID: storage.SimulatedCID})
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.PrepareTransaction(context.Background(), PrepareTransactionInput{CID: "nope", Principal: principalFor(account)})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.PrepareTransaction(context.Background(), PrepareTransactionInput{
		CID:       storage.SimulatedCID,
		URI:       "ipfs://somethingelse",
		Principal: principalFor(account),
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.PrepareTransaction(context.Background(), PrepareTransactionInput{
		CID:       storage.SimulatedCID,
		Principal: model.Principal{Address: "not-an-address"},
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnchorWithClientSignature(t *testing.T) {
	account := crypto.GenerateAccount()
	principal := principalFor(account)
	l := &signingLedger{inner: ledger.NewSimulated()}
	svc, _, rec := newAnchorService(l, nil)

	prepared, err := svc.PrepareTransaction(context.Background(), PrepareTransactionInput{CID: storage.SimulatedCID, Principal: principal})
	require.NoError(t, err)

	anchor, err := svc.Anchor(context.Background(), AnchorInput{
		CID:               storage.SimulatedCID,
		Title:             " Sözleşme ",
		FileName:          "sozlesme.pdf",
		SignedTransaction: signPrepared(t, account, prepared),
		Principal:         principal,
	})
	require.NoError(t, err)

	assert.Equal(t, prepared.TxID, anchor.TxID)
	assert.Equal(t, "Sözleşme", anchor.Title)
	assert.Equal(t, "ipfs://"+storage.SimulatedCID, anchor.URI)
	assert.Equal(t, model.LedgerModeLive, anchor.LedgerMode)
	assert.NotEqual(t, uuid.Nil, anchor.ID)
	assert.Equal(t, 1, l.submitted)
	assert.Equal(t, []recordedCall{{kind: "anchor", value: "live/ok"}}, rec.calls)

	history, err := svc.List(context.Background(), principal, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, anchor.ID, history[0].ID)

	got, err := svc.Get(context.Background(), principal, anchor.ID)
	require.NoError(t, err)
	assert.Equal(t, anchor.TxID, got.TxID)
}

func TestAnchorRejectsForeignOrMismatchedSignature(t *testing.T) {
	owner := crypto.GenerateAccount()
	other := crypto.GenerateAccount()
	l := &signingLedger{inner: ledger.NewSimulated()}
	svc, _, _ := newAnchorService(l, nil)

	prepared, err := svc.PrepareTransaction(context.Background(), PrepareTransactionInput{CID: storage.SimulatedCID, Principal: principalFor(other)})
	require.NoError(t, err)
	signed := signPrepared(t, other, prepared)

	_, err = svc.Anchor(context.Background(), AnchorInput{CID: storage.SimulatedCID, SignedTransaction: signed, Principal: principalFor(owner)})
	require.ErrorIs(t, err, ErrPermissionDenied)

	differentCID, err := storage.ComputeCID([]byte("another document"))
	require.NoError(t, err)
	_, err = svc.Anchor(context.Background(), AnchorInput{CID: differentCID.String(), SignedTransaction: signed, Principal: principalFor(other)})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Anchor(context.Background(), AnchorInput{CID: storage.SimulatedCID, SignedTransaction: "%%%", Principal: principalFor(other)})
	require.ErrorIs(t, err, ErrInvalidInput)

	unsigned := base64.StdEncoding.EncodeToString([]byte{0x81, 0xa3})
	_, err = svc.Anchor(context.Background(), AnchorInput{CID: storage.SimulatedCID, SignedTransaction: unsigned, Principal: principalFor(other)})
	require.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, 0, l.submitted)
}

func TestAnchorWithServerSigner(t *testing.T) {
	account := crypto.GenerateAccount()
	phrase, err := mnemonic.FromPrivateKey(account.PrivateKey)
	require.NoError(t, err)
	signer, err := wallet.NewMnemonicSigner(phrase)
	require.NoError(t, err)

	l := &signingLedger{inner: ledger.NewSimulated()}
	svc, _, _ := newAnchorService(l, signer)

	bound := principalFor(account)
	bound.ServerSigned = true
	anchor, err := svc.Anchor(context.Background(), AnchorInput{CID: storage.SimulatedCID, Principal: bound})
	require.NoError(t, err)
	assert.NotEmpty(t, anchor.TxID)
	assert.Equal(t, 1, l.submitted)

	stranger := crypto.GenerateAccount()
	_, err = svc.Anchor(context.Background(), AnchorInput{CID: storage.SimulatedCID, Principal: principalFor(stranger)})
	require.ErrorIs(t, err, ErrSignatureRequired)
}

func TestAnchorServerSignerNeedsBoundSession(t *testing.T) {
	account := crypto.GenerateAccount()
	phrase, err := mnemonic.FromPrivateKey(account.PrivateKey)
	require.NoError(t, err)
	signer, err := wallet.NewMnemonicSigner(phrase)
	require.NoError(t, err)

	l := &signingLedger{inner: ledger.NewSimulated()}
	svc, store, _ := newAnchorService(l, signer)

	// A token naming the signer address without the server binding.
	_, err = svc.Anchor(context.Background(), AnchorInput{CID: storage.SimulatedCID, Principal: principalFor(account)})
	require.ErrorIs(t, err, ErrSignatureRequired)
	assert.Equal(t, 0, l.submitted)

	anchors, err := store.ListAnchors(context.Background(), account.Address.String(), 10)
	require.NoError(t, err)
	assert.Empty(t, anchors)
}

func TestAnchorSimulatedWithoutSignature(t *testing.T) {
	account := crypto.GenerateAccount()
	svc, _, rec := newAnchorService(ledger.NewSimulated(), nil)

	anchor, err := svc.Anchor(context.Background(), AnchorInput{CID: storage.SimulatedCID, Principal: principalFor(account)})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(anchor.TxID, "TX"))
	assert.Equal(t, model.LedgerModeSimulated, anchor.LedgerMode)
	assert.Equal(t, []recordedCall{{kind: "anchor", value: "simulated/ok"}}, rec.calls)
}

func TestAnchorLedgerFailureIsStageError(t *testing.T) {
	account := crypto.GenerateAccount()
	phrase, err := mnemonic.FromPrivateKey(account.PrivateKey)
	require.NoError(t, err)
	signer, err := wallet.NewMnemonicSigner(phrase)
	require.NoError(t, err)

	l := &signingLedger{inner: ledger.NewSimulated(), submitErr: errors.New("algod 503")}
	svc, store, rec := newAnchorService(l, signer)

	_, err = svc.Anchor(context.Background(), AnchorInput{CID: storage.SimulatedCID, Principal: principalFor(account)})
	require.ErrorIs(t, err, ErrUnavailable)
	var stage *StageError
	require.ErrorAs(t, err, &stage)
	assert.Equal(t, MessageLedgerFailed, stage.Message)
	assert.Equal(t, []recordedCall{{kind: "anchor", value: "live/error"}}, rec.calls)

	history, err := store.ListAnchors(context.Background(), account.Address.String(), 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestGetAnchorScopedToWallet(t *testing.T) {
	owner := crypto.GenerateAccount()
	svc, _, _ := newAnchorService(ledger.NewSimulated(), nil)

	anchor, err := svc.Anchor(context.Background(), AnchorInput{CID: storage.SimulatedCID, Principal: principalFor(owner)})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), principalFor(crypto.GenerateAccount()), anchor.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(context.Background(), principalFor(owner), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(context.Background(), principalFor(owner), uuid.Nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestExportAnchors(t *testing.T) {
	owner := crypto.GenerateAccount()
	svc, _, _ := newAnchorService(ledger.NewSimulated(), nil)

	for i := 0; i < 2; i++ {
		_, err := svc.Anchor(context.Background(), AnchorInput{CID: storage.SimulatedCID, Title: "Sözleşme", Principal: principalFor(owner)})
		require.NoError(t, err)
	}

	result, err := svc.Export(context.Background(), principalFor(owner))
	require.NoError(t, err)

	short := strings.ToLower(owner.Address.String()[:8])
	assert.Equal(t, "anchors-"+short+"-20240305.xlsx", result.FileName)

	file, err := excelize.OpenReader(bytes.NewReader(result.Content))
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, []string{"Özet", "Kayıtlar - simulated"}, file.GetSheetList())
	total, err := file.GetCellValue("Özet", "B3")
	require.NoError(t, err)
	assert.Equal(t, "2", total)
}
