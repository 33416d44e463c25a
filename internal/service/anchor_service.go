package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/signchain/signchain/internal/ledger"
	"github.com/signchain/signchain/internal/model"
	"github.com/signchain/signchain/internal/repository"
	"github.com/signchain/signchain/internal/storage"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
	exportLimit         = 5000
)

type AnchorStore interface {
	CreateAnchor(ctx context.Context, anchor model.Anchor) (*model.Anchor, error)
	GetAnchor(ctx context.Context, wallet string, id uuid.UUID) (*model.Anchor, error)
	ListAnchors(ctx context.Context, wallet string, limit int) ([]model.Anchor, error)
}

type ExcelGenerator interface {
	Generate(report model.AnchorReport) ([]byte, error)
}

type AnchorService struct {
	ledger  ledger.Ledger
	signer  ledger.Signer
	store   AnchorStore
	excel   ExcelGenerator
	metrics Recorder
	log     zerolog.Logger
	now     func() time.Time
}

type PrepareTransactionInput struct {
	CID       string
	URI       string
	Principal model.Principal
}

type PreparedTransaction struct {
	TxID        string
	Transaction string
	Note        string
	Mode        model.LedgerMode
}

// AnchorInput.SignedTransaction is a base64 msgpack signed transaction.
// When it is empty the server signer is used, but only for principals whose
// session was bound to the signer account.
type AnchorInput struct {
	CID               string
	URI               string
	Title             string
	FileName          string
	SignedTransaction string
	Principal         model.Principal
}

type ExportAnchorsResult struct {
	FileName string
	Content  []byte
}

// NewAnchorService accepts a nil signer when only client-signed
// transactions are expected.
func NewAnchorService(l ledger.Ledger, signer ledger.Signer, store AnchorStore, excel ExcelGenerator, metrics Recorder, log zerolog.Logger) *AnchorService {
	return &AnchorService{
		ledger:  l,
		signer:  signer,
		store:   store,
		excel:   excel,
		metrics: recorderOrNoop(metrics),
		log:     log,
		now:     time.Now,
	}
}

func (s *AnchorService) Mode() model.LedgerMode {
	return s.ledger.Mode()
}

// PrepareTransaction builds the unsigned note transaction an external
// wallet signs for the principal.
func (s *AnchorService) PrepareTransaction(ctx context.Context, input PrepareTransactionInput) (*PreparedTransaction, error) {
	if input.Principal.IsZero() {
		return nil, ErrPermissionDenied
	}
	_, note, err := anchorNote(input.CID, input.URI)
	if err != nil {
		return nil, err
	}

	unsigned, err := s.ledger.PrepareNote(ctx, input.Principal.Address, []byte(note))
	if err != nil {
		return nil, s.ledgerError("prepare transaction", err)
	}
	return &PreparedTransaction{
		TxID:        unsigned.TxID,
		Transaction: base64.StdEncoding.EncodeToString(unsigned.Encode()),
		Note:        note,
		Mode:        s.ledger.Mode(),
	}, nil
}

// Anchor records the document identifier on the ledger and keeps the
// result in the principal's history.
func (s *AnchorService) Anchor(ctx context.Context, input AnchorInput) (*model.Anchor, error) {
	if input.Principal.IsZero() {
		return nil, ErrPermissionDenied
	}
	cid, note, err := anchorNote(input.CID, input.URI)
	if err != nil {
		return nil, err
	}

	receipt, err := s.submit(ctx, input, note)
	s.metrics.RecordAnchor(string(s.ledger.Mode()), err)
	if err != nil {
		return nil, err
	}

	saved, err := s.store.CreateAnchor(ctx, model.Anchor{
		WalletAddress: input.Principal.Address,
		CID:           cid,
		URI:           note,
		TxID:          receipt.TxID,
		Title:         strings.TrimSpace(input.Title),
		FileName:      strings.TrimSpace(input.FileName),
		LedgerMode:    s.ledger.Mode(),
	})
	if err != nil {
		return nil, fmt.Errorf("save anchor %s: %w", receipt.TxID, err)
	}

	s.log.Info().
		Str("wallet", saved.WalletAddress).
		Str("cid", saved.CID).
		Str("tx_id", saved.TxID).
		Uint64("round", receipt.ConfirmedRound).
		Str("mode", string(saved.LedgerMode)).
		Msg("document anchored")
	return saved, nil
}

func (s *AnchorService) submit(ctx context.Context, input AnchorInput, note string) (ledger.Receipt, error) {
	signed := strings.TrimSpace(input.SignedTransaction)
	if signed != "" {
		raw, err := base64.StdEncoding.DecodeString(signed)
		if err != nil {
			return ledger.Receipt{}, fmt.Errorf("%w: signed transaction is not base64", ErrInvalidInput)
		}
		stx, err := ledger.DecodeSigned(raw)
		if err != nil {
			return ledger.Receipt{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if stx.Txn.Sender.String() != input.Principal.Address {
			return ledger.Receipt{}, fmt.Errorf("%w: transaction sender is not the connected wallet", ErrPermissionDenied)
		}
		if string(stx.Txn.Note) != note {
			return ledger.Receipt{}, fmt.Errorf("%w: transaction note does not match the document", ErrInvalidInput)
		}
		receipt, err := s.ledger.Submit(ctx, raw)
		if err != nil {
			return ledger.Receipt{}, s.ledgerError("submit transaction", err)
		}
		return receipt, nil
	}

	if s.signer != nil && input.Principal.ServerSigned && s.signer.Address() == input.Principal.Address {
		unsigned, err := s.ledger.PrepareNote(ctx, input.Principal.Address, []byte(note))
		if err != nil {
			return ledger.Receipt{}, s.ledgerError("prepare transaction", err)
		}
		_, raw, err := s.signer.SignTransaction(unsigned.Transaction)
		if err != nil {
			return ledger.Receipt{}, s.ledgerError("sign transaction", err)
		}
		receipt, err := s.ledger.Submit(ctx, raw)
		if err != nil {
			return ledger.Receipt{}, s.ledgerError("submit transaction", err)
		}
		return receipt, nil
	}

	if submitter, ok := s.ledger.(ledger.UnsignedSubmitter); ok {
		unsigned, err := s.ledger.PrepareNote(ctx, input.Principal.Address, []byte(note))
		if err != nil {
			return ledger.Receipt{}, s.ledgerError("prepare transaction", err)
		}
		receipt, err := submitter.SubmitUnsigned(ctx, unsigned)
		if err != nil {
			return ledger.Receipt{}, s.ledgerError("submit transaction", err)
		}
		return receipt, nil
	}

	return ledger.Receipt{}, ErrSignatureRequired
}

func (s *AnchorService) ledgerError(operation string, err error) error {
	switch {
	case errors.Is(err, ledger.ErrInvalidAddress),
		errors.Is(err, ledger.ErrInvalidNote),
		errors.Is(err, ledger.ErrMalformedTx),
		errors.Is(err, ledger.ErrUnsignedTx):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	case errors.Is(err, context.Canceled):
		return err
	}
	return stageError(MessageLedgerFailed, fmt.Errorf("%w: %s: %w", ErrUnavailable, operation, err))
}

func (s *AnchorService) List(ctx context.Context, principal model.Principal, limit int) ([]model.Anchor, error) {
	if principal.IsZero() {
		return nil, ErrPermissionDenied
	}
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	return s.store.ListAnchors(ctx, principal.Address, limit)
}

func (s *AnchorService) Get(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Anchor, error) {
	if principal.IsZero() {
		return nil, ErrPermissionDenied
	}
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	anchor, err := s.store.GetAnchor(ctx, principal.Address, id)
	if err != nil {
		if errors.Is(err, repository.ErrAnchorNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return anchor, nil
}

// Export writes the principal's anchor history to a spreadsheet.
func (s *AnchorService) Export(ctx context.Context, principal model.Principal) (*ExportAnchorsResult, error) {
	if principal.IsZero() {
		return nil, ErrPermissionDenied
	}
	anchors, err := s.store.ListAnchors(ctx, principal.Address, exportLimit)
	if err != nil {
		return nil, err
	}

	generatedAt := s.now().UTC()
	report := model.AnchorReport{
		WalletAddress: principal.Address,
		GeneratedAt:   generatedAt,
		Total:         len(anchors),
		Groups:        model.GroupAnchorsByMode(anchors),
	}
	content, err := s.excel.Generate(report)
	if err != nil {
		return nil, fmt.Errorf("generate anchor export: %w", err)
	}
	return &ExportAnchorsResult{
		FileName: buildExportFileName(principal.Address, generatedAt),
		Content:  content,
	}, nil
}

func buildExportFileName(address string, at time.Time) string {
	short := sanitizeFileName(address)
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("anchors-%s-%s.xlsx", strings.ToLower(short), at.Format("20060102"))
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}

// anchorNote validates the identifier and returns it with the note text
// written to the ledger. The note defaults to the ipfs:// location.
func anchorNote(cid, uri string) (string, string, error) {
	cid = strings.TrimSpace(cid)
	uri = strings.TrimSpace(uri)
	if cid == "" {
		return "", "", fmt.Errorf("%w: cid is required", ErrInvalidInput)
	}
	if err := storage.ValidateCID(cid); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if uri == "" {
		uri = storage.IPFSURI(cid)
	}
	if !strings.Contains(uri, cid) {
		return "", "", fmt.Errorf("%w: uri does not reference cid", ErrInvalidInput)
	}
	if len(uri) > ledger.MaxNoteSize {
		return "", "", fmt.Errorf("%w: uri is longer than %d bytes", ErrInvalidInput, ledger.MaxNoteSize)
	}
	return cid, uri, nil
}
