package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/signchain/signchain/internal/model"
)

var ErrAnchorNotFound = errors.New("anchor not found")

type anchorRow struct {
	ID            uuid.UUID `gorm:"column:id"`
	WalletAddress string    `gorm:"column:wallet_address"`
	CID           string    `gorm:"column:cid"`
	URI           string    `gorm:"column:uri"`
	TxID          string    `gorm:"column:tx_id"`
	Title         string    `gorm:"column:title"`
	FileName      string    `gorm:"column:file_name"`
	LedgerMode    string    `gorm:"column:ledger_mode"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (r anchorRow) toModel() model.Anchor {
	return model.Anchor{
		ID:            r.ID,
		WalletAddress: r.WalletAddress,
		CID:           r.CID,
		URI:           r.URI,
		TxID:          r.TxID,
		Title:         r.Title,
		FileName:      r.FileName,
		LedgerMode:    model.LedgerMode(r.LedgerMode),
		CreatedAt:     r.CreatedAt,
	}
}

const anchorColumns = `id, wallet_address, cid, uri, tx_id, title, file_name, ledger_mode, created_at`

type AnchorRepository struct {
	db *gorm.DB
}

func NewAnchorRepository(db *gorm.DB) *AnchorRepository {
	return &AnchorRepository{db: db}
}

func (r *AnchorRepository) CreateAnchor(ctx context.Context, anchor model.Anchor) (*model.Anchor, error) {
	var saved anchorRow
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO contract_anchors (
			wallet_address,
			cid,
			uri,
			tx_id,
			title,
			file_name,
			ledger_mode
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING `+anchorColumns,
		anchor.WalletAddress,
		anchor.CID,
		anchor.URI,
		anchor.TxID,
		anchor.Title,
		anchor.FileName,
		string(anchor.LedgerMode),
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	result := saved.toModel()
	return &result, nil
}

func (r *AnchorRepository) GetAnchor(ctx context.Context, wallet string, id uuid.UUID) (*model.Anchor, error) {
	var row anchorRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+anchorColumns+`
		FROM contract_anchors
		WHERE id = ? AND wallet_address = ?
		LIMIT 1
	`, id, wallet).Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, ErrAnchorNotFound
	}
	result := row.toModel()
	return &result, nil
}

func (r *AnchorRepository) ListAnchors(ctx context.Context, wallet string, limit int) ([]model.Anchor, error) {
	var rows []anchorRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+anchorColumns+`
		FROM contract_anchors
		WHERE wallet_address = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, wallet, limit).Scan(&rows).Error; err != nil {
		return nil, err
	}

	anchors := make([]model.Anchor, 0, len(rows))
	for _, row := range rows {
		anchors = append(anchors, row.toModel())
	}
	return anchors, nil
}
