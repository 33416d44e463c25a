package model

import (
	"time"

	"github.com/google/uuid"
)

type LedgerMode string

const (
	LedgerModeLive      LedgerMode = "live"
	LedgerModeSimulated LedgerMode = "simulated"
)

type Anchor struct {
	ID            uuid.UUID
	WalletAddress string
	CID           string
	URI           string
	TxID          string
	Title         string
	FileName      string
	LedgerMode    LedgerMode
	CreatedAt     time.Time
}

type StoredObject struct {
	CID string
	URI string
}
