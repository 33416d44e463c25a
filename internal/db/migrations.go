package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'ledger_mode') THEN
			CREATE TYPE ledger_mode AS ENUM ('live', 'simulated');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS contract_anchors (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		wallet_address VARCHAR(58) NOT NULL,
		cid TEXT NOT NULL,
		uri TEXT NOT NULL,
		tx_id VARCHAR(64) NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		file_name TEXT NOT NULL DEFAULT '',
		ledger_mode ledger_mode NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'contract_anchors' AND column_name = 'file_name') THEN
			ALTER TABLE contract_anchors ADD COLUMN file_name TEXT NOT NULL DEFAULT '';
		END IF;
	END
	$$;`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contract_anchors_tx_id ON contract_anchors(tx_id);`,
	`CREATE INDEX IF NOT EXISTS idx_contract_anchors_wallet_created ON contract_anchors(wallet_address, created_at DESC);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
