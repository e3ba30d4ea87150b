package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"championship-ledger/internal/domain"

	"github.com/rs/zerolog"
)

// SnapshotRepository persists the whole ledger aggregate as a single JSON
// document. The table holds at most one row; every save replaces it, so the
// last writer wins across independent processes sharing the same file.
type SnapshotRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSnapshotRepository(sqlDB *sql.DB, logger zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// Load returns the stored aggregate, or (nil, nil) when nothing has been
// saved yet.
func (r *SnapshotRepository) Load(ctx context.Context) (*domain.Ledger, error) {
	var document string
	err := r.db.QueryRowContext(ctx,
		"SELECT document FROM ledger_snapshots WHERE id = 1",
	).Scan(&document)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger snapshot: %w", err)
	}

	var ledger domain.Ledger
	if err := json.Unmarshal([]byte(document), &ledger); err != nil {
		return nil, fmt.Errorf("failed to decode ledger snapshot: %w", err)
	}

	r.logger.Debug().
		Int("teams", len(ledger.Teams)).
		Int("matches", len(ledger.Matches)).
		Msg("ledger snapshot loaded")
	return &ledger, nil
}

// Save replaces the stored aggregate with the given one.
func (r *SnapshotRepository) Save(ctx context.Context, ledger *domain.Ledger) error {
	document, err := json.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("failed to encode ledger snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO ledger_snapshots (id, document, last_updated)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			document = excluded.document,
			last_updated = excluded.last_updated
	`, string(document), ledger.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to save ledger snapshot: %w", err)
	}

	r.logger.Debug().
		Int("bytes", len(document)).
		Msg("ledger snapshot saved")
	return nil
}
