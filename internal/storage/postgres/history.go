package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/equipment-market/internal/history"
)

// ErrCorruptValue is returned when a stored wei amount cannot be parsed.
var ErrCorruptValue = errors.New("stored value is not an integer")

// ErrOutOfRange is returned when a block number or token id does not fit a
// BIGINT column.
var ErrOutOfRange = errors.New("value exceeds BIGINT range")

// HistoryRepository persists transaction history in the transaction_history table.
type HistoryRepository struct {
	db *pgxpool.Pool
}

var _ history.Recorder = (*HistoryRepository)(nil)

// NewHistoryRepository creates a HistoryRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewHistoryRepository(db *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Record inserts e. Accounts are stored lower-cased; wei values are stored as
// NUMERIC(78,0) so no precision is lost.
//
// Precondition: e.ID must be set.
// Postcondition: The entry is durable, or a non-nil error is returned.
func (r *HistoryRepository) Record(ctx context.Context, e history.Entry) error {
	if e.ID == uuid.Nil {
		return errors.New("history entry has no ID")
	}
	if e.BlockNumber > math.MaxInt64 {
		return fmt.Errorf("block number %d: %w", e.BlockNumber, ErrOutOfRange)
	}
	if e.TokenID > math.MaxInt64 {
		return fmt.Errorf("token id %d: %w", e.TokenID, ErrOutOfRange)
	}
	var wei *string
	if e.Value != nil {
		s := e.Value.String()
		wei = &s
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO transaction_history
		     (id, event, tx_hash, block_number, account, token_id, value_wei, recorded_at)
		 VALUES ($1::text::uuid, $2, $3, $4, $5, $6, $7::text::numeric, $8)`,
		e.ID.String(), e.Event, e.TxHash, int64(e.BlockNumber),
		strings.ToLower(e.Account), int64(e.TokenID), wei, e.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting history entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries for account, newest first. An empty
// account matches every entry.
//
// Precondition: limit > 0.
func (r *HistoryRepository) Recent(ctx context.Context, account string, limit int) ([]history.Entry, error) {
	if limit < 1 {
		return nil, history.ErrInvalidLimit
	}

	rows, err := r.db.Query(ctx,
		`SELECT id::text, event, tx_hash, block_number, account, token_id, value_wei::text, recorded_at
		 FROM transaction_history
		 WHERE $1::text = '' OR account = $1::text
		 ORDER BY recorded_at DESC, block_number DESC
		 LIMIT $2`,
		strings.ToLower(account), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []history.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return out, nil
}

func scanEntry(row pgx.Row) (history.Entry, error) {
	var (
		e       history.Entry
		id      string
		block   int64
		tokenID int64
		wei     *string
	)
	if err := row.Scan(&id, &e.Event, &e.TxHash, &block, &e.Account, &tokenID, &wei, &e.RecordedAt); err != nil {
		return history.Entry{}, fmt.Errorf("scanning history entry: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return history.Entry{}, fmt.Errorf("parsing history id %q: %w", id, err)
	}
	e.ID = parsed
	e.BlockNumber = uint64(block)
	e.TokenID = uint64(tokenID)

	if wei != nil {
		v, ok := new(big.Int).SetString(*wei, 10)
		if !ok {
			return history.Entry{}, fmt.Errorf("%w: %q", ErrCorruptValue, *wei)
		}
		e.Value = v
	}
	e.RecordedAt = e.RecordedAt.UTC()
	return e, nil
}
