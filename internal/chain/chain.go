// Package chain defines the boundary to the EquipmentMarket contract and the
// Marketplace service that turns user actions into contract calls.
//
// The contract itself is the authority for ownership, pricing, listing status
// and rental expiry; this package only prepares calls and formats results.
package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/cory-johannsen/equipment-market/internal/market"
)

// ErrOffline is returned by OfflineReader for every query.
var ErrOffline = errors.New("no contract reader configured")

// Reader is the query side of the contract.
type Reader interface {
	TotalSupply(ctx context.Context) (uint64, error)
	OwnerOf(ctx context.Context, tokenID uint64) (string, error)
	Equipment(ctx context.Context, tokenID uint64) (market.Equipment, error)
	Listing(ctx context.Context, tokenID uint64) (market.Listing, error)
	Rental(ctx context.Context, tokenID uint64) (market.Rental, error)
	ListedTokens(ctx context.Context) ([]uint64, error)
}

// Transaction is a state-changing contract call.
type Transaction struct {
	From   string   `json:"from"`
	Method string   `json:"method"`
	Args   []any    `json:"args"`
	Value  *big.Int `json:"value,omitempty"`
}

// Receipt is the outcome of a sent transaction. An empty Hash means the
// transaction was not broadcast.
type Receipt struct {
	Hash        string `json:"hash"`
	BlockNumber uint64 `json:"block_number"`
	// TokenID is set for mints, from the EquipmentMinted event.
	TokenID uint64 `json:"token_id,omitempty"`
}

// Confirmed reports whether r refers to a mined transaction.
func (r Receipt) Confirmed() bool {
	return r.Hash != ""
}

// Sender is the mutating side of the contract.
type Sender interface {
	Send(ctx context.Context, tx Transaction) (Receipt, error)
}

// RevertError carries the contract's reason for rejecting a call.
type RevertError struct {
	Method string
	Reason string
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("%s reverted: %s", e.Method, e.Reason)
}

// OfflineReader fails every query with ErrOffline.
type OfflineReader struct{}

var _ Reader = OfflineReader{}

func (OfflineReader) TotalSupply(context.Context) (uint64, error) { return 0, ErrOffline }

func (OfflineReader) OwnerOf(context.Context, uint64) (string, error) { return "", ErrOffline }

func (OfflineReader) Equipment(context.Context, uint64) (market.Equipment, error) {
	return market.Equipment{}, ErrOffline
}

func (OfflineReader) Listing(context.Context, uint64) (market.Listing, error) {
	return market.Listing{}, ErrOffline
}

func (OfflineReader) Rental(context.Context, uint64) (market.Rental, error) {
	return market.Rental{}, ErrOffline
}

func (OfflineReader) ListedTokens(context.Context) ([]uint64, error) { return nil, ErrOffline }

// PrintSender writes each transaction as a JSON line instead of broadcasting
// it, for signing by an external wallet. Its receipts are never confirmed.
type PrintSender struct {
	W io.Writer
}

// Send encodes tx to the writer.
func (p PrintSender) Send(_ context.Context, tx Transaction) (Receipt, error) {
	if err := json.NewEncoder(p.W).Encode(tx); err != nil {
		return Receipt{}, fmt.Errorf("encoding %s transaction: %w", tx.Method, err)
	}
	return Receipt{}, nil
}
