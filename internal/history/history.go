// Package history records the marketplace transactions an account has sent.
package history

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event names emitted by the EquipmentMarket contract.
const (
	EventEquipmentMinted = "EquipmentMinted"
	EventItemListed      = "ItemListed"
	EventItemDelisted    = "ItemDelisted"
	EventItemBought      = "ItemBought"
	EventItemRented      = "ItemRented"
)

// Events lists every event name in contract order.
var Events = []string{EventEquipmentMinted, EventItemListed, EventItemDelisted, EventItemBought, EventItemRented}

var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// ErrInvalidEvent is returned for an event name the contract does not emit.
var ErrInvalidEvent = errors.New("unknown event")

// ErrInvalidTxHash is returned for a hash that is not 0x followed by 64 hex digits.
var ErrInvalidTxHash = errors.New("invalid transaction hash")

// Entry is one confirmed transaction.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	Event       string    `json:"event"`
	TxHash      string    `json:"tx_hash"`
	BlockNumber uint64    `json:"block_number"`
	Account     string    `json:"account"`
	TokenID     uint64    `json:"token_id"`
	// Value is the wei attached to the transaction; nil means none.
	Value      *big.Int  `json:"value,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NewEntry returns an entry with a fresh ID and RecordedAt set to now.
func NewEntry(event, txHash string, block uint64, account string, tokenID uint64, value *big.Int, now time.Time) Entry {
	return Entry{
		ID:          uuid.New(),
		Event:       event,
		TxHash:      txHash,
		BlockNumber: block,
		Account:     account,
		TokenID:     tokenID,
		Value:       value,
		RecordedAt:  now.UTC(),
	}
}

// ParseEvent resolves an event name case-insensitively.
func ParseEvent(name string) (string, error) {
	for _, e := range Events {
		if strings.EqualFold(e, name) {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEvent, name)
}

// ValidTxHash reports whether hash is a 32-byte 0x-prefixed hex string.
func ValidTxHash(hash string) bool {
	return txHashPattern.MatchString(hash)
}

// ShortHash returns the first eight characters of a transaction hash.
func ShortHash(hash string) string {
	if len(hash) <= 8 {
		return hash
	}
	return hash[:8]
}

// Summary renders e as a single history line.
func (e Entry) Summary() string {
	return fmt.Sprintf("%s — %s… (block %d)", e.Event, ShortHash(e.TxHash), e.BlockNumber)
}

// Recorder stores and retrieves transaction history.
type Recorder interface {
	// Record stores e.
	Record(ctx context.Context, e Entry) error
	// Recent returns up to limit entries for account, newest first.
	Recent(ctx context.Context, account string, limit int) ([]Entry, error)
}
