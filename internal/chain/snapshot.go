package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/equipment-market/internal/market"
	"github.com/cory-johannsen/equipment-market/internal/value"
)

// ErrUnknownToken is returned for a token id the snapshot does not contain.
var ErrUnknownToken = errors.New("unknown token")

// Snapshot is contract state exported by an indexer at one block.
type Snapshot struct {
	Block  uint64          `yaml:"block"`
	Tokens []SnapshotToken `yaml:"tokens"`
}

// SnapshotToken is one token's state. Prices are ether display strings; an
// empty price means that mode is not offered.
type SnapshotToken struct {
	ID         uint64   `yaml:"id"`
	Owner      string   `yaml:"owner"`
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Style      uint64   `yaml:"style"`
	Attributes []string `yaml:"attributes"`
	Listing    struct {
		SalePrice     string `yaml:"sale_price"`
		RentPerDay    string `yaml:"rent_per_day"`
		MinRentalDays uint64 `yaml:"min_rental_days"`
	} `yaml:"listing"`
	Rental struct {
		User      string    `yaml:"user"`
		ExpiresAt time.Time `yaml:"expires_at"`
	} `yaml:"rental"`
}

type snapshotEntry struct {
	owner     string
	equipment market.Equipment
	listing   market.Listing
	rental    market.Rental
}

// SnapshotReader serves Reader queries from a Snapshot.
type SnapshotReader struct {
	block  uint64
	tokens map[uint64]snapshotEntry
	supply uint64
}

var _ Reader = (*SnapshotReader)(nil)

// LoadSnapshot reads and validates a YAML snapshot file.
func LoadSnapshot(path string) (*SnapshotReader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return NewSnapshotReader(s)
}

// NewSnapshotReader validates s and indexes it by token id.
//
// Postcondition: Returns a reader or an error naming the first invalid token.
func NewSnapshotReader(s Snapshot) (*SnapshotReader, error) {
	r := &SnapshotReader{block: s.Block, tokens: make(map[uint64]snapshotEntry, len(s.Tokens))}
	for _, tok := range s.Tokens {
		e, err := tok.entry()
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", tok.ID, err)
		}
		if _, dup := r.tokens[tok.ID]; dup {
			return nil, fmt.Errorf("token %d: duplicate id", tok.ID)
		}
		r.tokens[tok.ID] = e
		r.supply = max(r.supply, tok.ID)
	}
	if uint64(len(r.tokens)) != r.supply {
		return nil, fmt.Errorf("token ids must run from 1 to %d without gaps", r.supply)
	}
	return r, nil
}

func (t SnapshotToken) entry() (snapshotEntry, error) {
	if t.ID == 0 {
		return snapshotEntry{}, errors.New("token ids start at 1")
	}
	if !market.ValidAddress(t.Owner) {
		return snapshotEntry{}, fmt.Errorf("invalid owner %q", t.Owner)
	}
	eqType, err := market.ParseEquipmentType(t.Type)
	if err != nil {
		return snapshotEntry{}, err
	}
	if len(t.Attributes) != value.AttributeCount {
		return snapshotEntry{}, fmt.Errorf("%w: got %d", value.ErrAttributeCount, len(t.Attributes))
	}
	var attrs value.AttributeVector
	for i, raw := range t.Attributes {
		n, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
		if !ok || n.Sign() < 0 {
			return snapshotEntry{}, fmt.Errorf("attribute %s: %q is not a non-negative integer", market.Attribute(i), raw)
		}
		attrs[i] = n
	}

	listing := market.Listing{SalePrice: new(big.Int), RentalPricePerDay: new(big.Int)}
	req := market.ListingRequest{
		ForSale:           t.Listing.SalePrice != "",
		SalePrice:         t.Listing.SalePrice,
		ForRent:           t.Listing.RentPerDay != "",
		RentalPricePerDay: t.Listing.RentPerDay,
		MinRentalDays:     t.Listing.MinRentalDays,
	}
	if req.ForSale || req.ForRent {
		if listing, err = req.Build(); err != nil {
			return snapshotEntry{}, err
		}
	}

	return snapshotEntry{
		owner: t.Owner,
		equipment: market.Equipment{
			TokenID:    t.ID,
			Name:       t.Name,
			Type:       eqType,
			StyleID:    t.Style,
			Attributes: attrs,
		},
		listing: listing,
		rental:  market.Rental{User: t.Rental.User, ExpiresAt: t.Rental.ExpiresAt},
	}, nil
}

// Block returns the block the snapshot was taken at.
func (r *SnapshotReader) Block() uint64 { return r.block }

func (r *SnapshotReader) lookup(tokenID uint64) (snapshotEntry, error) {
	e, ok := r.tokens[tokenID]
	if !ok {
		return snapshotEntry{}, fmt.Errorf("%w: %d", ErrUnknownToken, tokenID)
	}
	return e, nil
}

// TotalSupply returns the highest token id in the snapshot.
func (r *SnapshotReader) TotalSupply(context.Context) (uint64, error) { return r.supply, nil }

// OwnerOf returns the owner of tokenID.
func (r *SnapshotReader) OwnerOf(_ context.Context, tokenID uint64) (string, error) {
	e, err := r.lookup(tokenID)
	return e.owner, err
}

// Equipment returns the minted record of tokenID.
func (r *SnapshotReader) Equipment(_ context.Context, tokenID uint64) (market.Equipment, error) {
	e, err := r.lookup(tokenID)
	return e.equipment, err
}

// Listing returns the listing of tokenID.
func (r *SnapshotReader) Listing(_ context.Context, tokenID uint64) (market.Listing, error) {
	e, err := r.lookup(tokenID)
	if err != nil {
		return market.Listing{}, err
	}
	l := e.listing
	l.SalePrice = new(big.Int).Set(l.SalePrice)
	l.RentalPricePerDay = new(big.Int).Set(l.RentalPricePerDay)
	return l, nil
}

// Rental returns the rental state of tokenID.
func (r *SnapshotReader) Rental(_ context.Context, tokenID uint64) (market.Rental, error) {
	e, err := r.lookup(tokenID)
	return e.rental, err
}

// ListedTokens returns the ids of listed tokens in ascending order.
func (r *SnapshotReader) ListedTokens(context.Context) ([]uint64, error) {
	var ids []uint64
	for id, e := range r.tokens {
		if e.listing.Listed() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
