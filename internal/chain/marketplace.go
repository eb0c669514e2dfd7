package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/equipment-market/internal/history"
	"github.com/cory-johannsen/equipment-market/internal/market"
	"github.com/cory-johannsen/equipment-market/internal/value"
)

// Contract method names.
const (
	MethodMint   = "mintEquipment"
	MethodList   = "listItem"
	MethodDelist = "delistItem"
	MethodBuy    = "buyItem"
	MethodRent   = "rentItem"
)

var (
	// ErrInvalidAddress is returned for a malformed sender or owner address.
	ErrInvalidAddress = errors.New("invalid account address")
	// ErrMissingName is returned when minting without a name.
	ErrMissingName = errors.New("equipment name is required")
	// ErrInvalidType is returned when minting an unknown equipment type.
	ErrInvalidType = errors.New("invalid equipment type")
)

// Quote is the mint cost of an attribute vector.
type Quote struct {
	Attributes value.AttributeVector
	Cost       *big.Int
	Display    string
}

// MintRequest describes a new piece of equipment.
type MintRequest struct {
	Type       market.EquipmentType
	Name       string
	StyleID    uint64
	Attributes value.AttributeVector
}

// Marketplace prepares contract calls for user actions and records the
// confirmed ones.
type Marketplace struct {
	reader  Reader
	sender  Sender
	history history.Recorder
	logger  *zap.Logger
	now     func() time.Time
}

// NewMarketplace creates a Marketplace.
//
// Precondition: reader, sender, rec, and logger must be non-nil.
func NewMarketplace(reader Reader, sender Sender, rec history.Recorder, logger *zap.Logger) *Marketplace {
	return &Marketplace{
		reader:  reader,
		sender:  sender,
		history: rec,
		logger:  logger,
		now:     time.Now,
	}
}

// Quote coerces raw attribute input and prices it.
//
// Postcondition: Returns value.ErrAttributeCount if raw does not have 12 entries;
// malformed entries count as zero.
func (m *Marketplace) Quote(raw []string) (Quote, error) {
	attrs, err := value.ParseAttributes(raw)
	if err != nil {
		return Quote{}, err
	}
	cost := value.CostOf(attrs)
	display, err := value.FormatEther(cost)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Attributes: attrs, Cost: cost, Display: display}, nil
}

// Mint sends a mintEquipment call paying exactly the attribute cost.
func (m *Marketplace) Mint(ctx context.Context, from string, req MintRequest) (Receipt, error) {
	if !market.ValidAddress(from) {
		return Receipt{}, fmt.Errorf("%w: %q", ErrInvalidAddress, from)
	}
	if strings.TrimSpace(req.Name) == "" {
		return Receipt{}, ErrMissingName
	}
	if !req.Type.Valid() {
		return Receipt{}, fmt.Errorf("%w: %d", ErrInvalidType, req.Type)
	}

	attrs := make([]string, value.AttributeCount)
	for i := range attrs {
		attrs[i] = req.Attributes.At(i).String()
	}
	cost := value.CostOf(req.Attributes)

	tx := Transaction{
		From:   from,
		Method: MethodMint,
		Args:   []any{uint8(req.Type), attrs, req.Name, req.StyleID},
		Value:  cost,
	}
	receipt, err := m.send(ctx, tx)
	if err != nil {
		return Receipt{}, err
	}
	m.record(ctx, history.EventEquipmentMinted, receipt, from, receipt.TokenID, cost)
	return receipt, nil
}

// List offers a token for sale and/or rent.
func (m *Marketplace) List(ctx context.Context, from string, tokenID uint64, req market.ListingRequest) (Receipt, error) {
	if !market.ValidAddress(from) {
		return Receipt{}, fmt.Errorf("%w: %q", ErrInvalidAddress, from)
	}
	l, err := req.Build()
	if err != nil {
		return Receipt{}, fmt.Errorf("listing token %d: %w", tokenID, err)
	}

	tx := Transaction{
		From:   from,
		Method: MethodList,
		Args: []any{
			tokenID,
			l.ForSale, l.SalePrice.String(),
			l.ForRent, l.RentalPricePerDay.String(),
			l.MinRentalDays,
		},
	}
	receipt, err := m.send(ctx, tx)
	if err != nil {
		return Receipt{}, err
	}
	m.record(ctx, history.EventItemListed, receipt, from, tokenID, nil)
	return receipt, nil
}

// Delist withdraws a token's listing.
func (m *Marketplace) Delist(ctx context.Context, from string, tokenID uint64) (Receipt, error) {
	if !market.ValidAddress(from) {
		return Receipt{}, fmt.Errorf("%w: %q", ErrInvalidAddress, from)
	}
	receipt, err := m.send(ctx, Transaction{From: from, Method: MethodDelist, Args: []any{tokenID}})
	if err != nil {
		return Receipt{}, err
	}
	m.record(ctx, history.EventItemDelisted, receipt, from, tokenID, nil)
	return receipt, nil
}

// Buy purchases a listed token at its on-chain sale price.
func (m *Marketplace) Buy(ctx context.Context, from string, tokenID uint64) (Receipt, error) {
	if !market.ValidAddress(from) {
		return Receipt{}, fmt.Errorf("%w: %q", ErrInvalidAddress, from)
	}
	l, err := m.reader.Listing(ctx, tokenID)
	if err != nil {
		return Receipt{}, fmt.Errorf("reading listing %d: %w", tokenID, err)
	}
	if !l.ForSale {
		return Receipt{}, fmt.Errorf("token %d: %w", tokenID, market.ErrNotForSale)
	}
	price := new(big.Int)
	if l.SalePrice != nil {
		price.Set(l.SalePrice)
	}

	receipt, err := m.send(ctx, Transaction{From: from, Method: MethodBuy, Args: []any{tokenID}, Value: price})
	if err != nil {
		return Receipt{}, err
	}
	m.record(ctx, history.EventItemBought, receipt, from, tokenID, price)
	return receipt, nil
}

// Rent rents a token for days at its on-chain daily price.
func (m *Marketplace) Rent(ctx context.Context, from string, tokenID, days uint64) (Receipt, error) {
	if !market.ValidAddress(from) {
		return Receipt{}, fmt.Errorf("%w: %q", ErrInvalidAddress, from)
	}
	l, err := m.reader.Listing(ctx, tokenID)
	if err != nil {
		return Receipt{}, fmt.Errorf("reading listing %d: %w", tokenID, err)
	}
	cost, err := market.RentalCost(l, days)
	if err != nil {
		return Receipt{}, fmt.Errorf("token %d: %w", tokenID, err)
	}

	receipt, err := m.send(ctx, Transaction{From: from, Method: MethodRent, Args: []any{tokenID, days}, Value: cost})
	if err != nil {
		return Receipt{}, err
	}
	m.record(ctx, history.EventItemRented, receipt, from, tokenID, cost)
	return receipt, nil
}

// Inventory returns every token owned by owner, in token order.
func (m *Marketplace) Inventory(ctx context.Context, owner string) ([]market.Item, error) {
	if !market.ValidAddress(owner) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, owner)
	}
	total, err := m.reader.TotalSupply(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading total supply: %w", err)
	}

	var items []market.Item
	for id := uint64(1); id <= total; id++ {
		tokenOwner, err := m.reader.OwnerOf(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("reading owner of %d: %w", id, err)
		}
		if !market.SameAddress(tokenOwner, owner) {
			continue
		}
		it, err := m.item(ctx, id, tokenOwner, true)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// Market returns the listed tokens that pass f.
func (m *Marketplace) Market(ctx context.Context, f market.Filter) ([]market.Item, error) {
	ids, err := m.reader.ListedTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading listed tokens: %w", err)
	}
	items := make([]market.Item, 0, len(ids))
	for _, id := range ids {
		it, err := m.item(ctx, id, "", false)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return f.Apply(items), nil
}

// History returns the account's recent transactions, newest first.
func (m *Marketplace) History(ctx context.Context, account string, limit int) ([]history.Entry, error) {
	return m.history.Recent(ctx, account, limit)
}

func (m *Marketplace) item(ctx context.Context, id uint64, owner string, withRental bool) (market.Item, error) {
	eq, err := m.reader.Equipment(ctx, id)
	if err != nil {
		return market.Item{}, fmt.Errorf("reading equipment %d: %w", id, err)
	}
	l, err := m.reader.Listing(ctx, id)
	if err != nil {
		return market.Item{}, fmt.Errorf("reading listing %d: %w", id, err)
	}
	it := market.Item{Equipment: eq, Owner: owner, Listing: l}
	if withRental {
		r, err := m.reader.Rental(ctx, id)
		if err != nil {
			return market.Item{}, fmt.Errorf("reading rental %d: %w", id, err)
		}
		it.Rental = r
	}
	return it, nil
}

func (m *Marketplace) send(ctx context.Context, tx Transaction) (Receipt, error) {
	start := time.Now()
	receipt, err := m.sender.Send(ctx, tx)
	if err != nil {
		m.logger.Warn("transaction failed",
			zap.String("method", tx.Method),
			zap.String("from", tx.From),
			zap.Error(err),
		)
		return Receipt{}, fmt.Errorf("%s: %w", tx.Method, err)
	}
	m.logger.Info("transaction sent",
		zap.String("method", tx.Method),
		zap.String("from", tx.From),
		zap.Stringer("value", valueOrZero(tx.Value)),
		zap.String("hash", receipt.Hash),
		zap.Uint64("block", receipt.BlockNumber),
		zap.Duration("elapsed", time.Since(start)),
	)
	return receipt, nil
}

// record stores a confirmed transaction. Recorder failures are logged only;
// the transaction already happened on chain.
func (m *Marketplace) record(ctx context.Context, event string, r Receipt, account string, tokenID uint64, wei *big.Int) {
	if !r.Confirmed() {
		return
	}
	e := history.NewEntry(event, r.Hash, r.BlockNumber, account, tokenID, wei, m.now())
	if err := m.history.Record(ctx, e); err != nil {
		m.logger.Warn("recording transaction history",
			zap.String("event", event),
			zap.String("hash", r.Hash),
			zap.Error(err),
		)
	}
}

func valueOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
