package market

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cory-johannsen/equipment-market/internal/value"
)

var (
	// ErrNothingToList is returned when a listing request enables neither sale nor rent.
	ErrNothingToList = errors.New("listing must be for sale, for rent, or both")
	// ErrMissingPrice is returned when an enabled listing mode has no price.
	ErrMissingPrice = errors.New("listing price is required")
	// ErrMinRentalDays is returned when a rental listing has no minimum term.
	ErrMinRentalDays = errors.New("minimum rental days must be at least 1")
	// ErrNotForRent is returned when renting an item that is not offered for rent.
	ErrNotForRent = errors.New("item is not for rent")
	// ErrNotForSale is returned when buying an item that is not offered for sale.
	ErrNotForSale = errors.New("item is not for sale")
	// ErrRentalTooShort is returned when the requested term is below the listing minimum.
	ErrRentalTooShort = errors.New("rental period is shorter than the listing minimum")
)

// Listing is the contract's sale and rental offer for one token. Prices are wei.
type Listing struct {
	ForSale           bool     `json:"for_sale"`
	SalePrice         *big.Int `json:"sale_price"`
	ForRent           bool     `json:"for_rent"`
	RentalPricePerDay *big.Int `json:"rental_price_per_day"`
	MinRentalDays     uint64   `json:"min_rental_days"`
}

// Listed reports whether l offers the token for sale or rent.
func (l Listing) Listed() bool {
	return l.ForSale || l.ForRent
}

// Describe renders the enabled offers of l in ether, e.g.
// "for sale: 1.5 ETH, for rent: 0.01 ETH/day (min 3 days)".
func (l Listing) Describe() (string, error) {
	var parts []string
	if l.ForSale {
		price, err := value.FormatEther(l.SalePrice)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("for sale: %s ETH", price))
	}
	if l.ForRent {
		price, err := value.FormatEther(l.RentalPricePerDay)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("for rent: %s ETH/day (min %d days)", price, l.MinRentalDays))
	}
	if len(parts) == 0 {
		return "not listed", nil
	}
	return strings.Join(parts, ", "), nil
}

// RentalCost returns the exact wei owed for renting under l for days.
//
// Precondition: l.ForRent is true.
// Postcondition: Returns RentalPricePerDay * days, or ErrNotForRent / ErrRentalTooShort.
func RentalCost(l Listing, days uint64) (*big.Int, error) {
	if !l.ForRent {
		return nil, ErrNotForRent
	}
	minDays := l.MinRentalDays
	if minDays == 0 {
		minDays = 1
	}
	if days < minDays {
		return nil, fmt.Errorf("%w: %d < %d", ErrRentalTooShort, days, minDays)
	}
	price := l.RentalPricePerDay
	if price == nil {
		price = new(big.Int)
	}
	return new(big.Int).Mul(price, new(big.Int).SetUint64(days)), nil
}

// ListingRequest is a listing as entered by a seller, with prices in ether.
type ListingRequest struct {
	ForSale           bool
	SalePrice         string
	ForRent           bool
	RentalPricePerDay string
	MinRentalDays     uint64
}

// Build validates r and converts its prices to wei.
//
// Postcondition: Returns a Listing whose disabled modes carry a zero price, or
// an error wrapping one of the Err* sentinels or a *value.FormatError.
func (r ListingRequest) Build() (Listing, error) {
	if !r.ForSale && !r.ForRent {
		return Listing{}, ErrNothingToList
	}

	l := Listing{
		ForSale:           r.ForSale,
		SalePrice:         new(big.Int),
		ForRent:           r.ForRent,
		RentalPricePerDay: new(big.Int),
	}

	if r.ForSale {
		if strings.TrimSpace(r.SalePrice) == "" {
			return Listing{}, fmt.Errorf("sale: %w", ErrMissingPrice)
		}
		price, err := value.ParseEther(r.SalePrice)
		if err != nil {
			return Listing{}, fmt.Errorf("sale price: %w", err)
		}
		l.SalePrice = price
	}

	if r.ForRent {
		if strings.TrimSpace(r.RentalPricePerDay) == "" {
			return Listing{}, fmt.Errorf("rent: %w", ErrMissingPrice)
		}
		if r.MinRentalDays < 1 {
			return Listing{}, ErrMinRentalDays
		}
		price, err := value.ParseEther(r.RentalPricePerDay)
		if err != nil {
			return Listing{}, fmt.Errorf("rental price: %w", err)
		}
		l.RentalPricePerDay = price
		l.MinRentalDays = r.MinRentalDays
	}

	return l, nil
}

// Rental is the current renter of a token.
type Rental struct {
	User      string    `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Active reports whether a renter holds the token at now.
func (r Rental) Active(now time.Time) bool {
	if r.User == "" || SameAddress(r.User, ZeroAddress) {
		return false
	}
	return now.Before(r.ExpiresAt)
}

// Item is a token with its on-chain state.
type Item struct {
	Equipment Equipment
	Owner     string
	Listing   Listing
	Rental    Rental
}

// Partition splits items into those without and those with an active listing,
// preserving order.
func Partition(items []Item) (unlisted, listed []Item) {
	for _, it := range items {
		if it.Listing.Listed() {
			listed = append(listed, it)
		} else {
			unlisted = append(unlisted, it)
		}
	}
	return unlisted, listed
}
