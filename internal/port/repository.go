package port

import (
	"context"

	"github.com/olyamironova/auction-engine/internal/domain"
)

// ItemRepository is the Item Directory. Lookups of unknown ids return an
// error matching domain.ErrNotFound.
type ItemRepository interface {
	CreateItem(ctx context.Context, it *domain.Item) error
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	ListItems(ctx context.Context) ([]*domain.Item, error)
	ListItemsByStatus(ctx context.Context, status domain.ItemStatus) ([]*domain.Item, error)
	ListItemsByOwner(ctx context.Context, ownerID string) ([]*domain.Item, error)
	UpdateItem(ctx context.Context, id string, u domain.ItemUpdate) (*domain.Item, error)
	DeleteItem(ctx context.Context, id string) error
	// SetItemStatus writes status and the sale fields; a nil sale clears them.
	SetItemStatus(ctx context.Context, id string, status domain.ItemStatus, sale *domain.Sale) (*domain.Item, error)
	// FindOnePending returns the oldest PENDING item, or nil when none remain.
	FindOnePending(ctx context.Context) (*domain.Item, error)
	ResetAllItems(ctx context.Context) error
}

// BidderRepository is the Bidder Directory.
type BidderRepository interface {
	CreateBidder(ctx context.Context, b *domain.Bidder) error
	GetBidder(ctx context.Context, id string) (*domain.Bidder, error)
	ListBidders(ctx context.Context) ([]*domain.Bidder, error)
	UpdateBidder(ctx context.Context, id string, u domain.BidderUpdate) (*domain.Bidder, error)
	DeleteBidder(ctx context.Context, id string) error
	// DebitBudgetAndAddToRoster fails with domain.ErrInsufficientBudget
	// without side effects when the budget does not cover amount.
	DebitBudgetAndAddToRoster(ctx context.Context, bidderID, itemID string, amount int64) (*domain.Bidder, error)
	CreditBudgetAndRemoveFromRoster(ctx context.Context, bidderID, itemID string, amount int64) (*domain.Bidder, error)
	ResetAllBidders(ctx context.Context) error
}
