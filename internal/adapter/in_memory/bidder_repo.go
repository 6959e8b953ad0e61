package in_memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/olyamironova/auction-engine/internal/domain"
	"github.com/olyamironova/auction-engine/internal/port"
)

var _ port.BidderRepository = (*BidderRepo)(nil)

type BidderRepo struct {
	mu      sync.Mutex
	bidders map[string]*domain.Bidder
}

func NewBidderRepo() *BidderRepo {
	return &BidderRepo{bidders: make(map[string]*domain.Bidder)}
}

func (r *BidderRepo) CreateBidder(ctx context.Context, b *domain.Bidder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bidders[b.ID]; ok {
		return domain.InvalidState("bidder " + b.ID + " already exists")
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	r.bidders[b.ID] = b.Clone()
	return nil
}

func (r *BidderRepo) GetBidder(ctx context.Context, id string) (*domain.Bidder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bidders[id]
	if !ok {
		return nil, domain.NotFound("bidder", id)
	}
	return b.Clone(), nil
}

func (r *BidderRepo) ListBidders(ctx context.Context) ([]*domain.Bidder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*domain.Bidder, 0, len(r.bidders))
	for _, b := range r.bidders {
		res = append(res, b.Clone())
	}
	slices.SortFunc(res, func(a, b *domain.Bidder) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		return 1
	})
	return res, nil
}

func (r *BidderRepo) UpdateBidder(ctx context.Context, id string, u domain.BidderUpdate) (*domain.Bidder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bidders[id]
	if !ok {
		return nil, domain.NotFound("bidder", id)
	}
	if err := b.Apply(u); err != nil {
		return nil, err
	}
	b.UpdatedAt = time.Now()
	return b.Clone(), nil
}

func (r *BidderRepo) DeleteBidder(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bidders[id]; !ok {
		return domain.NotFound("bidder", id)
	}
	delete(r.bidders, id)
	return nil
}

func (r *BidderRepo) DebitBudgetAndAddToRoster(ctx context.Context, bidderID, itemID string, amount int64) (*domain.Bidder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bidders[bidderID]
	if !ok {
		return nil, domain.NotFound("bidder", bidderID)
	}
	if b.Budget < amount {
		return nil, domain.InsufficientBudget(bidderID, b.Budget, amount)
	}
	if b.Owns(itemID) {
		return nil, domain.InvalidState("bidder " + bidderID + " already owns item " + itemID)
	}
	b.Budget -= amount
	b.Roster = append(b.Roster, itemID)
	b.UpdatedAt = time.Now()
	return b.Clone(), nil
}

func (r *BidderRepo) CreditBudgetAndRemoveFromRoster(ctx context.Context, bidderID, itemID string, amount int64) (*domain.Bidder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bidders[bidderID]
	if !ok {
		return nil, domain.NotFound("bidder", bidderID)
	}
	idx := slices.Index(b.Roster, itemID)
	if idx < 0 {
		return nil, domain.InvalidState("bidder " + bidderID + " does not own item " + itemID)
	}
	b.Roster = slices.Delete(b.Roster, idx, idx+1)
	b.Budget += amount
	b.UpdatedAt = time.Now()
	return b.Clone(), nil
}

func (r *BidderRepo) ResetAllBidders(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, b := range r.bidders {
		b.Budget = b.InitialBudget
		b.Roster = []string{}
		b.UpdatedAt = now
	}
	return nil
}
