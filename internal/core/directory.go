package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/olyamironova/auction-engine/internal/domain"
)

// Directory exposes item and bidder management. Writes go through the
// engine goroutine so they never interleave with a transition.
type Directory struct {
	eng *Engine
}

func NewDirectory(eng *Engine) *Directory {
	return &Directory{eng: eng}
}

type NewItem struct {
	Name      string
	Position  string
	ImageURL  string
	BasePrice int64
}

type NewBidder struct {
	Name      string
	OwnerName string
	LogoURL   string
	Budget    *int64
}

func (d *Directory) CreateItem(ctx context.Context, in NewItem) (*domain.Item, error) {
	if in.BasePrice < 0 {
		return nil, domain.InvalidState("base price cannot be negative")
	}
	now := time.Now()
	it := &domain.Item{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Position:  in.Position,
		ImageURL:  in.ImageURL,
		BasePrice: in.BasePrice,
		Status:    domain.Pending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := d.eng.do(ctx, func(ctx context.Context) error {
		return d.eng.items.CreateItem(ctx, it)
	})
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (d *Directory) Item(ctx context.Context, id string) (*domain.Item, error) {
	return d.eng.items.GetItem(ctx, id)
}

func (d *Directory) Items(ctx context.Context) ([]*domain.Item, error) {
	return d.eng.items.ListItems(ctx)
}

func (d *Directory) ItemsByStatus(ctx context.Context, status domain.ItemStatus) ([]*domain.Item, error) {
	if !status.Valid() {
		return nil, domain.InvalidState(fmt.Sprintf("unknown item status %q", status))
	}
	return d.eng.items.ListItemsByStatus(ctx, status)
}

func (d *Directory) UpdateItem(ctx context.Context, id string, u domain.ItemUpdate) (*domain.Item, error) {
	if u.BasePrice != nil && *u.BasePrice < 0 {
		return nil, domain.InvalidState("base price cannot be negative")
	}
	var updated *domain.Item
	err := d.eng.do(ctx, func(ctx context.Context) error {
		it, err := d.eng.items.GetItem(ctx, id)
		if err != nil {
			return err
		}
		if u.BasePrice != nil && it.Status != domain.Pending {
			return domain.InvalidState(fmt.Sprintf("base price of item %s cannot change while %s", id, it.Status))
		}
		updated, err = d.eng.items.UpdateItem(ctx, id, u)
		return err
	})
	return updated, err
}

func (d *Directory) DeleteItem(ctx context.Context, id string) error {
	return d.eng.do(ctx, func(ctx context.Context) error {
		it, err := d.eng.items.GetItem(ctx, id)
		if err != nil {
			return err
		}
		if it.Status != domain.Pending {
			return domain.InvalidState(fmt.Sprintf("item %s is %s and cannot be deleted", id, it.Status))
		}
		return d.eng.items.DeleteItem(ctx, id)
	})
}

func (d *Directory) CreateBidder(ctx context.Context, in NewBidder) (*domain.Bidder, error) {
	budget := d.eng.cfg.DefaultBudget
	if in.Budget != nil {
		budget = *in.Budget
	}
	if budget < 0 {
		return nil, domain.InvalidState("budget cannot be negative")
	}
	now := time.Now()
	b := &domain.Bidder{
		ID:            uuid.NewString(),
		Name:          in.Name,
		OwnerName:     in.OwnerName,
		LogoURL:       in.LogoURL,
		InitialBudget: budget,
		Budget:        budget,
		Roster:        []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := d.eng.do(ctx, func(ctx context.Context) error {
		return d.eng.bidders.CreateBidder(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (d *Directory) Bidder(ctx context.Context, id string) (*domain.Bidder, error) {
	return d.eng.bidders.GetBidder(ctx, id)
}

func (d *Directory) Bidders(ctx context.Context) ([]*domain.Bidder, error) {
	return d.eng.bidders.ListBidders(ctx)
}

func (d *Directory) UpdateBidder(ctx context.Context, id string, u domain.BidderUpdate) (*domain.Bidder, error) {
	if u.Budget != nil && *u.Budget < 0 {
		return nil, domain.InvalidState("budget cannot be negative")
	}
	var updated *domain.Bidder
	err := d.eng.do(ctx, func(ctx context.Context) error {
		if u.Budget != nil && d.eng.isHighestBidder(id) && *u.Budget < d.eng.state.HighestBid {
			return domain.InvalidState(fmt.Sprintf("bidder %s holds the highest bid of %d", id, d.eng.state.HighestBid))
		}
		var err error
		updated, err = d.eng.bidders.UpdateBidder(ctx, id, u)
		return err
	})
	return updated, err
}

func (d *Directory) DeleteBidder(ctx context.Context, id string) error {
	return d.eng.do(ctx, func(ctx context.Context) error {
		b, err := d.eng.bidders.GetBidder(ctx, id)
		if err != nil {
			return err
		}
		if d.eng.isHighestBidder(id) {
			return domain.InvalidState(fmt.Sprintf("bidder %s holds the highest bid", id))
		}
		if len(b.Roster) > 0 {
			return domain.InvalidState(fmt.Sprintf("bidder %s owns %d items", id, len(b.Roster)))
		}
		return d.eng.bidders.DeleteBidder(ctx, id)
	})
}

func (d *Directory) BidderItems(ctx context.Context, id string) ([]*domain.Item, error) {
	if _, err := d.eng.bidders.GetBidder(ctx, id); err != nil {
		return nil, err
	}
	return d.eng.items.ListItemsByOwner(ctx, id)
}

func (d *Directory) BidderSummary(ctx context.Context, id string) (*domain.BidderSummary, error) {
	b, err := d.eng.bidders.GetBidder(ctx, id)
	if err != nil {
		return nil, err
	}
	s := domain.Summarize(b)
	return &s, nil
}

// isHighestBidder must be called on the engine goroutine.
func (e *Engine) isHighestBidder(bidderID string) bool {
	return e.state.IsRunning && e.state.HighestBidderID != nil && *e.state.HighestBidderID == bidderID
}
