package core

import (
	"errors"
	"testing"

	"github.com/olyamironova/auction-engine/internal/domain"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func ptr[T any](v T) *T { return &v }

func TestCreateItemDefaults(t *testing.T) {
	f := newFixture(t)
	it := f.item("p", 7)
	check.NotEqual(t, "", it.ID)
	check.Equal(t, domain.Pending, it.Status)
	check.Nil(t, it.OwnerID)

	_, err := f.dir.CreateItem(f.ctx, NewItem{Name: "bad", BasePrice: -1})
	check.True(t, errors.Is(err, domain.ErrInvalidState))

	items, err := f.dir.Items(f.ctx)
	assert.NoError(t, err)
	check.Equal(t, 1, len(items))
}

func TestCreateBidderDefaultBudget(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.DefaultBudget = 75 })
	b, err := f.dir.CreateBidder(f.ctx, NewBidder{Name: "team"})
	assert.NoError(t, err)
	check.Equal(t, int64(75), b.Budget)
	check.Equal(t, int64(75), b.InitialBudget)
	check.Equal(t, 0, len(b.Roster))
}

func TestItemsByStatus(t *testing.T) {
	f := newFixture(t)
	p := f.item("p", 3)
	f.item("q", 3)
	_, err := f.eng.StartAuction(f.ctx, p.ID)
	assert.NoError(t, err)

	running, err := f.dir.ItemsByStatus(f.ctx, domain.Auctioning)
	assert.NoError(t, err)
	check.Equal(t, 1, len(running))
	check.Equal(t, p.ID, running[0].ID)

	_, err = f.dir.ItemsByStatus(f.ctx, "LOST")
	check.True(t, errors.Is(err, domain.ErrInvalidState))
}

func TestUpdateItemBasePriceOnlyWhilePending(t *testing.T) {
	f := newFixture(t)
	p := f.item("p", 3)

	it, err := f.dir.UpdateItem(f.ctx, p.ID, domain.ItemUpdate{BasePrice: ptr(int64(5)), Name: ptr("renamed")})
	assert.NoError(t, err)
	check.Equal(t, int64(5), it.BasePrice)
	check.Equal(t, "renamed", it.Name)

	_, err = f.eng.StartAuction(f.ctx, p.ID)
	assert.NoError(t, err)

	_, err = f.dir.UpdateItem(f.ctx, p.ID, domain.ItemUpdate{BasePrice: ptr(int64(1))})
	check.True(t, errors.Is(err, domain.ErrInvalidState))

	// descriptive fields can still change
	it, err = f.dir.UpdateItem(f.ctx, p.ID, domain.ItemUpdate{Position: ptr("Forward")})
	assert.NoError(t, err)
	check.Equal(t, "Forward", it.Position)
	check.Equal(t, int64(5), it.BasePrice)
}

func TestDeleteItem(t *testing.T) {
	f := newFixture(t)
	p := f.item("p", 3)
	q := f.item("q", 3)

	_, err := f.eng.StartAuction(f.ctx, p.ID)
	assert.NoError(t, err)
	check.True(t, errors.Is(f.dir.DeleteItem(f.ctx, p.ID), domain.ErrInvalidState))

	assert.NoError(t, f.dir.DeleteItem(f.ctx, q.ID))
	_, err = f.dir.Item(f.ctx, q.ID)
	check.True(t, errors.Is(err, domain.ErrNotFound))
	check.True(t, errors.Is(f.dir.DeleteItem(f.ctx, q.ID), domain.ErrNotFound))
}

func TestBidderRulesWhileHoldingHighestBid(t *testing.T) {
	f := newFixture(t)
	p := f.item("p", 3)
	a := f.bidder("a", 10)

	_, err := f.eng.StartAuction(f.ctx, p.ID)
	assert.NoError(t, err)
	_, err = f.eng.PlaceBid(f.ctx, p.ID, a.ID, 4)
	assert.NoError(t, err)

	_, err = f.dir.UpdateBidder(f.ctx, a.ID, domain.BidderUpdate{Budget: ptr(int64(3))})
	check.True(t, errors.Is(err, domain.ErrInvalidState))
	check.True(t, errors.Is(f.dir.DeleteBidder(f.ctx, a.ID), domain.ErrInvalidState))

	b, err := f.dir.UpdateBidder(f.ctx, a.ID, domain.BidderUpdate{Budget: ptr(int64(4))})
	assert.NoError(t, err)
	check.Equal(t, int64(4), b.Budget)

	_, err = f.eng.Resolve(f.ctx, p.ID)
	assert.NoError(t, err)

	// owns an item now
	check.True(t, errors.Is(f.dir.DeleteBidder(f.ctx, a.ID), domain.ErrInvalidState))
}

func TestUpdateBidderBudgetKeepsSpend(t *testing.T) {
	f := newFixture(t)
	p := f.item("p", 3)
	a := f.bidder("a", 10)

	_, err := f.eng.StartAuction(f.ctx, p.ID)
	assert.NoError(t, err)
	_, err = f.eng.PlaceBid(f.ctx, p.ID, a.ID, 4)
	assert.NoError(t, err)
	_, err = f.eng.Resolve(f.ctx, p.ID)
	assert.NoError(t, err)

	b, err := f.dir.UpdateBidder(f.ctx, a.ID, domain.BidderUpdate{Budget: ptr(int64(20))})
	assert.NoError(t, err)
	check.Equal(t, int64(20), b.Budget)
	check.Equal(t, int64(24), b.InitialBudget)

	// reset restores the adjusted initial budget
	assert.NoError(t, f.eng.ResetAll(f.ctx))
	check.Equal(t, int64(24), f.getBidder(a.ID).Budget)
}

func TestDeleteBidder(t *testing.T) {
	f := newFixture(t)
	a := f.bidder("a", 10)
	assert.NoError(t, f.dir.DeleteBidder(f.ctx, a.ID))
	_, err := f.dir.Bidder(f.ctx, a.ID)
	check.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestBidderItemsAndSummary(t *testing.T) {
	f := newFixture(t)
	p := f.item("p", 3)
	q := f.item("q", 5)
	a := f.bidder("a", 40)

	for _, it := range []*domain.Item{p, q} {
		_, err := f.eng.StartAuction(f.ctx, it.ID)
		assert.NoError(t, err)
		_, err = f.eng.PlaceBid(f.ctx, it.ID, a.ID, it.BasePrice+1)
		assert.NoError(t, err)
		_, err = f.eng.Resolve(f.ctx, it.ID)
		assert.NoError(t, err)
	}

	items, err := f.dir.BidderItems(f.ctx, a.ID)
	assert.NoError(t, err)
	check.Equal(t, 2, len(items))
	check.Equal(t, p.ID, items[0].ID)

	sum, err := f.dir.BidderSummary(f.ctx, a.ID)
	assert.NoError(t, err)
	check.Equal(t, 2, sum.ItemCount)
	check.Equal(t, int64(10), sum.Spent)
	check.Equal(t, int64(30), sum.Remaining)
	check.True(t, sum.AveragePrice.Equal(decimal.NewFromInt(5)))
	check.True(t, sum.BudgetUsedPct.Equal(decimal.NewFromInt(25)))

	_, err = f.dir.BidderItems(f.ctx, "ghost")
	check.True(t, errors.Is(err, domain.ErrNotFound))
}
