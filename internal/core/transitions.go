package core

import (
	"context"
	"fmt"
	"time"

	"github.com/olyamironova/auction-engine/internal/domain"
)

// The methods in this file run on the engine goroutine only.

func (e *Engine) startAuction(ctx context.Context, itemID string) (*domain.Item, error) {
	if e.state.IsRunning {
		return nil, domain.Conflict(deref(e.state.CurrentItemID))
	}
	it, err := e.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if it.Status != domain.Pending {
		return nil, domain.InvalidState(fmt.Sprintf("item %s is %s, not available for auction", itemID, it.Status))
	}
	it, err = e.items.SetItemStatus(ctx, itemID, domain.Auctioning, nil)
	if err != nil {
		return nil, fmt.Errorf("open item %s: %w", itemID, err)
	}

	opening := it.BasePrice
	if opening <= 0 {
		opening = e.cfg.MinOpeningBid
	}
	id := it.ID
	e.state = domain.AuctionState{
		CurrentItemID: &id,
		HighestBid:    opening,
		Timer:         e.cfg.CountdownSeconds,
		IsRunning:     true,
	}
	e.startCountdown()

	e.logger.Info("auction started",
		"item_id", id,
		"opening_bid", opening,
		"timer", e.cfg.CountdownSeconds,
	)
	e.publish(domain.AuctionStarted{Item: it.Clone(), BasePrice: it.BasePrice, Timer: e.state.Timer})
	e.publishSnapshot(ctx)
	return it, nil
}

func (e *Engine) placeBid(ctx context.Context, itemID, bidderID string, amount int64) error {
	if !e.state.IsRunning || e.state.CurrentItemID == nil {
		return domain.ErrNoActiveAuction
	}
	if *e.state.CurrentItemID != itemID {
		return domain.WrongLot(itemID)
	}
	it, err := e.items.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if it.Status != domain.Auctioning {
		return domain.InvalidState(fmt.Sprintf("item %s is %s, not accepting bids", itemID, it.Status))
	}
	if expected := e.state.HighestBid + e.cfg.Increment; amount != expected {
		return domain.InvalidIncrement(e.state.HighestBid, e.cfg.Increment, amount)
	}
	b, err := e.bidders.GetBidder(ctx, bidderID)
	if err != nil {
		return err
	}
	if b.Budget < amount {
		return domain.InsufficientBudget(bidderID, b.Budget, amount)
	}

	id := b.ID
	e.state.HighestBid = amount
	e.state.HighestBidderID = &id
	e.state.Timer = e.cfg.CountdownSeconds
	e.startCountdown()

	e.logger.Info("bid placed", "item_id", itemID, "bidder_id", bidderID, "amount", amount)
	e.publish(domain.BidPlaced{
		BidderID:  bidderID,
		ItemID:    itemID,
		Amount:    amount,
		Timestamp: time.Now(),
	})
	e.publishSnapshot(ctx)
	return nil
}

// resolve leaves the state untouched when a store write fails, so the lot
// stays RUNNING until someone resolves it again.
func (e *Engine) resolve(ctx context.Context, itemID string) (*domain.Resolved, error) {
	if !e.state.IsRunning || e.state.CurrentItemID == nil {
		return nil, domain.ErrNoActiveAuction
	}
	if *e.state.CurrentItemID != itemID {
		return nil, domain.WrongLot(itemID)
	}
	e.stopCountdown()

	res := domain.Resolved{ItemID: itemID}
	if e.state.HighestBidderID != nil {
		bidderID, price := *e.state.HighestBidderID, e.state.HighestBid
		if _, err := e.bidders.DebitBudgetAndAddToRoster(ctx, bidderID, itemID, price); err != nil {
			return nil, fmt.Errorf("charge bidder %s for item %s: %w", bidderID, itemID, err)
		}
		sale := &domain.Sale{OwnerID: bidderID, FinalPrice: price}
		if _, err := e.items.SetItemStatus(ctx, itemID, domain.Sold, sale); err != nil {
			if _, cerr := e.bidders.CreditBudgetAndRemoveFromRoster(ctx, bidderID, itemID, price); cerr != nil {
				e.logger.Error("refund after failed sale", "bidder_id", bidderID, "item_id", itemID, "error", cerr)
			}
			return nil, fmt.Errorf("mark item %s sold: %w", itemID, err)
		}
		res.Sold = true
		res.BidderID = &bidderID
		res.FinalPrice = &price
	} else {
		if _, err := e.items.SetItemStatus(ctx, itemID, domain.Pending, nil); err != nil {
			return nil, fmt.Errorf("return item %s to pool: %w", itemID, err)
		}
		res.Reason = domain.ReasonNoBids
	}

	e.state = domain.AuctionState{}
	e.logger.Info("auction resolved",
		"item_id", itemID,
		"sold", res.Sold,
		"bidder_id", deref(res.BidderID),
	)
	e.publish(res)
	e.publish(domain.AuctionEnded{ItemID: itemID, Sold: res.Sold})
	e.publishSnapshot(ctx)
	return &res, nil
}

func (e *Engine) nextItem(ctx context.Context, itemID string, out *NextResult) error {
	if e.state.IsRunning && e.state.CurrentItemID != nil {
		res, err := e.resolve(ctx, *e.state.CurrentItemID)
		if err != nil {
			return err
		}
		out.Resolved = res
	}
	if itemID == "" {
		it, err := e.items.FindOnePending(ctx)
		if err != nil {
			return fmt.Errorf("find pending item: %w", err)
		}
		if it == nil {
			return domain.ErrNoItemsAvailable
		}
		itemID = it.ID
	}
	started, err := e.startAuction(ctx, itemID)
	if err != nil {
		return err
	}
	out.Started = started
	return nil
}

// resetAll is a full rollback: sold items return to the pool and every
// bidder gets its initial budget back. The state goes idle before any store
// write, so a failed reset leaves an idle engine and can simply be retried.
func (e *Engine) resetAll(ctx context.Context) error {
	e.stopCountdown()
	e.state = domain.AuctionState{}
	if err := e.items.ResetAllItems(ctx); err != nil {
		e.publishSnapshot(ctx)
		return fmt.Errorf("reset items: %w", err)
	}
	if err := e.bidders.ResetAllBidders(ctx); err != nil {
		e.publishSnapshot(ctx)
		return fmt.Errorf("reset bidders: %w", err)
	}

	e.logger.Info("auction reset")
	e.publish(domain.AuctionReset{At: time.Now()})
	e.publishSnapshot(ctx)
	return nil
}

func (e *Engine) publishTimer() {
	e.publish(domain.TimerUpdate{Timer: e.state.Timer, IsRunning: e.state.IsRunning})
}

func domainTimerError(err error) domain.EngineError {
	return domain.EngineError{Message: err.Error(), Code: "TIMER_RESOLVE_ERROR"}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
