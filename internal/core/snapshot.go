package core

import (
	"context"

	"github.com/olyamironova/auction-engine/internal/domain"
)

// snapshot copies the state and resolves the current lot and highest
// bidder. Lookup failures leave the corresponding field empty.
func (e *Engine) snapshot(ctx context.Context) domain.Snapshot {
	snap := domain.Snapshot{AuctionState: e.state.Clone()}
	if id := snap.CurrentItemID; id != nil {
		it, err := e.items.GetItem(ctx, *id)
		if err != nil {
			e.logger.Warn("snapshot: load current item", "item_id", *id, "error", err)
		} else {
			snap.Item = it.Clone()
		}
	}
	if id := snap.HighestBidderID; id != nil {
		b, err := e.bidders.GetBidder(ctx, *id)
		if err != nil {
			e.logger.Warn("snapshot: load highest bidder", "bidder_id", *id, "error", err)
		} else {
			snap.Bidder = b.Clone()
		}
	}
	return snap
}

func (e *Engine) publishSnapshot(ctx context.Context) {
	snap := e.snapshot(ctx)
	e.refreshCache(ctx, snap)
	e.publish(domain.StateSnapshot{Snapshot: snap})
}

func (e *Engine) refreshCache(ctx context.Context, snap domain.Snapshot) {
	if e.cache == nil {
		return
	}
	if err := e.cache.SetState(ctx, &snap); err != nil {
		e.logger.Warn("state cache write failed", "error", err)
	}
}
