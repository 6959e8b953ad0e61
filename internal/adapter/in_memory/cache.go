package in_memory

import (
	"context"
	"sync"

	"github.com/olyamironova/auction-engine/internal/domain"
	"github.com/olyamironova/auction-engine/internal/port"
)

type Cache struct {
	mu   sync.Mutex
	snap *domain.Snapshot
}

var _ port.StateCache = (*Cache)(nil)

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) SetState(ctx context.Context, snap *domain.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = cloneSnapshot(snap)
	return nil
}

// GetState returns nil when nothing was stored yet.
func (c *Cache) GetState(ctx context.Context) (*domain.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil {
		return nil, nil
	}
	return cloneSnapshot(c.snap), nil
}

func cloneSnapshot(s *domain.Snapshot) *domain.Snapshot {
	return &domain.Snapshot{
		AuctionState: s.AuctionState.Clone(),
		Item:         s.Item.Clone(),
		Bidder:       s.Bidder.Clone(),
	}
}
