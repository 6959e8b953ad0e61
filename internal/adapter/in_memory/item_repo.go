package in_memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/olyamironova/auction-engine/internal/domain"
	"github.com/olyamironova/auction-engine/internal/port"
)

var _ port.ItemRepository = (*ItemRepo)(nil)

type ItemRepo struct {
	mu    sync.Mutex
	seq   int64
	items map[string]*domain.Item
}

func NewItemRepo() *ItemRepo {
	return &ItemRepo{items: make(map[string]*domain.Item)}
}

func (r *ItemRepo) CreateItem(ctx context.Context, it *domain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[it.ID]; ok {
		return domain.InvalidState("item " + it.ID + " already exists")
	}
	r.seq++
	it.Seq = r.seq
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now()
	}
	r.items[it.ID] = it.Clone()
	return nil
}

func (r *ItemRepo) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, domain.NotFound("item", id)
	}
	return it.Clone(), nil
}

func (r *ItemRepo) ListItems(ctx context.Context) ([]*domain.Item, error) {
	return r.filter(func(*domain.Item) bool { return true }), nil
}

func (r *ItemRepo) ListItemsByStatus(ctx context.Context, status domain.ItemStatus) ([]*domain.Item, error) {
	return r.filter(func(it *domain.Item) bool { return it.Status == status }), nil
}

func (r *ItemRepo) ListItemsByOwner(ctx context.Context, ownerID string) ([]*domain.Item, error) {
	return r.filter(func(it *domain.Item) bool {
		return it.OwnerID != nil && *it.OwnerID == ownerID
	}), nil
}

func (r *ItemRepo) UpdateItem(ctx context.Context, id string, u domain.ItemUpdate) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, domain.NotFound("item", id)
	}
	it.Apply(u)
	it.UpdatedAt = time.Now()
	return it.Clone(), nil
}

func (r *ItemRepo) DeleteItem(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domain.NotFound("item", id)
	}
	delete(r.items, id)
	return nil
}

func (r *ItemRepo) SetItemStatus(ctx context.Context, id string, status domain.ItemStatus, sale *domain.Sale) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, domain.NotFound("item", id)
	}
	it.ApplySale(status, sale)
	it.UpdatedAt = time.Now()
	return it.Clone(), nil
}

func (r *ItemRepo) FindOnePending(ctx context.Context) (*domain.Item, error) {
	pending := r.filter(func(it *domain.Item) bool { return it.Status == domain.Pending })
	if len(pending) == 0 {
		return nil, nil
	}
	return pending[0], nil
}

func (r *ItemRepo) ResetAllItems(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, it := range r.items {
		it.ApplySale(domain.Pending, nil)
		it.UpdatedAt = now
	}
	return nil
}

// filter returns clones in creation order.
func (r *ItemRepo) filter(keep func(*domain.Item) bool) []*domain.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*domain.Item, 0, len(r.items))
	for _, it := range r.items {
		if keep(it) {
			res = append(res, it.Clone())
		}
	}
	slices.SortFunc(res, func(a, b *domain.Item) int { return int(a.Seq - b.Seq) })
	return res
}
