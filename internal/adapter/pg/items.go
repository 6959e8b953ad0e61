package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/olyamironova/auction-engine/internal/domain"
)

const itemColumns = `id, seq, name, position, image_url, base_price, final_price, owner_id, status, created_at, updated_at`

func scanItem(row pgx.Row) (*domain.Item, error) {
	var it domain.Item
	var status string
	if err := row.Scan(&it.ID, &it.Seq, &it.Name, &it.Position, &it.ImageURL, &it.BasePrice,
		&it.FinalPrice, &it.OwnerID, &status, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	it.Status = domain.ItemStatus(status)
	return &it, nil
}

func (s *Store) queryItems(ctx context.Context, where string, args ...any) ([]*domain.Item, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+itemColumns+` FROM items `+where+` ORDER BY seq ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []*domain.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	return res, rows.Err()
}

func (s *Store) CreateItem(ctx context.Context, it *domain.Item) error {
	if it == nil {
		return errors.New("nil item")
	}
	now := time.Now()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	if it.UpdatedAt.IsZero() {
		it.UpdatedAt = now
	}
	err := s.pool.QueryRow(ctx, `
INSERT INTO items(id, name, position, image_url, base_price, final_price, owner_id, status, created_at, updated_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING seq
`, it.ID, it.Name, it.Position, it.ImageURL, it.BasePrice, it.FinalPrice, it.OwnerID,
		string(it.Status), it.CreatedAt, it.UpdatedAt).Scan(&it.Seq)
	if isUniqueViolation(err) {
		return domain.InvalidState("item " + it.ID + " already exists")
	}
	return err
}

func (s *Store) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	it, err := scanItem(s.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound("item", id)
	}
	return it, err
}

func (s *Store) ListItems(ctx context.Context) ([]*domain.Item, error) {
	return s.queryItems(ctx, "")
}

func (s *Store) ListItemsByStatus(ctx context.Context, status domain.ItemStatus) ([]*domain.Item, error) {
	return s.queryItems(ctx, "WHERE status = $1", string(status))
}

func (s *Store) ListItemsByOwner(ctx context.Context, ownerID string) ([]*domain.Item, error) {
	return s.queryItems(ctx, "WHERE owner_id = $1", ownerID)
}

func (s *Store) UpdateItem(ctx context.Context, id string, u domain.ItemUpdate) (*domain.Item, error) {
	var updated *domain.Item
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		it, err := scanItem(tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NotFound("item", id)
		}
		if err != nil {
			return err
		}
		it.Apply(u)
		it.UpdatedAt = time.Now()
		_, err = tx.Exec(ctx, `
UPDATE items SET name = $1, position = $2, image_url = $3, base_price = $4, updated_at = $5
WHERE id = $6
`, it.Name, it.Position, it.ImageURL, it.BasePrice, it.UpdatedAt, id)
		updated = it
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	res, err := s.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.NotFound("item", id)
	}
	return nil
}

func (s *Store) SetItemStatus(ctx context.Context, id string, status domain.ItemStatus, sale *domain.Sale) (*domain.Item, error) {
	var owner *string
	var price *int64
	if sale != nil {
		owner, price = &sale.OwnerID, &sale.FinalPrice
	}
	it, err := scanItem(s.pool.QueryRow(ctx, `
UPDATE items SET status = $1, owner_id = $2, final_price = $3, updated_at = NOW()
WHERE id = $4
RETURNING `+itemColumns, string(status), owner, price, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound("item", id)
	}
	if err != nil {
		return nil, fmt.Errorf("pg: set item %s %s: %w", id, status, err)
	}
	return it, nil
}

func (s *Store) FindOnePending(ctx context.Context) (*domain.Item, error) {
	it, err := scanItem(s.pool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM items WHERE status = $1 ORDER BY seq ASC LIMIT 1`, string(domain.Pending)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return it, err
}

func (s *Store) ResetAllItems(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
UPDATE items SET status = $1, owner_id = NULL, final_price = NULL, updated_at = NOW()
`, string(domain.Pending))
	return err
}
