package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/olyamironova/auction-engine/internal/domain"
)

const bidderColumns = `id, name, owner_name, logo_url, initial_budget, budget, roster, created_at, updated_at`

func scanBidder(row pgx.Row) (*domain.Bidder, error) {
	var b domain.Bidder
	if err := row.Scan(&b.ID, &b.Name, &b.OwnerName, &b.LogoURL, &b.InitialBudget, &b.Budget,
		&b.Roster, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if b.Roster == nil {
		b.Roster = []string{}
	}
	return &b, nil
}

// lockBidder selects a bidder row FOR UPDATE inside tx.
func lockBidder(ctx context.Context, tx pgx.Tx, id string) (*domain.Bidder, error) {
	b, err := scanBidder(tx.QueryRow(ctx, `SELECT `+bidderColumns+` FROM bidders WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound("bidder", id)
	}
	return b, err
}

func saveBidder(ctx context.Context, tx pgx.Tx, b *domain.Bidder) error {
	b.UpdatedAt = time.Now()
	_, err := tx.Exec(ctx, `
UPDATE bidders
SET name = $1, owner_name = $2, logo_url = $3, initial_budget = $4, budget = $5, roster = $6, updated_at = $7
WHERE id = $8
`, b.Name, b.OwnerName, b.LogoURL, b.InitialBudget, b.Budget, b.Roster, b.UpdatedAt, b.ID)
	return err
}

func (s *Store) CreateBidder(ctx context.Context, b *domain.Bidder) error {
	if b == nil {
		return errors.New("nil bidder")
	}
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = now
	}
	if b.Roster == nil {
		b.Roster = []string{}
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO bidders(id, name, owner_name, logo_url, initial_budget, budget, roster, created_at, updated_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, b.ID, b.Name, b.OwnerName, b.LogoURL, b.InitialBudget, b.Budget, b.Roster, b.CreatedAt, b.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.InvalidState("bidder " + b.ID + " already exists")
	}
	return err
}

func (s *Store) GetBidder(ctx context.Context, id string) (*domain.Bidder, error) {
	b, err := scanBidder(s.pool.QueryRow(ctx, `SELECT `+bidderColumns+` FROM bidders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound("bidder", id)
	}
	return b, err
}

func (s *Store) ListBidders(ctx context.Context) ([]*domain.Bidder, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+bidderColumns+` FROM bidders ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []*domain.Bidder{}
	for rows.Next() {
		b, err := scanBidder(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

func (s *Store) UpdateBidder(ctx context.Context, id string, u domain.BidderUpdate) (*domain.Bidder, error) {
	var updated *domain.Bidder
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		b, err := lockBidder(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := b.Apply(u); err != nil {
			return err
		}
		updated = b
		return saveBidder(ctx, tx, b)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeleteBidder(ctx context.Context, id string) error {
	res, err := s.pool.Exec(ctx, `DELETE FROM bidders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.NotFound("bidder", id)
	}
	return nil
}

func (s *Store) DebitBudgetAndAddToRoster(ctx context.Context, bidderID, itemID string, amount int64) (*domain.Bidder, error) {
	var updated *domain.Bidder
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		b, err := lockBidder(ctx, tx, bidderID)
		if err != nil {
			return err
		}
		if b.Budget < amount {
			return domain.InsufficientBudget(bidderID, b.Budget, amount)
		}
		if b.Owns(itemID) {
			return domain.InvalidState("bidder " + bidderID + " already owns item " + itemID)
		}
		b.Budget -= amount
		b.Roster = append(b.Roster, itemID)
		updated = b
		return saveBidder(ctx, tx, b)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) CreditBudgetAndRemoveFromRoster(ctx context.Context, bidderID, itemID string, amount int64) (*domain.Bidder, error) {
	var updated *domain.Bidder
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		b, err := lockBidder(ctx, tx, bidderID)
		if err != nil {
			return err
		}
		if !b.Owns(itemID) {
			return domain.InvalidState("bidder " + bidderID + " does not own item " + itemID)
		}
		roster := b.Roster[:0]
		for _, id := range b.Roster {
			if id != itemID {
				roster = append(roster, id)
			}
		}
		b.Roster = roster
		b.Budget += amount
		updated = b
		return saveBidder(ctx, tx, b)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) ResetAllBidders(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `UPDATE bidders SET budget = initial_budget, roster = '{}', updated_at = NOW()`)
	return err
}
