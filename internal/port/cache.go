package port

import (
	"context"

	"github.com/olyamironova/auction-engine/internal/domain"
)

// StateCache mirrors the latest auction snapshot for readers outside the
// engine process. It is never read back as the source of truth.
type StateCache interface {
	SetState(ctx context.Context, snap *domain.Snapshot) error
	GetState(ctx context.Context) (*domain.Snapshot, error)
}
