package cache

import (
	"context"
	"testing"
	"time"

	"github.com/olyamironova/auction-engine/internal/domain"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestRedisCacheReportsUnreachableServer(t *testing.T) {
	c := NewRedisCache("127.0.0.1:1", "", 0, time.Minute)
	defer func() { assert.NoError(t, c.Close()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	check.Error(t, c.Ping(ctx))
	check.Error(t, c.SetState(ctx, &domain.Snapshot{}))
	snap, err := c.GetState(ctx)
	check.Error(t, err)
	check.Nil(t, snap)
}
