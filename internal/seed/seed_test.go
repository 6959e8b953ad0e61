package seed

import (
	"context"
	"testing"
	"time"

	"github.com/olyamironova/auction-engine/internal/adapter/in_memory"
	"github.com/olyamironova/auction-engine/internal/core"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestLoadIsIdempotent(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.TickInterval = time.Hour
	eng := core.NewEngine(cfg, in_memory.NewItemRepo(), in_memory.NewBidderRepo(), nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()
	dir := core.NewDirectory(eng)

	assert.NoError(t, Load(ctx, dir, nil))
	assert.NoError(t, Load(ctx, dir, nil))

	bidders, err := dir.Bidders(ctx)
	assert.NoError(t, err)
	check.Equal(t, len(Teams), len(bidders))
	for _, b := range bidders {
		check.Equal(t, int64(TeamBudget), b.Budget)
	}

	items, err := dir.Items(ctx)
	assert.NoError(t, err)
	check.Equal(t, len(Players), len(items))
	check.Equal(t, Players[0].Name, items[0].Name)
}
