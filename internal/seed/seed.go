package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/olyamironova/auction-engine/internal/core"
)

const TeamBudget = 100

var Teams = []string{
	"Mumbai Indians",
	"Chennai Super Kings",
	"Royal Challengers",
	"Kolkata Knight Riders",
}

var Players = []core.NewItem{
	{Name: "Manuel Neuer", Position: "Goal Keeper", BasePrice: 8},
	{Name: "Alisson Becker", Position: "Goal Keeper", BasePrice: 7},
	{Name: "Jan Oblak", Position: "Goal Keeper", BasePrice: 6},

	{Name: "Virgil van Dijk", Position: "Defender", BasePrice: 12},
	{Name: "Sergio Ramos", Position: "Defender", BasePrice: 10},
	{Name: "Kalidou Koulibaly", Position: "Defender", BasePrice: 9},
	{Name: "Andrew Robertson", Position: "Defender", BasePrice: 8},
	{Name: "Trent Alexander-Arnold", Position: "Defender", BasePrice: 8},
	{Name: "Raphael Varane", Position: "Defender", BasePrice: 7},
	{Name: "Giorgio Chiellini", Position: "Defender", BasePrice: 6},
	{Name: "Thiago Silva", Position: "Defender", BasePrice: 5},

	{Name: "Kevin De Bruyne", Position: "Midfielder", BasePrice: 15},
	{Name: "Luka Modrić", Position: "Midfielder", BasePrice: 12},
	{Name: "N'Golo Kanté", Position: "Midfielder", BasePrice: 11},
	{Name: "Joshua Kimmich", Position: "Midfielder", BasePrice: 10},
	{Name: "Bruno Fernandes", Position: "Midfielder", BasePrice: 9},
	{Name: "Jordan Henderson", Position: "Midfielder", BasePrice: 7},
	{Name: "Casemiro", Position: "Midfielder", BasePrice: 6},
	{Name: "Paul Pogba", Position: "Midfielder", BasePrice: 5},
	{Name: "Frenkie de Jong", Position: "Midfielder", BasePrice: 4},

	{Name: "Lionel Messi", Position: "Forward", BasePrice: 20},
	{Name: "Cristiano Ronaldo", Position: "Forward", BasePrice: 18},
	{Name: "Kylian Mbappé", Position: "Forward", BasePrice: 16},
	{Name: "Erling Haaland", Position: "Forward", BasePrice: 14},
	{Name: "Robert Lewandowski", Position: "Forward", BasePrice: 13},
	{Name: "Mohamed Salah", Position: "Forward", BasePrice: 12},
	{Name: "Sadio Mané", Position: "Forward", BasePrice: 10},
	{Name: "Harry Kane", Position: "Forward", BasePrice: 9},
}

// Load creates the demo teams and players. Each set is only created when
// its store is empty, so restarting against a persistent store is a no-op.
func Load(ctx context.Context, dir *core.Directory, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	bidders, err := dir.Bidders(ctx)
	if err != nil {
		return fmt.Errorf("seed: list bidders: %w", err)
	}
	if len(bidders) == 0 {
		budget := int64(TeamBudget)
		for _, name := range Teams {
			if _, err := dir.CreateBidder(ctx, core.NewBidder{Name: name, Budget: &budget}); err != nil {
				return fmt.Errorf("seed: create team %q: %w", name, err)
			}
		}
		logger.Info("seeded teams", "count", len(Teams), "budget", budget)
	}

	items, err := dir.Items(ctx)
	if err != nil {
		return fmt.Errorf("seed: list items: %w", err)
	}
	if len(items) == 0 {
		for _, p := range Players {
			if _, err := dir.CreateItem(ctx, p); err != nil {
				return fmt.Errorf("seed: create player %q: %w", p.Name, err)
			}
		}
		logger.Info("seeded players", "count", len(Players))
	}
	return nil
}
