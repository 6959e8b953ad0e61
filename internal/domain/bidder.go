package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Bidder is a team with a finite budget. Budget always equals
// InitialBudget minus the final prices of the items in Roster.
type Bidder struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	OwnerName     string    `json:"owner_name,omitempty"`
	LogoURL       string    `json:"logo_url,omitempty"`
	InitialBudget int64     `json:"initial_budget"`
	Budget        int64     `json:"budget"`
	Roster        []string  `json:"roster"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type BidderUpdate struct {
	Name      *string
	OwnerName *string
	LogoURL   *string
	Budget    *int64
}

func (b *Bidder) Clone() *Bidder {
	if b == nil {
		return nil
	}
	cp := *b
	cp.Roster = slices.Clone(b.Roster)
	if cp.Roster == nil {
		cp.Roster = []string{}
	}
	return &cp
}

func (b *Bidder) Owns(itemID string) bool {
	return slices.Contains(b.Roster, itemID)
}

func (b *Bidder) Spent() int64 {
	return b.InitialBudget - b.Budget
}

// Apply updates descriptive fields. A new budget moves InitialBudget by the
// same delta so the spend stays consistent with the roster.
func (b *Bidder) Apply(u BidderUpdate) error {
	if u.Budget != nil {
		if *u.Budget < 0 {
			return InvalidState("budget cannot be negative")
		}
		spent := b.Spent()
		b.Budget = *u.Budget
		b.InitialBudget = *u.Budget + spent
	}
	if u.Name != nil {
		b.Name = *u.Name
	}
	if u.OwnerName != nil {
		b.OwnerName = *u.OwnerName
	}
	if u.LogoURL != nil {
		b.LogoURL = *u.LogoURL
	}
	return nil
}

// BidderSummary reports how a bidder spent its budget.
type BidderSummary struct {
	BidderID      string          `json:"bidder_id"`
	Name          string          `json:"name"`
	ItemCount     int             `json:"item_count"`
	InitialBudget int64           `json:"initial_budget"`
	Spent         int64           `json:"spent"`
	Remaining     int64           `json:"remaining"`
	AveragePrice  decimal.Decimal `json:"average_price"`
	BudgetUsedPct decimal.Decimal `json:"budget_used_pct"`
}

func Summarize(b *Bidder) BidderSummary {
	s := BidderSummary{
		BidderID:      b.ID,
		Name:          b.Name,
		ItemCount:     len(b.Roster),
		InitialBudget: b.InitialBudget,
		Spent:         b.Spent(),
		Remaining:     b.Budget,
		AveragePrice:  decimal.Zero,
		BudgetUsedPct: decimal.Zero,
	}
	spent := decimal.NewFromInt(s.Spent)
	if s.ItemCount > 0 {
		s.AveragePrice = spent.Div(decimal.NewFromInt(int64(s.ItemCount))).Round(2)
	}
	if s.InitialBudget > 0 {
		s.BudgetUsedPct = spent.Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(s.InitialBudget)).Round(2)
	}
	return s
}
