package domain

import "time"

type ItemStatus string

const (
	Pending    ItemStatus = "PENDING"
	Auctioning ItemStatus = "AUCTIONING"
	Sold       ItemStatus = "SOLD"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case Pending, Auctioning, Sold:
		return true
	}
	return false
}

// Item is a player put up for auction.
type Item struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Position   string     `json:"position,omitempty"`
	ImageURL   string     `json:"image_url,omitempty"`
	BasePrice  int64      `json:"base_price"`
	FinalPrice *int64     `json:"final_price"`
	OwnerID    *string    `json:"owner_id"`
	Status     ItemStatus `json:"status"`
	Seq        int64      `json:"seq"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Sale carries the fields written when an item is sold.
type Sale struct {
	OwnerID    string
	FinalPrice int64
}

// ItemUpdate holds optional changes to the descriptive fields of an item.
type ItemUpdate struct {
	Name      *string
	Position  *string
	ImageURL  *string
	BasePrice *int64
}

func (it *Item) Clone() *Item {
	if it == nil {
		return nil
	}
	cp := *it
	if it.FinalPrice != nil {
		v := *it.FinalPrice
		cp.FinalPrice = &v
	}
	if it.OwnerID != nil {
		v := *it.OwnerID
		cp.OwnerID = &v
	}
	return &cp
}

// ApplySale marks the item sold to the given owner, or clears the sale
// fields when sale is nil.
func (it *Item) ApplySale(status ItemStatus, sale *Sale) {
	it.Status = status
	if sale == nil {
		it.FinalPrice = nil
		it.OwnerID = nil
		return
	}
	price, owner := sale.FinalPrice, sale.OwnerID
	it.FinalPrice = &price
	it.OwnerID = &owner
}

func (it *Item) Apply(u ItemUpdate) {
	if u.Name != nil {
		it.Name = *u.Name
	}
	if u.Position != nil {
		it.Position = *u.Position
	}
	if u.ImageURL != nil {
		it.ImageURL = *u.ImageURL
	}
	if u.BasePrice != nil {
		it.BasePrice = *u.BasePrice
	}
}
