package dto

import (
	"encoding/json"

	"github.com/olyamironova/auction-engine/internal/core"
	"github.com/olyamironova/auction-engine/internal/domain"
)

type BidRequest struct {
	BidID    string `json:"bid_id,omitempty"` // for deduplicate
	ItemID   string `json:"item_id"`          // defaults to the current lot
	BidderID string `json:"bidder_id" binding:"required"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
}

type BidResponse struct {
	Accepted  bool             `json:"accepted"`
	Duplicate bool             `json:"duplicate,omitempty"`
	BidID     string           `json:"bid_id,omitempty"`
	State     *domain.Snapshot `json:"state,omitempty"`
}

type NextItemRequest struct {
	ItemID string `json:"item_id,omitempty"`
}

type ItemRequest struct {
	ItemID string `json:"item_id" binding:"required"`
}

type IncrementResponse struct {
	Increment        int64 `json:"increment"`
	CountdownSeconds int   `json:"countdown_seconds"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CreateItemRequest struct {
	Name      string `json:"name" binding:"required"`
	Position  string `json:"position"`
	ImageURL  string `json:"image_url"`
	BasePrice int64  `json:"base_price" binding:"gte=0"`
}

func (r CreateItemRequest) NewItem() core.NewItem {
	return core.NewItem{
		Name:      r.Name,
		Position:  r.Position,
		ImageURL:  r.ImageURL,
		BasePrice: r.BasePrice,
	}
}

type UpdateItemRequest struct {
	Name      *string `json:"name"`
	Position  *string `json:"position"`
	ImageURL  *string `json:"image_url"`
	BasePrice *int64  `json:"base_price" binding:"omitempty,gte=0"`
}

func (r UpdateItemRequest) Update() domain.ItemUpdate {
	return domain.ItemUpdate{
		Name:      r.Name,
		Position:  r.Position,
		ImageURL:  r.ImageURL,
		BasePrice: r.BasePrice,
	}
}

type CreateBidderRequest struct {
	Name      string `json:"name" binding:"required"`
	OwnerName string `json:"owner_name"`
	LogoURL   string `json:"logo_url"`
	Budget    *int64 `json:"budget" binding:"omitempty,gte=0"`
}

func (r CreateBidderRequest) NewBidder() core.NewBidder {
	return core.NewBidder{
		Name:      r.Name,
		OwnerName: r.OwnerName,
		LogoURL:   r.LogoURL,
		Budget:    r.Budget,
	}
}

type UpdateBidderRequest struct {
	Name      *string `json:"name"`
	OwnerName *string `json:"owner_name"`
	LogoURL   *string `json:"logo_url"`
	Budget    *int64  `json:"budget" binding:"omitempty,gte=0"`
}

func (r UpdateBidderRequest) Update() domain.BidderUpdate {
	return domain.BidderUpdate{
		Name:      r.Name,
		OwnerName: r.OwnerName,
		LogoURL:   r.LogoURL,
		Budget:    r.Budget,
	}
}

// Envelope frames every websocket message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Ack answers a websocket client message.
type Ack struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Result  any    `json:"result,omitempty"`
}
