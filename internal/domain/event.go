package domain

import "time"

type EventKind string

const (
	KindAuctionStarted EventKind = "auctionStarted"
	KindBidPlaced      EventKind = "bidPlaced"
	KindTimerUpdate    EventKind = "timerUpdate"
	KindStateSnapshot  EventKind = "stateUpdate"
	KindResolved       EventKind = "playerSold"
	KindAuctionEnded   EventKind = "auctionEnded"
	KindAuctionReset   EventKind = "auctionReset"
	KindEngineError    EventKind = "auctionError"
)

// Event is one of the variants below; the set is closed.
type Event interface {
	Kind() EventKind
	event()
}

type AuctionStarted struct {
	Item      *Item `json:"item"`
	BasePrice int64 `json:"base_price"`
	Timer     int   `json:"timer"`
}

type BidPlaced struct {
	BidderID  string    `json:"bidder_id"`
	ItemID    string    `json:"item_id"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

type TimerUpdate struct {
	Timer     int  `json:"timer"`
	IsRunning bool `json:"is_running"`
}

type StateSnapshot struct {
	Snapshot
}

// Resolved is the outcome of closing a lot.
type Resolved struct {
	ItemID     string  `json:"item_id"`
	Sold       bool    `json:"sold"`
	BidderID   *string `json:"bidder_id,omitempty"`
	FinalPrice *int64  `json:"final_price,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

type AuctionEnded struct {
	ItemID string `json:"item_id"`
	Sold   bool   `json:"sold"`
}

type AuctionReset struct {
	At time.Time `json:"at"`
}

type EngineError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (AuctionStarted) Kind() EventKind { return KindAuctionStarted }
func (BidPlaced) Kind() EventKind      { return KindBidPlaced }
func (TimerUpdate) Kind() EventKind    { return KindTimerUpdate }
func (StateSnapshot) Kind() EventKind  { return KindStateSnapshot }
func (Resolved) Kind() EventKind       { return KindResolved }
func (AuctionEnded) Kind() EventKind   { return KindAuctionEnded }
func (AuctionReset) Kind() EventKind   { return KindAuctionReset }
func (EngineError) Kind() EventKind    { return KindEngineError }

func (AuctionStarted) event() {}
func (BidPlaced) event()      {}
func (TimerUpdate) event()    {}
func (StateSnapshot) event()  {}
func (Resolved) event()       {}
func (AuctionEnded) event()   {}
func (AuctionReset) event()   {}
func (EngineError) event()    {}

const ReasonNoBids = "no_bids"
