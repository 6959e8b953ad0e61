package domain

// AuctionState is the singleton lot state. Only the engine mutates it.
type AuctionState struct {
	CurrentItemID   *string `json:"current_item_id"`
	HighestBid      int64   `json:"highest_bid"`
	HighestBidderID *string `json:"highest_bidder_id"`
	Timer           int     `json:"timer"`
	IsRunning       bool    `json:"is_running"`
}

func (s AuctionState) Idle() bool { return !s.IsRunning }

func (s AuctionState) Clone() AuctionState {
	cp := s
	if s.CurrentItemID != nil {
		v := *s.CurrentItemID
		cp.CurrentItemID = &v
	}
	if s.HighestBidderID != nil {
		v := *s.HighestBidderID
		cp.HighestBidderID = &v
	}
	return cp
}

// Snapshot is a read-only copy of the state with the current lot and the
// highest bidder resolved.
type Snapshot struct {
	AuctionState
	Item   *Item   `json:"item,omitempty"`
	Bidder *Bidder `json:"bidder,omitempty"`
}
