package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/olyamironova/auction-engine/internal/api/dto"
	"github.com/olyamironova/auction-engine/internal/domain"
)

func (s *HTTPServer) getStatus(c *gin.Context) {
	snap, err := s.eng.Status(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *HTTPServer) getIncrement(c *gin.Context) {
	c.JSON(http.StatusOK, dto.IncrementResponse{
		Increment:        s.eng.Increment(),
		CountdownSeconds: s.eng.CountdownSeconds(),
	})
}

func (s *HTTPServer) startAuction(c *gin.Context) {
	it, err := s.eng.StartAuction(c.Request.Context(), c.Param("itemId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (s *HTTPServer) placeBid(c *gin.Context) {
	var req dto.BidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := s.submitBid(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// submitBid is shared by the HTTP and websocket transports. A bid id that
// was already accepted is answered without touching the engine.
func (s *HTTPServer) submitBid(ctx context.Context, req dto.BidRequest) (*dto.BidResponse, error) {
	if req.BidID != "" && s.seenBids.Contains(req.BidID) {
		return &dto.BidResponse{Accepted: true, Duplicate: true, BidID: req.BidID}, nil
	}
	itemID := req.ItemID
	if itemID == "" {
		st, err := s.eng.Status(ctx)
		if err != nil {
			return nil, err
		}
		if st.CurrentItemID == nil {
			return nil, domain.ErrNoActiveAuction
		}
		itemID = *st.CurrentItemID
	}
	snap, err := s.eng.PlaceBid(ctx, itemID, req.BidderID, req.Amount)
	if err != nil {
		return nil, err
	}
	if req.BidID != "" {
		s.seenBids.Add(req.BidID, struct{}{})
	}
	return &dto.BidResponse{Accepted: true, BidID: req.BidID, State: snap}, nil
}

func (s *HTTPServer) resolve(c *gin.Context) {
	res, err := s.eng.Resolve(c.Request.Context(), c.Param("itemId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *HTTPServer) nextItem(c *gin.Context) {
	var req dto.NextItemRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	res, err := s.eng.NextItem(c.Request.Context(), req.ItemID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *HTTPServer) resetAll(c *gin.Context) {
	if err := s.eng.ResetAll(c.Request.Context()); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "auction reset"})
}
