package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/olyamironova/auction-engine/internal/api/dto"
	"github.com/olyamironova/auction-engine/internal/domain"
)

func (s *HTTPServer) listItems(c *gin.Context) {
	items, err := s.dir.Items(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *HTTPServer) listItemsByStatus(c *gin.Context) {
	items, err := s.dir.ItemsByStatus(c.Request.Context(), domain.ItemStatus(c.Param("status")))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *HTTPServer) listItemsByOwner(c *gin.Context) {
	items, err := s.dir.BidderItems(c.Request.Context(), c.Param("bidderId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *HTTPServer) getItem(c *gin.Context) {
	it, err := s.dir.Item(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (s *HTTPServer) createItem(c *gin.Context) {
	var req dto.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	it, err := s.dir.CreateItem(c.Request.Context(), req.NewItem())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, it)
}

func (s *HTTPServer) updateItem(c *gin.Context) {
	var req dto.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	it, err := s.dir.UpdateItem(c.Request.Context(), c.Param("id"), req.Update())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (s *HTTPServer) deleteItem(c *gin.Context) {
	if err := s.dir.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *HTTPServer) listBidders(c *gin.Context) {
	bidders, err := s.dir.Bidders(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bidders)
}

func (s *HTTPServer) getBidder(c *gin.Context) {
	b, err := s.dir.Bidder(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *HTTPServer) createBidder(c *gin.Context) {
	var req dto.CreateBidderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := s.dir.CreateBidder(c.Request.Context(), req.NewBidder())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (s *HTTPServer) updateBidder(c *gin.Context) {
	var req dto.UpdateBidderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := s.dir.UpdateBidder(c.Request.Context(), c.Param("id"), req.Update())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *HTTPServer) deleteBidder(c *gin.Context) {
	if err := s.dir.DeleteBidder(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *HTTPServer) listBidderItems(c *gin.Context) {
	items, err := s.dir.BidderItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *HTTPServer) bidderSummary(c *gin.Context) {
	sum, err := s.dir.BidderSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
