package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru"
	"github.com/olyamironova/auction-engine/internal/core"
	"github.com/olyamironova/auction-engine/internal/middleware"
	"github.com/olyamironova/auction-engine/internal/notify"
)

type Options struct {
	// DedupSize bounds how many bid ids are remembered.
	DedupSize    int
	BidRateLimit time.Duration
	Logger       *slog.Logger
}

type HTTPServer struct {
	eng      *core.Engine
	dir      *core.Directory
	hub      *notify.Hub
	logger   *slog.Logger
	seenBids *lru.Cache
	limiter  *middleware.RateLimiter
	upgrader websocket.Upgrader
}

func NewHTTPServer(eng *core.Engine, dir *core.Directory, hub *notify.Hub, opts Options) (*HTTPServer, error) {
	if opts.DedupSize <= 0 {
		opts.DedupSize = 1024
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	seen, err := lru.New(opts.DedupSize)
	if err != nil {
		return nil, fmt.Errorf("http: bid dedup cache: %w", err)
	}
	return &HTTPServer{
		eng:      eng,
		dir:      dir,
		hub:      hub,
		logger:   opts.Logger,
		seenBids: seen,
		limiter:  middleware.NewRateLimiter(opts.BidRateLimit),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}, nil
}

func (s *HTTPServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(s.logger), middleware.Logger(s.logger))

	r.GET("/healthz", s.health)
	r.GET("/ws", s.serveWS)

	a := r.Group("/auction")
	a.GET("/status", s.getStatus)
	a.GET("/bid-increment", s.getIncrement)
	a.POST("/start/:itemId", s.startAuction)
	a.POST("/bid", s.limiter.Middleware(), s.placeBid)
	a.POST("/end/:itemId", s.resolve)
	a.POST("/next", s.nextItem)
	a.POST("/reset", s.resetAll)

	items := r.Group("/items")
	items.GET("", s.listItems)
	items.POST("", s.createItem)
	items.GET("/status/:status", s.listItemsByStatus)
	items.GET("/owner/:bidderId", s.listItemsByOwner)
	items.GET("/:id", s.getItem)
	items.PATCH("/:id", s.updateItem)
	items.DELETE("/:id", s.deleteItem)

	bidders := r.Group("/bidders")
	bidders.GET("", s.listBidders)
	bidders.POST("", s.createBidder)
	bidders.GET("/:id", s.getBidder)
	bidders.PATCH("/:id", s.updateBidder)
	bidders.DELETE("/:id", s.deleteBidder)
	bidders.GET("/:id/items", s.listBidderItems)
	bidders.GET("/:id/summary", s.bidderSummary)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("http server stopped")
	return nil
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "subscribers": s.hub.Len()})
}
