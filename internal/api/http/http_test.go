package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/olyamironova/auction-engine/internal/adapter/in_memory"
	"github.com/olyamironova/auction-engine/internal/api/dto"
	"github.com/olyamironova/auction-engine/internal/core"
	"github.com/olyamironova/auction-engine/internal/domain"
	"github.com/olyamironova/auction-engine/internal/middleware"
	"github.com/olyamironova/auction-engine/internal/notify"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	srv    *HTTPServer
}

func newTestAPI(t *testing.T, rateLimit time.Duration) *testAPI {
	t.Helper()
	cfg := core.DefaultConfig()
	cfg.TickInterval = time.Hour
	hub := notify.NewHub(64, nil)
	eng := core.NewEngine(cfg, in_memory.NewItemRepo(), in_memory.NewBidderRepo(), in_memory.NewCache(), hub, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
		hub.Close()
	})

	srv, err := NewHTTPServer(eng, core.NewDirectory(eng), hub, Options{DedupSize: 16, BidRateLimit: rateLimit})
	assert.NoError(t, err)
	return &testAPI{t: t, router: srv.Router(), srv: srv}
}

func (a *testAPI) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		assert.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func (a *testAPI) createItem(name string, basePrice int64) domain.Item {
	a.t.Helper()
	w := a.do(http.MethodPost, "/items", dto.CreateItemRequest{Name: name, BasePrice: basePrice})
	assert.Equal(a.t, http.StatusCreated, w.Code)
	return decode[domain.Item](a.t, w)
}

func (a *testAPI) createBidder(name string, budget int64) domain.Bidder {
	a.t.Helper()
	w := a.do(http.MethodPost, "/bidders", dto.CreateBidderRequest{Name: name, Budget: &budget})
	assert.Equal(a.t, http.StatusCreated, w.Code)
	return decode[domain.Bidder](a.t, w)
}

func TestAuctionFlow(t *testing.T) {
	a := newTestAPI(t, 0)
	p := a.createItem("Manuel Neuer", 8)
	teamA := a.createBidder("A", 100)
	teamB := a.createBidder("B", 100)

	w := a.do(http.MethodGet, "/auction/status", nil)
	check.Equal(t, http.StatusOK, w.Code)
	check.False(t, decode[domain.Snapshot](t, w).IsRunning)

	w = a.do(http.MethodPost, "/auction/start/"+p.ID, nil)
	check.Equal(t, http.StatusOK, w.Code)
	check.Equal(t, domain.Auctioning, decode[domain.Item](t, w).Status)

	w = a.do(http.MethodPost, "/auction/bid", dto.BidRequest{ItemID: p.ID, BidderID: teamA.ID, Amount: 9})
	check.Equal(t, http.StatusOK, w.Code)
	bid := decode[dto.BidResponse](t, w)
	check.True(t, bid.Accepted)
	check.Equal(t, int64(9), bid.State.HighestBid)

	w = a.do(http.MethodPost, "/auction/bid", dto.BidRequest{ItemID: p.ID, BidderID: teamB.ID, Amount: 9})
	check.Equal(t, http.StatusBadRequest, w.Code)
	errResp := decode[dto.ErrorResponse](t, w)
	check.Equal(t, string(domain.CodeInvalidIncrement), errResp.Code)
	check.Equal(t, "bid must be exactly 10 (current 9 + increment 1), got 9", errResp.Error)

	w = a.do(http.MethodPost, "/auction/end/"+p.ID, nil)
	check.Equal(t, http.StatusOK, w.Code)
	res := decode[domain.Resolved](t, w)
	check.True(t, res.Sold)
	check.Equal(t, teamA.ID, *res.BidderID)

	w = a.do(http.MethodGet, "/bidders/"+teamA.ID+"/summary", nil)
	check.Equal(t, http.StatusOK, w.Code)
	sum := decode[domain.BidderSummary](t, w)
	check.Equal(t, int64(9), sum.Spent)
	check.Equal(t, int64(91), sum.Remaining)

	w = a.do(http.MethodGet, "/items/owner/"+teamA.ID, nil)
	check.Equal(t, http.StatusOK, w.Code)
	check.Equal(t, 1, len(decode[[]domain.Item](t, w)))

	w = a.do(http.MethodGet, "/items/status/SOLD", nil)
	check.Equal(t, http.StatusOK, w.Code)
	check.Equal(t, 1, len(decode[[]domain.Item](t, w)))

	w = a.do(http.MethodPost, "/auction/next", nil)
	check.Equal(t, http.StatusBadRequest, w.Code)
	check.Equal(t, string(domain.CodeNoItemsAvailable), decode[dto.ErrorResponse](t, w).Code)

	w = a.do(http.MethodPost, "/auction/reset", nil)
	check.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/bidders/"+teamA.ID, nil)
	check.Equal(t, int64(100), decode[domain.Bidder](t, w).Budget)
}

func TestErrorStatusMapping(t *testing.T) {
	a := newTestAPI(t, 0)
	p := a.createItem("p", 3)
	q := a.createItem("q", 3)

	w := a.do(http.MethodPost, "/auction/start/missing", nil)
	check.Equal(t, http.StatusNotFound, w.Code)
	check.Equal(t, string(domain.CodeNotFound), decode[dto.ErrorResponse](t, w).Code)

	w = a.do(http.MethodPost, "/auction/start/"+p.ID, nil)
	check.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodPost, "/auction/start/"+q.ID, nil)
	check.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodPost, "/auction/end/"+q.ID, nil)
	check.Equal(t, http.StatusBadRequest, w.Code)
	check.Equal(t, string(domain.CodeWrongLot), decode[dto.ErrorResponse](t, w).Code)

	w = a.do(http.MethodDelete, "/items/"+p.ID, nil)
	check.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/auction/bid", map[string]any{"item_id": p.ID, "amount": 4})
	check.Equal(t, http.StatusBadRequest, w.Code)
	check.Equal(t, codeInvalidRequest, decode[dto.ErrorResponse](t, w).Code)
}

func TestNextItemWithoutBody(t *testing.T) {
	a := newTestAPI(t, 0)
	p := a.createItem("p", 3)

	w := a.do(http.MethodPost, "/auction/next", nil)
	check.Equal(t, http.StatusOK, w.Code)
	res := decode[core.NextResult](t, w)
	check.Equal(t, p.ID, res.Started.ID)
}

func TestBidDefaultsToCurrentLotAndDedups(t *testing.T) {
	a := newTestAPI(t, 0)
	p := a.createItem("p", 3)
	team := a.createBidder("team", 10)
	check.Equal(t, http.StatusOK, a.do(http.MethodPost, "/auction/start/"+p.ID, nil).Code)

	req := dto.BidRequest{BidID: "bid-1", BidderID: team.ID, Amount: 4}
	w := a.do(http.MethodPost, "/auction/bid", req)
	check.Equal(t, http.StatusOK, w.Code)
	check.False(t, decode[dto.BidResponse](t, w).Duplicate)

	w = a.do(http.MethodPost, "/auction/bid", req)
	check.Equal(t, http.StatusOK, w.Code)
	check.True(t, decode[dto.BidResponse](t, w).Duplicate)

	w = a.do(http.MethodGet, "/auction/status", nil)
	check.Equal(t, int64(4), decode[domain.Snapshot](t, w).HighestBid)
}

func TestBidRateLimit(t *testing.T) {
	a := newTestAPI(t, time.Hour)
	p := a.createItem("p", 3)
	team := a.createBidder("team", 10)
	check.Equal(t, http.StatusOK, a.do(http.MethodPost, "/auction/start/"+p.ID, nil).Code)

	w := a.do(http.MethodPost, "/auction/bid", dto.BidRequest{BidderID: team.ID, Amount: 4}, middleware.BidderHeader, team.ID)
	check.Equal(t, http.StatusOK, w.Code)
	w = a.do(http.MethodPost, "/auction/bid", dto.BidRequest{BidderID: team.ID, Amount: 5}, middleware.BidderHeader, team.ID)
	check.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestDirectoryCRUD(t *testing.T) {
	a := newTestAPI(t, 0)
	p := a.createItem("p", 3)

	w := a.do(http.MethodPatch, "/items/"+p.ID, map[string]any{"name": "renamed", "base_price": 6})
	check.Equal(t, http.StatusOK, w.Code)
	it := decode[domain.Item](t, w)
	check.Equal(t, "renamed", it.Name)
	check.Equal(t, int64(6), it.BasePrice)

	w = a.do(http.MethodGet, "/items", nil)
	check.Equal(t, 1, len(decode[[]domain.Item](t, w)))

	w = a.do(http.MethodDelete, "/items/"+p.ID, nil)
	check.Equal(t, http.StatusNoContent, w.Code)
	w = a.do(http.MethodGet, "/items/"+p.ID, nil)
	check.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodPost, "/bidders", map[string]any{"name": "team"})
	check.Equal(t, http.StatusCreated, w.Code)
	b := decode[domain.Bidder](t, w)
	check.Equal(t, int64(100), b.Budget)

	w = a.do(http.MethodPatch, "/bidders/"+b.ID, map[string]any{"budget": 50})
	check.Equal(t, http.StatusOK, w.Code)
	check.Equal(t, int64(50), decode[domain.Bidder](t, w).Budget)

	w = a.do(http.MethodGet, "/bidders", nil)
	check.Equal(t, 1, len(decode[[]domain.Bidder](t, w)))

	w = a.do(http.MethodGet, "/bidders/"+b.ID+"/items", nil)
	check.Equal(t, http.StatusOK, w.Code)
	check.Equal(t, 0, len(decode[[]domain.Item](t, w)))

	w = a.do(http.MethodDelete, "/bidders/"+b.ID, nil)
	check.Equal(t, http.StatusNoContent, w.Code)

	w = a.do(http.MethodPost, "/bidders", map[string]any{"name": "neg", "budget": -5})
	check.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIncrementAndHealth(t *testing.T) {
	a := newTestAPI(t, 0)
	w := a.do(http.MethodGet, "/auction/bid-increment", nil)
	check.Equal(t, http.StatusOK, w.Code)
	inc := decode[dto.IncrementResponse](t, w)
	check.Equal(t, int64(1), inc.Increment)
	check.Equal(t, 20, inc.CountdownSeconds)

	w = a.do(http.MethodGet, "/healthz", nil)
	check.Equal(t, http.StatusOK, w.Code)
}

type wsMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dialWS(t *testing.T, a *testAPI) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(a.router)
	t.Cleanup(server.Close)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	assert.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var m wsMessage
	assert.NoError(t, conn.ReadJSON(&m))
	return m
}

func TestWebsocketSnapshotThenEvents(t *testing.T) {
	a := newTestAPI(t, 0)
	p := a.createItem("p", 3)
	team := a.createBidder("team", 10)
	check.Equal(t, http.StatusOK, a.do(http.MethodPost, "/auction/start/"+p.ID, nil).Code)

	conn := dialWS(t, a)
	first := readWS(t, conn)
	check.Equal(t, string(domain.KindStateSnapshot), first.Event)
	var snap domain.Snapshot
	assert.NoError(t, json.Unmarshal(first.Data, &snap))
	check.True(t, snap.IsRunning)
	check.Equal(t, p.ID, *snap.CurrentItemID)

	assert.NoError(t, conn.WriteJSON(map[string]any{
		"event": "bid",
		"data":  map[string]any{"bidder_id": team.ID, "amount": 4},
	}))

	seen := map[string]bool{}
	for !(seen["bidAcknowledged"] && seen[string(domain.KindBidPlaced)]) {
		m := readWS(t, conn)
		seen[m.Event] = true
		if m.Event == "bidAcknowledged" {
			var ack dto.Ack
			assert.NoError(t, json.Unmarshal(m.Data, &ack))
			check.True(t, ack.Success)
		}
	}

	assert.NoError(t, conn.WriteJSON(map[string]any{"event": "sellPlayer", "data": map[string]any{"item_id": "wrong"}}))
	for {
		m := readWS(t, conn)
		if m.Event == "sellPlayerError" {
			var ack dto.Ack
			assert.NoError(t, json.Unmarshal(m.Data, &ack))
			check.False(t, ack.Success)
			check.Equal(t, string(domain.CodeWrongLot), ack.Code)
			break
		}
	}

	assert.NoError(t, conn.WriteJSON(map[string]any{"event": "nextPlayer"}))
	for {
		m := readWS(t, conn)
		if m.Event == "nextPlayerError" {
			var ack dto.Ack
			assert.NoError(t, json.Unmarshal(m.Data, &ack))
			check.Equal(t, string(domain.CodeNoItemsAvailable), ack.Code)
			break
		}
	}

	assert.NoError(t, conn.WriteJSON(map[string]any{"event": "dance"}))
	for {
		m := readWS(t, conn)
		if m.Event == "danceError" {
			var ack dto.Ack
			assert.NoError(t, json.Unmarshal(m.Data, &ack))
			check.Equal(t, codeInvalidRequest, ack.Code)
			break
		}
	}
}

func TestCancelledRequestDoesNotReachEngine(t *testing.T) {
	a := newTestAPI(t, 0)
	p := a.createItem("p", 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/auction/start/"+p.ID, nil).WithContext(ctx)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	check.Equal(t, statusClientClosed, w.Code)
	check.Equal(t, codeCanceled, decode[dto.ErrorResponse](t, w).Code)

	w = a.do(http.MethodGet, "/auction/status", nil)
	check.False(t, decode[domain.Snapshot](t, w).IsRunning)
}
