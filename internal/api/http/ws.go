package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/olyamironova/auction-engine/internal/api/dto"
	"github.com/olyamironova/auction-engine/internal/domain"
	"github.com/olyamironova/auction-engine/internal/notify"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsMaxMessage = 4096
)

// Client actions accepted over the websocket.
const (
	actionBid          = "bid"
	actionStartAuction = "startAuction"
	actionNextPlayer   = "nextPlayer"
	actionSellPlayer   = "sellPlayer"
)

// wsReplies names the success and failure reply for each action. Unknown
// actions are answered with <action>Error.
var wsReplies = map[string]struct{ ack, fail string }{
	actionBid:          {ack: "bidAcknowledged", fail: "bidError"},
	actionStartAuction: {ack: "auctionStarted", fail: "auctionStartError"},
	actionNextPlayer:   {ack: "nextPlayerSet", fail: "nextPlayerError"},
	actionSellPlayer:   {ack: "playerSold", fail: "sellPlayerError"},
}

func replyNames(action string) (ack, fail string) {
	if r, ok := wsReplies[action]; ok {
		return r.ack, r.fail
	}
	return action + "Ack", action + "Error"
}

type outMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// serveWS streams every auction event to the client, starting with the
// current snapshot, and answers each client action with the reply named in
// wsReplies.
func (s *HTTPServer) serveWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	var sub *notify.Subscription
	err = s.eng.Observe(ctx, func(snap domain.Snapshot) {
		sub = s.hub.Subscribe(domain.StateSnapshot{Snapshot: snap})
	})
	if err != nil {
		s.logger.Warn("websocket subscribe failed", "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "engine unavailable"),
			time.Now().Add(wsWriteWait))
		return
	}
	defer sub.Unsubscribe()

	remote := conn.RemoteAddr().String()
	s.logger.Info("websocket client connected", "remote", remote)
	defer s.logger.Info("websocket client disconnected", "remote", remote)

	replies := make(chan outMessage, 16)
	go s.readWS(ctx, cancel, conn, replies)
	s.writeWS(ctx, conn, sub, replies)
}

// writeWS is the only goroutine writing to conn.
func (s *HTTPServer) writeWS(ctx context.Context, conn *websocket.Conn, sub *notify.Subscription, replies <-chan outMessage) {
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	write := func(m outMessage) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(m); err != nil {
			s.logger.Debug("websocket write failed", "error", err)
			return false
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				if sub.Evicted() {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "client fell behind, reconnect"),
						time.Now().Add(wsWriteWait))
				}
				return
			}
			if !write(outMessage{Event: string(ev.Kind()), Data: ev}) {
				return
			}
		case m := <-replies:
			if !write(m) {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func (s *HTTPServer) readWS(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, replies chan<- outMessage) {
	defer cancel()
	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var msg dto.Envelope
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

		reply := s.handleWSMessage(ctx, msg)
		select {
		case replies <- reply:
		case <-ctx.Done():
			return
		}
	}
}

func (s *HTTPServer) handleWSMessage(ctx context.Context, msg dto.Envelope) outMessage {
	ack, fail := replyNames(msg.Event)
	result, err := s.dispatchWS(ctx, msg)
	if err == nil {
		return outMessage{Event: ack, Data: dto.Ack{Success: true, Result: result}}
	}
	code := codeInvalidRequest
	var inErr wsInputError
	if !errors.As(err, &inErr) {
		_, code = statusOf(err)
	}
	if code == codeInternal {
		s.logger.Error("websocket action failed", "action", msg.Event, "error", err)
	}
	return outMessage{
		Event: fail,
		Data:  dto.Ack{Success: false, Error: err.Error(), Code: code},
	}
}

type wsInputError struct{ err error }

func (e wsInputError) Error() string { return e.err.Error() }

func decodeWS(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return wsInputError{err}
	}
	return nil
}

func (s *HTTPServer) dispatchWS(ctx context.Context, msg dto.Envelope) (any, error) {
	switch msg.Event {
	case actionBid:
		var req dto.BidRequest
		if err := decodeWS(msg.Data, &req); err != nil {
			return nil, err
		}
		if req.BidderID == "" || req.Amount <= 0 {
			return nil, wsInputError{errors.New("bid needs bidder_id and a positive amount")}
		}
		return s.submitBid(ctx, req)
	case actionStartAuction:
		var req dto.ItemRequest
		if err := decodeWS(msg.Data, &req); err != nil {
			return nil, err
		}
		return s.eng.StartAuction(ctx, req.ItemID)
	case actionNextPlayer:
		var req dto.NextItemRequest
		if err := decodeWS(msg.Data, &req); err != nil {
			return nil, err
		}
		return s.eng.NextItem(ctx, req.ItemID)
	case actionSellPlayer:
		var req dto.ItemRequest
		if err := decodeWS(msg.Data, &req); err != nil {
			return nil, err
		}
		return s.eng.Resolve(ctx, req.ItemID)
	default:
		return nil, wsInputError{fmt.Errorf("unknown action %q", msg.Event)}
	}
}
