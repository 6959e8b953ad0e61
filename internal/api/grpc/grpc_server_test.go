package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/olyamironova/auction-engine/internal/adapter/in_memory"
	"github.com/olyamironova/auction-engine/internal/core"
	"github.com/olyamironova/auction-engine/internal/domain"
	"github.com/olyamironova/auction-engine/internal/notify"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
)

type testService struct {
	client *Client
	dir    *core.Directory
}

func newTestService(t *testing.T) *testService {
	t.Helper()
	cfg := core.DefaultConfig()
	cfg.TickInterval = time.Hour
	hub := notify.NewHub(64, nil)
	eng := core.NewEngine(cfg, in_memory.NewItemRepo(), in_memory.NewBidderRepo(), in_memory.NewCache(), hub, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(eng, hub, nil).NewServer()
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	assert.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		srv.Stop()
		cancel()
		<-done
		hub.Close()
	})
	return &testService{client: NewClient(conn), dir: core.NewDirectory(eng)}
}

func (s *testService) seed(t *testing.T, basePrice, budget int64) (*domain.Item, *domain.Bidder) {
	t.Helper()
	ctx := context.Background()
	it, err := s.dir.CreateItem(ctx, core.NewItem{Name: "p", BasePrice: basePrice})
	assert.NoError(t, err)
	b, err := s.dir.CreateBidder(ctx, core.NewBidder{Name: "team", Budget: &budget})
	assert.NoError(t, err)
	return it, b
}

func TestAuctionOverGRPC(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	it, b := s.seed(t, 5, 50)

	inc, err := s.client.GetIncrement(ctx)
	assert.NoError(t, err)
	check.Equal(t, int64(1), inc)

	started, err := s.client.StartAuction(ctx, it.ID)
	assert.NoError(t, err)
	check.Equal(t, domain.Auctioning, started.Status)

	snap, err := s.client.PlaceBid(ctx, it.ID, b.ID, 6)
	assert.NoError(t, err)
	check.Equal(t, int64(6), snap.HighestBid)
	check.Equal(t, b.ID, *snap.HighestBidderID)

	st, err := s.client.GetStatus(ctx)
	assert.NoError(t, err)
	check.True(t, st.IsRunning)
	check.Equal(t, it.ID, st.Item.ID)

	res, err := s.client.Resolve(ctx, it.ID)
	assert.NoError(t, err)
	check.True(t, res.Sold)
	check.Equal(t, int64(6), *res.FinalPrice)

	assert.NoError(t, s.client.ResetAll(ctx))
	bidder, err := s.dir.Bidder(ctx, b.ID)
	assert.NoError(t, err)
	check.Equal(t, int64(50), bidder.Budget)
}

func TestStatusCodes(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	it, b := s.seed(t, 5, 50)

	_, err := s.client.StartAuction(ctx, "missing")
	check.Equal(t, codes.NotFound, status.Code(err))

	_, err = s.client.StartAuction(ctx, "")
	check.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.client.PlaceBid(ctx, it.ID, b.ID, 6)
	check.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = s.client.StartAuction(ctx, it.ID)
	assert.NoError(t, err)

	_, err = s.client.StartAuction(ctx, it.ID)
	check.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = s.client.PlaceBid(ctx, it.ID, b.ID, 7)
	check.Equal(t, codes.InvalidArgument, status.Code(err))
	check.Equal(t, "bid must be exactly 6 (current 5 + increment 1), got 7", status.Convert(err).Message())

	_, err = s.client.Resolve(ctx, "other")
	check.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestSubscribeStartsWithSnapshot(t *testing.T) {
	s := newTestService(t)
	it, _ := s.seed(t, 5, 50)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream, err := s.client.Subscribe(ctx)
	assert.NoError(t, err)

	first, err := stream.Recv()
	assert.NoError(t, err)
	check.Equal(t, string(domain.KindStateSnapshot), first.Kind())
	check.NotNil(t, first.Timestamp())
	check.True(t, first.Timestamp().IsValid())
	var snap domain.Snapshot
	assert.NoError(t, first.Decode(&snap))
	check.False(t, snap.IsRunning)

	_, err = s.client.StartAuction(ctx, it.ID)
	assert.NoError(t, err)

	ev, err := stream.Recv()
	assert.NoError(t, err)
	check.Equal(t, string(domain.KindAuctionStarted), ev.Kind())
	var started domain.AuctionStarted
	assert.NoError(t, ev.Decode(&started))
	check.Equal(t, it.ID, started.Item.ID)
	check.Equal(t, 20, started.Timer)
}

func TestNextItemOverGRPC(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	it, _ := s.seed(t, 0, 50)

	res, err := s.client.NextItem(ctx, "")
	assert.NoError(t, err)
	check.Nil(t, res.Resolved)
	check.Equal(t, it.ID, res.Started.ID)

	st, err := s.client.GetStatus(ctx)
	assert.NoError(t, err)
	check.Equal(t, int64(1), st.HighestBid)
}

func TestMessagesUseProtobufWireFormat(t *testing.T) {
	req := NewBidRequest("item-1", "team-1", 42)
	check.Equal(t, "auction.BidRequest", string(req.Descriptor().FullName()))

	b, err := proto.Marshal(req)
	assert.NoError(t, err)
	got := newBidRequest()
	assert.NoError(t, proto.Unmarshal(b, got))
	check.Equal(t, "item-1", got.ItemID())
	check.Equal(t, "team-1", got.BidderID())
	check.Equal(t, int64(42), got.Amount())

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ev, err := toEvent(domain.TimerUpdate{Timer: 7}, at)
	assert.NoError(t, err)
	b, err = proto.Marshal(ev)
	assert.NoError(t, err)
	decoded := newEvent()
	assert.NoError(t, proto.Unmarshal(b, decoded))
	check.Equal(t, string(domain.KindTimerUpdate), decoded.Kind())
	check.True(t, at.Equal(decoded.Timestamp().AsTime()))
	var tu domain.TimerUpdate
	assert.NoError(t, decoded.Decode(&tu))
	check.Equal(t, 7, tu.Timer)
}
