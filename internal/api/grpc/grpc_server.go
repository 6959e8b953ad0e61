package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/olyamironova/auction-engine/internal/core"
	"github.com/olyamironova/auction-engine/internal/domain"
	"github.com/olyamironova/auction-engine/internal/notify"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "auction.Auction"

// AuctionServer is the service contract registered under ServiceName.
// Domain results travel as google.protobuf.Struct in their JSON shape.
type AuctionServer interface {
	StartAuction(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	PlaceBid(ctx context.Context, req *BidRequest) (*structpb.Struct, error)
	Resolve(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	NextItem(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	ResetAll(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error)
	GetStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	GetIncrement(ctx context.Context, req *emptypb.Empty) (*wrapperspb.Int64Value, error)
	Subscribe(req *emptypb.Empty, stream grpc.ServerStream) error
}

var _ AuctionServer = (*GRPCServer)(nil)

type GRPCServer struct {
	Eng    *core.Engine
	Hub    *notify.Hub
	logger *slog.Logger
}

func NewGRPCServer(eng *core.Engine, hub *notify.Hub, logger *slog.Logger) *GRPCServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCServer{Eng: eng, Hub: hub, logger: logger}
}

// NewServer builds a grpc.Server with the auction service registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.logUnary))
	srv := grpc.NewServer(opts...)
	srv.RegisterService(&ServiceDesc, s)
	return srv
}

// Run serves on addr until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc: listen %s: %w", addr, err)
	}
	srv := s.NewServer()
	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()
	s.logger.Info("grpc server listening", "addr", addr)
	if err := srv.Serve(lis); err != nil {
		return fmt.Errorf("grpc: serve: %w", err)
	}
	s.logger.Info("grpc server stopped")
	return nil
}

func (s *GRPCServer) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	c := status.Code(err)
	attrs := []any{"method", info.FullMethod, "code", c.String(), "duration", time.Since(start)}
	switch c {
	case codes.OK:
		s.logger.Debug("grpc call", attrs...)
	case codes.Internal, codes.Unknown:
		s.logger.Error("grpc call", attrs...)
	default:
		s.logger.Warn("grpc call", attrs...)
	}
	return resp, err
}

func (s *GRPCServer) StartAuction(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "item id is required")
	}
	it, err := s.Eng.StartAuction(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(it)
}

func (s *GRPCServer) PlaceBid(ctx context.Context, req *BidRequest) (*structpb.Struct, error) {
	if req.ItemID() == "" || req.BidderID() == "" {
		return nil, status.Error(codes.InvalidArgument, "item_id and bidder_id are required")
	}
	snap, err := s.Eng.PlaceBid(ctx, req.ItemID(), req.BidderID(), req.Amount())
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(snap)
}

func (s *GRPCServer) Resolve(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	res, err := s.Eng.Resolve(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(res)
}

// NextItem starts the oldest pending item when the request value is empty.
func (s *GRPCServer) NextItem(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	res, err := s.Eng.NextItem(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(res)
}

func (s *GRPCServer) ResetAll(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.Eng.ResetAll(ctx); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap, err := s.Eng.Status(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(snap)
}

func (s *GRPCServer) GetIncrement(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	return wrapperspb.Int64(s.Eng.Increment()), nil
}

func encode(v any) (*structpb.Struct, error) {
	st, err := toStruct(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return st, nil
}

// Subscribe streams the current snapshot followed by every later event.
func (s *GRPCServer) Subscribe(_ *emptypb.Empty, stream grpc.ServerStream) error {
	ctx := stream.Context()
	var sub *notify.Subscription
	err := s.Eng.Observe(ctx, func(snap domain.Snapshot) {
		sub = s.Hub.Subscribe(domain.StateSnapshot{Snapshot: snap})
	})
	if err != nil {
		return toStatus(err)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.C():
			if !ok {
				if sub.Evicted() {
					return status.Error(codes.ResourceExhausted, "subscriber fell behind, resubscribe")
				}
				return status.Error(codes.Unavailable, "event stream closed")
			}
			msg, err := toEvent(ev, time.Now())
			if err != nil {
				return status.Errorf(codes.Internal, "encode %s: %v", ev.Kind(), err)
			}
			if err := stream.SendMsg(msg); err != nil {
				return err
			}
		}
	}
}
