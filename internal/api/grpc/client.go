package grpc

import (
	"context"

	"github.com/olyamironova/auction-engine/internal/core"
	"github.com/olyamironova/auction-engine/internal/domain"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls the auction service over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// call invokes a method whose reply is a Struct and decodes it into out.
func (c *Client) call(ctx context.Context, method string, in proto.Message, out any) error {
	reply := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, reply); err != nil {
		return err
	}
	return fromStruct(reply, out)
}

func (c *Client) StartAuction(ctx context.Context, itemID string) (*domain.Item, error) {
	out := new(domain.Item)
	if err := c.call(ctx, "StartAuction", wrapperspb.String(itemID), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PlaceBid(ctx context.Context, itemID, bidderID string, amount int64) (*domain.Snapshot, error) {
	out := new(domain.Snapshot)
	if err := c.call(ctx, "PlaceBid", NewBidRequest(itemID, bidderID, amount), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Resolve(ctx context.Context, itemID string) (*domain.Resolved, error) {
	out := new(domain.Resolved)
	if err := c.call(ctx, "Resolve", wrapperspb.String(itemID), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) NextItem(ctx context.Context, itemID string) (*core.NextResult, error) {
	out := new(core.NextResult)
	if err := c.call(ctx, "NextItem", wrapperspb.String(itemID), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ResetAll(ctx context.Context) error {
	return c.cc.Invoke(ctx, fullMethod("ResetAll"), &emptypb.Empty{}, &emptypb.Empty{})
}

func (c *Client) GetStatus(ctx context.Context) (*domain.Snapshot, error) {
	out := new(domain.Snapshot)
	if err := c.call(ctx, "GetStatus", &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetIncrement(ctx context.Context) (int64, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, fullMethod("GetIncrement"), &emptypb.Empty{}, out); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

// EventStream receives events from Subscribe.
type EventStream struct {
	stream grpc.ClientStream
}

func (c *Client) Subscribe(ctx context.Context) (*EventStream, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], fullMethod("Subscribe"))
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &EventStream{stream: stream}, nil
}

func (s *EventStream) Recv() (*Event, error) {
	ev := newEvent()
	if err := s.stream.RecvMsg(ev); err != nil {
		return nil, err
	}
	return ev, nil
}
