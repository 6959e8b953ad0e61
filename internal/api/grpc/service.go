package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unary builds a method descriptor that decodes a fresh Req and calls fn.
func unary[Req proto.Message](name string, newReq func() Req, fn func(AuctionServer, context.Context, Req) (any, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(AuctionServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(name),
			}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return fn(srv.(AuctionServer), ctx, req.(Req))
			})
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuctionServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("StartAuction", newString, func(s AuctionServer, ctx context.Context, r *wrapperspb.StringValue) (any, error) {
			return s.StartAuction(ctx, r)
		}),
		unary("PlaceBid", newBidRequest, func(s AuctionServer, ctx context.Context, r *BidRequest) (any, error) {
			return s.PlaceBid(ctx, r)
		}),
		unary("Resolve", newString, func(s AuctionServer, ctx context.Context, r *wrapperspb.StringValue) (any, error) {
			return s.Resolve(ctx, r)
		}),
		unary("NextItem", newString, func(s AuctionServer, ctx context.Context, r *wrapperspb.StringValue) (any, error) {
			return s.NextItem(ctx, r)
		}),
		unary("ResetAll", newEmpty, func(s AuctionServer, ctx context.Context, r *emptypb.Empty) (any, error) {
			return s.ResetAll(ctx, r)
		}),
		unary("GetStatus", newEmpty, func(s AuctionServer, ctx context.Context, r *emptypb.Empty) (any, error) {
			return s.GetStatus(ctx, r)
		}),
		unary("GetIncrement", newEmpty, func(s AuctionServer, ctx context.Context, r *emptypb.Empty) (any, error) {
			return s.GetIncrement(ctx, r)
		}),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName: "Subscribe",
			Handler: func(srv any, stream grpc.ServerStream) error {
				in := newEmpty()
				if err := stream.RecvMsg(in); err != nil {
					return err
				}
				return srv.(AuctionServer).Subscribe(in, stream)
			},
			ServerStreams: true,
		},
	},
	Metadata: protoFile,
}
