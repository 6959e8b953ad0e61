package grpc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/olyamironova/auction-engine/internal/domain"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// protoFile is auction/auction.proto. It declares the two messages the
// service needs beyond the well-known types:
//
//	message BidRequest {
//	  string item_id = 1;
//	  string bidder_id = 2;
//	  int64 amount = 3;
//	}
//
//	message Event {
//	  string kind = 1;
//	  google.protobuf.Timestamp timestamp = 2;
//	  google.protobuf.Struct data = 3;
//	}
const protoFile = "auction/auction.proto"

var auctionFile = mustFile(&descriptorpb.FileDescriptorProto{
	Name:    proto.String(protoFile),
	Package: proto.String("auction"),
	Syntax:  proto.String("proto3"),
	Dependency: []string{
		"google/protobuf/timestamp.proto",
		"google/protobuf/struct.proto",
	},
	MessageType: []*descriptorpb.DescriptorProto{
		{
			Name: proto.String("BidRequest"),
			Field: []*descriptorpb.FieldDescriptorProto{
				field("item_id", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING, ""),
				field("bidder_id", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING, ""),
				field("amount", 3, descriptorpb.FieldDescriptorProto_TYPE_INT64, ""),
			},
		},
		{
			Name: proto.String("Event"),
			Field: []*descriptorpb.FieldDescriptorProto{
				field("kind", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING, ""),
				field("timestamp", 2, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, ".google.protobuf.Timestamp"),
				field("data", 3, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, ".google.protobuf.Struct"),
			},
		},
	},
})

var (
	bidRequestDesc = auctionFile.Messages().ByName("BidRequest")
	eventDesc      = auctionFile.Messages().ByName("Event")
)

func field(name string, num int32, typ descriptorpb.FieldDescriptorProto_Type, typeName string) *descriptorpb.FieldDescriptorProto {
	f := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(num),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
	if typeName != "" {
		f.TypeName = proto.String(typeName)
	}
	return f
}

func mustFile(fdp *descriptorpb.FileDescriptorProto) protoreflect.FileDescriptor {
	fd, err := protodesc.NewFile(fdp, protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("grpc: build %s: %v", fdp.GetName(), err))
	}
	return fd
}

func fieldOf(m *dynamicpb.Message, name string) protoreflect.FieldDescriptor {
	return m.Descriptor().Fields().ByName(protoreflect.Name(name))
}

// copyMessage moves src into dst through the wire format, so a generated
// message and a dynamic one of the same type can be exchanged.
func copyMessage(dst, src proto.Message) error {
	b, err := proto.Marshal(src)
	if err != nil {
		return err
	}
	return proto.Unmarshal(b, dst)
}

// BidRequest is auction.BidRequest.
type BidRequest struct {
	*dynamicpb.Message
}

func NewBidRequest(itemID, bidderID string, amount int64) *BidRequest {
	r := newBidRequest()
	r.Set(fieldOf(r.Message, "item_id"), protoreflect.ValueOfString(itemID))
	r.Set(fieldOf(r.Message, "bidder_id"), protoreflect.ValueOfString(bidderID))
	r.Set(fieldOf(r.Message, "amount"), protoreflect.ValueOfInt64(amount))
	return r
}

func newBidRequest() *BidRequest {
	return &BidRequest{Message: dynamicpb.NewMessage(bidRequestDesc)}
}

func (r *BidRequest) ItemID() string   { return r.Get(fieldOf(r.Message, "item_id")).String() }
func (r *BidRequest) BidderID() string { return r.Get(fieldOf(r.Message, "bidder_id")).String() }
func (r *BidRequest) Amount() int64    { return r.Get(fieldOf(r.Message, "amount")).Int() }

// Event is auction.Event: one streamed auction event with its body as a
// Struct.
type Event struct {
	*dynamicpb.Message
}

func newEvent() *Event {
	return &Event{Message: dynamicpb.NewMessage(eventDesc)}
}

func toEvent(ev domain.Event, at time.Time) (*Event, error) {
	data, err := toStruct(ev)
	if err != nil {
		return nil, err
	}
	out := newEvent()
	out.Set(fieldOf(out.Message, "kind"), protoreflect.ValueOfString(string(ev.Kind())))
	if err := out.setMessage("timestamp", timestamppb.New(at)); err != nil {
		return nil, err
	}
	if err := out.setMessage("data", data); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Event) setMessage(name string, src proto.Message) error {
	fd := fieldOf(e.Message, name)
	v := e.NewField(fd)
	if err := copyMessage(v.Message().Interface(), src); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	e.Set(fd, v)
	return nil
}

func (e *Event) getMessage(name string, dst proto.Message) error {
	fd := fieldOf(e.Message, name)
	if !e.Has(fd) {
		return nil
	}
	return copyMessage(dst, e.Get(fd).Message().Interface())
}

func (e *Event) Kind() string {
	return e.Get(fieldOf(e.Message, "kind")).String()
}

// Timestamp is when the server sent the event, or nil if unset.
func (e *Event) Timestamp() *timestamppb.Timestamp {
	fd := fieldOf(e.Message, "timestamp")
	if !e.Has(fd) {
		return nil
	}
	ts := new(timestamppb.Timestamp)
	if err := e.getMessage("timestamp", ts); err != nil {
		return nil
	}
	return ts
}

func (e *Event) Data() (*structpb.Struct, error) {
	data := new(structpb.Struct)
	if err := e.getMessage("data", data); err != nil {
		return nil, err
	}
	return data, nil
}

// Decode unmarshals the event body into v.
func (e *Event) Decode(v any) error {
	data, err := e.Data()
	if err != nil {
		return err
	}
	return fromStruct(data, v)
}

// toStruct converts a domain value to a Struct through its JSON form.
// Numbers travel as doubles.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := new(structpb.Struct)
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, err
	}
	return s, nil
}

func fromStruct(s *structpb.Struct, v any) error {
	b, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func newString() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }
func newEmpty() *emptypb.Empty            { return new(emptypb.Empty) }
