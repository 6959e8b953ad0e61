package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/olyamironova/auction-engine/internal/port"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	_ port.ItemRepository   = (*Store)(nil)
	_ port.BidderRepository = (*Store)(nil)
)

// Store keeps items and bidders in two mongo collections. Item order comes
// from a counter document so listings stay in creation order.
type Store struct {
	client   *mongo.Client
	items    *mongo.Collection
	bidders  *mongo.Collection
	counters *mongo.Collection
}

func NewStore(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	db := client.Database(dbName)
	return &Store{
		client:   client,
		items:    db.Collection("items"),
		bidders:  db.Collection("bidders"),
		counters: db.Collection("counters"),
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the indexes used by the listing queries.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.items.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "seq", Value: 1}}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "seq", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("mongo: item indexes: %w", err)
	}
	_, err = s.bidders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("mongo: bidder indexes: %w", err)
	}
	return nil
}

func (s *Store) nextSeq(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("mongo: next %s seq: %w", name, err)
	}
	return doc.Seq, nil
}

func now() time.Time {
	// mongo stores milliseconds
	return time.Now().UTC().Truncate(time.Millisecond)
}
