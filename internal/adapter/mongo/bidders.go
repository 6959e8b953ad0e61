package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/olyamironova/auction-engine/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type bidderDoc struct {
	ID            string    `bson:"_id"`
	Name          string    `bson:"name"`
	OwnerName     string    `bson:"owner_name"`
	LogoURL       string    `bson:"logo_url"`
	InitialBudget int64     `bson:"initial_budget"`
	Budget        int64     `bson:"budget"`
	Roster        []string  `bson:"roster"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func toBidderDoc(b *domain.Bidder) bidderDoc {
	roster := b.Roster
	if roster == nil {
		roster = []string{}
	}
	return bidderDoc{
		ID:            b.ID,
		Name:          b.Name,
		OwnerName:     b.OwnerName,
		LogoURL:       b.LogoURL,
		InitialBudget: b.InitialBudget,
		Budget:        b.Budget,
		Roster:        roster,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func (d bidderDoc) bidder() *domain.Bidder {
	roster := d.Roster
	if roster == nil {
		roster = []string{}
	}
	return &domain.Bidder{
		ID:            d.ID,
		Name:          d.Name,
		OwnerName:     d.OwnerName,
		LogoURL:       d.LogoURL,
		InitialBudget: d.InitialBudget,
		Budget:        d.Budget,
		Roster:        roster,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (s *Store) CreateBidder(ctx context.Context, b *domain.Bidder) error {
	if b == nil {
		return errors.New("nil bidder")
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now()
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	_, err := s.bidders.InsertOne(ctx, toBidderDoc(b))
	if mongo.IsDuplicateKeyError(err) {
		return domain.InvalidState("bidder " + b.ID + " already exists")
	}
	return err
}

func (s *Store) GetBidder(ctx context.Context, id string) (*domain.Bidder, error) {
	var d bidderDoc
	err := s.bidders.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFound("bidder", id)
	}
	if err != nil {
		return nil, err
	}
	return d.bidder(), nil
}

func (s *Store) ListBidders(ctx context.Context) ([]*domain.Bidder, error) {
	cur, err := s.bidders.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []bidderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	res := make([]*domain.Bidder, 0, len(docs))
	for _, d := range docs {
		res = append(res, d.bidder())
	}
	return res, nil
}

// UpdateBidder is read-modify-write guarded on the budget it read, so a
// concurrent debit makes it fail instead of overwriting the spend.
func (s *Store) UpdateBidder(ctx context.Context, id string, u domain.BidderUpdate) (*domain.Bidder, error) {
	b, err := s.GetBidder(ctx, id)
	if err != nil {
		return nil, err
	}
	readBudget := b.Budget
	if err := b.Apply(u); err != nil {
		return nil, err
	}
	b.UpdatedAt = now()
	res, err := s.bidders.ReplaceOne(ctx, bson.M{"_id": id, "budget": readBudget}, toBidderDoc(b))
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, domain.InvalidState("bidder " + id + " changed concurrently, retry")
	}
	return b, nil
}

func (s *Store) DeleteBidder(ctx context.Context, id string) error {
	res, err := s.bidders.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("bidder", id)
	}
	return nil
}

// DebitBudgetAndAddToRoster applies the debit in one conditional update.
// When nothing matches, the bidder is re-read to report why.
func (s *Store) DebitBudgetAndAddToRoster(ctx context.Context, bidderID, itemID string, amount int64) (*domain.Bidder, error) {
	var d bidderDoc
	err := s.bidders.FindOneAndUpdate(ctx,
		bson.M{"_id": bidderID, "budget": bson.M{"$gte": amount}, "roster": bson.M{"$ne": itemID}},
		bson.M{
			"$inc":  bson.M{"budget": -amount},
			"$push": bson.M{"roster": itemID},
			"$set":  bson.M{"updated_at": now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		b, gerr := s.GetBidder(ctx, bidderID)
		if gerr != nil {
			return nil, gerr
		}
		if b.Owns(itemID) {
			return nil, domain.InvalidState("bidder " + bidderID + " already owns item " + itemID)
		}
		return nil, domain.InsufficientBudget(bidderID, b.Budget, amount)
	}
	if err != nil {
		return nil, err
	}
	return d.bidder(), nil
}

func (s *Store) CreditBudgetAndRemoveFromRoster(ctx context.Context, bidderID, itemID string, amount int64) (*domain.Bidder, error) {
	var d bidderDoc
	err := s.bidders.FindOneAndUpdate(ctx,
		bson.M{"_id": bidderID, "roster": itemID},
		bson.M{
			"$inc":  bson.M{"budget": amount},
			"$pull": bson.M{"roster": itemID},
			"$set":  bson.M{"updated_at": now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, gerr := s.GetBidder(ctx, bidderID); gerr != nil {
			return nil, gerr
		}
		return nil, domain.InvalidState("bidder " + bidderID + " does not own item " + itemID)
	}
	if err != nil {
		return nil, err
	}
	return d.bidder(), nil
}

func (s *Store) ResetAllBidders(ctx context.Context) error {
	_, err := s.bidders.UpdateMany(ctx, bson.M{}, mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "budget", Value: "$initial_budget"},
			{Key: "roster", Value: bson.A{}},
			{Key: "updated_at", Value: now()},
		}}},
	})
	return err
}
