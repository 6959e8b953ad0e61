package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/olyamironova/auction-engine/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type itemDoc struct {
	ID         string    `bson:"_id"`
	Seq        int64     `bson:"seq"`
	Name       string    `bson:"name"`
	Position   string    `bson:"position"`
	ImageURL   string    `bson:"image_url"`
	BasePrice  int64     `bson:"base_price"`
	FinalPrice *int64    `bson:"final_price"`
	OwnerID    *string   `bson:"owner_id"`
	Status     string    `bson:"status"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func toItemDoc(it *domain.Item) itemDoc {
	return itemDoc{
		ID:         it.ID,
		Seq:        it.Seq,
		Name:       it.Name,
		Position:   it.Position,
		ImageURL:   it.ImageURL,
		BasePrice:  it.BasePrice,
		FinalPrice: it.FinalPrice,
		OwnerID:    it.OwnerID,
		Status:     string(it.Status),
		CreatedAt:  it.CreatedAt,
		UpdatedAt:  it.UpdatedAt,
	}
}

func (d itemDoc) item() *domain.Item {
	return &domain.Item{
		ID:         d.ID,
		Seq:        d.Seq,
		Name:       d.Name,
		Position:   d.Position,
		ImageURL:   d.ImageURL,
		BasePrice:  d.BasePrice,
		FinalPrice: d.FinalPrice,
		OwnerID:    d.OwnerID,
		Status:     domain.ItemStatus(d.Status),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

var bySeq = bson.D{{Key: "seq", Value: 1}}

func (s *Store) findItems(ctx context.Context, filter bson.M) ([]*domain.Item, error) {
	cur, err := s.items.Find(ctx, filter, options.Find().SetSort(bySeq))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []itemDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	res := make([]*domain.Item, 0, len(docs))
	for _, d := range docs {
		res = append(res, d.item())
	}
	return res, nil
}

func (s *Store) CreateItem(ctx context.Context, it *domain.Item) error {
	if it == nil {
		return errors.New("nil item")
	}
	seq, err := s.nextSeq(ctx, "items")
	if err != nil {
		return err
	}
	it.Seq = seq
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now()
	}
	if it.UpdatedAt.IsZero() {
		it.UpdatedAt = it.CreatedAt
	}
	_, err = s.items.InsertOne(ctx, toItemDoc(it))
	if mongo.IsDuplicateKeyError(err) {
		return domain.InvalidState("item " + it.ID + " already exists")
	}
	return err
}

func (s *Store) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	var d itemDoc
	err := s.items.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFound("item", id)
	}
	if err != nil {
		return nil, err
	}
	return d.item(), nil
}

func (s *Store) ListItems(ctx context.Context) ([]*domain.Item, error) {
	return s.findItems(ctx, bson.M{})
}

func (s *Store) ListItemsByStatus(ctx context.Context, status domain.ItemStatus) ([]*domain.Item, error) {
	return s.findItems(ctx, bson.M{"status": string(status)})
}

func (s *Store) ListItemsByOwner(ctx context.Context, ownerID string) ([]*domain.Item, error) {
	return s.findItems(ctx, bson.M{"owner_id": ownerID})
}

func (s *Store) UpdateItem(ctx context.Context, id string, u domain.ItemUpdate) (*domain.Item, error) {
	set := bson.M{"updated_at": now()}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Position != nil {
		set["position"] = *u.Position
	}
	if u.ImageURL != nil {
		set["image_url"] = *u.ImageURL
	}
	if u.BasePrice != nil {
		set["base_price"] = *u.BasePrice
	}
	return s.updateItem(ctx, id, bson.M{"$set": set})
}

func (s *Store) updateItem(ctx context.Context, id string, update bson.M) (*domain.Item, error) {
	var d itemDoc
	err := s.items.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFound("item", id)
	}
	if err != nil {
		return nil, err
	}
	return d.item(), nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	res, err := s.items.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("item", id)
	}
	return nil
}

func (s *Store) SetItemStatus(ctx context.Context, id string, status domain.ItemStatus, sale *domain.Sale) (*domain.Item, error) {
	set := bson.M{
		"status":      string(status),
		"owner_id":    nil,
		"final_price": nil,
		"updated_at":  now(),
	}
	if sale != nil {
		set["owner_id"] = sale.OwnerID
		set["final_price"] = sale.FinalPrice
	}
	it, err := s.updateItem(ctx, id, bson.M{"$set": set})
	if err != nil && domain.CodeOf(err) == "" {
		return nil, fmt.Errorf("mongo: set item %s %s: %w", id, status, err)
	}
	return it, err
}

func (s *Store) FindOnePending(ctx context.Context) (*domain.Item, error) {
	var d itemDoc
	err := s.items.FindOne(ctx, bson.M{"status": string(domain.Pending)},
		options.FindOne().SetSort(bySeq)).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d.item(), nil
}

func (s *Store) ResetAllItems(ctx context.Context) error {
	_, err := s.items.UpdateMany(ctx, bson.M{}, bson.M{"$set": bson.M{
		"status":      string(domain.Pending),
		"owner_id":    nil,
		"final_price": nil,
		"updated_at":  now(),
	}})
	return err
}
