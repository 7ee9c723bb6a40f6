package registry

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCatalog implements Catalog using a `standards` collection.
type MongoCatalog struct {
	col *mongo.Collection
}

func NewMongoCatalog(col *mongo.Collection) *MongoCatalog {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "acronym", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoCatalog{col: col}
}

func (c *MongoCatalog) Create(ctx context.Context, s *Standard) error {
	if _, err := c.col.InsertOne(ctx, s); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrStandardExists
		}
		return fmt.Errorf("insert standard: %w", err)
	}
	return nil
}

func (c *MongoCatalog) Get(ctx context.Context, acronym string) (*Standard, error) {
	var s Standard
	if err := c.col.FindOne(ctx, bson.M{"acronym": acronym}).Decode(&s); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrStandardNotFound
		}
		return nil, fmt.Errorf("get standard: %w", err)
	}
	return &s, nil
}

func (c *MongoCatalog) List(ctx context.Context) ([]*Standard, error) {
	cur, err := c.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list standards: %w", err)
	}
	defer cur.Close(ctx)
	out := []*Standard{}
	for cur.Next(ctx) {
		var s Standard
		if err := cur.Decode(&s); err != nil {
			return nil, fmt.Errorf("decode standard: %w", err)
		}
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Acronym < out[j].Acronym })
	return out, cur.Err()
}

func (c *MongoCatalog) Delete(ctx context.Context, acronym string) error {
	res, err := c.col.DeleteOne(ctx, bson.M{"acronym": acronym})
	if err != nil {
		return fmt.Errorf("delete standard: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrStandardNotFound
	}
	return nil
}
