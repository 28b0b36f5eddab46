// Package wishlist keeps each user's saved product ids.
package wishlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection holds one wishlist document per user.
const Collection = "wishlists"

// Wishlist is a set of product ids keyed by user id.
type Wishlist struct {
	UserID     string    `bson:"_id" json:"user_id"`
	ProductIDs []string  `bson:"product_ids" json:"product_ids"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

// Store reads and writes wishlists in MongoDB.
type Store struct {
	lists   *mongo.Collection
	nowFunc func() time.Time
}

// NewStore binds a Store to db.
func NewStore(db *mongo.Database) *Store {
	return &Store{lists: db.Collection(Collection), nowFunc: time.Now}
}

// Get returns the user's product ids. A user without a wishlist has an
// empty one.
func (s *Store) Get(ctx context.Context, userID string) ([]string, error) {
	var w Wishlist
	err := s.lists.FindOne(ctx, bson.M{"_id": userID}).Decode(&w)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find wishlist %s: %w", userID, err)
	}
	if w.ProductIDs == nil {
		w.ProductIDs = []string{}
	}
	return w.ProductIDs, nil
}

// Add saves productID. Adding twice is a no-op.
func (s *Store) Add(ctx context.Context, userID, productID string) error {
	_, err := s.lists.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$addToSet": bson.M{"product_ids": productID},
			"$set":      bson.M{"updated_at": s.nowFunc().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("add to wishlist %s: %w", userID, err)
	}
	return nil
}

// Remove drops productID. It reports whether the wishlist changed.
func (s *Store) Remove(ctx context.Context, userID, productID string) (bool, error) {
	res, err := s.lists.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$pull": bson.M{"product_ids": productID},
			"$set":  bson.M{"updated_at": s.nowFunc().UTC()},
		},
	)
	if err != nil {
		return false, fmt.Errorf("remove from wishlist %s: %w", userID, err)
	}
	return res.ModifiedCount > 0, nil
}

// Clear empties the user's wishlist.
func (s *Store) Clear(ctx context.Context, userID string) error {
	_, err := s.lists.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"product_ids": bson.A{}, "updated_at": s.nowFunc().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("clear wishlist %s: %w", userID, err)
	}
	return nil
}
