// Package reviews stores product reviews and keeps product ratings current.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection holds review documents.
const Collection = "reviews"

// Review is one customer's rating of a product.
type Review struct {
	ID        string    `bson:"_id" json:"id"`
	ProductID string    `bson:"product_id" json:"product_id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	UserName  string    `bson:"user_name,omitempty" json:"user_name,omitempty"`
	Rating    int       `bson:"rating" json:"rating"`
	Comment   string    `bson:"comment" json:"comment"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ErrNotOwner is returned when a user edits someone else's review.
var ErrNotOwner = errors.New("review belongs to another user")

// Store reads and writes reviews in MongoDB.
type Store struct {
	reviews *mongo.Collection
	nowFunc func() time.Time
}

// NewStore binds a Store to db.
func NewStore(db *mongo.Database) *Store {
	return &Store{reviews: db.Collection(Collection), nowFunc: time.Now}
}

// ListByProduct returns the reviews of a product, newest first.
func (s *Store) ListByProduct(ctx context.Context, productID string) ([]Review, error) {
	cur, err := s.reviews.Find(ctx, bson.M{"product_id": productID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find reviews %s: %w", productID, err)
	}
	defer cur.Close(ctx)
	out := []Review{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	return out, nil
}

// Get fetches a review by id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, id string) (*Review, error) {
	var r Review
	err := s.reviews.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find review %s: %w", id, err)
	}
	return &r, nil
}

// Create inserts r with a fresh id and timestamps.
func (s *Store) Create(ctx context.Context, r Review) (*Review, error) {
	now := s.nowFunc().UTC()
	r.ID = uuid.NewString()
	r.CreatedAt = now
	r.UpdatedAt = now
	if _, err := s.reviews.InsertOne(ctx, r); err != nil {
		return nil, fmt.Errorf("insert review: %w", err)
	}
	return &r, nil
}

// Update changes the rating and comment of a review owned by userID.
// Returns (nil, nil) if not found and ErrNotOwner for another user's review.
func (s *Store) Update(ctx context.Context, id, userID string, rating int, comment string) (*Review, error) {
	current, err := s.Get(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}
	if current.UserID != userID {
		return nil, ErrNotOwner
	}
	current.Rating = rating
	current.Comment = comment
	current.UpdatedAt = s.nowFunc().UTC()
	_, err = s.reviews.UpdateOne(ctx, bson.M{"_id": id, "user_id": userID}, bson.M{"$set": bson.M{
		"rating":     rating,
		"comment":    comment,
		"updated_at": current.UpdatedAt,
	}})
	if err != nil {
		return nil, fmt.Errorf("update review %s: %w", id, err)
	}
	return current, nil
}

// Delete removes a review. An empty userID skips the ownership check. It
// returns the deleted review, or (nil, nil) if there was none.
func (s *Store) Delete(ctx context.Context, id, userID string) (*Review, error) {
	current, err := s.Get(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}
	if userID != "" && current.UserID != userID {
		return nil, ErrNotOwner
	}
	if _, err := s.reviews.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return nil, fmt.Errorf("delete review %s: %w", id, err)
	}
	return current, nil
}

// AverageRating is the mean rating rounded to one decimal, 0 with no reviews.
func AverageRating(list []Review) float64 {
	if len(list) == 0 {
		return 0
	}
	sum := 0
	for _, r := range list {
		sum += r.Rating
	}
	return math.Round(float64(sum)/float64(len(list))*10) / 10
}
