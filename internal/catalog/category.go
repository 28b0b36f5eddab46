package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Slugify lowercases name and joins its words with dashes.
func Slugify(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-"))
}

func (c Category) withDefaults() Category {
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	if c.Color == "" {
		c.Color = DefaultCategoryColor
	}
	return c
}

// GetCategory returns the category with id, or (nil, nil) when there is none.
func (s *Store) GetCategory(ctx context.Context, id string) (*Category, error) {
	var c Category
	err := s.categories.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category %s: %w", id, err)
	}
	return &c, nil
}

// CreateCategory inserts c with a fresh id. A missing slug is derived from
// the name and a missing color is DefaultCategoryColor.
func (s *Store) CreateCategory(ctx context.Context, c Category) (*Category, error) {
	now := s.nowFunc().UTC()
	c = c.withDefaults()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.categories.InsertOne(ctx, c); err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return &c, nil
}

// UpdateCategory replaces the category with id, keeping its creation time.
// Returns (nil, nil) if not found.
func (s *Store) UpdateCategory(ctx context.Context, id string, c Category) (*Category, error) {
	current, err := s.GetCategory(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}
	c = c.withDefaults()
	c.ID = id
	c.CreatedAt = current.CreatedAt
	c.UpdatedAt = s.nowFunc().UTC()

	res, err := s.categories.ReplaceOne(ctx, bson.M{"_id": id}, c)
	if err != nil {
		return nil, fmt.Errorf("replace category %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return nil, nil
	}
	return &c, nil
}

// DeleteCategory removes a category. Products keep their category_id and
// simply stop being counted under it.
func (s *Store) DeleteCategory(ctx context.Context, id string) (bool, error) {
	res, err := s.categories.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete category %s: %w", id, err)
	}
	return res.DeletedCount > 0, nil
}
