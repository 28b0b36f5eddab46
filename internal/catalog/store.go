package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	ProductsCollection   = "products"
	CategoriesCollection = "categories"
)

// List defaults.
const (
	DefaultListLimit = 1000
	DefaultSort      = "created_at"
)

var sortable = map[string]bool{
	"created_at": true,
	"price":      true,
	"name":       true,
	"rating":     true,
	"stock":      true,
}

// Store reads and writes the product catalog in MongoDB.
type Store struct {
	products   *mongo.Collection
	categories *mongo.Collection
	nowFunc    func() time.Time
}

// NewStore binds a Store to db.
func NewStore(db *mongo.Database) *Store {
	return &Store{
		products:   db.Collection(ProductsCollection),
		categories: db.Collection(CategoriesCollection),
		nowFunc:    time.Now,
	}
}

// Normalized fills defaults: page 1, limit 1000 (max 1000), created_at desc.
func (p ListParams) Normalized() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > DefaultListLimit {
		p.Limit = DefaultListLimit
	}
	if !sortable[p.Sort] {
		p.Sort = DefaultSort
	}
	if p.Order != "asc" {
		p.Order = "desc"
	}
	return p
}

func (p ListParams) findOptions() *options.FindOptions {
	dir := -1
	if p.Order == "asc" {
		dir = 1
	}
	return options.Find().
		SetSkip(int64((p.Page - 1) * p.Limit)).
		SetLimit(int64(p.Limit)).
		SetSort(bson.D{{Key: p.Sort, Value: dir}})
}

// List returns one page of products and the total count.
func (s *Store) List(ctx context.Context, params ListParams) (ListResult, error) {
	params = params.Normalized()

	count, err := s.products.CountDocuments(ctx, bson.M{})
	if err != nil {
		return ListResult{}, fmt.Errorf("count products: %w", err)
	}
	products, err := s.find(ctx, bson.M{}, params.findOptions())
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{
		Products:   products,
		Count:      count,
		Page:       params.Page,
		TotalPages: int(math.Ceil(float64(count) / float64(params.Limit))),
	}, nil
}

// BuildFilter translates FilterParams into a Mongo filter document.
func BuildFilter(f FilterParams) bson.M {
	filter := bson.M{}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	if f.Brand != "" {
		filter["brand"] = f.Brand
	}
	if f.Condition != "" {
		filter["condition"] = f.Condition
	}
	if f.Category != "" {
		filter["category_id"] = f.Category
	}
	if f.InStock {
		filter["stock"] = bson.M{"$gt": 0}
	}
	return filter
}

// Filter returns products matching f.
func (s *Store) Filter(ctx context.Context, f FilterParams) ([]Product, error) {
	return s.find(ctx, BuildFilter(f), options.Find().SetSort(bson.D{{Key: DefaultSort, Value: -1}}))
}

// SearchFilter matches q case-insensitively against name, description and brand.
// q is treated literally.
func SearchFilter(q string) bson.M {
	rx := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"name": bson.M{"$regex": rx}},
		bson.M{"description": bson.M{"$regex": rx}},
		bson.M{"brand": bson.M{"$regex": rx}},
	}}
}

// Search returns products whose name, description or brand contains q.
func (s *Store) Search(ctx context.Context, q string) ([]Product, error) {
	return s.find(ctx, SearchFilter(q), nil)
}

// ByCategory returns products in a category.
func (s *Store) ByCategory(ctx context.Context, categoryID string) ([]Product, error) {
	return s.find(ctx, bson.M{"category_id": categoryID}, nil)
}

// ByBrand returns products of a brand, matched case-insensitively.
func (s *Store) ByBrand(ctx context.Context, brand string) ([]Product, error) {
	rx := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(brand) + "$", Options: "i"}
	return s.find(ctx, bson.M{"brand": bson.M{"$regex": rx}}, nil)
}

// All returns the whole catalog, newest first.
func (s *Store) All(ctx context.Context) ([]Product, error) {
	return s.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: DefaultSort, Value: -1}}))
}

// Get fetches a product by id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := s.products.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product %s: %w", id, err)
	}
	return &p, nil
}

// Create inserts p with a fresh id and timestamps.
func (s *Store) Create(ctx context.Context, p Product) (*Product, error) {
	now := s.nowFunc().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.products.InsertOne(ctx, p); err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return &p, nil
}

// Update replaces the product with id, keeping its creation time.
// Returns (nil, nil) if not found.
func (s *Store) Update(ctx context.Context, id string, p Product) (*Product, error) {
	current, err := s.Get(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}
	p.ID = id
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = s.nowFunc().UTC()
	// rating is owned by reviews
	p.Rating = current.Rating
	p.ReviewsCount = current.ReviewsCount

	res, err := s.products.ReplaceOne(ctx, bson.M{"_id": id}, p)
	if err != nil {
		return nil, fmt.Errorf("replace product %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return nil, nil
	}
	return &p, nil
}

// Delete removes a product. It reports whether anything was deleted.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete product %s: %w", id, err)
	}
	return res.DeletedCount > 0, nil
}

// SetRating stores a recomputed rating and review count.
func (s *Store) SetRating(ctx context.Context, id string, rating float64, count int) error {
	_, err := s.products.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"rating":        rating,
		"reviews_count": count,
		"updated_at":    s.nowFunc().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("set rating %s: %w", id, err)
	}
	return nil
}

// SetStock sets a product's stock level. Returns (nil, nil) if not found.
func (s *Store) SetStock(ctx context.Context, id string, stock int) (*Product, error) {
	var p Product
	err := s.products.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"stock": stock, "updated_at": s.nowFunc().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("set stock %s: %w", id, err)
	}
	return &p, nil
}

// Categories lists every category by name.
func (s *Store) Categories(ctx context.Context) ([]Category, error) {
	cur, err := s.categories.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	defer cur.Close(ctx)
	out := []Category{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return out, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]Product, error) {
	if opts == nil {
		opts = options.Find()
	}
	cur, err := s.products.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cur.Close(ctx)
	out := []Product{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return out, nil
}
