package reviews

import (
	"context"
	"fmt"
	"log"
)

// RatingRecomputer refreshes a product's aggregate rating after its reviews
// change.
type RatingRecomputer interface {
	RecomputeRating(ctx context.Context, productID string) error
}

// Lister lists the reviews of a product.
type Lister interface {
	ListByProduct(ctx context.Context, productID string) ([]Review, error)
}

// RatingSetter stores a product's rating and review count.
type RatingSetter interface {
	SetRating(ctx context.Context, productID string, rating float64, count int) error
}

// EagerRecomputer recomputes inline. It reads every review and writes the
// result back, so two concurrent writes may briefly leave a stale rating
// until the next review.
type EagerRecomputer struct {
	Reviews  Lister
	Products RatingSetter
}

// RecomputeRating implements RatingRecomputer.
func (r EagerRecomputer) RecomputeRating(ctx context.Context, productID string) error {
	list, err := r.Reviews.ListByProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("recompute rating %s: %w", productID, err)
	}
	rating := AverageRating(list)
	if err := r.Products.SetRating(ctx, productID, rating, len(list)); err != nil {
		return fmt.Errorf("recompute rating %s: %w", productID, err)
	}
	log.Printf("[reviews] rating recomputed product_id=%s rating=%.1f count=%d", productID, rating, len(list))
	return nil
}
