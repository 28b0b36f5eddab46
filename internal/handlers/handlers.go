// Package handlers wires the storefront REST surface onto gin.
package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/DrewGalowayDev/Awesome/internal/accounts"
	"github.com/DrewGalowayDev/Awesome/internal/cart"
	"github.com/DrewGalowayDev/Awesome/internal/catalog"
	"github.com/DrewGalowayDev/Awesome/internal/idempotency"
	"github.com/DrewGalowayDev/Awesome/internal/middleware"
	"github.com/DrewGalowayDev/Awesome/internal/orders"
	"github.com/DrewGalowayDev/Awesome/internal/payments"
	"github.com/DrewGalowayDev/Awesome/internal/reviews"
	"github.com/DrewGalowayDev/Awesome/internal/selection"
	"github.com/DrewGalowayDev/Awesome/internal/validation"
)

// ProductStore is the catalog as seen by the handlers.
type ProductStore interface {
	List(ctx context.Context, params catalog.ListParams) (catalog.ListResult, error)
	All(ctx context.Context) ([]catalog.Product, error)
	Get(ctx context.Context, id string) (*catalog.Product, error)
	Filter(ctx context.Context, f catalog.FilterParams) ([]catalog.Product, error)
	Search(ctx context.Context, q string) ([]catalog.Product, error)
	ByCategory(ctx context.Context, categoryID string) ([]catalog.Product, error)
	ByBrand(ctx context.Context, brand string) ([]catalog.Product, error)
	Create(ctx context.Context, p catalog.Product) (*catalog.Product, error)
	Update(ctx context.Context, id string, p catalog.Product) (*catalog.Product, error)
	Delete(ctx context.Context, id string) (bool, error)
	SetStock(ctx context.Context, id string, stock int) (*catalog.Product, error)
	Categories(ctx context.Context) ([]catalog.Category, error)
	GetCategory(ctx context.Context, id string) (*catalog.Category, error)
	CreateCategory(ctx context.Context, c catalog.Category) (*catalog.Category, error)
	UpdateCategory(ctx context.Context, id string, c catalog.Category) (*catalog.Category, error)
	DeleteCategory(ctx context.Context, id string) (bool, error)
}

// OrderStore is the orders table as seen by the handlers.
type OrderStore interface {
	CreateWithIdempotencyTransaction(ctx context.Context, idempotencyTable string, idempotencyItem any, order orders.Order, ttlWindow time.Duration) error
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	ListByUser(ctx context.Context, userID string) ([]orders.Order, error)
	ListAll(ctx context.Context) ([]orders.Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) (*orders.Order, error)
	Cancel(ctx context.Context, orderID, userID string) (*orders.Order, error)
	MarkPaid(ctx context.Context, orderID, reference string) (*orders.Order, error)
}

// IdempotencyStore remembers checkout and payment keys.
type IdempotencyStore interface {
	TableName() string
	TTL() time.Duration
	NewRecord(key, scope, requestHash, orderID string) idempotency.Record
	CreateIfNotExists(ctx context.Context, rec idempotency.Record) (bool, error)
	Get(ctx context.Context, key string) (*idempotency.Record, error)
	MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error
	MarkFailed(ctx context.Context, key, note string) error
}

// ReviewStore persists reviews.
type ReviewStore interface {
	ListByProduct(ctx context.Context, productID string) ([]reviews.Review, error)
	Create(ctx context.Context, r reviews.Review) (*reviews.Review, error)
	Update(ctx context.Context, id, userID string, rating int, comment string) (*reviews.Review, error)
	Delete(ctx context.Context, id, userID string) (*reviews.Review, error)
}

// WishlistStore persists wishlists.
type WishlistStore interface {
	Get(ctx context.Context, userID string) ([]string, error)
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) (bool, error)
	Clear(ctx context.Context, userID string) error
}

// UserStore reads the user directory.
type UserStore interface {
	List(ctx context.Context) ([]accounts.User, error)
	Get(ctx context.Context, id string) (*accounts.User, error)
}

// Publisher sends order events.
type Publisher interface {
	Publish(ctx context.Context, payload any, attributes map[string]string) error
}

// Deps groups the collaborators of every route.
type Deps struct {
	Products    ProductStore
	Orders      OrderStore
	Idempotency IdempotencyStore
	Reviews     ReviewStore
	Ratings     reviews.RatingRecomputer
	Wishlist    WishlistStore
	Users       UserStore
	Publisher   Publisher
	Payments    payments.Service

	CartSlot      cart.Slot
	CartNamespace string

	// Sections overrides the home page loader; by default it reads the
	// whole catalog with the bundled dataset as fallback.
	Sections *selection.Loader

	Auth        *middleware.Authenticator
	RateLimiter *middleware.RateLimiter

	NotifyHost        string
	NotifyDestination string

	Logger  *log.Logger
	NowFunc func() time.Time
}

type server struct {
	Deps
	v *validatorv10.Validate
}

// Register mounts every route on r.
func Register(r *gin.Engine, d Deps) {
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	if d.NowFunc == nil {
		d.NowFunc = time.Now
	}
	if d.Sections == nil {
		d.Sections = &selection.Loader{
			Primary: selection.SourceFunc(d.Products.All),
			Logger:  d.Logger,
		}
	}
	s := &server{Deps: d, v: validation.New()}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	if d.RateLimiter != nil {
		api.Use(d.RateLimiter.Limit())
	}
	auth := d.Auth.RequireAuth()
	admin := []gin.HandlerFunc{auth, middleware.RequireAdmin()}

	s.registerProducts(api, admin)
	s.registerCart(api.Group("/cart", auth))
	s.registerWishlist(api.Group("/wishlist", auth))
	s.registerOrders(api.Group("/orders", auth))
	s.registerReviews(api, auth)
	s.registerPayments(api.Group("/payments", auth), middleware.RequireAdmin())
	s.registerAdmin(api.Group("/admin", admin...))
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

func (s *server) internalError(c *gin.Context, op string, err error) {
	s.Logger.Printf("[handlers] %s failed path=%s err=%v", op, c.FullPath(), err)
	fail(c, http.StatusInternalServerError, "Server error")
}

func identity(c *gin.Context) middleware.Identity {
	id, _ := middleware.IdentityFrom(c)
	return id
}
