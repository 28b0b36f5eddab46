package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/DrewGalowayDev/Awesome/internal/accounts"
	"github.com/DrewGalowayDev/Awesome/internal/aws"
	"github.com/DrewGalowayDev/Awesome/internal/cart"
	"github.com/DrewGalowayDev/Awesome/internal/catalog"
	"github.com/DrewGalowayDev/Awesome/internal/config"
	"github.com/DrewGalowayDev/Awesome/internal/handlers"
	"github.com/DrewGalowayDev/Awesome/internal/idempotency"
	"github.com/DrewGalowayDev/Awesome/internal/middleware"
	"github.com/DrewGalowayDev/Awesome/internal/mongodb"
	"github.com/DrewGalowayDev/Awesome/internal/orders"
	"github.com/DrewGalowayDev/Awesome/internal/payments"
	"github.com/DrewGalowayDev/Awesome/internal/reviews"
	"github.com/DrewGalowayDev/Awesome/internal/selection"
	"github.com/DrewGalowayDev/Awesome/internal/wishlist"
)

// remoteCatalogPath is the secondary source queried when the local catalog
// is unavailable or empty.
const remoteCatalogPath = "/api/products?limit=100"

func setupRouter(cfg *config.Config, deps handlers.Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Server.RunLocal {
		r.Use(gin.Logger())
	}
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))

	handlers.Register(r, deps)

	return r
}

func cartSlot(cfg config.RedisConfig) cart.Slot {
	if cfg.Addr == "" {
		log.Printf("[api] no redis configured, carts are kept in memory")
		return cart.NewMemorySlot()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return cart.NewRedisSlot(client, cfg.CartTTL)
}

func buildDeps(ctx context.Context, cfg *config.Config) (handlers.Deps, error) {
	clients, err := aws.NewClients(ctx)
	if err != nil {
		return handlers.Deps{}, err
	}
	_, db, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return handlers.Deps{}, err
	}

	products := catalog.NewStore(db)
	reviewStore := reviews.NewStore(db)
	orderStore := orders.NewStore(clients.DynamoDB, cfg.Tables.Orders)

	sections := &selection.Loader{Primary: selection.SourceFunc(products.All)}
	if cfg.Catalog.BaseURL != "" {
		remote := catalog.NewClient(cfg.Catalog.BaseURL, nil)
		sections.Secondary = selection.SourceFunc(func(ctx context.Context) ([]catalog.Product, error) {
			return remote.FetchProducts(ctx, remoteCatalogPath)
		})
	}

	deps := handlers.Deps{
		Products:      products,
		Orders:        orderStore,
		Idempotency:   idempotency.NewStore(clients.DynamoDB, cfg.Tables.Idempotency, cfg.Tables.IdempotencyTTL),
		Reviews:       reviewStore,
		Ratings:       reviews.EagerRecomputer{Reviews: reviewStore, Products: products},
		Wishlist:      wishlist.NewStore(db),
		Users:         accounts.NewStore(db),
		Publisher:     aws.NewPublisher(clients.SQS, cfg.Queue.OrdersURL),
		Payments:      payments.Service{Orders: orderStore, Provider: payments.ManualProvider{}},
		CartSlot:      cartSlot(cfg.Redis),
		CartNamespace: cfg.Redis.Namespace,
		Sections:      sections,
		Auth:          middleware.NewAuthenticator(cfg.Auth.JWTSecret),

		NotifyHost:        cfg.Notify.Host,
		NotifyDestination: cfg.Notify.Destination,
	}
	if cfg.RateLimit.PerMinute > 0 {
		deps.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	}
	return deps, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	deps, err := buildDeps(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to init dependencies: %v", err)
	}

	r := setupRouter(cfg, deps)

	// if RUN_LOCAL is set, run local HTTP server for development.
	if cfg.Server.RunLocal {
		log.Printf("running local server on %s", cfg.Server.Addr)
		if err := r.Run(cfg.Server.Addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
