// Package kernel wires persistence, services, the event feed and the HTTP
// route table into one application.
package kernel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hsmarket/storefront/app/controllers"
	"github.com/hsmarket/storefront/app/repositories"
	"github.com/hsmarket/storefront/app/routes"
	"github.com/hsmarket/storefront/app/schema"
	"github.com/hsmarket/storefront/app/services"
	"github.com/hsmarket/storefront/config"
	_ "github.com/hsmarket/storefront/database/migrations"
	"github.com/hsmarket/storefront/pkg/cache"
	"github.com/hsmarket/storefront/pkg/database"
	"github.com/hsmarket/storefront/pkg/event"
	"github.com/hsmarket/storefront/pkg/graphql"
	"github.com/hsmarket/storefront/pkg/logger"
	"github.com/hsmarket/storefront/pkg/metrics"
	"github.com/hsmarket/storefront/pkg/middleware"
	"github.com/hsmarket/storefront/pkg/migration"
	"github.com/hsmarket/storefront/pkg/reqid"
	"github.com/hsmarket/storefront/pkg/response"
	"github.com/hsmarket/storefront/pkg/router"
	"github.com/hsmarket/storefront/pkg/sse"
	"github.com/hsmarket/storefront/pkg/storage"
	"github.com/hsmarket/storefront/pkg/ws"
)

// Options are the collaborators a Kernel is built from. Zero values get
// in-memory defaults, which is what tests use.
type Options struct {
	Store       repositories.Store
	Disk        storage.Disk
	Cache       cache.Store
	Reviews     services.ReviewConfig
	Auth        services.AuthConfig
	UnitPrice   float64
	CORSOrigins []string
	// Ping backs /healthz. Nil always reports healthy.
	Ping func(ctx context.Context) error
}

type Kernel struct {
	Store   repositories.Store
	Events  *event.Bus
	Hub     *ws.Hub
	Stream  *sse.Broker
	Orders  *services.OrderService
	Catalog *services.CatalogService
	Reviews *services.ReviewService
	Auth    *services.AuthService

	disk         storage.Disk
	ping         func(ctx context.Context) error
	loginLimiter *middleware.Limiter
	router       *router.Router
	logSink      *logger.MongoHandler
}

func New(opts Options) (*Kernel, error) {
	if opts.Store.Orders == nil {
		opts.Store = repositories.NewMemoryStore()
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewMemory()
	}

	authSvc, err := services.NewAuthService(opts.Auth, opts.Cache)
	if err != nil {
		return nil, err
	}

	k := &Kernel{
		Store:        opts.Store,
		Events:       event.NewBus(),
		Hub:          ws.NewHub(),
		Stream:       sse.NewBroker(),
		Reviews:      services.NewReviewService(opts.Reviews),
		Auth:         authSvc,
		disk:         opts.Disk,
		ping:         opts.Ping,
		loginLimiter: middleware.NewLimiter(10, time.Minute),
	}
	k.Orders = services.NewOrderService(opts.Store, k.Events, services.OrderConfig{UnitPrice: opts.UnitPrice})
	k.Catalog = services.NewCatalogService(opts.Store, opts.Disk)

	for _, name := range []string{services.EventOrderCreated, services.EventOrderStatusChanged} {
		name := name
		k.Events.Listen(name, func(payload interface{}) { k.publish(name, payload) })
	}

	if !authSvc.Enabled() {
		logger.Warn("admin login disabled: set ADMIN_PASSWORD_HASH")
	}

	r, err := k.buildRouter(opts.CORSOrigins)
	if err != nil {
		return nil, err
	}
	k.router = r
	return k, nil
}

// Boot connects every backend named by the configuration and builds the
// kernel on top of them.
func Boot(ctx context.Context) (*Kernel, error) {
	if err := database.Connect(ctx); err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx)
	if err != nil {
		return nil, err
	}
	disk, err := storage.Open(ctx)
	if err != nil {
		return nil, err
	}

	var sink *logger.MongoHandler
	if config.LogToMongo() && database.Mongo != nil {
		sink = logger.NewMongoHandler(ctx, database.Mongo, "logs", slog.LevelInfo)
		logger.Tee(sink)
	}

	k, err := New(Options{
		Store: store,
		Disk:  disk,
		Cache: cache.Connect(ctx),
		Reviews: services.ReviewConfig{
			APIKey:   config.GeminiAPIKey(),
			Model:    config.GeminiModel(),
			Endpoint: config.GeminiEndpoint(),
		},
		Auth: services.AuthConfig{
			PasswordHash: config.AdminPasswordHash(),
			Password:     config.AdminPassword(),
			Secret:       config.JWTSecret(),
			Production:   config.IsProduction(),
		},
		UnitPrice:   config.OrderUnitPrice(),
		CORSOrigins: config.CORSOrigins(),
		Ping:        database.Ping,
	})
	if err != nil {
		return nil, err
	}
	k.logSink = sink
	return k, nil
}

// OpenStore returns the repositories for the connected backend. SQL
// backends are migrated first.
func OpenStore(ctx context.Context) (repositories.Store, error) {
	switch driver := config.DatabaseDriver(); {
	case driver == "memory":
		logger.Warn("using in-memory store; data is lost on restart")
		return repositories.NewMemoryStore(), nil
	case driver == "mongo":
		if database.Mongo == nil {
			return repositories.Store{}, fmt.Errorf("kernel: mongo is not connected")
		}
		if err := repositories.EnsureMongoIndexes(ctx, database.Mongo); err != nil {
			return repositories.Store{}, err
		}
		return repositories.NewMongoStore(database.Mongo), nil
	default:
		if database.DB == nil {
			return repositories.Store{}, fmt.Errorf("kernel: %s is not connected", driver)
		}
		if err := migration.New(database.DB).WithOutput(io.Discard).Run(); err != nil {
			return repositories.Store{}, err
		}
		return repositories.NewGormStore(database.DB), nil
	}
}

// Start runs the background loops until ctx is cancelled.
func (k *Kernel) Start(ctx context.Context) {
	go k.Hub.Run(ctx)
	go k.loginLimiter.Evict(ctx, time.Minute)
}

// Close flushes the log sink and releases the backend connection.
func (k *Kernel) Close(ctx context.Context) error {
	if k.logSink != nil {
		k.logSink.Close()
	}
	return database.Close(ctx)
}

func (k *Kernel) Handler() http.Handler { return k.router.Handler() }

func (k *Kernel) Routes() []router.Route { return k.router.Routes() }

// publish forwards an order event to both live feeds.
func (k *Kernel) publish(name string, payload interface{}) {
	msg, err := json.Marshal(payload)
	if err != nil {
		logger.Error("live feed: encode event", "event", name, "error", err)
		return
	}
	k.Hub.Publish(msg)
	if err := k.Stream.Publish(name, payload); err != nil {
		logger.Error("event stream: publish", "event", name, "error", err)
	}
}

func (k *Kernel) buildRouter(origins []string) (*router.Router, error) {
	r := router.New()

	// Outermost first: metrics see the full latency, recovery covers the
	// rest of the chain.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(origins)))

	if len(origins) > 0 {
		ws.SetCheckOrigin(func(req *http.Request) bool {
			o := req.Header.Get("Origin")
			for _, allowed := range origins {
				if allowed == "*" || strings.EqualFold(allowed, o) {
					return true
				}
			}
			return false
		})
	}

	r.Get("/healthz", "health", k.health)
	r.Get("/metrics", "metrics", metrics.Handler())

	gqlSchema, err := schema.New(k.Catalog)
	if err != nil {
		return nil, fmt.Errorf("kernel: graphql schema: %w", err)
	}
	r.Get("/graphql", "graphql.query", graphql.Handler(gqlSchema))
	r.Post("/graphql", "graphql.execute", graphql.Handler(gqlSchema))

	if local, ok := k.disk.(*storage.LocalDisk); ok {
		r.Mount("/storage", "storage", http.StripPrefix("/storage", local.Handler()))
	}

	routes.RegisterAPI(r, routes.Controllers{
		Orders:     controllers.NewOrderController(k.Orders),
		Catalog:    controllers.NewCatalogController(k.Catalog),
		Storefront: controllers.NewStorefrontController(k.Reviews, k.Orders.UnitPrice()),
		Admin:      controllers.NewAdminController(k.Auth, k.Hub, k.Stream),
	}, middleware.AdminOnly(k.Auth), k.loginLimiter.Middleware)

	return r, nil
}

func (k *Kernel) health(w http.ResponseWriter, r *http.Request) {
	if k.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := k.ping(ctx); err != nil {
			logger.WithCtx(r.Context()).Warn("health check failed", "error", err)
			response.Error(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	response.Success(w, map[string]interface{}{"status": "ok", "liveClients": k.Hub.ClientCount(), "streamClients": k.Stream.Subscribers()})
}
