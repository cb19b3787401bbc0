package main

import (
	"context"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/forum-platform/internal/platform/auth"
	"github.com/example/forum-platform/internal/platform/db"
	"github.com/example/forum-platform/internal/platform/events"
	"github.com/example/forum-platform/internal/platform/httpserver"
	"github.com/example/forum-platform/internal/platform/logging"
	"github.com/example/forum-platform/internal/platform/natsconn"
	"github.com/example/forum-platform/internal/platform/run"
	"github.com/example/forum-platform/services/forum/internal/cache"
	"github.com/example/forum-platform/services/forum/internal/config"
	"github.com/example/forum-platform/services/forum/internal/handlers"
	"github.com/example/forum-platform/services/forum/internal/store"
	"github.com/example/forum-platform/services/forum/internal/worker"
)

type stores struct {
	users         store.UserStore
	categories    store.CategoryStore
	content       store.ContentStore
	notifications store.NotificationStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.App.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	st, closePool := initStores(cfg, log)
	if closePool != nil {
		defer closePool()
	}

	verifier := auth.JWTVerifier{Secret: []byte(cfg.JWTSecret)}
	signer := auth.Signer{Secret: []byte(cfg.JWTSecret), TTL: cfg.TokenTTL}

	fc := initCache(cfg, log)
	if fc != nil {
		defer func() { _ = fc.Close() }()
	}

	var pub *events.Publisher
	nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATSURL})
	if err != nil {
		log.Warn("nats unavailable, events disabled", zap.Error(err))
	} else {
		defer nc.Close()
		js, err := nc.JetStream()
		if err != nil {
			log.Warn("jetstream unavailable, events disabled", zap.Error(err))
		} else {
			pub = events.New(js, log)
		}
	}

	bootstrapAdmin := strings.TrimSpace(os.Getenv("BOOTSTRAP_ADMIN_USERNAME"))

	r := chi.NewRouter()
	httpserver.SetupRouter(r)

	r.Post("/v1/auth/register", handlers.Register(st.users, signer, bootstrapAdmin))
	r.Post("/v1/auth/login", handlers.Login(st.users, signer))

	// Public reads
	r.Get("/v1/categories", handlers.ListCategories(st.categories))
	r.Get("/v1/frontpage", handlers.FrontPage(st.content, fc))
	r.Get("/v1/categories/{id}/threads", handlers.ThreadsByCategory(st.content))
	r.Get("/v1/threads/{id}", handlers.GetThread(st.content))
	r.Get("/v1/threads/{id}/comments", handlers.ThreadComments(st.content))
	r.Get("/v1/comments/{id}/replies", handlers.CommentReplies(st.content))
	r.Get("/v1/users/{id}/threads", handlers.UserThreads(st.content))
	r.Get("/v1/users/{id}/comments", handlers.UserComments(st.content))

	// Authenticated writes
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Post("/v1/threads", handlers.CreateThread(st.content, pub, fc))
		r.Put("/v1/threads/{id}", handlers.UpdateThread(st.content))
		r.Delete("/v1/threads/{id}", handlers.DeleteThread(st.content, pub, fc))
		r.Post("/v1/threads/{id}/comments", handlers.CreateThreadComment(st.content, pub))
		r.Post("/v1/comments/{id}/replies", handlers.ReplyToComment(st.content, pub))
		r.Put("/v1/comments/{id}", handlers.UpdateComment(st.content))
		r.Delete("/v1/comments/{id}", handlers.DeleteComment(st.content))
		r.Post("/v1/threads/{id}/like", handlers.LikeThread(st.content, pub))
		r.Post("/v1/threads/{id}/dislike", handlers.DislikeThread(st.content, pub))
		r.Post("/v1/comments/{id}/like", handlers.LikeComment(st.content, pub))
		r.Post("/v1/comments/{id}/dislike", handlers.DislikeComment(st.content, pub))
		r.Get("/v1/me/liked/threads", handlers.LikedThreads(st.content))
		r.Get("/v1/me/liked/comments", handlers.LikedComments(st.content))
		r.Get("/v1/me/notifications", handlers.MyNotifications(st.notifications))
		r.Post("/v1/me/notifications/{id}/read", handlers.MarkNotificationRead(st.notifications))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Post("/v1/categories", handlers.CreateCategory(st.categories))
		})
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.App.HTTP.Addr, ServiceName: cfg.App.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		if nc != nil {
			go worker.StartNotificationsConsumer(ctx, nc, st.content, st.notifications, log)
		}

		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initStores selects the storage backend. In production Postgres is
// mandatory; in development a missing or unreachable database falls back to
// the in-memory stores.
func initStores(cfg config.Config, log *zap.Logger) (stores, func()) {
	memory := func() stores {
		users := store.NewMemoryUserStore()
		cats := store.NewMemoryCategoryStore()
		return stores{
			users:         users,
			categories:    cats,
			content:       store.NewMemoryContentStore(users, cats),
			notifications: store.NewMemoryNotificationStore(),
		}
	}

	fail := func(msg string, err error) {
		if err != nil {
			log.Error(msg, zap.Error(err))
		} else {
			log.Error(msg)
		}
		_ = log.Sync()
		os.Exit(1)
	}

	if cfg.DatabaseURL == "" {
		if cfg.Production() {
			fail("DATABASE_URL is required in production", nil)
		}
		log.Warn("DATABASE_URL not set, using in-memory stores (development only)")
		return memory(), nil
	}

	pool, err := db.Open(context.Background())
	if err != nil {
		if cfg.Production() {
			fail("postgres is required in production but unavailable", err)
		}
		log.Warn("postgres unavailable, falling back to in-memory stores", zap.Error(err))
		return memory(), nil
	}

	if err := store.Migrate(context.Background(), pool); err != nil {
		pool.Close()
		fail("migrations failed", err)
	}

	users := store.NewPostgresUserStore(pool)
	cats := store.NewPostgresCategoryStore(pool)
	log.Info("stores: postgres")
	return stores{
		users:         users,
		categories:    cats,
		content:       store.NewPostgresContentStore(pool, users, cats),
		notifications: store.NewPostgresNotificationStore(pool),
	}, pool.Close
}

func initCache(cfg config.Config, log *zap.Logger) *cache.RedisCache {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, front-page cache disabled")
		return nil
	}
	fc, err := cache.NewRedisCache(cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		log.Warn("redis unavailable, front-page cache disabled", zap.Error(err))
		return nil
	}
	return fc
}
