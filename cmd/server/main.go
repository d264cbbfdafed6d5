package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/devfolio/backend/internal/auth"
	"github.com/devfolio/backend/internal/comments"
	"github.com/devfolio/backend/internal/config"
	"github.com/devfolio/backend/internal/middleware"
	"github.com/devfolio/backend/internal/projects"
	"github.com/devfolio/backend/internal/search"
	"github.com/devfolio/backend/internal/store"
	"github.com/devfolio/backend/internal/users"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	db := mongoClient.Database(cfg.MongoDB)
	mongoStore := store.NewStore(db)
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		log.Fatalf("mongo indexes: %v", err)
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()
	limiter := auth.NewRedisLimiter(rdb)

	// ── MinIO ────────────────────────────────────────────────
	files, err := store.NewMinioStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
		cfg.MinioBucket, cfg.MinioUseSSL, cfg.MinioPublicURL,
	)
	if err != nil {
		log.Fatalf("minio connect: %v", err)
	}

	// ── Handlers ─────────────────────────────────────────────
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	authHandler := auth.NewHandler(mongoStore, tokens, limiter)
	userHandler := users.NewHandler(mongoStore)
	projectHandler := projects.NewHandler(mongoStore, files)
	commentHandler := comments.NewHandler(mongoStore)
	searchHandler := search.NewHandler(mongoStore)

	requireAuth := middleware.RequireAuth(tokens, mongoStore)
	ownUser := middleware.RequireOwnerOrAdmin(mongoStore.GetUserByID, "id")
	ownProject := middleware.RequireOwnerOrAdmin(mongoStore.GetProjectByID, "id", "projectId")
	ownComment := middleware.RequireOwnerOrAdmin(mongoStore.GetCommentByID, "commentId")

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.With(requireAuth).Get("/me", authHandler.Me)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Get("/{id}", userHandler.Get)
		r.With(requireAuth, ownUser).Put("/{id}", userHandler.Update)
		r.With(requireAuth, ownUser).Delete("/{id}", userHandler.Delete)
	})

	r.Route("/api/projects", func(r chi.Router) {
		r.Get("/", projectHandler.List)
		r.With(requireAuth).Post("/", projectHandler.Create)
		r.Get("/{id}", projectHandler.Get)
		r.With(requireAuth, ownProject).Put("/{id}", projectHandler.Update)
		r.With(requireAuth, ownProject).Delete("/{id}", projectHandler.Delete)
		r.With(requireAuth).Post("/{id}/comments", commentHandler.Create)
		r.With(requireAuth, ownComment).Delete("/{id}/comments/{commentId}", commentHandler.Delete)
	})

	r.Get("/api/search", searchHandler.Search)

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
	}

	go func() {
		log.Printf("Backend listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
