package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hobbyhub/internal/cache"
	"hobbyhub/internal/config"
	"hobbyhub/internal/database"
	"hobbyhub/internal/handler"
	"hobbyhub/internal/queue"
	internalredis "hobbyhub/internal/redis"
	"hobbyhub/internal/repository"
	"hobbyhub/internal/service"
	"hobbyhub/internal/worker"
)

const (
	likeStreamMaxLen = 10000
	shutdownTimeout  = 10 * time.Second
)

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database and apply the schema
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// 3. Optional Redis: token revocation, like stream and reconcile workers
	var (
		revoker   service.TokenRevoker
		publisher queue.Publisher
		rdb       *internalredis.Client
	)
	if cfg.RedisURL != "" {
		rdb, err = internalredis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()

		revoker = cache.NewRevokedTokens(rdb.Client)
		publisher = queue.NewPublisher(rdb.Client, queue.StreamLikes, likeStreamMaxLen)
	} else {
		log.Println("REDIS_URL not set: logout revocation and like workers are disabled")
	}

	// 4. Repositories and services
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	likeRepo := repository.NewLikeRepository(db)

	userService := service.NewUserService(userRepo)
	authService := service.NewAuthService(userRepo, revoker, cfg)
	postService := service.NewPostService(postRepo, userRepo, likeRepo)
	likeService := service.NewLikeService(db, postRepo, likeRepo, publisher)

	var mediaHandler *handler.MediaHandler
	if cfg.MediaEnabled() {
		mediaService, err := service.NewMediaService(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to init media service: %w", err)
		}
		mediaHandler = handler.NewMediaHandler(mediaService)
	} else {
		log.Println("R2 not configured: media upload endpoints are disabled")
	}

	if rdb != nil {
		throttle := cache.NewReconcileThrottle(rdb.Client, cache.DefaultReconcileWindow)
		manager := worker.NewManager(
			queue.NewConsumer(rdb.Client, queue.StreamLikes, queue.ConsumerGroupLikes),
			worker.NewHandler(likeService, throttle),
			worker.ManagerConfig{WorkerCount: cfg.WorkerCount},
		)
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start workers: %w", err)
		}
		defer manager.Stop()
	}

	// 5. Setup Server
	router := NewRouter(RouterConfig{
		AuthHandler:     handler.NewAuthHandler(userService, authService, cfg),
		PostHandler:     handler.NewPostHandler(postService),
		LikeHandler:     handler.NewLikeHandler(likeService),
		AdminHandler:    handler.NewAdminHandler(userService),
		MediaHandler:    mediaHandler,
		FrontendHandler: handler.NewFrontendHandler(cfg.FrontendPath),
		Resolver:        authService,
		Users:           userService,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Println("Server stopped")
	return nil
}
