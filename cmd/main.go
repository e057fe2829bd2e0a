package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orubacontacts/internal/config"
	"orubacontacts/internal/handlers"
	"orubacontacts/internal/middleware"
	"orubacontacts/internal/repository"
	"orubacontacts/internal/service"
	"orubacontacts/internal/worker"
	"orubacontacts/pkg/database"
	"orubacontacts/pkg/logger"
	"orubacontacts/pkg/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	goredis "github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	// .env не обязателен
	envErr := godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.NewLogger(cfg.App.LogLevel, cfg.App.LogFormat, "oruba-contacts")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if envErr != nil {
		zlog.Debug("No .env file found, using environment variables")
	}
	zlog.Info("=== Contact Matching Backend Starting ===", zap.String("db_driver", cfg.DB.Driver))

	db, err := database.Connect(cfg.DB.Database(), zlog)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	if err := database.Migrate(db, zlog); err != nil {
		zlog.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Redis нужен только для кэша: без него сервис работает напрямую с БД
	var redisClient *goredis.Client
	cache := repository.NewNoopCache()
	if cfg.Redis.Enabled {
		redisClient, err = redis.Connect(cfg.Redis.Client(), zlog)
		if err != nil {
			zlog.Warn("Redis unavailable, caching disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			cache = repository.NewCacheRepository(redisClient, "oruba:")
		}
	}

	store := repository.NewStore(db)

	matchingService := service.NewMatchingService(store, cache, service.MatchingConfig{
		LockTimeout:         cfg.Matching.LockTimeout,
		HospitalSearchLimit: cfg.Matching.HospitalSearchLimit,
		ClaimAttempts:       cfg.Matching.ClaimAttempts,
		StatsTTL:            cfg.Cache.StatsTTL,
		LookupTTL:           cfg.Cache.LookupTTL,
	}, zlog)
	candidateService := service.NewCandidateService(store, cache, zlog)
	rawRecordService := service.NewRawRecordService(store)

	scheduler := worker.NewScheduler(zlog)

	if cfg.Workers.LockSweepEnabled {
		scheduler.AddWorker(worker.NewLockSweeper(matchingService, cfg.Workers.LockSweepInterval, zlog))
		zlog.Info("Lock sweeper enabled", zap.Duration("interval", cfg.Workers.LockSweepInterval))
	}

	if cfg.App.Debug {
		gin.SetMode(gin.DebugMode)
		zlog.Info("Running in DEBUG mode")
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(zlog))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", cfg.App.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.RateLimit.Enabled {
		limit := rate.Limit(cfg.RateLimit.RequestsPerSecond)
		if cfg.RateLimit.PerIP {
			ipLimiter := middleware.NewIPRateLimiter(limit, cfg.RateLimit.Burst)
			r.Use(middleware.IPRateLimitMiddleware(ipLimiter, zlog))
			scheduler.AddWorker(worker.NewPeriodic("ip-limiter-cleanup", time.Minute, func(ctx context.Context) error {
				if removed := ipLimiter.Cleanup(); removed > 0 {
					zlog.Debug("Idle IP limiters removed", zap.Int("count", removed))
				}
				return nil
			}, zlog))
		} else {
			r.Use(middleware.RateLimitMiddleware(rate.NewLimiter(limit, cfg.RateLimit.Burst), zlog))
		}
		zlog.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
			zap.Bool("per_ip", cfg.RateLimit.PerIP),
		)
	}

	handlers.Register(r, handlers.Handlers{
		Matching:   handlers.NewMatchingHandler(matchingService, zlog),
		Candidates: handlers.NewCandidateHandler(candidateService, zlog),
		RawData:    handlers.NewRawDataHandler(rawRecordService, zlog),
		System: handlers.NewSystemHandler(db, store.Stats, redisClient, gin.H{
			"lockSweepEnabled":  cfg.Workers.LockSweepEnabled,
			"lockSweepInterval": cfg.Workers.LockSweepInterval.String(),
		}, zlog),
	})

	scheduler.Start()
	defer scheduler.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info("Server starting",
			zap.String("addr", "http://localhost:"+cfg.App.Port),
			zap.String("api", "/api"),
			zap.String("health", "/api/health"),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-quit
	zlog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	zlog.Info("Server exited properly")
}
