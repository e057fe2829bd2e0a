package handlers

import (
	"context"
	"net/http"
	"time"

	"orubacontacts/internal/repository"
	redisstats "orubacontacts/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SystemHandler struct {
	db          *gorm.DB
	stats       repository.StatsRepository
	redisClient *redis.Client // nil, если Redis выключен
	workers     gin.H
	log         *zap.Logger
}

func NewSystemHandler(
	db *gorm.DB,
	stats repository.StatsRepository,
	redisClient *redis.Client,
	workers gin.H,
	log *zap.Logger,
) *SystemHandler {
	return &SystemHandler{
		db:          db,
		stats:       stats,
		redisClient: redisClient,
		workers:     workers,
		log:         log,
	}
}

func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	services := gin.H{"database": "connected", "redis": "disabled"}

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		services["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	if h.redisClient != nil {
		services["redis"] = "connected"
		if err := h.redisClient.Ping(ctx).Err(); err != nil {
			// без Redis сервис работает, только без кэша
			services["redis"] = "unavailable"
		}
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status":    state,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  services,
	})
}

func (h *SystemHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := h.stats.TableCounts(ctx)
	if err != nil {
		respondError(c, h.log, err, "Failed to get system stats")
		return
	}

	var redisInfo map[string]string
	if h.redisClient != nil {
		if redisInfo, err = redisstats.GetStats(ctx, h.redisClient); err != nil {
			h.log.Warn("Failed to get Redis stats", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"database": counts,
		"redis":    redisInfo,
		"workers":  h.workers,
	})
}
