package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

const (
	StateConnected    = "connected"
	StateDisconnected = "disconnected"
)

// Status 健康状态
type Status struct {
	NATS      string         `json:"nats"`
	Redis     string         `json:"redis"`
	Database  string         `json:"database"`
	Games     int            `json:"games"`
	Scheduler map[string]any `json:"scheduler,omitempty"`
}

// Healthy 所有依赖均已连接
func (s *Status) Healthy() bool {
	return s.NATS == StateConnected &&
		s.Redis == StateConnected &&
		s.Database == StateConnected
}

type probe func(ctx context.Context) error

// GameStats 游戏运行统计
type GameStats interface {
	Count() int
}

// SchedulerStats 调度器统计
type SchedulerStats interface {
	GetStats() map[string]any
}

// Checker 健康检查器
type Checker struct {
	nats      probe
	redis     probe
	database  probe
	games     GameStats
	scheduler SchedulerStats
}

var errNATSDisconnected = errors.New("nats disconnected")

// NewChecker 创建健康检查器
func NewChecker(nc *nats.Conn, redisClient *redis.Client, db *pgxpool.Pool, games GameStats, scheduler SchedulerStats) *Checker {
	return &Checker{
		nats: func(context.Context) error {
			if nc == nil || !nc.IsConnected() {
				return errNATSDisconnected
			}
			return nil
		},
		redis: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
		database: func(ctx context.Context) error {
			return db.Ping(ctx)
		},
		games:     games,
		scheduler: scheduler,
	}
}

func state(ctx context.Context, p probe) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p(ctx); err != nil {
		return StateDisconnected
	}
	return StateConnected
}

// Check 执行健康检查
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{
		NATS:     state(ctx, h.nats),
		Redis:    state(ctx, h.redis),
		Database: state(ctx, h.database),
	}
	if h.games != nil {
		status.Games = h.games.Count()
	}
	if h.scheduler != nil {
		status.Scheduler = h.scheduler.GetStats()
	}
	return status
}

// IsHealthy 检查是否健康
func (h *Checker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx).Healthy()
}

// ServeHTTP HTTP 健康检查端点
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if status.Healthy() {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}
