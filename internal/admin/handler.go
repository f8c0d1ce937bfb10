// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/coursemarket/internal/core"
)

// Counter reports how many live records a catalog holds.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

type HandlerConfig struct {
	Users      Counter
	Courses    Counter
	DBStats    func() sql.DBStats
	DBPing     func(ctx context.Context) error
	RedisStats func() *redis.PoolStats
}

type Handler struct {
	cfg HandlerConfig
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{cfg: cfg}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/catalog", h.GetCatalogStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := SystemStatsResponse{
		Catalog: h.catalogStats(ctx),
		Runtime: runtimeStats(),
	}

	if h.cfg.DBStats != nil {
		healthy := h.cfg.DBPing == nil || h.cfg.DBPing(ctx) == nil
		response.Database = &DatabaseStatus{
			Healthy: healthy,
			Stats:   toDBPoolStats(h.cfg.DBStats()),
		}
	}

	if h.cfg.RedisStats != nil {
		if stats := h.cfg.RedisStats(); stats != nil {
			response.Redis = toRedisPoolStats(stats)
		}
	}

	core.OK(w, response)
}

func (h *Handler) GetCatalogStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.catalogStats(r.Context()))
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, runtimeStats())
}

// catalogStats reports -1 for a count that could not be read so the
// rest of the payload still renders.
func (h *Handler) catalogStats(ctx context.Context) CatalogStats {
	return CatalogStats{
		LiveUsers:   count(ctx, "users", h.cfg.Users),
		LiveCourses: count(ctx, "courses", h.cfg.Courses),
	}
}

func count(ctx context.Context, name string, c Counter) int {
	if c == nil {
		return -1
	}
	n, err := c.Count(ctx)
	if err != nil {
		slog.WarnContext(ctx, "catalog count failed", "catalog", name, "error", err)
		return -1
	}
	return n
}

func runtimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func toDBPoolStats(stats sql.DBStats) *DBPoolStats {
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
	}
}

func toRedisPoolStats(stats *redis.PoolStats) *RedisPoolStats {
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
	}
}

type SystemStatsResponse struct {
	Catalog  CatalogStats    `json:"catalog"`
	Database *DatabaseStatus `json:"database,omitempty"`
	Redis    *RedisPoolStats `json:"redis,omitempty"`
	Runtime  RuntimeStats    `json:"runtime"`
}

type CatalogStats struct {
	LiveUsers   int `json:"liveUsers"`
	LiveCourses int `json:"liveCourses"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"maxOpenConnections"`
	OpenConnections    int    `json:"openConnections"`
	InUse              int    `json:"inUse"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"waitCount"`
	WaitDuration       string `json:"waitDuration"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"totalConns"`
	IdleConns  uint32 `json:"idleConns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`
	NumCPU       int    `json:"numCpu"`
	MemAlloc     uint64 `json:"memAllocBytes"`
	MemSys       uint64 `json:"memSysBytes"`
	NumGC        uint32 `json:"numGc"`
}
