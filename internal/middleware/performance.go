package middleware

import (
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"go-label-printer/internal/logger"

	"github.com/gin-gonic/gin"
)

// RouteStats accumulates timings for one method and route pattern.
type RouteStats struct {
	Count        int64         `json:"count"`
	Total        time.Duration `json:"total"`
	Max          time.Duration `json:"max"`
	ServerErrors int64         `json:"server_errors"`
	ClientErrors int64         `json:"client_errors"`
	Slow         int64         `json:"slow"`
	BytesWritten int64         `json:"bytes_written"`
}

// Mean is the average duration, zero before the first request.
func (s RouteStats) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// RouteSummary is the ranked view of one route.
type RouteSummary struct {
	Route        string        `json:"route"`
	Count        int64         `json:"count"`
	Mean         time.Duration `json:"mean"`
	Max          time.Duration `json:"max"`
	SlowPercent  float64       `json:"slow_percent"`
	ErrorPercent float64       `json:"error_percent"`
	AvgBytes     int64         `json:"avg_bytes"`
}

// Snapshot is a copy of the monitor state at one point in time.
type Snapshot struct {
	Uptime       string                `json:"uptime"`
	Requests     int64                 `json:"requests"`
	ServerErrors int64                 `json:"server_errors"`
	ErrorPercent float64               `json:"error_percent"`
	HeapInUse    string                `json:"heap_in_use"`
	GCRuns       uint32                `json:"gc_runs"`
	Routes       map[string]RouteStats `json:"routes"`
}

// PerformanceMonitor tracks per-route timings. Sheet rendering is the slow
// path, so slow requests are logged with the route and response size.
type PerformanceMonitor struct {
	mu            sync.Mutex
	routes        map[string]RouteStats
	requests      int64
	serverErrors  int64
	slowThreshold time.Duration
	startTime     time.Time
	logger        *logger.StructuredLogger
}

func NewPerformanceMonitor(slowThreshold time.Duration, log *logger.StructuredLogger) *PerformanceMonitor {
	if log == nil {
		log = logger.NewNop()
	}
	return &PerformanceMonitor{
		routes:        make(map[string]RouteStats),
		slowThreshold: slowThreshold,
		startTime:     time.Now(),
		logger:        log,
	}
}

// PerformanceMiddleware times every routed request except /health.
func (pm *PerformanceMonitor) PerformanceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "/health" {
			c.Next()
			return
		}
		if route == "" {
			route = "unmatched"
		}

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		key := c.Request.Method + " " + route
		status := c.Writer.Status()
		size := int64(c.Writer.Size())
		if size < 0 {
			size = 0
		}
		pm.observe(key, status, size, elapsed)

		if elapsed > pm.slowThreshold {
			pm.logger.Warn("Slow request", map[string]interface{}{
				"route":       key,
				"status":      status,
				"bytes":       size,
				"duration_ms": elapsed.Milliseconds(),
			})
		}
	}
}

func (pm *PerformanceMonitor) observe(key string, status int, size int64, elapsed time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	s := pm.routes[key]
	s.Count++
	s.Total += elapsed
	s.BytesWritten += size
	if elapsed > s.Max {
		s.Max = elapsed
	}
	if elapsed > pm.slowThreshold {
		s.Slow++
	}
	switch {
	case status >= 500:
		s.ServerErrors++
		pm.serverErrors++
	case status >= 400:
		s.ClientErrors++
	}
	pm.routes[key] = s
	pm.requests++
}

// Snapshot copies the current counters.
func (pm *PerformanceMonitor) Snapshot() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	pm.mu.Lock()
	defer pm.mu.Unlock()

	routes := make(map[string]RouteStats, len(pm.routes))
	for k, v := range pm.routes {
		routes[k] = v
	}
	return Snapshot{
		Uptime:       time.Since(pm.startTime).Round(time.Second).String(),
		Requests:     pm.requests,
		ServerErrors: pm.serverErrors,
		ErrorPercent: percent(pm.serverErrors, pm.requests),
		HeapInUse:    formatBytes(mem.HeapInuse),
		GCRuns:       mem.NumGC,
		Routes:       routes,
	}
}

// SlowestRoutes ranks routes by mean duration, slowest first.
func (pm *PerformanceMonitor) SlowestRoutes(limit int) []RouteSummary {
	snap := pm.Snapshot()

	out := make([]RouteSummary, 0, len(snap.Routes))
	for route, s := range snap.Routes {
		out = append(out, RouteSummary{
			Route:        route,
			Count:        s.Count,
			Mean:         s.Mean(),
			Max:          s.Max,
			SlowPercent:  percent(s.Slow, s.Count),
			ErrorPercent: percent(s.ServerErrors, s.Count),
			AvgBytes:     s.BytesWritten / s.Count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mean == out[j].Mean {
			return out[i].Route < out[j].Route
		}
		return out[i].Mean > out[j].Mean
	})

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// HealthHandler answers 200 while the database answers pings, 503 otherwise.
// A server error rate above 10% marks the service as degraded.
func (pm *PerformanceMonitor) HealthHandler(ping func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := pm.Snapshot()

		status := "healthy"
		if snap.ErrorPercent > 10 {
			status = "degraded"
		}
		body := gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"uptime":    snap.Uptime,
			"requests":  snap.Requests,
			"heap":      snap.HeapInUse,
		}

		if ping != nil {
			if err := ping(); err != nil {
				body["status"] = "unhealthy"
				body["database"] = err.Error()
				c.JSON(http.StatusServiceUnavailable, body)
				return
			}
			body["database"] = "ok"
		}
		c.JSON(http.StatusOK, body)
	}
}

func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// formatBytes formats byte count as human readable string
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
