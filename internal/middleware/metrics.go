package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name; incremented by the
	// cache package's client hook.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bazarchik_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// UploadRejections counts media uploads rejected by the pipeline.
	UploadRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bazarchik_upload_rejections_total",
		Help: "Total number of rejected media uploads by reason",
	}, []string{"reason"})
)

var (
	promOnce     sync.Once
	promInstance *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the Prometheus HTTP middleware for the given service
// name. The underlying collectors register with the default registry, so the
// instance is created once and shared.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promInstance = fiberprometheus.New(serviceName)
	})
	return promInstance
}

// MetricsMiddleware wraps the fiberprometheus handler as a Fiber middleware.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
