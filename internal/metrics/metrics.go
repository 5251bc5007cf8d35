package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyview_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skyview_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	rendersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyview_renders_total",
			Help: "Renders by sky map mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)

	renderStageSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skyview_render_stage_seconds",
			Help:    "Time spent in each render stage.",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	tileLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyview_tile_loads_total",
			Help: "Sky map tile reads by result.",
		},
		[]string{"result"},
	)

	plateSolveCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyview_platesolve_calls_total",
			Help: "Calls to the plate-solving service by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(rendersTotal)
	prometheus.MustRegister(renderStageSeconds)
	prometheus.MustRegister(tileLoadsTotal)
	prometheus.MustRegister(plateSolveCallsTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and duration for each request, labelled
// by route pattern so path parameters do not explode the label space.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else if status < 400 {
				status = fiber.StatusInternalServerError
			}
		}

		path := c.Route().Path
		method := c.Method()
		httpRequestsTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
		httpDurationSeconds.WithLabelValues(path, method).Observe(time.Since(start).Seconds())
		return err
	}
}

// ObserveRender counts one finished render. outcome is "ok" or an error kind.
func ObserveRender(mode, outcome string) {
	rendersTotal.WithLabelValues(mode, outcome).Inc()
}

// ObserveStage records how long a render stage took.
func ObserveStage(stage string, start time.Time) {
	renderStageSeconds.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// ObserveTile counts one tile read: "loaded", "missing" or "error".
func ObserveTile(result string) {
	tileLoadsTotal.WithLabelValues(result).Inc()
}

// ObservePlateSolve counts one call to the plate-solving service.
func ObservePlateSolve(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	plateSolveCallsTotal.WithLabelValues(op, outcome).Inc()
}
