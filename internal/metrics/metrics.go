// Package metrics 应用的 Prometheus 指标
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "appdata"

var (
	// Registry 应用自己的指标注册表
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms ~ 2.5s
	}, []string{"method", "route"})

	storedQueryEvaluations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stored_query",
		Name:      "evaluations_total",
		Help:      "Stored query evaluations by outcome.",
	}, []string{"outcome"})

	storedQueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "stored_query",
		Name:      "evaluation_duration_seconds",
		Help:      "Duration of a single stored query evaluation.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms ~ 20s
	}, []string{"outcome"})

	jobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "runs_total",
		Help:      "Scheduled job runs.",
	}, []string{"job", "success"})

	jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "run_duration_seconds",
		Help:      "Duration of scheduled job runs.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"job"})

	jobLastSuccess = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful job run.",
	}, []string{"job"})

	messagesDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "messages",
		Name:      "dispatched_total",
		Help:      "Messages created by notifications, by message type.",
	}, []string{"type"})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		storedQueryEvaluations,
		storedQueryDuration,
		jobRuns,
		jobDuration,
		jobLastSuccess,
		messagesDispatched,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler 暴露 Registry 中的指标
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware 记录 HTTP 指标；route 取 gin 的路由模板，未匹配的请求记为 unmatched
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// StoredQueryObserver 实现 service.SweepObserver
type StoredQueryObserver struct{}

func (StoredQueryObserver) ObserveStoredQuery(outcome string, d time.Duration) {
	storedQueryEvaluations.WithLabelValues(outcome).Inc()
	storedQueryDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordJob 记录定时任务的执行结果
func RecordJob(job string, d time.Duration, success bool) {
	jobRuns.WithLabelValues(job, strconv.FormatBool(success)).Inc()
	jobDuration.WithLabelValues(job).Observe(d.Seconds())
	if success {
		jobLastSuccess.WithLabelValues(job).SetToCurrentTime()
	}
}

// RecordDispatched 记录通知写入的消息数
func RecordDispatched(messageType string, n int) {
	if n > 0 {
		messagesDispatched.WithLabelValues(messageType).Add(float64(n))
	}
}
