package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	initOnce sync.Once

	// HTTPRequestsTotal 按方法/路径/状态码统计请求量。
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTPRequestDuration 请求耗时分布。
	HTTPRequestDuration *prometheus.HistogramVec

	// RegistrationsTotal 成功注册数。
	RegistrationsTotal prometheus.Counter
	// LoginsTotal 成功登录数。
	LoginsTotal prometheus.Counter
	// AuthRejectedTotal 被认证中间件拒绝的请求数。
	AuthRejectedTotal prometheus.Counter
	// RateLimitedTotal 被限流拒绝的请求数。
	RateLimitedTotal prometheus.Counter

	// TasksCreatedTotal 创建的任务数。
	TasksCreatedTotal prometheus.Counter
	// TasksCompletedTotal 切换为 completed 的任务数。
	TasksCompletedTotal prometheus.Counter
	// TasksDeletedTotal 删除的任务数。
	TasksDeletedTotal prometheus.Counter
	// StatsCacheHitTotal 统计摘要缓存命中数。
	StatsCacheHitTotal prometheus.Counter
)

// InitMetrics 注册所有 Prometheus 指标。
//
// 可以被重复调用（测试里经常如此），实际注册只发生一次。
func InitMetrics() {
	initOnce.Do(func() {
		HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskapi_http_requests_total",
			Help: "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"})

		HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskapi_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		RegistrationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskapi_registrations_total",
			Help: "Successful user registrations.",
		})
		LoginsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskapi_logins_total",
			Help: "Successful logins.",
		})
		AuthRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskapi_auth_rejected_total",
			Help: "Requests rejected by the auth middleware.",
		})
		RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskapi_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		})

		TasksCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskapi_tasks_created_total",
			Help: "Tasks created.",
		})
		TasksCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskapi_tasks_completed_total",
			Help: "Tasks transitioned to completed.",
		})
		TasksDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskapi_tasks_deleted_total",
			Help: "Tasks deleted.",
		})
		StatsCacheHitTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskapi_stats_cache_hit_total",
			Help: "Stats summary served from cache.",
		})

		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			RegistrationsTotal,
			LoginsTotal,
			AuthRejectedTotal,
			RateLimitedTotal,
			TasksCreatedTotal,
			TasksCompletedTotal,
			TasksDeletedTotal,
			StatsCacheHitTotal,
		)
	})
}
