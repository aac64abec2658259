// Package metrics 定义服务使用的 Prometheus 指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 服务的全部指标，nil 接收者上的方法均为空操作
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	AnalysesTotal        *prometheus.CounterVec
	OverallScore         prometheus.Histogram
	AnswerVerdicts       *prometheus.CounterVec
	BankCacheHits        prometheus.Counter
	BankCacheMisses      prometheus.Counter
	SideEffectFailures   *prometheus.CounterVec
	RateLimited          prometheus.Counter
}

// New 创建并注册全部指标到独立的 Registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		AnalysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resume_analyses_total",
				Help: "Resume analyses by outcome (ok, cached, rejected, failed).",
			},
			[]string{"outcome"},
		),
		OverallScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "resume_overall_score",
				Help:    "Distribution of overall resume scores.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		AnswerVerdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skill_answer_verdicts_total",
				Help: "Scored skill-verification answers by verdict.",
			},
			[]string{"verdict"},
		),
		BankCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "question_bank_cache_hits_total",
				Help: "Question bank snapshot cache hits.",
			},
		),
		BankCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "question_bank_cache_misses_total",
				Help: "Question bank snapshot cache misses.",
			},
		),
		SideEffectFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resume_side_effect_failures_total",
				Help: "Best-effort side effects that failed, by target (minio, mysql, redis, rabbitmq).",
			},
			[]string{"target"},
		),
		RateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "Requests rejected by the per-client rate limiter.",
			},
		),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.AnalysesTotal,
		m.OverallScore,
		m.AnswerVerdicts,
		m.BankCacheHits,
		m.BankCacheMisses,
		m.SideEffectFailures,
		m.RateLimited,
	)
	return m
}

// Handler 返回抓取接口
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// ObserveAnalysis 记录一次分析的结果
func (m *Metrics) ObserveAnalysis(outcome string, score int) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.OverallScore.Observe(float64(score))
	}
}

// ObserveVerdict 记录一次答题评价
func (m *Metrics) ObserveVerdict(verdict string) {
	if m == nil {
		return
	}
	m.AnswerVerdicts.WithLabelValues(verdict).Inc()
}

// ObserveBankCache 记录题库缓存命中情况
func (m *Metrics) ObserveBankCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.BankCacheHits.Inc()
		return
	}
	m.BankCacheMisses.Inc()
}

// ObserveSideEffectFailure 记录旁路写入失败
func (m *Metrics) ObserveSideEffectFailure(target string) {
	if m == nil {
		return
	}
	m.SideEffectFailures.WithLabelValues(target).Inc()
}

// ObserveRateLimited 记录一次限流
func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}
