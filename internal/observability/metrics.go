package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	httpDurationHistogram *prometheus.HistogramVec
	idempotencyCounter   *prometheus.CounterVec
	maturedCounter       prometheus.Counter
	earningCounter       *prometheus.CounterVec
	approvalQueueGauge   prometheus.Gauge
	workerRunCounter     *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		maturedCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "investments_matured_total",
			Help: "Investments completed by the maturation scanner",
		})

		earningCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "referral_earnings_emitted_total",
			Help: "Referral earnings emitted, by commission percentage",
		}, []string{"percentage"})

		approvalQueueGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "referral_earnings_pending_approval",
			Help: "Current number of referral earnings awaiting admin approval",
		})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			idempotencyCounter,
			maturedCounter,
			earningCounter,
			approvalQueueGauge,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func IncrementInvestmentMatured() {
	if maturedCounter == nil {
		return
	}
	maturedCounter.Inc()
}

func IncrementEarningEmitted(percentage int) {
	if earningCounter == nil {
		return
	}
	earningCounter.WithLabelValues(strconv.Itoa(percentage)).Inc()
}

func SetPendingApprovalQueueSize(size int64) {
	if approvalQueueGauge == nil {
		return
	}
	approvalQueueGauge.Set(float64(size))
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
