// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// トランスポート層・ミドルウェア・ワーカーから利用する。
type MetricsCollector interface {
	// RecordProcedureCall はプロシージャ呼び出しの結果とレイテンシを記録する。
	// outcomeは "ok" または失敗種別（invalid_input 等）。
	RecordProcedureCall(path, outcome string, duration time.Duration)
	RecordHTTPStatus(statusCode int)
	RecordRateLimited(limitType string)
	RecordSessionsPurged(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	procedureCalls   *prometheus.CounterVec
	procedureLatency *prometheus.HistogramVec
	httpStatus       *prometheus.CounterVec
	rateLimited      *prometheus.CounterVec
	sessionsPurged   prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		procedureCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_procedure_calls_total",
			Help: "プロシージャ呼び出しの合計数（結果別）",
		}, []string{"path", "outcome"}),
		procedureLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "folio_procedure_duration_seconds",
			Help:    "プロシージャ呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_rate_limited_total",
			Help: "レート制限で拒否されたリクエスト数",
		}, []string{"limit_type"}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "folio_sessions_purged_total",
			Help: "クリーンアップで削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.procedureCalls,
		c.procedureLatency,
		c.httpStatus,
		c.rateLimited,
		c.sessionsPurged,
	)

	return c
}

// RecordProcedureCall はプロシージャ呼び出しを記録する。
func (c *Collector) RecordProcedureCall(path, outcome string, duration time.Duration) {
	c.procedureCalls.WithLabelValues(path, outcome).Inc()
	c.procedureLatency.WithLabelValues(path).Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRateLimited はレート制限による拒否を記録する。
func (c *Collector) RecordRateLimited(limitType string) {
	c.rateLimited.WithLabelValues(limitType).Inc()
}

// RecordSessionsPurged は削除された期限切れセッション数を記録する。
func (c *Collector) RecordSessionsPurged(count int64) {
	c.sessionsPurged.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないMetricsCollector。メトリクスを使わない構成やテストで使用する。
type Nop struct{}

func (Nop) RecordProcedureCall(string, string, time.Duration) {}
func (Nop) RecordHTTPStatus(int)                              {}
func (Nop) RecordRateLimited(string)                          {}
func (Nop) RecordSessionsPurged(int64)                        {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
