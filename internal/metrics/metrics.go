// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// ハンドラーとミドルウェアはそれぞれ必要なメソッドだけを
// 切り出したインターフェース経由でこれを利用する。
type Collector struct {
	httpRequests    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	booksCreated    prometheus.Counter
	booksUpdated    prometheus.Counter
	booksDeleted    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookman_http_requests_total",
			Help: "HTTPメソッド・ステータスコード別のリクエスト数",
		}, []string{"method", "status_code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bookman_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		booksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookman_books_created_total",
			Help: "作成された書籍の合計数",
		}),
		booksUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookman_books_updated_total",
			Help: "更新された書籍の合計数",
		}),
		booksDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookman_books_deleted_total",
			Help: "削除された書籍の合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.requestDuration,
		c.booksCreated,
		c.booksUpdated,
		c.booksDeleted,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの完了を記録する。
func (c *Collector) RecordHTTPRequest(method string, statusCode int) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
}

// RecordRequestDuration はリクエストの処理時間を記録する。
func (c *Collector) RecordRequestDuration(method string, duration time.Duration) {
	c.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordBookCreated は書籍の作成を記録する。
func (c *Collector) RecordBookCreated() {
	c.booksCreated.Inc()
}

// RecordBookUpdated は書籍の更新を記録する。
func (c *Collector) RecordBookUpdated() {
	c.booksUpdated.Inc()
}

// RecordBookDeleted は書籍の削除を記録する。
func (c *Collector) RecordBookDeleted() {
	c.booksDeleted.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
