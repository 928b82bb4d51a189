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
// 提出ワークフローやハンドラー層から利用する。
type MetricsCollector interface {
	RecordUploadSuccess()
	RecordUploadFailure(reason string)
	RecordUploadLatency(duration time.Duration)
	RecordSubmission(outcome string)
	RecordProductCreated()
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	uploadSuccess   prometheus.Counter
	uploadFail      *prometheus.CounterVec
	uploadLatency   prometheus.Histogram
	submissions     *prometheus.CounterVec
	productsCreated prometheus.Counter
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		uploadSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumina_upload_success_total",
			Help: "画像アップロード成功の合計数",
		}),
		uploadFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lumina_upload_fail_total",
			Help: "画像アップロード失敗の合計数（原因別）",
		}, []string{"reason"}),
		uploadLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lumina_upload_latency_seconds",
			Help:    "画像アップロードのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lumina_submission_total",
			Help: "出品提出の合計数（結果別）",
		}, []string{"outcome"}),
		productsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumina_products_created_total",
			Help: "作成された商品レコードの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lumina_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.uploadSuccess,
		c.uploadFail,
		c.uploadLatency,
		c.submissions,
		c.productsCreated,
		c.httpStatus,
	)

	return c
}

// RecordUploadSuccess はアップロード成功を記録する。
func (c *Collector) RecordUploadSuccess() {
	c.uploadSuccess.Inc()
}

// RecordUploadFailure はアップロード失敗を記録する。
func (c *Collector) RecordUploadFailure(reason string) {
	c.uploadFail.WithLabelValues(reason).Inc()
}

// RecordUploadLatency はアップロードのレイテンシを記録する。
func (c *Collector) RecordUploadLatency(duration time.Duration) {
	c.uploadLatency.Observe(duration.Seconds())
}

// RecordSubmission は提出の終端結果を記録する。
// outcomeは "success" またはエラーコードの小文字表現。
func (c *Collector) RecordSubmission(outcome string) {
	c.submissions.WithLabelValues(outcome).Inc()
}

// RecordProductCreated は商品レコードの作成を記録する。
func (c *Collector) RecordProductCreated() {
	c.productsCreated.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler は/metricsエンドポイント用のHTTPハンドラーを返す。
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector。テストで使用する。
type NopCollector struct{}

func (NopCollector) RecordUploadSuccess()                  {}
func (NopCollector) RecordUploadFailure(string)            {}
func (NopCollector) RecordUploadLatency(time.Duration)     {}
func (NopCollector) RecordSubmission(string)               {}
func (NopCollector) RecordProductCreated()                 {}
func (NopCollector) RecordHTTPStatus(int)                  {}
