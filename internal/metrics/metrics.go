// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 状態機械・演出・ワーカー・ハンドラーの各層から利用する。
type MetricsCollector interface {
	RecordTear(offsetX float64)
	RecordAbort(offsetX float64)
	RecordClaimShortcut()
	RecordRedemption()
	RecordParticles(count int)
	RecordInventoryDrop()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	claims         prometheus.Counter
	claimShortcuts prometheus.Counter
	gestureAborts  prometheus.Counter
	redemptions    prometheus.Counter
	particles      prometheus.Counter
	inventoryDrops prometheus.Counter
	tearOffset     prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		claims: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kiritori_claims_total",
			Help: "切り取りによるクーポンクレームの合計数",
		}),
		claimShortcuts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kiritori_claim_shortcuts_total",
			Help: "切り取り済みカードからの再クレーム（既存クーポンへの誘導）の合計数",
		}),
		gestureAborts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kiritori_gesture_aborts_total",
			Help: "しきい値未満で中断されたドラッグの合計数",
		}),
		redemptions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kiritori_redemptions_total",
			Help: "スタッフ確認によるクーポン消込の合計数",
		}),
		particles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kiritori_particles_spawned_total",
			Help: "祝福演出で生成されたパーティクルの合計数",
		}),
		inventoryDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kiritori_inventory_drops_total",
			Help: "在庫シミュレータによる残数減少の合計数",
		}),
		tearOffset: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kiritori_tear_offset",
			Help:    "ドラッグ終了時の最終オフセット（ピクセル）",
			Buckets: prometheus.LinearBuckets(0, 50, 10),
		}),
	}

	reg.MustRegister(
		c.claims,
		c.claimShortcuts,
		c.gestureAborts,
		c.redemptions,
		c.particles,
		c.inventoryDrops,
		c.tearOffset,
	)

	return c
}

// RecordTear は切り取り確定を記録する。
func (c *Collector) RecordTear(offsetX float64) {
	c.claims.Inc()
	c.tearOffset.Observe(offsetX)
}

// RecordAbort はドラッグ中断を記録する。
func (c *Collector) RecordAbort(offsetX float64) {
	c.gestureAborts.Inc()
	c.tearOffset.Observe(offsetX)
}

// RecordClaimShortcut は既存クーポンへの誘導を記録する。
func (c *Collector) RecordClaimShortcut() {
	c.claimShortcuts.Inc()
}

// RecordRedemption はクーポン消込を記録する。
func (c *Collector) RecordRedemption() {
	c.redemptions.Inc()
}

// RecordParticles は生成されたパーティクル数を記録する。
func (c *Collector) RecordParticles(count int) {
	c.particles.Add(float64(count))
}

// RecordInventoryDrop は在庫減少を記録する。
func (c *Collector) RecordInventoryDrop() {
	c.inventoryDrops.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
// ルーターが/metricsにマウントする。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
