// Package inventory はフィード在庫のバックグラウンドシミュレーションを提供する。
// ティックごとに各カードの表示用残数を確率的に減らし、購入が進んでいく
// 雰囲気を演出する。減少は単調で、切り取り済み・売り切れのカードには
// 一切作用しない。
package inventory

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/hitoshi/kiritori/internal/claim"
)

// CardLister はシミュレーション対象のカード集合を提供するインターフェース。
type CardLister interface {
	Machines() []*claim.Machine
}

// Recorder は在庫減少メトリクスの計測インターフェース。
type Recorder interface {
	RecordInventoryDrop()
}

// Simulator はティックごとにカードの残数を確率的に減らす。
// 乱数は注入された*rand.Randを使い、シードを固定すれば決定的に動く。
type Simulator struct {
	cards      CardLister
	dropChance float64
	recorder   Recorder // nil可
	logger     *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator はSimulatorの新しいインスタンスを生成する。
func NewSimulator(cards CardLister, rng *rand.Rand, dropChance float64, recorder Recorder, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{
		cards:      cards,
		dropChance: dropChance,
		recorder:   recorder,
		logger:     logger,
		rng:        rng,
	}
}

// Start は指定間隔のティッカーでシミュレーションを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Simulator) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("在庫シミュレータを開始しました",
		slog.Duration("interval", interval),
		slog.Float64("drop_chance", s.dropChance),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("在庫シミュレータを停止します")
			return
		case <-ticker.C:
			s.RunOnce()
		}
	}
}

// RunOnce は1ティック分のシミュレーションを実行する。
// カードごとに独立に判定し、当選かつ残数が2以上の場合のみ1減らす。
// 残数1のカードは減らさない（最後の1枚は実際のクレームのために残す）。
func (s *Simulator) RunOnce() {
	for _, m := range s.cards.Machines() {
		if !s.roll() {
			continue
		}
		if m.Remaining() <= 1 {
			continue
		}
		if m.ApplyInventoryDrop() {
			if s.recorder != nil {
				s.recorder.RecordInventoryDrop()
			}
			s.logger.Debug("在庫を減らしました",
				slog.String("deal_id", m.Deal().ID),
				slog.Int("remaining", m.Remaining()),
			)
		}
	}
}

func (s *Simulator) roll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < s.dropChance
}
