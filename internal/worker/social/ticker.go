// Package social は直近購入者通知のバックグラウンド演出を提供する。
// ティックごとに確率的にマスク済みの購入者名を掲示し、TTL経過後に
// 消去する。通知は演出であり、クレームやクーポンの状態には関与しない。
package social

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// NoticeBoard は通知の掲示先インターフェース。
// ClearNoticeは掲示中の通知が期待値のままである場合のみ消去する。
type NoticeBoard interface {
	SetNotice(text string)
	ClearNotice(expected string)
}

// maskedNames は掲示に使うマスク済み購入者名。
var maskedNames = []string{"佐*翔", "鈴*陽", "高*蓮", "田*凛", "伊*葵"}

// Ticker はティックごとに確率的に購入者通知を掲示する。
type Ticker struct {
	board  NoticeBoard
	chance float64
	ttl    time.Duration
	logger *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand

	// after はTTL消去の一発タイマー。テストで差し替える。
	after func(d time.Duration, fn func())
}

// NewTicker はTickerの新しいインスタンスを生成する。
func NewTicker(board NoticeBoard, rng *rand.Rand, chance float64, ttl time.Duration, logger *slog.Logger) *Ticker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ticker{
		board:  board,
		chance: chance,
		ttl:    ttl,
		logger: logger,
		rng:    rng,
		after: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
}

// Start は指定間隔のティッカーで通知演出を起動する。
// コンテキストのキャンセルで停止する。
func (t *Ticker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	t.logger.Info("購入者通知ティッカーを開始しました",
		slog.Duration("interval", interval),
		slog.Float64("chance", t.chance),
		slog.Duration("ttl", t.ttl),
	)

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("購入者通知ティッカーを停止します")
			return
		case <-ticker.C:
			t.RunOnce()
		}
	}
}

// RunOnce は1ティック分の判定を行う。当選した場合はランダムな購入者名の
// 通知を掲示し、TTL経過後の消去をスケジュールする。消去時は掲示中の
// 通知を再確認し、別の通知に差し替わっていた場合は何もしない。
func (t *Ticker) RunOnce() {
	t.mu.Lock()
	hit := t.rng.Float64() < t.chance
	var name string
	if hit {
		name = maskedNames[t.rng.Intn(len(maskedNames))]
	}
	t.mu.Unlock()

	if !hit {
		return
	}

	notice := fmt.Sprintf("%sさん クーポン獲得完了!", name)
	t.board.SetNotice(notice)
	t.logger.Debug("購入者通知を掲示しました", slog.String("notice", notice))

	t.after(t.ttl, func() {
		t.board.ClearNotice(notice)
	})
}
