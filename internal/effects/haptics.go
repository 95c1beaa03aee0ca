// Package effects は切り取り成功時の視覚・触覚フィードバックを提供する。
//
// フィードバックはすべてfire-and-forgetであり、クレーム状態の遷移を
// ブロックしない。演出の失敗が確定済みのクレームを取り消すことはない。
package effects

import (
	"log/slog"
	"time"
)

// Haptics は触覚フィードバックの出力先を抽象化する。
// patternは振動と休止を交互に表す（先頭は振動）。
type Haptics interface {
	Pulse(pattern ...time.Duration)
}

// SlogHaptics は振動パターンをログに記録するHaptics実装。
// 実機の振動APIを持たない環境（サーバーデモ）で使用する。
type SlogHaptics struct {
	logger *slog.Logger
}

// NewSlogHaptics はSlogHapticsを生成する。
func NewSlogHaptics(logger *slog.Logger) *SlogHaptics {
	return &SlogHaptics{logger: logger}
}

// Pulse は振動パターンをデバッグログに出力する。
func (h *SlogHaptics) Pulse(pattern ...time.Duration) {
	h.logger.Debug("haptic pulse", slog.Any("pattern", pattern))
}

// NopHaptics は何もしないHaptics実装。テストで使用する。
type NopHaptics struct{}

// Pulse は何もしない。
func (NopHaptics) Pulse(...time.Duration) {}
