// Package gesture はポインタ入力列を1次元のドラッグオフセットへ変換する。
package gesture

import (
	"time"

	"github.com/hitoshi/kiritori/internal/effects"
)

// 触覚フィードバックのパターン。
// セッション開始時は短い単発、コミット時は長さが増す3連パルス。
var (
	beginPulse  = []time.Duration{10 * time.Millisecond}
	commitPulse = []time.Duration{30 * time.Millisecond, 50 * time.Millisecond, 80 * time.Millisecond}
)

// Outcome はドラッグセッション終了の結果を表す。
type Outcome struct {
	Committed bool    // しきい値を超えて切り取りが確定したか
	OffsetX   float64 // 終了時点のオフセット
}

// Tracker は単一カード上の1ポインタセッションを追跡する。
//
// ジェスチャは右方向専用で、左方向の移動はオフセット0にクランプされる。
// セッション外のイベントは仕様どおり黙って無視される（エラーではない）。
// 同時アクセスの調停は呼び出し側（クレーム状態機械）のロックに委ねる。
type Tracker struct {
	threshold float64
	haptics   effects.Haptics

	active  bool
	originX float64
	offsetX float64
}

// NewTracker はTrackerを生成する。thresholdはコミットしきい値（単位はUI座標系）。
func NewTracker(threshold float64, haptics effects.Haptics) *Tracker {
	return &Tracker{
		threshold: threshold,
		haptics:   haptics,
	}
}

// Begin はxを原点としてドラッグセッションを開始し、短い触覚パルスを発する。
// 既にセッションがアクティブな場合は無視してfalseを返す。
func (t *Tracker) Begin(x float64) bool {
	if t.active {
		return false
	}
	t.active = true
	t.originX = x
	t.offsetX = 0
	t.haptics.Pulse(beginPulse...)
	return true
}

// Move は現在のポインタ位置からオフセットを更新し、更新後の値を返す。
// オフセットは max(0, x-origin)。セッション外では現在値を返すだけ。
func (t *Tracker) Move(x float64) float64 {
	if !t.active {
		return t.offsetX
	}
	offset := x - t.originX
	if offset < 0 {
		offset = 0
	}
	t.offsetX = offset
	return t.offsetX
}

// End はセッションを終了し結果を返す。2つ目の戻り値はセッションが
// 存在したかどうか。最終オフセットがしきい値を超えていればコミットとなり、
// 増幅された触覚パターンを発する。コミットしなかった場合のオフセットの
// スナップバックは呼び出し側の責務（Trackerは生の追跡だけを行う）。
func (t *Tracker) End() (Outcome, bool) {
	if !t.active {
		return Outcome{}, false
	}
	t.active = false

	out := Outcome{OffsetX: t.offsetX}
	if t.offsetX > t.threshold {
		out.Committed = true
		t.haptics.Pulse(commitPulse...)
	}
	return out, true
}

// Cancel はセッションを副作用なしで破棄する。触覚フィードバックは発さず、
// オフセットも0に戻す。ドラッグ中に売り切れた場合など、コミットでも
// スナップバックでもない終わり方に使う。
func (t *Tracker) Cancel() {
	t.active = false
	t.offsetX = 0
}

// Reset はオフセットを0に戻す。スナップバック完了時に呼ばれる。
func (t *Tracker) Reset() {
	t.offsetX = 0
}

// Active はセッションがアクティブかを返す。
func (t *Tracker) Active() bool {
	return t.active
}

// OffsetX は現在のドラッグオフセットを返す。
func (t *Tracker) OffsetX() float64 {
	return t.offsetX
}
