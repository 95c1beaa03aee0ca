// Package model はドメインモデルを定義する。
package model

// CardPhase はディールカードのクレーム状態を表す。
type CardPhase string

const (
	// CardPhaseIdle は残数があり、まだ切り取られていない初期状態。
	CardPhaseIdle CardPhase = "idle"
	// CardPhaseDragging はドラッグセッションがアクティブな状態。
	CardPhaseDragging CardPhase = "dragging"
	// CardPhaseTorn はクーポンが切り取られた終端状態。他の状態へは遷移しない。
	CardPhaseTorn CardPhase = "torn"
	// CardPhaseSoldOut は残数0の吸収状態。切り取り済みカードを上書きすることはない。
	CardPhaseSoldOut CardPhase = "sold_out"
)

// CardSnapshot はカードの瞬間的な状態のコピーを表す。
// ハンドラーやシミュレータが状態機械のロック外で参照するために使う。
type CardSnapshot struct {
	DealID    string
	Phase     CardPhase
	OffsetX   float64
	Remaining int
	Favorite  bool
}
