// Package claim はディールカードごとのクレーム状態機械を提供する。
//
// 生のポインタ入力をジェスチャトラッカー経由で受け取り、しきい値を超えた
// ドラッグをちょうど1回のクレームコミットへ変換する。コミット時には
// クーポンストアへのクレーム発行とフィードバックシーケンスの起動を行い、
// クレームイベントを上位（フィードコントローラ）へ通知する。
package claim

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/kiritori/internal/effects"
	"github.com/hitoshi/kiritori/internal/gesture"
	"github.com/hitoshi/kiritori/internal/model"
)

// Store はクレームの発行先となるクーポンストアのインターフェース。
// Claimは冪等であり、対象ディールのAVAILABLEクーポンが既に存在する場合は
// それを返す（createdがfalseになる）。
type Store interface {
	Claim(ctx context.Context, deal *model.Deal) (coupon *model.Coupon, created bool, err error)
}

// Celebrator は切り取り成功時の祝福演出を起動するインターフェース。
type Celebrator interface {
	CelebrateTear()
}

// Recorder はクレーム関連メトリクスの計測インターフェース。
type Recorder interface {
	RecordTear(offsetX float64)
	RecordAbort(offsetX float64)
	RecordClaimShortcut()
}

// Event はクレーム完了シグナルを表す。ナビゲーション層はこのシグナルを
// 受けてクーポン一覧ビューへ切り替える。
type Event struct {
	Deal    *model.Deal
	Coupon  *model.Coupon
	Created bool // 新規クレームか（falseなら既存クーポンへの誘導）
}

// Config はMachineの依存と調整値を保持する。
type Config struct {
	Threshold     float64
	SnapbackDelay time.Duration

	Store      Store
	Celebrator Celebrator
	Haptics    effects.Haptics

	OnClaim  func(Event) // nil可
	Recorder Recorder    // nil可
	Logger   *slog.Logger

	// After はスナップバックの一発タイマー。テストで差し替える。
	After func(d time.Duration, fn func())
}

// Machine は1枚のディールカードのクレーム状態を所有する。
//
// 状態遷移:
//
//	idle --begin--> dragging --end(offset>threshold)--> torn（終端）
//	                dragging --end(offset<=threshold)--> idle
//	任意の非torn状態 --残数0--> sold_out（吸収、tornは上書きしない）
//
// すべてのガードは全域であり、無効なイベントは黙って無視される。
// ティック系コールバックとの交錯に備え、各操作はロック下で現在状態を
// 再検証してから変異する（terminal状態へのティックは常にno-op）。
type Machine struct {
	mu        sync.Mutex
	deal      *model.Deal
	phase     model.CardPhase
	remaining int
	favorite  bool
	tracker   *gesture.Tracker

	store      Store
	celebrator Celebrator
	onClaim    func(Event)
	recorder   Recorder
	logger     *slog.Logger

	snapbackDelay time.Duration
	after         func(d time.Duration, fn func())
}

// NewMachine はディールに対応するMachineを生成する。
// 残数0のディールは最初からsold_out状態となる。
func NewMachine(deal *model.Deal, cfg Config) *Machine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	after := cfg.After
	if after == nil {
		after = func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		}
	}
	haptics := cfg.Haptics
	if haptics == nil {
		haptics = effects.NopHaptics{}
	}

	phase := model.CardPhaseIdle
	if deal.RemainingCoupons <= 0 {
		phase = model.CardPhaseSoldOut
	}

	return &Machine{
		deal:          deal,
		phase:         phase,
		remaining:     deal.RemainingCoupons,
		tracker:       gesture.NewTracker(cfg.Threshold, haptics),
		store:         cfg.Store,
		celebrator:    cfg.Celebrator,
		onClaim:       cfg.OnClaim,
		recorder:      cfg.Recorder,
		logger:        logger,
		snapbackDelay: cfg.SnapbackDelay,
		after:         after,
	}
}

// GestureBegin はドラッグセッションを開始する。
// 切り取り済み・売り切れ・セッション中のカードでは無視される。
func (m *Machine) GestureBegin(x float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != model.CardPhaseIdle || m.remaining <= 0 {
		return
	}
	if m.tracker.Begin(x) {
		m.phase = model.CardPhaseDragging
	}
}

// GestureMove は現在のポインタ位置でオフセットを更新する。
// セッション外では無視される。
func (m *Machine) GestureMove(x float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != model.CardPhaseDragging {
		return
	}
	m.tracker.Move(x)
}

// GestureEnd はドラッグセッションを終了する。最終オフセットがしきい値を
// 超えていればクレームをコミットし、祝福シーケンスを起動して
// クレームイベントを発行する。超えていなければidleへ戻り、スナップバックの
// リセットをスケジュールする。セッション外では無視される。
func (m *Machine) GestureEnd(ctx context.Context) {
	m.mu.Lock()

	if m.phase != model.CardPhaseDragging {
		m.mu.Unlock()
		return
	}

	out, ok := m.tracker.End()
	if !ok {
		m.phase = model.CardPhaseIdle
		m.mu.Unlock()
		return
	}

	if !out.Committed {
		m.phase = model.CardPhaseIdle
		m.mu.Unlock()

		if m.recorder != nil {
			m.recorder.RecordAbort(out.OffsetX)
		}
		m.scheduleSnapback()
		return
	}

	// 切り取り確定。tornは終端状態であり、以後のジェスチャは全て無視される。
	m.phase = model.CardPhaseTorn
	m.mu.Unlock()

	if m.recorder != nil {
		m.recorder.RecordTear(out.OffsetX)
	}
	m.commitClaim(ctx, true)
}

// Claim は切り取り済みカードのクーポンを返すUIショートカット。
// ストア契約によりディールごとのAVAILABLEクーポンは高々1つなので、
// 再クレームは複製を作らず既存クーポンへの誘導として扱われる。
func (m *Machine) Claim(ctx context.Context) (*model.Coupon, error) {
	m.mu.Lock()
	if m.phase != model.CardPhaseTorn {
		m.mu.Unlock()
		return nil, model.NewDealNotTornError(m.deal.ID)
	}
	m.mu.Unlock()

	if m.recorder != nil {
		m.recorder.RecordClaimShortcut()
	}
	return m.commitClaim(ctx, false)
}

// commitClaim はストアへクレームを発行し、演出とイベント通知を行う。
// celebrateは初回のコミット時のみtrue。演出はfire-and-forgetであり、
// クレームはこの時点で既に確定している。
func (m *Machine) commitClaim(ctx context.Context, celebrate bool) (*model.Coupon, error) {
	coupon, created, err := m.store.Claim(ctx, m.deal)
	if err != nil {
		m.logger.Error("クレームの発行に失敗しました",
			slog.String("deal_id", m.deal.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if celebrate && m.celebrator != nil {
		m.celebrator.CelebrateTear()
	}

	if m.onClaim != nil {
		m.onClaim(Event{Deal: m.deal, Coupon: coupon, Created: created})
	}
	return coupon, nil
}

// scheduleSnapback はスナップバック完了時のオフセットリセットをスケジュールする。
// 発火時に状態を再検証し、新しいセッションが始まっていたり切り取り済みに
// なっていた場合は何もしない。
func (m *Machine) scheduleSnapback() {
	m.after(m.snapbackDelay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.phase == model.CardPhaseDragging || m.phase == model.CardPhaseTorn {
			return
		}
		m.tracker.Reset()
	})
}

// ApplyInventoryDrop は表示用残数を1減らす。減らせた場合trueを返す。
// 切り取り済み・残数0のカードへの適用はno-op（冪等ティック）。
// 残数が0になった場合はsold_outへ遷移し、進行中のドラッグは破棄される。
func (m *Machine) ApplyInventoryDrop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase == model.CardPhaseTorn || m.remaining <= 0 {
		return false
	}

	m.remaining--
	if m.remaining == 0 {
		if m.phase == model.CardPhaseDragging {
			// 増幅パルスはコミット時専用。ドラッグ中の売り切れは
			// 触覚フィードバックなしでセッションを破棄する。
			m.tracker.Cancel()
		}
		m.phase = model.CardPhaseSoldOut
	}
	return true
}

// ToggleFavorite はお気に入りフラグを反転し、新しい値を返す。
// クレーム状態には一切影響しない。
func (m *Machine) ToggleFavorite() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.favorite = !m.favorite
	return m.favorite
}

// Snapshot は現在のカード状態のコピーを返す。
func (m *Machine) Snapshot() model.CardSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.CardSnapshot{
		DealID:    m.deal.ID,
		Phase:     m.phase,
		OffsetX:   m.tracker.OffsetX(),
		Remaining: m.remaining,
		Favorite:  m.favorite,
	}
}

// Deal は対応するディールを返す。Dealはイミュータブルとして扱う。
func (m *Machine) Deal() *model.Deal {
	return m.deal
}

// Remaining は現在の表示用残数を返す。
func (m *Machine) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remaining
}

// Phase は現在のフェーズを返す。
func (m *Machine) Phase() model.CardPhase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}
