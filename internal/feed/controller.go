// Package feed はディールフィードの取得・表示・ジェスチャ配送を司る。
//
// Controllerはディールごとのクレーム状態機械を束ね、取得したフィードの
// カードスナップショット、残り時間ラベル、直近購入者の通知スロットを
// 一箇所で提供する。クレーム完了イベントはNavigator経由で上位へ流れる。
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/kiritori/internal/claim"
	"github.com/hitoshi/kiritori/internal/effects"
	"github.com/hitoshi/kiritori/internal/model"
)

// ジェスチャイベント種別。
const (
	GestureTypeBegin = "begin"
	GestureTypeMove  = "move"
	GestureTypeEnd   = "end"
)

// GestureEvent はカードへ配送される1つのポインタイベント。
type GestureEvent struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
}

// Navigator はクレーム完了シグナルの届け先。UI層はこのシグナルを受けて
// クーポン画面へ遷移する。
type Navigator interface {
	ShowCoupon(ev claim.Event)
}

// CardView はフィード1枚分の表示用ビュー。
type CardView struct {
	Deal     *model.Deal
	Snapshot model.CardSnapshot
	TimeLeft string
}

// Config はControllerの依存と調整値を保持する。
type Config struct {
	Source     DealSource
	Store      claim.Store
	Navigator  Navigator // nil可
	Celebrator claim.Celebrator
	Haptics    effects.Haptics
	Recorder   claim.Recorder // nil可
	Logger     *slog.Logger

	Threshold     float64
	SnapbackDelay time.Duration

	// After はスナップバックタイマー。テストで差し替える。
	After func(d time.Duration, fn func())
	// Now は残り時間ラベルの基準時刻。テストで差し替える。
	Now func() time.Time
}

// Controller はフィード全体を所有する。
// カード集合（arena）はLoadで再構築され、各カードの状態変異は
// 対応するMachineのロックの下で行われる。
type Controller struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	machines map[string]*claim.Machine
	order    []string
	labels   map[string]string

	noticeMu sync.Mutex
	notice   string
}

// NewController はControllerの新しいインスタンスを生成する。
func NewController(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Controller{
		cfg:      cfg,
		logger:   logger,
		now:      now,
		machines: make(map[string]*claim.Machine),
		labels:   make(map[string]string),
	}
}

// Load はディール一覧を取得し、カード集合を構築する。
// 取得失敗時はエラーをログに残して空のフィードを提供する。
// クーポンの状態（発行済み・使用済み）には影響しない。
func (c *Controller) Load(ctx context.Context) {
	deals, err := c.cfg.Source.FetchFlashDeals(ctx)
	if err != nil {
		c.logger.Error("ディール一覧の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		deals = nil
	}

	machines := make(map[string]*claim.Machine, len(deals))
	order := make([]string, 0, len(deals))
	labels := make(map[string]string, len(deals))
	now := c.now()

	for _, deal := range deals {
		machines[deal.ID] = claim.NewMachine(deal, claim.Config{
			Threshold:     c.cfg.Threshold,
			SnapbackDelay: c.cfg.SnapbackDelay,
			Store:         c.cfg.Store,
			Celebrator:    c.cfg.Celebrator,
			Haptics:       c.cfg.Haptics,
			OnClaim:       c.dispatchClaim,
			Recorder:      c.cfg.Recorder,
			Logger:        c.logger,
			After:         c.cfg.After,
		})
		order = append(order, deal.ID)
		labels[deal.ID] = TimeLeftLabel(deal.ExpiresAt, now)
	}

	c.mu.Lock()
	c.machines = machines
	c.order = order
	c.labels = labels
	c.mu.Unlock()

	c.logger.Info("フィードを構築しました", slog.Int("deals", len(order)))
}

// dispatchClaim はクレーム完了イベントをナビゲーションへ転送する。
func (c *Controller) dispatchClaim(ev claim.Event) {
	c.logger.Info("クーポンを発行しました",
		slog.String("deal_id", ev.Deal.ID),
		slog.String("coupon_id", ev.Coupon.ID),
		slog.Bool("created", ev.Created),
	)
	if c.cfg.Navigator != nil {
		c.cfg.Navigator.ShowCoupon(ev)
	}
}

// Cards は全カードのビューをフィード順で返す。
func (c *Controller) Cards() []CardView {
	c.mu.RLock()
	defer c.mu.RUnlock()

	views := make([]CardView, 0, len(c.order))
	for _, id := range c.order {
		views = append(views, c.cardViewLocked(id))
	}
	return views
}

// Card は1枚のカードのビューを返す。未知のIDはDEAL_NOT_FOUND。
func (c *Controller) Card(id string) (CardView, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.machines[id]; !ok {
		return CardView{}, model.NewDealNotFoundError(id)
	}
	return c.cardViewLocked(id), nil
}

// cardViewLocked はc.muを保持した状態で呼ぶこと。
func (c *Controller) cardViewLocked(id string) CardView {
	m := c.machines[id]
	return CardView{
		Deal:     m.Deal(),
		Snapshot: m.Snapshot(),
		TimeLeft: c.labels[id],
	}
}

// Gesture はジェスチャイベントを対象カードへ配送し、配送後のビューを返す。
// カードの状態上意味を持たないイベントは黙って無視され、現在のビューが
// そのまま返る。未知のイベント種別のみエラーになる。
func (c *Controller) Gesture(ctx context.Context, id string, ev GestureEvent) (CardView, error) {
	c.mu.RLock()
	m, ok := c.machines[id]
	c.mu.RUnlock()
	if !ok {
		return CardView{}, model.NewDealNotFoundError(id)
	}

	switch ev.Type {
	case GestureTypeBegin:
		m.GestureBegin(ev.X)
	case GestureTypeMove:
		m.GestureMove(ev.X)
	case GestureTypeEnd:
		m.GestureEnd(ctx)
	default:
		return CardView{}, model.NewInvalidGestureError(ev.Type)
	}

	return c.Card(id)
}

// ClaimShortcut は切り取り済みカードのクーポンを返す。
// 切り取られていないカードへの要求はDEAL_NOT_TORNエラーになる。
func (c *Controller) ClaimShortcut(ctx context.Context, id string) (*model.Coupon, error) {
	c.mu.RLock()
	m, ok := c.machines[id]
	c.mu.RUnlock()
	if !ok {
		return nil, model.NewDealNotFoundError(id)
	}
	return m.Claim(ctx)
}

// ToggleFavorite はカードのお気に入りフラグを反転し、反転後のビューを返す。
func (c *Controller) ToggleFavorite(id string) (CardView, error) {
	c.mu.RLock()
	m, ok := c.machines[id]
	c.mu.RUnlock()
	if !ok {
		return CardView{}, model.NewDealNotFoundError(id)
	}
	m.ToggleFavorite()
	return c.Card(id)
}

// Machines は全カードの状態機械をフィード順で返す。在庫シミュレータが
// ティックごとに走査するために使う。
func (c *Controller) Machines() []*claim.Machine {
	c.mu.RLock()
	defer c.mu.RUnlock()

	machines := make([]*claim.Machine, 0, len(c.order))
	for _, id := range c.order {
		machines = append(machines, c.machines[id])
	}
	return machines
}

// RefreshCountdowns は全カードの残り時間ラベルを再計算する。
func (c *Controller) RefreshCountdowns() {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range c.order {
		c.labels[id] = TimeLeftLabel(c.machines[id].Deal().ExpiresAt, now)
	}
}

// StartCountdown は残り時間ラベルの周期再計算を開始する。
// コンテキストのキャンセルで停止する。
func (c *Controller) StartCountdown(ctx context.Context, interval time.Duration) {
	c.logger.Info("カウントダウンの再計算を開始します",
		slog.Duration("interval", interval),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("カウントダウンの再計算を停止します")
			return
		case <-ticker.C:
			c.RefreshCountdowns()
		}
	}
}

// Notice は現在の直近購入者通知を返す。空文字列は通知なしを意味する。
func (c *Controller) Notice() string {
	c.noticeMu.Lock()
	defer c.noticeMu.Unlock()
	return c.notice
}

// SetNotice は直近購入者通知を差し替える。
func (c *Controller) SetNotice(text string) {
	c.noticeMu.Lock()
	defer c.noticeMu.Unlock()
	c.notice = text
}

// ClearNotice は通知が期待値のままである場合に限り消去する。
// TTL満了時に新しい通知を誤って消さないための再検証付きクリア。
func (c *Controller) ClearNotice(expected string) {
	c.noticeMu.Lock()
	defer c.noticeMu.Unlock()
	if c.notice == expected {
		c.notice = ""
	}
}
