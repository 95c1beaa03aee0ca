package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hitoshi/kiritori/internal/model"
)

// MemoryCouponRepo はプロセス内のインメモリクーポンリポジトリ。
// アプリ起動時に生成され、プロセス終了まで生存する（セッション跨ぎの
// 永続化契約はない）。全カードと引き換え画面で共有される。
type MemoryCouponRepo struct {
	mu      sync.RWMutex
	ordered []*model.Coupon          // 先頭が最新の挿入
	byID    map[string]*model.Coupon // id -> coupon
}

// NewMemoryCouponRepo はMemoryCouponRepoを生成する。
func NewMemoryCouponRepo() *MemoryCouponRepo {
	return &MemoryCouponRepo{
		byID: make(map[string]*model.Coupon),
	}
}

// Insert はクーポンをコレクションの先頭に挿入する。
// IDが既に存在する場合はエラーを返す（プロセス生存期間内で一意）。
func (r *MemoryCouponRepo) Insert(_ context.Context, coupon *model.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[coupon.ID]; ok {
		return fmt.Errorf("クーポンIDが重複しています: %s", coupon.ID)
	}

	stored := coupon.Clone()
	r.ordered = append([]*model.Coupon{stored}, r.ordered...)
	r.byID[stored.ID] = stored
	return nil
}

// FindByID は指定IDのクーポンのコピーを返す。見つからない場合はnil。
func (r *MemoryCouponRepo) FindByID(_ context.Context, id string) (*model.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return c.Clone(), nil
}

// FindAvailableByDealID は指定ディールのAVAILABLEクーポンのコピーを返す。
func (r *MemoryCouponRepo) FindAvailableByDealID(_ context.Context, dealID string) (*model.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.ordered {
		if c.DealID == dealID && c.Status == model.CouponStatusAvailable {
			return c.Clone(), nil
		}
	}
	return nil, nil
}

// List は全クーポンのコピーを挿入順（先頭が最新）で返す。
func (r *MemoryCouponRepo) List(_ context.Context) ([]*model.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Coupon, len(r.ordered))
	for i, c := range r.ordered {
		out[i] = c.Clone()
	}
	return out, nil
}

// MarkUsed は指定クーポンをUSEDへ遷移させる。遷移が起きた場合のみtrueを返す。
// USEDからの再遷移はno-opで、使用時刻は変化しない。
func (r *MemoryCouponRepo) MarkUsed(_ context.Context, id string, usedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	if c.Status != model.CouponStatusAvailable {
		return false, nil
	}

	c.Status = model.CouponStatusUsed
	c.UsedAt = &usedAt
	return true, nil
}
