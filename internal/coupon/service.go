// Package coupon はクーポンの発行・照会・消込のドメインロジックを提供する。
package coupon

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/kiritori/internal/model"
	"github.com/hitoshi/kiritori/internal/repository"
)

// Service はクーポンのサービス層。
// ディール単位の重複発行防止と、スタッフによる不可逆な消込を提供する。
type Service struct {
	mu    sync.Mutex
	repo  repository.CouponRepository
	now   func() time.Time
	newID func() string
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.CouponRepository) *Service {
	return &Service{
		repo:  repo,
		now:   time.Now,
		newID: defaultCouponID,
	}
}

// defaultCouponID は "c-<発行時刻ミリ秒>-<短縮UUID>" 形式のクーポンIDを生成する。
func defaultCouponID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("c-%d-%s", time.Now().UnixMilli(), suffix)
}

// Claim はディールからクーポンを1枚発行する。
// 同じディールのAVAILABLEなクーポンが既にある場合は新規発行せず、
// 既存のクーポンとcreated=falseを返す。
func (s *Service) Claim(ctx context.Context, deal *model.Deal) (*model.Coupon, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.FindAvailableByDealID(ctx, deal.ID)
	if err != nil {
		return nil, false, fmt.Errorf("クーポンの照会に失敗しました: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	c := &model.Coupon{
		ID:             s.newID(),
		DealID:         deal.ID,
		Title:          deal.Title,
		RestaurantName: deal.Restaurant.Name,
		DiscountAmount: deal.DiscountAmount,
		ImageURL:       deal.ImageURL,
		Status:         model.CouponStatusAvailable,
		ClaimedAt:      s.now(),
		ExpiresAt:      deal.ExpiresAt,
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		return nil, false, fmt.Errorf("クーポンの発行に失敗しました: %w", err)
	}

	return c.Clone(), true, nil
}

// Get はIDでクーポンを返す。見つからない場合はAPIエラーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Coupon, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("クーポンの取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewCouponNotFoundError(id)
	}
	return c, nil
}

// Redeem はクーポンをUSEDに遷移させる。遷移は不可逆で、すでにUSEDの
// クーポンに対してはchanged=falseを返すだけで状態は変えない。
func (s *Service) Redeem(ctx context.Context, id string) (*model.Coupon, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("クーポンの取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, false, model.NewCouponNotFoundError(id)
	}

	changed, err := s.repo.MarkUsed(ctx, id, s.now())
	if err != nil {
		return nil, false, fmt.Errorf("クーポンの消込に失敗しました: %w", err)
	}

	c, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("クーポンの再取得に失敗しました: %w", err)
	}
	return c, changed, nil
}

// List は全クーポンをアクティビティ時刻（使用済みなら使用時刻、それ以外は
// 取得時刻）の降順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Coupon, error) {
	return s.listFiltered(ctx, "")
}

// ListByStatus は指定ステータスのクーポンをアクティビティ時刻の降順で返す。
func (s *Service) ListByStatus(ctx context.Context, status model.CouponStatus) ([]*model.Coupon, error) {
	if !status.Valid() {
		return nil, model.NewInvalidStatusError(string(status))
	}
	return s.listFiltered(ctx, status)
}

func (s *Service) listFiltered(ctx context.Context, status model.CouponStatus) ([]*model.Coupon, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("クーポン一覧の取得に失敗しました: %w", err)
	}

	results := make([]*model.Coupon, 0, len(all))
	for _, c := range all {
		if status != "" && c.Status != status {
			continue
		}
		results = append(results, c)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ActivityAt().After(results[j].ActivityAt())
	})

	return results, nil
}
