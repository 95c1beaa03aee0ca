package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/kiritori/internal/model"
	"github.com/hitoshi/kiritori/internal/security"
)

// remoteDeal はリモート配信元のJSON表現。フィールド名は配信元の契約に従う。
type remoteDeal struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	OriginalPrice    int              `json:"originalPrice"`
	DiscountAmount   int              `json:"discountAmount"`
	ImageURL         string           `json:"imageUrl"`
	TotalCoupons     int              `json:"totalCoupons"`
	RemainingCoupons int              `json:"remainingCoupons"`
	ExpiresAt        time.Time        `json:"expiresAt"`
	Restaurant       remoteRestaurant `json:"restaurant"`
}

type remoteRestaurant struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Distance    int     `json:"distance"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"reviewCount"`
}

// RemoteSource はリモート配信元からディール一覧を取得するDealSource。
// HTTPクライアントはSSRF防止付きで、表示用テキストは保存前に無害化される。
type RemoteSource struct {
	url       string
	client    *http.Client
	sanitizer security.TextSanitizerService
	maxSize   int64
	logger    *slog.Logger
}

// NewRemoteSource はRemoteSourceの新しいインスタンスを生成する。
// 配信元URLは生成時に静的検証され、危険なURLはエラーになる。
func NewRemoteSource(
	rawURL string,
	guard security.SSRFGuardService,
	sanitizer security.TextSanitizerService,
	timeout time.Duration,
	maxSize int64,
	logger *slog.Logger,
) (*RemoteSource, error) {
	if err := guard.ValidateURL(rawURL); err != nil {
		return nil, model.NewInvalidURLError(err.Error())
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RemoteSource{
		url:       rawURL,
		client:    guard.NewSafeClient(timeout, maxSize),
		sanitizer: sanitizer,
		maxSize:   maxSize,
		logger:    logger,
	}, nil
}

// FetchFlashDeals は配信元からJSONのディール一覧を取得する。
// 在庫数が不正（remaining < 0 または remaining > total）なエントリは
// 警告ログを出してスキップする。
func (s *RemoteSource) FetchFlashDeals(ctx context.Context) ([]*model.Deal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build deals request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, model.NewFetchFailedError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, model.NewFetchFailedError(fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxSize))
	if err != nil {
		return nil, model.NewFetchFailedError(err.Error())
	}

	var payload []remoteDeal
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, model.NewFetchFailedError(err.Error())
	}

	deals := make([]*model.Deal, 0, len(payload))
	for _, rd := range payload {
		if rd.ID == "" {
			s.logger.Warn("IDのないディールをスキップします")
			continue
		}
		if rd.RemainingCoupons < 0 || rd.RemainingCoupons > rd.TotalCoupons {
			s.logger.Warn("在庫数が不正なディールをスキップします",
				slog.String("deal_id", rd.ID),
				slog.Int("remaining", rd.RemainingCoupons),
				slog.Int("total", rd.TotalCoupons),
			)
			continue
		}

		deals = append(deals, &model.Deal{
			ID:               rd.ID,
			Title:            s.sanitizer.Sanitize(rd.Title),
			OriginalPrice:    rd.OriginalPrice,
			DiscountAmount:   rd.DiscountAmount,
			ImageURL:         rd.ImageURL,
			TotalCoupons:     rd.TotalCoupons,
			RemainingCoupons: rd.RemainingCoupons,
			ExpiresAt:        rd.ExpiresAt,
			Restaurant: model.Restaurant{
				ID:          rd.Restaurant.ID,
				Name:        s.sanitizer.Sanitize(rd.Restaurant.Name),
				Category:    s.sanitizer.Sanitize(rd.Restaurant.Category),
				DistanceM:   rd.Restaurant.Distance,
				Rating:      rd.Restaurant.Rating,
				ReviewCount: rd.Restaurant.ReviewCount,
			},
		})
	}

	return deals, nil
}
