package feed

import (
	"context"
	"time"

	"github.com/hitoshi/kiritori/internal/model"
)

// DealSource はフラッシュディール一覧の取得元を抽象化する。
// 実装はフィクスチャ（開発用）とリモート配信元（RemoteSource）の2種類。
type DealSource interface {
	FetchFlashDeals(ctx context.Context) ([]*model.Deal, error)
}

// FixtureSource は開発・デモ用の固定ディールを返すDealSource。
// 期限は取得時刻からの相対で設定されるため、起動するたびに新しい
// カウントダウンが始まる。売り切れかつ期限切れのディールを1件含む。
type FixtureSource struct {
	now func() time.Time
}

// NewFixtureSource はFixtureSourceの新しいインスタンスを生成する。
func NewFixtureSource() *FixtureSource {
	return &FixtureSource{now: time.Now}
}

// FetchFlashDeals は固定の10件のディールを返す。
func (s *FixtureSource) FetchFlashDeals(ctx context.Context) ([]*model.Deal, error) {
	now := s.now()
	return []*model.Deal{
		{
			ID:               "deal-001",
			Title:            "特選握り寿司 12貫盛り",
			OriginalPrice:    2200,
			DiscountAmount:   700,
			ImageURL:         "https://images.unsplash.com/photo-1611143669185-af224c5e3252?q=80&w=1287&auto=format&fit=crop",
			TotalCoupons:     50,
			RemainingCoupons: 3,
			ExpiresAt:        now.Add(1 * time.Hour),
			Restaurant: model.Restaurant{
				ID:          "rest-001",
				Name:        "鮨処 大和 本店",
				Category:    "和食",
				DistanceM:   350,
				Rating:      4.9,
				ReviewCount: 2350,
			},
		},
		{
			ID:               "deal-002",
			Title:            "トマホークステーキセット",
			OriginalPrice:    12800,
			DiscountAmount:   4000,
			ImageURL:         "https://images.unsplash.com/photo-1546964124-0cce460f38ef?q=80&w=1287&auto=format&fit=crop",
			TotalCoupons:     10,
			RemainingCoupons: 2,
			ExpiresAt:        now.Add(2 * time.Hour),
			Restaurant: model.Restaurant{
				ID:          "rest-002",
				Name:        "アナザーキッチン 中町店",
				Category:    "洋食",
				DistanceM:   520,
				Rating:      4.8,
				ReviewCount: 890,
			},
		},
		{
			ID:               "deal-003",
			Title:            "自家製 豚スペアリブ 2人前",
			OriginalPrice:    3600,
			DiscountAmount:   1200,
			ImageURL:         "https://images.unsplash.com/photo-1593560708920-61dd98c46a4e?q=80&w=1287&auto=format&fit=crop",
			TotalCoupons:     30,
			RemainingCoupons: 8,
			ExpiresAt:        now.Add(90 * time.Minute),
			Restaurant: model.Restaurant{
				ID:          "rest-003",
				Name:        "炭火焼 名家",
				Category:    "焼肉",
				DistanceM:   1200,
				Rating:      4.6,
				ReviewCount: 432,
			},
		},
		{
			ID:               "deal-004",
			Title:            "激辛 鉄板イイダコ炒め",
			OriginalPrice:    2800,
			DiscountAmount:   900,
			ImageURL:         "https://images.unsplash.com/photo-1582538884036-d885ac6e3913?q=80&w=1335&auto=format&fit=crop",
			TotalCoupons:     40,
			RemainingCoupons: 15,
			ExpiresAt:        now.Add(150 * time.Minute),
			Restaurant: model.Restaurant{
				ID:          "rest-004",
				Name:        "辛口食堂 タコの星",
				Category:    "韓国料理",
				DistanceM:   450,
				Rating:      4.7,
				ReviewCount: 1560,
			},
		},
		{
			ID:               "deal-005",
			Title:            "いちごたっぷり生クリームケーキ",
			OriginalPrice:    4200,
			DiscountAmount:   1500,
			ImageURL:         "https://images.unsplash.com/photo-1578985545062-69928b1d9587?q=80&w=1287&auto=format&fit=crop",
			TotalCoupons:     20,
			RemainingCoupons: 5,
			ExpiresAt:        now.Add(40 * time.Minute),
			Restaurant: model.Restaurant{
				ID:          "rest-005",
				Name:        "カフェ 304",
				Category:    "カフェ・スイーツ",
				DistanceM:   600,
				Rating:      4.8,
				ReviewCount: 3200,
			},
		},
		{
			ID:               "deal-006",
			Title:            "昔ながらの釜揚げ丸鶏 一羽",
			OriginalPrice:    2100,
			DiscountAmount:   600,
			ImageURL:         "https://images.unsplash.com/photo-1598103442097-8b74394b95c6?q=80&w=1287&auto=format&fit=crop",
			TotalCoupons:     100,
			RemainingCoupons: 42,
			ExpiresAt:        now.Add(200 * time.Minute),
			Restaurant: model.Restaurant{
				ID:          "rest-006",
				Name:        "丸鶏本舗 西口店",
				Category:    "チキン",
				DistanceM:   2100,
				Rating:      4.5,
				ReviewCount: 512,
			},
		},
		{
			ID:               "deal-007",
			Title:            "サーモンポキ＆アボカドサラダ",
			OriginalPrice:    1600,
			DiscountAmount:   450,
			ImageURL:         "https://images.unsplash.com/photo-1546069901-ba9599a7e63c?q=80&w=1287&auto=format&fit=crop",
			TotalCoupons:     25,
			RemainingCoupons: 1,
			ExpiresAt:        now.Add(20 * time.Minute),
			Restaurant: model.Restaurant{
				ID:          "rest-007",
				Name:        "ボウルレシピ 丘の上店",
				Category:    "サラダ",
				DistanceM:   1800,
				Rating:      4.7,
				ReviewCount: 210,
			},
		},
		{
			ID:               "deal-008",
			Title:            "ダブルチーズ手作りバーガーセット",
			OriginalPrice:    1450,
			DiscountAmount:   500,
			ImageURL:         "https://images.unsplash.com/photo-1550547660-d9450f859349?q=80&w=1287&auto=format&fit=crop",
			TotalCoupons:     60,
			RemainingCoupons: 28,
			ExpiresAt:        now.Add(105 * time.Minute),
			Restaurant: model.Restaurant{
				ID:          "rest-008",
				Name:        "フランクバーガー 駅前店",
				Category:    "バーガー",
				DistanceM:   250,
				Rating:      4.4,
				ReviewCount: 180,
			},
		},
		{
			// 売り切れかつ期限切れのディール。カードは最初からsold_outになる。
			ID:               "deal-009",
			Title:            "窯焼きゴルゴンゾーラピザ",
			OriginalPrice:    1900,
			DiscountAmount:   800,
			ImageURL:         "https://images.unsplash.com/photo-1565299624946-b28f40a0ae38?q=80&w=1287&auto=format&fit=crop",
			TotalCoupons:     15,
			RemainingCoupons: 0,
			ExpiresAt:        now.Add(-time.Second),
			Restaurant: model.Restaurant{
				ID:          "rest-009",
				Name:        "ロニピッツァ 中央店",
				Category:    "洋食",
				DistanceM:   400,
				Rating:      4.5,
				ReviewCount: 950,
			},
		},
		{
			ID:               "deal-010",
			Title:            "旨辛 牛すじチャンポン",
			OriginalPrice:    1300,
			DiscountAmount:   400,
			ImageURL:         "https://images.unsplash.com/photo-1552611052-33e04de081de?q=80&w=1287&auto=format&fit=crop",
			TotalCoupons:     45,
			RemainingCoupons: 12,
			ExpiresAt:        now.Add(80 * time.Minute),
			Restaurant: model.Restaurant{
				ID:          "rest-010",
				Name:        "新楽園 本店",
				Category:    "中華",
				DistanceM:   650,
				Rating:      4.6,
				ReviewCount: 1120,
			},
		},
	}, nil
}
