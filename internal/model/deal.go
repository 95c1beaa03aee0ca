// Package model はドメインモデルを定義する。
package model

import "time"

// Restaurant はディールを提供する店舗を表す。
type Restaurant struct {
	ID          string
	Name        string
	Category    string
	DistanceM   int // 現在地からの距離（メートル）
	Rating      float64
	ReviewCount int
}

// Deal は時間限定の割引オファーを表す。
// フィードの1画面に1件ずつ全画面カードとして表示される。
// RemainingCoupons以外のフィールドはフィード項目ごとにイミュータブルとして扱う。
// 残数は表示用カウンタであり、0 <= RemainingCoupons <= TotalCoupons を常に満たす。
type Deal struct {
	ID               string
	Title            string
	OriginalPrice    int
	DiscountAmount   int
	ImageURL         string
	TotalCoupons     int
	RemainingCoupons int
	ExpiresAt        time.Time
	Restaurant       Restaurant
}

// Expired は指定時刻においてディールが終了しているかを返す。
func (d *Deal) Expired(now time.Time) bool {
	return !d.ExpiresAt.After(now)
}
