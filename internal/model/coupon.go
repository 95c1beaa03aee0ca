// Package model はドメインモデルを定義する。
package model

import "time"

// CouponStatus はクーポンの利用状態を表す。
type CouponStatus string

const (
	// CouponStatusAvailable は未使用で利用可能な状態。
	CouponStatusAvailable CouponStatus = "AVAILABLE"
	// CouponStatusUsed はスタッフ確認により使用済みとなった状態。
	// USEDからAVAILABLEへ戻る遷移は存在しない。
	CouponStatusUsed CouponStatus = "USED"
)

// Valid はステータス値が定義済みのものかを返す。
func (s CouponStatus) Valid() bool {
	return s == CouponStatusAvailable || s == CouponStatusUsed
}

// Coupon はクレーム成功時にちょうど1回生成される、ユーザー保有のクーポンを表す。
// 表示用フィールドはクレーム時点のDealから非正規化コピーされる。
// 使用済みになっても履歴表示のため削除されない。
type Coupon struct {
	ID             string
	DealID         string
	Title          string
	RestaurantName string
	DiscountAmount int
	ImageURL       string
	Status         CouponStatus
	ClaimedAt      time.Time
	UsedAt         *time.Time
	ExpiresAt      time.Time
}

// ActivityAt はソートに使う最終アクティビティ時刻を返す。
// 使用済みなら使用時刻、未使用ならクレーム時刻。
func (c *Coupon) ActivityAt() time.Time {
	if c.UsedAt != nil {
		return *c.UsedAt
	}
	return c.ClaimedAt
}

// Clone はクーポンのディープコピーを返す。
func (c *Coupon) Clone() *Coupon {
	clone := *c
	if c.UsedAt != nil {
		usedAt := *c.UsedAt
		clone.UsedAt = &usedAt
	}
	return &clone
}
