// Package repository はクーポンデータの永続化インターフェースを定義する。
//
// デフォルトはプロセス内のインメモリストアだが、クレーム状態機械の公開契約に
// 触れることなくPostgreSQL実装へ差し替えられる。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/kiritori/internal/model"
)

// CouponRepository はクーポンデータの永続化インターフェース。
// 返されるクーポンはすべてコピーであり、呼び出し側が変更しても
// ストア内部の状態には影響しない。
type CouponRepository interface {
	// Insert はクーポンをコレクションの先頭に挿入する。
	Insert(ctx context.Context, coupon *model.Coupon) error

	// FindByID は指定IDのクーポンを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Coupon, error)

	// FindAvailableByDealID は指定ディールのAVAILABLEクーポンを取得する。
	// 存在しない場合はnilを返す。ストア不変条件により高々1件。
	FindAvailableByDealID(ctx context.Context, dealID string) (*model.Coupon, error)

	// List は全クーポンを挿入順（先頭が最新のクレーム）で返す。
	List(ctx context.Context) ([]*model.Coupon, error)

	// MarkUsed は指定クーポンをAVAILABLEからUSEDへ遷移させ、使用時刻を刻印する。
	// 既にUSEDの場合はno-op（falseを返す）。見つからない場合もfalseを返す。
	MarkUsed(ctx context.Context, id string, usedAt time.Time) (bool, error)
}
