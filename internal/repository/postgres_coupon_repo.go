package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/kiritori/internal/model"
)

// PostgresCouponRepo はPostgreSQLを使用したクーポンリポジトリ。
// couponsテーブルの部分一意インデックスにより、ディールごとの
// AVAILABLEクーポンが高々1件であることをDB側でも保証する。
type PostgresCouponRepo struct {
	db *sql.DB
}

// NewPostgresCouponRepo はPostgresCouponRepoを生成する。
func NewPostgresCouponRepo(db *sql.DB) *PostgresCouponRepo {
	return &PostgresCouponRepo{db: db}
}

// Insert はクーポンを挿入する。
func (r *PostgresCouponRepo) Insert(ctx context.Context, coupon *model.Coupon) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO coupons
		   (id, deal_id, title, restaurant_name, discount_amount, image_url,
		    status, claimed_at, used_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		coupon.ID, coupon.DealID, coupon.Title, coupon.RestaurantName,
		coupon.DiscountAmount, coupon.ImageURL, string(coupon.Status),
		coupon.ClaimedAt, coupon.UsedAt, coupon.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("クーポンの挿入に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのクーポンを取得する。見つからない場合はnilを返す。
func (r *PostgresCouponRepo) FindByID(ctx context.Context, id string) (*model.Coupon, error) {
	row := r.db.QueryRowContext(ctx,
		selectCouponColumns+` FROM coupons WHERE id = $1`, id)
	return scanCoupon(row)
}

// FindAvailableByDealID は指定ディールのAVAILABLEクーポンを取得する。
func (r *PostgresCouponRepo) FindAvailableByDealID(ctx context.Context, dealID string) (*model.Coupon, error) {
	row := r.db.QueryRowContext(ctx,
		selectCouponColumns+` FROM coupons WHERE deal_id = $1 AND status = $2`,
		dealID, string(model.CouponStatusAvailable))
	return scanCoupon(row)
}

// List は全クーポンをクレーム時刻降順（先頭が最新）で返す。
func (r *PostgresCouponRepo) List(ctx context.Context) ([]*model.Coupon, error) {
	rows, err := r.db.QueryContext(ctx,
		selectCouponColumns+` FROM coupons ORDER BY claimed_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("クーポン一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var out []*model.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MarkUsed は指定クーポンをUSEDへ遷移させる。遷移が起きた場合のみtrueを返す。
func (r *PostgresCouponRepo) MarkUsed(ctx context.Context, id string, usedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE coupons SET status = $1, used_at = $2
		 WHERE id = $3 AND status = $4`,
		string(model.CouponStatusUsed), usedAt, id, string(model.CouponStatusAvailable),
	)
	if err != nil {
		return false, fmt.Errorf("クーポンの使用処理に失敗しました: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

const selectCouponColumns = `SELECT id, deal_id, title, restaurant_name,
	discount_amount, image_url, status, claimed_at, used_at, expires_at`

// rowScanner はsql.Rowとsql.Rowsの共通スキャンインターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCoupon(row rowScanner) (*model.Coupon, error) {
	c := &model.Coupon{}
	var status string
	var usedAt sql.NullTime

	err := row.Scan(
		&c.ID, &c.DealID, &c.Title, &c.RestaurantName,
		&c.DiscountAmount, &c.ImageURL, &status,
		&c.ClaimedAt, &usedAt, &c.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("クーポンの取得に失敗しました: %w", err)
	}

	c.Status = model.CouponStatus(status)
	if usedAt.Valid {
		c.UsedAt = &usedAt.Time
	}
	return c, nil
}
