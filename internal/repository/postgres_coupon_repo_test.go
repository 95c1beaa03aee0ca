package repository

import (
	"testing"

	"github.com/hitoshi/kiritori/internal/model"
)

// TestPostgresCouponRepo_ImplementsInterface はPostgresCouponRepoがCouponRepositoryを実装することを検証する。
func TestPostgresCouponRepo_ImplementsInterface(t *testing.T) {
	// コンパイル時チェック：PostgresCouponRepoがCouponRepositoryを満たすことを検証
	var _ CouponRepository = (*PostgresCouponRepo)(nil)
}

// TestMemoryCouponRepo_ImplementsInterface はMemoryCouponRepoがCouponRepositoryを実装することを検証する。
func TestMemoryCouponRepo_ImplementsInterface(t *testing.T) {
	var _ CouponRepository = (*MemoryCouponRepo)(nil)
}

// TestCouponStatusValues はCouponStatusの定数値が正しいことを検証する。
func TestCouponStatusValues(t *testing.T) {
	if model.CouponStatusAvailable != "AVAILABLE" {
		t.Errorf("CouponStatusAvailable = %q, want %q", model.CouponStatusAvailable, "AVAILABLE")
	}
	if model.CouponStatusUsed != "USED" {
		t.Errorf("CouponStatusUsed = %q, want %q", model.CouponStatusUsed, "USED")
	}
}
