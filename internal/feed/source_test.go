package feed

import (
	"context"
	"testing"
	"time"
)

// TestFixtureSource_FetchFlashDeals はフィクスチャの形を検証する。
// 10件のディールのうち1件は売り切れかつ期限切れ。
func TestFixtureSource_FetchFlashDeals(t *testing.T) {
	src := NewFixtureSource()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	src.now = func() time.Time { return base }

	deals, err := src.FetchFlashDeals(context.Background())
	if err != nil {
		t.Fatalf("FetchFlashDeals returned error: %v", err)
	}
	if len(deals) != 10 {
		t.Fatalf("len(deals) = %d, want 10", len(deals))
	}

	seen := make(map[string]bool)
	soldOutExpired := 0
	for _, d := range deals {
		if seen[d.ID] {
			t.Errorf("duplicate deal id %q", d.ID)
		}
		seen[d.ID] = true

		if d.RemainingCoupons < 0 || d.RemainingCoupons > d.TotalCoupons {
			t.Errorf("deal %s: remaining %d out of range [0, %d]", d.ID, d.RemainingCoupons, d.TotalCoupons)
		}
		if d.DiscountAmount <= 0 || d.DiscountAmount >= d.OriginalPrice {
			t.Errorf("deal %s: discount %d out of range (0, %d)", d.ID, d.DiscountAmount, d.OriginalPrice)
		}
		if d.RemainingCoupons == 0 && d.Expired(base) {
			soldOutExpired++
		}
	}
	if soldOutExpired != 1 {
		t.Errorf("sold-out expired deals = %d, want exactly 1", soldOutExpired)
	}
}
