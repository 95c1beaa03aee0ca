package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/kiritori/internal/model"
)

// --- モック定義 ---

// mockCouponService はCouponServiceInterfaceのモック実装。
type mockCouponService struct {
	listFn         func(ctx context.Context) ([]*model.Coupon, error)
	listByStatusFn func(ctx context.Context, status model.CouponStatus) ([]*model.Coupon, error)
	getFn          func(ctx context.Context, id string) (*model.Coupon, error)
	redeemFn       func(ctx context.Context, id string) (*model.Coupon, bool, error)
}

func (m *mockCouponService) List(ctx context.Context) ([]*model.Coupon, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockCouponService) ListByStatus(ctx context.Context, status model.CouponStatus) ([]*model.Coupon, error) {
	if m.listByStatusFn != nil {
		return m.listByStatusFn(ctx, status)
	}
	return nil, nil
}

func (m *mockCouponService) Get(ctx context.Context, id string) (*model.Coupon, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockCouponService) Redeem(ctx context.Context, id string) (*model.Coupon, bool, error) {
	if m.redeemFn != nil {
		return m.redeemFn(ctx, id)
	}
	return nil, false, nil
}

// mockRecorder はRecorderのモック実装。
type mockRecorder struct {
	redemptions int
}

func (m *mockRecorder) RecordRedemption() { m.redemptions++ }

func testCoupon(id, dealID string) *model.Coupon {
	return &model.Coupon{
		ID:             id,
		DealID:         dealID,
		Title:          "海鮮丼 半額",
		RestaurantName: "魚河岸 大漁",
		DiscountAmount: 700,
		Status:         model.CouponStatusAvailable,
		ClaimedAt:      time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		ExpiresAt:      time.Date(2026, 8, 30, 13, 0, 0, 0, time.UTC),
	}
}

// --- GET /api/coupons テスト ---

func TestCouponHandler_ListCoupons(t *testing.T) {
	svc := &mockCouponService{
		listFn: func(ctx context.Context) ([]*model.Coupon, error) {
			return []*model.Coupon{testCoupon("c-2", "deal-2"), testCoupon("c-1", "deal-1")}, nil
		},
	}
	h := NewCouponHandler(svc, &mockRecorder{})

	req := httptest.NewRequest(http.MethodGet, "/api/coupons", nil)
	w := httptest.NewRecorder()
	h.ListCoupons(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}

	var result map[string]any
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	coupons, ok := result["coupons"].([]any)
	if !ok || len(coupons) != 2 {
		t.Fatalf("coupons = %v, want 2 entries", result["coupons"])
	}
	first, _ := coupons[0].(map[string]any)
	if first["id"] != "c-2" {
		t.Errorf("coupons[0].id = %v, want c-2", first["id"])
	}
}

func TestCouponHandler_ListCoupons_StatusFilter(t *testing.T) {
	var gotStatus model.CouponStatus
	svc := &mockCouponService{
		listByStatusFn: func(ctx context.Context, status model.CouponStatus) ([]*model.Coupon, error) {
			gotStatus = status
			return nil, nil
		},
	}
	h := NewCouponHandler(svc, &mockRecorder{})

	req := httptest.NewRequest(http.MethodGet, "/api/coupons?status=used", nil)
	w := httptest.NewRecorder()
	h.ListCoupons(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}
	if gotStatus != model.CouponStatusUsed {
		t.Errorf("status = %q, want USED", gotStatus)
	}
}

func TestCouponHandler_ListCoupons_InvalidStatus(t *testing.T) {
	h := NewCouponHandler(&mockCouponService{}, &mockRecorder{})

	req := httptest.NewRequest(http.MethodGet, "/api/coupons?status=expired", nil)
	w := httptest.NewRecorder()
	h.ListCoupons(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Result().StatusCode)
	}
	if errResp := parseAPIErrorResponse(t, w); errResp["code"] != model.ErrCodeInvalidStatus {
		t.Errorf("code = %q, want INVALID_STATUS", errResp["code"])
	}
}

// --- GET /api/coupons/:id テスト ---

func TestCouponHandler_GetCoupon_NotFound(t *testing.T) {
	svc := &mockCouponService{
		getFn: func(ctx context.Context, id string) (*model.Coupon, error) {
			return nil, model.NewCouponNotFoundError(id)
		},
	}
	h := NewCouponHandler(svc, &mockRecorder{})

	req := httptest.NewRequest(http.MethodGet, "/api/coupons/c-x", nil)
	req = withChiURLParam(req, "id", "c-x")
	w := httptest.NewRecorder()
	h.GetCoupon(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Result().StatusCode)
	}
	if errResp := parseAPIErrorResponse(t, w); errResp["code"] != model.ErrCodeCouponNotFound {
		t.Errorf("code = %q, want COUPON_NOT_FOUND", errResp["code"])
	}
}

// --- GET /api/coupons/:id/qr テスト ---

func TestCouponHandler_GetCouponQR(t *testing.T) {
	svc := &mockCouponService{
		getFn: func(ctx context.Context, id string) (*model.Coupon, error) {
			return testCoupon(id, "deal-1"), nil
		},
	}
	h := NewCouponHandler(svc, &mockRecorder{})

	req := httptest.NewRequest(http.MethodGet, "/api/coupons/c-1/qr", nil)
	req = withChiURLParam(req, "id", "c-1")
	w := httptest.NewRecorder()
	h.GetCouponQR(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	// PNGシグネチャの先頭バイトを確認する
	if body := w.Body.Bytes(); len(body) < 8 || !bytes.Equal(body[:4], []byte{0x89, 'P', 'N', 'G'}) {
		t.Error("body is not a PNG image")
	}
}

// --- POST /api/coupons/:id/redeem テスト ---

func TestCouponHandler_RedeemCoupon(t *testing.T) {
	usedAt := time.Date(2026, 8, 30, 12, 45, 0, 0, time.UTC)
	svc := &mockCouponService{
		redeemFn: func(ctx context.Context, id string) (*model.Coupon, bool, error) {
			c := testCoupon(id, "deal-1")
			c.Status = model.CouponStatusUsed
			c.UsedAt = &usedAt
			return c, true, nil
		},
	}
	recorder := &mockRecorder{}
	h := NewCouponHandler(svc, recorder)

	req := httptest.NewRequest(http.MethodPost, "/api/coupons/c-1/redeem", nil)
	req = withChiURLParam(req, "id", "c-1")
	w := httptest.NewRecorder()
	h.RedeemCoupon(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}

	var result map[string]any
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["changed"] != true {
		t.Errorf("changed = %v, want true", result["changed"])
	}
	coupon, _ := result["coupon"].(map[string]any)
	if coupon["status"] != string(model.CouponStatusUsed) {
		t.Errorf("coupon.status = %v, want USED", coupon["status"])
	}
	if recorder.redemptions != 1 {
		t.Errorf("redemptions = %d, want 1", recorder.redemptions)
	}
}

func TestCouponHandler_RedeemCoupon_AlreadyUsed(t *testing.T) {
	usedAt := time.Date(2026, 8, 30, 12, 45, 0, 0, time.UTC)
	svc := &mockCouponService{
		redeemFn: func(ctx context.Context, id string) (*model.Coupon, bool, error) {
			c := testCoupon(id, "deal-1")
			c.Status = model.CouponStatusUsed
			c.UsedAt = &usedAt
			return c, false, nil
		},
	}
	recorder := &mockRecorder{}
	h := NewCouponHandler(svc, recorder)

	req := httptest.NewRequest(http.MethodPost, "/api/coupons/c-1/redeem", nil)
	req = withChiURLParam(req, "id", "c-1")
	w := httptest.NewRecorder()
	h.RedeemCoupon(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}

	var result map[string]any
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["changed"] != false {
		t.Errorf("changed = %v, want false", result["changed"])
	}
	if recorder.redemptions != 0 {
		t.Errorf("redemptions = %d, want 0 for idempotent repeat", recorder.redemptions)
	}
}
