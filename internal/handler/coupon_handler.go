package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/hitoshi/kiritori/internal/model"
)

// qrImageSize はQRコードPNGの1辺のピクセル数。
const qrImageSize = 256

// CouponServiceInterface はクーポンハンドラーが必要とするサービスインターフェース。
type CouponServiceInterface interface {
	// List は全クーポンをアクティビティ時刻の降順で返す。
	List(ctx context.Context) ([]*model.Coupon, error)
	// ListByStatus は指定ステータスのクーポンをアクティビティ時刻の降順で返す。
	ListByStatus(ctx context.Context, status model.CouponStatus) ([]*model.Coupon, error)
	// Get はIDでクーポンを返す。
	Get(ctx context.Context, id string) (*model.Coupon, error)
	// Redeem はクーポンを不可逆にUSEDへ遷移させる。冪等。
	Redeem(ctx context.Context, id string) (*model.Coupon, bool, error)
}

// Recorder は消込メトリクスの計測インターフェース。
type Recorder interface {
	RecordRedemption()
}

// CouponHandler はクーポン管理のHTTPハンドラー。
type CouponHandler struct {
	service  CouponServiceInterface
	recorder Recorder // nil可
}

// NewCouponHandler はCouponHandlerを生成する。
func NewCouponHandler(service CouponServiceInterface, recorder Recorder) *CouponHandler {
	return &CouponHandler{service: service, recorder: recorder}
}

// --- レスポンス型 ---

type couponResponse struct {
	ID             string     `json:"id"`
	DealID         string     `json:"deal_id"`
	Title          string     `json:"title"`
	RestaurantName string     `json:"restaurant_name"`
	DiscountAmount int        `json:"discount_amount"`
	ImageURL       string     `json:"image_url"`
	Status         string     `json:"status"`
	ClaimedAt      time.Time  `json:"claimed_at"`
	UsedAt         *time.Time `json:"used_at,omitempty"`
	ExpiresAt      time.Time  `json:"expires_at"`
}

type couponListResponse struct {
	Coupons []couponResponse `json:"coupons"`
}

type redeemResponse struct {
	Coupon  couponResponse `json:"coupon"`
	Changed bool           `json:"changed"`
}

func toCouponResponse(c *model.Coupon) couponResponse {
	return couponResponse{
		ID:             c.ID,
		DealID:         c.DealID,
		Title:          c.Title,
		RestaurantName: c.RestaurantName,
		DiscountAmount: c.DiscountAmount,
		ImageURL:       c.ImageURL,
		Status:         string(c.Status),
		ClaimedAt:      c.ClaimedAt,
		UsedAt:         c.UsedAt,
		ExpiresAt:      c.ExpiresAt,
	}
}

// ListCoupons はクーポン一覧を返す。
// GET /api/coupons?status=available|used
func (h *CouponHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	var (
		coupons []*model.Coupon
		err     error
	)

	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		// クエリは小文字で受け、内部表現の大文字ステータスへ正規化する
		status := model.CouponStatus("")
		switch statusStr {
		case "available":
			status = model.CouponStatusAvailable
		case "used":
			status = model.CouponStatusUsed
		default:
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidStatusError(statusStr))
			return
		}
		coupons, err = h.service.ListByStatus(r.Context(), status)
	} else {
		coupons, err = h.service.List(r.Context())
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := couponListResponse{Coupons: make([]couponResponse, len(coupons))}
	for i, c := range coupons {
		resp.Coupons[i] = toCouponResponse(c)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetCoupon は消込画面用のクーポン詳細を返す。
// GET /api/coupons/:id
func (h *CouponHandler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCouponResponse(c))
}

// GetCouponQR は消込コードのQR画像を返す。コードはクーポンIDそのもの。
// GET /api/coupons/:id/qr
func (h *CouponHandler) GetCouponQR(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	png, err := qrcode.Encode(c.ID, qrcode.Medium, qrImageSize)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// RedeemCoupon はスタッフ確認によるクーポン消込を行う。
// POST /api/coupons/:id/redeem
// 消込は不可逆で、すでに使用済みのクーポンにはchanged=falseが返る。
func (h *CouponHandler) RedeemCoupon(w http.ResponseWriter, r *http.Request) {
	c, changed, err := h.service.Redeem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if changed && h.recorder != nil {
		h.recorder.RecordRedemption()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(redeemResponse{Coupon: toCouponResponse(c), Changed: changed})
}
