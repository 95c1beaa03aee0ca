// Package handler はHTTP APIハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/kiritori/internal/feed"
	"github.com/hitoshi/kiritori/internal/model"
)

// FeedControllerInterface はディールハンドラーが必要とするフィード操作の
// インターフェース。
type FeedControllerInterface interface {
	Cards() []feed.CardView
	Card(id string) (feed.CardView, error)
	Gesture(ctx context.Context, id string, ev feed.GestureEvent) (feed.CardView, error)
	ClaimShortcut(ctx context.Context, id string) (*model.Coupon, error)
	ToggleFavorite(id string) (feed.CardView, error)
	Notice() string
}

// DealHandler はディールフィードのHTTPハンドラー。
type DealHandler struct {
	controller FeedControllerInterface
}

// NewDealHandler はDealHandlerを生成する。
func NewDealHandler(controller FeedControllerInterface) *DealHandler {
	return &DealHandler{controller: controller}
}

// --- レスポンス型 ---

type restaurantResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	DistanceM   int     `json:"distance_m"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}

type dealResponse struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	OriginalPrice  int                `json:"original_price"`
	DiscountAmount int                `json:"discount_amount"`
	ImageURL       string             `json:"image_url"`
	TotalCoupons   int                `json:"total_coupons"`
	ExpiresAt      time.Time          `json:"expires_at"`
	Restaurant     restaurantResponse `json:"restaurant"`
}

// cardResponse はフィード1枚分のレスポンス。残数は表示用のカード状態から
// 取るため、deal側ではなくトップレベルに置く。
type cardResponse struct {
	Deal      dealResponse `json:"deal"`
	Phase     string       `json:"phase"`
	OffsetX   float64      `json:"offset_x"`
	Remaining int          `json:"remaining"`
	Favorite  bool         `json:"favorite"`
	TimeLeft  string       `json:"time_left"`
}

type feedResponse struct {
	Cards []cardResponse `json:"cards"`
}

type noticeResponse struct {
	Notice string `json:"notice"`
}

// apiErrorResponse は統一エラーフォーマット。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

func toCardResponse(view feed.CardView) cardResponse {
	d := view.Deal
	return cardResponse{
		Deal: dealResponse{
			ID:             d.ID,
			Title:          d.Title,
			OriginalPrice:  d.OriginalPrice,
			DiscountAmount: d.DiscountAmount,
			ImageURL:       d.ImageURL,
			TotalCoupons:   d.TotalCoupons,
			ExpiresAt:      d.ExpiresAt,
			Restaurant: restaurantResponse{
				ID:          d.Restaurant.ID,
				Name:        d.Restaurant.Name,
				Category:    d.Restaurant.Category,
				DistanceM:   d.Restaurant.DistanceM,
				Rating:      d.Restaurant.Rating,
				ReviewCount: d.Restaurant.ReviewCount,
			},
		},
		Phase:     string(view.Snapshot.Phase),
		OffsetX:   view.Snapshot.OffsetX,
		Remaining: view.Snapshot.Remaining,
		Favorite:  view.Snapshot.Favorite,
		TimeLeft:  view.TimeLeft,
	}
}

// ListDeals はフィード全体のスナップショットを返す。
// GET /api/deals
func (h *DealHandler) ListDeals(w http.ResponseWriter, r *http.Request) {
	views := h.controller.Cards()
	cards := make([]cardResponse, len(views))
	for i, v := range views {
		cards[i] = toCardResponse(v)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(feedResponse{Cards: cards})
}

// GetDeal は1枚のカードのスナップショットを返す。
// GET /api/deals/:id
func (h *DealHandler) GetDeal(w http.ResponseWriter, r *http.Request) {
	view, err := h.controller.Card(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCardResponse(view))
}

// Gesture はポインタイベントをカードへ配送する。
// POST /api/deals/:id/gesture  {"type":"begin"|"move"|"end","x":123.4}
// カードの状態上意味のないイベントはエラーにならず、現在のスナップショットが返る。
func (h *DealHandler) Gesture(w http.ResponseWriter, r *http.Request) {
	var ev feed.GestureEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidGestureError("body"))
		return
	}

	view, err := h.controller.Gesture(r.Context(), chi.URLParam(r, "id"), ev)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCardResponse(view))
}

// Claim は切り取り済みカードのクーポンを返すショートカット。
// POST /api/deals/:id/claim
func (h *DealHandler) Claim(w http.ResponseWriter, r *http.Request) {
	coupon, err := h.controller.ClaimShortcut(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCouponResponse(coupon))
}

// ToggleFavorite はカードのお気に入りフラグを反転する。
// POST /api/deals/:id/favorite
func (h *DealHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	view, err := h.controller.ToggleFavorite(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCardResponse(view))
}

// GetNotice は現在の直近購入者通知を返す。通知がない場合は空文字列。
// GET /api/notice
func (h *DealHandler) GetNotice(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(noticeResponse{Notice: h.controller.Notice()})
}

// --- 共有ヘルパー ---

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeDealNotFound, model.ErrCodeCouponNotFound:
		return http.StatusNotFound
	case model.ErrCodeDealNotTorn:
		return http.StatusConflict
	case model.ErrCodeInvalidStatus, model.ErrCodeInvalidGesture, model.ErrCodeInvalidURL:
		return http.StatusBadRequest
	case model.ErrCodeSSRFBlocked:
		return http.StatusForbidden
	case model.ErrCodeFetchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
