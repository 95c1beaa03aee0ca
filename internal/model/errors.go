// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, deal, coupon, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeDealNotFound   = "DEAL_NOT_FOUND"
	ErrCodeDealNotTorn    = "DEAL_NOT_TORN"
	ErrCodeCouponNotFound = "COUPON_NOT_FOUND"
	ErrCodeInvalidStatus  = "INVALID_STATUS"
	ErrCodeInvalidGesture = "INVALID_GESTURE"
	ErrCodeInvalidURL     = "INVALID_URL"
	ErrCodeSSRFBlocked    = "SSRF_BLOCKED"
	ErrCodeFetchFailed    = "FETCH_FAILED"
)

// NewDealNotFoundError はディール未検出エラーを生成する。
func NewDealNotFoundError(dealID string) *APIError {
	return &APIError{
		Code:     ErrCodeDealNotFound,
		Message:  fmt.Sprintf("指定されたディールが見つかりません: %s", dealID),
		Category: "deal",
		Action:   "ディールIDを確認してください。",
	}
}

// NewDealNotTornError は未切り取りカードへのクーポン表示ショートカットエラーを生成する。
func NewDealNotTornError(dealID string) *APIError {
	return &APIError{
		Code:     ErrCodeDealNotTorn,
		Message:  fmt.Sprintf("このディールのクーポンはまだ切り取られていません: %s", dealID),
		Category: "deal",
		Action:   "クーポンを右にドラッグして切り取ってください。",
	}
}

// NewCouponNotFoundError はクーポン未検出エラーを生成する。
func NewCouponNotFoundError(couponID string) *APIError {
	return &APIError{
		Code:     ErrCodeCouponNotFound,
		Message:  fmt.Sprintf("指定されたクーポンが見つかりません: %s", couponID),
		Category: "coupon",
		Action:   "クーポンIDを確認してください。",
	}
}

// NewInvalidStatusError は無効なクーポンステータスエラーを生成する。
func NewInvalidStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("無効なステータスです: %s", status),
		Category: "validation",
		Action:   "ステータスには available または used を指定してください。",
	}
}

// NewInvalidGestureError は無効なジェスチャ種別エラーを生成する。
func NewInvalidGestureError(gestureType string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidGesture,
		Message:  fmt.Sprintf("無効なジェスチャ種別です: %s", gestureType),
		Category: "validation",
		Action:   "ジェスチャ種別には begin、move、end のいずれかを指定してください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を設定してください。",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "セキュリティポリシーにより、指定されたURLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているディール配信URLを設定してください。プライベートIPへのアクセスは許可されていません。",
	}
}

// NewFetchFailedError はディール取得失敗エラーを生成する。
func NewFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeFetchFailed,
		Message:  fmt.Sprintf("ディール一覧の取得に失敗しました: %s", reason),
		Category: "deal",
		Action:   "配信URLが正しいか確認し、しばらく待ってから再度お試しください。",
	}
}
