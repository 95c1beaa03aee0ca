package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/kiritori/internal/metrics"
	"github.com/hitoshi/kiritori/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// フィード
	Feed FeedControllerInterface

	// クーポン
	CouponService CouponServiceInterface
	Recorder      Recorder // nil可

	// 監視
	Gatherer prometheus.Gatherer
	// Ping はバックエンドストレージの疎通確認。メモリストア運用時はnil。
	Ping func() error
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RecoveryMiddleware → LoggingMiddleware → CORSMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// /health と /metrics はレート制限の外に置く。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Recovery / アクセスログ / CORS を最上位に適用（全ルートに効く）
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	dealHandler := NewDealHandler(deps.Feed)
	couponHandler := NewCouponHandler(deps.CouponService, deps.Recorder)

	// --- レート制限の外のルート ---

	r.Get("/health", healthHandler(deps.Ping))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- APIルート ---
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ディールフィード
		r.Route("/api/deals", func(r chi.Router) {
			r.Get("/", dealHandler.ListDeals)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", dealHandler.GetDeal)
				r.Post("/gesture", dealHandler.Gesture)
				r.Post("/claim", dealHandler.Claim)
				r.Post("/favorite", dealHandler.ToggleFavorite)
			})
		})

		// クーポン管理
		r.Route("/api/coupons", func(r chi.Router) {
			r.Get("/", couponHandler.ListCoupons)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", couponHandler.GetCoupon)
				r.Get("/qr", couponHandler.GetCouponQR)

				// POST /api/coupons/{id}/redeem - 消込（専用レート制限を追加）
				r.With(deps.RateLimiter.RedeemMiddleware()).Post("/redeem", couponHandler.RedeemCoupon)
			})
		})

		// 直近購入者通知
		r.Get("/api/notice", dealHandler.GetNotice)
	})

	return r
}

// healthHandler は死活監視エンドポイントのハンドラーを返す。
// Pingが設定されている場合はストレージの疎通も確認する。
func healthHandler(ping func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(); err != nil {
				http.Error(w, "unhealthy: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}
