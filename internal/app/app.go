package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/kiritori/internal/claim"
	"github.com/hitoshi/kiritori/internal/config"
	"github.com/hitoshi/kiritori/internal/coupon"
	"github.com/hitoshi/kiritori/internal/database"
	"github.com/hitoshi/kiritori/internal/effects"
	"github.com/hitoshi/kiritori/internal/feed"
	"github.com/hitoshi/kiritori/internal/handler"
	"github.com/hitoshi/kiritori/internal/logger"
	"github.com/hitoshi/kiritori/internal/metrics"
	"github.com/hitoshi/kiritori/internal/middleware"
	"github.com/hitoshi/kiritori/internal/repository"
	"github.com/hitoshi/kiritori/internal/security"
	"github.com/hitoshi/kiritori/internal/worker/inventory"
	"github.com/hitoshi/kiritori/internal/worker/social"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// logNavigator はクレーム完了シグナルをログに記録するNavigator実装。
// 画面遷移を持たないサーバーデモでの届け先。
type logNavigator struct {
	logger *slog.Logger
}

func (n *logNavigator) ShowCoupon(ev claim.Event) {
	n.logger.Info("navigating to coupon",
		slog.String("deal_id", ev.Deal.ID),
		slog.String("coupon_id", ev.Coupon.ID),
		slog.Bool("created", ev.Created),
	)
}

// runServe はAPIサーバーモードで起動する。
// ストレージと全依存関係をワイヤリングし、シミュレータ群を
// バックグラウンドで起動した後、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	log := slog.Default()

	// 1. 乱数源の初期化。シード固定時は全ロールが再現可能になる。
	// シミュレータごとに独立した系列を持たせる。
	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	effectsRNG := rand.New(rand.NewSource(seed))
	inventoryRNG := rand.New(rand.NewSource(seed + 1))
	socialRNG := rand.New(rand.NewSource(seed + 2))

	// 2. クーポンストアの初期化。DATABASE_URL未設定時はインメモリ運用。
	var (
		couponRepo repository.CouponRepository
		ping       func() error
	)
	if cfg.DatabaseURL != "" {
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("database connection established")

		couponRepo = repository.NewPostgresCouponRepo(db)
		ping = db.Ping
	} else {
		slog.Info("using in-memory coupon store")
		couponRepo = repository.NewMemoryCouponRepo()
	}

	couponService := coupon.NewService(couponRepo)

	// 3. メトリクスコレクタの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. フィードバック演出の初期化
	effectsCfg := effects.DefaultConfig()
	effectsCfg.LocalBurst = cfg.LocalBurst
	effectsCfg.GlobalBurst = cfg.GlobalBurst
	effectsCfg.ViewportW = cfg.ViewportW
	effectsCfg.ViewportH = cfg.ViewportH

	haptics := effects.NewSlogHaptics(log)
	stage := effects.NewSlogStage(log)
	sequencer := effects.NewSequencer(stage, effectsRNG, effectsCfg, collector)

	// 5. ディール配信元の初期化。DEALS_URL未設定時は組み込みフィクスチャ。
	var source feed.DealSource
	if cfg.DealsURL != "" {
		remote, err := feed.NewRemoteSource(
			cfg.DealsURL,
			security.NewSSRFGuard(),
			security.NewTextSanitizer(),
			cfg.FetchTimeout,
			cfg.FetchMaxSize,
			log,
		)
		if err != nil {
			return fmt.Errorf("failed to build deal source: %w", err)
		}
		source = remote
	} else {
		source = feed.NewFixtureSource()
	}

	// 6. フィードコントローラの構築とロード
	feedCtrl := feed.NewController(feed.Config{
		Source:     source,
		Store:      couponService,
		Navigator:  &logNavigator{logger: log},
		Celebrator: sequencer,
		Haptics:    haptics,
		Recorder:   collector,
		Logger:     log,

		Threshold:     cfg.TearThreshold,
		SnapbackDelay: cfg.SnapbackDelay,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feedCtrl.Load(ctx)

	// 7. シミュレータ群のバックグラウンド起動
	simulator := inventory.NewSimulator(feedCtrl, inventoryRNG, cfg.InventoryDropChance, collector, log)
	ticker := social.NewTicker(feedCtrl, socialRNG, cfg.SocialChance, cfg.NoticeTTL, log)

	go simulator.Start(ctx, cfg.InventoryTick)
	go ticker.Start(ctx, cfg.SocialTick)
	go feedCtrl.StartCountdown(ctx, cfg.CountdownTick)

	// 8. ルーターの構築
	// configのレート値はreq/min単位なのでreq/secに変換する
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.RedeemRate = rate.Limit(float64(cfg.RateLimitRedeem) / 60.0)
	rateLimiterCfg.RedeemBurst = cfg.RateLimitRedeem

	deps := &handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       middleware.NewRateLimiter(rateLimiterCfg),

		Feed:          feedCtrl,
		CouponService: couponService,
		Recorder:      collector,

		Gatherer: registry,
		Ping:     ping,
	}

	router := handler.NewRouter(deps)

	// 9. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	// シミュレータ群を先に止める
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for migrate")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
