// Package app はアプリケーションの初期化と起動モードを提供する。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/bookman/internal/auth"
	"github.com/hitoshi/bookman/internal/book"
	"github.com/hitoshi/bookman/internal/config"
	"github.com/hitoshi/bookman/internal/database"
	"github.com/hitoshi/bookman/internal/handler"
	"github.com/hitoshi/bookman/internal/logger"
	"github.com/hitoshi/bookman/internal/metrics"
	"github.com/hitoshi/bookman/internal/middleware"
	"github.com/hitoshi/bookman/internal/repository"
	"github.com/hitoshi/bookman/internal/security"
)

// Version はAPIレスポンスに含めるアプリケーションバージョン。
const Version = "1.0.0"

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
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

// Store はDB接続と書籍サービスをまとめた構造体。
// APIサーバーとCLIデータコマンドの両方がここを経由してストアへアクセスする。
type Store struct {
	DB      *sql.DB
	Engine  database.Engine
	Service *book.Service
}

// Close はDB接続を閉じる。
func (s *Store) Close() error {
	return s.DB.Close()
}

// OpenStore はDB接続を開き、スキーママイグレーションを適用し、
// 書籍サービスをワイヤリングして返す。
func OpenStore(cfg *config.Config) (*Store, error) {
	engine, err := database.DetectEngine(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 初回オープン時にスキーマを自動適用する
	if err := database.RunMigrations(db, engine); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	var repo repository.BookRepository
	switch engine {
	case database.EnginePostgres:
		repo = repository.NewPostgresBookRepo(db)
	default:
		repo = repository.NewSQLiteBookRepo(db)
	}

	sanitizer := security.NewDescriptionSanitizer()
	service := book.NewService(repo, sanitizer, book.ServiceConfig{
		DefaultLimit: cfg.ListDefaultLimit,
		MaxLimit:     cfg.ListMaxLimit,
	})

	return &Store{
		DB:      db,
		Engine:  engine,
		Service: service,
	}, nil
}

// RunServe はAPIサーバーモードで起動する。
// ストアを開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func RunServe(cfg *config.Config) error {
	// トークン発行・検証を担うサーバーモードのみTOKEN_SECRETを必須とする
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	// 1. ストアのオープン（マイグレーション込み）
	store, err := OpenStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	slog.Info("database connection established",
		slog.String("engine", string(store.Engine)),
	)

	// 2. 認証サービスの初期化
	authService := auth.NewService(auth.ServiceConfig{
		APIKey:        cfg.APIKey,
		TokenSecret:   cfg.TokenSecret,
		TokenExpiry:   cfg.TokenExpiry,
		AdminUser:     cfg.AdminUser,
		AdminPassword: cfg.AdminPassword,
	})

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. レート制限（configはreq/min単位、rate.Limitはreq/sec単位）
	rlConfig := middleware.DefaultRateLimiterConfig()
	rlConfig.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rlConfig.GeneralBurst = cfg.RateLimitGeneral
	rlConfig.WriteRate = rate.Limit(float64(cfg.RateLimitWrite) / 60.0)
	rlConfig.WriteBurst = cfg.RateLimitWrite
	rlConfig.TokenRate = rate.Limit(float64(cfg.RateLimitToken) / 60.0)
	rlConfig.TokenBurst = cfg.RateLimitToken
	rateLimiter := middleware.NewRateLimiter(rlConfig)
	defer rateLimiter.Stop()

	// 5. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		CredentialVerifier: authService,
		CORSAllowedOrigin:  cfg.CORSAllowedOrigin,
		RateLimiter:        rateLimiter,
		Logger:             slog.Default(),

		BookService: store.Service,
		TokenIssuer: authService,

		DB:             store.DB,
		Version:        Version,
		MetricsHandler: metrics.Handler(registry),
		HTTPRecorder:   collector,
		BookRecorder:   collector,
	})

	// 6. HTTPサーバーの起動
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// RunMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func RunMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	engine, err := database.DetectEngine(cfg.DatabaseURL)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db, engine); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}

// RunHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func RunHealthcheck(port string) error {
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
