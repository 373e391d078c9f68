package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bookman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CredentialVerifier middleware.CredentialVerifier
	CORSAllowedOrigin  string
	RateLimiter        *middleware.RateLimiter
	// Logger はリクエストログの出力先。nilの場合はリクエストログを出力しない。
	Logger *slog.Logger

	// サービス
	BookService BookServiceInterface
	TokenIssuer TokenIssuerInterface

	// システム
	DB             DBPinger
	Version        string
	MetricsHandler http.Handler
	HTTPRecorder   middleware.HTTPMetricsRecorder
	BookRecorder   BookMetricsRecorder
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Recovery → CORS → Metrics
//
// 読み取りルートは公開（一般レート制限のみ）、書き込みルートは
// 認証ミドルウェアと書き込みレート制限で保護する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.HTTPRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPRecorder))
	}

	bookHandler := NewBookHandler(deps.BookService, deps.BookRecorder)
	authHandler := NewAuthHandler(deps.TokenIssuer)
	systemHandler := NewSystemHandler(deps.DB, deps.Version)

	// --- システムルート ---
	r.Get("/", systemHandler.Root)
	r.Get("/health", systemHandler.Health)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- トークン発行（専用レート制限） ---
	r.With(deps.RateLimiter.TokenMiddleware()).Post("/auth/token", authHandler.IssueToken)

	// --- 書籍ルート ---
	r.Route("/books", func(r chi.Router) {
		// 読み取りは公開
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.GeneralMiddleware())
			r.Get("/", bookHandler.ListBooks)
			r.Get("/{id}", bookHandler.GetBook)
		})

		// 書き込みは認証必須
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAuthMiddleware(deps.CredentialVerifier))
			r.Use(deps.RateLimiter.WriteMiddleware())
			r.Post("/", bookHandler.CreateBook)
			r.Patch("/{id}", bookHandler.UpdateBook)
			r.Delete("/{id}", bookHandler.DeleteBook)
		})
	})

	return r
}
