package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/bookman/internal/model"
)

const apiKeyHeaderName = "X-API-Key"

// subjectContextKey はリクエストコンテキストに認証済みサブジェクトを格納するためのキー。
var subjectContextKey = contextKey("auth_subject")

// CredentialVerifier は認証ミドルウェアが必要とするインターフェース。
// auth.Serviceの部分集合として定義する。
type CredentialVerifier interface {
	VerifyAPIKey(key string) bool
	VerifyToken(tokenStr string) (string, error)
}

// NewAuthMiddleware はX-API-KeyヘッダーまたはBearerトークンを検証する
// ミドルウェアを返す。いずれかが有効であれば通過させる。
// 認証済みサブジェクトをリクエストコンテキストに注入する。
// 資格情報がないリクエストには401、不正なAPIキーには403を返す。
func NewAuthMiddleware(verifier CredentialVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. X-API-Keyヘッダーを検証
			if apiKey := r.Header.Get(apiKeyHeaderName); apiKey != "" {
				if !verifier.VerifyAPIKey(apiKey) {
					slog.Warn("invalid API key",
						slog.String("client_ip", ClientIP(r)),
						slog.String("path", r.URL.Path),
					)
					WriteErrorResponse(w, http.StatusForbidden, model.NewInvalidAPIKeyError())
					return
				}
				ctx := ContextWithSubject(r.Context(), "api-key")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// 2. AuthorizationヘッダーのBearerトークンを検証
			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
				if !ok || tokenStr == "" {
					WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
					return
				}

				subject, err := verifier.VerifyToken(tokenStr)
				if err != nil {
					slog.Warn("invalid bearer token",
						slog.String("client_ip", ClientIP(r)),
						slog.String("path", r.URL.Path),
						slog.String("error", err.Error()),
					)
					WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
					return
				}

				ctx := ContextWithSubject(r.Context(), subject)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// 3. 資格情報なし
			WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		})
	}
}

// SubjectFromContext はリクエストコンテキストから認証済みサブジェクトを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func SubjectFromContext(ctx context.Context) (string, error) {
	subject, ok := ctx.Value(subjectContextKey).(string)
	if !ok || subject == "" {
		return "", fmt.Errorf("subject not found in context")
	}
	return subject, nil
}

// ContextWithSubject はコンテキストに認証済みサブジェクトを注入する。
func ContextWithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectContextKey, subject)
}
