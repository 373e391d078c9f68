package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hitoshi/bookman/internal/auth"
	"github.com/hitoshi/bookman/internal/model"
)

// TokenIssuerInterface は認証ハンドラーが必要とするサービスインターフェース。
type TokenIssuerInterface interface {
	// IssueToken は認証情報を検証してアクセストークンを発行する。
	IssueToken(username, password string) (*auth.Token, error)
}

// AuthHandler はトークン発行のHTTPハンドラー。
type AuthHandler struct {
	issuer TokenIssuerInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(issuer TokenIssuerInterface) *AuthHandler {
	return &AuthHandler{issuer: issuer}
}

// issueTokenRequest はトークン発行リクエストのボディ。
type issueTokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// tokenResponse はトークン発行のAPIレスポンス。
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// IssueToken はJWTアクセストークンを発行する。
// POST /auth/token
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	token, err := h.issuer.IssueToken(req.Username, req.Password)
	if err != nil {
		// 認証失敗時はWWW-Authenticateヘッダーを付ける
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeInvalidCredentials {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresIn:   token.ExpiresIn,
	})
}
