// Package auth はAPIキーおよびJWTベアラートークンによる認証を提供する。
//
// 書き込み操作（作成・更新・削除）はAPIキーまたはJWTのいずれかで保護される。
// 読み取り操作は認証不要。
package auth

import (
	"crypto/subtle"
	"time"

	"github.com/hitoshi/bookman/internal/model"
)

// ServiceConfig はauth.Serviceの設定を保持する。
type ServiceConfig struct {
	// APIKey はX-API-Keyヘッダーと照合する共有キー。空の場合はAPIキー認証を無効にする。
	APIKey string
	// TokenSecret はJWT署名用の共有シークレット。
	TokenSecret string
	// TokenExpiry は発行するトークンの有効期間。
	TokenExpiry time.Duration
	// AdminUser / AdminPassword はトークン発行エンドポイントの認証情報。
	AdminUser     string
	AdminPassword string
}

// Service は認証処理のサービス層。
type Service struct {
	config ServiceConfig
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(config ServiceConfig) *Service {
	return &Service{config: config}
}

// Token はトークン発行結果を表す。
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int // 秒
}

// IssueToken は認証情報を検証してJWTアクセストークンを発行する。
// 認証情報が一致しない場合はINVALID_CREDENTIALSエラーを返す。
func (s *Service) IssueToken(username, password string) (*Token, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.config.AdminUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.config.AdminPassword)) == 1
	if !userOK || !passOK {
		return nil, model.NewInvalidCredentialsError()
	}

	signed, err := GenerateToken(s.config.TokenSecret, username, s.config.TokenExpiry)
	if err != nil {
		return nil, err
	}

	return &Token{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int(s.config.TokenExpiry.Seconds()),
	}, nil
}

// VerifyAPIKey はAPIキーを照合する。
// APIキー認証が無効（キー未設定）の場合は常にfalseを返す。
func (s *Service) VerifyAPIKey(key string) bool {
	if s.config.APIKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.config.APIKey)) == 1
}

// VerifyToken はベアラートークンを検証し、subjectを返す。
// 無効または期限切れの場合はエラーを返す。
func (s *Service) VerifyToken(tokenStr string) (string, error) {
	claims, err := ParseToken(s.config.TokenSecret, tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
