package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// バリデーション失敗時はViolationsに違反したすべての制約を列挙する。
type APIError struct {
	Code       string           // エラーコード
	Message    string           // エラーメッセージ
	Category   string           // カテゴリ: auth, validation, books, system
	Action     string           // ユーザー向け対処方法
	Violations []FieldViolation // バリデーション違反の明細（VALIDATION_FAILEDのみ）
}

// FieldViolation は1件のバリデーション違反を表す。
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeBookNotFound       = "BOOK_NOT_FOUND"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeEmptyPatch         = "EMPTY_PATCH"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidAPIKey      = "INVALID_API_KEY"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
)

// NewBookNotFoundError は書籍未検出エラーを生成する。
func NewBookNotFoundError(bookID int64) *APIError {
	return &APIError{
		Code:     ErrCodeBookNotFound,
		Message:  fmt.Sprintf("指定された書籍が見つかりません: %d", bookID),
		Category: "books",
		Action:   "書籍IDを確認してください。",
	}
}

// NewValidationFailedError はバリデーション失敗エラーを生成する。
// violationsには違反したすべての制約を渡す。
func NewValidationFailedError(violations []FieldViolation) *APIError {
	return &APIError{
		Code:       ErrCodeValidationFailed,
		Message:    fmt.Sprintf("入力値が制約に違反しています（%d件）。", len(violations)),
		Category:   "validation",
		Action:     "violationsに列挙された項目を修正してください。",
		Violations: violations,
	}
}

// NewInvalidRequestError はリクエスト形式エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストの形式が不正です: %s", reason),
		Category: "validation",
		Action:   "リクエストの形式を確認してください。",
	}
}

// NewEmptyPatchError は更新フィールド未指定エラーを生成する。
func NewEmptyPatchError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyPatch,
		Message:  "更新するフィールドが1つも指定されていません。",
		Category: "validation",
		Action:   "更新したいフィールドを少なくとも1つ指定してください。",
	}
}

// NewUnauthorizedError は認証未実施エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "X-API-KeyヘッダーまたはBearerトークンを付与してください。",
	}
}

// NewInvalidAPIKeyError はAPIキー不一致エラーを生成する。
func NewInvalidAPIKeyError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAPIKey,
		Message:  "APIキーが一致しません。",
		Category: "auth",
		Action:   "正しいAPIキーを指定してください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "認証情報を確認してください。",
	}
}
