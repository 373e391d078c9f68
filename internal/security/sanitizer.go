// Package security はアプリケーションのセキュリティ機能を提供する。
//
// DescriptionSanitizer は書籍説明文に混入したHTMLを除去し、
// 保存データを常にプレーンテキストに保つ。
// bluemondayライブラリの許可リストベースのポリシーを使用する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// DescriptionSanitizerService は説明文サニタイズ機能のインターフェースを定義する。
// 書籍の保存前（作成・更新）に使用される。
type DescriptionSanitizerService interface {
	// Sanitize は入力からすべてのHTMLタグを除去したプレーンテキストを返す。
	// HTMLエンティティはデコードし、前後の空白は除去する。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// descriptionSanitizer はDescriptionSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type descriptionSanitizer struct {
	policy *bluemonday.Policy
}

// NewDescriptionSanitizer はDescriptionSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicy（タグを一切許可しない）を使用する。書籍説明は装飾を持たない
// プレーンテキストとして扱うため、許可タグは設定しない。
func NewDescriptionSanitizer() *descriptionSanitizer {
	return &descriptionSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からすべてのHTMLタグを除去したプレーンテキストを返す。
func (s *descriptionSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}

	// StrictPolicyはテキストをエスケープして返すため、
	// 実体参照をデコードして元のプレーンテキストに戻す
	stripped := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(stripped))
}
