// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/bookman/internal/model"
)

// ListFilter は書籍一覧取得の絞り込み条件を表す。
type ListFilter struct {
	// Query はタイトルまたは著者に対する部分一致検索文字列（大文字小文字を区別しない）。
	// 空の場合は全件を対象とする。
	Query string
	// Offset は読み飛ばす件数。
	Offset int
	// Limit は返却する最大件数。
	Limit int
}

// BookRepository は書籍データの永続化インターフェース。
// 1操作につき1つのSQL文を発行する。複数文にまたがるトランザクションは持たない。
type BookRepository interface {
	// Create は書籍を作成し、ストアが採番したIDを設定して返す。
	Create(ctx context.Context, book *model.Book) error

	// FindByID は指定IDの書籍を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Book, error)

	// List は絞り込み条件に一致する書籍をID昇順で返す。
	// 順序は変更がない限り呼び出し間で安定している。
	List(ctx context.Context, filter ListFilter) ([]*model.Book, error)

	// Count は絞り込み条件に一致する書籍の総数を返す。
	Count(ctx context.Context, query string) (int, error)

	// Update は書籍の全フィールドを上書き更新する。
	// 対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, book *model.Book) (bool, error)

	// Delete は指定IDの書籍を物理削除する。
	// 対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id int64) (bool, error)
}
