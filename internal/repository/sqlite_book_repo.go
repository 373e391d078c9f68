package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bookman/internal/model"
)

// SQLiteBookRepo は単一ファイルSQLiteを使用した書籍リポジトリ。
type SQLiteBookRepo struct {
	db *sql.DB
}

// NewSQLiteBookRepo はSQLiteBookRepoを生成する。
func NewSQLiteBookRepo(db *sql.DB) *SQLiteBookRepo {
	return &SQLiteBookRepo{db: db}
}

// Create は書籍を作成し、採番されたIDをbook.IDに設定する。
func (r *SQLiteBookRepo) Create(ctx context.Context, book *model.Book) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO books (title, author, year, price, isbn, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		book.Title, book.Author, book.Year, book.Price,
		nullString(book.ISBN), nullString(book.Description),
		book.CreatedAt, book.UpdatedAt,
	).Scan(&book.ID)
	if err != nil {
		return fmt.Errorf("書籍の作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの書籍を取得する。見つからない場合はnilを返す。
func (r *SQLiteBookRepo) FindByID(ctx context.Context, id int64) (*model.Book, error) {
	book := &model.Book{}
	var isbn, description sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, author, year, price, isbn, description, created_at, updated_at
		 FROM books WHERE id = ?`,
		id,
	).Scan(
		&book.ID, &book.Title, &book.Author, &book.Year, &book.Price,
		&isbn, &description, &book.CreatedAt, &book.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("書籍の取得に失敗しました: %w", err)
	}

	book.ISBN = nullStringValue(isbn)
	book.Description = nullStringValue(description)

	return book, nil
}

// List は絞り込み条件に一致する書籍をID昇順で返す。
// 検索はタイトル・著者に対する大文字小文字を区別しない部分一致。
func (r *SQLiteBookRepo) List(ctx context.Context, filter ListFilter) ([]*model.Book, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, author, year, price, isbn, description, created_at, updated_at
		 FROM books
		 WHERE (?1 = '' OR LOWER(title) LIKE '%' || LOWER(?1) || '%'
		                OR LOWER(author) LIKE '%' || LOWER(?1) || '%')
		 ORDER BY id ASC
		 LIMIT ?2 OFFSET ?3`,
		filter.Query, filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("書籍一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanBooks(rows)
}

// Count は絞り込み条件に一致する書籍の総数を返す。
func (r *SQLiteBookRepo) Count(ctx context.Context, query string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM books
		 WHERE (?1 = '' OR LOWER(title) LIKE '%' || LOWER(?1) || '%'
		                OR LOWER(author) LIKE '%' || LOWER(?1) || '%')`,
		query,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("書籍数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// Update は書籍の全フィールドを上書き更新する。対象が存在しない場合はfalseを返す。
func (r *SQLiteBookRepo) Update(ctx context.Context, book *model.Book) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE books SET
		    title = ?, author = ?, year = ?, price = ?,
		    isbn = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		book.Title, book.Author, book.Year, book.Price,
		nullString(book.ISBN), nullString(book.Description),
		book.UpdatedAt, book.ID,
	)
	if err != nil {
		return false, fmt.Errorf("書籍の更新に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// Delete は指定IDの書籍を物理削除する。対象が存在しない場合はfalseを返す。
func (r *SQLiteBookRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("書籍の削除に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の確認に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// scanBooks はクエリ結果の全行をBookスライスに変換する。
func scanBooks(rows *sql.Rows) ([]*model.Book, error) {
	books := []*model.Book{}
	for rows.Next() {
		book := &model.Book{}
		var isbn, description sql.NullString

		if err := rows.Scan(
			&book.ID, &book.Title, &book.Author, &book.Year, &book.Price,
			&isbn, &description, &book.CreatedAt, &book.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("書籍の読み取りに失敗しました: %w", err)
		}

		book.ISBN = nullStringValue(isbn)
		book.Description = nullStringValue(description)
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("書籍一覧の読み取りに失敗しました: %w", err)
	}
	return books, nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから値を取り出す。NULLの場合は空文字列を返す。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
