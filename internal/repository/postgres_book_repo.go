package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bookman/internal/model"
)

// PostgresBookRepo はPostgreSQLを使用した書籍リポジトリ。
// DATABASE_URLにpostgres://スキームが指定された場合に使用される。
type PostgresBookRepo struct {
	db *sql.DB
}

// NewPostgresBookRepo はPostgresBookRepoを生成する。
func NewPostgresBookRepo(db *sql.DB) *PostgresBookRepo {
	return &PostgresBookRepo{db: db}
}

// Create は書籍を作成し、採番されたIDをbook.IDに設定する。
func (r *PostgresBookRepo) Create(ctx context.Context, book *model.Book) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO books (title, author, year, price, isbn, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
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
func (r *PostgresBookRepo) FindByID(ctx context.Context, id int64) (*model.Book, error) {
	book := &model.Book{}
	var isbn, description sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, author, year, price, isbn, description, created_at, updated_at
		 FROM books WHERE id = $1`,
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
func (r *PostgresBookRepo) List(ctx context.Context, filter ListFilter) ([]*model.Book, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, author, year, price, isbn, description, created_at, updated_at
		 FROM books
		 WHERE ($1 = '' OR title ILIKE '%' || $1 || '%' OR author ILIKE '%' || $1 || '%')
		 ORDER BY id ASC
		 LIMIT $2 OFFSET $3`,
		filter.Query, filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("書籍一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanBooks(rows)
}

// Count は絞り込み条件に一致する書籍の総数を返す。
func (r *PostgresBookRepo) Count(ctx context.Context, query string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM books
		 WHERE ($1 = '' OR title ILIKE '%' || $1 || '%' OR author ILIKE '%' || $1 || '%')`,
		query,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("書籍数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// Update は書籍の全フィールドを上書き更新する。対象が存在しない場合はfalseを返す。
func (r *PostgresBookRepo) Update(ctx context.Context, book *model.Book) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE books SET
		    title = $2, author = $3, year = $4, price = $5,
		    isbn = $6, description = $7, updated_at = $8
		 WHERE id = $1`,
		book.ID, book.Title, book.Author, book.Year, book.Price,
		nullString(book.ISBN), nullString(book.Description),
		book.UpdatedAt,
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
func (r *PostgresBookRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("書籍の削除に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の確認に失敗しました: %w", err)
	}
	return affected > 0, nil
}
