// Package book は書籍カタログのドメインロジックを提供する。
//
// Serviceがレコードストアの操作契約（作成・取得・一覧・部分更新・削除）を所有する。
// APIサーフェスとCLIサーフェスはどちらもこのServiceを同一の方法で呼び出す。
package book

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/bookman/internal/model"
	"github.com/hitoshi/bookman/internal/repository"
	"github.com/hitoshi/bookman/internal/security"
)

// ListParams は一覧取得の条件を表す。
type ListParams struct {
	// Query はタイトル・著者に対する部分一致検索文字列。
	Query string
	// Offset は読み飛ばす件数。負数は0として扱う。
	Offset int
	// Limit は最大返却件数。0以下はデフォルト値、上限超過は上限値に丸める。
	Limit int
}

// ListResult は一覧取得の結果を表す。
type ListResult struct {
	Books  []*model.Book
	Total  int
	Offset int
	Limit  int
}

// ServiceConfig はbook.Serviceの設定を保持する。
type ServiceConfig struct {
	// DefaultLimit はLimit未指定時の一覧件数。
	DefaultLimit int
	// MaxLimit は一覧件数の上限。
	MaxLimit int
}

// Service は書籍カタログのサービス層。
// バリデーション → サニタイズ → 永続化のフローを統括する。
// サーフェス間で状態を持たず、同一IDへの同時更新はlast-writer-winsとなる。
type Service struct {
	repo      repository.BookRepository
	sanitizer security.DescriptionSanitizerService
	config    ServiceConfig
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.BookRepository, sanitizer security.DescriptionSanitizerService, config ServiceConfig) *Service {
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 20
	}
	if config.MaxLimit <= 0 {
		config.MaxLimit = 100
	}
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		config:    config,
	}
}

// Create は書籍を作成する。
// バリデーション違反の場合は何も永続化せずVALIDATION_FAILEDを返す。
// IDとタイムスタンプはストア側で割り当てる。
func (s *Service) Create(ctx context.Context, input model.BookInput) (*model.Book, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	book := &model.Book{
		Title:       input.Title,
		Author:      input.Author,
		Year:        input.Year,
		Price:       input.Price,
		ISBN:        model.NormalizeISBN(input.ISBN),
		Description: s.sanitizer.Sanitize(input.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("書籍の保存に失敗しました: %w", err)
	}

	return book, nil
}

// Get は指定IDの書籍を取得する。見つからない場合はBOOK_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("書籍の取得に失敗しました: %w", err)
	}
	if book == nil {
		return nil, model.NewBookNotFoundError(id)
	}
	return book, nil
}

// List は条件に一致する書籍の一覧と総数を返す。
// 結果はID昇順で、変更がない限り呼び出し間で安定している。
func (s *Service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Offset < 0 {
		params.Offset = 0
	}
	if params.Limit <= 0 {
		params.Limit = s.config.DefaultLimit
	}
	if params.Limit > s.config.MaxLimit {
		params.Limit = s.config.MaxLimit
	}

	books, err := s.repo.List(ctx, repository.ListFilter{
		Query:  params.Query,
		Offset: params.Offset,
		Limit:  params.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("書籍一覧の取得に失敗しました: %w", err)
	}

	total, err := s.repo.Count(ctx, params.Query)
	if err != nil {
		return nil, fmt.Errorf("書籍数の取得に失敗しました: %w", err)
	}

	return &ListResult{
		Books:  books,
		Total:  total,
		Offset: params.Offset,
		Limit:  params.Limit,
	}, nil
}

// Update は書籍を部分更新する。
// patchの非nilフィールドのみを反映し、updated_atを更新する。
// 対象が存在しない場合はBOOK_NOT_FOUND、違反がある場合はVALIDATION_FAILEDを返す。
func (s *Service) Update(ctx context.Context, id int64, patch model.BookPatch) (*model.Book, error) {
	if patch.IsEmpty() {
		return nil, model.NewEmptyPatchError()
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("書籍の取得に失敗しました: %w", err)
	}
	if book == nil {
		return nil, model.NewBookNotFoundError(id)
	}

	patch.Apply(book)
	book.ISBN = model.NormalizeISBN(book.ISBN)
	if patch.Description != nil {
		book.Description = s.sanitizer.Sanitize(book.Description)
	}
	// updated_atは更新のたびに厳密に増加させる
	now := time.Now().UTC()
	if !now.After(book.UpdatedAt) {
		now = book.UpdatedAt.Add(time.Microsecond)
	}
	book.UpdatedAt = now

	updated, err := s.repo.Update(ctx, book)
	if err != nil {
		return nil, fmt.Errorf("書籍の更新に失敗しました: %w", err)
	}
	if !updated {
		// 取得と更新の間に削除された場合
		return nil, model.NewBookNotFoundError(id)
	}

	return book, nil
}

// Delete は指定IDの書籍を削除する。
// 対象が存在しない場合はBOOK_NOT_FOUNDを返す。削除済みIDへの再実行も常に同じ結果となる。
func (s *Service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("書籍の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewBookNotFoundError(id)
	}
	return nil
}
