package book

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/bookman/internal/model"
	"github.com/hitoshi/bookman/internal/repository"
)

// --- モック定義 ---

// mockBookRepo はrepository.BookRepositoryのモック実装。
type mockBookRepo struct {
	createFn   func(ctx context.Context, book *model.Book) error
	findByIDFn func(ctx context.Context, id int64) (*model.Book, error)
	listFn     func(ctx context.Context, filter repository.ListFilter) ([]*model.Book, error)
	countFn    func(ctx context.Context, query string) (int, error)
	updateFn   func(ctx context.Context, book *model.Book) (bool, error)
	deleteFn   func(ctx context.Context, id int64) (bool, error)
}

func (m *mockBookRepo) Create(ctx context.Context, book *model.Book) error {
	if m.createFn != nil {
		return m.createFn(ctx, book)
	}
	book.ID = 1
	return nil
}

func (m *mockBookRepo) FindByID(ctx context.Context, id int64) (*model.Book, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockBookRepo) List(ctx context.Context, filter repository.ListFilter) ([]*model.Book, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return []*model.Book{}, nil
}

func (m *mockBookRepo) Count(ctx context.Context, query string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, query)
	}
	return 0, nil
}

func (m *mockBookRepo) Update(ctx context.Context, book *model.Book) (bool, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, book)
	}
	return true, nil
}

func (m *mockBookRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return true, nil
}

// passthroughSanitizer は入力をそのまま返すサニタイザー。
type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(raw string) string { return raw }

func newTestService(repo *mockBookRepo) *Service {
	return NewService(repo, passthroughSanitizer{}, ServiceConfig{
		DefaultLimit: 20,
		MaxLimit:     100,
	})
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %v", err)
	}
	if apiErr.Code != code {
		t.Errorf("Code = %q, want %q", apiErr.Code, code)
	}
}

// --- Create ---

func TestService_Create_Success(t *testing.T) {
	var persisted *model.Book
	repo := &mockBookRepo{
		createFn: func(ctx context.Context, book *model.Book) error {
			book.ID = 1
			persisted = book
			return nil
		},
	}
	svc := newTestService(repo)

	before := time.Now().UTC()
	created, err := svc.Create(context.Background(), model.BookInput{
		Title:  "Dune",
		Author: "Herbert",
		Year:   1965,
		Price:  9.99,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if created.ID != 1 {
		t.Errorf("ID = %d, want 1", created.ID)
	}
	if created.Title != "Dune" || created.Author != "Herbert" || created.Year != 1965 {
		t.Errorf("created = %+v", created)
	}
	if created.CreatedAt.Before(before) {
		t.Errorf("CreatedAt = %v, should not be before %v", created.CreatedAt, before)
	}
	if !created.UpdatedAt.Equal(created.CreatedAt) {
		t.Errorf("UpdatedAt = %v, want equal to CreatedAt %v", created.UpdatedAt, created.CreatedAt)
	}
	if persisted == nil {
		t.Fatal("expected book to be persisted")
	}
}

func TestService_Create_NormalizesISBN(t *testing.T) {
	repo := &mockBookRepo{}
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), model.BookInput{
		Title:  "Dune",
		Author: "Herbert",
		Year:   1965,
		ISBN:   "978-0-441-17271-9",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.ISBN != "9780441172719" {
		t.Errorf("ISBN = %q, want normalized %q", created.ISBN, "9780441172719")
	}
}

func TestService_Create_ValidationFailure_NothingPersisted(t *testing.T) {
	createCalled := false
	repo := &mockBookRepo{
		createFn: func(ctx context.Context, book *model.Book) error {
			createCalled = true
			return nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), model.BookInput{
		Title:  "",
		Author: "Herbert",
		Year:   1965,
	})

	assertAPIErrorCode(t, err, model.ErrCodeValidationFailed)
	if createCalled {
		t.Error("repository must not be called for invalid input")
	}
}

// --- Get ---

func TestService_Get_Found(t *testing.T) {
	repo := &mockBookRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id, Title: "Dune"}, nil
		},
	}
	svc := newTestService(repo)

	book, err := svc.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if book.Title != "Dune" {
		t.Errorf("Title = %q, want %q", book.Title, "Dune")
	}
}

func TestService_Get_NotFound(t *testing.T) {
	svc := newTestService(&mockBookRepo{})

	_, err := svc.Get(context.Background(), 42)
	assertAPIErrorCode(t, err, model.ErrCodeBookNotFound)
}

// --- List ---

func TestService_List_AppliesDefaultsAndBounds(t *testing.T) {
	tests := []struct {
		name       string
		params     ListParams
		wantOffset int
		wantLimit  int
	}{
		{"defaults", ListParams{}, 0, 20},
		{"negative offset", ListParams{Offset: -5}, 0, 20},
		{"limit above max", ListParams{Limit: 500}, 0, 100},
		{"explicit", ListParams{Offset: 10, Limit: 5}, 10, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotFilter repository.ListFilter
			repo := &mockBookRepo{
				listFn: func(ctx context.Context, filter repository.ListFilter) ([]*model.Book, error) {
					gotFilter = filter
					return []*model.Book{}, nil
				},
			}
			svc := newTestService(repo)

			result, err := svc.List(context.Background(), tt.params)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if gotFilter.Offset != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", gotFilter.Offset, tt.wantOffset)
			}
			if gotFilter.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", gotFilter.Limit, tt.wantLimit)
			}
			if result.Limit != tt.wantLimit {
				t.Errorf("result.Limit = %d, want %d", result.Limit, tt.wantLimit)
			}
		})
	}
}

func TestService_List_ReturnsTotal(t *testing.T) {
	repo := &mockBookRepo{
		listFn: func(ctx context.Context, filter repository.ListFilter) ([]*model.Book, error) {
			return []*model.Book{{ID: 1}, {ID: 2}}, nil
		},
		countFn: func(ctx context.Context, query string) (int, error) {
			if query != "dune" {
				t.Errorf("query = %q, want %q", query, "dune")
			}
			return 7, nil
		},
	}
	svc := newTestService(repo)

	result, err := svc.List(context.Background(), ListParams{Query: "dune"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.Books) != 2 {
		t.Errorf("len = %d, want 2", len(result.Books))
	}
	if result.Total != 7 {
		t.Errorf("Total = %d, want 7", result.Total)
	}
}

// --- Update ---

func TestService_Update_PartialFieldsOnly(t *testing.T) {
	created := time.Now().UTC().Add(-time.Hour)
	stored := &model.Book{
		ID:        1,
		Title:     "Dune",
		Author:    "Herbert",
		Year:      1965,
		Price:     9.99,
		CreatedAt: created,
		UpdatedAt: created,
	}

	var saved *model.Book
	repo := &mockBookRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			copied := *stored
			return &copied, nil
		},
		updateFn: func(ctx context.Context, book *model.Book) (bool, error) {
			saved = book
			return true, nil
		},
	}
	svc := newTestService(repo)

	year := 1966
	updated, err := svc.Update(context.Background(), 1, model.BookPatch{Year: &year})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if updated.Year != 1966 {
		t.Errorf("Year = %d, want 1966", updated.Year)
	}
	if updated.Title != "Dune" || updated.Author != "Herbert" || updated.Price != 9.99 {
		t.Errorf("unchanged fields were modified: %+v", updated)
	}
	if !updated.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want unchanged %v", updated.CreatedAt, created)
	}
	if !updated.UpdatedAt.After(created) {
		t.Errorf("UpdatedAt = %v, must strictly increase from %v", updated.UpdatedAt, created)
	}
	if saved == nil {
		t.Fatal("expected update to be persisted")
	}
}

func TestService_Update_UpdatedAtStrictlyIncreases(t *testing.T) {
	// 既存のupdated_atが現在時刻以降でも厳密に増加する
	future := time.Now().UTC().Add(time.Hour)
	repo := &mockBookRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: 1, Title: "Dune", Author: "Herbert", Year: 1965,
				CreatedAt: future, UpdatedAt: future}, nil
		},
	}
	svc := newTestService(repo)

	title := "Dune Messiah"
	updated, err := svc.Update(context.Background(), 1, model.BookPatch{Title: &title})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !updated.UpdatedAt.After(future) {
		t.Errorf("UpdatedAt = %v, must be after %v", updated.UpdatedAt, future)
	}
}

func TestService_Update_NotFound(t *testing.T) {
	svc := newTestService(&mockBookRepo{})

	title := "X"
	_, err := svc.Update(context.Background(), 42, model.BookPatch{Title: &title})
	assertAPIErrorCode(t, err, model.ErrCodeBookNotFound)
}

func TestService_Update_EmptyPatch(t *testing.T) {
	svc := newTestService(&mockBookRepo{})

	_, err := svc.Update(context.Background(), 1, model.BookPatch{})
	assertAPIErrorCode(t, err, model.ErrCodeEmptyPatch)
}

func TestService_Update_InvalidField(t *testing.T) {
	findCalled := false
	repo := &mockBookRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			findCalled = true
			return &model.Book{ID: id}, nil
		},
	}
	svc := newTestService(repo)

	empty := ""
	_, err := svc.Update(context.Background(), 1, model.BookPatch{Title: &empty})
	assertAPIErrorCode(t, err, model.ErrCodeValidationFailed)
	if findCalled {
		t.Error("repository must not be consulted for invalid patch")
	}
}

func TestService_Update_DeletedBetweenFindAndUpdate(t *testing.T) {
	repo := &mockBookRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id, Title: "Dune", Author: "Herbert", Year: 1965}, nil
		},
		updateFn: func(ctx context.Context, book *model.Book) (bool, error) {
			return false, nil
		},
	}
	svc := newTestService(repo)

	title := "X"
	_, err := svc.Update(context.Background(), 1, model.BookPatch{Title: &title})
	assertAPIErrorCode(t, err, model.ErrCodeBookNotFound)
}

// --- Delete ---

func TestService_Delete_Success(t *testing.T) {
	var deletedID int64
	repo := &mockBookRepo{
		deleteFn: func(ctx context.Context, id int64) (bool, error) {
			deletedID = id
			return true, nil
		},
	}
	svc := newTestService(repo)

	if err := svc.Delete(context.Background(), 7); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if deletedID != 7 {
		t.Errorf("deleted ID = %d, want 7", deletedID)
	}
}

func TestService_Delete_NotFound(t *testing.T) {
	repo := &mockBookRepo{
		deleteFn: func(ctx context.Context, id int64) (bool, error) {
			return false, nil
		},
	}
	svc := newTestService(repo)

	err := svc.Delete(context.Background(), 42)
	assertAPIErrorCode(t, err, model.ErrCodeBookNotFound)
}
