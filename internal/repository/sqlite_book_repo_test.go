package repository

import (
	"context"
	"testing"
	"time"

	"github.com/hitoshi/bookman/internal/database"
	"github.com/hitoshi/bookman/internal/model"
)

// newTestRepo はインメモリSQLiteにマイグレーションを適用したリポジトリを返す。
func newTestRepo(t *testing.T) *SQLiteBookRepo {
	t.Helper()

	db, err := database.Open("sqlite://:memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.RunMigrations(db, database.EngineSQLite); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return NewSQLiteBookRepo(db)
}

func newTestBook(title, author string, year int) *model.Book {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Book{
		Title:     title,
		Author:    author,
		Year:      year,
		Price:     9.99,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSQLiteBookRepo_CreateAssignsSequentialIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := newTestBook("Dune", "Herbert", 1965)
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("failed to create book: %v", err)
	}
	if first.ID != 1 {
		t.Errorf("first ID = %d, want 1", first.ID)
	}

	second := newTestBook("Neuromancer", "Gibson", 1984)
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("failed to create book: %v", err)
	}
	if second.ID != 2 {
		t.Errorf("second ID = %d, want 2", second.ID)
	}
}

func TestSQLiteBookRepo_CreateThenFindByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	book := newTestBook("Dune", "Herbert", 1965)
	book.ISBN = "9780441172719"
	book.Description = "Desert planet epic."

	if err := repo.Create(ctx, book); err != nil {
		t.Fatalf("failed to create book: %v", err)
	}

	found, err := repo.FindByID(ctx, book.ID)
	if err != nil {
		t.Fatalf("failed to find book: %v", err)
	}
	if found == nil {
		t.Fatal("expected book, got nil")
	}

	if found.Title != "Dune" || found.Author != "Herbert" || found.Year != 1965 {
		t.Errorf("found = %+v", found)
	}
	if found.Price != 9.99 {
		t.Errorf("Price = %v, want 9.99", found.Price)
	}
	if found.ISBN != "9780441172719" {
		t.Errorf("ISBN = %q, want %q", found.ISBN, "9780441172719")
	}
	if found.Description != "Desert planet epic." {
		t.Errorf("Description = %q", found.Description)
	}
	if !found.CreatedAt.Equal(book.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", found.CreatedAt, book.CreatedAt)
	}
}

func TestSQLiteBookRepo_FindByID_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	found, err := repo.FindByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != nil {
		t.Errorf("expected nil for missing book, got %+v", found)
	}
}

func TestSQLiteBookRepo_OptionalFieldsStoredAsNull(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	book := newTestBook("Dune", "Herbert", 1965)
	if err := repo.Create(ctx, book); err != nil {
		t.Fatalf("failed to create book: %v", err)
	}

	found, err := repo.FindByID(ctx, book.ID)
	if err != nil {
		t.Fatalf("failed to find book: %v", err)
	}
	if found.ISBN != "" || found.Description != "" {
		t.Errorf("optional fields should round-trip as empty, got isbn=%q description=%q",
			found.ISBN, found.Description)
	}
}

func TestSQLiteBookRepo_List_OrderedByIDAscending(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	titles := []string{"Dune", "Neuromancer", "Foundation"}
	for _, title := range titles {
		if err := repo.Create(ctx, newTestBook(title, "Author", 1984)); err != nil {
			t.Fatalf("failed to create book: %v", err)
		}
	}

	books, err := repo.List(ctx, ListFilter{Limit: 10})
	if err != nil {
		t.Fatalf("failed to list books: %v", err)
	}
	if len(books) != 3 {
		t.Fatalf("len = %d, want 3", len(books))
	}
	for i, book := range books {
		if book.ID != int64(i+1) {
			t.Errorf("books[%d].ID = %d, want %d", i, book.ID, i+1)
		}
		if book.Title != titles[i] {
			t.Errorf("books[%d].Title = %q, want %q", i, book.Title, titles[i])
		}
	}
}

func TestSQLiteBookRepo_List_Pagination(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := repo.Create(ctx, newTestBook("Book", "Author", 1984)); err != nil {
			t.Fatalf("failed to create book: %v", err)
		}
	}

	books, err := repo.List(ctx, ListFilter{Offset: 2, Limit: 2})
	if err != nil {
		t.Fatalf("failed to list books: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("len = %d, want 2", len(books))
	}
	if books[0].ID != 3 || books[1].ID != 4 {
		t.Errorf("IDs = %d, %d, want 3, 4", books[0].ID, books[1].ID)
	}
}

func TestSQLiteBookRepo_List_CaseInsensitiveSearch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, newTestBook("Dune", "Frank Herbert", 1965)); err != nil {
		t.Fatalf("failed to create book: %v", err)
	}
	if err := repo.Create(ctx, newTestBook("Neuromancer", "William Gibson", 1984)); err != nil {
		t.Fatalf("failed to create book: %v", err)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"dune", 1},     // タイトル部分一致（小文字）
		{"DUNE", 1},     // タイトル部分一致（大文字）
		{"herbert", 1},  // 著者部分一致
		{"e", 2},        // 両方に一致
		{"tolstoy", 0},  // 一致なし
		{"", 2},         // 絞り込みなし
	}

	for _, tt := range tests {
		books, err := repo.List(ctx, ListFilter{Query: tt.query, Limit: 10})
		if err != nil {
			t.Fatalf("query %q: %v", tt.query, err)
		}
		if len(books) != tt.want {
			t.Errorf("query %q: len = %d, want %d", tt.query, len(books), tt.want)
		}
	}
}

func TestSQLiteBookRepo_Count(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, newTestBook("Dune", "Herbert", 1965)); err != nil {
		t.Fatalf("failed to create book: %v", err)
	}
	if err := repo.Create(ctx, newTestBook("Neuromancer", "Gibson", 1984)); err != nil {
		t.Fatalf("failed to create book: %v", err)
	}

	total, err := repo.Count(ctx, "")
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if total != 2 {
		t.Errorf("count = %d, want 2", total)
	}

	matched, err := repo.Count(ctx, "dune")
	if err != nil {
		t.Fatalf("failed to count with query: %v", err)
	}
	if matched != 1 {
		t.Errorf("count = %d, want 1", matched)
	}
}

func TestSQLiteBookRepo_Update(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	book := newTestBook("Dune", "Herbert", 1965)
	if err := repo.Create(ctx, book); err != nil {
		t.Fatalf("failed to create book: %v", err)
	}

	book.Year = 1966
	book.UpdatedAt = book.UpdatedAt.Add(time.Second)

	updated, err := repo.Update(ctx, book)
	if err != nil {
		t.Fatalf("failed to update book: %v", err)
	}
	if !updated {
		t.Fatal("expected update to affect a row")
	}

	found, err := repo.FindByID(ctx, book.ID)
	if err != nil {
		t.Fatalf("failed to find book: %v", err)
	}
	if found.Year != 1966 {
		t.Errorf("Year = %d, want 1966", found.Year)
	}
	if found.Title != "Dune" {
		t.Errorf("Title = %q, want unchanged %q", found.Title, "Dune")
	}
}

func TestSQLiteBookRepo_Update_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	book := newTestBook("Ghost", "Nobody", 2000)
	book.ID = 999

	updated, err := repo.Update(context.Background(), book)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated {
		t.Error("expected no rows affected for missing book")
	}
}

func TestSQLiteBookRepo_Delete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	book := newTestBook("Dune", "Herbert", 1965)
	if err := repo.Create(ctx, book); err != nil {
		t.Fatalf("failed to create book: %v", err)
	}

	deleted, err := repo.Delete(ctx, book.ID)
	if err != nil {
		t.Fatalf("failed to delete book: %v", err)
	}
	if !deleted {
		t.Fatal("expected delete to affect a row")
	}

	found, err := repo.FindByID(ctx, book.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != nil {
		t.Errorf("expected nil after delete, got %+v", found)
	}

	// 2回目の削除は常にfalse
	deleted, err = repo.Delete(ctx, book.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted {
		t.Error("second delete should affect no rows")
	}
}
