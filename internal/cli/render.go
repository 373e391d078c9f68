package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hitoshi/bookman/internal/book"
	"github.com/hitoshi/bookman/internal/model"
)

// cliBook は--json出力用の書籍表現。APIレスポンスと同じフィールド名を使う。
type cliBook struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Year        int     `json:"year"`
	Price       float64 `json:"price"`
	ISBN        string  `json:"isbn,omitempty"`
	Description string  `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// cliBookList は--json出力用の一覧表現。
type cliBookList struct {
	Items  []cliBook `json:"items"`
	Total  int       `json:"total"`
	Offset int       `json:"offset"`
	Limit  int       `json:"limit"`
}

func toCLIBook(b *model.Book) cliBook {
	return cliBook{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Year:        b.Year,
		Price:       b.Price,
		ISBN:        b.ISBN,
		Description: b.Description,
		CreatedAt:   b.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   b.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toCLIBookList(result *book.ListResult) cliBookList {
	items := make([]cliBook, 0, len(result.Books))
	for _, b := range result.Books {
		items = append(items, toCLIBook(b))
	}
	return cliBookList{
		Items:  items,
		Total:  result.Total,
		Offset: result.Offset,
		Limit:  result.Limit,
	}
}

// renderJSON はインデント付きJSONを書き込む。
func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderBook は書籍1件を人間向けに整形して書き込む。
func renderBook(w io.Writer, b *model.Book) {
	labelColor.Fprint(w, "ID:          ")
	idColor.Fprintf(w, "%d\n", b.ID)
	labelColor.Fprint(w, "タイトル:    ")
	fmt.Fprintln(w, b.Title)
	labelColor.Fprint(w, "著者:        ")
	fmt.Fprintln(w, b.Author)
	labelColor.Fprint(w, "出版年:      ")
	fmt.Fprintf(w, "%d\n", b.Year)
	labelColor.Fprint(w, "価格:        ")
	fmt.Fprintf(w, "%.2f\n", b.Price)
	if b.ISBN != "" {
		labelColor.Fprint(w, "ISBN:        ")
		fmt.Fprintln(w, b.ISBN)
	}
	if b.Description != "" {
		labelColor.Fprint(w, "説明:        ")
		fmt.Fprintln(w, b.Description)
	}
	labelColor.Fprint(w, "更新日時:    ")
	fmt.Fprintln(w, b.UpdatedAt.UTC().Format(time.RFC3339))
}

// renderBookList は書籍一覧を人間向けに整形して書き込む。
func renderBookList(w io.Writer, result *book.ListResult) {
	if len(result.Books) == 0 {
		fmt.Fprintln(w, "書籍が見つかりませんでした。")
		return
	}

	for _, b := range result.Books {
		idColor.Fprintf(w, "%4d", b.ID)
		fmt.Fprintf(w, "  %s / %s (%d)", b.Title, b.Author, b.Year)
		if b.ISBN != "" {
			fmt.Fprintf(w, "  [%s]", b.ISBN)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\n%d件中 %d件を表示 (offset=%d, limit=%d)\n",
		result.Total, len(result.Books), result.Offset, result.Limit)
}
