// Package model はドメインモデルを定義する。
package model

import "time"

// Book はカタログに登録された1冊の書籍を表す。
// IDはストアが採番し、作成後は変更されない。
type Book struct {
	ID          int64
	Title       string
	Author      string
	Year        int
	Price       float64
	ISBN        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BookInput は書籍作成リクエストの入力値を表す。
// IDとタイムスタンプは含まない（ストアが割り当てる）。
type BookInput struct {
	Title       string
	Author      string
	Year        int
	Price       float64
	ISBN        string
	Description string
}

// BookPatch は書籍の部分更新を表す。
// nilのフィールドは変更しない。
type BookPatch struct {
	Title       *string
	Author      *string
	Year        *int
	Price       *float64
	ISBN        *string
	Description *string
}

// IsEmpty は更新対象フィールドが1つも指定されていない場合にtrueを返す。
func (p BookPatch) IsEmpty() bool {
	return p.Title == nil && p.Author == nil && p.Year == nil &&
		p.Price == nil && p.ISBN == nil && p.Description == nil
}

// Apply はpatchの非nilフィールドのみをbookに反映する。
// タイムスタンプは変更しない（サービス層が更新する）。
func (p BookPatch) Apply(book *Book) {
	if p.Title != nil {
		book.Title = *p.Title
	}
	if p.Author != nil {
		book.Author = *p.Author
	}
	if p.Year != nil {
		book.Year = *p.Year
	}
	if p.Price != nil {
		book.Price = *p.Price
	}
	if p.ISBN != nil {
		book.ISBN = *p.ISBN
	}
	if p.Description != nil {
		book.Description = *p.Description
	}
}
