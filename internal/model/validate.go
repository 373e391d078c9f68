package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// バリデーション制約の境界値。
const (
	maxTitleLength       = 200
	maxAuthorLength      = 100
	maxDescriptionLength = 4000

	// minYear は活版印刷の登場以降を妥当な出版年とみなす下限。
	minYear = 1450
)

// Validate は作成入力のすべての制約を検査する。
// 違反がある場合はVALIDATION_FAILEDのAPIErrorに全件を列挙して返す。
// 副作用を持たない。
func (in BookInput) Validate() error {
	var violations []FieldViolation

	violations = append(violations, validateTitle(in.Title)...)
	violations = append(violations, validateAuthor(in.Author)...)
	violations = append(violations, validateYear(in.Year)...)
	violations = append(violations, validatePrice(in.Price)...)
	if in.ISBN != "" {
		violations = append(violations, validateISBN(in.ISBN)...)
	}
	violations = append(violations, validateDescription(in.Description)...)

	if len(violations) > 0 {
		return NewValidationFailedError(violations)
	}
	return nil
}

// Validate は部分更新の指定済みフィールドのみを検査する。
// nilのフィールドは検査対象外。違反は全件列挙する。
func (p BookPatch) Validate() error {
	var violations []FieldViolation

	if p.Title != nil {
		violations = append(violations, validateTitle(*p.Title)...)
	}
	if p.Author != nil {
		violations = append(violations, validateAuthor(*p.Author)...)
	}
	if p.Year != nil {
		violations = append(violations, validateYear(*p.Year)...)
	}
	if p.Price != nil {
		violations = append(violations, validatePrice(*p.Price)...)
	}
	if p.ISBN != nil && *p.ISBN != "" {
		violations = append(violations, validateISBN(*p.ISBN)...)
	}
	if p.Description != nil {
		violations = append(violations, validateDescription(*p.Description)...)
	}

	if len(violations) > 0 {
		return NewValidationFailedError(violations)
	}
	return nil
}

func validateTitle(title string) []FieldViolation {
	var v []FieldViolation
	if strings.TrimSpace(title) == "" {
		v = append(v, FieldViolation{Field: "title", Message: "タイトルは必須です。"})
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		v = append(v, FieldViolation{
			Field:   "title",
			Message: fmt.Sprintf("タイトルは%d文字以内で指定してください。", maxTitleLength),
		})
	}
	return v
}

func validateAuthor(author string) []FieldViolation {
	var v []FieldViolation
	if strings.TrimSpace(author) == "" {
		v = append(v, FieldViolation{Field: "author", Message: "著者は必須です。"})
	}
	if utf8.RuneCountInString(author) > maxAuthorLength {
		v = append(v, FieldViolation{
			Field:   "author",
			Message: fmt.Sprintf("著者は%d文字以内で指定してください。", maxAuthorLength),
		})
	}
	return v
}

func validateYear(year int) []FieldViolation {
	maxYear := time.Now().Year()
	if year < minYear || year > maxYear {
		return []FieldViolation{{
			Field:   "year",
			Message: fmt.Sprintf("出版年は%d〜%dの範囲で指定してください。", minYear, maxYear),
		}}
	}
	return nil
}

func validatePrice(price float64) []FieldViolation {
	if price < 0 {
		return []FieldViolation{{
			Field:   "price",
			Message: "価格は0以上で指定してください。",
		}}
	}
	return nil
}

func validateDescription(description string) []FieldViolation {
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return []FieldViolation{{
			Field:   "description",
			Message: fmt.Sprintf("説明は%d文字以内で指定してください。", maxDescriptionLength),
		}}
	}
	return nil
}

// validateISBN はISBN-10またはISBN-13のチェックディジットを検証する。
// ハイフンおよび空白は除去してから判定する。
func validateISBN(isbn string) []FieldViolation {
	normalized := normalizeISBN(isbn)

	switch len(normalized) {
	case 10:
		if isValidISBN10(normalized) {
			return nil
		}
	case 13:
		if isValidISBN13(normalized) {
			return nil
		}
	}

	return []FieldViolation{{
		Field:   "isbn",
		Message: "ISBNはチェックディジットを含む有効なISBN-10またはISBN-13で指定してください。",
	}}
}

// NormalizeISBN はISBNからハイフンと空白を除去した正規形を返す。
// 永続化にはこの正規形を使用する。
func NormalizeISBN(isbn string) string {
	return normalizeISBN(isbn)
}

func normalizeISBN(isbn string) string {
	var b strings.Builder
	for _, r := range isbn {
		if r == '-' || r == ' ' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isValidISBN10 はISBN-10のチェックディジット（mod 11、末尾Xは10）を検証する。
func isValidISBN10(s string) bool {
	sum := 0
	for i, r := range s {
		var digit int
		switch {
		case r >= '0' && r <= '9':
			digit = int(r - '0')
		case (r == 'X' || r == 'x') && i == 9:
			digit = 10
		default:
			return false
		}
		sum += digit * (10 - i)
	}
	return sum%11 == 0
}

// isValidISBN13 はISBN-13のチェックディジット（1,3交互の重み、mod 10）を検証する。
func isValidISBN13(s string) bool {
	sum := 0
	for i, r := range s {
		if r < '0' || r > '9' {
			return false
		}
		digit := int(r - '0')
		if i%2 == 0 {
			sum += digit
		} else {
			sum += digit * 3
		}
	}
	return sum%10 == 0
}
