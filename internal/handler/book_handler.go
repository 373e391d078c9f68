// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/bookman/internal/book"
	"github.com/hitoshi/bookman/internal/model"
)

// BookServiceInterface は書籍ハンドラーが必要とするサービスインターフェース。
type BookServiceInterface interface {
	// Create は書籍を作成する。
	Create(ctx context.Context, input model.BookInput) (*model.Book, error)
	// Get は指定IDの書籍を取得する。
	Get(ctx context.Context, id int64) (*model.Book, error)
	// List は条件に一致する書籍の一覧と総数を返す。
	List(ctx context.Context, params book.ListParams) (*book.ListResult, error)
	// Update は書籍を部分更新する。
	Update(ctx context.Context, id int64, patch model.BookPatch) (*model.Book, error)
	// Delete は指定IDの書籍を削除する。
	Delete(ctx context.Context, id int64) error
}

// BookMetricsRecorder は書籍操作のメトリクス記録に必要なインターフェース。
// metrics.Collectorの部分集合として定義する。nilの場合は記録しない。
type BookMetricsRecorder interface {
	RecordBookCreated()
	RecordBookUpdated()
	RecordBookDeleted()
}

// BookHandler は書籍カタログのHTTPハンドラー。
type BookHandler struct {
	service  BookServiceInterface
	recorder BookMetricsRecorder
}

// NewBookHandler はBookHandlerを生成する。
func NewBookHandler(service BookServiceInterface, recorder BookMetricsRecorder) *BookHandler {
	return &BookHandler{
		service:  service,
		recorder: recorder,
	}
}

// createBookRequest は書籍作成リクエストのボディ。
type createBookRequest struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Year        int     `json:"year"`
	Price       float64 `json:"price"`
	ISBN        string  `json:"isbn"`
	Description string  `json:"description"`
}

// updateBookRequest は書籍部分更新リクエストのボディ。
// 指定されなかったフィールドは変更しない。
type updateBookRequest struct {
	Title       *string  `json:"title"`
	Author      *string  `json:"author"`
	Year        *int     `json:"year"`
	Price       *float64 `json:"price"`
	ISBN        *string  `json:"isbn"`
	Description *string  `json:"description"`
}

// bookResponse は書籍情報のAPIレスポンス。
type bookResponse struct {
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

// listBooksResponse は書籍一覧のAPIレスポンス。
type listBooksResponse struct {
	Items  []bookResponse `json:"items"`
	Total  int            `json:"total"`
	Offset int            `json:"offset"`
	Limit  int            `json:"limit"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Category   string                 `json:"category"`
	Action     string                 `json:"action"`
	Violations []model.FieldViolation `json:"violations,omitempty"`
}

// CreateBook は書籍作成を処理する。
// POST /books
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	created, err := h.service.Create(r.Context(), model.BookInput{
		Title:       req.Title,
		Author:      req.Author,
		Year:        req.Year,
		Price:       req.Price,
		ISBN:        req.ISBN,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.recorder != nil {
		h.recorder.RecordBookCreated()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toBookResponse(created))
}

// ListBooks は書籍一覧を取得する。
// GET /books?q=xxx&offset=0&limit=20
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	params := book.ListParams{
		Query: r.URL.Query().Get("q"),
	}

	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("offsetは整数で指定してください"))
			return
		}
		params.Offset = offset
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("limitは整数で指定してください"))
			return
		}
		params.Limit = limit
	}

	result, err := h.service.List(r.Context(), params)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]bookResponse, 0, len(result.Books))
	for _, b := range result.Books {
		items = append(items, toBookResponse(b))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listBooksResponse{
		Items:  items,
		Total:  result.Total,
		Offset: result.Offset,
		Limit:  result.Limit,
	})
}

// GetBook は書籍詳細を取得する。
// GET /books/{id}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseBookID(w, r)
	if !ok {
		return
	}

	found, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toBookResponse(found))
}

// UpdateBook は書籍を部分更新する。
// PATCH /books/{id}
func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseBookID(w, r)
	if !ok {
		return
	}

	var req updateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	updated, err := h.service.Update(r.Context(), id, model.BookPatch{
		Title:       req.Title,
		Author:      req.Author,
		Year:        req.Year,
		Price:       req.Price,
		ISBN:        req.ISBN,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.recorder != nil {
		h.recorder.RecordBookUpdated()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toBookResponse(updated))
}

// DeleteBook は書籍を削除する。
// DELETE /books/{id}
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseBookID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	if h.recorder != nil {
		h.recorder.RecordBookDeleted()
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// parseBookID はパスパラメータから書籍IDを取り出す。
// 不正な場合は400を書き込みfalseを返す。
func parseBookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("書籍IDは正の整数で指定してください"))
		return 0, false
	}
	return id, true
}

// toBookResponse はmodel.BookからAPIレスポンスに変換する。
func toBookResponse(b *model.Book) bookResponse {
	return bookResponse{
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

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:       apiErr.Code,
		Message:    apiErr.Message,
		Category:   apiErr.Category,
		Action:     apiErr.Action,
		Violations: apiErr.Violations,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidationFailed:
		return http.StatusUnprocessableEntity
	case model.ErrCodeInvalidRequest, model.ErrCodeEmptyPatch:
		return http.StatusBadRequest
	case model.ErrCodeBookNotFound:
		return http.StatusNotFound
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeInvalidAPIKey:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
