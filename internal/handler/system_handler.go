package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// DBPinger はヘルスチェックに必要なインターフェース。
// database/sql.DBの部分集合として定義する。
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// SystemHandler はAPI情報とヘルスチェックのHTTPハンドラー。
type SystemHandler struct {
	db      DBPinger
	version string
}

// NewSystemHandler はSystemHandlerを生成する。
func NewSystemHandler(db DBPinger, version string) *SystemHandler {
	return &SystemHandler{
		db:      db,
		version: version,
	}
}

// infoResponse はルートエンドポイントのAPIレスポンス。
type infoResponse struct {
	Message        string `json:"message"`
	Version        string `json:"version"`
	Authentication string `json:"authentication"`
}

// Root はAPIの稼働情報を返す。
// GET /
func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(infoResponse{
		Message:        "Welcome to the Bookman API!",
		Version:        h.version,
		Authentication: "This API supports API Key and JWT Bearer Token",
	})
}

// Health はデータベース接続を確認してヘルス状態を返す。
// GET /health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	if err := h.db.PingContext(ctx); err != nil {
		slog.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
