package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shouni/go-comico-kit/pkg/ai"
	"github.com/shouni/go-comico-kit/pkg/domain"
	"github.com/shouni/go-comico-kit/pkg/pipeline"
	"github.com/shouni/go-comico-kit/pkg/runner"
	"github.com/shouni/go-comico-kit/pkg/store"
)

// maxBodyBytes はリクエストボディの上限です。data: URL の写真を含むため大きめにしています。
const maxBodyBytes = 32 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", runner.ErrInvalidInput, err)
	}
	return nil
}

// statusFor はエラーを HTTP ステータスに対応付けます。
// upstream は物語生成のように上流の AI 呼び出しが失敗した場合に true を渡します。
func statusFor(err error, upstream bool) int {
	switch {
	case errors.Is(err, runner.ErrInvalidInput), errors.Is(err, pipeline.ErrEmptyStory):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, runner.ErrNotGenerated):
		return http.StatusConflict
	case errors.Is(err, ai.ErrNotConfigured):
		return http.StatusInternalServerError
	case errors.Is(err, ai.ErrBillingLimit):
		return http.StatusPaymentRequired
	case errors.Is(err, ai.ErrRateLimited):
		return http.StatusTooManyRequests
	case upstream, errors.Is(err, domain.ErrInvalidStory):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError はエラーの分類に応じたステータスと利用者向けメッセージを返します。
func respondError(w http.ResponseWriter, r *http.Request, err error, upstream bool) {
	status := statusFor(err, upstream)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, status, ai.UserMessage(err))
}
