package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/waitfree/internal/middleware"
	"github.com/hitoshi/waitfree/internal/model"
)

// maxRequestBodyBytes はリクエストボディの上限サイズ。
const maxRequestBodyBytes = 1 << 20

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// decodeJSON はリクエストボディをdstにデコードする。
// ボディが空、不正なJSON、JSON値の後ろに余分なデータがある、上限サイズ超過の場合はINVALID_REQUEST_BODYを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			slog.Warn("request body too large", slog.Int64("limit", maxErr.Limit))
		case errors.Is(err, io.EOF):
			slog.Debug("empty request body")
		default:
			slog.Debug("malformed request body", slog.String("error", err.Error()))
		}
		return model.NewInvalidRequestBodyError()
	}

	// 1つのJSONオブジェクトの後ろに余分なデータがあれば拒否する
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		slog.Debug("trailing data after request body")
		return model.NewInvalidRequestBodyError()
	}
	return nil
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		middleware.WriteErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
// サインアップの失敗は原因にかかわらず400を返す。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidRequestBody, model.ErrCodeValidationFailed:
		return http.StatusBadRequest
	case model.ErrCodeEmailAlreadyExists, model.ErrCodeSignupRejected,
		model.ErrCodeSignupFailed, model.ErrCodeProfileWriteFailed:
		return http.StatusBadRequest
	case model.ErrCodeInvalidToken, model.ErrCodeTokenExpired:
		return http.StatusUnauthorized
	case model.ErrCodeProfileNotFound, model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case model.ErrCodeIdentityUnavailable, model.ErrCodeProfileStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
