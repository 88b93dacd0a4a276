package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/folio/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// RequestIDは問い合わせ時にログと突き合わせるために返す。
type ErrorResponseBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Category  string `json:"category"`
	Action    string `json:"action"`
	RequestID string `json:"requestId,omitempty"`
}

func newErrorResponseBody(apiErr *model.APIError, requestID string) ErrorResponseBody {
	return ErrorResponseBody{
		Code:      apiErr.Code,
		Message:   apiErr.Message,
		Category:  apiErr.Category,
		Action:    apiErr.Action,
		RequestID: requestID,
	}
}

// WriteErrorResponse はapiErrを統一フォーマットで書き込む。
// リクエストIDはRequestIDミドルウェアが設定したレスポンスヘッダーから取る。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	body := newErrorResponseBody(apiErr, w.Header().Get(RequestIDHeader))

	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Del("Content-Length")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("failed to encode error response",
			slog.String("code", apiErr.Code),
			slog.String("error", err.Error()),
		)
	}
}

// WriteInternalServerError は500を返す。原因はログ側にのみ残す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}
