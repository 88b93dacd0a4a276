package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/folio/internal/middleware"
	"github.com/hitoshi/folio/internal/model"
)

// handleProcedureError はプロシージャのエラーを失敗種別に応じたHTTPステータスに変換して書き込む。
// 協調コンポーネントの失敗は詳細をログにのみ記録し、クライアントには一般的なメッセージを返す。
func handleProcedureError(w http.ResponseWriter, r *http.Request, path string, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Kind != model.KindCollaboratorFailure {
		middleware.WriteErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}

	slog.Error("procedure failed",
		slog.String("procedure", path),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// statusForAPIError はAPIErrorからHTTPステータスコードにマッピングする。
func statusForAPIError(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden, model.ErrCodeCSRFTokenInvalid:
		return http.StatusForbidden
	case model.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	}

	switch apiErr.Kind {
	case model.KindInvalidInput:
		return http.StatusBadRequest
	case model.KindUnauthorized, model.KindRejected:
		return http.StatusForbidden
	case model.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// outcomeOf はメトリクス用の呼び出し結果ラベルを返す。
func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	return string(model.KindOf(err))
}
