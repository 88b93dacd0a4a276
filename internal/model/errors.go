// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// ErrorKind はプロシージャ呼び出しの失敗種別を表す。
// クライアントは種別で分岐して「権限なし」「見つからない」「不正なリクエスト」を出し分ける。
type ErrorKind string

const (
	// KindInvalidInput は入力が宣言された形に一致しないことを表す。
	KindInvalidInput ErrorKind = "invalid_input"
	// KindUnauthorized は呼び出し元の権限がプロシージャの要求に満たないことを表す。
	KindUnauthorized ErrorKind = "unauthorized"
	// KindNotFound は参照したレコードやプロシージャが存在しないことを表す。
	KindNotFound ErrorKind = "not_found"
	// KindCollaboratorFailure は永続化層や認証層の想定外の失敗を表す。
	KindCollaboratorFailure ErrorKind = "collaborator_failure"
	// KindRejected はプロシージャに到達する前にHTTP層で拒否されたことを表す。
	// レート制限とCSRF検証の失敗が該当し、呼び出し元の権限とは無関係。
	KindRejected ErrorKind = "rejected"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Kind     ErrorKind // 失敗種別
	Code     string    // エラーコード
	Message  string    // エラーメッセージ
	Category string    // カテゴリ: auth, validation, content, system
	Action   string    // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeRecordNotFound    = "RECORD_NOT_FOUND"
	ErrCodeProcedureNotFound = "PROCEDURE_NOT_FOUND"
	ErrCodeMethodNotAllowed  = "METHOD_NOT_ALLOWED"
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeCSRFTokenInvalid  = "CSRF_TOKEN_INVALID"
)

// KindOf はエラーを失敗種別に分類する。
// APIError以外のエラーは協調コンポーネントの失敗として扱う。nilの場合は空文字を返す。
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindCollaboratorFailure
}

// NewInvalidInputError は入力検証エラーを生成する。
func NewInvalidInputError(detail string) *APIError {
	return &APIError{
		Kind:     KindInvalidInput,
		Code:     ErrCodeInvalidInput,
		Message:  fmt.Sprintf("入力内容が不正です: %s", detail),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUnauthenticatedError は未ログインのエラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Kind:     KindUnauthorized,
		Code:     ErrCodeUnauthorized,
		Message:  "ログインが必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError はログイン済みだが権限が不足している場合のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Kind:     KindUnauthorized,
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "管理者アカウントでログインしてください。",
	}
}

// NewRecordNotFoundError はレコード未検出エラーを生成する。
func NewRecordNotFoundError(resource string, id int64) *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeRecordNotFound,
		Message:  fmt.Sprintf("指定された%sが見つかりません: %d", resource, id),
		Category: "content",
		Action:   "IDを確認してください。",
	}
}

// NewProcedureNotFoundError は存在しないプロシージャが呼ばれた場合のエラーを生成する。
func NewProcedureNotFoundError(path string) *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeProcedureNotFound,
		Message:  fmt.Sprintf("プロシージャが見つかりません: %s", path),
		Category: "validation",
		Action:   "呼び出すプロシージャ名を確認してください。",
	}
}

// NewMethodNotAllowedError は更新系プロシージャをGETで呼んだ場合のエラーを生成する。
func NewMethodNotAllowedError(path string) *APIError {
	return &APIError{
		Kind:     KindInvalidInput,
		Code:     ErrCodeMethodNotAllowed,
		Message:  fmt.Sprintf("このプロシージャはPOSTでのみ呼び出せます: %s", path),
		Category: "validation",
		Action:   "POSTリクエストで呼び出してください。",
	}
}

// NewInternalError は内部エラーの統一レスポンスを生成する。
// 協調コンポーネントの詳細は含めない。
func NewInternalError() *APIError {
	return &APIError{
		Kind:     KindCollaboratorFailure,
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewRateLimitError はレート制限超過のエラーを生成する。
func NewRateLimitError() *APIError {
	return &APIError{
		Kind:     KindRejected,
		Code:     ErrCodeRateLimitExceeded,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "Retry-Afterヘッダーの秒数だけ待ってから再度お試しください。",
	}
}

// NewCSRFError はCSRFトークン検証失敗のエラーを生成する。
func NewCSRFError() *APIError {
	return &APIError{
		Kind:     KindRejected,
		Code:     ErrCodeCSRFTokenInvalid,
		Message:  "CSRFトークンの検証に失敗しました。",
		Category: "auth",
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}
