package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// headerTracker はレスポンスヘッダーが送信済みかを記録する。
type headerTracker struct {
	http.ResponseWriter
	written bool
}

func (t *headerTracker) WriteHeader(code int) {
	t.written = true
	t.ResponseWriter.WriteHeader(code)
}

func (t *headerTracker) Write(b []byte) (int, error) {
	t.written = true
	return t.ResponseWriter.Write(b)
}

func (t *headerTracker) Unwrap() http.ResponseWriter {
	return t.ResponseWriter
}

// NewRecoveryMiddleware はハンドラーのpanicを500に変換する。
// 既にレスポンスを書き始めていた場合はログのみ残す。
// http.ErrAbortHandler はnet/httpに処理させるため再送出する。
func NewRecoveryMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &headerTracker{ResponseWriter: w}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				slog.Error("handler panicked",
					slog.Any("panic", rec),
					slog.String("request_id", RequestIDFromContext(r.Context())),
					slog.String("route", r.Method+" "+r.URL.Path),
					slog.Bool("response_started", tw.written),
					slog.String("stack", string(debug.Stack())),
				)
				if !tw.written {
					WriteInternalServerError(tw)
				}
			}()
			next.ServeHTTP(tw, r)
		})
	}
}
