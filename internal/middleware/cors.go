package middleware

import (
	"net/http"
	"strings"
)

var (
	corsAllowMethods  = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ", ")
	corsAllowHeaders  = strings.Join([]string{"Content-Type", csrfHeaderName, RequestIDHeader}, ", ")
	corsExposeHeaders = strings.Join([]string{RequestIDHeader, "Retry-After"}, ", ")
)

// NewCORSMiddleware は許可オリジンからのリクエストにのみCORSヘッダーを付与するミドルウェアを返す。
// Cookieを送るため、ワイルドカード(*)は使わずオリジンを1つに限定する。
// OPTIONSリクエストはハンドラーに渡さず204で応答する。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			if origin := r.Header.Get("Origin"); origin != "" && origin == allowedOrigin {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
				if r.Method == http.MethodOptions {
					h.Set("Access-Control-Allow-Methods", corsAllowMethods)
					h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
					h.Set("Access-Control-Max-Age", "86400")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
