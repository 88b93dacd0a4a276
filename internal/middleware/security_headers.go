package middleware

import "net/http"

// apiContentSecurityPolicy はJSONのみを返すAPI向けのCSP。
const apiContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"

// SecurityHeadersConfig はセキュリティヘッダーの設定。
type SecurityHeadersConfig struct {
	// HSTS はStrict-Transport-Securityを付与するか。HTTPSで公開する場合のみtrueにする。
	HSTS bool
}

// NewSecurityHeadersMiddleware はセキュリティ関連のHTTPレスポンスヘッダーを付与するミドルウェアを返す。
// レスポンスは利用者ごとに異なりうるため、共有キャッシュへの保存も禁止する。
func NewSecurityHeadersMiddleware(config SecurityHeadersConfig) func(next http.Handler) http.Handler {
	headers := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Permissions-Policy":      "camera=(), microphone=(), geolocation=()",
		"Content-Security-Policy": apiContentSecurityPolicy,
		"Cache-Control":           "no-store",
	}
	if config.HSTS {
		headers["Strict-Transport-Security"] = "max-age=63072000; includeSubDomains"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for k, v := range headers {
				w.Header().Set(k, v)
			}
			next.ServeHTTP(w, r)
		})
	}
}
