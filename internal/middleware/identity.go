// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/folio/internal/model"
	"github.com/hitoshi/folio/internal/procedure"
)

// SessionCookieName はセッションIDを保持するCookieの名前。
const SessionCookieName = "session_id"

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// UserFinder はユーザーの検索に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// SessionCookie はセッションCookieの属性。
type SessionCookie struct {
	Domain string
	Secure bool
	MaxAge int // 秒
}

// Set はセッションCookieを書き込む。
func (c SessionCookie) Set(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   c.MaxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear はセッションCookieを削除する。
func (c SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionIDFromRequest はリクエストのCookieからセッションIDを取得する。未設定の場合は空文字を返す。
func SessionIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// IdentityResolver はセッションCookieから呼び出し元のIdentityを解決する。
type IdentityResolver struct {
	sessions SessionFinder
	users    UserFinder
	cookie   SessionCookie
}

// NewIdentityResolver はIdentityResolverを生成する。
func NewIdentityResolver(sessions SessionFinder, users UserFinder, cookie SessionCookie) *IdentityResolver {
	return &IdentityResolver{sessions: sessions, users: users, cookie: cookie}
}

// Resolve はリクエストのIdentityを1回だけ解決する。
// Cookieがなければ副作用なしでAnonymous。
// セッションが無効・期限切れ、またはユーザーが存在しない場合はCookieを削除してAnonymous。
// 永続化層の失敗はエラーとして返す。
func (ir *IdentityResolver) Resolve(w http.ResponseWriter, r *http.Request) (procedure.Identity, error) {
	sessionID := SessionIDFromRequest(r)
	if sessionID == "" {
		return procedure.Anonymous{}, nil
	}

	session, err := ir.sessions.FindByID(r.Context(), sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		ir.cookie.Clear(w)
		return procedure.Anonymous{}, nil
	}

	user, err := ir.users.FindByID(r.Context(), session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session user: %w", err)
	}
	if user == nil {
		ir.cookie.Clear(w)
		return procedure.Anonymous{}, nil
	}

	return procedure.IdentityFor(user), nil
}

// Middleware はIdentityを解決してリクエストコンテキストに注入するミドルウェアを返す。
// 解決に失敗した場合は500を返す。
func (ir *IdentityResolver) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := ir.Resolve(w, r)
			if err != nil {
				slog.Error("failed to resolve identity",
					slog.String("error", err.Error()),
					slog.String("request_id", RequestIDFromContext(r.Context())),
				)
				WriteInternalServerError(w)
				return
			}

			if u := identity.Account(); u != nil {
				annotateUser(r.Context(), u.ID)
			}

			ctx := procedure.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
