package auth

import (
	"context"

	"github.com/hitoshi/folio/internal/middleware"
	"github.com/hitoshi/folio/internal/model"
	"github.com/hitoshi/folio/internal/procedure"
)

// SessionRevoker はログアウト時のセッション破棄に必要なインターフェース。
type SessionRevoker interface {
	Logout(ctx context.Context, sessionID string) error
	LogoutAll(ctx context.Context, userID int64) error
}

// LogoutResult はログアウトの結果。
type LogoutResult struct {
	Success bool `json:"success"`
}

// NewRouter は認証系プロシージャ（me, logout, logoutAll）をまとめたRouterを返す。
func NewRouter(revoker SessionRevoker, cookie middleware.SessionCookie) procedure.Router {
	me := procedure.Public[struct{}, *model.User](procedure.Query,
		func(ctx context.Context, call *procedure.Call, _ struct{}) (*model.User, error) {
			return call.Identity.Account(), nil
		})

	logout := procedure.Public[struct{}, LogoutResult](procedure.Mutation,
		func(ctx context.Context, call *procedure.Call, _ struct{}) (LogoutResult, error) {
			if call.Request != nil {
				if err := revoker.Logout(ctx, middleware.SessionIDFromRequest(call.Request)); err != nil {
					return LogoutResult{}, err
				}
			}
			if call.Response != nil {
				cookie.Clear(call.Response)
			}
			return LogoutResult{Success: true}, nil
		})

	// logoutAll は他の端末を含む自分の全セッションを破棄する。
	logoutAll := procedure.SignedIn[struct{}, LogoutResult](procedure.Mutation,
		func(ctx context.Context, call *procedure.Call, _ struct{}) (LogoutResult, error) {
			if err := revoker.LogoutAll(ctx, call.Identity.Account().ID); err != nil {
				return LogoutResult{}, err
			}
			if call.Response != nil {
				cookie.Clear(call.Response)
			}
			return LogoutResult{Success: true}, nil
		})

	return procedure.Router{
		"me":        me,
		"logout":    logout,
		"logoutAll": logoutAll,
	}
}
