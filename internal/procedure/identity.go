// Package procedure は権限レベル付きのプロシージャ呼び出し契約を提供する。
//
// 各プロシージャは必要な最小権限（Tier）と入力の形を宣言し、
// 呼び出しは常に「入力検証 → 認可 → ハンドラー実行」の順で処理される。
package procedure

import (
	"context"

	"github.com/hitoshi/folio/internal/model"
)

// Tier は権限レベルを表す。値が大きいほど強い権限を持つ。
type Tier int

const (
	// TierPublic は誰でも呼び出せる。
	TierPublic Tier = iota
	// TierSignedIn はログイン済みユーザーのみ呼び出せる。
	TierSignedIn
	// TierAdmin は管理者のみ呼び出せる。
	TierAdmin
)

// Satisfies はこのTierが要求される最小Tierを満たすかを返す。
func (t Tier) Satisfies(min Tier) bool {
	return t >= min
}

// String はTierの表示名を返す。
func (t Tier) String() string {
	switch t {
	case TierPublic:
		return "public"
	case TierSignedIn:
		return "signedIn"
	case TierAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Identity は呼び出し元の識別情報。Anonymous・User・Adminのいずれか。
// 呼び出しごとに1回だけ解決され、その呼び出しの間は変更されない。
type Identity interface {
	// Tier は呼び出し元の権限レベルを返す。
	Tier() Tier
	// Account はログインユーザーを返す。Anonymousの場合はnil。
	Account() *model.User

	identity()
}

// Anonymous は未ログインの呼び出し元。
type Anonymous struct{}

// User はログイン済みの一般ユーザー。
type User struct {
	model.User
}

// Admin はログイン済みの管理者。
type Admin struct {
	model.User
}

func (Anonymous) Tier() Tier           { return TierPublic }
func (Anonymous) Account() *model.User { return nil }
func (Anonymous) identity()            {}

func (u User) Tier() Tier           { return TierSignedIn }
func (u User) Account() *model.User { return &u.User }
func (User) identity()              {}

func (a Admin) Tier() Tier           { return TierAdmin }
func (a Admin) Account() *model.User { return &a.User }
func (Admin) identity()              {}

// IdentityFor はユーザーレコードからIdentityを導出する。
// nilはAnonymous、ロールがadminならAdmin、それ以外はUserになる。
func IdentityFor(u *model.User) Identity {
	if u == nil {
		return Anonymous{}
	}
	if u.Role == model.RoleAdmin {
		return Admin{User: *u}
	}
	return User{User: *u}
}

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var identityContextKey = contextKey("identity")

// ContextWithIdentity はコンテキストにIdentityを注入する。
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext はコンテキストからIdentityを取得する。
// 注入されていない場合はAnonymousを返す。
func IdentityFromContext(ctx context.Context) Identity {
	id, ok := ctx.Value(identityContextKey).(Identity)
	if !ok || id == nil {
		return Anonymous{}
	}
	return id
}
