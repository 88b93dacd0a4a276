// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限ロールを表す。認可判定の唯一の判別子。
type Role string

const (
	// RoleUser は一般ユーザー。
	RoleUser Role = "user"
	// RoleAdmin は管理者。コンテンツの作成・更新・削除ができる。
	RoleAdmin Role = "admin"
)

// User はサービス利用ユーザーを表す。
type User struct {
	ID           int64     `json:"id"`
	OpenID       string    `json:"openId"` // 外部IdPのユーザー識別子
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	LoginMethod  string    `json:"loginMethod"` // "google" 等
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LastSignedIn time.Time `json:"lastSignedIn"`
}

// IsAdmin はユーザーが管理者ロールかどうかを返す。
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}
