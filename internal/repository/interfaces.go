// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
package repository

import (
	"context"

	"github.com/hitoshi/folio/internal/model"
	"github.com/hitoshi/folio/internal/resource"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// Upsert はopen_idをキーにユーザーを作成または更新し、保存後のユーザーを返す。
	// last_signed_in は常に現在時刻に更新される。
	Upsert(ctx context.Context, user *model.User) (*model.User, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID int64) error
	// DeleteExpired は期限切れのセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// PhotoRepository は写真の永続化インターフェース。
type PhotoRepository = resource.PhotoStore

// EssayRepository はエッセイの永続化インターフェース。
type EssayRepository = resource.EssayStore

// PaperRepository は論文の永続化インターフェース。
type PaperRepository = resource.PaperStore
