// Package api はアプリケーション全体のプロシージャ名前空間を組み立てる。
package api

import (
	"github.com/hitoshi/folio/internal/auth"
	"github.com/hitoshi/folio/internal/middleware"
	"github.com/hitoshi/folio/internal/procedure"
	"github.com/hitoshi/folio/internal/resource"
)

// Deps はNewAppRouterに必要な依存関係をまとめた構造体。
type Deps struct {
	Photos    resource.PhotoStore
	Essays    resource.EssayStore
	Papers    resource.PaperStore
	Sanitizer resource.Sanitizer

	Sessions      auth.SessionRevoker
	SessionCookie middleware.SessionCookie
}

// NewAppRouter は photos, essays, papers, auth の名前空間をマウントしたRootを返す。
func NewAppRouter(deps Deps) *procedure.Root {
	root := procedure.NewRoot()
	root.Mount("photos", resource.NewPhotoRouter(deps.Photos).Endpoints())
	root.Mount("essays", resource.NewEssayRouter(deps.Essays, deps.Sanitizer).Endpoints())
	root.Mount("papers", resource.NewPaperRouter(deps.Papers).Endpoints())
	root.Mount("auth", auth.NewRouter(deps.Sessions, deps.SessionCookie))
	return root
}
