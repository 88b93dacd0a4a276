// Package resource はコンテンツ種別ごとのCRUDプロシージャを提供する。
//
// list/get/create/update/delete の契約は1つの汎用Routerで実装し、
// 写真・エッセイ・論文はレコード型と永続化層を差し替えて利用する。
package resource

import (
	"context"

	"github.com/hitoshi/folio/internal/model"
	"github.com/hitoshi/folio/internal/procedure"
)

// Record はRouterが扱うレコードの制約。
type Record interface {
	RecordID() int64
	IsPublished() bool
}

// Identified は更新入力の制約。更新対象のIDを持つ。
type Identified interface {
	RecordID() int64
}

// Store はRouterが必要とする永続化層のインターフェース。
type Store[R Record, C any, U Identified] interface {
	// List はフィルタ条件に一致するレコードを sort_order 昇順、created_at 降順で返す。
	List(ctx context.Context, filter model.ListFilter) ([]R, error)
	// Get は指定IDのレコードを返す。見つからない場合はnilを返す。
	Get(ctx context.Context, id int64) (*R, error)
	// Create はレコードを作成し、採番されたIDを返す。
	Create(ctx context.Context, in C) (int64, error)
	// Update は指定されたフィールドのみ更新する。対象がない場合はfalseを返す。
	Update(ctx context.Context, in U) (bool, error)
	// Delete はレコードを削除する。対象がない場合はfalseを返す。
	Delete(ctx context.Context, id int64) (bool, error)
}

// ListInput は一覧取得の入力。
type ListInput struct {
	Featured *bool   `json:"featured,omitempty"`
	Tag      *string `json:"tag,omitempty" validate:"omitempty,min=1,max=64"`
	Limit    *int    `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

// IDInput はID指定の入力。
type IDInput struct {
	ID int64 `json:"id" validate:"required,min=1"`
}

// CreateResult は作成結果。
type CreateResult struct {
	ID int64 `json:"id"`
}

// SuccessResult は更新・削除の結果。
type SuccessResult struct {
	Success bool `json:"success"`
}

// Hooks は入力を永続化層に渡す前の整形処理。
type Hooks[C, U any] struct {
	PrepareCreate func(in *C)
	PrepareUpdate func(in *U)
}

// Router は1種類のコンテンツに対する5つのプロシージャをまとめたもの。
type Router[R Record, C any, U Identified] struct {
	label string // エラーメッセージ用の表示名
	store Store[R, C, U]
	hooks Hooks[C, U]

	List   *procedure.Procedure[ListInput, []R]
	Get    *procedure.Procedure[IDInput, R]
	Create *procedure.Procedure[C, CreateResult]
	Update *procedure.Procedure[U, SuccessResult]
	Delete *procedure.Procedure[IDInput, SuccessResult]
}

// NewRouter はRouterを生成する。
// list/getは誰でも、create/update/deleteは管理者のみ呼び出せる。
func NewRouter[R Record, C any, U Identified](label string, store Store[R, C, U], hooks Hooks[C, U]) *Router[R, C, U] {
	r := &Router[R, C, U]{
		label: label,
		store: store,
		hooks: hooks,
	}

	r.List = procedure.Public[ListInput, []R](procedure.Query, r.list)
	r.Get = procedure.Public[IDInput, R](procedure.Query, r.get)
	r.Create = procedure.AdminOnly[C, CreateResult](procedure.Mutation, r.create)
	r.Update = procedure.AdminOnly[U, SuccessResult](procedure.Mutation, r.update)
	r.Delete = procedure.AdminOnly[IDInput, SuccessResult](procedure.Mutation, r.delete)

	return r
}

// Endpoints はRootにマウントするためのprocedure.Routerを返す。
func (r *Router[R, C, U]) Endpoints() procedure.Router {
	return procedure.Router{
		"list":   r.List,
		"get":    r.Get,
		"create": r.Create,
		"update": r.Update,
		"delete": r.Delete,
	}
}

// list は一覧を返す。
// 管理者以外には公開済みレコードのみ返す。永続化層が非公開レコードを返した場合もここで除外する。
func (r *Router[R, C, U]) list(ctx context.Context, call *procedure.Call, in ListInput) ([]R, error) {
	admin := isAdmin(call)

	filter := model.ListFilter{
		Featured:      in.Featured,
		PublishedOnly: !admin,
	}
	if in.Tag != nil {
		filter.Tag = *in.Tag
	}
	if in.Limit != nil {
		filter.Limit = *in.Limit
	}

	records, err := r.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	visible := make([]R, 0, len(records))
	for _, rec := range records {
		if !admin && !rec.IsPublished() {
			continue
		}
		visible = append(visible, rec)
	}
	if filter.Limit > 0 && len(visible) > filter.Limit {
		visible = visible[:filter.Limit]
	}

	return visible, nil
}

// get は1件返す。管理者以外に対しては非公開レコードを存在しないものとして扱う。
func (r *Router[R, C, U]) get(ctx context.Context, call *procedure.Call, in IDInput) (R, error) {
	var zero R

	rec, err := r.store.Get(ctx, in.ID)
	if err != nil {
		return zero, err
	}
	if rec == nil {
		return zero, model.NewRecordNotFoundError(r.label, in.ID)
	}
	if !isAdmin(call) && !(*rec).IsPublished() {
		return zero, model.NewRecordNotFoundError(r.label, in.ID)
	}

	return *rec, nil
}

func (r *Router[R, C, U]) create(ctx context.Context, call *procedure.Call, in C) (CreateResult, error) {
	if r.hooks.PrepareCreate != nil {
		r.hooks.PrepareCreate(&in)
	}

	id, err := r.store.Create(ctx, in)
	if err != nil {
		return CreateResult{}, err
	}
	return CreateResult{ID: id}, nil
}

func (r *Router[R, C, U]) update(ctx context.Context, call *procedure.Call, in U) (SuccessResult, error) {
	if r.hooks.PrepareUpdate != nil {
		r.hooks.PrepareUpdate(&in)
	}

	ok, err := r.store.Update(ctx, in)
	if err != nil {
		return SuccessResult{}, err
	}
	if !ok {
		return SuccessResult{}, model.NewRecordNotFoundError(r.label, in.RecordID())
	}
	return SuccessResult{Success: true}, nil
}

func (r *Router[R, C, U]) delete(ctx context.Context, call *procedure.Call, in IDInput) (SuccessResult, error) {
	ok, err := r.store.Delete(ctx, in.ID)
	if err != nil {
		return SuccessResult{}, err
	}
	if !ok {
		return SuccessResult{}, model.NewRecordNotFoundError(r.label, in.ID)
	}
	return SuccessResult{Success: true}, nil
}

func isAdmin(call *procedure.Call) bool {
	return call.Identity.Tier().Satisfies(procedure.TierAdmin)
}
