package resource

import "github.com/hitoshi/folio/internal/model"

// PhotoCreateInput は写真作成の入力。id・日時はサーバー側で採番する。
type PhotoCreateInput struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	ImageURL    string  `json:"imageUrl" validate:"required,url,publicurl"`
	ImageKey    string  `json:"imageKey" validate:"required,max=512"`
	Location    *string `json:"location,omitempty" validate:"omitempty,max=255"`
	Camera      *string `json:"camera,omitempty" validate:"omitempty,max=255"`
	Lens        *string `json:"lens,omitempty" validate:"omitempty,max=255"`
	Settings    *string `json:"settings,omitempty" validate:"omitempty,max=255"`
	Tags        string  `json:"tags,omitempty" validate:"max=1000,tags"`
	Featured    bool    `json:"featured,omitempty"`
	Published   *bool   `json:"published,omitempty"` // 省略時は公開
	SortOrder   int     `json:"sortOrder,omitempty"`
}

// IsPublished は作成時の公開状態を返す。
func (in PhotoCreateInput) IsPublished() bool { return optionalTrue(in.Published) }

// PhotoUpdateInput は写真更新の入力。nilのフィールドは変更しない。
type PhotoUpdateInput struct {
	ID          int64   `json:"id" validate:"required,min=1"`
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	ImageURL    *string `json:"imageUrl,omitempty" validate:"omitempty,url,publicurl"`
	ImageKey    *string `json:"imageKey,omitempty" validate:"omitempty,min=1,max=512"`
	Location    *string `json:"location,omitempty" validate:"omitempty,max=255"`
	Camera      *string `json:"camera,omitempty" validate:"omitempty,max=255"`
	Lens        *string `json:"lens,omitempty" validate:"omitempty,max=255"`
	Settings    *string `json:"settings,omitempty" validate:"omitempty,max=255"`
	Tags        *string `json:"tags,omitempty" validate:"omitempty,max=1000,tags"`
	Featured    *bool   `json:"featured,omitempty"`
	Published   *bool   `json:"published,omitempty"`
	SortOrder   *int    `json:"sortOrder,omitempty"`
}

// RecordID は更新対象のIDを返す。
func (in PhotoUpdateInput) RecordID() int64 { return in.ID }

// PhotoStore は写真の永続化層。
type PhotoStore = Store[model.Photo, PhotoCreateInput, PhotoUpdateInput]

// PhotoRouter は写真のプロシージャ群。
type PhotoRouter = Router[model.Photo, PhotoCreateInput, PhotoUpdateInput]

// NewPhotoRouter は写真のRouterを生成する。
func NewPhotoRouter(store PhotoStore) *PhotoRouter {
	return NewRouter("写真", store, Hooks[PhotoCreateInput, PhotoUpdateInput]{})
}
