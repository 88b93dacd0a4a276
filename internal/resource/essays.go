package resource

import "github.com/hitoshi/folio/internal/model"

// Sanitizer はHTML本文のサニタイズを行うインターフェース。
type Sanitizer interface {
	Sanitize(rawHTML string) string
}

// EssayCreateInput はエッセイ作成の入力。
type EssayCreateInput struct {
	Title          string  `json:"title" validate:"required,max=255"`
	Description    *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	Slug           *string `json:"slug,omitempty" validate:"omitempty,min=1,max=255"`
	Content        string  `json:"content" validate:"max=200000"`
	ReadingMinutes *int    `json:"readingMinutes,omitempty" validate:"omitempty,min=1,max=600"`
	Tags           string  `json:"tags,omitempty" validate:"max=1000,tags"`
	Featured       bool    `json:"featured,omitempty"`
	Published      *bool   `json:"published,omitempty"`
	SortOrder      int     `json:"sortOrder,omitempty"`
}

// IsPublished は作成時の公開状態を返す。
func (in EssayCreateInput) IsPublished() bool { return optionalTrue(in.Published) }

// EssayUpdateInput はエッセイ更新の入力。nilのフィールドは変更しない。
type EssayUpdateInput struct {
	ID             int64   `json:"id" validate:"required,min=1"`
	Title          *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description    *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	Slug           *string `json:"slug,omitempty" validate:"omitempty,min=1,max=255"`
	Content        *string `json:"content,omitempty" validate:"omitempty,max=200000"`
	ReadingMinutes *int    `json:"readingMinutes,omitempty" validate:"omitempty,min=1,max=600"`
	Tags           *string `json:"tags,omitempty" validate:"omitempty,max=1000,tags"`
	Featured       *bool   `json:"featured,omitempty"`
	Published      *bool   `json:"published,omitempty"`
	SortOrder      *int    `json:"sortOrder,omitempty"`
}

// RecordID は更新対象のIDを返す。
func (in EssayUpdateInput) RecordID() int64 { return in.ID }

// EssayStore はエッセイの永続化層。
type EssayStore = Store[model.Essay, EssayCreateInput, EssayUpdateInput]

// EssayRouter はエッセイのプロシージャ群。
type EssayRouter = Router[model.Essay, EssayCreateInput, EssayUpdateInput]

// NewEssayRouter はエッセイのRouterを生成する。
// 本文は保存前にサニタイズする。
func NewEssayRouter(store EssayStore, sanitizer Sanitizer) *EssayRouter {
	return NewRouter("エッセイ", store, Hooks[EssayCreateInput, EssayUpdateInput]{
		PrepareCreate: func(in *EssayCreateInput) {
			in.Content = sanitizer.Sanitize(in.Content)
		},
		PrepareUpdate: func(in *EssayUpdateInput) {
			if in.Content != nil {
				sanitized := sanitizer.Sanitize(*in.Content)
				in.Content = &sanitized
			}
		},
	})
}
