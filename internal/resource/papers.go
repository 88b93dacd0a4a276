package resource

import "github.com/hitoshi/folio/internal/model"

// PaperCreateInput は論文作成の入力。
type PaperCreateInput struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	Authors     *string `json:"authors,omitempty" validate:"omitempty,max=1000"`
	Venue       *string `json:"venue,omitempty" validate:"omitempty,max=255"`
	Year        *int    `json:"year,omitempty" validate:"omitempty,min=1900,max=2100"`
	URL         *string `json:"url,omitempty" validate:"omitempty,url,publicurl"`
	PdfURL      *string `json:"pdfUrl,omitempty" validate:"omitempty,url,publicurl"`
	Tags        string  `json:"tags,omitempty" validate:"max=1000,tags"`
	Featured    bool    `json:"featured,omitempty"`
	Published   *bool   `json:"published,omitempty"`
	SortOrder   int     `json:"sortOrder,omitempty"`
}

// IsPublished は作成時の公開状態を返す。
func (in PaperCreateInput) IsPublished() bool { return optionalTrue(in.Published) }

// PaperUpdateInput は論文更新の入力。nilのフィールドは変更しない。
type PaperUpdateInput struct {
	ID          int64   `json:"id" validate:"required,min=1"`
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	Authors     *string `json:"authors,omitempty" validate:"omitempty,max=1000"`
	Venue       *string `json:"venue,omitempty" validate:"omitempty,max=255"`
	Year        *int    `json:"year,omitempty" validate:"omitempty,min=1900,max=2100"`
	URL         *string `json:"url,omitempty" validate:"omitempty,url,publicurl"`
	PdfURL      *string `json:"pdfUrl,omitempty" validate:"omitempty,url,publicurl"`
	Tags        *string `json:"tags,omitempty" validate:"omitempty,max=1000,tags"`
	Featured    *bool   `json:"featured,omitempty"`
	Published   *bool   `json:"published,omitempty"`
	SortOrder   *int    `json:"sortOrder,omitempty"`
}

// RecordID は更新対象のIDを返す。
func (in PaperUpdateInput) RecordID() int64 { return in.ID }

// PaperStore は論文の永続化層。
type PaperStore = Store[model.Paper, PaperCreateInput, PaperUpdateInput]

// PaperRouter は論文のプロシージャ群。
type PaperRouter = Router[model.Paper, PaperCreateInput, PaperUpdateInput]

// NewPaperRouter は論文のRouterを生成する。
func NewPaperRouter(store PaperStore) *PaperRouter {
	return NewRouter("論文", store, Hooks[PaperCreateInput, PaperUpdateInput]{})
}
