// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Entry は写真・エッセイ・論文に共通するフィールド。
type Entry struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Tags        string     `json:"tags"` // カンマ区切り、順序を保持
	Featured    bool       `json:"featured"`
	Published   bool       `json:"published"`
	SortOrder   int        `json:"sortOrder"`
	PublishedAt *time.Time `json:"publishedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// RecordID はレコードIDを返す。
func (e Entry) RecordID() int64 { return e.ID }

// IsPublished は公開済みかどうかを返す。
func (e Entry) IsPublished() bool { return e.Published }

// Photo はポートフォリオの写真を表す。画像本体はオブジェクトストレージにあり、URLとキーのみ保持する。
type Photo struct {
	Entry
	ImageURL string  `json:"imageUrl"`
	ImageKey string  `json:"imageKey"`
	Location *string `json:"location"`
	Camera   *string `json:"camera"`
	Lens     *string `json:"lens"`
	Settings *string `json:"settings"` // 例: "f/2.8, 1/100s, ISO 100"
}

// Essay はエッセイを表す。Bodyはサニタイズ済みHTML。
type Essay struct {
	Entry
	Slug           *string `json:"slug"`
	Body           string  `json:"content"`
	ReadingMinutes *int    `json:"readingMinutes"`
}

// Paper は論文を表す。
type Paper struct {
	Entry
	Authors *string `json:"authors"`
	Venue   *string `json:"venue"`
	Year    *int    `json:"year"`
	URL     *string `json:"url"`
	PdfURL  *string `json:"pdfUrl"`
}

// ListFilter は一覧取得の絞り込み条件。
type ListFilter struct {
	Featured      *bool
	Tag           string
	Limit         int
	PublishedOnly bool // trueの場合は公開済みのみ返す
}

// SplitTags はカンマ区切りのタグ文字列を要素に分割する。空文字はタグなし。
func SplitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// ValidTags はタグ文字列が保存可能な形かを返す。
// 各タグは空でなく前後に空白を持たず、重複しないこと。保存時に書き換えはしない。
func ValidTags(raw string) bool {
	seen := make(map[string]struct{})
	for _, t := range SplitTags(raw) {
		if t == "" || t != strings.TrimSpace(t) {
			return false
		}
		if _, dup := seen[t]; dup {
			return false
		}
		seen[t] = struct{}{}
	}
	return true
}
