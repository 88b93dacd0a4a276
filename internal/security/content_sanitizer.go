// Package security はアプリケーションのセキュリティ機能を提供する。
//
// EssaySanitizer はエッセイ本文のHTMLを保存前に無害化する。
// bluemondayの許可リスト方式のポリシーを使用する。
package security

import (
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

// EssaySanitizerService はエッセイ本文をサニタイズするインターフェース。
// エッセイの作成・更新時に永続化層へ渡す前に使用される。
type EssaySanitizerService interface {
	// Sanitize はHTMLを無害化して返す。同一入力に対して常に同一出力を返す。
	Sanitize(rawHTML string) string
}

// essaySanitizer はEssaySanitizerServiceの実装。ポリシーはスレッドセーフ。
type essaySanitizer struct {
	policy *bluemonday.Policy
}

// NewEssaySanitizer はエッセイ本文用のサニタイザーを生成する。
// ポリシーの内容:
//   - 見出し: h2, h3, h4（h1はタイトル用のため不許可）
//   - 本文: p, br, hr, ul, ol, li, blockquote, pre, code, strong, em, figure, figcaption
//   - a: hrefのみ許可。外部リンクには target="_blank" と rel="noopener noreferrer" を付与
//   - img: httpsのsrcとaltのみ許可
func NewEssaySanitizer() *essaySanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"h2", "h3", "h4",
		"p", "br", "hr", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
		"figure", "figcaption",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return true
	})

	return &essaySanitizer{policy: p}
}

// Sanitize はHTMLを無害化して返す。
func (s *essaySanitizer) Sanitize(rawHTML string) string {
	if rawHTML == "" {
		return ""
	}
	return s.policy.Sanitize(rawHTML)
}
