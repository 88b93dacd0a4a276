package resource

import (
	"github.com/hitoshi/folio/internal/model"
	"github.com/hitoshi/folio/internal/procedure"
	"github.com/hitoshi/folio/internal/security"
)

// publicURLTag は公開サイトに掲載してよいURLかを検証するタグ。
// ローカルネットワークやプライベートIPを指すURLを拒否する。
const publicURLTag = "publicurl"

// tagsTag はカンマ区切りタグが model.ValidTags を満たすかを検証するタグ。
const tagsTag = "tags"

func init() {
	guard := security.NewSSRFGuard()
	if err := procedure.RegisterValidation(publicURLTag, func(v string) bool {
		return guard.ValidateURL(v) == nil
	}); err != nil {
		panic(err)
	}
	if err := procedure.RegisterValidation(tagsTag, model.ValidTags); err != nil {
		panic(err)
	}
}

// optionalTrue はnilの場合にtrueとして扱う。
func optionalTrue(b *bool) bool {
	return b == nil || *b
}
