package procedure

import "net/http"

// Call は1回のプロシージャ呼び出しのコンテキスト。
// RequestとResponseはCookie削除などの副作用のためのハンドル。
type Call struct {
	Identity Identity
	Request  *http.Request
	Response http.ResponseWriter
}

// NewCall はCallを生成する。identityがnilの場合はAnonymousとして扱う。
func NewCall(identity Identity, w http.ResponseWriter, r *http.Request) *Call {
	if identity == nil {
		identity = Anonymous{}
	}
	return &Call{Identity: identity, Request: r, Response: w}
}

// normalize はnilのCallやIdentityをAnonymousの呼び出しに置き換える。
func (c *Call) normalize() *Call {
	if c == nil {
		return &Call{Identity: Anonymous{}}
	}
	if c.Identity == nil {
		cp := *c
		cp.Identity = Anonymous{}
		return &cp
	}
	return c
}
