package procedure

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/hitoshi/folio/internal/model"
)

// Router はプロシージャ名からEndpointへの対応表。リソースごとに1つ作る。
type Router map[string]Endpoint

// Root は名前空間（photos, essays 等）からRouterへの対応表。
// 認可のロジックは持たず、呼び出し先の解決のみを行う。
type Root struct {
	namespaces map[string]Router
}

// NewRoot は空のRootを生成する。
func NewRoot() *Root {
	return &Root{namespaces: make(map[string]Router)}
}

// Mount は名前空間にRouterを登録する。
// 同じ名前空間の二重登録や空の名前空間は設定ミスのためpanicする。
func (r *Root) Mount(namespace string, router Router) {
	if namespace == "" || strings.Contains(namespace, ".") {
		panic(fmt.Sprintf("procedure: invalid namespace %q", namespace))
	}
	if _, exists := r.namespaces[namespace]; exists {
		panic(fmt.Sprintf("procedure: namespace %q already mounted", namespace))
	}
	r.namespaces[namespace] = router
}

// Lookup は "namespace.name" 形式のパスからEndpointを探す。
func (r *Root) Lookup(path string) (Endpoint, bool) {
	namespace, name, ok := strings.Cut(path, ".")
	if !ok {
		return nil, false
	}
	router, ok := r.namespaces[namespace]
	if !ok {
		return nil, false
	}
	ep, ok := router[name]
	return ep, ok
}

// Call はパスで指定されたプロシージャを実行する。
// 未登録のパスはKindNotFoundのエラーになる。
func (r *Root) Call(ctx context.Context, call *Call, path string, raw json.RawMessage) (any, error) {
	ep, ok := r.Lookup(path)
	if !ok {
		return nil, model.NewProcedureNotFoundError(path)
	}
	return ep.Serve(ctx, call, raw)
}

// Paths は登録済みの全プロシージャパスをソートして返す。
func (r *Root) Paths() []string {
	var paths []string
	for namespace, router := range r.namespaces {
		for name := range router {
			paths = append(paths, namespace+"."+name)
		}
	}
	sort.Strings(paths)
	return paths
}
