package procedure

import (
	"context"
	"encoding/json"

	"github.com/hitoshi/folio/internal/model"
)

// Kind はプロシージャの種類を表す。
type Kind int

const (
	// Query は読み取り専用のプロシージャ。
	Query Kind = iota
	// Mutation は状態を変更するプロシージャ。
	Mutation
)

// String はKindの表示名を返す。
func (k Kind) String() string {
	if k == Mutation {
		return "mutation"
	}
	return "query"
}

// Handler は検証・認可済みの入力を受け取るプロシージャ本体。
// 状態を変更してよいのはハンドラーだけである。
type Handler[In, Out any] func(ctx context.Context, call *Call, in In) (Out, error)

// Endpoint は型を消去したプロシージャ。ルーターとトランスポートが利用する。
type Endpoint interface {
	// Tier はプロシージャが要求する最小権限を返す。
	Tier() Tier
	// Kind はプロシージャの種類を返す。
	Kind() Kind
	// Serve は生のJSON入力をデコードしてプロシージャを実行する。
	Serve(ctx context.Context, call *Call, raw json.RawMessage) (any, error)
}

// Procedure は入力の形と最小権限を宣言したハンドラーのラッパー。
type Procedure[In, Out any] struct {
	tier    Tier
	kind    Kind
	handler Handler[In, Out]
}

// New はProcedureを生成する。
func New[In, Out any](tier Tier, kind Kind, h Handler[In, Out]) *Procedure[In, Out] {
	return &Procedure[In, Out]{tier: tier, kind: kind, handler: h}
}

// Public は誰でも呼び出せるプロシージャを生成する。
func Public[In, Out any](kind Kind, h Handler[In, Out]) *Procedure[In, Out] {
	return New(TierPublic, kind, h)
}

// SignedIn はログイン済みユーザーのみが呼び出せるプロシージャを生成する。
func SignedIn[In, Out any](kind Kind, h Handler[In, Out]) *Procedure[In, Out] {
	return New(TierSignedIn, kind, h)
}

// AdminOnly は管理者のみが呼び出せるプロシージャを生成する。
func AdminOnly[In, Out any](kind Kind, h Handler[In, Out]) *Procedure[In, Out] {
	return New(TierAdmin, kind, h)
}

// Tier はプロシージャが要求する最小権限を返す。
func (p *Procedure[In, Out]) Tier() Tier { return p.tier }

// Kind はプロシージャの種類を返す。
func (p *Procedure[In, Out]) Kind() Kind { return p.kind }

// Invoke は型付き入力でプロシージャを実行する。
// 処理順序は常に 入力検証 → 認可 → ハンドラー実行。
// 検証と認可で失敗した場合、ハンドラーは呼ばれない。
// ハンドラーの戻り値とエラーはそのまま返す。
func (p *Procedure[In, Out]) Invoke(ctx context.Context, call *Call, in In) (Out, error) {
	var zero Out
	call = call.normalize()

	if err := validateInput(in); err != nil {
		return zero, err
	}
	if err := authorize(call.Identity, p.tier); err != nil {
		return zero, err
	}

	return p.handler(ctx, call, in)
}

// Serve は生のJSON入力をデコードしてからInvokeする。
// 失敗時の戻り値は常にnil（部分的な結果は返さない）。
func (p *Procedure[In, Out]) Serve(ctx context.Context, call *Call, raw json.RawMessage) (any, error) {
	in, err := decodeInput[In](raw)
	if err != nil {
		return nil, err
	}

	out, err := p.Invoke(ctx, call, in)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// authorize は呼び出し元のTierを要求Tierと比較する。
// 未ログインはUNAUTHORIZED、ログイン済みで権限不足はFORBIDDENとする。
func authorize(id Identity, min Tier) error {
	tier := id.Tier()
	if tier.Satisfies(min) {
		return nil
	}
	if tier == TierPublic {
		return model.NewUnauthenticatedError()
	}
	return model.NewForbiddenError()
}

// compile-time interface check
var _ Endpoint = (*Procedure[struct{}, struct{}])(nil)
