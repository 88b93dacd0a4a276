package procedure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hitoshi/folio/internal/model"
)

// --- テスト用の入力型 ---

type echoInput struct {
	ID    int64  `json:"id" validate:"required,min=1"`
	Title string `json:"title" validate:"omitempty,max=10"`
}

type echoOutput struct {
	ID    int64
	Title string
	Tier  Tier
}

func echoHandler(called *int) Handler[echoInput, echoOutput] {
	return func(ctx context.Context, call *Call, in echoInput) (echoOutput, error) {
		*called++
		return echoOutput{ID: in.ID, Title: in.Title, Tier: call.Identity.Tier()}, nil
	}
}

var (
	anonymous = Anonymous{}
	member    = User{User: model.User{ID: 2, OpenID: "regular-user", Role: model.RoleUser}}
	admin     = Admin{User: model.User{ID: 1, OpenID: "admin-user", Role: model.RoleAdmin}}
)

func callAs(id Identity) *Call {
	return &Call{Identity: id}
}

// --- 認可 ---

// TestProcedure_TierMatrix は全Tierと全Identityの組み合わせで認可結果を検証する。
func TestProcedure_TierMatrix(t *testing.T) {
	tests := []struct {
		name     string
		tier     Tier
		identity Identity
		wantCode string // 空なら成功
	}{
		{"public/anonymous", TierPublic, anonymous, ""},
		{"public/user", TierPublic, member, ""},
		{"public/admin", TierPublic, admin, ""},
		{"signedIn/anonymous", TierSignedIn, anonymous, model.ErrCodeUnauthorized},
		{"signedIn/user", TierSignedIn, member, ""},
		{"signedIn/admin", TierSignedIn, admin, ""},
		{"admin/anonymous", TierAdmin, anonymous, model.ErrCodeUnauthorized},
		{"admin/user", TierAdmin, member, model.ErrCodeForbidden},
		{"admin/admin", TierAdmin, admin, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := 0
			p := New[echoInput, echoOutput](tt.tier, Query, echoHandler(&called))

			out, err := p.Invoke(context.Background(), callAs(tt.identity), echoInput{ID: 1})

			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Invoke() error = %v", err)
				}
				if called != 1 {
					t.Errorf("handler called %d times, want 1", called)
				}
				if out.Tier != tt.identity.Tier() {
					t.Errorf("handler saw tier %v, want %v", out.Tier, tt.identity.Tier())
				}
				return
			}

			if model.KindOf(err) != model.KindUnauthorized {
				t.Fatalf("KindOf(err) = %q, want %q (err=%v)", model.KindOf(err), model.KindUnauthorized, err)
			}
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != tt.wantCode {
				t.Errorf("error code = %v, want %q", err, tt.wantCode)
			}
			if called != 0 {
				t.Errorf("handler called %d times, want 0", called)
			}
		})
	}
}

// TestProcedure_ValidationPrecedesAuthorization は不正な入力が認可より先に拒否されることを検証する。
func TestProcedure_ValidationPrecedesAuthorization(t *testing.T) {
	for _, id := range []Identity{anonymous, member, admin} {
		t.Run(id.Tier().String(), func(t *testing.T) {
			called := 0
			p := AdminOnly[echoInput, echoOutput](Mutation, echoHandler(&called))

			_, err := p.Invoke(context.Background(), callAs(id), echoInput{ID: 0})

			if model.KindOf(err) != model.KindInvalidInput {
				t.Errorf("KindOf(err) = %q, want %q", model.KindOf(err), model.KindInvalidInput)
			}
			if called != 0 {
				t.Error("handler should not be called")
			}
		})
	}
}

func TestProcedure_NilCallIsAnonymous(t *testing.T) {
	called := 0
	p := SignedIn[echoInput, echoOutput](Query, echoHandler(&called))

	_, err := p.Invoke(context.Background(), nil, echoInput{ID: 1})
	if model.KindOf(err) != model.KindUnauthorized {
		t.Errorf("nil call: KindOf(err) = %q, want %q", model.KindOf(err), model.KindUnauthorized)
	}

	_, err = p.Invoke(context.Background(), &Call{}, echoInput{ID: 1})
	if model.KindOf(err) != model.KindUnauthorized {
		t.Errorf("nil identity: KindOf(err) = %q, want %q", model.KindOf(err), model.KindUnauthorized)
	}
}

// TestProcedure_HandlerErrorPropagatesUnchanged は協調コンポーネントのエラーがそのまま返ることを検証する。
func TestProcedure_HandlerErrorPropagatesUnchanged(t *testing.T) {
	dbErr := errors.New("connection reset by peer")
	p := Public[echoInput, echoOutput](Query, func(ctx context.Context, call *Call, in echoInput) (echoOutput, error) {
		return echoOutput{}, dbErr
	})

	_, err := p.Invoke(context.Background(), callAs(anonymous), echoInput{ID: 1})
	if err != dbErr {
		t.Errorf("err = %v, want the handler's error unchanged", err)
	}
	if model.KindOf(err) != model.KindCollaboratorFailure {
		t.Errorf("KindOf(err) = %q, want %q", model.KindOf(err), model.KindCollaboratorFailure)
	}
}

// --- 生入力のデコード ---

func TestProcedure_Serve_Decoding(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKind model.ErrorKind
		wantID   int64
	}{
		{"valid", `{"id":3,"title":"hello"}`, "", 3},
		{"whitespace around", "  {\"id\":4}\n", "", 4},
		{"empty input fails required id", ``, model.KindInvalidInput, 0},
		{"null input fails required id", `null`, model.KindInvalidInput, 0},
		{"unknown field", `{"id":1,"bogus":true}`, model.KindInvalidInput, 0},
		{"wrong type", `{"id":"one"}`, model.KindInvalidInput, 0},
		{"not an object", `[1,2]`, model.KindInvalidInput, 0},
		{"trailing data", `{"id":1}{"id":2}`, model.KindInvalidInput, 0},
		{"malformed json", `{"id":`, model.KindInvalidInput, 0},
		{"title too long", `{"id":1,"title":"abcdefghijk"}`, model.KindInvalidInput, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := 0
			p := Public[echoInput, echoOutput](Query, echoHandler(&called))

			got, err := p.Serve(context.Background(), callAs(anonymous), json.RawMessage(tt.raw))

			if tt.wantKind != "" {
				if model.KindOf(err) != tt.wantKind {
					t.Fatalf("KindOf(err) = %q, want %q (err=%v)", model.KindOf(err), tt.wantKind, err)
				}
				if got != nil {
					t.Errorf("result = %v, want nil on failure", got)
				}
				if called != 0 {
					t.Error("handler should not be called")
				}
				return
			}

			if err != nil {
				t.Fatalf("Serve() error = %v", err)
			}
			out, ok := got.(echoOutput)
			if !ok {
				t.Fatalf("result type = %T, want echoOutput", got)
			}
			if out.ID != tt.wantID {
				t.Errorf("ID = %d, want %d", out.ID, tt.wantID)
			}
		})
	}
}

func TestProcedure_Serve_NonStructInput(t *testing.T) {
	p := Public[[]int64, int](Query, func(ctx context.Context, call *Call, in []int64) (int, error) {
		return len(in), nil
	})

	got, err := p.Serve(context.Background(), callAs(anonymous), json.RawMessage(`[1,2,3]`))
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if got != 3 {
		t.Errorf("result = %v, want 3", got)
	}
}

// --- メタデータ ---

func TestProcedure_Metadata(t *testing.T) {
	noop := func(ctx context.Context, call *Call, in struct{}) (struct{}, error) { return struct{}{}, nil }

	tests := []struct {
		name     string
		ep       Endpoint
		wantTier Tier
		wantKind Kind
	}{
		{"public query", Public[struct{}, struct{}](Query, noop), TierPublic, Query},
		{"signedIn query", SignedIn[struct{}, struct{}](Query, noop), TierSignedIn, Query},
		{"admin mutation", AdminOnly[struct{}, struct{}](Mutation, noop), TierAdmin, Mutation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.ep.Tier() != tt.wantTier {
				t.Errorf("Tier() = %v, want %v", tt.ep.Tier(), tt.wantTier)
			}
			if tt.ep.Kind() != tt.wantKind {
				t.Errorf("Kind() = %v, want %v", tt.ep.Kind(), tt.wantKind)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	if Query.String() != "query" {
		t.Errorf("Query.String() = %q", Query.String())
	}
	if Mutation.String() != "mutation" {
		t.Errorf("Mutation.String() = %q", Mutation.String())
	}
}

// --- カスタム検証タグ ---

type slugInput struct {
	Slug string `json:"slug" validate:"required,lowerslug"`
}

func TestRegisterValidation_CustomTag(t *testing.T) {
	err := RegisterValidation("lowerslug", func(v string) bool {
		for _, r := range v {
			if (r < 'a' || r > 'z') && r != '-' {
				return false
			}
		}
		return true
	})
	if err != nil {
		t.Fatalf("RegisterValidation() error = %v", err)
	}

	p := Public[slugInput, string](Query, func(ctx context.Context, call *Call, in slugInput) (string, error) {
		return in.Slug, nil
	})

	if _, err := p.Invoke(context.Background(), nil, slugInput{Slug: "hello-world"}); err != nil {
		t.Errorf("valid slug rejected: %v", err)
	}
	_, err = p.Invoke(context.Background(), nil, slugInput{Slug: "Hello World"})
	if model.KindOf(err) != model.KindInvalidInput {
		t.Errorf("KindOf(err) = %q, want %q", model.KindOf(err), model.KindInvalidInput)
	}
}
