package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"invalid input", NewInvalidInputError("title"), KindInvalidInput},
		{"unauthenticated", NewUnauthenticatedError(), KindUnauthorized},
		{"forbidden", NewForbiddenError(), KindUnauthorized},
		{"record not found", NewRecordNotFoundError("写真", 1), KindNotFound},
		{"procedure not found", NewProcedureNotFoundError("photos.nope"), KindNotFound},
		{"wrapped api error", fmt.Errorf("wrap: %w", NewForbiddenError()), KindUnauthorized},
		{"internal", NewInternalError(), KindCollaboratorFailure},
		{"rate limit", NewRateLimitError(), KindRejected},
		{"csrf", NewCSRFError(), KindRejected},
		{"plain error", errors.New("connection refused"), KindCollaboratorFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnauthorizedErrors_DistinctCodesSameKind(t *testing.T) {
	unauth := NewUnauthenticatedError()
	forbidden := NewForbiddenError()

	if unauth.Kind != forbidden.Kind {
		t.Errorf("kinds differ: %q vs %q", unauth.Kind, forbidden.Kind)
	}
	if unauth.Code == forbidden.Code {
		t.Errorf("codes should differ, both %q", unauth.Code)
	}
}

// TestTransportRejections_NotAuthorizationFailures はレート制限とCSRF失敗を権限不足と区別できることを検証する。
func TestTransportRejections_NotAuthorizationFailures(t *testing.T) {
	for _, err := range []*APIError{NewRateLimitError(), NewCSRFError()} {
		if err.Kind == KindUnauthorized {
			t.Errorf("%s: Kind = %q, should not be reported as an authorization failure", err.Code, err.Kind)
		}
	}
}

func TestAPIError_Error(t *testing.T) {
	err := NewRecordNotFoundError("写真", 42)
	want := "[RECORD_NOT_FOUND] 指定された写真が見つかりません: 42"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
