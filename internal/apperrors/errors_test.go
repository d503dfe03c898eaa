package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf_DirectError(t *testing.T) {
	err := PermissionDenied("admin_stats")
	kind, ok := KindOf(err)
	if !ok {
		t.Fatal("expected KindOf to recognize *Error")
	}
	if kind != KindPermissionDenied {
		t.Errorf("expected KindPermissionDenied, got %s", kind)
	}
}

func TestKindOf_WrappedError(t *testing.T) {
	inner := New(KindStorage, "put failed")
	outer := fmt.Errorf("store: %w", inner)

	kind, ok := KindOf(outer)
	if !ok {
		t.Fatal("expected KindOf to unwrap to *Error")
	}
	if kind != KindStorage {
		t.Errorf("expected KindStorage, got %s", kind)
	}
}

func TestErrorIs_MatchesByKindOnly(t *testing.T) {
	a := RateLimited("ai/7/2026070112")
	b := RateLimited("group/55/opps/2026070113")

	if !errors.Is(a, b) {
		t.Error("expected errors of the same kind to match via Is regardless of subject")
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{New(KindNetwork, "timeout"), true},
		{New(KindAPI, "500"), true},
		{New(KindParse, "bad json"), true},
		{New(KindValidation, "bad input"), false},
		{PermissionDenied("x"), false},
		{SessionRequired(), false},
		{errors.New("plain error"), false},
	}

	for _, c := range cases {
		if got := Retryable(c.err); got != c.want {
			t.Errorf("Retryable(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}
