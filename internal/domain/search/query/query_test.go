package query

import (
	"strings"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	q, err := New(Keyword, "sodium", 1.0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Limit() != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, q.Limit())
	}
	if q.Type() != Keyword || q.Text() != "sodium" || q.Weight() != 1.0 {
		t.Errorf("unexpected query %+v", q)
	}
}

func TestNew_ClampsLimit(t *testing.T) {
	q, err := New(Semantic, "better caves", 0.5, MaxLimit+10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Limit() != MaxLimit {
		t.Errorf("expected limit clamped to %d, got %d", MaxLimit, q.Limit())
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(Keyword, "x", -0.1, 10); err == nil {
		t.Error("expected error for negative weight")
	}
	if _, err := New(Keyword, strings.Repeat("a", MaxTextLength+1), 1, 10); err == nil {
		t.Error("expected error for oversized text")
	}
}

func TestNew_ZeroWeightAccepted(t *testing.T) {
	if _, err := New(Semantic, "x", 0, 10); err != nil {
		t.Errorf("expected zero weight to be valid: %v", err)
	}
}

func TestType_IsValid(t *testing.T) {
	if !Semantic.IsValid() || !Keyword.IsValid() {
		t.Error("expected built-in types to be valid")
	}
	if Type("hybrid").IsValid() {
		t.Error("expected hybrid to be invalid")
	}
}
