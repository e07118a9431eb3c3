package admission

import (
	"context"
	"errors"
	"testing"

	"async-job-dispatcher/internal/lifecycle"
)

type stubCounter struct {
	n   int
	err error
}

func (c stubCounter) CountActive(_ context.Context) (int, error) {
	return c.n, c.err
}

func TestAdmitBelowLimit(t *testing.T) {
	ctrl := New(stubCounter{n: 4}, 5)
	ok, active, err := ctrl.Admit(context.Background())
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if !ok || active != 4 {
		t.Fatalf("expected admission at 4/5, got ok=%v active=%d", ok, active)
	}
}

func TestAdmitAtLimit(t *testing.T) {
	ctrl := New(stubCounter{n: 5}, 5)
	ok, _, err := ctrl.Admit(context.Background())
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if ok {
		t.Fatal("expected rejection at limit")
	}
}

func TestAdmitCountErrorNeverAdmits(t *testing.T) {
	ctrl := New(stubCounter{err: errors.New("scan failed")}, 5)
	ok, _, err := ctrl.Admit(context.Background())
	if !errors.Is(err, lifecycle.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if ok {
		t.Fatal("a failed count must not admit")
	}
}
