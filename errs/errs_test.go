package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		kind Kind
	}{
		{Syntax("bad token"), KindSyntax},
		{Type("wanted integer"), KindType},
		{State("wrong mode"), KindState},
		{NameErr("duplicate"), KindName},
		{Domain("out of range"), KindDomain},
		{Resource("missing file"), KindResource},
		{errors.New("foreign"), KindUnknown},
	}
	for _, c := range cases {
		if got := KindOf(c.err); got != c.kind {
			t.Fatalf("KindOf(%v) = %v, want %v", c.err, got, c.kind)
		}
	}
}

func TestWithLine(t *testing.T) {
	err := WithLine(State("bad"), 7)
	if !strings.Contains(err.Error(), "line 7") {
		t.Fatalf("missing line annotation: %v", err)
	}
	// the first annotation wins
	err = WithLine(err, 9)
	if strings.Contains(err.Error(), "line 9") {
		t.Fatalf("line reannotated: %v", err)
	}
	if KindOf(err) != KindState {
		t.Fatalf("kind lost: %v", KindOf(err))
	}
	if WithLine(nil, 3) != nil {
		t.Fatal("WithLine(nil) should stay nil")
	}
}

func TestWrapping(t *testing.T) {
	inner := errors.New("io failure")
	err := Resource("reading config: %v", inner)
	if !errors.Is(err, inner) {
		t.Fatal("wrapped error not reachable via errors.Is")
	}
	wrapped := fmt.Errorf("outer: %w", err)
	if KindOf(wrapped) != KindResource {
		t.Fatal("kind not found through wrapping")
	}
}
