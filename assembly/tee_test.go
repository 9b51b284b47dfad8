package assembly

import (
	"strings"
	"testing"
)

func TestTeeAssembler_FansOut(t *testing.T) {
	var a, b strings.Builder
	tee := NewTeeAssembler(NewTextAssembler(&a), NewTextAssembler(&b))
	m := NewMachine(tee, nil)
	if err := m.FontStandard("F1", "Helvetica"); err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() {
		t.Fatalf("targets diverged:\n%q\n%q", a.String(), b.String())
	}
	if !strings.Contains(a.String(), "font_standard F1") {
		t.Fatalf("instruction not forwarded: %q", a.String())
	}
}
