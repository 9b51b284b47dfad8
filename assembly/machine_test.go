package assembly

import (
	"strings"
	"testing"

	"github.com/scentlang/scent/errs"
	"github.com/scentlang/scent/fixnum"
)

func fx(t *testing.T, s string) fixnum.Fixed {
	t.Helper()
	f, err := fixnum.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return f
}

func textMachine(t *testing.T) (*Machine, *strings.Builder) {
	t.Helper()
	var sb strings.Builder
	return NewMachine(NewTextAssembler(&sb), nil), &sb
}

func openBody(t *testing.T, m *Machine) {
	t.Helper()
	if err := m.BeginPage(); err != nil {
		t.Fatal(err)
	}
	if err := m.Dim(fx(t, "595"), fx(t, "842")); err != nil {
		t.Fatal(err)
	}
	if err := m.Body(); err != nil {
		t.Fatal(err)
	}
}

func TestMachine_TopLevelOnly(t *testing.T) {
	m, _ := textMachine(t)
	if err := m.Dim(fx(t, "10"), fx(t, "10")); err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("dim at top: got %v", err)
	}
	if err := m.Save(); err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("save at top: got %v", err)
	}
}

func TestMachine_BodyRequiresDim(t *testing.T) {
	m, _ := textMachine(t)
	if err := m.BeginPage(); err != nil {
		t.Fatal(err)
	}
	if err := m.Body(); err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("body without dim: got %v", err)
	}
}

func TestMachine_BoxContainment(t *testing.T) {
	m, _ := textMachine(t)
	if err := m.BeginPage(); err != nil {
		t.Fatal(err)
	}
	if err := m.Box("ArtBox", fx(t, "36"), fx(t, "36"), fx(t, "600"), fx(t, "500")); err != nil {
		t.Fatal(err)
	}
	if err := m.Dim(fx(t, "595"), fx(t, "842")); err != nil {
		t.Fatal(err)
	}
	err := m.Body()
	if err == nil || errs.KindOf(err) != errs.KindDomain {
		t.Fatalf("box beyond page width: got %v", err)
	}
}

func TestMachine_NestedPageRejected(t *testing.T) {
	m, _ := textMachine(t)
	openBody(t, m)
	if err := m.BeginPage(); err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("nested begin page: got %v", err)
	}
}

func TestMachine_PathOrdering(t *testing.T) {
	m, _ := textMachine(t)
	openBody(t, m)
	if err := m.BeginPath(true, RuleNone, RuleNone); err != nil {
		t.Fatal(err)
	}
	if err := m.Line(0, 0); err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("line before move: got %v", err)
	}
	if err := m.Move(0, 0); err != nil {
		t.Fatal(err)
	}
	if err := m.Move(fx(t, "1"), fx(t, "1")); err == nil {
		t.Fatal("move after move accepted")
	}
	if err := m.Rect(0, 0, fx(t, "5"), fx(t, "5")); err == nil {
		t.Fatal("rect after move accepted")
	}
	if err := m.Close(); err == nil {
		t.Fatal("close after move accepted")
	}
	if err := m.EndPath(); err == nil {
		t.Fatal("end path ending on move accepted")
	}
	if err := m.Line(fx(t, "10"), fx(t, "10")); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if err := m.EndPath(); err != nil {
		t.Fatal(err)
	}
}

func TestMachine_EmptyPathRejected(t *testing.T) {
	m, _ := textMachine(t)
	openBody(t, m)
	if err := m.BeginPath(true, RuleNone, RuleNone); err != nil {
		t.Fatal(err)
	}
	if err := m.EndPath(); err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("empty path: got %v", err)
	}
}

func TestMachine_BeginPathRequiresPaint(t *testing.T) {
	m, _ := textMachine(t)
	openBody(t, m)
	if err := m.BeginPath(false, RuleNone, RuleNone); err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("paintless path: got %v", err)
	}
}

func TestMachine_WriteRequiresFont(t *testing.T) {
	m, _ := textMachine(t)
	openBody(t, m)
	if err := m.BeginText(false); err != nil {
		t.Fatal(err)
	}
	err := m.Write("Hello")
	if err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("write without font: got %v", err)
	}
}

func TestMachine_FontSurvivesRestore(t *testing.T) {
	m, _ := textMachine(t)
	if err := m.FontStandard("F1", "Helvetica"); err != nil {
		t.Fatal(err)
	}
	if err := m.FontStandard("F2", "Courier"); err != nil {
		t.Fatal(err)
	}
	openBody(t, m)
	if err := m.BeginText(true); err != nil {
		t.Fatal(err)
	}
	if err := m.Font("F1", fx(t, "12")); err != nil {
		t.Fatal(err)
	}
	if err := m.Save(); err != nil {
		t.Fatal(err)
	}
	if err := m.Font("F2", fx(t, "14")); err != nil {
		t.Fatal(err)
	}
	if err := m.Restore(); err != nil {
		t.Fatal(err)
	}
	if err := m.Write("x"); err != nil {
		t.Fatalf("write after restore: %v", err)
	}
	if err := m.EndText(); err != nil {
		t.Fatal(err)
	}
}

func TestMachine_FontFlagScopedToFrame(t *testing.T) {
	m, _ := textMachine(t)
	if err := m.FontStandard("F1", "Helvetica"); err != nil {
		t.Fatal(err)
	}
	openBody(t, m)
	if err := m.Save(); err != nil {
		t.Fatal(err)
	}
	if err := m.BeginText(false); err != nil {
		t.Fatal(err)
	}
	if err := m.Font("F1", fx(t, "12")); err != nil {
		t.Fatal(err)
	}
	if err := m.Write("x"); err != nil {
		t.Fatal(err)
	}
	if err := m.EndText(); err != nil {
		t.Fatal(err)
	}
	if err := m.Restore(); err != nil {
		t.Fatal(err)
	}
	if err := m.BeginText(false); err != nil {
		t.Fatal(err)
	}
	if err := m.Write("y"); err == nil {
		t.Fatal("font flag leaked out of restored frame")
	}
}

func TestMachine_EmptyTextBlockRejected(t *testing.T) {
	m, _ := textMachine(t)
	openBody(t, m)
	if err := m.BeginText(false); err != nil {
		t.Fatal(err)
	}
	if err := m.EndText(); err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("empty text block: got %v", err)
	}
}

func TestMachine_SaveRestoreBalance(t *testing.T) {
	m, _ := textMachine(t)
	openBody(t, m)
	if err := m.Restore(); err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("restore without save: got %v", err)
	}
	if err := m.Save(); err != nil {
		t.Fatal(err)
	}
	if err := m.EndPage(); err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("end page with open save: got %v", err)
	}
	if err := m.Restore(); err != nil {
		t.Fatal(err)
	}
	if err := m.EndPage(); err != nil {
		t.Fatal(err)
	}
}

func TestMachine_Finish(t *testing.T) {
	m, _ := textMachine(t)
	if err := m.Finish(); err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("finish with no pages: got %v", err)
	}
	m2, _ := textMachine(t)
	openBody(t, m2)
	if err := m2.Finish(); err == nil {
		t.Fatal("finish inside page accepted")
	}
	if err := m2.EndPage(); err != nil {
		t.Fatal(err)
	}
	if !m2.CanStop() {
		t.Fatal("CanStop false after a defined page")
	}
	if err := m2.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := m2.Finish(); err == nil {
		t.Fatal("double finish accepted")
	}
}

func TestMachine_ResourceNames(t *testing.T) {
	m, _ := textMachine(t)
	if err := m.FontStandard("F1", "Helvetica"); err != nil {
		t.Fatal(err)
	}
	if err := m.FontStandard("F1", "Courier"); err == nil || errs.KindOf(err) != errs.KindName {
		t.Fatalf("duplicate font name: got %v", err)
	}
	if err := m.FontStandard("F3", "Arial"); err == nil || errs.KindOf(err) != errs.KindDomain {
		t.Fatalf("unknown builtin: got %v", err)
	}
	if err := m.ImageJPEG("I1", "a.jpg"); err != nil {
		t.Fatal(err)
	}
	openBody(t, m)
	if err := m.Image("I9"); err == nil || errs.KindOf(err) != errs.KindName {
		t.Fatalf("undefined image: got %v", err)
	}
}

func TestMachine_LineJoinForms(t *testing.T) {
	m, _ := textMachine(t)
	openBody(t, m)
	limit := fx(t, "4")
	if err := m.LineJoin("miter", nil); err == nil || errs.KindOf(err) != errs.KindSyntax {
		t.Fatalf("miter without limit: got %v", err)
	}
	if err := m.LineJoin("round", &limit); err == nil || errs.KindOf(err) != errs.KindSyntax {
		t.Fatalf("round with limit: got %v", err)
	}
	if err := m.LineJoin("miter", &limit); err != nil {
		t.Fatal(err)
	}
	if err := m.LineJoin("bevel", nil); err != nil {
		t.Fatal(err)
	}
}
