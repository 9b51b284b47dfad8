package writer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/scentlang/scent/errs"
	"github.com/scentlang/scent/images"
	"github.com/scentlang/scent/value"
)

func simpleDoc(t *testing.T) *Document {
	t.Helper()
	d := NewDocument(Config{Deterministic: true})
	if err := d.AddStandardFont("F1", "Helvetica"); err != nil {
		t.Fatal(err)
	}
	c, err := d.BeginPage(595, 842)
	if err != nil {
		t.Fatal(err)
	}
	c.Save()
	c.BeginText()
	c.FontSize("F1", 12)
	c.Advance(72, 720)
	c.ShowText("Hello (scent)")
	c.EndText()
	c.Restore()
	if err := d.SetBox(BoxArt, 36, 36, 559, 806); err != nil {
		t.Fatal(err)
	}
	if err := d.EndPage(); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestFinish_WellFormed(t *testing.T) {
	var buf bytes.Buffer
	if err := simpleDoc(t).Finish(&buf); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"%PDF-1.7",
		"/Type /Catalog",
		"/Type /Pages",
		"/Type /Page",
		"/BaseFont /Helvetica",
		"/ArtBox [36 36 559 806]",
		"(Hello \\(scent\\)) Tj",
		"startxref",
		"%%EOF",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q", want)
		}
	}
}

func TestFinish_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	if err := simpleDoc(t).Finish(&a); err != nil {
		t.Fatal(err)
	}
	if err := simpleDoc(t).Finish(&b); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatal("deterministic output differs between runs")
	}
}

func TestFinish_InvalidatesDocument(t *testing.T) {
	d := simpleDoc(t)
	var buf bytes.Buffer
	if err := d.Finish(&buf); err != nil {
		t.Fatal(err)
	}
	if err := d.Finish(&buf); err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("second Finish: got %v", err)
	}
}

func TestFinish_OpenPageRejected(t *testing.T) {
	d := NewDocument(Config{})
	if _, err := d.BeginPage(100, 100); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := d.Finish(&buf); err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("Finish with open page: got %v", err)
	}
}

func TestDuplicateResources(t *testing.T) {
	d := NewDocument(Config{})
	if err := d.AddStandardFont("F1", "Helvetica"); err != nil {
		t.Fatal(err)
	}
	if err := d.AddStandardFont("F1", "Courier"); err == nil || errs.KindOf(err) != errs.KindName {
		t.Fatalf("duplicate font: got %v", err)
	}
	h := &images.Handle{Format: value.ImageJPEG, Width: 1, Height: 1, Raw: []byte{0xFF}}
	if err := d.AddImage("I1", h); err != nil {
		t.Fatal(err)
	}
	if err := d.AddImage("I1", h); err == nil || errs.KindOf(err) != errs.KindName {
		t.Fatalf("duplicate image: got %v", err)
	}
}

func TestNestedPageRejected(t *testing.T) {
	d := NewDocument(Config{})
	if _, err := d.BeginPage(100, 100); err != nil {
		t.Fatal(err)
	}
	if _, err := d.BeginPage(100, 100); err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("nested BeginPage: got %v", err)
	}
}

func TestFormatFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{-11.025, "-11.025"},
		{0.5, "0.5"},
		{595.27559, "595.27559"},
	}
	for _, c := range cases {
		if got := formatFloat(c.in); got != c.want {
			t.Fatalf("formatFloat(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestContent_PaintPath(t *testing.T) {
	var c Content
	c.Rect(0, 0, 10, 10)
	c.PaintPath(true, PaintNonzero, PaintNone)
	c.PaintPath(false, PaintEvenOdd, PaintEvenOdd)
	out := string(c.Bytes())
	if !strings.Contains(out, "\nB\n") {
		t.Fatalf("missing B in %q", out)
	}
	if !strings.Contains(out, "W*\nf*\n") {
		t.Fatalf("missing W*/f* in %q", out)
	}
}
