package validate

import (
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	good := []string{"a", "_", "A1", "x_y_z", "abcdefghijklmnopqrstuvwxyz_0123"}
	for _, s := range good {
		if !Name(s) {
			t.Fatalf("Name(%q) = false, want true", s)
		}
	}
	bad := []string{"", "1a", "-x", "a-b", "a b", strings.Repeat("a", 32)}
	for _, s := range bad {
		if Name(s) {
			t.Fatalf("Name(%q) = true, want false", s)
		}
	}
}

func TestCMYK(t *testing.T) {
	if !CMYK("%00FF00FF") || !CMYK("%deadbeef") {
		t.Fatal("valid CMYK rejected")
	}
	for _, s := range []string{"", "%", "%0011223", "%001122334", "00112233", "%0011223G"} {
		if CMYK(s) {
			t.Fatalf("CMYK(%q) = true, want false", s)
		}
	}
}

func TestContentString(t *testing.T) {
	if !ContentString("Hello, world") || !ContentString("héllo é \U0001F600") {
		t.Fatal("valid content string rejected")
	}
	bad := []string{"", "a\x00b", "tab\tsep", "line\nbreak", "\x7F", "\xed\xa0\x80", "\xff"}
	for _, s := range bad {
		if ContentString(s) {
			t.Fatalf("ContentString(%q) = true, want false", s)
		}
	}
	if ContentString(strings.Repeat("x", MaxContentBytes+1)) {
		t.Fatal("overlong content string accepted")
	}
	if !ContentString(strings.Repeat("x", MaxContentBytes)) {
		t.Fatal("max-length content string rejected")
	}
}

func TestBuiltinFont(t *testing.T) {
	if !BuiltinFont("Helvetica-BoldOblique") || !BuiltinFont("ZapfDingbats") {
		t.Fatal("standard font rejected")
	}
	if BuiltinFont("helvetica") || BuiltinFont("Arial") {
		t.Fatal("non-standard font accepted")
	}
	if n := len(BuiltinFontNames()); n != 14 {
		t.Fatalf("expected 14 builtin fonts, got %d", n)
	}
}
