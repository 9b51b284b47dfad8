package fonts

import (
	"os"
	"testing"

	"github.com/scentlang/scent/errs"
)

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func TestBuiltin(t *testing.T) {
	name, err := Builtin("Times-BoldItalic")
	if err != nil || name != "Times-BoldItalic" {
		t.Fatalf("Builtin: %q, %v", name, err)
	}
	if _, err := Builtin("Comic-Sans"); err == nil || errs.KindOf(err) != errs.KindDomain {
		t.Fatalf("unknown builtin: got %v", err)
	}
}

func TestLoadTrueType_MissingFile(t *testing.T) {
	_, err := NewLoader().LoadTrueType("does/not/exist.ttf")
	if err == nil || errs.KindOf(err) != errs.KindResource {
		t.Fatalf("expected resource error, got %v", err)
	}
}

func TestLoadTrueType_GarbageFile(t *testing.T) {
	path := t.TempDir() + "/junk.ttf"
	if err := writeFile(path, []byte("not a font")); err != nil {
		t.Fatal(err)
	}
	_, err := NewLoader().LoadTrueType(path)
	if err == nil || errs.KindOf(err) != errs.KindResource {
		t.Fatalf("expected resource error, got %v", err)
	}
}
