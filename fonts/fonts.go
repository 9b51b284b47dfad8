// Package fonts provides the font loading service: metrics for the 14
// builtin fonts and TrueType files loaded from disk.
package fonts

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/math/fixed"

	"github.com/scentlang/scent/errs"
	"github.com/scentlang/scent/validate"
)

// Metrics is the opaque handle the compiler holds for a loaded font
// file: scaling, glyph coverage, advances, and kerning.
type Metrics interface {
	UnitsPerEm() int
	PostScriptName() string
	GlyphIndex(r rune) (uint16, bool)
	// AdvanceWidth returns the horizontal advance for r in thousandths
	// of an em.
	AdvanceWidth(r rune) (int, bool)
	// Kerning returns the kerning adjustment between two runes in
	// thousandths of an em.
	Kerning(a, b rune) int
	// Data is the raw font program, suitable for embedding.
	Data() []byte
}

// Loader resolves font files into metrics handles.
type Loader interface {
	LoadTrueType(path string) (Metrics, error)
}

type fileLoader struct{}

// NewLoader returns the standard disk-backed loader.
func NewLoader() Loader { return fileLoader{} }

func (fileLoader) LoadTrueType(path string) (Metrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Resource("font %s: %v", path, err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, errs.Resource("font %s: %v", path, err)
	}
	m := &ttMetrics{font: f, data: data, upem: int(f.FUnitsPerEm())}
	m.name = f.Name(truetype.NameIDPostscriptName)
	if m.name == "" {
		m.name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m, nil
}

type ttMetrics struct {
	font *truetype.Font
	data []byte
	upem int
	name string
}

func (m *ttMetrics) UnitsPerEm() int        { return m.upem }
func (m *ttMetrics) PostScriptName() string { return m.name }
func (m *ttMetrics) Data() []byte           { return m.data }

func (m *ttMetrics) GlyphIndex(r rune) (uint16, bool) {
	idx := m.font.Index(r)
	return uint16(idx), idx != 0
}

// fontScale passes the upem as the freetype scale so metric results come
// back in raw font units.
func (m *ttMetrics) fontScale() fixed.Int26_6 { return fixed.Int26_6(m.upem) }

func (m *ttMetrics) AdvanceWidth(r rune) (int, bool) {
	idx := m.font.Index(r)
	if idx == 0 {
		return 0, false
	}
	h := m.font.HMetric(m.fontScale(), idx)
	return int(h.AdvanceWidth) * 1000 / m.upem, true
}

func (m *ttMetrics) Kerning(a, b rune) int {
	i0 := m.font.Index(a)
	i1 := m.font.Index(b)
	if i0 == 0 || i1 == 0 {
		return 0
	}
	return int(m.font.Kern(m.fontScale(), i0, i1)) * 1000 / m.upem
}

// Builtin checks that name is a standard-14 font and returns it unchanged.
func Builtin(name string) (string, error) {
	if !validate.BuiltinFont(name) {
		return "", errs.Domain("unknown builtin font %q", name)
	}
	return name, nil
}
