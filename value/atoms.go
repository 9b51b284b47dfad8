package value

// The closed atom set. Double-quoted tokens scan to Atom values without
// membership checks; an operation consuming an atom outside this set
// raises a domain error at the use site.
var atoms = map[Atom]bool{}

func intern(names ...Atom) {
	for _, n := range names {
		atoms[n] = true
	}
}

func init() {
	// Boundary boxes, caps, joins, fill rules.
	intern("ArtBox", "TrimBox", "BleedBox")
	intern("Butt", "Round", "Square")
	intern("Miter", "Bevel") // Round shared with caps
	intern("Nonzero", "EvenOdd")
	// Resource formats.
	intern("JPEG", "PNG", "truetype")
	// Dictionary keys.
	intern("Width", "Height", "Rotate", "Left", "Top", "Right", "Bottom")
	intern("Color", "Cap", "Join", "MiterLimit", "Dash", "Phase")
	intern("Base", "HScale", "Oblique", "Boldness", "SmallCaps", "CharSpacing")
	intern("TranslateX", "TranslateY", "ScaleX", "ScaleY", "SkewX", "SkewY")
	// Builtin font names.
	intern("Courier", "Courier-Bold", "Courier-Oblique", "Courier-BoldOblique",
		"Helvetica", "Helvetica-Bold", "Helvetica-Oblique", "Helvetica-BoldOblique",
		"Times-Roman", "Times-Bold", "Times-Italic", "Times-BoldItalic",
		"Symbol", "ZapfDingbats")
}

// KnownAtom reports membership in the closed atom set.
func KnownAtom(a Atom) bool { return atoms[a] }
