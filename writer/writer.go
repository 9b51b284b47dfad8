// Package writer produces PDF files: a raw object model, per-page
// content streams, font and image resources, and the final
// cross-reference serialization. The assembly processor is its only
// in-tree client and feeds it pre-validated instructions.
package writer

import (
	"bytes"
	"compress/zlib"
	"crypto/md5"
	"fmt"
	"io"

	"github.com/scentlang/scent/errs"
	"github.com/scentlang/scent/fonts"
	"github.com/scentlang/scent/images"
	"github.com/scentlang/scent/observability"
)

// Config controls output production.
type Config struct {
	// Deterministic fixes the file ID so identical input yields
	// identical bytes.
	Deterministic bool
	// Compress flate-encodes page content streams.
	Compress bool
	// Producer overrides the Info producer string.
	Producer string
	Logger   observability.Logger
}

// BoxName selects a page boundary box entry.
type BoxName string

const (
	BoxArt   BoxName = "ArtBox"
	BoxTrim  BoxName = "TrimBox"
	BoxBleed BoxName = "BleedBox"
)

type fontRes struct {
	name     string
	baseFont string
	metrics  fonts.Metrics // nil for standard fonts
}

type imageRes struct {
	name   string
	handle *images.Handle
}

type page struct {
	width, height float64
	rotation      int
	boxes         map[BoxName][4]float64
	content       *Content
}

// Document accumulates pages and resources and writes the file once.
type Document struct {
	cfg      Config
	log      observability.Logger
	fonts    []fontRes
	images   []imageRes
	fontIdx  map[string]int
	imageIdx map[string]int
	pages    []*page
	current  *page
	finished bool
}

func NewDocument(cfg Config) *Document {
	log := cfg.Logger
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Document{
		cfg:      cfg,
		log:      log,
		fontIdx:  make(map[string]int),
		imageIdx: make(map[string]int),
	}
}

// AddStandardFont registers one of the 14 builtin fonts under name.
func (d *Document) AddStandardFont(name, baseFont string) error {
	if _, dup := d.fontIdx[name]; dup {
		return errs.NameErr("font resource %q already defined", name)
	}
	d.fontIdx[name] = len(d.fonts)
	d.fonts = append(d.fonts, fontRes{name: name, baseFont: baseFont})
	return nil
}

// AddFileFont registers a loaded TrueType font under name.
func (d *Document) AddFileFont(name string, m fonts.Metrics) error {
	if _, dup := d.fontIdx[name]; dup {
		return errs.NameErr("font resource %q already defined", name)
	}
	d.fontIdx[name] = len(d.fonts)
	d.fonts = append(d.fonts, fontRes{name: name, baseFont: m.PostScriptName(), metrics: m})
	return nil
}

// AddImage registers a loaded image under name.
func (d *Document) AddImage(name string, h *images.Handle) error {
	if _, dup := d.imageIdx[name]; dup {
		return errs.NameErr("image resource %q already defined", name)
	}
	d.imageIdx[name] = len(d.images)
	d.images = append(d.images, imageRes{name: name, handle: h})
	return nil
}

// HasFont and HasImage report resource-name registration.
func (d *Document) HasFont(name string) bool  { _, ok := d.fontIdx[name]; return ok }
func (d *Document) HasImage(name string) bool { _, ok := d.imageIdx[name]; return ok }

// BeginPage opens a page; its content writer stays valid until EndPage.
func (d *Document) BeginPage(width, height float64) (*Content, error) {
	if d.current != nil {
		return nil, errs.State("page already open")
	}
	d.current = &page{width: width, height: height, boxes: make(map[BoxName][4]float64), content: &Content{}}
	return d.current.content, nil
}

// SetBox defines a boundary box as llx, lly, urx, ury.
func (d *Document) SetBox(name BoxName, llx, lly, urx, ury float64) error {
	if d.current == nil {
		return errs.State("no open page")
	}
	d.current.boxes[name] = [4]float64{llx, lly, urx, ury}
	return nil
}

// SetRotation sets the page display rotation.
func (d *Document) SetRotation(deg int) error {
	if d.current == nil {
		return errs.State("no open page")
	}
	d.current.rotation = deg
	return nil
}

// EndPage closes the open page.
func (d *Document) EndPage() error {
	if d.current == nil {
		return errs.State("no open page")
	}
	d.pages = append(d.pages, d.current)
	d.current = nil
	d.log.Debug("page closed", observability.Int(observability.MetricPageCount, len(d.pages)))
	return nil
}

// PageCount reports closed pages.
func (d *Document) PageCount() int { return len(d.pages) }

// Finish serializes the document and invalidates it.
func (d *Document) Finish(w io.Writer) error {
	if d.finished {
		return errs.State("document already written")
	}
	if d.current != nil {
		return errs.State("page still open")
	}
	if len(d.pages) == 0 {
		return errs.State("document has no pages")
	}
	d.finished = true

	s := newSerializer()
	catalogRef := s.reserve()
	pagesRef := s.reserve()

	fontRefs := make([]ObjectRef, len(d.fonts))
	for i, f := range d.fonts {
		ref, err := d.buildFont(s, f)
		if err != nil {
			return err
		}
		fontRefs[i] = ref
	}
	imageRefs := make([]ObjectRef, len(d.images))
	for i, im := range d.images {
		ref, err := d.buildImage(s, im)
		if err != nil {
			return err
		}
		imageRefs[i] = ref
	}

	resources := Dict()
	if len(d.fonts) > 0 {
		fd := Dict()
		for i, f := range d.fonts {
			fd.Set(f.name, Ref(fontRefs[i]))
		}
		resources.Set("Font", fd)
	}
	if len(d.images) > 0 {
		xd := Dict()
		for i, im := range d.images {
			xd.Set(im.name, Ref(imageRefs[i]))
		}
		resources.Set("XObject", xd)
	}

	kids := Array()
	for _, p := range d.pages {
		contentRef := s.reserve()
		data := p.content.Bytes()
		sd := Dict()
		if d.cfg.Compress {
			var buf bytes.Buffer
			zw := zlib.NewWriter(&buf)
			if _, err := zw.Write(data); err != nil {
				return errs.Resource("compressing content: %v", err)
			}
			if err := zw.Close(); err != nil {
				return errs.Resource("compressing content: %v", err)
			}
			data = buf.Bytes()
			sd.Set("Filter", Name("FlateDecode"))
		}
		s.set(contentRef, Stream(sd, data))

		pd := Dict()
		pd.Set("Type", Name("Page"))
		pd.Set("Parent", Ref(pagesRef))
		pd.Set("MediaBox", FloatArray(0, 0, p.width, p.height))
		for box, v := range p.boxes {
			pd.Set(string(box), FloatArray(v[0], v[1], v[2], v[3]))
		}
		if p.rotation != 0 {
			pd.Set("Rotate", Int(int64(p.rotation)))
		}
		pd.Set("Resources", resources)
		pd.Set("Contents", Ref(contentRef))
		pageRef := s.add(pd)
		kids.Append(Ref(pageRef))
	}

	pagesDict := Dict()
	pagesDict.Set("Type", Name("Pages"))
	pagesDict.Set("Kids", kids)
	pagesDict.Set("Count", Int(int64(len(d.pages))))
	s.set(pagesRef, pagesDict)

	catalog := Dict()
	catalog.Set("Type", Name("Catalog"))
	catalog.Set("Pages", Ref(pagesRef))
	s.set(catalogRef, catalog)

	producer := d.cfg.Producer
	if producer == "" {
		producer = "scentc"
	}
	info := Dict()
	info.Set("Producer", Str([]byte(producer)))
	infoRef := s.add(info)

	n, err := s.writeFile(w, catalogRef, infoRef, d.cfg.Deterministic)
	if err != nil {
		return err
	}
	d.log.Info("document written",
		observability.Int(observability.MetricPageCount, len(d.pages)),
		observability.Int64(observability.MetricWriteBytes, n))
	return nil
}

func (d *Document) buildFont(s *serializer, f fontRes) (ObjectRef, error) {
	dict := Dict()
	dict.Set("Type", Name("Font"))
	if f.metrics == nil {
		dict.Set("Subtype", Name("Type1"))
		dict.Set("BaseFont", Name(f.baseFont))
		return s.add(dict), nil
	}

	m := f.metrics
	fileDict := Dict()
	fileDict.Set("Length1", Int(int64(len(m.Data()))))
	fileRef := s.add(Stream(fileDict, m.Data()))

	desc := Dict()
	desc.Set("Type", Name("FontDescriptor"))
	desc.Set("FontName", Name(f.baseFont))
	desc.Set("Flags", Int(32)) // nonsymbolic
	desc.Set("FontBBox", FloatArray(-1000, -500, 2000, 1500))
	desc.Set("ItalicAngle", Int(0))
	desc.Set("Ascent", Int(800))
	desc.Set("Descent", Int(-200))
	desc.Set("CapHeight", Int(700))
	desc.Set("StemV", Int(80))
	desc.Set("FontFile2", Ref(fileRef))
	descRef := s.add(desc)

	widths := Array()
	for code := 32; code <= 255; code++ {
		w, ok := m.AdvanceWidth(rune(code))
		if !ok {
			w = 0
		}
		widths.Append(Int(int64(w)))
	}

	dict.Set("Subtype", Name("TrueType"))
	dict.Set("BaseFont", Name(f.baseFont))
	dict.Set("FirstChar", Int(32))
	dict.Set("LastChar", Int(255))
	dict.Set("Widths", widths)
	dict.Set("Encoding", Name("WinAnsiEncoding"))
	dict.Set("FontDescriptor", Ref(descRef))
	return s.add(dict), nil
}

func (d *Document) buildImage(s *serializer, im imageRes) (ObjectRef, error) {
	h := im.handle
	cs, _ := h.SampleModel()
	dict := Dict()
	dict.Set("Type", Name("XObject"))
	dict.Set("Subtype", Name("Image"))
	dict.Set("Width", Int(int64(h.Width)))
	dict.Set("Height", Int(int64(h.Height)))
	dict.Set("ColorSpace", Name(cs))
	dict.Set("BitsPerComponent", Int(8))

	var data []byte
	switch {
	case len(h.Pixels) > 0:
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(h.Pixels); err != nil {
			return ObjectRef{}, errs.Resource("compressing image %s: %v", im.name, err)
		}
		if err := zw.Close(); err != nil {
			return ObjectRef{}, errs.Resource("compressing image %s: %v", im.name, err)
		}
		dict.Set("Filter", Name("FlateDecode"))
		data = buf.Bytes()
	default:
		dict.Set("Filter", Name("DCTDecode"))
		data = h.Raw
	}
	return s.add(Stream(dict, data)), nil
}

// serializer assigns object numbers and writes the xref layout.
type serializer struct {
	objects map[int]Object
	next    int
}

func newSerializer() *serializer {
	return &serializer{objects: make(map[int]Object), next: 1}
}

func (s *serializer) reserve() ObjectRef {
	ref := ObjectRef{Num: s.next}
	s.next++
	return ref
}

func (s *serializer) set(ref ObjectRef, obj Object) { s.objects[ref.Num] = obj }

func (s *serializer) add(obj Object) ObjectRef {
	ref := s.reserve()
	s.set(ref, obj)
	return ref
}

func (s *serializer) writeFile(w io.Writer, root, info ObjectRef, deterministic bool) (int64, error) {
	var out bytes.Buffer
	out.WriteString("%PDF-1.7\n%\xE2\xE3\xCF\xD3\n")

	offsets := make([]int, s.next)
	for num := 1; num < s.next; num++ {
		obj, ok := s.objects[num]
		if !ok {
			return 0, errs.State("object %d reserved but never defined", num)
		}
		offsets[num] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n", num)
		obj.writeTo(&out)
		out.WriteString("\nendobj\n")
	}

	xrefOff := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n", s.next)
	out.WriteString("0000000000 65535 f \n")
	for num := 1; num < s.next; num++ {
		fmt.Fprintf(&out, "%010d 00000 n \n", offsets[num])
	}

	var id [16]byte
	if deterministic {
		id = md5.Sum([]byte("scent"))
	} else {
		id = md5.Sum(out.Bytes())
	}
	trailer := Dict()
	trailer.Set("Size", Int(int64(s.next)))
	trailer.Set("Root", Ref(root))
	trailer.Set("Info", Ref(info))
	trailer.Set("ID", Array(hexString(id[:]), hexString(id[:])))

	out.WriteString("trailer\n")
	trailer.writeTo(&out)
	fmt.Fprintf(&out, "\nstartxref\n%d\n%%%%EOF\n", xrefOff)

	n, err := w.Write(out.Bytes())
	if err != nil {
		return int64(n), errs.Resource("writing output: %v", err)
	}
	return int64(n), nil
}

type hexStringObj struct{ b []byte }

func (h hexStringObj) writeTo(b *bytes.Buffer) {
	b.WriteByte('<')
	for _, c := range h.b {
		fmt.Fprintf(b, "%02X", c)
	}
	b.WriteByte('>')
}

func hexString(b []byte) Object { return hexStringObj{b: b} }
