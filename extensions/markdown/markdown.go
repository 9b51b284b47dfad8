// Package markdown generates document-language source from markdown
// text: headings and paragraphs become styled text columns laid out
// top to bottom, breaking onto new pages as they run out of room.
package markdown

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/scentlang/scent/errs"
)

// Options sets the page geometry in points. Zero values select A4 with
// one-inch margins and an 11pt body size.
type Options struct {
	PageWidth  float64
	PageHeight float64
	Margin     float64
	BodySize   float64
}

func (o *Options) defaults() {
	if o.PageWidth == 0 {
		o.PageWidth = 595.27559
	}
	if o.PageHeight == 0 {
		o.PageHeight = 841.88976
	}
	if o.Margin == 0 {
		o.Margin = 72
	}
	if o.BodySize == 0 {
		o.BodySize = 11
	}
}

type block struct {
	text    string
	heading int // 0 for body text
}

// Generate converts markdown into a complete scent source program.
func Generate(md []byte, opts Options) (string, error) {
	opts.defaults()
	blocks, err := parse(md)
	if err != nil {
		return "", err
	}
	if len(blocks) == 0 {
		return "", errs.Domain("markdown input has no renderable blocks")
	}
	return render(blocks, opts), nil
}

func parse(md []byte) ([]block, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(md))
	var blocks []block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch b := n.(type) {
		case *ast.Heading:
			t := inlineText(b, md)
			if t != "" {
				blocks = append(blocks, block{text: t, heading: b.Level})
			}
		case *ast.Paragraph, *ast.TextBlock:
			t := inlineText(n, md)
			if t != "" {
				blocks = append(blocks, block{text: t})
			}
		case *ast.List:
			for item := b.FirstChild(); item != nil; item = item.NextSibling() {
				t := inlineText(item, md)
				if t != "" {
					blocks = append(blocks, block{text: "- " + t})
				}
			}
		}
	}
	return blocks, nil
}

// inlineText flattens a block's inline children to plain text.
func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := node.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "{", `\{`, "}", `\}`)
	return r.Replace(s)
}

func sizeFor(heading int, body float64) float64 {
	switch heading {
	case 1:
		return body * 2
	case 2:
		return body * 1.5
	case 3:
		return body * 1.25
	case 0:
		return body
	}
	return body * 1.1
}

// wrap splits words greedily by an approximate glyph width of half the
// point size.
func wrap(s string, size, width float64) []string {
	maxChars := int(width / (size * 0.5))
	if maxChars < 8 {
		maxChars = 8
	}
	words := strings.Fields(s)
	var lines []string
	var cur strings.Builder
	for _, w := range words {
		if cur.Len() > 0 && cur.Len()+1+len(w) > maxChars {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

func num(f float64) string { return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.5f", f), "0"), ".") }

type placedLine struct {
	x, y float64
	text string
	bold bool
	size float64
}

func render(blocks []block, opts Options) string {
	var b strings.Builder
	b.WriteString("<< scent 1.0 >>\n")
	b.WriteString("\"Helvetica\" font_get $f_body\n")
	b.WriteString("\"Helvetica-Bold\" font_get $f_head\n")
	fmt.Fprintf(&b, "[ \"Width\" %s \"Height\" %s \"TrimBox\" [ \"Left\" %s \"Top\" %s \"Right\" %s \"Bottom\" %s ] dict ] dict ream $paper\n",
		num(opts.PageWidth), num(opts.PageHeight), num(opts.Margin/2), num(opts.Margin/2), num(opts.Margin/2), num(opts.Margin/2))

	usable := opts.PageWidth - 2*opts.Margin
	y := opts.PageHeight - opts.Margin
	var pages [][]placedLine
	var page []placedLine
	for _, blk := range blocks {
		size := sizeFor(blk.heading, opts.BodySize)
		leading := size * 1.35
		for _, line := range wrap(blk.text, size, usable) {
			if y-leading < opts.Margin {
				pages = append(pages, page)
				page = nil
				y = opts.PageHeight - opts.Margin
			}
			y -= leading
			page = append(page, placedLine{x: opts.Margin, y: y, text: line, bold: blk.heading > 0, size: size})
		}
		y -= opts.BodySize * 0.6 // block gap
	}
	if len(page) > 0 {
		pages = append(pages, page)
	}

	styles := make(map[string]bool)
	styleName := func(bold bool, size float64) string {
		name := fmt.Sprintf("st_%t_%s", bold, strings.ReplaceAll(num(size), ".", "_"))
		if !styles[name] {
			font := "f_body"
			if bold {
				font = "f_head"
			}
			fmt.Fprintf(&b, "start_style %s style_font %s style_size 0 gray style_fill finish_style $%s\n", font, num(size), name)
			styles[name] = true
		}
		return name
	}

	for _, pg := range pages {
		// styles must be declared before the column references them
		for _, ln := range pg {
			styleName(ln.bold, ln.size)
		}
		b.WriteString("paper begin_page\n")
		b.WriteString("start_column\n")
		for _, ln := range pg {
			fmt.Fprintf(&b, "%s %s start_line {%s} %s line_span finish_line\n",
				num(ln.x), num(ln.y), escape(ln.text), styleName(ln.bold, ln.size))
		}
		b.WriteString("finish_column null null draw_text\n")
		b.WriteString("end_page\n")
	}
	return b.String()
}
