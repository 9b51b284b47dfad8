package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/scentlang/scent/errs"
	"github.com/scentlang/scent/value"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadPNG_Gray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 2))
	for i := range img.Pix {
		img.Pix[i] = byte(i * 31)
	}
	path := writeTemp(t, "gray.png", encodePNG(t, img))
	h, err := NewLoader().Load(path, value.ImagePNG)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h.Width != 4 || h.Height != 2 || h.Model != value.ModelGray {
		t.Fatalf("handle = %+v", h)
	}
	if len(h.Pixels) != 8 {
		t.Fatalf("pixels = %d bytes", len(h.Pixels))
	}
	cs, comps := h.SampleModel()
	if cs != "DeviceGray" || comps != 1 {
		t.Fatalf("sample model = %s/%d", cs, comps)
	}
}

func TestLoadPNG_Paletted(t *testing.T) {
	pal := color.Palette{color.RGBA{R: 255, A: 255}, color.RGBA{B: 255, A: 255}}
	img := image.NewPaletted(image.Rect(0, 0, 2, 2), pal)
	img.Pix = []byte{0, 1, 1, 0}
	path := writeTemp(t, "pal.png", encodePNG(t, img))
	h, err := NewLoader().Load(path, value.ImagePNG)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h.Model != value.ModelIndexed {
		t.Fatalf("model = %v", h.Model)
	}
	if len(h.Pixels) != 12 {
		t.Fatalf("pixels = %d bytes", len(h.Pixels))
	}
	if h.Pixels[0] != 255 || h.Pixels[1] != 0 || h.Pixels[2] != 0 {
		t.Fatalf("first pixel = %v", h.Pixels[:3])
	}
}

func TestLoadPNG_AlphaRejected(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	path := writeTemp(t, "alpha.png", encodePNG(t, img))
	_, err := NewLoader().Load(path, value.ImagePNG)
	if err == nil || errs.KindOf(err) != errs.KindDomain {
		t.Fatalf("expected domain error, got %v", err)
	}
}

func TestLoadJPEG(t *testing.T) {
	img := image.NewYCbCr(image.Rect(0, 0, 6, 4), image.YCbCrSubsampleRatio420)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	path := writeTemp(t, "pic.jpg", buf.Bytes())
	h, err := NewLoader().Load(path, value.ImageJPEG)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h.Width != 6 || h.Height != 4 || h.Model != value.ModelRGB {
		t.Fatalf("handle = %+v", h)
	}
	if len(h.Raw) == 0 {
		t.Fatal("raw stream not retained")
	}
}

func TestLoad_FormatMismatch(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 1, 1))
	path := writeTemp(t, "gray.png", encodePNG(t, img))
	_, err := NewLoader().Load(path, value.ImageJPEG)
	if err == nil || errs.KindOf(err) != errs.KindResource {
		t.Fatalf("expected resource error, got %v", err)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := NewLoader().Load("no/such/file.png", value.ImagePNG)
	if err == nil || errs.KindOf(err) != errs.KindResource {
		t.Fatalf("expected resource error, got %v", err)
	}
}
