// Package images provides the raster loading service. Headers are
// validated against the accepted profile (dimensions, colour model, no
// alpha, no interlacing, at most 8 bits per sample) before any pixel
// work happens.
package images

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/scentlang/scent/errs"
	"github.com/scentlang/scent/value"
)

// MaxDimension bounds width and height.
const MaxDimension = 16384

// Handle is the opaque image resource the compiler carries around.
type Handle struct {
	Format value.ImageFormat
	Width  int
	Height int
	Model  value.ImageColorModel
	Bits   int
	// Raw is the original file for JPEG passthrough embedding.
	Raw []byte
	// Pixels holds decoded samples for PNG embedding: one byte per
	// gray sample or three bytes per RGB pixel, row-major.
	Pixels []byte
}

// Loader resolves image files into validated handles.
type Loader interface {
	Load(path string, format value.ImageFormat) (*Handle, error)
}

type fileLoader struct{}

// NewLoader returns the standard disk-backed loader.
func NewLoader() Loader { return fileLoader{} }

func (fileLoader) Load(path string, format value.ImageFormat) (*Handle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Resource("image %s: %v", path, err)
	}
	switch format {
	case value.ImageJPEG:
		return loadJPEG(path, data)
	case value.ImagePNG:
		return loadPNG(path, data)
	}
	return nil, errs.Domain("unsupported image format")
}

func checkDims(path string, w, h int) error {
	if w <= 0 || h <= 0 || w > MaxDimension || h > MaxDimension {
		return errs.Domain("image %s: dimensions %dx%d outside (0, %d]", path, w, h, MaxDimension)
	}
	return nil
}

// loadJPEG scans the marker stream for the frame header: baseline or
// extended sequential only, 8-bit, 1 or 3 components.
func loadJPEG(path string, data []byte) (*Handle, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, errs.Resource("image %s: not a JPEG stream", path)
	}
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return nil, errs.Resource("image %s: corrupt JPEG marker stream", path)
		}
		marker := data[i+1]
		if marker == 0xD8 || (marker >= 0xD0 && marker <= 0xD7) {
			i += 2
			continue
		}
		length := int(binary.BigEndian.Uint16(data[i+2:]))
		if marker >= 0xC0 && marker <= 0xCF && marker != 0xC4 && marker != 0xC8 && marker != 0xCC {
			if marker == 0xC2 {
				return nil, errs.Domain("image %s: progressive JPEG not accepted", path)
			}
			if marker != 0xC0 && marker != 0xC1 {
				return nil, errs.Domain("image %s: unsupported JPEG coding process", path)
			}
			if i+2+length > len(data) || length < 8 {
				return nil, errs.Resource("image %s: truncated JPEG frame header", path)
			}
			precision := int(data[i+4])
			height := int(binary.BigEndian.Uint16(data[i+5:]))
			width := int(binary.BigEndian.Uint16(data[i+7:]))
			components := int(data[i+9])
			if precision != 8 {
				return nil, errs.Domain("image %s: %d bits per sample not accepted", path, precision)
			}
			if err := checkDims(path, width, height); err != nil {
				return nil, err
			}
			var model value.ImageColorModel
			switch components {
			case 1:
				model = value.ModelGray
			case 3:
				model = value.ModelRGB
			default:
				return nil, errs.Domain("image %s: %d-component JPEG not accepted", path, components)
			}
			// Confirm the stream actually decodes before accepting it.
			if _, err := jpeg.DecodeConfig(bytes.NewReader(data)); err != nil {
				return nil, errs.Resource("image %s: %v", path, err)
			}
			return &Handle{Format: value.ImageJPEG, Width: width, Height: height, Model: model, Bits: 8, Raw: data}, nil
		}
		i += 2 + length
	}
	return nil, errs.Resource("image %s: no JPEG frame header", path)
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

// loadPNG reads the IHDR directly for profile validation and then
// decodes the pixels for later embedding.
func loadPNG(path string, data []byte) (*Handle, error) {
	if len(data) < 33 || !bytes.Equal(data[:8], pngSignature) || !bytes.Equal(data[12:16], []byte("IHDR")) {
		return nil, errs.Resource("image %s: not a PNG stream", path)
	}
	width := int(binary.BigEndian.Uint32(data[16:]))
	height := int(binary.BigEndian.Uint32(data[20:]))
	bitDepth := int(data[24])
	colorType := data[25]
	interlace := data[28]
	if err := checkDims(path, width, height); err != nil {
		return nil, err
	}
	if interlace != 0 {
		return nil, errs.Domain("image %s: interlaced PNG not accepted", path)
	}
	if bitDepth > 8 {
		return nil, errs.Domain("image %s: %d bits per sample not accepted", path, bitDepth)
	}
	var model value.ImageColorModel
	switch colorType {
	case 0:
		model = value.ModelGray
	case 2:
		model = value.ModelRGB
	case 3:
		model = value.ModelIndexed
	default:
		return nil, errs.Domain("image %s: PNG colour type %d carries alpha", path, colorType)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Resource("image %s: %v", path, err)
	}
	h := &Handle{Format: value.ImagePNG, Width: width, Height: height, Model: model, Bits: 8, Raw: data}
	h.Pixels = flattenPixels(img, model)
	return h, nil
}

// flattenPixels extracts 8-bit samples: gray bytes for the gray model,
// RGB triplets otherwise (palettes are expanded).
func flattenPixels(img image.Image, model value.ImageColorModel) []byte {
	b := img.Bounds()
	if model == value.ModelGray {
		out := make([]byte, 0, b.Dx()*b.Dy())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, _, _, _ := img.At(x, y).RGBA()
				out = append(out, byte(r>>8))
			}
		}
		return out
	}
	out := make([]byte, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			out = append(out, byte(r>>8), byte(g>>8), byte(bl>>8))
		}
	}
	return out
}

// SampleModel reports the PDF colour space name and component count for
// the handle's embedding form.
func (h *Handle) SampleModel() (string, int) {
	if h.Model == value.ModelGray {
		return "DeviceGray", 1
	}
	return "DeviceRGB", 3
}
