package interp

import (
	"math"

	"github.com/scentlang/scent/errs"
	"github.com/scentlang/scent/value"
)

func translate(x, y float64) *value.Transform {
	return &value.Transform{M: [6]float64{1, 0, 0, 1, x, y}}
}

func rotate(deg float64) *value.Transform {
	rad := deg * math.Pi / 180
	s, c := math.Sin(rad), math.Cos(rad)
	return &value.Transform{M: [6]float64{c, s, -s, c, 0, 0}}
}

func scale(sx, sy float64) *value.Transform {
	return &value.Transform{M: [6]float64{sx, 0, 0, sy, 0, 0}}
}

func skew(ax, ay float64) *value.Transform {
	return &value.Transform{M: [6]float64{1, math.Tan(ay * math.Pi / 180), math.Tan(ax * math.Pi / 180), 1, 0, 0}}
}

// transformFromDict composes the dictionary form in the fixed order
// translate, rotate, scale, skew.
func transformFromDict(d value.Dict) (*value.Transform, error) {
	get := func(key value.Atom) (float64, bool, error) {
		v, ok := d[key]
		if !ok {
			return 0, false, nil
		}
		f, err := fixedFromValue(v)
		if err != nil {
			return 0, false, err
		}
		return f.Float(), true, nil
	}
	for key := range d {
		switch key {
		case "TranslateX", "TranslateY", "Rotate", "ScaleX", "ScaleY", "SkewX", "SkewY":
		default:
			return nil, errs.Domain("unknown transform key %q", string(key))
		}
	}
	acc := value.Identity()
	txx, okX, err := get("TranslateX")
	if err != nil {
		return nil, err
	}
	txy, okY, err := get("TranslateY")
	if err != nil {
		return nil, err
	}
	if okX || okY {
		acc = value.Concat(translate(txx, txy), acc)
	}
	rot, ok, err := get("Rotate")
	if err != nil {
		return nil, err
	}
	if ok {
		acc = value.Concat(rotate(rot), acc)
	}
	sx, okSX, err := get("ScaleX")
	if err != nil {
		return nil, err
	}
	sy, okSY, err := get("ScaleY")
	if err != nil {
		return nil, err
	}
	if okSX || okSY {
		if !okSX {
			sx = 1
		}
		if !okSY {
			sy = 1
		}
		if sx == 0 || sy == 0 {
			return nil, errs.Domain("scale factors must not be zero")
		}
		acc = value.Concat(scale(sx, sy), acc)
	}
	kx, okKX, err := get("SkewX")
	if err != nil {
		return nil, err
	}
	ky, okKY, err := get("SkewY")
	if err != nil {
		return nil, err
	}
	if okKX || okKY {
		acc = value.Concat(skew(kx, ky), acc)
	}
	return acc, nil
}

// invert returns the inverse affine map; clip components use it to
// localize their transform without a graphics-state restore.
func invert(t *value.Transform) (*value.Transform, error) {
	m := t.M
	det := m[0]*m[3] - m[1]*m[2]
	if math.Abs(det) < 1e-12 {
		return nil, errs.Domain("transform is not invertible")
	}
	ia := m[3] / det
	ib := -m[1] / det
	ic := -m[2] / det
	id := m[0] / det
	ie := -(m[4]*ia + m[5]*ic)
	iff := -(m[4]*ib + m[5]*id)
	return &value.Transform{M: [6]float64{ia, ib, ic, id, ie, iff}}, nil
}
