// Package fixnum implements the fixed-point numeric core: signed
// decimals with exactly five fractional digits stored as scaled int64.
package fixnum

import (
	"math"
	"strconv"

	"github.com/scentlang/scent/errs"
)

// Scale is the number of stored units per integral unit.
const Scale = 100000

// Max and Min bound the encoded range (±32767.00000).
const (
	Max = 3276700000
	Min = -3276700000
)

// PromoteMax bounds integers eligible for integer→fixed promotion.
const PromoteMax = 32767

// Fixed is a fixed-point value encoded as value×100000.
type Fixed int64

// FromInt promotes an integer to fixed. Integers outside ±32767 are not
// promotable.
func FromInt(n int32) (Fixed, error) {
	if n < -PromoteMax || n > PromoteMax {
		return 0, errs.Type("integer %d out of fixed-point promotion range", n)
	}
	return Fixed(int64(n) * Scale), nil
}

// FromFloat converts a float, rounding to the nearest stored unit.
func FromFloat(f float64) (Fixed, error) {
	v := math.Round(f * Scale)
	if math.IsNaN(v) || v > Max || v < Min {
		return 0, errs.Domain("value %g out of fixed-point range", f)
	}
	return Fixed(v), nil
}

// Float converts to the nearest float64.
func (f Fixed) Float() float64 { return float64(f) / Scale }

// IsIntegral reports whether f has no fractional part.
func (f Fixed) IsIntegral() bool { return f%Scale == 0 }

// Valid reports whether f lies in the encodable range.
func (f Fixed) Valid() bool { return f >= Min && f <= Max }

// Parse reads a fixed-point literal: optional sign, at most five integral
// digits, optional point with at most five fractional digits, and at
// least one digit overall. Conversion is exact.
func Parse(s string) (Fixed, error) {
	i := 0
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	intStart := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	intDigits := i - intStart
	if intDigits > 5 {
		return 0, errs.Syntax("fixed-point literal %q: too many integral digits", s)
	}
	var whole int64
	for _, c := range s[intStart:i] {
		whole = whole*10 + int64(c-'0')
	}
	var frac int64
	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		i++
		fracStart := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		fracDigits = i - fracStart
		if fracDigits > 5 {
			return 0, errs.Syntax("fixed-point literal %q: too many fractional digits", s)
		}
		for _, c := range s[fracStart:i] {
			frac = frac*10 + int64(c-'0')
		}
		for d := fracDigits; d < 5; d++ {
			frac *= 10
		}
	}
	if i != len(s) || intDigits+fracDigits == 0 {
		return 0, errs.Syntax("invalid fixed-point literal %q", s)
	}
	v := whole*Scale + frac
	if neg {
		v = -v
	}
	f := Fixed(v)
	if !f.Valid() {
		return 0, errs.Domain("fixed-point literal %q out of range", s)
	}
	return f, nil
}

// Format produces the shortest decimal form: trailing fractional zeros
// stripped, the point dropped when the value is integral.
func (f Fixed) Format() string {
	v := int64(f)
	neg := v < 0
	if neg {
		v = -v
	}
	whole := v / Scale
	frac := v % Scale
	buf := make([]byte, 0, 16)
	if neg {
		buf = append(buf, '-')
	}
	buf = strconv.AppendInt(buf, whole, 10)
	if frac != 0 {
		digits := [5]byte{}
		for i := 4; i >= 0; i-- {
			digits[i] = byte('0' + frac%10)
			frac /= 10
		}
		end := 5
		for end > 0 && digits[end-1] == '0' {
			end--
		}
		buf = append(buf, '.')
		buf = append(buf, digits[:end]...)
	}
	return string(buf)
}

func (f Fixed) String() string { return f.Format() }

// Mul multiplies two fixed values, failing on range overflow.
func Mul(a, b Fixed) (Fixed, error) {
	v := (int64(a) * int64(b)) / Scale
	f := Fixed(v)
	if !f.Valid() {
		return 0, errs.Domain("fixed-point overflow in multiplication")
	}
	return f, nil
}

// MiterAngle computes the miter limit 1/sin(a/2) for an angle a in
// degrees, a ∈ [0.01, 180].
func MiterAngle(angle Fixed) (Fixed, error) {
	deg := angle.Float()
	if deg < 0.01 || deg > 180 {
		return 0, errs.Domain("miter angle %s out of range [0.01, 180]", angle)
	}
	limit := 1 / math.Sin(deg/2*math.Pi/180)
	return FromFloat(limit)
}
