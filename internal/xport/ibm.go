package xport

import (
	"fmt"
	"math"
)

// ibmToFloat converts an 8-byte big-endian IBM System/360 hexadecimal
// float to an IEEE 754 double.
func ibmToFloat(b [8]byte) float64 {
	var mant uint64
	for _, c := range b[1:] {
		mant = mant<<8 | uint64(c)
	}
	if mant == 0 {
		return 0
	}
	exp := int(b[0]&0x7f) - 64
	v := math.Ldexp(float64(mant), 4*exp-56)
	if b[0]&0x80 != 0 {
		v = -v
	}
	return v
}

// floatToIBM converts an IEEE 754 double to IBM hexadecimal float.
// Values too small for the IBM range become zero; values too large are an error.
func floatToIBM(v float64) ([8]byte, error) {
	var b [8]byte
	if v == 0 {
		return b, nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return b, fmt.Errorf("%w: %v is not representable", ErrFormat, v)
	}

	var sign byte
	if v < 0 {
		sign = 0x80
		v = -v
	}

	// v = frac * 2^exp2 with frac in [0.5, 1); rewrite as m * 16^exp16 with m in [1/16, 1).
	frac, exp2 := math.Frexp(v)
	exp16 := (exp2 + 3) >> 2
	shift := 4*exp16 - exp2
	mant := uint64(math.Round(math.Ldexp(frac, 56-shift)))
	if mant >= 1<<56 {
		mant >>= 4
		exp16++
	}

	biased := exp16 + 64
	if biased > 127 {
		return b, fmt.Errorf("%w: %v exceeds the IBM float range", ErrFormat, v)
	}
	if biased < 0 {
		return b, nil
	}

	b[0] = sign | byte(biased)
	for i := 7; i >= 1; i-- {
		b[i] = byte(mant)
		mant >>= 8
	}
	return b, nil
}

// isMissingCode reports whether c marks a SAS missing value: ".", "._" or ".A" to ".Z".
func isMissingCode(c byte) bool {
	return c == '.' || c == '_' || (c >= 'A' && c <= 'Z')
}
