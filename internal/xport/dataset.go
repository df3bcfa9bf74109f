// Package xport reads and writes SAS transport (XPT) libraries.
//
// Both the version 5 layout (8-character names, 40-character labels) and the
// version 8 extension (32-character names, LABELV8/LABELV9 sections) are
// supported. Only the first member of a library is decoded.
package xport

import "errors"

// ErrFormat is returned for input that is not a well-formed transport file
// and for datasets that cannot be expressed in the requested version.
var ErrFormat = errors.New("xport: invalid transport file")

// Version selects the transport file layout.
type Version int

const (
	V5 Version = 5
	V8 Version = 8
)

// VarType is the SAS storage type of a variable.
type VarType int

const (
	Numeric VarType = 1
	Char    VarType = 2
)

func (t VarType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Char:
		return "char"
	default:
		return "unknown"
	}
}

// Variable describes one column of a dataset.
type Variable struct {
	Name   string
	Label  string
	Type   VarType
	Length int // bytes per value; numerics are 2-8, 0 means 8

	Format           string
	FormatLength     int
	FormatDecimals   int
	FormatJustify    int
	Informat         string
	InformatLength   int
	InformatDecimals int
}

// Value is one cell. Character cells use Str; numeric cells use Num, or
// Missing when the cell holds a SAS missing value.
type Value struct {
	Str     string
	Num     float64
	Missing byte // 0, or one of '.', '_', 'A'-'Z'
}

// Number returns a numeric value.
func Number(f float64) Value { return Value{Num: f} }

// String returns a character value.
func String(s string) Value { return Value{Str: s} }

// MissingValue returns a numeric missing value with the given code.
func MissingValue(code byte) Value { return Value{Missing: code} }

// IsMissing reports whether a numeric value is a SAS missing value.
func (v Value) IsMissing() bool { return v.Missing != 0 }

// Dataset is a decoded transport member.
type Dataset struct {
	Name  string
	Label string
	Type  string

	// Version is the layout the dataset was read from; zero for new datasets.
	Version    Version
	SASVersion string
	OS         string
	// Created and Modified hold the 16-character ddMMMyy:hh:mm:ss stamps.
	Created  string
	Modified string

	Variables []Variable
	Rows      [][]Value
}
