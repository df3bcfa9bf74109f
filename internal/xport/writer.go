package xport

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"
)

const (
	namestrLen = 140

	v5NameLen    = 8
	v8NameLen    = 32
	v5LabelLen   = 40
	v5MaxCharLen = 200
	v8MaxCharLen = 32767
)

// WriteFile encodes ds as a single-member transport file at path.
// Nothing is left at path when encoding fails.
func WriteFile(path string, ds *Dataset, version Version) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	w := bufio.NewWriter(f)
	if err := Write(w, ds, version); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type column struct {
	Variable
	pos int
}

// Write encodes ds as a single-member transport file in the given layout.
// Character lengths grow to fit the longest value.
func Write(w io.Writer, ds *Dataset, version Version) error {
	if version != V5 && version != V8 {
		return fmt.Errorf("%w: unsupported version %d", ErrFormat, version)
	}
	cols, rowLen, err := layout(ds, version)
	if err != nil {
		return err
	}

	n := namesFor(version)
	created := timestamp(ds.Created)
	modified := timestamp(ds.Modified)
	sasVersion := orDefault(ds.SASVersion, "9.4")
	osName := orDefault(ds.OS, "LINUX")

	var buf bytes.Buffer

	buf.Write(headerRecord(n.library, [6]int{}))
	buf.WriteString("SAS     SAS     SASLIB  " + pad(sasVersion, 8) + pad(osName, 8) + strings.Repeat(" ", 24) + created)
	buf.WriteString(pad(modified, 16) + strings.Repeat(" ", 64))

	buf.Write(headerRecord(n.member, [6]int{0, 0, 0, 160, 0, namestrLen}))
	buf.Write(headerRecord(n.descriptor, [6]int{}))
	name := orDefault(ds.Name, "DATASET")
	if version == V8 {
		buf.WriteString("SAS     " + pad(name, 32) + "SASDATA " + pad(sasVersion, 8) + pad(osName, 8) + created)
	} else {
		buf.WriteString("SAS     " + pad(name, 8) + "SASDATA " + pad(sasVersion, 8) + pad(osName, 8) + strings.Repeat(" ", 24) + created)
	}
	buf.WriteString(pad(modified, 16) + strings.Repeat(" ", 16) + pad(ds.Label, 40) + pad(orDefault(ds.Type, "DATA"), 8))

	buf.Write(headerRecord(n.namestr, [6]int{0, len(cols)}))
	for i, c := range cols {
		buf.Write(namestr(c, i+1, version))
	}
	padSection(&buf, ' ')

	if version == V8 {
		writeLongLabels(&buf, cols)
	}

	buf.Write(headerRecord(n.obs, [6]int{}))
	row := make([]byte, rowLen)
	for r, values := range ds.Rows {
		for i, c := range cols {
			cell := row[c.pos : c.pos+c.Length]
			if c.Type == Char {
				putPadded(cell, values[i].Str)
				continue
			}
			if err := encodeNumber(cell, values[i]); err != nil {
				return fmt.Errorf("row %d, %s: %w", r+1, c.Name, err)
			}
		}
		buf.Write(row)
	}
	padSection(&buf, ' ')

	_, err = w.Write(buf.Bytes())
	return err
}

func layout(ds *Dataset, version Version) ([]column, int, error) {
	nameLimit := v5NameLen
	if version == V8 {
		nameLimit = v8NameLen
	}

	cols := make([]column, len(ds.Variables))
	seen := make(map[string]bool, len(ds.Variables))
	pos := 0
	for i, v := range ds.Variables {
		if v.Name == "" {
			return nil, 0, fmt.Errorf("%w: variable %d has no name", ErrFormat, i+1)
		}
		if len(v.Name) > nameLimit {
			return nil, 0, fmt.Errorf("%w: name %q exceeds %d characters for version %d", ErrFormat, v.Name, nameLimit, version)
		}
		key := strings.ToUpper(v.Name)
		if seen[key] {
			return nil, 0, fmt.Errorf("%w: duplicate variable name %q", ErrFormat, v.Name)
		}
		seen[key] = true

		switch v.Type {
		case Numeric:
			if v.Length == 0 {
				v.Length = 8
			}
			if v.Length < 2 || v.Length > 8 {
				return nil, 0, fmt.Errorf("%w: numeric %s has length %d", ErrFormat, v.Name, v.Length)
			}
		case Char:
			v.Length = max(v.Length, 1)
			for _, row := range ds.Rows {
				if i < len(row) {
					v.Length = max(v.Length, len(row[i].Str))
				}
			}
			limit := v8MaxCharLen
			if version == V5 {
				limit = v5MaxCharLen
			}
			if v.Length > limit {
				return nil, 0, fmt.Errorf("%w: %s needs %d bytes, version %d allows %d", ErrFormat, v.Name, v.Length, version, limit)
			}
		default:
			return nil, 0, fmt.Errorf("%w: %s has unknown type %d", ErrFormat, v.Name, v.Type)
		}
		if version == V5 && len(v.Label) > v5LabelLen {
			v.Label = v.Label[:v5LabelLen]
		}

		cols[i] = column{Variable: v, pos: pos}
		pos += v.Length
	}

	for r, row := range ds.Rows {
		if len(row) != len(cols) {
			return nil, 0, fmt.Errorf("%w: row %d has %d values, want %d", ErrFormat, r+1, len(row), len(cols))
		}
	}
	return cols, pos, nil
}

func namestr(c column, varnum int, version Version) []byte {
	b := make([]byte, namestrLen)
	put := func(off, v int) { binary.BigEndian.PutUint16(b[off:], uint16(v)) }

	put(0, int(c.Type))
	put(4, c.Length)
	put(6, varnum)
	putPadded(b[8:16], c.Name)
	putPadded(b[16:56], c.Label)
	putPadded(b[56:64], c.Format)
	put(64, c.FormatLength)
	put(66, c.FormatDecimals)
	put(68, c.FormatJustify)
	putPadded(b[72:80], c.Informat)
	put(80, c.InformatLength)
	put(82, c.InformatDecimals)
	binary.BigEndian.PutUint32(b[84:], uint32(c.pos))

	if version == V8 {
		putPadded(b[88:120], c.Name)
		put(120, len(c.Label))
	}
	return b
}

// writeLongLabels emits a LABELV8 section for labels that overflow the namestr.
func writeLongLabels(buf *bytes.Buffer, cols []column) {
	var long []int
	for i, c := range cols {
		if len(c.Label) > v5LabelLen {
			long = append(long, i)
		}
	}
	if len(long) == 0 {
		return
	}

	buf.Write(headerRecord("LABELV8", [6]int{len(long)}))
	var entry [6]byte
	for _, i := range long {
		c := cols[i]
		binary.BigEndian.PutUint16(entry[0:], uint16(i+1))
		binary.BigEndian.PutUint16(entry[2:], uint16(len(c.Name)))
		binary.BigEndian.PutUint16(entry[4:], uint16(len(c.Label)))
		buf.Write(entry[:])
		buf.WriteString(c.Name)
		buf.WriteString(c.Label)
	}
	padSection(buf, ' ')
}

func encodeNumber(cell []byte, v Value) error {
	clear(cell)
	if v.Missing != 0 {
		if !isMissingCode(v.Missing) {
			return fmt.Errorf("%w: invalid missing code %q", ErrFormat, v.Missing)
		}
		cell[0] = v.Missing
		return nil
	}
	if math.IsNaN(v.Num) {
		cell[0] = '.'
		return nil
	}
	ibm, err := floatToIBM(v.Num)
	if err != nil {
		return err
	}
	copy(cell, ibm[:])
	return nil
}

func padSection(buf *bytes.Buffer, fill byte) {
	if r := buf.Len() % recordLen; r != 0 {
		buf.Write(bytes.Repeat([]byte{fill}, recordLen-r))
	}
}

func timestamp(s string) string {
	if len(s) == 16 {
		return s
	}
	return strings.ToUpper(time.Now().Format("02Jan06:15:04:05"))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
