package xport

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// record names per layout version
type names struct {
	library, member, descriptor, namestr, obs string
}

var (
	v5Names = names{"LIBRARY", "MEMBER", "DSCRPTR", "NAMESTR", "OBS"}
	v8Names = names{"LIBV8", "MEMBV8", "DSCPTV8", "NAMSTV8", "OBSV8"}
)

func namesFor(v Version) names {
	if v == V8 {
		return v8Names
	}
	return v5Names
}

// ReadFile decodes the first member of the transport file at path.
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ds, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ds, nil
}

// Read decodes the first member of a transport file.
func Read(r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p := &parser{data: data}
	return p.parse()
}

type parser struct {
	data []byte
	pos  int
}

func (p *parser) record() ([]byte, error) {
	if p.pos+recordLen > len(p.data) {
		return nil, fmt.Errorf("%w: truncated at offset %d", ErrFormat, p.pos)
	}
	rec := p.data[p.pos : p.pos+recordLen]
	p.pos += recordLen
	return rec, nil
}

func (p *parser) header(want string) (header, error) {
	rec, err := p.record()
	if err != nil {
		return header{}, err
	}
	h, err := parseHeader(rec)
	if err != nil {
		return h, err
	}
	if want != "" && h.name != want {
		return h, fmt.Errorf("%w: expected %s header, got %s", ErrFormat, want, h.name)
	}
	return h, nil
}

func (p *parser) take(n int) ([]byte, error) {
	if n < 0 || p.pos+n > len(p.data) {
		return nil, fmt.Errorf("%w: truncated at offset %d", ErrFormat, p.pos)
	}
	b := p.data[p.pos : p.pos+n]
	p.pos += n
	return b, nil
}

func (p *parser) align() {
	p.pos = roundUp(p.pos, recordLen)
}

func (p *parser) parse() (*Dataset, error) {
	ds := &Dataset{}

	lib, err := p.header("")
	if err != nil {
		return nil, err
	}
	switch lib.name {
	case v5Names.library:
		ds.Version = V5
	case v8Names.library:
		ds.Version = V8
	default:
		return nil, fmt.Errorf("%w: unknown library header %s", ErrFormat, lib.name)
	}
	n := namesFor(ds.Version)

	libReal, err := p.record()
	if err != nil {
		return nil, err
	}
	if string(libReal[:8]) != "SAS     " {
		return nil, fmt.Errorf("%w: missing library real header", ErrFormat)
	}
	if _, err := p.record(); err != nil {
		return nil, err
	}

	mem, err := p.header(n.member)
	if err != nil {
		return nil, err
	}
	nsLen := mem.nums[5]
	if nsLen != 140 && nsLen != 136 {
		return nil, fmt.Errorf("%w: unsupported namestr length %d", ErrFormat, nsLen)
	}
	if _, err := p.header(n.descriptor); err != nil {
		return nil, err
	}

	if err := p.memberRecords(ds); err != nil {
		return nil, err
	}

	nh, err := p.header(n.namestr)
	if err != nil {
		return nil, err
	}
	count := nh.nums[1]
	raw, err := p.take(count * nsLen)
	if err != nil {
		return nil, err
	}
	ds.Variables = make([]Variable, count)
	positions := make([]int, count)
	for i := range ds.Variables {
		v, pos, err := parseNamestr(raw[i*nsLen:(i+1)*nsLen], ds.Version)
		if err != nil {
			return nil, fmt.Errorf("variable %d: %w", i+1, err)
		}
		ds.Variables[i] = v
		positions[i] = pos
	}
	p.align()

	for {
		h, err := p.header("")
		if err != nil {
			return nil, err
		}
		if h.name == n.obs {
			break
		}
		switch h.name {
		case "LABELV8":
			err = p.labels(ds.Variables, h.nums[0], false)
		case "LABELV9":
			err = p.labels(ds.Variables, h.nums[0], true)
		default:
			err = fmt.Errorf("%w: unexpected %s header", ErrFormat, h.name)
		}
		if err != nil {
			return nil, err
		}
	}

	rows, err := decodeRows(p.observations(), ds.Variables, positions)
	if err != nil {
		return nil, err
	}
	ds.Rows = rows
	return ds, nil
}

func (p *parser) memberRecords(ds *Dataset) error {
	first, err := p.record()
	if err != nil {
		return err
	}
	if ds.Version == V8 {
		ds.Name = trimField(first[8:40])
		ds.SASVersion = trimField(first[48:56])
		ds.OS = trimField(first[56:64])
	} else {
		ds.Name = trimField(first[8:16])
		ds.SASVersion = trimField(first[24:32])
		ds.OS = trimField(first[32:40])
	}
	ds.Created = string(first[64:80])

	second, err := p.record()
	if err != nil {
		return err
	}
	ds.Modified = string(second[:16])
	ds.Label = trimField(second[32:72])
	ds.Type = trimField(second[72:80])
	return nil
}

func parseNamestr(b []byte, version Version) (Variable, int, error) {
	short := func(off int) int { return int(int16(binary.BigEndian.Uint16(b[off:]))) }

	v := Variable{
		Type:             VarType(short(0)),
		Length:           short(4),
		Name:             trimField(b[8:16]),
		Label:            trimField(b[16:56]),
		Format:           trimField(b[56:64]),
		FormatLength:     short(64),
		FormatDecimals:   short(66),
		FormatJustify:    short(68),
		Informat:         trimField(b[72:80]),
		InformatLength:   short(80),
		InformatDecimals: short(82),
	}
	pos := int(int32(binary.BigEndian.Uint32(b[84:88])))

	if v.Type != Numeric && v.Type != Char {
		return v, 0, fmt.Errorf("%w: unknown variable type %d", ErrFormat, v.Type)
	}
	if v.Length <= 0 || pos < 0 {
		return v, 0, fmt.Errorf("%w: bad length %d or position %d", ErrFormat, v.Length, pos)
	}
	if version == V8 && len(b) >= 120 {
		if long := trimField(b[88:120]); long != "" {
			v.Name = long
		}
	}
	return v, pos, nil
}

// labels applies a LABELV8 or LABELV9 section to vars.
func (p *parser) labels(vars []Variable, count int, withFormats bool) error {
	short := func() (int, error) {
		b, err := p.take(2)
		if err != nil {
			return 0, err
		}
		return int(binary.BigEndian.Uint16(b)), nil
	}
	str := func(n int) (string, error) {
		b, err := p.take(n)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	for j := 0; j < count; j++ {
		nfields := 3
		if withFormats {
			nfields = 5
		}
		lens := make([]int, nfields)
		for i := range lens {
			n, err := short()
			if err != nil {
				return err
			}
			lens[i] = n
		}
		idx := lens[0] - 1
		if idx < 0 || idx >= len(vars) {
			return fmt.Errorf("%w: label for unknown variable %d", ErrFormat, lens[0])
		}

		vals := make([]string, nfields-1)
		for i := range vals {
			s, err := str(lens[i+1])
			if err != nil {
				return err
			}
			vals[i] = s
		}
		if vals[0] != "" {
			vars[idx].Name = vals[0]
		}
		vars[idx].Label = vals[1]
		if withFormats {
			if vals[2] != "" {
				vars[idx].Format = vals[2]
			}
			if vals[3] != "" {
				vars[idx].Informat = vals[3]
			}
		}
	}
	p.align()
	return nil
}

// observations returns the observation bytes of the first member.
func (p *parser) observations() []byte {
	rest := p.data[min(p.pos, len(p.data)):]
	marker := []byte(headerPrefix + "MEMB")
	for off := 0; off+recordLen <= len(rest); off += recordLen {
		if bytes.HasPrefix(rest[off:], marker) {
			return rest[:off]
		}
	}
	return rest
}

func decodeRows(data []byte, vars []Variable, positions []int) ([][]Value, error) {
	rowLen := 0
	for i, v := range vars {
		rowLen = max(rowLen, positions[i]+v.Length)
	}
	if rowLen == 0 {
		return nil, nil
	}

	n := len(data) / rowLen
	// Trailing blank rows that fit inside the final record's padding are not observations.
	for n > 0 {
		start := (n - 1) * rowLen
		if start <= len(data)-recordLen || !isBlank(data[start:start+rowLen]) {
			break
		}
		n--
	}

	rows := make([][]Value, n)
	for r := range rows {
		raw := data[r*rowLen : (r+1)*rowLen]
		row := make([]Value, len(vars))
		for i, v := range vars {
			cell := raw[positions[i] : positions[i]+v.Length]
			if v.Type == Char {
				row[i] = String(trimField(cell))
				continue
			}
			row[i] = decodeNumber(cell)
		}
		rows[r] = row
	}
	return rows, nil
}

func decodeNumber(cell []byte) Value {
	var buf [8]byte
	copy(buf[:], cell)
	if isMissingCode(buf[0]) {
		rest := true
		for _, c := range buf[1:] {
			if c != 0 {
				rest = false
				break
			}
		}
		if rest {
			return MissingValue(buf[0])
		}
	}
	return Number(ibmToFloat(buf))
}
