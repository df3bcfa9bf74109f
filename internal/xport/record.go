package xport

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

const (
	recordLen    = 80
	headerPrefix = "HEADER RECORD*******"
	headerInfix  = "HEADER RECORD!!!!!!!"
)

// header is a parsed "HEADER RECORD" line: a record name plus six numeric fields.
type header struct {
	name string
	nums [6]int
}

func parseHeader(rec []byte) (header, error) {
	var h header
	if len(rec) != recordLen || string(rec[:20]) != headerPrefix || string(rec[28:48]) != headerInfix {
		return h, fmt.Errorf("%w: expected header record, got %q", ErrFormat, trimRecord(rec))
	}
	h.name = strings.TrimRight(string(rec[20:28]), " ")
	for i := range h.nums {
		field := strings.TrimSpace(string(rec[48+5*i : 53+5*i]))
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return h, fmt.Errorf("%w: bad numeric field %q in %s header", ErrFormat, field, h.name)
		}
		h.nums[i] = n
	}
	return h, nil
}

func headerRecord(name string, nums [6]int) []byte {
	var b strings.Builder
	b.WriteString(headerPrefix)
	b.WriteString(pad(name, 8))
	b.WriteString(headerInfix)
	for _, n := range nums {
		fmt.Fprintf(&b, "%05d", n)
	}
	b.WriteString("  ")
	return []byte(b.String())
}

// pad left-justifies s in a field of n bytes, truncating if needed.
func pad(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}

func putPadded(dst []byte, s string) {
	copy(dst, pad(s, len(dst)))
}

func trimField(b []byte) string {
	return string(bytes.TrimRight(b, " \x00"))
}

func trimRecord(rec []byte) string {
	if len(rec) > 28 {
		rec = rec[:28]
	}
	return string(rec)
}

func isBlank(b []byte) bool {
	for _, c := range b {
		if c != ' ' {
			return false
		}
	}
	return true
}

func roundUp(n, m int) int {
	if r := n % m; r != 0 {
		return n + m - r
	}
	return n
}
