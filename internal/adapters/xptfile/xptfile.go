// Package xptfile provides the SAS transport (XPT) handler.
package xptfile

import (
	"fmt"

	"github.com/mcdonaldj/docswap/internal/naming"
	"github.com/mcdonaldj/docswap/internal/ports"
	"github.com/mcdonaldj/docswap/internal/xport"
)

// Compile-time interface check
var _ ports.Handler = (*Handler)(nil)

// Handler rewrites the character values of a transport dataset.
type Handler struct {
	suffix  string
	version xport.Version
}

// New creates an XPT handler writing transport files of the given version.
func New(suffix string, version xport.Version) *Handler {
	return &Handler{suffix: suffix, version: version}
}

// Transform decodes the first dataset in path, applies sub to its character
// values and encodes it to the modified sibling. Numeric values, including
// missing codes, are copied as they are.
func (h *Handler) Transform(path string, sub ports.Substitution) (string, error) {
	ds, err := xport.ReadFile(path)
	if err != nil {
		return "", err
	}

	for _, row := range ds.Rows {
		for i, v := range ds.Variables {
			if v.Type == xport.Char {
				row[i].Str = sub.Apply(row[i].Str)
			}
		}
	}

	dst := naming.Modified(path, h.suffix)
	if err := xport.WriteFile(dst, ds, h.version); err != nil {
		return "", fmt.Errorf("encoding %s: %w", path, err)
	}
	return dst, nil
}
