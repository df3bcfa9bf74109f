// Package xmltree provides the XML handler, built on etree.
package xmltree

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"

	"github.com/mcdonaldj/docswap/internal/naming"
	"github.com/mcdonaldj/docswap/internal/ports"
)

// Compile-time interface check
var _ ports.Handler = (*Handler)(nil)

const declaration = `version="1.0" encoding="UTF-8"`

// ErrNoRoot is returned for documents without a root element.
var ErrNoRoot = errors.New("document has no root element")

// Handler rewrites element text, tails and attribute values of an XML document.
type Handler struct {
	suffix string
}

// New creates an XML handler writing outputs with the given modified suffix.
func New(suffix string) *Handler {
	return &Handler{suffix: suffix}
}

// Transform parses path, applies sub throughout the element tree and writes
// the document as UTF-8 to the modified sibling.
func (h *Handler) Transform(path string, sub ports.Substitution) (string, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromFile(path); err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}

	root := doc.Root()
	if root == nil {
		return "", fmt.Errorf("parsing %s: %w", path, ErrNoRoot)
	}
	replaceTree(root, sub)
	setDeclaration(doc)

	dst := naming.Modified(path, h.suffix)
	if err := doc.WriteToFile(dst); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("writing %s: %w", dst, err)
	}
	return dst, nil
}

// replaceTree visits e in document order: attributes, then every character
// data run and child element. Each run is rewritten in place, so text split by
// comments or processing instructions is handled run by run. Comments and
// processing instructions themselves are left alone.
func replaceTree(e *etree.Element, sub ports.Substitution) {
	for i := range e.Attr {
		a := &e.Attr[i]
		if isNamespaceDecl(a) {
			continue
		}
		a.Value = sub.Apply(a.Value)
	}
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			if sub.Matches(t.Data) {
				t.Data = sub.Apply(t.Data)
			}
		case *etree.Element:
			replaceTree(t, sub)
		}
	}
}

func isNamespaceDecl(a *etree.Attr) bool {
	return a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns")
}

// setDeclaration makes the document declare UTF-8, which is how it is written.
func setDeclaration(doc *etree.Document) {
	for _, tok := range doc.Child {
		pi, ok := tok.(*etree.ProcInst)
		if !ok || pi.Target != "xml" {
			continue
		}
		inst := declaration
		if i := strings.Index(pi.Inst, "standalone"); i >= 0 {
			inst += " " + pi.Inst[i:]
		}
		pi.Inst = inst
		return
	}
	doc.InsertChildAt(0, etree.NewProcInst("xml", declaration))
	doc.InsertChildAt(1, etree.NewCharData("\n"))
}
