package xmltree

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/antchfx/xmlquery"

	"github.com/mcdonaldj/docswap/internal/ports"
)

const sample = `<?xml version="1.0"?>
<study xmlns:cd="http://www.cdisc.org/ns/odm/v1.3" id="CDISC-01">
  <title lang="en">CDISC pilot</title>
  <cd:item name="CDISC.AGE">value</cd:item> CDISC tail
  <empty/>
</study>
`

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func parse(t *testing.T, path string) *xmlquery.Node {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	doc, err := xmlquery.Parse(f)
	if err != nil {
		t.Fatalf("failed to parse %s: %v", path, err)
	}
	return doc
}

// shape renders tag names, attribute keys and nesting, ignoring text.
func shape(n *xmlquery.Node) string {
	var b strings.Builder
	var walk func(*xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		if n.Type == xmlquery.ElementNode {
			keys := make([]string, 0, len(n.Attr))
			for _, a := range n.Attr {
				keys = append(keys, a.Name.Space+":"+a.Name.Local)
			}
			sort.Strings(keys)
			b.WriteString("<" + n.Prefix + ":" + n.Data + " " + strings.Join(keys, ",") + ">")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == xmlquery.ElementNode {
			b.WriteString("</>")
		}
	}
	walk(n)
	return b.String()
}

func TestTransformReplacesTextTailAndAttributes(t *testing.T) {
	src := writeFile(t, "odm.xml", []byte(sample))

	out, err := New("_modified").Transform(src, ports.Substitution{Old: "CDISC", New: "CSIDC"})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if want := filepath.Join(filepath.Dir(src), "odm_modified.xml"); out != want {
		t.Errorf("output = %q, expected %q", out, want)
	}

	doc := parse(t, out)
	root := xmlquery.FindOne(doc, "/study")
	if got := root.SelectAttr("id"); got != "CSIDC-01" {
		t.Errorf("id = %q, expected CSIDC-01", got)
	}
	if got := xmlquery.FindOne(doc, "//title").InnerText(); got != "CSIDC pilot" {
		t.Errorf("title = %q, expected %q", got, "CSIDC pilot")
	}
	item := xmlquery.FindOne(doc, "//*[local-name()='item']")
	if got := item.SelectAttr("name"); got != "CSIDC.AGE" {
		t.Errorf("item name = %q, expected CSIDC.AGE", got)
	}
	if got := root.InnerText(); strings.Contains(got, "CDISC") {
		t.Errorf("text still contains old value: %q", got)
	}

	if got, want := shape(doc), shape(parse(t, src)); got != want {
		t.Errorf("shape = %s, expected %s", got, want)
	}
}

func TestTransformKeepsNamespaceDeclarations(t *testing.T) {
	src := writeFile(t, "ns.xml", []byte(`<a xmlns="urn:old" xmlns:p="urn:old:p"><p:b>old</p:b></a>`))

	out, err := New("_modified").Transform(src, ports.Substitution{Old: "old", New: "new"})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	data, _ := os.ReadFile(out)
	text := string(data)
	if !strings.Contains(text, `xmlns="urn:old"`) || !strings.Contains(text, `xmlns:p="urn:old:p"`) {
		t.Errorf("namespace declarations changed: %s", text)
	}
	if !strings.Contains(text, "<p:b>new</p:b>") {
		t.Errorf("element text not replaced: %s", text)
	}
}

func TestTransformWritesUTF8Declaration(t *testing.T) {
	// "café" in ISO-8859-1
	content := append([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?>`+"\n<menu>caf"), 0xE9, '<', '/', 'm', 'e', 'n', 'u', '>')
	src := writeFile(t, "latin1.xml", content)

	out, err := New("_modified").Transform(src, ports.Substitution{Old: "caf", New: "bistro caf"})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	data, _ := os.ReadFile(out)
	text := string(data)
	if !strings.HasPrefix(text, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Errorf("declaration = %q", strings.SplitN(text, "\n", 2)[0])
	}
	if !strings.Contains(text, "<menu>bistro café</menu>") {
		t.Errorf("body = %q", text)
	}
}

func TestTransformAddsMissingDeclaration(t *testing.T) {
	src := writeFile(t, "bare.xml", []byte(`<a>x</a>`))

	out, err := New("_modified").Transform(src, ports.Substitution{Old: "y", New: "z"})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	data, _ := os.ReadFile(out)
	if !strings.HasPrefix(string(data), `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Errorf("output = %q, expected UTF-8 declaration", data)
	}
}

func TestTransformIsIdempotent(t *testing.T) {
	src := writeFile(t, "odm.xml", []byte(sample))
	sub := ports.Substitution{Old: "CDISC", New: "CSIDC"}

	first, err := New("_modified").Transform(src, sub)
	if err != nil {
		t.Fatalf("first Transform failed: %v", err)
	}
	second, err := New("_again").Transform(first, sub)
	if err != nil {
		t.Fatalf("second Transform failed: %v", err)
	}

	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	if string(a) != string(b) {
		t.Errorf("second run differs:\n%s\nexpected:\n%s", b, a)
	}
}

func TestTransformErrors(t *testing.T) {
	malformed := writeFile(t, "bad.xml", []byte(`<a><b></a>`))
	if _, err := New("_modified").Transform(malformed, ports.Substitution{Old: "a"}); err == nil {
		t.Error("expected error for malformed XML")
	}

	empty := writeFile(t, "empty.xml", []byte(`<?xml version="1.0"?>`))
	_, err := New("_modified").Transform(empty, ports.Substitution{Old: "a"})
	if !errors.Is(err, ErrNoRoot) {
		t.Errorf("error = %v, expected ErrNoRoot", err)
	}
}

func TestTransformTextAroundCommentsAndInstructions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"comment splits text",
			`<r>a CDISC<!-- note -->b CDISC<c/>tail CDISC</r>`,
			`<r>a CSIDC<!-- note -->b CSIDC<c/>tail CSIDC</r>`,
		},
		{
			"processing instruction splits text",
			`<r>x<?pi data?>CDISC y</r>`,
			`<r>x<?pi data?>CSIDC y</r>`,
		},
		{
			"comment text untouched",
			`<r><!-- CDISC -->CDISC</r>`,
			`<r><!-- CDISC -->CSIDC</r>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := writeFile(t, "in.xml", []byte(tt.in))

			out, err := New("_modified").Transform(src, ports.Substitution{Old: "CDISC", New: "CSIDC"})
			if err != nil {
				t.Fatalf("Transform failed: %v", err)
			}

			data, _ := os.ReadFile(out)
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("output = %q, expected to contain %q", data, tt.want)
			}
			if strings.Count(string(data), "b ") > 1 {
				t.Errorf("output = %q, text was duplicated", data)
			}
		})
	}
}
