package quakeml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// element is a small document tree node. Names are bare local names in the
// document's default namespace unless Prefix is set; attribute names may carry
// a namespace URI in Name.Space which is mapped back to its declared prefix at
// encode time.
type element struct {
	Prefix   string
	Name     string
	Attr     []xml.Attr
	Text     string
	Children []*element
}

func newElement(name string, attrs ...xml.Attr) *element {
	return &element{Name: name, Attr: attrs}
}

func (e *element) append(child *element) *element {
	e.Children = append(e.Children, child)
	return child
}

// merge adds attrs to e, replacing any attribute with the same qualified name.
func (e *element) merge(attrs []xml.Attr) {
	for _, a := range attrs {
		replaced := false
		for i := range e.Attr {
			if e.Attr[i].Name == a.Name {
				e.Attr[i].Value = a.Value
				replaced = true
				break
			}
		}
		if !replaced {
			e.Attr = append(e.Attr, a)
		}
	}
}

// encoder writes an element tree with explicit prefixes. encoding/xml picks
// its own prefixes for namespaced names, so qualified names are spelled out
// here and handed to the token encoder as plain local names.
type encoder struct {
	prefixOf map[string]string // namespace URI -> prefix
}

func newEncoder(decl map[string]string) *encoder {
	enc := &encoder{prefixOf: map[string]string{}}
	// Sorted so two prefixes bound to one URI always resolve the same way.
	for _, p := range sortedKeys(decl) {
		if _, seen := enc.prefixOf[decl[p]]; !seen {
			enc.prefixOf[decl[p]] = p
		}
	}
	return enc
}

func (enc *encoder) attrName(n xml.Name) (string, error) {
	if n.Space == "" {
		return n.Local, nil
	}
	p, ok := enc.prefixOf[n.Space]
	if !ok {
		return "", fmt.Errorf("%w: namespace %q has no declared prefix", ErrConfiguration, n.Space)
	}
	return p + ":" + n.Local, nil
}

func (enc *encoder) encode(x *xml.Encoder, e *element) error {
	name := e.Name
	if e.Prefix != "" {
		name = e.Prefix + ":" + e.Name
	}
	start := xml.StartElement{Name: xml.Name{Local: name}}
	for _, a := range e.Attr {
		an, err := enc.attrName(a.Name)
		if err != nil {
			return err
		}
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: an}, Value: sanitize(a.Value)})
	}
	if err := x.EncodeToken(start); err != nil {
		return err
	}
	if e.Text != "" {
		if err := x.EncodeToken(xml.CharData(sanitize(e.Text))); err != nil {
			return err
		}
	}
	for _, c := range e.Children {
		if err := enc.encode(x, c); err != nil {
			return err
		}
	}
	return x.EncodeToken(start.End())
}

// render serializes root with an XML declaration. Namespace declarations are
// emitted on root, default namespace first and prefixes in sorted order.
func render(root *element, defaultNS string, decl map[string]string, pretty bool) ([]byte, error) {
	nsAttrs := []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: defaultNS}}
	for _, p := range sortedKeys(decl) {
		nsAttrs = append(nsAttrs, xml.Attr{Name: xml.Name{Local: "xmlns:" + p}, Value: decl[p]})
	}
	top := *root
	top.Attr = append(nsAttrs, root.Attr...)

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	x := xml.NewEncoder(&buf)
	if pretty {
		x.Indent("", "  ")
	}
	if err := newEncoder(decl).encode(x, &top); err != nil {
		return nil, err
	}
	if err := x.Flush(); err != nil {
		return nil, err
	}
	if pretty {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// xmlIllegal matches the C0 controls XML 1.0 does not allow in content.
var xmlIllegal = runes.Predicate(func(r rune) bool {
	return r < 0x20 && r != '\t' && r != '\n' && r != '\r'
})

// sanitize NFC-normalizes s and strips characters XML 1.0 cannot carry.
func sanitize(s string) string {
	if isPlainASCII(s) {
		return s
	}
	out, _, err := transform.String(transform.Chain(runes.Remove(xmlIllegal), norm.NFC), s)
	if err != nil {
		return s
	}
	return out
}

func isPlainASCII(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return xmlIllegal.Contains(r) || r > unicode.MaxASCII }) < 0
}
