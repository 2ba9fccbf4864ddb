package quakeml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrConfiguration reports bad namespace or attribute wiring.
var ErrConfiguration = errors.New("quakeml: configuration error")

// Well-known namespaces.
const (
	BEDNamespace     = "http://quakeml.org/xmlns/bed/1.2"
	QuakeMLNamespace = "http://quakeml.org/xmlns/quakeml/1.2"
	ANSSNamespace    = "http://anss.org/xmlns/catalog/0.1"

	// RootPrefix is the prefix of the document root element.
	RootPrefix = "q"
)

// UnmappedPolicy decides what happens to a bag attribute whose name is not
// owned by any prefix.
type UnmappedPolicy int

const (
	// UnmappedBare keeps the attribute without a namespace.
	UnmappedBare UnmappedPolicy = iota
	// UnmappedDrop silently omits the attribute.
	UnmappedDrop
	// UnmappedStrict fails with ErrConfiguration.
	UnmappedStrict
)

// String returns the config spelling of p.
func (p UnmappedPolicy) String() string {
	switch p {
	case UnmappedBare:
		return "bare"
	case UnmappedDrop:
		return "drop"
	case UnmappedStrict:
		return "strict"
	default:
		return fmt.Sprintf("UnmappedPolicy(%d)", int(p))
	}
}

// ParseUnmappedPolicy maps "bare", "drop" and "strict" to a policy. The empty
// string selects UnmappedBare.
func ParseUnmappedPolicy(s string) (UnmappedPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bare":
		return UnmappedBare, nil
	case "drop":
		return UnmappedDrop, nil
	case "strict":
		return UnmappedStrict, nil
	}
	return 0, fmt.Errorf("%w: unknown unmapped policy %q", ErrConfiguration, s)
}

// Namespaces is the namespace configuration of a document.
type Namespaces struct {
	// Default is the unprefixed namespace of the document body.
	Default string
	// Map binds short prefixes to namespace URIs.
	Map map[string]string
	// Attributes lists, per prefix, the bare attribute names it owns.
	Attributes map[string][]string
}

// DefaultNamespaces returns plain QuakeML: BED as the default namespace and
// the root prefix bound to the QuakeML namespace.
func DefaultNamespaces() Namespaces {
	return Namespaces{
		Default: BEDNamespace,
		Map:     map[string]string{RootPrefix: QuakeMLNamespace},
	}
}

// ANSSNamespaces returns the configuration used for ANSS catalog reporting:
// the "catalog" prefix owns datasource, dataid, eventsource and eventid.
func ANSSNamespaces() Namespaces {
	ns := DefaultNamespaces()
	ns.Map["catalog"] = ANSSNamespace
	ns.Attributes = map[string][]string{
		"catalog": {"datasource", "dataid", "eventsource", "eventid"},
	}
	return ns
}

// declarations returns the effective prefix map with the root prefix filled
// in when the caller did not bind it.
func (n Namespaces) declarations() map[string]string {
	out := make(map[string]string, len(n.Map)+1)
	out[RootPrefix] = QuakeMLNamespace
	for p, uri := range n.Map {
		out[p] = uri
	}
	return out
}

// Validate checks the configuration before any element is built.
func (n Namespaces) Validate() error {
	if err := checkURI(n.Default); err != nil {
		return fmt.Errorf("%w: default namespace: %v", ErrConfiguration, err)
	}
	for p, uri := range n.Map {
		if !isNCName(p) {
			return fmt.Errorf("%w: prefix %q is not a valid XML name", ErrConfiguration, p)
		}
		if lp := strings.ToLower(p); lp == "xml" || lp == "xmlns" {
			return fmt.Errorf("%w: prefix %q is reserved", ErrConfiguration, p)
		}
		if err := checkURI(uri); err != nil {
			return fmt.Errorf("%w: prefix %q: %v", ErrConfiguration, p, err)
		}
	}

	owner := map[string]string{}
	for _, p := range sortedKeys(n.Attributes) {
		if _, ok := n.Map[p]; !ok && p != RootPrefix {
			return fmt.Errorf("%w: attribute prefix %q is not declared in the namespace map", ErrConfiguration, p)
		}
		for _, name := range n.Attributes[p] {
			if !isNCName(name) {
				return fmt.Errorf("%w: attribute name %q under prefix %q is not a valid XML name", ErrConfiguration, name, p)
			}
			if reservedName(name) {
				return fmt.Errorf("%w: attribute name %q under prefix %q is reserved", ErrConfiguration, name, p)
			}
			if prev, dup := owner[name]; dup && prev != p {
				return fmt.Errorf("%w: attribute %q is owned by both %q and %q", ErrConfiguration, name, prev, p)
			}
			owner[name] = p
		}
	}
	return nil
}

// Resolve rewrites the attribute bag into namespace-qualified attributes.
// Owned names get Name.Space set to the owning prefix's URI; unmapped names
// follow policy. The result is sorted by namespace then local name.
func (n Namespaces) Resolve(bag map[string]string, policy UnmappedPolicy) ([]xml.Attr, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	decl := n.declarations()
	owner := map[string]string{}
	for p, names := range n.Attributes {
		for _, name := range names {
			owner[name] = decl[p]
		}
	}

	attrs := make([]xml.Attr, 0, len(bag))
	for _, name := range sortedKeys(bag) {
		if reservedName(name) {
			return nil, fmt.Errorf("%w: attribute name %q is reserved", ErrConfiguration, name)
		}
		uri, ok := owner[name]
		if !ok {
			switch policy {
			case UnmappedDrop:
				continue
			case UnmappedStrict:
				return nil, fmt.Errorf("%w: attribute %q is not owned by any prefix", ErrConfiguration, name)
			}
			if !isNCName(name) {
				return nil, fmt.Errorf("%w: attribute name %q is not a valid XML name", ErrConfiguration, name)
			}
			if standardAttr[name] {
				return nil, fmt.Errorf("%w: unqualified attribute %q would replace the element's own", ErrConfiguration, name)
			}
		}
		attrs = append(attrs, xml.Attr{Name: xml.Name{Space: uri, Local: name}, Value: bag[name]})
	}
	sort.SliceStable(attrs, func(i, j int) bool {
		if attrs[i].Name.Space != attrs[j].Name.Space {
			return attrs[i].Name.Space < attrs[j].Name.Space
		}
		return attrs[i].Name.Local < attrs[j].Name.Local
	})
	return attrs, nil
}

// standardAttr lists the unqualified attributes the export targets already
// carry.
var standardAttr = map[string]bool{"publicID": true}

// reservedName reports names beginning with "xml" in any case, which XML
// keeps for itself (xmlns, xml:lang and the like).
func reservedName(name string) bool {
	return len(name) >= 3 && strings.EqualFold(name[:3], "xml")
}

// Clark returns the "{uri}name" spelling of a qualified name.
func Clark(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return "{" + name.Space + "}" + name.Local
}

func checkURI(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("empty URI")
	}
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if !u.IsAbs() {
		return fmt.Errorf("%q is not an absolute URI", s)
	}
	return nil
}

// isNCName reports whether s is a non-colonized XML name.
func isNCName(s string) bool {
	if s == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(s)
	if first != '_' && !unicode.IsLetter(first) {
		return false
	}
	for _, r := range s {
		switch {
		case r == '_' || r == '-' || r == '.':
		case unicode.IsLetter(r) || unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
