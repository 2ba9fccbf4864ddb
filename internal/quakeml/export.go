package quakeml

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"time"

	"seisadapt/internal/metrics"
)

// Options controls a single export.
type Options struct {
	// Namespaces is the namespace configuration. The zero value renders plain
	// QuakeML (see DefaultNamespaces).
	Namespaces Namespaces

	// Attributes is the bag merged onto every event and focalMechanism
	// element, keyed by bare attribute name.
	Attributes map[string]string

	// Unmapped decides what happens to bag names no prefix owns.
	Unmapped UnmappedPolicy

	// Pretty indents the output. It has no semantic effect.
	Pretty bool
}

func (o Options) namespaces() Namespaces {
	if o.Namespaces.Default == "" && len(o.Namespaces.Map) == 0 && len(o.Namespaces.Attributes) == 0 {
		return DefaultNamespaces()
	}
	return o.Namespaces
}

// Dumps renders cat as a QuakeML document. The extra attributes are added to
// the event and focalMechanism elements only; every other element is rendered
// exactly as plain QuakeML. The configuration is validated before any element
// is built. A nil or empty catalog yields a document with an empty
// eventParameters container.
func Dumps(cat *Catalog, opts Options) ([]byte, error) {
	start := time.Now()
	out, err := dumps(cat, opts)
	metrics.RecordStep("quakeml", "dumps", err, time.Since(start))
	return out, err
}

func dumps(cat *Catalog, opts Options) ([]byte, error) {
	ns := opts.namespaces()
	attrs, err := ns.Resolve(opts.Attributes, opts.Unmapped)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		cat = &Catalog{}
	}

	root := &element{Prefix: RootPrefix, Name: "quakeml"}
	params := root.append(newElement("eventParameters", publicID(cat.ResourceID)...))
	str(params, "description", cat.Description)
	comments(params, cat.Comments)
	creationInfo(params, cat.CreationInfo)

	for _, ev := range cat.Events {
		params.append(eventElement(ev, attrs))
	}

	out, err := render(root, ns.Default, ns.declarations(), opts.Pretty)
	if err != nil {
		return nil, fmt.Errorf("quakeml: render: %w", err)
	}
	metrics.RecordRow("quakeml", "events", int64(len(cat.Events)))
	return out, nil
}

func eventElement(ev Event, attrs []xml.Attr) *element {
	el := newElement("event", publicID(ev.ResourceID)...)
	el.merge(attrs)
	str(el, "preferredOriginID", ev.PreferredOriginID)
	str(el, "preferredMagnitudeID", ev.PreferredMagnitudeID)
	str(el, "preferredFocalMechanismID", ev.PreferredFocalMechanismID)
	str(el, "type", ev.Type)
	str(el, "typeCertainty", ev.TypeCertainty)
	for _, d := range ev.Descriptions {
		dl := el.append(newElement("description"))
		dl.append(&element{Name: "text", Text: d.Text})
		str(dl, "type", d.Type)
	}
	comments(el, ev.Comments)
	creationInfo(el, ev.CreationInfo)
	for _, o := range ev.Origins {
		el.append(originElement(o))
	}
	for _, m := range ev.Magnitudes {
		el.append(magnitudeElement(m))
	}
	for _, m := range ev.StationMagnitudes {
		el.append(stationMagnitudeElement(m))
	}
	for _, p := range ev.Picks {
		el.append(pickElement(p))
	}
	for _, fm := range ev.FocalMechanisms {
		fel := focalMechanismElement(fm)
		fel.merge(attrs)
		el.append(fel)
	}
	return el
}

// Write renders cat and writes it to w. The document is rendered completely
// before anything is written. w is never closed.
func Write(w io.Writer, cat *Catalog, opts Options) error {
	doc, err := Dumps(cat, opts)
	if err != nil {
		return err
	}
	if _, err := w.Write(doc); err != nil {
		return fmt.Errorf("quakeml: write: %w", err)
	}
	return nil
}

// WriteFile renders cat and writes it to path, creating or truncating the
// file. Nothing is created when rendering fails. The file is always closed.
func WriteFile(path string, cat *Catalog, opts Options) (err error) {
	doc, err := Dumps(cat, opts)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("quakeml: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("quakeml: close %s: %w", path, cerr)
		}
	}()
	if _, err := f.Write(doc); err != nil {
		return fmt.Errorf("quakeml: write %s: %w", path, err)
	}
	return nil
}

// ReadCatalogJSON decodes a catalog from its JSON form. Missing resource ids
// on the catalog, its events and their focal mechanisms are generated.
func ReadCatalogJSON(r io.Reader) (*Catalog, error) {
	var cat Catalog
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("quakeml: decode catalog: %w", err)
	}
	if cat.ResourceID == "" {
		cat.ResourceID = NewResourceID()
	}
	for i := range cat.Events {
		ev := &cat.Events[i]
		if ev.ResourceID == "" {
			ev.ResourceID = NewResourceID()
		}
		for j := range ev.FocalMechanisms {
			if ev.FocalMechanisms[j].ResourceID == "" {
				ev.FocalMechanisms[j].ResourceID = NewResourceID()
			}
		}
	}
	return &cat, nil
}
