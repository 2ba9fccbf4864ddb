package quakeml

import (
	"fmt"
	"maps"

	"seisadapt/internal/config"
)

// OptionsFromConfig builds export options from the export section of a
// config file. Namespaces and owners are layered on top of the preset and
// the result is validated.
func OptionsFromConfig(e config.Export) (Options, error) {
	var ns Namespaces
	switch e.Preset {
	case "":
		ns = DefaultNamespaces()
	case "anss":
		ns = ANSSNamespaces()
	default:
		return Options{}, fmt.Errorf("%w: unknown preset %q", ErrConfiguration, e.Preset)
	}
	if e.Default != "" {
		ns.Default = e.Default
	}
	maps.Copy(ns.Map, e.Namespaces)
	if len(e.Owners) > 0 && ns.Attributes == nil {
		ns.Attributes = map[string][]string{}
	}
	for prefix, names := range e.Owners {
		ns.Attributes[prefix] = append(ns.Attributes[prefix], names...)
	}

	policy, err := ParseUnmappedPolicy(e.Unmapped)
	if err != nil {
		return Options{}, err
	}
	if err := ns.Validate(); err != nil {
		return Options{}, err
	}
	return Options{
		Namespaces: ns,
		Attributes: maps.Clone(e.Attributes),
		Unmapped:   policy,
		Pretty:     e.Pretty,
	}, nil
}
