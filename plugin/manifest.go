package plugin

import (
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teranos/dtsgen/errors"
)

// DecodeManifest parses a manifest document (JSON or YAML).
//
//	{"name": "babel", "version": "1.2.0", "core": "^3",
//	 "parsers": {"babel": {}, "babel-flow": {}},
//	 "printers": {"estree": {}}}
//
// The plugin object may also sit under a top-level "default" key. Group
// order is the document order; documents are walked as yaml.Node trees so
// no Go map ever reorders the names.
func DecodeManifest(data []byte) (Manifest, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Manifest{}, errors.Wrap(err, "failed to parse manifest")
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return Manifest{}, errors.New("manifest is empty")
	}

	obj := deref(doc.Content[0])
	if obj.Kind != yaml.MappingNode {
		return Manifest{}, errors.Newf("manifest must be a mapping, got %s", kindName(obj))
	}
	if def := mappingValue(obj, "default"); def != nil && def.Kind == yaml.MappingNode {
		obj = def
	}

	var m Manifest
	var err error
	if m.Name, err = scalarField(obj, "name"); err != nil {
		return Manifest{}, err
	}
	if m.Version, err = scalarField(obj, "version"); err != nil {
		return Manifest{}, err
	}
	if m.Core, err = scalarField(obj, "core"); err != nil {
		return Manifest{}, err
	}
	if m.Capabilities.Parsers, err = decodeGroup(obj, "parsers"); err != nil {
		return Manifest{}, err
	}
	if m.Capabilities.Printers, err = decodeGroup(obj, "printers"); err != nil {
		return Manifest{}, err
	}

	return m, nil
}

// mappingValue returns the value node for key, or nil. A repeated key
// resolves to its last value, as JSON.parse does.
func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	var value *yaml.Node
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			value = mapping.Content[i+1]
		}
	}
	return deref(value)
}

// deref follows alias nodes to the node they name.
func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func scalarField(obj *yaml.Node, key string) (string, error) {
	n := mappingValue(obj, key)
	if n == nil || isNull(n) {
		return "", nil
	}
	if n.Kind != yaml.ScalarNode {
		return "", errors.Newf("manifest field %q must be a string, got %s", key, kindName(n))
	}
	return n.Value, nil
}

// decodeGroup reads a capability group. Absent or null groups are nil;
// anything other than a mapping is a malformed plugin. A name repeated
// inside the group keeps its first position and takes its last value.
func decodeGroup(obj *yaml.Node, key string) (Group, error) {
	n := mappingValue(obj, key)
	if n == nil || isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, errors.Newf("manifest group %q must be a mapping, got %s", key, kindName(n))
	}

	group := make(Group, 0, len(n.Content)/2)
	seen := make(map[string]int, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value
		var impl any
		if err := n.Content[i+1].Decode(&impl); err != nil {
			return nil, errors.Wrapf(err, "failed to decode %s.%s", key, name)
		}
		if at, ok := seen[name]; ok {
			group[at].Impl = impl
			continue
		}
		seen[name] = len(group)
		group = append(group, Capability{Name: name, Impl: impl})
	}
	return group, nil
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		if isNull(n) {
			return "null"
		}
		return "scalar " + strings.TrimPrefix(n.Tag, "!!")
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}

// withDefaultName fills in the plugin name from its file name.
func withDefaultName(m Manifest, path string) Manifest {
	if m.Name == "" {
		base := filepath.Base(path)
		m.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return m
}
