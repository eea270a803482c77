package plugin

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	"github.com/teranos/dtsgen/errors"
	"github.com/teranos/dtsgen/internal/fsutil"
)

// TOMLDescriptorLoader reads .toml manifests:
//
//	name = "babel"
//	core = "^3"
//
//	[parsers.babel]
//	[parsers.babel-flow]
//
//	[printers.estree]
type TOMLDescriptorLoader struct {
	Fs afero.Fs
}

// NewTOMLDescriptorLoader creates a TOML descriptor loader reading from fs
func NewTOMLDescriptorLoader(fs afero.Fs) *TOMLDescriptorLoader {
	return &TOMLDescriptorLoader{Fs: fs}
}

func (l *TOMLDescriptorLoader) Name() string { return "toml" }

func (l *TOMLDescriptorLoader) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func (l *TOMLDescriptorLoader) Load(ctx context.Context, path string) (Plugin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := fsutil.ReadFile(l.Fs, path)
	if err != nil {
		return nil, err
	}

	m, err := DecodeTOMLManifest(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid manifest %s", path)
	}
	return New(withDefaultName(m, path)), nil
}

// DecodeTOMLManifest parses a TOML manifest. Tables decode into Go maps,
// so group order is recovered from the key order the decoder reports.
func DecodeTOMLManifest(data []byte) (Manifest, error) {
	var doc map[string]any
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return Manifest{}, errors.Wrap(err, "failed to parse TOML manifest")
	}

	var prefix []string
	obj := doc
	if def, ok := doc["default"].(map[string]any); ok {
		obj = def
		prefix = []string{"default"}
	}

	var m Manifest
	if m.Name, err = tomlString(obj, "name"); err != nil {
		return Manifest{}, err
	}
	if m.Version, err = tomlString(obj, "version"); err != nil {
		return Manifest{}, err
	}
	if m.Core, err = tomlString(obj, "core"); err != nil {
		return Manifest{}, err
	}
	if m.Capabilities.Parsers, err = tomlGroup(obj, md.Keys(), prefix, "parsers"); err != nil {
		return Manifest{}, err
	}
	if m.Capabilities.Printers, err = tomlGroup(obj, md.Keys(), prefix, "printers"); err != nil {
		return Manifest{}, err
	}

	return m, nil
}

func tomlString(obj map[string]any, key string) (string, error) {
	v, ok := obj[key]
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.Newf("manifest field %q must be a string, got %T", key, v)
	}
	return s, nil
}

func tomlGroup(obj map[string]any, keys []toml.Key, prefix []string, name string) (Group, error) {
	v, ok := obj[name]
	if !ok {
		return nil, nil
	}
	table, ok := v.(map[string]any)
	if !ok {
		return nil, errors.Newf("manifest group %q must be a table, got %T", name, v)
	}

	depth := len(prefix) + 2
	seen := make(map[string]bool, len(table))
	group := make(Group, 0, len(table))

	for _, k := range keys {
		if len(k) != depth || k[depth-2] != name || !hasPrefix(k, prefix) {
			continue
		}
		capName := k[depth-1]
		if seen[capName] {
			continue
		}
		if impl, ok := table[capName]; ok {
			seen[capName] = true
			group = append(group, Capability{Name: capName, Impl: impl})
		}
	}

	// Anything the key list did not report keeps a stable order
	var rest []string
	for capName := range table {
		if !seen[capName] {
			rest = append(rest, capName)
		}
	}
	sort.Strings(rest)
	for _, capName := range rest {
		group = append(group, Capability{Name: capName, Impl: table[capName]})
	}

	return group, nil
}

func hasPrefix(k toml.Key, prefix []string) bool {
	for i, p := range prefix {
		if k[i] != p {
			return false
		}
	}
	return true
}
