package am

import (
	"bytes"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/teranos/dtsgen/errors"
	"github.com/teranos/dtsgen/internal/fsutil"
	"github.com/teranos/dtsgen/version"
)

// starterFile mirrors Config with toml tags for writing
type starterFile struct {
	Project struct {
		Dist        string `toml:"dist"`
		CoreVersion string `toml:"core_version"`
	} `toml:"project"`
	Build struct {
		Concurrency int `toml:"concurrency"`
	} `toml:"build"`
	Plugin struct {
		Exec string `toml:"exec"`
	} `toml:"plugin"`
	Targets []starterTarget `toml:"targets"`
}

type starterTarget struct {
	Input  string `toml:"input"`
	Output string `toml:"output"`
	Plugin bool   `toml:"plugin,omitempty"`
}

const starterHeader = `# dtsgen build configuration
#
# Each [[targets]] entry produces one declaration file under project.dist.
# Plain targets copy a .d.ts file with its import paths rewritten; targets
# with plugin = true load the plugin and declare its parsers.
#
# Plugins are loaded by extension: .json/.yaml/.yml/.toml manifests, .wasm
# modules exporting dts_manifest, and .js/.mjs/.cjs through plugin.exec.

`

// DefaultFileContent renders the starter configuration.
func DefaultFileContent() ([]byte, error) {
	var f starterFile
	f.Project.Dist = DefaultDist
	f.Project.CoreVersion = version.CoreVersion
	f.Build.Concurrency = DefaultConcurrency
	f.Targets = []starterTarget{
		{Input: "src/index.d.ts", Output: "index.d.ts"},
		{Input: "src/plugins/babel.json", Output: "plugins/babel.d.ts", Plugin: true},
	}

	body, err := toml.Marshal(f)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal starter config")
	}

	var buf bytes.Buffer
	buf.WriteString(starterHeader)
	buf.Write(body)
	return buf.Bytes(), nil
}

// WriteDefault writes a starter dtsgen.toml to path. An existing file is
// only replaced when force is set.
func WriteDefault(fs afero.Fs, path string, force bool) error {
	if !force {
		if _, err := fs.Stat(path); err == nil {
			return errors.WithHint(
				errors.Newf("%s already exists", path),
				"pass --force to overwrite it",
			)
		} else if !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to stat %s", path)
		}
	}

	content, err := DefaultFileContent()
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(fs, path, content)
}
