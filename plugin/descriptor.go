package plugin

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/teranos/dtsgen/errors"
	"github.com/teranos/dtsgen/internal/fsutil"
)

// DescriptorLoader reads JSON and YAML manifest files.
type DescriptorLoader struct {
	Fs afero.Fs
}

// NewDescriptorLoader creates a descriptor loader reading from fs
func NewDescriptorLoader(fs afero.Fs) *DescriptorLoader {
	return &DescriptorLoader{Fs: fs}
}

func (l *DescriptorLoader) Name() string { return "descriptor" }

func (l *DescriptorLoader) Supports(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func (l *DescriptorLoader) Load(ctx context.Context, path string) (Plugin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := fsutil.ReadFile(l.Fs, path)
	if err != nil {
		return nil, err
	}

	m, err := DecodeManifest(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid manifest %s", path)
	}
	return New(withDefaultName(m, path)), nil
}
