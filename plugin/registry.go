package plugin

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/teranos/dtsgen/errors"
	"github.com/teranos/dtsgen/logger"
)

// ErrNoLoader is returned when no registered loader handles a plugin path.
var ErrNoLoader = errors.New("no loader for plugin")

// Registry resolves plugin inputs to loaded plugins.
// Safe for concurrent use once loaders are registered.
type Registry struct {
	mu          sync.RWMutex
	plugins     map[string]Plugin
	loaders     []Loader
	root        string
	coreVersion string
	logger      *zap.SugaredLogger
}

// NewRegistry creates a registry resolving inputs against root. coreVersion
// is checked against each plugin's Core constraint.
func NewRegistry(root, coreVersion string, log *zap.SugaredLogger) *Registry {
	if log == nil {
		log = logger.Logger
	}
	return &Registry{
		plugins:     make(map[string]Plugin),
		root:        root,
		coreVersion: coreVersion,
		logger:      log.Named("plugin"),
	}
}

// RegisterPlugin registers an in-process plugin under an input path.
// Returns error if the input is already taken or the plugin's core
// constraint does not match.
func (r *Registry) RegisterPlugin(input string, p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := filepath.ToSlash(filepath.Clean(input))
	if _, exists := r.plugins[key]; exists {
		return errors.Newf("plugin already registered for %s", key)
	}
	if err := r.validateVersion(p.Manifest()); err != nil {
		return errors.Wrapf(err, "version incompatible for %s", key)
	}

	r.plugins[key] = p
	return nil
}

// RegisterLoader appends a loader. Loaders are tried in registration order.
func (r *Registry) RegisterLoader(l Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders = append(r.loaders, l)
}

// Load returns the plugin for a project-relative input.
func (r *Registry) Load(ctx context.Context, input string) (Plugin, error) {
	key := filepath.ToSlash(filepath.Clean(input))

	r.mu.RLock()
	p, ok := r.plugins[key]
	loaders := r.loaders
	r.mu.RUnlock()

	if ok {
		r.logger.Debugw("Using in-process plugin", logger.FieldInput, key)
		return p, nil
	}

	path := r.resolve(input)
	for _, l := range loaders {
		if !l.Supports(path) {
			continue
		}

		r.logger.Debugw("Loading plugin",
			logger.FieldInput, key,
			logger.FieldLoader, l.Name(),
		)

		p, err := l.Load(ctx, path)
		if err != nil {
			return nil, errors.Wrapf(err, "%s loader failed for %s", l.Name(), key)
		}

		m := withDefaultName(p.Manifest(), path)
		if err := r.validateVersion(m); err != nil {
			return nil, errors.Wrapf(err, "version incompatible for %s", key)
		}

		r.logger.Debugw("Loaded plugin",
			logger.FieldPlugin, m.Name,
			logger.FieldVersion, m.Version,
			logger.FieldParsers, m.Capabilities.Parsers.Names(),
		)
		return New(m), nil
	}

	return nil, errors.WithHintf(
		errors.Wrapf(ErrNoLoader, "%s", key),
		"registered loaders: %v; script plugins need plugin.exec in dtsgen.toml",
		r.LoaderNames(),
	)
}

// LoaderNames returns loader names in the order they are tried.
func (r *Registry) LoaderNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.loaders))
	for i, l := range r.loaders {
		names[i] = l.Name()
	}
	return names
}

func (r *Registry) resolve(input string) string {
	if filepath.IsAbs(input) || r.root == "" {
		return filepath.Clean(input)
	}
	return filepath.Join(r.root, input)
}

// validateVersion checks the plugin's core constraint against the running core version
func (r *Registry) validateVersion(m Manifest) error {
	if m.Core == "" {
		// No version constraint specified
		return nil
	}

	coreVer, err := semver.NewVersion(r.coreVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid core version %s", r.coreVersion)
	}

	constraint, err := semver.NewConstraint(m.Core)
	if err != nil {
		return errors.Wrapf(err, "invalid version constraint %s", m.Core)
	}

	if !constraint.Check(coreVer) {
		return errors.Newf("plugin requires core %s, but building for %s", m.Core, r.coreVersion)
	}

	return nil
}
