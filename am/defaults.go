package am

import (
	"github.com/spf13/viper"

	"github.com/teranos/dtsgen/version"
)

// Default values
const (
	DefaultDist        = "dist"
	DefaultConcurrency = 4
	DefaultLogTheme    = "everforest"
)

// SetDefaults configures default values for all configuration options.
// Every key needs a default so environment overrides reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("project.root", "")
	v.SetDefault("project.dist", DefaultDist)
	v.SetDefault("project.core_version", version.CoreVersion)

	v.SetDefault("build.concurrency", DefaultConcurrency)

	v.SetDefault("plugin.exec", "")

	v.SetDefault("log.json", false)
	v.SetDefault("log.theme", DefaultLogTheme)
}
