// Package config loads and validates the pagebuild configuration.
//
// The configuration file is optional: the defaults describe the fixed
// project layout (src/Main.elm entrypoint, static/, images/, beta-index.js,
// beta-style.css at the working-directory root) so that a bare `pagebuild`
// invocation works without any file present.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	pberrors "git.home.luguber.info/inful/pagebuild/internal/errors"
)

// Config represents the application configuration
type Config struct {
	Compiler CompilerConfig `yaml:"compiler"`
	Codegen  CodegenConfig  `yaml:"codegen"`
	Runner   RunnerConfig   `yaml:"runner"`
	Minify   MinifyConfig   `yaml:"minify"`
	Paths    PathsConfig    `yaml:"paths"`
}

// CompilerConfig describes the external page-description compiler.
type CompilerConfig struct {
	Command string   `yaml:"command"`        // compiler binary, e.g. "elm"
	Args    []string `yaml:"args,omitempty"` // leading arguments before the entrypoint
}

// CodegenConfig describes the external code generation collaborator that
// produces the renderer-support program sources. An empty command skips the
// stage.
type CodegenConfig struct {
	Command []string `yaml:"command,omitempty"`
	Dir     string   `yaml:"dir,omitempty"` // working directory holding generated sources
}

// RunnerConfig describes the command used to execute the compiled content
// program (the renderer).
type RunnerConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
}

// MinifyConfig describes the opaque external minifier. The input artifact
// path is appended to the command followed by "--output <input>" so the
// artifact is minified in place.
type MinifyConfig struct {
	Command []string `yaml:"command,omitempty"`
}

// PathsConfig pins the expected input layout and output locations.
type PathsConfig struct {
	Entrypoint        string `yaml:"entrypoint"`         // top-level content program source
	SupportEntrypoint string `yaml:"support_entrypoint"` // support program source, relative to codegen dir
	Dist              string `yaml:"dist"`               // deployable output tree
	Work              string `yaml:"work"`               // intermediate build artifacts
	Static            string `yaml:"static"`             // flat-copied static assets
	Images            string `yaml:"images"`             // nested-copied image tree
	IndexJS           string `yaml:"index_js"`
	StyleCSS          string `yaml:"style_css"`
}

// Default returns the configuration for the fixed expected input layout.
func Default() *Config {
	return &Config{
		Compiler: CompilerConfig{
			Command: "elm",
			Args:    []string{"make", "--optimize"},
		},
		Codegen: CodegenConfig{
			Dir: ".pagebuild/gen",
		},
		Runner: RunnerConfig{
			Command: "node",
		},
		Minify: MinifyConfig{
			Command: []string{"terser", "--compress", "--mangle"},
		},
		Paths: PathsConfig{
			Entrypoint:        "src/Main.elm",
			SupportEntrypoint: "src/Main.elm",
			Dist:              "dist",
			Work:              ".pagebuild",
			Static:            "static",
			Images:            "images",
			IndexJS:           "beta-index.js",
			StyleCSS:          "beta-style.css",
		},
	}
}

// Load reads the configuration file at path. A missing file is not an error;
// the defaults are returned so the tool works with zero configuration.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields after file and flag merging.
func (c *Config) Validate() error {
	if c.Compiler.Command == "" {
		return pberrors.ValidationFailed("compiler.command", "must not be empty")
	}
	if c.Runner.Command == "" {
		return pberrors.ValidationFailed("runner.command", "must not be empty")
	}
	if c.Paths.Entrypoint == "" {
		return pberrors.ValidationFailed("paths.entrypoint", "must not be empty")
	}
	if c.Paths.Dist == "" {
		return pberrors.ValidationFailed("paths.dist", "must not be empty")
	}
	if c.Paths.Work == "" {
		return pberrors.ValidationFailed("paths.work", "must not be empty")
	}
	return nil
}
