package assets

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/pagebuild/internal/config"
)

// runtimeShim is the fixed-name client runtime shim served as
// dist/elm-pages.js. It is embedded so a pagebuild binary is self-contained.
//
//go:embed shim/elm-pages.js
var runtimeShim []byte

// Stager copies the static parts of the site into the output tree: the
// runtime shim, the user's client entry script and stylesheet, the image
// tree, and the flat static-assets directory.
type Stager struct {
	paths config.PathsConfig
}

// NewStager creates a stager for the configured layout.
func NewStager(paths config.PathsConfig) *Stager {
	return &Stager{paths: paths}
}

// Stage performs all asset copies. Copies for independent subtrees are
// independent of each other; callers may run Stage concurrently with
// compilation stages but must wait for it to return before deciding the
// build outcome.
func (s *Stager) Stage() error {
	dist := s.paths.Dist

	if err := os.WriteFile(filepath.Join(dist, "elm-pages.js"), runtimeShim, 0644); err != nil {
		return fmt.Errorf("write runtime shim: %w", err)
	}
	if err := copyFile(s.paths.IndexJS, filepath.Join(dist, "index.js")); err != nil {
		return err
	}
	if err := copyFile(s.paths.StyleCSS, filepath.Join(dist, "style.css")); err != nil {
		return err
	}
	if err := CopyTree(s.paths.Images, filepath.Join(dist, "images"), CopyNested); err != nil {
		return err
	}
	if err := CopyTree(s.paths.Static, dist, CopyFlat); err != nil {
		return err
	}
	slog.Debug("Staged static assets", "dist", dist)
	return nil
}
