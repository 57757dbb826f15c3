// Package jsmodule rewrites a globally-scoped compiled artifact into an
// import/export-capable ES module.
//
// The compiler emits a self-invoking wrapper applied to the global object:
//
//	(function(scope){ ... }(this));
//
// ToModule substitutes the closing invocation so the program installs itself
// on a private scope object instead of the global one, and appends an export
// of the named top-level symbol. The transform is textual: the artifact is
// byte-identical apart from the single substitution and the appended export
// line. The artifact's shape is a precondition the build controls, so a
// missing marker is a fatal build error.
package jsmodule

import (
	"fmt"
	"os"
	"strings"

	pberrors "git.home.luguber.info/inful/pagebuild/internal/errors"
)

const (
	// closeMarker closes the global self-invoking wrapper.
	closeMarker = "}(this));"
	// closeReplacement invokes the wrapper against a local scope object.
	closeReplacement = "}(globalThis.__pagebuildScope = globalThis.__pagebuildScope || {}));"
	// exportLine re-exports the top-level symbol installed on the scope.
	exportLine = "\nexport const Elm = globalThis.__pagebuildScope.Elm;\n"
)

// ToModule rewrites the artifact at path in place.
func ToModule(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", path, err)
	}
	content := string(data)

	idx := strings.LastIndex(content, closeMarker)
	if idx < 0 {
		return pberrors.TransformMarkerMissing(path, closeMarker)
	}
	transformed := content[:idx] + closeReplacement + content[idx+len(closeMarker):] + exportLine

	if err := os.WriteFile(path, []byte(transformed), 0644); err != nil {
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	return nil
}
