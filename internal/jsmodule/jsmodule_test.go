package jsmodule

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	pberrors "git.home.luguber.info/inful/pagebuild/internal/errors"
)

const compiledArtifact = `(function(scope){
'use strict';
var author$project$Main$main = { init: function() {} };
scope.Elm = { Main: author$project$Main$main };
}(this));`

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "elm.js")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestToModule(t *testing.T) {
	path := writeArtifact(t, compiledArtifact)

	if err := ToModule(path); err != nil {
		t.Fatalf("ToModule failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read transformed artifact: %v", err)
	}
	transformed := string(data)

	if strings.Contains(transformed, closeMarker) {
		t.Errorf("closing invocation against the global object still present")
	}
	if !strings.Contains(transformed, closeReplacement) {
		t.Errorf("local scope invocation missing")
	}
	if !strings.HasSuffix(transformed, exportLine) {
		t.Errorf("export statement not appended, got tail %q", transformed[len(transformed)-80:])
	}
}

// The transform is textual: everything outside the single substitution and
// the appended export line must be byte-identical.
func TestToModulePreservesContent(t *testing.T) {
	path := writeArtifact(t, compiledArtifact)

	if err := ToModule(path); err != nil {
		t.Fatalf("ToModule failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read transformed artifact: %v", err)
	}

	want := strings.Replace(compiledArtifact, closeMarker, closeReplacement, 1) + exportLine
	if string(data) != want {
		t.Errorf("transform altered bytes outside the substitution:\n got: %q\nwant: %q", data, want)
	}
}

// A trailing wrapper closure is the one that gets substituted, even when the
// marker bytes appear earlier in the program text.
func TestToModuleSubstitutesLastMarker(t *testing.T) {
	content := `var s = "}(this));";` + "\n" + compiledArtifact
	path := writeArtifact(t, content)

	if err := ToModule(path); err != nil {
		t.Fatalf("ToModule failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read transformed artifact: %v", err)
	}
	if !strings.Contains(string(data), `var s = "}(this));";`) {
		t.Errorf("string literal occurrence of the marker was substituted instead of the closing invocation")
	}
}

func TestToModuleMissingMarkerIsFatal(t *testing.T) {
	path := writeArtifact(t, "console.log('not a compiled artifact');")

	err := ToModule(path)
	if err == nil {
		t.Fatal("expected error for artifact without marker")
	}
	if !pberrors.IsCategory(err, pberrors.CategoryTransform) {
		t.Errorf("expected transform category, got %v", pberrors.GetCategory(err))
	}
}
