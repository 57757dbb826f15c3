package compiler

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"git.home.luguber.info/inful/pagebuild/internal/config"
	pberrors "git.home.luguber.info/inful/pagebuild/internal/errors"
)

// fakeTool writes an executable shell script standing in for the external
// compiler or minifier.
func fakeTool(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tool scripts require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "tool.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("write fake tool: %v", err)
	}
	return path
}

// compilingTool scans its arguments for "--output <path>" and writes a file
// there, mimicking a successful compiler run.
const compilingTool = `
out=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "--output" ]; then out="$arg"; fi
  prev="$arg"
done
echo "compiled" > "$out"
`

func TestInvokeSuccess(t *testing.T) {
	runner := NewRunner(config.CompilerConfig{Command: fakeTool(t, compilingTool), Args: []string{"make"}})
	out := filepath.Join(t.TempDir(), "artifact.js")

	if err := runner.Invoke(context.Background(), "src/Main.elm", out, ""); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("artifact missing after successful invoke: %v", err)
	}
}

func TestInvokeRemovesStaleArtifact(t *testing.T) {
	// tool that exits non-zero without producing output
	runner := NewRunner(config.CompilerConfig{Command: fakeTool(t, "exit 1")})
	out := filepath.Join(t.TempDir(), "artifact.js")
	if err := os.WriteFile(out, []byte("stale"), 0644); err != nil {
		t.Fatalf("seed stale artifact: %v", err)
	}

	err := runner.Invoke(context.Background(), "src/Main.elm", out, "")
	if err == nil {
		t.Fatal("expected failure from non-zero exit")
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Errorf("stale artifact not removed before invocation")
	}
}

func TestInvokeNonZeroExitIsCompileError(t *testing.T) {
	runner := NewRunner(config.CompilerConfig{Command: fakeTool(t, "exit 2")})
	err := runner.Invoke(context.Background(), "src/Main.elm", filepath.Join(t.TempDir(), "a.js"), "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !pberrors.IsCategory(err, pberrors.CategoryCompile) {
		t.Errorf("expected compile category, got %v", pberrors.GetCategory(err))
	}
}

func TestInvokeMissingArtifactIsCompileError(t *testing.T) {
	// exits zero but produces nothing
	runner := NewRunner(config.CompilerConfig{Command: fakeTool(t, "exit 0")})
	err := runner.Invoke(context.Background(), "src/Main.elm", filepath.Join(t.TempDir(), "a.js"), "")
	if err == nil {
		t.Fatal("expected error for missing artifact")
	}
	if !pberrors.IsCategory(err, pberrors.CategoryCompile) {
		t.Errorf("expected compile category, got %v", pberrors.GetCategory(err))
	}
}

func TestInvokeWorkingDirectory(t *testing.T) {
	workDir := t.TempDir()
	// writes the artifact relative to its working directory
	runner := NewRunner(config.CompilerConfig{Command: fakeTool(t, compilingTool)})

	if err := runner.Invoke(context.Background(), "src/Main.elm", "out.js", workDir); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(workDir, "out.js")); err != nil {
		t.Fatalf("artifact not resolved against working directory: %v", err)
	}
}

func TestRunCodegenEmptyCommandIsNoop(t *testing.T) {
	if err := RunCodegen(context.Background(), config.CodegenConfig{}); err != nil {
		t.Fatalf("empty codegen command must be a no-op, got %v", err)
	}
}

func TestRunCodegenFailure(t *testing.T) {
	cfg := config.CodegenConfig{Command: []string{fakeTool(t, "exit 3")}}
	err := RunCodegen(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !pberrors.IsCategory(err, pberrors.CategoryCodegen) {
		t.Errorf("expected codegen category, got %v", pberrors.GetCategory(err))
	}
}

func TestMinifyRewritesInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.js")
	if err := os.WriteFile(path, []byte("original"), 0644); err != nil {
		t.Fatalf("seed bundle: %v", err)
	}
	// minifier that writes "minified" to the --output target
	cfg := config.MinifyConfig{Command: []string{fakeTool(t, compilingTool)}}

	if err := Minify(context.Background(), cfg, path); err != nil {
		t.Fatalf("Minify failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read minified bundle: %v", err)
	}
	if string(data) != "compiled\n" {
		t.Errorf("bundle not rewritten in place, got %q", data)
	}
}

func TestMinifyEmptyCommandIsNoop(t *testing.T) {
	if err := Minify(context.Background(), config.MinifyConfig{}, "irrelevant.js"); err != nil {
		t.Fatalf("empty minify command must be a no-op, got %v", err)
	}
}
