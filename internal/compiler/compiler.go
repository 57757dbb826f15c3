// Package compiler invokes the external page-description compiler and the
// other out-of-process build tools (code generator, minifier). Every
// invocation is awaited before the pipeline proceeds; a non-zero exit is
// fatal to the build.
package compiler

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"git.home.luguber.info/inful/pagebuild/internal/config"
	pberrors "git.home.luguber.info/inful/pagebuild/internal/errors"
)

// Runner invokes the external compiler.
type Runner struct {
	command string
	args    []string
}

// NewRunner creates a Runner from the compiler configuration.
func NewRunner(cfg config.CompilerConfig) *Runner {
	return &Runner{command: cfg.Command, args: cfg.Args}
}

// Invoke compiles entrypoint into outputPath. workingDir may be empty for
// the current directory; it differs when building the embedded
// renderer-support program versus the top-level content program.
//
// Any artifact already present at the output path is deleted first, best
// effort, so a failed compile cannot leave a stale artifact that masks the
// failure. Success requires a zero exit code and the output file existing
// afterwards.
func (r *Runner) Invoke(ctx context.Context, entrypoint, outputPath, workingDir string) error {
	resolved := outputPath
	if workingDir != "" && !filepath.IsAbs(outputPath) {
		resolved = filepath.Join(workingDir, outputPath)
	}
	if _, err := os.Stat(resolved); err == nil {
		if err := os.Remove(resolved); err != nil {
			slog.Warn("Failed to remove stale artifact", "path", resolved, "error", err)
		}
	}

	args := append(append([]string{}, r.args...), entrypoint, "--output", outputPath)
	cmd := exec.CommandContext(ctx, r.command, args...)
	cmd.Dir = workingDir
	cmd.Stdin = os.Stdin
	cmd.Stderr = os.Stderr
	// stdout is intentionally discarded; the compiler's progress chatter is
	// not part of the build output.

	slog.Info("Compiling", "entrypoint", entrypoint, "output", outputPath, "dir", workingDir)
	if err := cmd.Run(); err != nil {
		return pberrors.CompileFailed(entrypoint, err)
	}
	if _, err := os.Stat(resolved); err != nil {
		return pberrors.ArtifactMissing(resolved)
	}
	return nil
}

// RunCodegen executes the external code generation collaborator. An empty
// command means the project carries no codegen step and the stage is a no-op.
func RunCodegen(ctx context.Context, cfg config.CodegenConfig) error {
	if len(cfg.Command) == 0 {
		slog.Debug("No codegen command configured, skipping")
		return nil
	}
	cmd := exec.CommandContext(ctx, cfg.Command[0], cfg.Command[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	slog.Info("Running code generator", "command", cfg.Command)
	if err := cmd.Run(); err != nil {
		return pberrors.Wrap(err, pberrors.CategoryCodegen, pberrors.SeverityFatal, "code generation failed")
	}
	return nil
}

// Minify runs the opaque external minifier over the artifact at path,
// rewriting it in place. An empty command skips minification.
func Minify(ctx context.Context, cfg config.MinifyConfig, path string) error {
	if len(cfg.Command) == 0 {
		slog.Debug("No minify command configured, skipping")
		return nil
	}
	args := append(append([]string{}, cfg.Command[1:]...), path, "--output", path)
	cmd := exec.CommandContext(ctx, cfg.Command[0], args...)
	cmd.Stderr = os.Stderr
	slog.Info("Minifying artifact", "path", path)
	if err := cmd.Run(); err != nil {
		return pberrors.Wrap(err, pberrors.CategoryMinify, pberrors.SeverityFatal, "minifier failed").
			WithContext("path", path)
	}
	return nil
}
