// Package pipeline sequences the build stages and converts the renderer's
// message stream into the deployable output tree.
//
// The stage sequence is linear with no retries: directory setup, code
// generation, support-program compile, asset staging (concurrent with the
// content-program compile), module transform, minification, then the
// renderer run. Any failure before the renderer starts aborts the build;
// once messages flow, failures are per-page and the exit status is decided
// only after the channel closes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/pagebuild/internal/compiler"
	"git.home.luguber.info/inful/pagebuild/internal/config"
	pberrors "git.home.luguber.info/inful/pagebuild/internal/errors"
	"git.home.luguber.info/inful/pagebuild/internal/jsmodule"
	"git.home.luguber.info/inful/pagebuild/internal/metrics"
	"git.home.luguber.info/inful/pagebuild/internal/observability"
	"git.home.luguber.info/inful/pagebuild/internal/renderer"
)

// ErrBuildFailed is returned when the run completed but at least one
// page-level error was observed; the process must exit non-zero.
var ErrBuildFailed = errors.New("build completed with errors")

// Pipeline is the build controller.
type Pipeline struct {
	cfg      *config.Config
	recorder metrics.Recorder
}

// New creates a pipeline for the given configuration.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{cfg: cfg, recorder: metrics.NoopRecorder{}}
}

// WithRecorder injects a metrics recorder. Returns the pipeline for chaining.
func (p *Pipeline) WithRecorder(r metrics.Recorder) *Pipeline {
	if r != nil {
		p.recorder = r
	}
	return p
}

// clientBundlePath is the compiled support program served to browsers.
func (p *Pipeline) clientBundlePath() string {
	return filepath.Join(p.cfg.Paths.Dist, "elm.js")
}

// contentArtifactPath is the compiled content program executed by the runner.
func (p *Pipeline) contentArtifactPath() string {
	return filepath.Join(p.cfg.Paths.Work, "renderer.js")
}

// Run executes the full build. The returned report is always populated and
// persisted; a non-nil error means the process must exit non-zero.
func (p *Pipeline) Run(ctx context.Context) (*BuildReport, error) {
	buildID := uuid.NewString()
	ctx = observability.WithBuildID(ctx, buildID)

	report := NewBuildReport(buildID)
	bs := newBuildState(p.cfg, report, p.recorder)
	observability.InfoContext(ctx, "Starting site build")

	err := runStages(ctx, bs, []namedStage{
		{StageEnsureDirs, p.stageEnsureDirs},
		{StageCodegen, p.stageCodegen},
		{StageCompileSupport, p.stageCompileSupport},
		{StageStageAssets, stageAssetsLaunch},
		{StageCompileContent, p.stageCompileContent},
		{StageAwaitAssets, stageAwaitAssets},
		{StageToModule, p.stageToModule},
		{StageMinify, p.stageMinify},
	})
	if err != nil {
		p.finish(ctx, bs, OutcomeFailed)
		return report, err
	}

	result, err := p.runProgram(ctx, bs)
	report.PagesWritten = result.PagesWritten
	report.RawFilesWritten = result.RawFilesWritten
	report.ManifestWritten = result.ManifestWritten
	report.PageErrors = result.PageErrors
	if err != nil {
		p.finish(ctx, bs, OutcomeFailed)
		return report, err
	}
	if result.Failed {
		p.finish(ctx, bs, OutcomeFailed)
		return report, ErrBuildFailed
	}

	p.finish(ctx, bs, OutcomeSuccess)
	return report, nil
}

// runProgram launches the content program and dispatches its messages until
// the channel closes, then reaps the process. Stage timing is recorded like
// any other stage.
func (p *Pipeline) runProgram(ctx context.Context, bs *BuildState) (DispatchResult, error) {
	stageCtx := observability.WithStage(ctx, StageRunProgram)
	t0 := time.Now()
	defer func() {
		dur := time.Since(t0)
		bs.Report.StageDurations[StageRunProgram] = dur
		p.recorder.ObserveStageDuration(StageRunProgram, dur)
	}()

	proc, err := renderer.Start(stageCtx, p.cfg.Runner, p.contentArtifactPath(), renderer.DefaultFlags())
	if err != nil {
		p.recorder.IncStageResult(StageRunProgram, metrics.ResultFatal)
		return DispatchResult{}, newFatalStageError(StageRunProgram, err)
	}

	dispatcher := NewDispatcher(bs.Materializer, p.recorder)
	result, dispatchErr := dispatcher.Dispatch(stageCtx, proc.Messages())
	waitErr := proc.Wait()

	if dispatchErr != nil {
		p.recorder.IncStageResult(StageRunProgram, metrics.ResultFatal)
		return result, newFatalStageError(StageRunProgram, dispatchErr)
	}
	if waitErr != nil {
		if pberrors.IsCategory(waitErr, pberrors.CategoryProtocol) {
			p.recorder.IncStageResult(StageRunProgram, metrics.ResultFatal)
			return result, newFatalStageError(StageRunProgram, waitErr)
		}
		// Abnormal exit after a clean stream: pages already written stay
		// written; the run is recorded as failed.
		observability.ErrorContext(stageCtx, "content program exited abnormally",
			slog.String("error", waitErr.Error()))
		result.Failed = true
		result.PageErrors = append(result.PageErrors, waitErr.Error())
	}

	if result.Failed {
		p.recorder.IncStageResult(StageRunProgram, metrics.ResultWarning)
	} else {
		p.recorder.IncStageResult(StageRunProgram, metrics.ResultSuccess)
	}
	return result, nil
}

func (p *Pipeline) finish(ctx context.Context, bs *BuildState, outcome string) {
	bs.Report.Outcome = outcome
	bs.Report.Duration = time.Since(bs.start)
	p.recorder.ObserveBuildDuration(bs.Report.Duration)
	p.recorder.IncBuildOutcome(outcome)
	if err := bs.Report.Persist(p.cfg.Paths.Work); err != nil {
		observability.WarnContext(ctx, "failed to persist build report", slog.String("error", err.Error()))
	}
	observability.InfoContext(ctx, "Build finished",
		slog.String("outcome", outcome),
		slog.Int("pages", bs.Report.PagesWritten),
		slog.Duration("duration", bs.Report.Duration))
}

func (p *Pipeline) stageEnsureDirs(_ context.Context, _ *BuildState) error {
	for _, dir := range []string{p.cfg.Paths.Dist, p.cfg.Paths.Work} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func (p *Pipeline) stageCodegen(ctx context.Context, _ *BuildState) error {
	if len(p.cfg.Codegen.Command) > 0 && p.cfg.Codegen.Dir != "" {
		if err := os.MkdirAll(p.cfg.Codegen.Dir, 0755); err != nil {
			return fmt.Errorf("create codegen directory %s: %w", p.cfg.Codegen.Dir, err)
		}
	}
	return compiler.RunCodegen(ctx, p.cfg.Codegen)
}

// stageCompileSupport builds the renderer-support program from the codegen
// working directory into the client bundle. When no generated sources exist
// (no codegen collaborator configured), the support program is the project's
// own entrypoint compiled from the working-directory root.
func (p *Pipeline) stageCompileSupport(ctx context.Context, _ *BuildState) error {
	runner := compiler.NewRunner(p.cfg.Compiler)

	workingDir := p.cfg.Codegen.Dir
	entrypoint := p.cfg.Paths.SupportEntrypoint
	if _, err := os.Stat(workingDir); os.IsNotExist(err) {
		slog.Debug("Codegen directory absent, compiling support program from project root")
		workingDir = ""
		entrypoint = p.cfg.Paths.Entrypoint
	}

	output, err := filepath.Abs(p.clientBundlePath())
	if err != nil {
		return fmt.Errorf("resolve client bundle path: %w", err)
	}
	return runner.Invoke(ctx, entrypoint, output, workingDir)
}

func (p *Pipeline) stageCompileContent(ctx context.Context, _ *BuildState) error {
	runner := compiler.NewRunner(p.cfg.Compiler)
	return runner.Invoke(ctx, p.cfg.Paths.Entrypoint, p.contentArtifactPath(), "")
}

func (p *Pipeline) stageToModule(_ context.Context, _ *BuildState) error {
	return jsmodule.ToModule(p.clientBundlePath())
}

func (p *Pipeline) stageMinify(ctx context.Context, _ *BuildState) error {
	return compiler.Minify(ctx, p.cfg.Minify, p.clientBundlePath())
}
