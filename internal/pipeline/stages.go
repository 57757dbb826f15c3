package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.home.luguber.info/inful/pagebuild/internal/assets"
	"git.home.luguber.info/inful/pagebuild/internal/config"
	"git.home.luguber.info/inful/pagebuild/internal/metrics"
	"git.home.luguber.info/inful/pagebuild/internal/observability"
	"git.home.luguber.info/inful/pagebuild/internal/output"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}
func newCanceledStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// Stage names, used as report keys and metric labels.
const (
	StageEnsureDirs     = "ensure_dirs"
	StageCodegen        = "codegen"
	StageCompileSupport = "compile_support"
	StageStageAssets    = "stage_assets"
	StageCompileContent = "compile_content"
	StageAwaitAssets    = "await_assets"
	StageToModule       = "to_module"
	StageMinify         = "minify"
	StageRunProgram     = "run_program"
)

// BuildState carries mutable state across stages.
type BuildState struct {
	Config       *config.Config
	Report       *BuildReport
	Materializer *output.Materializer
	Recorder     metrics.Recorder

	// assetResult delivers the background asset staging outcome to the
	// await_assets join point.
	assetResult chan error

	start time.Time
}

func newBuildState(cfg *config.Config, report *BuildReport, recorder metrics.Recorder) *BuildState {
	return &BuildState{
		Config:       cfg,
		Report:       report,
		Materializer: output.NewMaterializer(cfg.Paths.Dist).WithRecorder(recorder),
		Recorder:     recorder,
		start:        time.Now(),
	}
}

type namedStage struct {
	name string
	fn   Stage
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal error. Warnings are recorded and execution continues.
func runStages(ctx context.Context, bs *BuildState, stages []namedStage) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.name, ctx.Err())
			bs.Report.recordStageError(se)
			bs.Recorder.IncStageResult(st.name, metrics.ResultCanceled)
			return se
		default:
		}

		stageCtx := observability.WithStage(ctx, st.name)
		t0 := time.Now()
		err := st.fn(stageCtx, bs)
		dur := time.Since(t0)
		bs.Report.StageDurations[st.name] = dur
		bs.Recorder.ObserveStageDuration(st.name, dur)

		if err == nil {
			bs.Recorder.IncStageResult(st.name, metrics.ResultSuccess)
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			// Unknown errors are fatal by default.
			se = newFatalStageError(st.name, err)
		}
		bs.Report.recordStageError(se)
		switch se.Kind {
		case StageErrorWarning:
			bs.Recorder.IncStageResult(st.name, metrics.ResultWarning)
			continue
		case StageErrorCanceled:
			bs.Recorder.IncStageResult(st.name, metrics.ResultCanceled)
			return se
		default:
			bs.Recorder.IncStageResult(st.name, metrics.ResultFatal)
			return se
		}
	}
	return nil
}

// stageAssetsLaunch starts static asset staging in the background. The
// await_assets stage joins it before the module transform so every copy has
// landed before the exit code is decided.
func stageAssetsLaunch(_ context.Context, bs *BuildState) error {
	stager := assets.NewStager(bs.Config.Paths)
	bs.assetResult = make(chan error, 1)
	go func() {
		bs.assetResult <- stager.Stage()
	}()
	return nil
}

func stageAwaitAssets(ctx context.Context, bs *BuildState) error {
	if bs.assetResult == nil {
		return newFatalStageError(StageAwaitAssets, fmt.Errorf("asset staging was never launched"))
	}
	select {
	case err := <-bs.assetResult:
		if err != nil {
			return newFatalStageError(StageAwaitAssets, err)
		}
		return nil
	case <-ctx.Done():
		return newCanceledStageError(StageAwaitAssets, ctx.Err())
	}
}
