package observability

import (
	"context"
	"testing"
)

func TestContextCarriesBuildIDAndStage(t *testing.T) {
	ctx := context.Background()
	ctx = WithBuildID(ctx, "build-42")
	ctx = WithStage(ctx, "compile_content")

	lc := GetContext(ctx)
	if lc.BuildID != "build-42" {
		t.Errorf("build id lost: %+v", lc)
	}
	if lc.Stage != "compile_content" {
		t.Errorf("stage lost: %+v", lc)
	}
}

func TestStageOverwritesPrevious(t *testing.T) {
	ctx := WithStage(context.Background(), "codegen")
	ctx = WithStage(ctx, "minify")
	if got := GetContext(ctx).Stage; got != "minify" {
		t.Errorf("expected latest stage, got %q", got)
	}
}

func TestEmptyContext(t *testing.T) {
	lc := GetContext(context.Background())
	if lc.BuildID != "" || lc.Stage != "" {
		t.Errorf("expected empty log context, got %+v", lc)
	}
}
