package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	pberrors "git.home.luguber.info/inful/pagebuild/internal/errors"
	"git.home.luguber.info/inful/pagebuild/internal/metrics"
	"git.home.luguber.info/inful/pagebuild/internal/observability"
	"git.home.luguber.info/inful/pagebuild/internal/output"
	"git.home.luguber.info/inful/pagebuild/internal/protocol"
)

// DispatchResult is the terminal state of the message stream: whether any
// error was observed, plus what was materialized. It is a plain value the
// controller composes, not hidden module state.
type DispatchResult struct {
	Failed          bool
	PageErrors      []string
	PagesWritten    int
	RawFilesWritten int
	ManifestWritten bool
}

// Dispatcher demultiplexes the renderer's tagged messages and fans out to
// the materializer, the operator log, and the error record.
type Dispatcher struct {
	materializer *output.Materializer
	recorder     metrics.Recorder
}

// NewDispatcher creates a dispatcher writing through the given materializer.
func NewDispatcher(m *output.Materializer, r metrics.Recorder) *Dispatcher {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	return &Dispatcher{materializer: m, recorder: r}
}

// Dispatch consumes messages in arrival order until the channel closes.
// Page-level failures are recorded and processing continues: a bad page does
// not abort the build. Each handler's writes complete before the next
// message is taken, so all output has landed when Dispatch returns.
//
// The returned error is non-nil only for contract breaches that must abort
// the process; everything else is reported through the result.
func (d *Dispatcher) Dispatch(ctx context.Context, messages <-chan protocol.Message) (DispatchResult, error) {
	var result DispatchResult
	initialDataSeen := false

	for msg := range messages {
		switch m := msg.(type) {
		case protocol.Log:
			observability.InfoContext(ctx, "renderer: "+m.Value)

		case protocol.InitialData:
			if initialDataSeen {
				observability.WarnContext(ctx, "duplicate InitialData message; renderer emits exactly one")
			}
			initialDataSeen = true
			if err := d.materializer.WriteManifest(m.Manifest); err != nil {
				d.recordFailure(ctx, &result, fmt.Sprintf("manifest: %v", err))
				continue
			}
			result.ManifestWritten = true
			for _, f := range m.FilesToGenerate {
				if err := d.materializer.WriteRawFile(f.Path, f.Content); err != nil {
					d.recordFailure(ctx, &result, fmt.Sprintf("file %s: %v", f.Path, err))
					continue
				}
				result.RawFilesWritten++
			}

		case protocol.PageProgress:
			if err := d.materializer.WritePage(m.Page); err != nil {
				d.recordFailure(ctx, &result, fmt.Sprintf("page %q: %v", m.Page.Route, err))
				continue
			}
			result.PagesWritten++

		case protocol.Errors:
			fmt.Fprintln(os.Stderr, m.Details)
			d.recordFailure(ctx, &result, m.Details)

		default:
			// The message union is closed and the decoder enumerates every
			// variant, so this path is unreachable unless the contract is
			// broken in code.
			return result, pberrors.ProtocolViolation(fmt.Sprintf("unhandled message variant %T", msg))
		}
	}
	return result, nil
}

func (d *Dispatcher) recordFailure(ctx context.Context, result *DispatchResult, details string) {
	result.Failed = true
	result.PageErrors = append(result.PageErrors, details)
	d.recorder.IncPageErrors()
	observability.ErrorContext(ctx, "page-level build error", slog.String("details", details))
}
