// Package renderer executes the compiled content program and exposes its
// tagged message stream as a channel. The program is a black box: pagebuild
// only knows its invocation contract (runner command, artifact path, one
// JSON flags argument) and its output channel (one protocol message per
// stdout line).
package renderer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/pagebuild/internal/config"
	pberrors "git.home.luguber.info/inful/pagebuild/internal/errors"
	"git.home.luguber.info/inful/pagebuild/internal/protocol"
)

// Mode is the single hardcoded build mode passed to the renderer.
const Mode = "elm-to-html-beta"

// Flags is the JSON object handed to the content program as its only
// argument.
type Flags struct {
	Mode string `json:"mode"`
	// Secrets is the full process environment, passed opaquely.
	Secrets map[string]string `json:"secrets"`
	// StaticHTTPCache is passed empty on every run; no persistence exists
	// across runs.
	StaticHTTPCache map[string]json.RawMessage `json:"staticHttpCache"`
}

// DefaultFlags builds the flags for a run: hardcoded mode, environment
// snapshot, empty cache.
func DefaultFlags() Flags {
	secrets := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			secrets[k] = v
		}
	}
	return Flags{
		Mode:            Mode,
		Secrets:         secrets,
		StaticHTTPCache: map[string]json.RawMessage{},
	}
}

// Process is a running content program together with its decoded message
// stream.
type Process struct {
	cmd      *exec.Cmd
	messages chan protocol.Message
	done     chan struct{}
	parseErr error
}

// Start launches the content program and begins decoding its stdout.
// stderr is inherited so renderer diagnostics reach the operator directly.
func Start(ctx context.Context, cfg config.RunnerConfig, artifact string, flags Flags) (*Process, error) {
	flagsJSON, err := json.Marshal(flags)
	if err != nil {
		return nil, fmt.Errorf("encode renderer flags: %w", err)
	}

	args := append(append([]string{}, cfg.Args...), artifact, string(flagsJSON))
	cmd := exec.CommandContext(ctx, cfg.Command, args...)
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("renderer stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, pberrors.Wrap(err, pberrors.CategoryRuntime, pberrors.SeverityFatal, "failed to start content program").
			WithContext("artifact", artifact)
	}
	slog.Info("Content program started", "artifact", artifact, "pid", cmd.Process.Pid)

	p := &Process{
		cmd:      cmd,
		messages: make(chan protocol.Message),
		done:     make(chan struct{}),
	}
	go p.decode(stdout)
	return p, nil
}

// decode reads stdout line by line until EOF or the first protocol
// violation, then closes the message channel.
func (p *Process) decode(stdout io.Reader) {
	defer close(p.done)
	defer close(p.messages)

	reader := bufio.NewReader(stdout)
	for {
		line, err := reader.ReadBytes('\n')
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			msg, decodeErr := protocol.Decode(line)
			if decodeErr != nil {
				// Protocol violations are fatal; kill the program and drain
				// the pipe so Wait cannot deadlock on a blocked writer.
				p.parseErr = decodeErr
				_ = p.cmd.Process.Kill()
				_, _ = io.Copy(io.Discard, reader)
				return
			}
			p.messages <- msg
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			p.parseErr = pberrors.Wrap(err, pberrors.CategoryRuntime, pberrors.SeverityFatal, "reading content program output")
			return
		}
	}
}

// Messages returns the decoded message channel. It is closed when the
// program's output channel completes (EOF) or a protocol violation occurs.
func (p *Process) Messages() <-chan protocol.Message {
	return p.messages
}

// Wait reaps the process after the message channel has closed. A protocol
// violation takes precedence over the exit status; a non-zero exit after a
// clean stream is reported as a runtime error the dispatcher records as a
// build failure.
func (p *Process) Wait() error {
	<-p.done
	waitErr := p.cmd.Wait()
	if p.parseErr != nil {
		return p.parseErr
	}
	if waitErr != nil {
		return pberrors.Wrap(waitErr, pberrors.CategoryRuntime, pberrors.SeverityError, "content program exited abnormally")
	}
	return nil
}
