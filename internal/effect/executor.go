package effect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

// Executor runs effect binaries with a per-invocation timeout.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates a new Executor with the given execution timeout.
func NewExecutor(timeout time.Duration) *Executor {
	return &Executor{
		timeout: timeout,
	}
}

// Execute delivers an event to an effect binary. The event is marshalled
// to JSON and written to the binary's stdin; stdout must contain a single
// JSON Response. The binary runs in its own directory.
func (e *Executor) Execute(effect *Effect, ev *Event) (*Response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, effect.Executable)
	cmd.Dir = effect.Path

	evJSON, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	cmd.Stdin = bytes.NewReader(evJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("effect execution timeout after %s", e.timeout)
	}
	if err != nil {
		if msg := stderr.String(); msg != "" {
			return nil, fmt.Errorf("effect execution failed: %w, stderr: %s", err, msg)
		}
		return nil, fmt.Errorf("effect execution failed: %w", err)
	}

	var response Response
	if err := json.Unmarshal(stdout.Bytes(), &response); err != nil {
		return nil, fmt.Errorf("failed to parse effect response: %w, stdout: %s", err, stdout.String())
	}

	return &response, nil
}
