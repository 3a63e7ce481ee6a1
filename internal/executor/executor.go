// internal/executor/executor.go
package executor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// Execution outcome states.
const (
	StateSuccess   = "success"
	StateFailure   = "failure"
	StateTimeout   = "timeout"
	StateCancelled = "cancelled"
)

// Result represents the outcome of one external process run
type Result struct {
	State    string
	Output   string
	Error    string
	Duration time.Duration
}

// LineFunc observes one line of combined stdout+stderr output as it is
// produced. It is called from the internal reader goroutine; callers that
// also read Result afterwards are synchronized by Run's return.
type LineFunc func(line string)

// Run executes a binary, streaming its combined output line-by-line to onLine
// (which may be nil) while also capturing it whole. Context cancellation
// kills the process; the partial output captured up to that point is kept.
func Run(ctx context.Context, binary string, args []string, onLine LineFunc) (*Result, error) {
	cmd := exec.CommandContext(ctx, binary, args...)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	start := time.Now()
	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return nil, fmt.Errorf("starting %s: %w", binary, err)
	}

	var buf strings.Builder
	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			buf.WriteString(line)
			buf.WriteByte('\n')
			if onLine != nil {
				onLine(line)
			}
		}
	}()

	waitErr := cmd.Wait()
	pw.Close()
	<-done

	duration := time.Since(start)
	output := buf.String()

	if waitErr != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return &Result{
				State:    StateTimeout,
				Error:    "execution timed out",
				Output:   output,
				Duration: duration,
			}, nil
		case errors.Is(ctx.Err(), context.Canceled):
			return &Result{
				State:    StateCancelled,
				Error:    "execution cancelled",
				Output:   output,
				Duration: duration,
			}, nil
		}

		return &Result{
			State:    StateFailure,
			Error:    waitErr.Error(),
			Output:   output,
			Duration: duration,
		}, nil
	}

	return &Result{
		State:    StateSuccess,
		Output:   output,
		Duration: duration,
	}, nil
}
