package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"dicomschema/internal/logging"
)

var commandContext = exec.CommandContext

// Process runs the analysis engine worker as a child process speaking the
// frame protocol over its stdin/stdout. Stderr is forwarded line by line to
// the logger.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	logger *slog.Logger
}

// StartProcess launches the worker command. The returned process exposes the
// pipes a Transport attaches to.
func StartProcess(ctx context.Context, command string, args []string, logger *slog.Logger) (*Process, error) {
	if command == "" {
		return nil, fmt.Errorf("engine command required")
	}
	logger = logging.NewComponentLogger(logger, "engine-process")

	cmd := commandContext(ctx, command, args...) //nolint:gosec
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start %s: %v", ErrTransport, command, err)
	}

	p := &Process{cmd: cmd, stdin: stdin, stdout: stdout, logger: logger}
	go p.forwardStderr(stderr)
	return p, nil
}

// Stdin is the worker's request pipe.
func (p *Process) Stdin() io.Writer { return p.stdin }

// Stdout is the worker's response pipe.
func (p *Process) Stdout() io.Reader { return p.stdout }

// Stop closes the worker's stdin, signalling it to drain and exit, then waits
// for the process to terminate.
func (p *Process) Stop() error {
	if err := p.stdin.Close(); err != nil {
		p.logger.Warn("close engine stdin", logging.Error(err))
	}
	if err := p.cmd.Wait(); err != nil {
		return fmt.Errorf("engine process exit: %w", err)
	}
	return nil
}

func (p *Process) forwardStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		p.logger.Debug("engine stderr", logging.String(logging.FieldProgressMessage, line))
	}
}
