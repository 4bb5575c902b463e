// Package gateways adapts the build pipeline to the filesystem and to the
// external tools it drives.
package gateways

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ochairo/quizpack/internal/domain/entities"
	"github.com/ochairo/quizpack/internal/domain/interfaces"
)

// waitDelay bounds how long Run waits for output after the command is killed
const waitDelay = 5 * time.Second

// CommandRunner executes external programs and captures their output
type CommandRunner struct {
	logger interfaces.Logger
}

// NewCommandRunner creates a new command runner. Commands run without a
// deadline unless one is configured per call.
func NewCommandRunner(logger interfaces.Logger) *CommandRunner {
	return &CommandRunner{logger: interfaces.OrNoOp(logger)}
}

// RunConfig contains configuration for executing an external command.
type RunConfig struct {
	Name        string
	Args        []string
	WorkingDir  string
	Env         map[string]string
	Timeout     time.Duration
	Description string
}

// RunResult contains the result of command execution
type RunResult struct {
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error
}

// Err converts an unsuccessful result into a *entities.CommandError
func (r *RunResult) Err(description string) error {
	if r.Success {
		return nil
	}
	return &entities.CommandError{
		Description: description,
		ExitCode:    r.ExitCode,
		Stderr:      r.Stderr,
		Err:         r.Error,
	}
}

// Run executes the configured command
func (cr *CommandRunner) Run(ctx context.Context, config RunConfig) *RunResult {
	startTime := time.Now()
	result := &RunResult{}

	timeout := config.Timeout
	execCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	//nolint:gosec // G204: Command and arguments come from the build profile
	cmd := exec.CommandContext(execCtx, config.Name, config.Args...)

	if config.WorkingDir != "" {
		cmd.Dir = config.WorkingDir
	}

	if len(config.Env) > 0 {
		env := os.Environ()
		for key, value := range config.Env {
			env = append(env, fmt.Sprintf("%s=%s", key, value))
		}
		cmd.Env = env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Grandchildren may keep the pipes open after the child is killed.
	cmd.WaitDelay = waitDelay

	cr.logger.Debug("running command",
		interfaces.F("description", config.Description),
		interfaces.F("command", config.Name+" "+strings.Join(config.Args, " ")),
		interfaces.F("dir", config.WorkingDir),
	)

	err := cmd.Run()
	result.Duration = time.Since(startTime)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		result.Error = err
		result.ExitCode = -1
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() != nil:
			result.Error = fmt.Errorf("command interrupted: %w", ctx.Err())
		case errors.Is(execCtx.Err(), context.DeadlineExceeded):
			result.Error = fmt.Errorf("command timeout after %v", timeout)
		case errors.As(err, &exitErr):
			result.ExitCode = exitErr.ExitCode()
		}
		return result
	}

	result.Success = true
	result.ExitCode = 0
	return result
}
