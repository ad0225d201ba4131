// Package assistant invokes the external AI coding assistant CLI. The
// assistant is a black box: it receives a task prompt and a target
// directory, and is expected to populate that directory with a complete,
// independently runnable program. Only presence and exit status are
// checked here, never content.
package assistant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"

	"daylab/internal/logger"
	"daylab/internal/version"
)

var semverPattern = regexp.MustCompile(`\d+\.\d+\.\d+`)

// Result captures one assistant invocation.
type Result struct {
	Output   string        `json:"output"`
	Stderr   string        `json:"stderr,omitempty"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// Invoker runs the assistant CLI for one task at a time.
type Invoker struct {
	command    string
	model      string
	minVersion string
	timeout    time.Duration
	logger     *log.Logger

	// Function fields for testing (can be overridden)
	lookPath      func(string) (string, error)
	versionOutput func() (string, error)
	runCommand    func(ctx context.Context, prompt, dir string) (stdout, stderr string, exitCode int, err error)
}

// NewInvoker creates an invoker for the given assistant command.
func NewInvoker(command, model, minVersion string, timeout time.Duration) *Invoker {
	inv := &Invoker{
		command:    command,
		model:      model,
		minVersion: minVersion,
		timeout:    timeout,
		logger:     logger.NewStyledLogger("Assistant"),
	}
	inv.lookPath = func(name string) (string, error) { return exec.LookPath(name) }
	inv.versionOutput = inv.defaultVersionOutput
	inv.runCommand = inv.defaultRunCommand
	return inv
}

// Check verifies the assistant CLI is installed and recent enough.
func (inv *Invoker) Check() error {
	if _, err := inv.lookPath(inv.command); err != nil {
		return &Error{
			Kind: KindNotInstalled,
			Err:  fmt.Errorf("%s CLI not found in PATH: %w", inv.command, err),
		}
	}

	out, err := inv.versionOutput()
	if err != nil {
		return &Error{
			Kind: KindVersion,
			Err:  fmt.Errorf("failed to get %s version: %w", inv.command, err),
		}
	}

	v := semverPattern.FindString(out)
	if v == "" {
		// Unrecognized version output is tolerated; the invocation itself
		// will surface real incompatibilities.
		inv.logger.Warn("Could not parse assistant version", "output", strings.TrimSpace(out))
		return nil
	}

	ok, err := version.AtLeast(v, inv.minVersion)
	if err != nil {
		return &Error{Kind: KindVersion, Err: err}
	}
	if !ok {
		return &Error{
			Kind: KindVersion,
			Err:  fmt.Errorf("%s version %s is below minimum %s", inv.command, v, inv.minVersion),
		}
	}

	inv.logger.Debug("Assistant CLI available", "command", inv.command, "version", v)
	return nil
}

func (inv *Invoker) defaultVersionOutput() (string, error) {
	cmd := exec.Command(inv.command, "--version")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

func (inv *Invoker) defaultRunCommand(ctx context.Context, prompt, dir string) (string, string, int, error) {
	args := []string{"--print", prompt, "--add-dir", dir}
	if inv.model != "" {
		args = append(args, "--model", inv.model)
	}

	cmd := exec.CommandContext(ctx, inv.command, args...)
	cmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	return stdout.String(), stderr.String(), exitCode, err
}

// Invoke runs the assistant with the given prompt against the target
// directory, blocking until it completes or the timeout elapses. The
// returned Result is non-nil even on failure so output can still be saved.
func (inv *Invoker) Invoke(ctx context.Context, promptText, dir string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	inv.logger.Info("Invoking assistant", "command", inv.command, "dir", dir, "timeout", inv.timeout)
	start := time.Now()

	stdout, stderr, exitCode, err := inv.runCommand(ctx, promptText, dir)

	result := &Result{
		Output:   ansi.Strip(stdout),
		Stderr:   ansi.Strip(stderr),
		ExitCode: exitCode,
		Duration: time.Since(start),
	}

	if ctx.Err() == context.DeadlineExceeded {
		return result, &Error{
			Kind: KindTimeout,
			Err:  fmt.Errorf("%s timed out after %s", inv.command, inv.timeout),
		}
	}
	if err != nil {
		return result, &Error{
			Kind: KindExit,
			Err:  fmt.Errorf("%s exited with code %d: %s", inv.command, exitCode, firstLine(result.Stderr)),
		}
	}

	inv.logger.Info("Assistant completed", "duration", result.Duration, "output_bytes", len(result.Output))
	return result, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const limit = 200
	if len(s) > limit {
		s = s[:limit]
	}
	return s
}
