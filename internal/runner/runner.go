package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// Kind classifies the outcome of one execution.
type Kind int

const (
	// KindSuccess means the program compiled and exited zero.
	KindSuccess Kind = iota
	// KindCompileError means the compile step failed; nothing was run.
	KindCompileError
	// KindRuntimeError means the run step failed or was killed on timeout.
	KindRuntimeError
)

// String returns the stable label persisted in run records.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindCompileError:
		return "compile_error"
	case KindRuntimeError:
		return "runtime_error"
	default:
		return "unknown"
	}
}

// Result is the classified outcome of executing untrusted source text.
type Result struct {
	Kind Kind
	// Output is captured stdout on success, the diagnostic stream otherwise.
	Output   string
	TimedOut bool
	Duration time.Duration
}

// Render formats the result the way it appears in the shared output pane.
func (r Result) Render() string {
	switch r.Kind {
	case KindCompileError:
		return "Compilation Error:\n" + r.Output
	case KindRuntimeError:
		return "Runtime Error:\n" + r.Output
	default:
		return r.Output
	}
}

// Options bound a runner's resource usage. Zero values pick defaults.
type Options struct {
	// WorkRoot is where per-call workspaces are created. Empty means the
	// system temp directory.
	WorkRoot string
	// CompileTimeout bounds the compile step. Default 30s.
	CompileTimeout time.Duration
	// RunTimeout bounds the run step. Default 10s.
	RunTimeout time.Duration
	// MaxOutputBytes caps each captured stream. Default 1 MiB.
	MaxOutputBytes int
}

const (
	defaultCompileTimeout = 30 * time.Second
	defaultRunTimeout     = 10 * time.Second
	defaultMaxOutput      = 1 << 20
)

// Runner executes untrusted source text through an external toolchain.
// Each call gets a disposable workspace that is removed on every exit
// path; no state is shared across calls or with the rest of the server.
type Runner struct {
	backend Backend
	opts    Options
	log     *zerolog.Logger
}

// New constructs a runner for the given backend.
func New(backend Backend, opts Options, logger *zerolog.Logger) *Runner {
	if opts.CompileTimeout <= 0 {
		opts.CompileTimeout = defaultCompileTimeout
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = defaultRunTimeout
	}
	if opts.MaxOutputBytes <= 0 {
		opts.MaxOutputBytes = defaultMaxOutput
	}
	return &Runner{backend: backend, opts: opts, log: logger}
}

// Backend returns the toolchain this runner was built with.
func (r *Runner) Backend() Backend {
	return r.backend
}

// Execute materializes source into a fresh workspace, compiles and runs
// it, and returns the classified result. Compile and runtime failures,
// including the run timeout, come back as a Result, never as an error;
// the error return is reserved for infrastructure faults such as an
// unusable work directory or a missing toolchain binary.
func (r *Runner) Execute(ctx context.Context, source string) (Result, error) {
	start := time.Now()

	dir, err := os.MkdirTemp(r.opts.WorkRoot, "codepad-run-")
	if err != nil {
		return Result{}, fmt.Errorf("create workspace: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			r.log.Warn().Err(rmErr).Str("dir", dir).Msg("failed to remove workspace")
		}
	}()

	src := filepath.Join(dir, r.backend.SourceFile)
	if err := os.WriteFile(src, []byte(source), 0o600); err != nil {
		return Result{}, fmt.Errorf("write source: %w", err)
	}

	if len(r.backend.CompileCmd) > 0 {
		out, exitCode, _, err := r.spawn(ctx, dir, expandArgv(r.backend.CompileCmd, dir, src), r.opts.CompileTimeout)
		if err != nil {
			return Result{}, fmt.Errorf("compile step: %w", err)
		}
		if exitCode != 0 {
			return Result{
				Kind:     KindCompileError,
				Output:   out,
				Duration: time.Since(start),
			}, nil
		}
	}

	out, exitCode, timedOut, err := r.spawn(ctx, dir, expandArgv(r.backend.RunCmd, dir, src), r.opts.RunTimeout)
	if err != nil {
		return Result{}, fmt.Errorf("run step: %w", err)
	}

	res := Result{Duration: time.Since(start)}
	switch {
	case timedOut:
		res.Kind = KindRuntimeError
		res.TimedOut = true
		res.Output = fmt.Sprintf("execution timed out after %s", r.opts.RunTimeout)
	case exitCode != 0:
		res.Kind = KindRuntimeError
		res.Output = out
	default:
		res.Kind = KindSuccess
		res.Output = out
	}
	return res, nil
}

// spawn runs one argv with a hard deadline. The child is placed in its
// own process group so the timeout kill reaches grandchildren too.
// Returns the relevant output stream (stderr on failure, stdout on
// success), the exit code, and whether the deadline fired.
func (r *Runner) spawn(ctx context.Context, dir string, argv []string, timeout time.Duration) (string, int, bool, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	var stdout, stderr boundedBuffer
	stdout.max = r.opts.MaxOutputBytes
	stderr.max = r.opts.MaxOutputBytes
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 2 * time.Second

	runErr := cmd.Run()
	timedOut := runErr != nil && errors.Is(cctx.Err(), context.DeadlineExceeded)

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) && !timedOut {
			// The process never started: missing binary, permissions, etc.
			return "", 0, false, fmt.Errorf("spawn %s: %w", argv[0], runErr)
		}
	}

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	out := stdout.String()
	if exitCode != 0 {
		if diag := stderr.String(); diag != "" {
			out = diag
		}
	}
	return out, exitCode, timedOut, nil
}

// boundedBuffer caps captured output without ever failing the write, so
// a chatty child process keeps draining instead of blocking on a full
// pipe.
type boundedBuffer struct {
	buf bytes.Buffer
	max int
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	if remaining := b.max - b.buf.Len(); remaining > 0 {
		if len(p) > remaining {
			b.buf.Write(p[:remaining])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *boundedBuffer) String() string {
	return b.buf.String()
}
