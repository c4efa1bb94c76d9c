package infra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// killWaitDelay bounds how long Wait blocks on inherited pipes after a kill.
const killWaitDelay = 5 * time.Second

// ArchiverRunnerImpl implements domain.ArchiverRunner for the PeaZip CLI.
type ArchiverRunnerImpl struct {
	path           string
	processManager domain.ProcessManager
	logger         *zap.Logger
}

// NewArchiverRunner creates a runner for the archiver at path. An empty path
// means the archiver was not found; Extract reports that on every attempt.
func NewArchiverRunner(path string, pm domain.ProcessManager, logger *zap.Logger) *ArchiverRunnerImpl {
	return &ArchiverRunnerImpl{
		path:           path,
		processManager: pm,
		logger:         logger,
	}
}

// Path returns the archiver location.
func (r *ArchiverRunnerImpl) Path() string {
	return r.path
}

// Run spawns the archiver without a console window and waits up to
// timeout. On timeout the whole process tree is killed. Cancelling ctx does
// not stop a run that has started; only the timeout does.
func (r *ArchiverRunnerImpl) Run(ctx context.Context, args []string, timeout time.Duration) domain.ExtractionResult {
	start := time.Now()
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.path, args...)
	hideWindow(cmd)
	cmd.Cancel = func() error {
		if err := r.processManager.KillTree(cmd.Process.Pid); err != nil {
			r.logger.Warn("failed to kill archiver process tree",
				zap.Int("pid", cmd.Process.Pid),
				zap.Error(err))
			return cmd.Process.Kill()
		}
		return nil
	}
	cmd.WaitDelay = killWaitDelay

	err := cmd.Run()
	result := domain.ExtractionResult{Duration: time.Since(start)}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.Succeeded = true
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.TimedOut = true
		result.ExitStatus = -1
		result.Err = fmt.Errorf("%w after %s", domain.ErrExtractionTimeout, timeout)
	case errors.As(err, &exitErr):
		result.ExitStatus = exitErr.ExitCode()
		result.Err = fmt.Errorf("%w: exit status %d", domain.ErrExtractionFailed, result.ExitStatus)
	default:
		result.ExitStatus = -1
		result.Err = fmt.Errorf("start archiver: %w", err)
	}
	return result
}

// ArchiverLocator finds the PeaZip executable.
type ArchiverLocator struct {
	// Configured is an explicit path from the config file; it wins when it exists.
	Configured string
	// Registry returns install directories recorded by the installer.
	Registry func() []string
	// Fallbacks are well-known install paths for this OS.
	Fallbacks []string
	// ExecDir is the directory of the running binary, for a portable PeaZip next to it.
	ExecDir string
	// LookPath searches PATH.
	LookPath func(file string) (string, error)
}

// NewArchiverLocator returns a locator with the platform defaults.
func NewArchiverLocator(configured string) *ArchiverLocator {
	execDir := ""
	if exe, err := os.Executable(); err == nil {
		execDir = filepath.Dir(exe)
	}
	return &ArchiverLocator{
		Configured: configured,
		Registry:   registryInstallDirs,
		Fallbacks:  defaultArchiverPaths(),
		ExecDir:    execDir,
		LookPath:   exec.LookPath,
	}
}

// Locate returns the first existing candidate, or "" when none exists.
func (l *ArchiverLocator) Locate() string {
	for _, c := range l.Candidates() {
		if fileExists(c) {
			return c
		}
	}
	if l.LookPath != nil {
		if p, err := l.LookPath(archiverBinary()); err == nil {
			return p
		}
	}
	return ""
}

// Candidates lists the paths Locate checks, in order, excluding PATH.
func (l *ArchiverLocator) Candidates() []string {
	var out []string
	if l.Configured != "" {
		out = append(out, l.Configured)
	}
	if l.Registry != nil {
		for _, dir := range l.Registry() {
			out = append(out, filepath.Join(dir, archiverBinary()))
		}
	}
	out = append(out, l.Fallbacks...)
	if l.ExecDir != "" {
		out = append(out, filepath.Join(l.ExecDir, "PeaZip", archiverBinary()))
	}
	return out
}

func archiverBinary() string {
	if runtime.GOOS == "windows" {
		return "peazip.exe"
	}
	return "peazip"
}

func defaultArchiverPaths() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\Program Files\PeaZip\peazip.exe`,
			`C:\Program Files (x86)\PeaZip\peazip.exe`,
			`C:\PeaZip\peazip.exe`,
			`C:\Tools\PeaZip\peazip.exe`,
		}
	case "darwin":
		return []string{
			"/Applications/peazip.app/Contents/MacOS/peazip",
			"/usr/local/bin/peazip",
			"/opt/homebrew/bin/peazip",
		}
	default:
		return []string{
			"/usr/bin/peazip",
			"/usr/local/bin/peazip",
			"/opt/peazip/peazip",
			"/usr/lib/peazip/peazip",
		}
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Ensure ArchiverRunnerImpl implements domain.ArchiverRunner.
var _ domain.ArchiverRunner = (*ArchiverRunnerImpl)(nil)
