package infra

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// ConfirmPolicy decides how non-conventional archives are confirmed.
type ConfirmPolicy string

const (
	ConfirmAsk    ConfirmPolicy = "ask"    // Ask on the terminal; decline when there is none
	ConfirmAlways ConfirmPolicy = "always" // Extract without asking
	ConfirmNever  ConfirmPolicy = "never"  // Never extract non-conventional archives
)

// ParseConfirmPolicy validates a config value.
func ParseConfirmPolicy(s string) (ConfirmPolicy, error) {
	switch p := ConfirmPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case ConfirmAsk, ConfirmAlways, ConfirmNever:
		return p, nil
	case "":
		return ConfirmAsk, nil
	default:
		return "", fmt.Errorf("unknown confirm policy %q (want ask, always or never)", s)
	}
}

// TerminalPrompter implements domain.CredentialPrompter and domain.Confirmer
// on the controlling terminal. Without a terminal (service mode) every
// password prompt is cancelled.
type TerminalPrompter struct {
	mu          sync.Mutex
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	readSecret  func() (string, error)
	restore     func() // puts the terminal back after an abandoned read
	policy      ConfirmPolicy
	logger      *zap.Logger
}

// NewTerminalPrompter binds to stdin/stdout.
func NewTerminalPrompter(policy ConfirmPolicy, logger *zap.Logger) *TerminalPrompter {
	fd := os.Stdin.Fd()
	interactive := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	p := newPrompter(os.Stdin, os.Stdout, interactive, policy, logger)
	if state, err := term.GetState(int(fd)); err == nil {
		p.restore = func() { _ = term.Restore(int(fd), state) }
	}
	p.readSecret = func() (string, error) {
		b, err := term.ReadPassword(int(fd))
		fmt.Fprintln(p.out)
		return string(b), err
	}
	return p
}

func newPrompter(in io.Reader, out io.Writer, interactive bool, policy ConfirmPolicy, logger *zap.Logger) *TerminalPrompter {
	p := &TerminalPrompter{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: interactive,
		policy:      policy,
		logger:      logger,
	}
	p.readSecret = p.readLine
	return p
}

// Interactive reports whether a terminal is attached.
func (p *TerminalPrompter) Interactive() bool {
	return p.interactive
}

// PromptCredentials asks for a password and an optional 2FA code.
// An empty password cancels. A cancelled ctx abandons the read.
func (p *TerminalPrompter) PromptCredentials(ctx context.Context, filename, hint string) domain.Credentials {
	if !p.interactive {
		p.logger.Info("no terminal attached, password prompt skipped", zap.String("file", filename))
		return domain.Credentials{Cancelled: true}
	}
	if ctx.Err() != nil {
		return domain.Credentials{Cancelled: true}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "\nArchive %q could not be extracted and may need a password.\n", filename)
	if hint != "" {
		fmt.Fprintln(p.out, hint)
	}

	fmt.Fprint(p.out, "Password (leave empty to cancel): ")
	password, err := p.readCtx(ctx, p.readSecret)
	if password == "" || (err != nil && !errors.Is(err, io.EOF)) {
		return domain.Credentials{Cancelled: true}
	}
	fmt.Fprint(p.out, "2FA code (optional): ")
	code, err := p.readCtx(ctx, p.readLine)
	if err != nil && !errors.Is(err, io.EOF) {
		return domain.Credentials{Cancelled: true}
	}

	return domain.Credentials{Password: password, TwoFactorCode: strings.TrimSpace(code)}
}

// Confirm applies the confirm policy, asking on the terminal for "ask".
func (p *TerminalPrompter) Confirm(ctx context.Context, c domain.ArchiveCandidate) bool {
	switch p.policy {
	case ConfirmAlways:
		return true
	case ConfirmNever:
		return false
	}
	if !p.interactive || ctx.Err() != nil {
		p.logger.Info("no terminal attached, declining non-conventional archive", zap.String("file", c.Filename))
		return false
	}

	return p.Ask(fmt.Sprintf("%q is not a common archive type. Extract it?", c.Filename))
}

// Ask prints question and reads a y/N answer. Without a terminal the answer
// is no.
func (p *TerminalPrompter) Ask(question string) bool {
	if !p.interactive {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "\n%s [y/N]: ", question)
	answer, err := p.readCtx(context.Background(), p.readLine)
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// readCtx runs read on its own goroutine so ctx can end the wait. The
// abandoned read keeps the reader until a line arrives; only shutdown
// abandons a read, so nothing reads after it.
func (p *TerminalPrompter) readCtx(ctx context.Context, read func() (string, error)) (string, error) {
	type lineResult struct {
		line string
		err  error
	}
	done := make(chan lineResult, 1)
	go func() {
		line, err := read()
		done <- lineResult{line, err}
	}()

	select {
	case r := <-done:
		return r.line, r.err
	case <-ctx.Done():
		if p.restore != nil {
			p.restore()
		}
		fmt.Fprintln(p.out)
		return "", ctx.Err()
	}
}

// readLine returns one line without its terminator. A final line without a
// newline is returned with io.EOF.
func (p *TerminalPrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if err != nil && line == "" {
		return "", err
	}
	if err != nil {
		return line, io.EOF
	}
	return line, nil
}

// Ensure TerminalPrompter implements both interfaces.
var (
	_ domain.CredentialPrompter = (*TerminalPrompter)(nil)
	_ domain.Confirmer          = (*TerminalPrompter)(nil)
)
