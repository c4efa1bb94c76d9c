//go:build !windows

package infra

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// SharedReadOpener implements domain.FileOpener. Unix has no share modes,
// so a non-blocking shared flock stands in for them: it fails while a
// writer holds an exclusive lock.
type SharedReadOpener struct{}

// NewSharedReadOpener creates the stability probe opener.
func NewSharedReadOpener() *SharedReadOpener {
	return &SharedReadOpener{}
}

// TryOpenShared opens path read-only and takes then drops a shared lock.
func (SharedReadOpener) TryOpenShared(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_SH|unix.LOCK_NB); err != nil {
		return err
	}
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}

// Ensure SharedReadOpener implements domain.FileOpener.
var _ domain.FileOpener = (*SharedReadOpener)(nil)
