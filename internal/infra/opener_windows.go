//go:build windows

package infra

import (
	"golang.org/x/sys/windows"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// SharedReadOpener implements domain.FileOpener. Opening with read access
// and read-only sharing fails while any writer still holds the file.
type SharedReadOpener struct{}

// NewSharedReadOpener creates the stability probe opener.
func NewSharedReadOpener() *SharedReadOpener {
	return &SharedReadOpener{}
}

// TryOpenShared opens and immediately closes path.
func (SharedReadOpener) TryOpenShared(path string) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	h, err := windows.CreateFile(p,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0)
	if err != nil {
		return err
	}
	return windows.CloseHandle(h)
}

// Ensure SharedReadOpener implements domain.FileOpener.
var _ domain.FileOpener = (*SharedReadOpener)(nil)
