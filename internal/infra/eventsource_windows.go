//go:build windows

package infra

import (
	"context"
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// notifyBufferSize holds many packed records; a zero-length completion
// means it overflowed and the batch was lost.
const notifyBufferSize = 64 * 1024

const notifyFilter = windows.FILE_NOTIFY_CHANGE_FILE_NAME |
	windows.FILE_NOTIFY_CHANGE_CREATION |
	windows.FILE_NOTIFY_CHANGE_SIZE

// DirectoryEventSource implements domain.EventSource with overlapped
// ReadDirectoryChangesW on a directory handle opened with full sharing.
type DirectoryEventSource struct {
	dir        string
	handle     windows.Handle
	event      windows.Handle
	overlapped windows.Overlapped
	buf        []uint32 // DWORD aligned as FILE_NOTIFY_INFORMATION requires
	armed      bool
}

// NewDirectoryEventSource opens dir for change notification.
func NewDirectoryEventSource(dir string) (domain.EventSource, error) {
	path, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrWatchUnavailable, dir, err)
	}

	h, err := windows.CreateFile(path,
		windows.FILE_LIST_DIRECTORY,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS|windows.FILE_FLAG_OVERLAPPED,
		0)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrWatchUnavailable, dir, err)
	}

	ev, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		windows.CloseHandle(h)
		return nil, fmt.Errorf("%w: create event: %v", domain.ErrWatchUnavailable, err)
	}

	return &DirectoryEventSource{
		dir:    dir,
		handle: h,
		event:  ev,
		buf:    make([]uint32, notifyBufferSize/4),
	}, nil
}

func (s *DirectoryEventSource) bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&s.buf[0])), len(s.buf)*4)
}

// arm issues a read unless one is already outstanding.
func (s *DirectoryEventSource) arm() error {
	if s.armed {
		return nil
	}
	if err := windows.ResetEvent(s.event); err != nil {
		return err
	}
	s.overlapped = windows.Overlapped{HEvent: s.event}
	b := s.bytes()
	if err := windows.ReadDirectoryChanges(s.handle, &b[0], uint32(len(b)), false,
		notifyFilter, nil, &s.overlapped, 0); err != nil {
		return err
	}
	s.armed = true
	return nil
}

// Wait blocks up to timeout for the outstanding read to complete.
func (s *DirectoryEventSource) Wait(ctx context.Context, timeout time.Duration) (domain.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.arm(); err != nil {
		return nil, fmt.Errorf("%w: ReadDirectoryChangesW: %v", domain.ErrWaitFailure, err)
	}

	r, err := windows.WaitForSingleObject(s.event, uint32(timeout.Milliseconds()))
	switch {
	case err != nil:
		return nil, fmt.Errorf("%w: WaitForSingleObject: %v", domain.ErrWaitFailure, err)
	case r == uint32(windows.WAIT_TIMEOUT):
		return nil, domain.ErrWaitTimeout
	case r != windows.WAIT_OBJECT_0:
		return nil, fmt.Errorf("%w: wait returned %#x", domain.ErrWaitFailure, r)
	}

	s.armed = false
	var n uint32
	if err := windows.GetOverlappedResult(s.handle, &s.overlapped, &n, false); err != nil {
		return nil, fmt.Errorf("%w: GetOverlappedResult: %v", domain.ErrWaitFailure, err)
	}

	// Copy so the next read can reuse the buffer while the batch is dispatched.
	out := make([]byte, n)
	copy(out, s.bytes()[:n])
	return NewRawBatch(out), nil
}

// Close cancels the outstanding read and releases both handles.
func (s *DirectoryEventSource) Close() error {
	if s.armed {
		_ = windows.CancelIoEx(s.handle, &s.overlapped)
		var n uint32
		_ = windows.GetOverlappedResult(s.handle, &s.overlapped, &n, true)
		s.armed = false
	}
	err := windows.CloseHandle(s.handle)
	if cerr := windows.CloseHandle(s.event); err == nil {
		err = cerr
	}
	return err
}

// Ensure DirectoryEventSource implements domain.EventSource.
var _ domain.EventSource = (*DirectoryEventSource)(nil)
