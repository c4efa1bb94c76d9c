package domain

import "errors"

var (
	// ErrWatchUnavailable means the watched directory could not be opened.
	// The process keeps running but idles.
	ErrWatchUnavailable = errors.New("watch directory unavailable")

	// ErrWaitFailure is a transient failure of the OS wait primitive.
	ErrWaitFailure = errors.New("directory wait failed")

	// ErrWaitTimeout means the poll timeout elapsed with no changes.
	ErrWaitTimeout = errors.New("directory wait timed out")

	// ErrStabilityTimeout means the file never became readable.
	ErrStabilityTimeout = errors.New("file did not become stable")

	// ErrToolNotFound means the archiver location is unknown.
	ErrToolNotFound = errors.New("archiver not found")

	// ErrExtractionTimeout means the archiver was killed after the deadline.
	ErrExtractionTimeout = errors.New("extraction timed out")

	// ErrExtractionFailed means the archiver exited with a nonzero status.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrMaxAttemptsExceeded blocks further password prompts for a file.
	ErrMaxAttemptsExceeded = errors.New("maximum password attempts exceeded")

	// ErrUserCancelled means the password dialog was dismissed.
	ErrUserCancelled = errors.New("cancelled by user")

	// ErrAlreadyRunning means another monitor holds the instance lock.
	ErrAlreadyRunning = errors.New("another auto_unzip monitor is already running")
)
