package client

import "errors"

var (
	// ErrDaemonNotRunning means nothing listens on the inaups socket.
	ErrDaemonNotRunning = errors.New("inaups daemon is not running")

	// ErrPermissionDenied means the socket exists but the caller may not
	// open it. The daemon restricts it to root unless non-root access is
	// allowed.
	ErrPermissionDenied = errors.New("permission denied on inaups socket")

	// ErrNotFound means the daemon has no such endpoint, usually a
	// client/daemon version mismatch.
	ErrNotFound = errors.New("endpoint not found")
)
