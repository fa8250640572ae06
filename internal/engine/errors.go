package engine

import "errors"

var (
	// ErrTransport marks frame channel failures: the worker process died,
	// its stdout closed, or a frame could not be written.
	ErrTransport = errors.New("engine transport failure")
	// ErrNotReady is returned by operations invoked before a successful
	// Initialize.
	ErrNotReady = errors.New("engine not initialized")
	// ErrInitialization marks a failed interpreter or package install. The
	// bridge stays retryable; a later Initialize starts over.
	ErrInitialization = errors.New("engine initialization failed")
	// ErrDecode marks a malformed DICOM or protocol file reported by the
	// engine. The message carries the engine's own error text for display.
	ErrDecode = errors.New("file decode failed")
	// ErrUnknownRequest is returned for request types the worker protocol
	// does not define.
	ErrUnknownRequest = errors.New("unknown request type")
)

// WorkerError is the engine-side failure carried by an error frame.
type WorkerError struct {
	Message string
	Stack   string
}

func (e *WorkerError) Error() string {
	return e.Message
}
