package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"dicomschema/internal/logging"
)

// Caller dispatches one request to the worker and decodes the success payload
// into result (ignored when result is nil). onProgress may be invoked zero or
// more times before the call returns and never after.
type Caller interface {
	Call(ctx context.Context, requestType string, payload, result any, onProgress func(Progress)) error
}

type callResult struct {
	payload json.RawMessage
	err     error
}

type pendingCall struct {
	done       chan callResult
	onProgress func(Progress)
}

// Transport exchanges newline-delimited JSON frames with the worker over a
// writer/reader pair, correlating responses to requests by id. One reader
// goroutine demuxes all frames; any number of callers may have requests in
// flight concurrently.
type Transport struct {
	logger *slog.Logger

	writeMu sync.Mutex
	writer  io.Writer

	mu      sync.Mutex
	pending map[string]*pendingCall
	closed  bool
	readErr error

	readyOnce sync.Once
	readyCh   chan struct{}
	ready     VersionInfo

	doneCh chan struct{}
}

// NewTransport starts the reader goroutine over the given pipes. Close the
// underlying process (or reader) to shut the transport down; all in-flight
// calls then fail with ErrTransport.
func NewTransport(r io.Reader, w io.Writer, logger *slog.Logger) *Transport {
	t := &Transport{
		logger:  logging.NewComponentLogger(logger, "engine-transport"),
		writer:  w,
		pending: make(map[string]*pendingCall),
		readyCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go t.readLoop(r)
	return t
}

// Call implements Caller. The request runs to completion on the worker even
// if ctx expires first; expiry only abandons the response.
func (t *Transport) Call(ctx context.Context, requestType string, payload, result any, onProgress func(Progress)) error {
	if _, ok := knownRequestTypes[requestType]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRequest, requestType)
	}

	var encoded json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", requestType, err)
		}
		encoded = data
	}

	id := uuid.NewString()
	call := &pendingCall{done: make(chan callResult, 1), onProgress: onProgress}

	t.mu.Lock()
	if t.closed {
		err := t.readErr
		t.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	t.pending[id] = call
	t.mu.Unlock()

	if err := t.writeFrame(requestFrame{ID: id, Type: requestType, Payload: encoded}); err != nil {
		t.removePending(id)
		return fmt.Errorf("%w: write %s frame: %v", ErrTransport, requestType, err)
	}

	t.logger.Debug("request dispatched",
		logging.String(logging.FieldRequestID, id),
		logging.String(logging.FieldRequestType, requestType))

	select {
	case res := <-call.done:
		if res.err != nil {
			return res.err
		}
		if result != nil {
			if err := json.Unmarshal(res.payload, result); err != nil {
				return fmt.Errorf("decode %s response: %w", requestType, err)
			}
		}
		return nil
	case <-ctx.Done():
		t.removePending(id)
		return ctx.Err()
	}
}

// Ready blocks until the worker's one-time ready frame arrives and returns
// its version info.
func (t *Transport) Ready(ctx context.Context) (VersionInfo, error) {
	select {
	case <-t.readyCh:
		return t.ready, nil
	case <-t.doneCh:
		t.mu.Lock()
		err := t.readErr
		t.mu.Unlock()
		return VersionInfo{}, fmt.Errorf("%w: %v", ErrTransport, err)
	case <-ctx.Done():
		return VersionInfo{}, ctx.Err()
	}
}

// Done is closed when the reader loop exits.
func (t *Transport) Done() <-chan struct{} {
	return t.doneCh
}

func (t *Transport) writeFrame(frame requestFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_, err = t.writer.Write(data)
	return err
}

func (t *Transport) removePending(id string) *pendingCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	call := t.pending[id]
	delete(t.pending, id)
	return call
}

func (t *Transport) readLoop(r io.Reader) {
	reader := bufio.NewReader(r)
	var readErr error
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 1 {
			t.handleFrame(line)
		}
		if err != nil {
			if err != io.EOF {
				readErr = err
			} else {
				readErr = io.ErrUnexpectedEOF
			}
			break
		}
	}

	t.mu.Lock()
	t.closed = true
	t.readErr = readErr
	stranded := t.pending
	t.pending = make(map[string]*pendingCall)
	t.mu.Unlock()

	for id, call := range stranded {
		t.logger.Warn("request stranded by transport shutdown",
			logging.String(logging.FieldRequestID, id))
		call.done <- callResult{err: fmt.Errorf("%w: %v", ErrTransport, readErr)}
	}
	close(t.doneCh)
}

func (t *Transport) handleFrame(line []byte) {
	var frame responseFrame
	if err := json.Unmarshal(line, &frame); err != nil {
		t.logger.Warn("discarding malformed frame", logging.Error(err))
		return
	}

	switch frame.Type {
	case frameReady:
		var info VersionInfo
		if len(frame.Payload) > 0 {
			if err := json.Unmarshal(frame.Payload, &info); err != nil {
				t.logger.Warn("malformed ready payload", logging.Error(err))
			}
		}
		t.readyOnce.Do(func() {
			t.ready = info
			close(t.readyCh)
		})

	case frameProgress:
		t.mu.Lock()
		call := t.pending[frame.ID]
		t.mu.Unlock()
		if call == nil || call.onProgress == nil {
			return
		}
		call.onProgress(Progress{
			Percentage:     frame.Percentage,
			Operation:      frame.Operation,
			TotalFiles:     frame.TotalFiles,
			TotalProcessed: frame.TotalProcessed,
		})

	case frameSuccess:
		if call := t.removePending(frame.ID); call != nil {
			call.done <- callResult{payload: frame.Payload}
		}

	case frameError:
		if call := t.removePending(frame.ID); call != nil {
			call.done <- callResult{err: &WorkerError{Message: frame.Message, Stack: frame.Stack}}
		}

	default:
		t.logger.Warn("discarding frame of unknown type",
			logging.String(logging.FieldRequestID, frame.ID),
			logging.String(logging.FieldRequestType, frame.Type))
	}
}

var _ Caller = (*Transport)(nil)
