package deepseek

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"

	"deepseek/internal/logging"
)

// doneSentinel is the literal termination frame emitted by the service.
const doneSentinel = "[DONE]"

// Stream decodes a live server-sent-events response body into a lazy,
// forward-only sequence of StreamDelta frames. A Stream is not
// restartable; issue a new send to re-consume.
//
// Frames that are empty, are keep-alive pings, or fail to parse as JSON
// are skipped, never aborting the sequence: the remote service is
// uncontrolled and may emit heartbeat or malformed frames.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner

	closeOnce sync.Once
	done      bool
}

// newStream wraps an open response body.
func newStream(body io.ReadCloser) *Stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Stream{body: body, scanner: scanner}
}

// Recv returns the next parsed frame. It blocks until a frame is available
// and returns io.EOF when the transport closes or the termination sentinel
// is observed; frames after the sentinel are never yielded. The body is
// released on every exit path.
func (s *Stream) Recv() (*StreamDelta, error) {
	if s.done {
		return nil, io.EOF
	}

	for s.scanner.Scan() {
		line := s.scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue // blank lines, comments, keep-alive pings
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == doneSentinel {
			logging.StreamDebug("termination sentinel observed")
			s.finish()
			return nil, io.EOF
		}

		var delta StreamDelta
		if err := json.Unmarshal([]byte(data), &delta); err != nil {
			logging.StreamDebug("skipping malformed frame: %v", err)
			continue
		}
		return &delta, nil
	}

	err := s.scanner.Err()
	s.finish()
	if err != nil {
		// Cancellation of the request context surfaces here as a read
		// error; treat it like any other transport close.
		return nil, err
	}
	return nil, io.EOF
}

func (s *Stream) finish() {
	s.done = true
	s.Close()
}

// Close releases the underlying response body. Safe to call more than
// once and concurrently with Recv.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
	})
	return err
}

// Events drains the stream in a background goroutine, delivering frames
// and at most one terminal error over channels. Both channels are closed
// when the stream ends. Cancelling ctx closes the body and stops the
// goroutine cleanly.
func (s *Stream) Events(ctx context.Context) (<-chan StreamDelta, <-chan error) {
	deltas := make(chan StreamDelta, 100)
	errs := make(chan error, 1)

	go func() {
		defer close(deltas)
		defer close(errs)
		defer s.Close()

		// Unblock Recv when the caller cancels.
		stop := context.AfterFunc(ctx, func() { s.Close() })
		defer stop()

		for {
			delta, err := s.Recv()
			if err != nil {
				if err != io.EOF && ctx.Err() == nil {
					errs <- err
				}
				return
			}
			select {
			case deltas <- *delta:
			case <-ctx.Done():
				return
			}
		}
	}()

	return deltas, errs
}

// Text drains the remainder of the stream and concatenates the content
// fragments. Provided for callers that want to record the assistant turn
// themselves; the client never aggregates streamed replies into history on
// its own.
func (s *Stream) Text() (string, error) {
	var b strings.Builder
	for {
		delta, err := s.Recv()
		if err == io.EOF {
			return b.String(), nil
		}
		if err != nil {
			return b.String(), err
		}
		b.WriteString(delta.Content())
	}
}
