package deepseek

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func streamOf(frames string) *Stream {
	return newStream(io.NopCloser(strings.NewReader(frames)))
}

func TestStream_YieldsValidFramesUntilSentinel(t *testing.T) {
	// A valid frame, an empty line, a malformed frame, a keep-alive, the
	// sentinel, then more valid frames that must never surface.
	input := strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"one"}}]}`,
		``,
		`data: {broken json`,
		`: keep-alive`,
		`data: {"choices":[{"delta":{"content":"two"}}]}`,
		`data: [DONE]`,
		`data: {"choices":[{"delta":{"content":"after"}}]}`,
	}, "\n")

	s := streamOf(input)

	first, err := s.Recv()
	if err != nil {
		t.Fatalf("Recv failed: %v", err)
	}
	if first.Content() != "one" {
		t.Errorf("Expected 'one', got %q", first.Content())
	}

	second, err := s.Recv()
	if err != nil {
		t.Fatalf("Recv failed: %v", err)
	}
	if second.Content() != "two" {
		t.Errorf("Expected 'two', got %q", second.Content())
	}

	if _, err := s.Recv(); err != io.EOF {
		t.Fatalf("Expected io.EOF at sentinel, got %v", err)
	}
	// The sequence is not restartable: frames after the sentinel are gone.
	if _, err := s.Recv(); err != io.EOF {
		t.Fatalf("Expected io.EOF to be sticky, got %v", err)
	}
}

func TestStream_TransportCloseEndsSequence(t *testing.T) {
	s := streamOf(`data: {"choices":[{"delta":{"content":"only"}}]}` + "\n")

	delta, err := s.Recv()
	if err != nil {
		t.Fatalf("Recv failed: %v", err)
	}
	if delta.Content() != "only" {
		t.Errorf("Expected 'only', got %q", delta.Content())
	}
	if _, err := s.Recv(); err != io.EOF {
		t.Errorf("Expected io.EOF when the transport closes, got %v", err)
	}
}

func TestStream_Text(t *testing.T) {
	s := streamOf(strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"hel"}}]}`,
		`data: {"choices":[{"delta":{"content":"lo"}}]}`,
		`data: [DONE]`,
	}, "\n"))

	text, err := s.Text()
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if text != "hello" {
		t.Errorf("Expected 'hello', got %q", text)
	}
}

func TestStream_FinishReason(t *testing.T) {
	s := streamOf(`data: {"choices":[{"delta":{"content":""},"finish_reason":"stop"}]}` + "\n")

	delta, err := s.Recv()
	if err != nil {
		t.Fatalf("Recv failed: %v", err)
	}
	if delta.FinishReason() != "stop" {
		t.Errorf("Expected finish_reason stop, got %q", delta.FinishReason())
	}
}

func TestStream_Events_DrainsToCompletion(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := streamOf(strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"a"}}]}`,
		`data: {"choices":[{"delta":{"content":"b"}}]}`,
		`data: [DONE]`,
	}, "\n"))

	deltas, errs := s.Events(context.Background())

	var got []string
	for d := range deltas {
		got = append(got, d.Content())
	}
	if err := <-errs; err != nil {
		t.Fatalf("Unexpected stream error: %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Expected [a b], got %v", got)
	}
}

func TestStream_Events_CancellationStopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t)

	pr, pw := io.Pipe()
	s := newStream(pr)

	ctx, cancel := context.WithCancel(context.Background())
	deltas, errs := s.Events(ctx)

	go func() {
		// Feed one frame, then block until the reader goes away.
		io.WriteString(pw, `data: {"choices":[{"delta":{"content":"x"}}]}`+"\n")
		<-ctx.Done()
		pw.Close()
	}()

	select {
	case d := <-deltas:
		if d.Content() != "x" {
			t.Errorf("Expected 'x', got %q", d.Content())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for first delta")
	}

	cancel()

	// Cancellation behaves as a transport close: both channels drain and
	// close without surfacing an error.
	for range deltas {
	}
	if err := <-errs; err != nil {
		t.Errorf("Cancellation must not surface an error, got %v", err)
	}
}
