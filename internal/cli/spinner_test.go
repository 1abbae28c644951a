package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/meibo/pkg/observability"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDrawsAndClears(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "Rendering...")
	s.Start()
	time.Sleep(3 * spinnerInterval)
	s.Stop()

	got := out.String()
	if !strings.Contains(got, "Rendering...") {
		t.Errorf("output %q does not contain the message", got)
	}
	if !strings.HasSuffix(got, "\r") {
		t.Errorf("output %q should end by clearing the line", got)
	}
	if s.Cancelled() {
		t.Error("Stop should not count as cancellation")
	}
}

func TestSpinnerSetMessage(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "Parsing...")
	s.Start()
	s.SetMessage("Filling...")
	time.Sleep(3 * spinnerInterval)
	s.Stop()

	if s.Message() != "Filling..." {
		t.Errorf("Message = %q", s.Message())
	}
	if !strings.Contains(out.String(), "Filling...") {
		t.Errorf("output %q does not show the new message", out.String())
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerTo(ctx, &syncBuffer{}, "Testing with context...")
	s.Start()
	cancel()
	time.Sleep(2 * spinnerInterval)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerWithTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := newSpinnerTo(ctx, &syncBuffer{}, "Testing with timeout...")
	s.Start()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context timeout")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinnerTo(context.Background(), &syncBuffer{}, "Testing idempotent stop...")
	s.Start()
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	s := newSpinnerTo(context.Background(), &syncBuffer{}, "never started")
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a spinner that was never started")
	}
}

func TestFollowStages(t *testing.T) {
	t.Cleanup(observability.Reset)
	ctx := context.Background()
	s := newSpinnerTo(ctx, &syncBuffer{}, "")

	restore := followStages(s)
	hooks := observability.Pipeline()

	hooks.OnParseStart(ctx, "出席簿.lay")
	if got := s.Message(); got != "Parsing 出席簿.lay..." {
		t.Errorf("after parse start: %q", got)
	}
	hooks.OnFillStart(ctx, "出席簿", 40)
	if got := s.Message(); got != "Filling 出席簿 with 40 records..." {
		t.Errorf("after fill start: %q", got)
	}
	hooks.OnRenderStart(ctx, "出席簿", 2)
	if got := s.Message(); got != "Rendering 2 pages of 出席簿..." {
		t.Errorf("after render start: %q", got)
	}

	restore()
	observability.Pipeline().OnParseStart(ctx, "other.lay")
	if got := s.Message(); got != "Rendering 2 pages of 出席簿..." {
		t.Errorf("hooks still routed after restore: %q", got)
	}
}
