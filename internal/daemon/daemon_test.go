package daemon

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"remindd/internal/trigger"
	logx "remindd/pkg/logx"
)

type countingScanner struct {
	runs  atomic.Int32
	block chan struct{} // when set, Run waits until closed
}

func (c *countingScanner) Run(ctx context.Context, _ time.Time, _ bool) (trigger.Summary, error) {
	c.runs.Add(1)
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
		}
	}
	return trigger.Summary{}, nil
}

func TestTickSkipsWhileScanning(t *testing.T) {
	t.Parallel()
	sc := &countingScanner{block: make(chan struct{})}
	d := New(Config{ScanTimeout: time.Second, Location: time.UTC}, sc, nil, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	go func() {
		close(started)
		d.tick(ctx)
	}()
	<-started
	// Give the first tick a moment to take the single-flight slot.
	for i := 0; i < 100 && sc.runs.Load() == 0; i++ {
		time.Sleep(time.Millisecond)
	}

	d.tick(ctx) // must be skipped
	if got := sc.runs.Load(); got != 1 {
		t.Fatalf("expected 1 scan, got %d", got)
	}

	close(sc.block)
}

func TestRunFirstScanAndShutdown(t *testing.T) {
	t.Parallel()
	sc := &countingScanner{}
	d := New(Config{Schedule: "@every 1h", ScanTimeout: time.Second, Location: time.UTC}, sc, nil, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	for i := 0; i < 200 && sc.runs.Load() == 0; i++ {
		time.Sleep(5 * time.Millisecond)
	}
	if sc.runs.Load() != 1 {
		t.Fatalf("expected immediate first scan, got %d", sc.runs.Load())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func TestRunRejectsBadSchedule(t *testing.T) {
	t.Parallel()
	d := New(Config{Schedule: "every minute or so"}, &countingScanner{}, nil, logx.Nop())
	if err := d.Run(context.Background()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}
