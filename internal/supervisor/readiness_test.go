package supervisor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	wberrors "winebox/pkg/errors"
)

func TestPollSucceedsImmediately(t *testing.T) {
	calls := 0
	pred := func() bool {
		calls++
		return true
	}

	if err := Poll(context.Background(), pred, 10*time.Millisecond, time.Second); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPollSucceedsAfterRetries(t *testing.T) {
	var calls int32
	pred := func() bool {
		return atomic.AddInt32(&calls, 1) >= 3
	}

	if err := Poll(context.Background(), pred, 5*time.Millisecond, time.Second); err != nil {
		t.Fatalf("poll: %v", err)
	}
}

func TestPollTimesOut(t *testing.T) {
	pred := func() bool { return false }

	start := time.Now()
	err := Poll(context.Background(), pred, 10*time.Millisecond, 100*time.Millisecond)
	elapsed := time.Since(start)

	if !errors.Is(err, wberrors.ErrReadinessTimeout) {
		t.Fatalf("err = %v, want ErrReadinessTimeout", err)
	}
	// 轮询必须在 interval × attempts 的量级内终止，不能无限等待
	if elapsed > time.Second {
		t.Errorf("poll took %v, expected bounded wait", elapsed)
	}
}

func TestPollRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	err := Poll(ctx, func() bool { return false }, 10*time.Millisecond, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestWaitForPathExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "socket")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := WaitForPath(context.Background(), path, 10*time.Millisecond, time.Second); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestWaitForPathAppearsLater(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "socket")

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(path, nil, 0644)
	}()

	if err := WaitForPath(context.Background(), path, 20*time.Millisecond, 2*time.Second); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestWaitForPathTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never")

	err := WaitForPath(context.Background(), path, 10*time.Millisecond, 100*time.Millisecond)
	if !errors.Is(err, wberrors.ErrReadinessTimeout) {
		t.Fatalf("err = %v, want ErrReadinessTimeout", err)
	}
}

func TestPathExistsPredicate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")

	if PathExists(path)() {
		t.Errorf("predicate true for missing path")
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !PathExists(path)() {
		t.Errorf("predicate false for existing path")
	}
}

func TestTCPAcceptsPredicate(t *testing.T) {
	if TCPAccepts("127.0.0.1:1")() {
		t.Skip("port 1 unexpectedly accepts connections")
	}
}
