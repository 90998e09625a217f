//go:build linux
// +build linux

package supervisor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	wberrors "winebox/pkg/errors"
)

// fakeKill 记录收到 SIGTERM 的 PID，并让存活检查立即报告进程已退出
type fakeKill struct {
	termed []int
}

func (f *fakeKill) kill(pid int, sig syscall.Signal) error {
	if sig == syscall.SIGTERM && pid < 0 {
		f.termed = append(f.termed, -pid)
		return nil
	}
	if sig == 0 {
		return syscall.ESRCH
	}
	return nil
}

func startSleeper(t *testing.T, s *Supervisor, name string) *Handle {
	t.Helper()
	h, err := s.Start(context.Background(), &Service{
		Name: name,
		Path: "sleep",
		Args: []string{"60"},
	})
	if err != nil {
		t.Fatalf("start %s: %v", name, err)
	}
	return h
}

func TestStartRecordsHandleImmediately(t *testing.T) {
	s := New(nil)
	defer s.Teardown()

	h := startSleeper(t, s, "audio")
	if h.PID <= 0 {
		t.Fatalf("pid = %d", h.PID)
	}
	if len(s.Handles()) != 1 {
		t.Fatalf("handles = %d, want 1", len(s.Handles()))
	}
	if !h.Ready {
		t.Errorf("service without predicate should be ready at start")
	}
}

func TestTeardownReverseOrderAndOnce(t *testing.T) {
	s := New(nil)
	fk := &fakeKill{}

	a := startSleeper(t, s, "audio")
	d := startSleeper(t, s, "display")
	v := startSleeper(t, s, "vnc")

	// 真实进程先清掉，之后用 fakeKill 观察 teardown 的信号顺序
	for _, h := range []*Handle{a, d, v} {
		_ = syscall.Kill(h.PID, syscall.SIGKILL)
	}
	s.kill = fk.kill

	s.Teardown()
	s.Teardown() // 重复触发不得二次执行

	want := []int{v.PID, d.PID, a.PID}
	if len(fk.termed) != len(want) {
		t.Fatalf("termed = %v, want %v", fk.termed, want)
	}
	for i := range want {
		if fk.termed[i] != want[i] {
			t.Fatalf("teardown order = %v, want reverse start order %v", fk.termed, want)
		}
	}
}

func TestTeardownToleratesGoneProcess(t *testing.T) {
	s := New(nil)

	h, err := s.Start(context.Background(), &Service{
		Name: "short-lived",
		Path: "true",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// 等待进程退出后再 teardown：ESRCH 必须视为成功
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if syscall.Kill(h.PID, 0) == syscall.ESRCH {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	s.Teardown() // 不应 panic，也不应报错
}

func TestStartCriticalReadinessFailure(t *testing.T) {
	s := New(nil)
	defer s.Teardown()

	logPath := filepath.Join(t.TempDir(), "svc.log")
	if err := os.WriteFile(logPath, []byte("boot line 1\nfatal: no device\n"), 0644); err != nil {
		t.Fatalf("seed log: %v", err)
	}

	_, err := s.Start(context.Background(), &Service{
		Name:         "display",
		Path:         "sleep",
		Args:         []string{"60"},
		LogPath:      logPath,
		Ready:        func() bool { return false },
		ReadyTimeout: 50 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
		Critical:     true,
	})
	if !errors.Is(err, wberrors.ErrReadinessTimeout) {
		t.Fatalf("err = %v, want ErrReadinessTimeout", err)
	}

	// 就绪失败的服务句柄必须保留，teardown 仍要清理它
	if len(s.Handles()) != 1 {
		t.Fatalf("handles = %d, want 1", len(s.Handles()))
	}
}

func TestStartNonCriticalReadinessFailureTolerated(t *testing.T) {
	s := New(nil)
	defer s.Teardown()

	h, err := s.Start(context.Background(), &Service{
		Name:         "audio",
		Path:         "sleep",
		Args:         []string{"60"},
		Ready:        func() bool { return false },
		ReadyTimeout: 50 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
		Critical:     false,
	})
	if err != nil {
		t.Fatalf("non-critical readiness failure must not error: %v", err)
	}
	if h.Ready {
		t.Errorf("handle should not be marked ready")
	}
}

func TestStartReadyPathAppearsAfterStart(t *testing.T) {
	s := New(nil)
	defer s.Teardown()

	sock := filepath.Join(t.TempDir(), "native")
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(sock, nil, 0644)
	}()

	h, err := s.Start(context.Background(), &Service{
		Name:         "audio",
		Path:         "sleep",
		Args:         []string{"60"},
		ReadyPath:    sock,
		ReadyTimeout: 2 * time.Second,
		PollInterval: 10 * time.Millisecond,
		Critical:     true,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !h.Ready {
		t.Errorf("handle should be ready once the socket path exists")
	}
}

func TestStartReadyPathTimeout(t *testing.T) {
	s := New(nil)
	defer s.Teardown()

	_, err := s.Start(context.Background(), &Service{
		Name:         "audio",
		Path:         "sleep",
		Args:         []string{"60"},
		ReadyPath:    filepath.Join(t.TempDir(), "never"),
		ReadyTimeout: 50 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
		Critical:     true,
	})
	if !errors.Is(err, wberrors.ErrReadinessTimeout) {
		t.Fatalf("err = %v, want ErrReadinessTimeout", err)
	}
}

func TestStartMissingExecutable(t *testing.T) {
	s := New(nil)

	_, err := s.Start(context.Background(), &Service{
		Name: "ghost",
		Path: "winebox-definitely-missing-binary",
	})
	if err == nil {
		t.Fatalf("expected error for missing executable")
	}
	if len(s.Handles()) != 0 {
		t.Errorf("failed start must not record a handle")
	}
}

func TestTailFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	content := "one\ntwo\nthree\nfour\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	lines, err := TailFile(path, 2)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "three") || !strings.HasPrefix(lines[1], "four") {
		t.Errorf("lines = %v", lines)
	}
}
