//go:build linux
// +build linux

// Package supervisor 实现辅助服务的进程监督：
// 按固定顺序启动后台服务（音频 → 显示 → 远程桌面），每个服务经过
// 有界的就绪轮询后才进入下一阶段；teardown 按启动的逆序发送终止
// 信号，且每次运行至多执行一次。
package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
)

// Supervisor 持有本次运行启动的全部服务句柄。
// teardown 只会对这里记录的句柄发信号，绝不触碰无关进程。
type Supervisor struct {
	logger *log.Logger

	mu      sync.Mutex
	handles []*Handle

	teardownOnce sync.Once

	// kill 可注入，测试中用于记录信号顺序
	kill func(pid int, sig syscall.Signal) error
}

// New 创建监督器。logger 为 nil 时使用默认 logger。
func New(logger *log.Logger) *Supervisor {
	if logger == nil {
		logger = log.Default()
	}
	return &Supervisor{
		logger: logger,
		kill:   syscall.Kill,
	}
}

// Start 启动服务并立即记录句柄（早于就绪确认），随后执行就绪轮询。
//
// 就绪超时对 critical 服务致命（附带日志尾部便于诊断）；
// 对非 critical 服务仅告警，句柄保留在注册表中以便 teardown 清理
// 可能半启动的进程。
func (s *Supervisor) Start(ctx context.Context, svc *Service) (*Handle, error) {
	cmd := exec.Command(svc.Path, svc.Args...)
	cmd.Env = svc.Env
	cmd.Stdin = nil

	// 自成会话：脱离控制终端，成为进程组组长，
	// teardown 时按进程组发信号可以连带清理服务自己 fork 的子进程
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	var logFile *os.File
	if svc.LogPath != "" {
		var err error
		logFile, err = os.OpenFile(svc.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open %s log: %w", svc.Name, err)
		}
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}

	if err := cmd.Start(); err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, fmt.Errorf("start %s: %w", svc.Name, err)
	}
	if logFile != nil {
		logFile.Close()
	}

	handle := &Handle{
		Name:      svc.Name,
		PID:       cmd.Process.Pid,
		LogPath:   svc.LogPath,
		StartedAt: time.Now(),
	}

	s.mu.Lock()
	s.handles = append(s.handles, handle)
	s.mu.Unlock()

	// 后台收割，避免僵尸进程
	go func() { _ = cmd.Wait() }()

	s.logger.Info("service started", "name", svc.Name, "pid", handle.PID)

	var readyErr error
	switch {
	case svc.ReadyPath != "":
		readyErr = WaitForPath(ctx, svc.ReadyPath, svc.PollInterval, svc.ReadyTimeout)
	case svc.Ready != nil:
		readyErr = Poll(ctx, svc.Ready, svc.PollInterval, svc.ReadyTimeout)
	default:
		handle.Ready = true
		return handle, nil
	}

	if readyErr != nil {
		if svc.Critical {
			s.dumpLogTail(svc)
			return handle, fmt.Errorf("%s not ready: %w", svc.Name, readyErr)
		}
		s.logger.Warn("service not ready, continuing without it", "name", svc.Name, "err", readyErr)
		return handle, nil
	}

	handle.Ready = true
	s.logger.Info("service ready", "name", svc.Name)
	return handle, nil
}

// Teardown 按启动的逆序终止全部已记录的服务。
// 幂等：重复调用（信号重复送达）只会执行一次。
func (s *Supervisor) Teardown() {
	s.teardownOnce.Do(func() {
		s.mu.Lock()
		handles := make([]*Handle, len(s.handles))
		copy(handles, s.handles)
		s.mu.Unlock()

		for i := len(handles) - 1; i >= 0; i-- {
			s.stopHandle(handles[i])
		}
	})
}

// stopHandle 对单个句柄执行 TERM → 有界等待 → KILL。
// 进程已不存在（ESRCH）视为成功。
func (s *Supervisor) stopHandle(h *Handle) {
	// 按进程组发信号（Setsid 后 PID 即组长）；失败退回单进程
	if err := s.kill(-h.PID, syscall.SIGTERM); err != nil {
		if err := s.kill(h.PID, syscall.SIGTERM); err != nil {
			if err == syscall.ESRCH {
				return // 已退出，视为成功
			}
			s.logger.Warn("failed to signal service", "name", h.Name, "pid", h.PID, "err", err)
			return
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if err := s.kill(h.PID, 0); err == syscall.ESRCH {
			s.logger.Info("service stopped", "name", h.Name)
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	_ = s.kill(-h.PID, syscall.SIGKILL)
	_ = s.kill(h.PID, syscall.SIGKILL)
	s.logger.Warn("service killed after grace period", "name", h.Name, "pid", h.PID)
}

// Handles 返回已记录句柄的副本（按启动顺序）。
func (s *Supervisor) Handles() []*Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Handle, len(s.handles))
	copy(out, s.handles)
	return out
}

// dumpLogTail 在 critical 服务就绪失败时输出其日志尾部
func (s *Supervisor) dumpLogTail(svc *Service) {
	if svc.LogPath == "" {
		return
	}
	lines, err := TailFile(svc.LogPath, 20)
	if err != nil {
		return
	}
	for _, line := range lines {
		fmt.Fprintf(os.Stderr, "%s | %s", svc.Name, line)
	}
}
