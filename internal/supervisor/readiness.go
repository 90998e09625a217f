package supervisor

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	wberrors "winebox/pkg/errors"
)

// Predicate 是服务的就绪判定。必须快速返回、无副作用。
type Predicate func() bool

// Poll 以固定间隔重复执行判定，直到判定为真或预算耗尽。
//
// 不变式：循环必然终止——要么判定为真，要么在 timeout 内返回
// ErrReadinessTimeout，绝不无限等待。间隔保持亚秒级，否则会拖慢
// 对取消信号的响应。
func Poll(ctx context.Context, pred Predicate, interval, timeout time.Duration) error {
	if pred() {
		return nil
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if pred() {
				return nil
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("%w after %s", wberrors.ErrReadinessTimeout, timeout)
			}
		}
	}
}

// WaitForPath 等待路径出现。优先用 fsnotify 监听父目录的创建事件，
// 同时保留轮询兜底（路径可能在 watcher 建立前已出现，或事件丢失）。
func WaitForPath(ctx context.Context, path string, interval, timeout time.Duration) error {
	exists := PathExists(path)
	if exists() {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		defer watcher.Close()
		// 父目录可能尚不存在；添加失败则退回纯轮询
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			watcher = nil
		}
	} else {
		watcher = nil
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var events chan fsnotify.Event
	if watcher != nil {
		events = watcher.Events
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if ev.Has(fsnotify.Create) && ev.Name == path && exists() {
				return nil
			}
		case <-ticker.C:
			if exists() {
				return nil
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("%w waiting for %s", wberrors.ErrReadinessTimeout, path)
			}
		}
	}
}

// PathExists 返回"路径存在"判定。
func PathExists(path string) Predicate {
	return func() bool {
		_, err := os.Stat(path)
		return err == nil
	}
}

// TCPAccepts 返回"TCP 端口接受连接"判定。
func TCPAccepts(addr string) Predicate {
	return func() bool {
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}
}

// CommandSucceeds 返回"外部命令执行成功"判定。
// 用于 xdpyinfo 一类的查询工具：能连上新 display 即视为就绪。
func CommandSucceeds(name string, args ...string) Predicate {
	return func() bool {
		cmd := exec.Command(name, args...)
		cmd.Stdout = nil
		cmd.Stderr = nil
		return cmd.Run() == nil
	}
}

// CommandSucceedsEnv 同 CommandSucceeds，但附加环境变量。
func CommandSucceedsEnv(env []string, name string, args ...string) Predicate {
	return func() bool {
		cmd := exec.Command(name, args...)
		cmd.Env = append(os.Environ(), env...)
		return cmd.Run() == nil
	}
}
