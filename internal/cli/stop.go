//go:build linux
// +build linux

package cli

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"winebox/internal/state"
)

var stopTimeout int

var stopCmd = &cobra.Command{
	Use:   "stop INSTANCE [INSTANCE...]",
	Short: "停止运行中的实例",
	Long: `停止一个或多个运行中的实例。

先发送 SIGTERM 信号，等待优雅退出（游戏有机会写存档）。
如果超时后实例仍在运行，则发送 SIGKILL 强制终止。
辅助服务由实例自身的监管进程逆序清理。

示例:
  winebox stop dsr-1
  winebox stop -t 30 dsr-1
  winebox stop dsr-1 dsr-2`,
	Args: cobra.MinimumNArgs(1),
	RunE: stopInstances,
}

func init() {
	stopCmd.Flags().IntVarP(&stopTimeout, "time", "t", 10, "等待实例停止的秒数")
}

func stopInstances(cmd *cobra.Command, args []string) error {
	store, err := state.NewStore(rootDir)
	if err != nil {
		return fmt.Errorf("initialize state store: %w", err)
	}

	hasError := false
	for _, name := range args {
		if err := stopInstance(store, name, stopTimeout); err != nil {
			fmt.Fprintf(os.Stderr, "Error stopping %s: %v\n", name, err)
			hasError = true
		} else {
			fmt.Println(name)
		}
	}

	if hasError {
		os.Exit(1)
	}
	return nil
}

func stopInstance(store *state.Store, name string, timeout int) error {
	st, err := store.Get(name)
	if err != nil {
		return err
	}

	// 已停止，幂等成功
	if !st.IsRunning() {
		return nil
	}

	pid := st.Pid

	// 对游戏进程组发 SIGTERM（游戏自成会话，组信号连带 wine 的子进程）
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
		if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
			if err == syscall.ESRCH {
				st.SetStopped(0)
				return nil
			}
			return fmt.Errorf("send SIGTERM: %w", err)
		}
	}

	// 等待进程退出
	deadline := time.Now().Add(time.Duration(timeout) * time.Second)
	for time.Now().Before(deadline) {
		if err := syscall.Kill(pid, 0); err == syscall.ESRCH {
			st.Reload()
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	// 超时，发送 SIGKILL
	_ = syscall.Kill(-pid, syscall.SIGKILL)
	if err := syscall.Kill(pid, syscall.SIGKILL); err != nil {
		if err == syscall.ESRCH {
			st.Reload()
			return nil
		}
		return fmt.Errorf("send SIGKILL: %w", err)
	}

	time.Sleep(100 * time.Millisecond)
	st.Reload()
	return nil
}
