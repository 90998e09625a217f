//go:build linux
// +build linux

package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"winebox/internal/state"
)

var killSignal string

var killCmd = &cobra.Command{
	Use:   "kill INSTANCE [INSTANCE...]",
	Short: "向运行中的实例发送信号",
	Long: `向一个或多个运行中的实例发送信号。

默认发送 SIGKILL 立即终止，不给游戏写存档的机会。
需要优雅停止请使用 winebox stop。

示例:
  winebox kill dsr-1
  winebox kill -s TERM dsr-1
  winebox kill -s 9 dsr-1 dsr-2`,
	Args: cobra.MinimumNArgs(1),
	RunE: killInstances,
}

func init() {
	killCmd.Flags().StringVarP(&killSignal, "signal", "s", "KILL", "发送给实例的信号")
}

// signalMap 将信号名称映射到信号值
var signalMap = map[string]syscall.Signal{
	"HUP":  syscall.SIGHUP,
	"INT":  syscall.SIGINT,
	"QUIT": syscall.SIGQUIT,
	"ILL":  syscall.SIGILL,
	"TRAP": syscall.SIGTRAP,
	"ABRT": syscall.SIGABRT,
	"BUS":  syscall.SIGBUS,
	"FPE":  syscall.SIGFPE,
	"KILL": syscall.SIGKILL,
	"USR1": syscall.SIGUSR1,
	"SEGV": syscall.SIGSEGV,
	"USR2": syscall.SIGUSR2,
	"PIPE": syscall.SIGPIPE,
	"ALRM": syscall.SIGALRM,
	"TERM": syscall.SIGTERM,
	"CONT": syscall.SIGCONT,
	"STOP": syscall.SIGSTOP,
	"TSTP": syscall.SIGTSTP,
}

// parseSignal 解析信号名称或编号
func parseSignal(s string) (syscall.Signal, error) {
	// 尝试按数字解析
	if num, err := strconv.Atoi(s); err == nil {
		if num < 1 || num > 64 {
			return 0, fmt.Errorf("invalid signal number: %d", num)
		}
		return syscall.Signal(num), nil
	}

	// 按名称解析，允许带 SIG 前缀
	name := strings.ToUpper(s)
	name = strings.TrimPrefix(name, "SIG")
	if sig, ok := signalMap[name]; ok {
		return sig, nil
	}
	return 0, fmt.Errorf("unknown signal: %s", s)
}

func killInstances(cmd *cobra.Command, args []string) error {
	sig, err := parseSignal(killSignal)
	if err != nil {
		return err
	}

	store, err := state.NewStore(rootDir)
	if err != nil {
		return fmt.Errorf("initialize state store: %w", err)
	}

	hasError := false
	for _, name := range args {
		if err := killInstance(store, name, sig); err != nil {
			fmt.Fprintf(os.Stderr, "Error killing %s: %v\n", name, err)
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

func killInstance(store *state.Store, name string, sig syscall.Signal) error {
	st, err := store.Get(name)
	if err != nil {
		return err
	}

	if !st.IsRunning() {
		return fmt.Errorf("instance %s is not running", st.Name)
	}

	pid := st.Pid

	// 信号发给整个进程组，wine 的子进程一并收到
	if err := syscall.Kill(-pid, sig); err != nil {
		if err := syscall.Kill(pid, sig); err != nil {
			if err == syscall.ESRCH {
				// 进程已经不在了，纠正状态
				st.SetStopped(0)
				return nil
			}
			return fmt.Errorf("send signal %v: %w", sig, err)
		}
	}

	return nil
}
