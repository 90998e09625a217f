//go:build linux
// +build linux

package cli

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"winebox/internal/state"
	wberrors "winebox/pkg/errors"
)

var rmForce bool

var rmCmd = &cobra.Command{
	Use:   "rm INSTANCE [INSTANCE...]",
	Short: "删除一个或多个实例",
	Long: `删除一个或多个已停止的实例。

删除实例的状态目录（配置、状态、日志）。Wine 前缀和游戏
目录不受影响。运行中的实例需要先停止，或使用 -f 强制删除。

示例:
  winebox rm dsr-1
  winebox rm -f dsr-1
  winebox rm dsr-1 dsr-2`,
	Args: cobra.MinimumNArgs(1),
	RunE: removeInstances,
}

func init() {
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "强制删除运行中的实例（先 SIGKILL）")
}

func removeInstances(cmd *cobra.Command, args []string) error {
	store, err := state.NewStore(rootDir)
	if err != nil {
		return fmt.Errorf("initialize state store: %w", err)
	}

	hasError := false
	for _, name := range args {
		if err := removeInstance(store, name, rmForce); err != nil {
			fmt.Fprintf(os.Stderr, "Error removing %s: %v\n", name, err)
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

func removeInstance(store *state.Store, name string, force bool) error {
	st, err := store.Get(name)
	if err != nil {
		if errors.Is(err, wberrors.ErrInstanceNotFound) {
			// 删除不存在的实例视为成功，保持幂等
			return nil
		}
		return err
	}

	if st.IsRunning() {
		if !force {
			return fmt.Errorf("%w: stop it first or use -f", wberrors.ErrInstanceRunning)
		}
		if err := killAndWait(st); err != nil {
			return err
		}
		return store.ForceDelete(st.Name)
	}

	return store.Delete(st.Name)
}

// killAndWait 向实例进程组发送 SIGKILL 并等待其消失
func killAndWait(st *state.InstanceState) error {
	pid := st.Pid
	_ = syscall.Kill(-pid, syscall.SIGKILL)
	_ = syscall.Kill(pid, syscall.SIGKILL)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if err := syscall.Kill(pid, 0); err == syscall.ESRCH {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("process %d did not exit after SIGKILL", pid)
}
