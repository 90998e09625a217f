//go:build linux
// +build linux

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"winebox/internal/runtime"
	"winebox/internal/state"
)

var (
	execTTY         bool
	execInteractive bool
)

var execCmd = &cobra.Command{
	Use:   "exec [OPTIONS] INSTANCE COMMAND [ARG...]",
	Short: "在实例的环境中执行命令",
	Long: `在运行中实例的环境中执行命令。

命令继承实例的 DISPLAY、WINEPREFIX 和音频环境变量，
可以直接操作该实例的 Wine 前缀和虚拟桌面。

示例:
  winebox exec dsr-1 xdpyinfo
  winebox exec dsr-1 wine taskmgr
  winebox exec -it dsr-1 bash`,
	Args: cobra.MinimumNArgs(2),
	RunE: execInInstance,
}

func init() {
	execCmd.Flags().BoolVarP(&execTTY, "tty", "t", false, "分配伪终端")
	execCmd.Flags().BoolVarP(&execInteractive, "interactive", "i", false, "保持标准输入打开")
}

func execInInstance(cmd *cobra.Command, args []string) error {
	store, err := state.NewStore(rootDir)
	if err != nil {
		return fmt.Errorf("initialize state store: %w", err)
	}

	code, err := runtime.Exec(store, &runtime.ExecConfig{
		Instance:    args[0],
		Command:     args[1:],
		TTY:         execTTY,
		Interactive: execInteractive,
	})
	if err != nil {
		return err
	}

	os.Exit(code)
	return nil
}
