//go:build !linux
// +build !linux

package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"winebox/internal/config"
	wberrors "winebox/pkg/errors"
)

var (
	runInstancesPath string
	runAll           bool
	runDetach        bool
)

var runCmd = &cobra.Command{
	Use:   "run MODE [INSTANCE...]",
	Short: "启动游戏实例",
	Long:  "按指定模式启动一个或多个游戏实例。（仅支持 Linux）",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 {
			return fmt.Errorf("%w: missing run mode (expected gui, headless or headless-vnc)", wberrors.ErrUsage)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("winebox only supports Linux (current OS: %s)", runtime.GOOS)
	},
}

func init() {
	runCmd.Flags().StringVar(&runInstancesPath, "instances", config.DefaultInstancesPath,
		"实例定义文件路径")
	runCmd.Flags().BoolVar(&runAll, "all", false, "启动实例定义文件中的全部实例")
	runCmd.Flags().BoolVarP(&runDetach, "detach", "d", false, "后台运行实例并输出实例名")
}
