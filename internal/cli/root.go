package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	wberrors "winebox/pkg/errors"
)

var (
	// 版本信息
	Version = "0.1.0"

	// 全局标志
	// rootDir 是实例状态根目录
	// 默认值：$WINEBOX_ROOT 环境变量，或 /var/lib/winebox
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "winebox",
	Short: "容器内 Wine 游戏实例启动器",
	Long: `Winebox 在无头容器里启动并监管 Wine 游戏实例。

它负责一次启动的完整生命周期：
  - 探测宿主图形能力，选择显示服务器与渲染后端
  - 按序拉起辅助服务（音频 → 显示 → VNC），每步都有就绪门
  - 准备 Wine prefix 并定位游戏可执行文件
  - 监管游戏进程，退出后逆序清理服务栈`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       Version,
}

// Execute 运行根命令。
// 用法错误（未知运行模式、参数不合法）退出码 2，其余失败退出码 1。
// 环境类错误附带的修复提示跟在错误行后面整块输出。
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		var rerr *wberrors.RemediationError
		if errors.As(err, &rerr) {
			for _, hint := range rerr.Hints {
				fmt.Fprintf(os.Stderr, "  %s\n", hint)
			}
		}
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor 把错误分类为进程退出码：
// 用法错误（缺失或未知的运行模式、参数不合法）2，其余致命错误 1。
func exitCodeFor(err error) int {
	if errors.Is(err, wberrors.ErrUnknownMode) || errors.Is(err, wberrors.ErrUsage) {
		return 2
	}
	return 1
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(genconfigCmd)
	rootCmd.AddCommand(psCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(killCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(execCmd)

	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "",
		"实例状态根目录（默认: $WINEBOX_ROOT 或 /var/lib/winebox）")
}
