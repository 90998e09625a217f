//go:build !linux
// +build !linux

package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"winebox/internal/config"
)

var (
	genCount         int
	genBaseName      string
	genOutput        string
	genBaseDisplay   int
	genBaseVNCPort   int
	genPrefixParent  string
	genSkipBootstrap bool
)

var genconfigCmd = &cobra.Command{
	Use:   "genconfig [OPTIONS]",
	Short: "生成多实例定义文件",
	Long:  "生成多实例定义文件。（仅支持 Linux）",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("winebox only supports Linux (current OS: %s)", runtime.GOOS)
	},
}

func init() {
	genconfigCmd.Flags().IntVarP(&genCount, "count", "n", 1, "实例数量")
	genconfigCmd.Flags().StringVar(&genBaseName, "base-name", "dsr", "实例名前缀")
	genconfigCmd.Flags().StringVarP(&genOutput, "output", "o", config.DefaultInstancesPath, "输出文件路径")
	genconfigCmd.Flags().IntVar(&genBaseDisplay, "base-display", config.DefaultDisplayNum, "起始 X display 序号")
	genconfigCmd.Flags().IntVar(&genBaseVNCPort, "base-vnc-port", config.DefaultVNCPort, "起始 VNC 端口")
	genconfigCmd.Flags().StringVar(&genPrefixParent, "prefix-parent", "", "各实例 prefix 的父目录（默认取模板 prefix 的父目录）")
	genconfigCmd.Flags().BoolVar(&genSkipBootstrap, "skip-bootstrap", false, "跳过存档引导，只写实例拓扑")
}
