//go:build !linux
// +build !linux

package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	psAll    bool
	psQuiet  bool
	psFormat string
)

var psCmd = &cobra.Command{
	Use:   "ps [OPTIONS]",
	Short: "列出实例",
	Long:  "列出游戏实例。（仅支持 Linux）",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("winebox only supports Linux (current OS: %s)", runtime.GOOS)
	},
}

func init() {
	psCmd.Flags().BoolVarP(&psAll, "all", "a", false, "显示所有实例（默认只显示运行中）")
	psCmd.Flags().BoolVarP(&psQuiet, "quiet", "q", false, "只显示实例名")
	psCmd.Flags().StringVar(&psFormat, "format", "table", "格式化输出（table/json）")
}
