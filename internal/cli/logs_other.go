//go:build !linux
// +build !linux

package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	logsFollow  bool
	logsTail    string
	logsService string
)

var logsCmd = &cobra.Command{
	Use:   "logs [OPTIONS] INSTANCE",
	Short: "获取实例的日志",
	Long:  "获取实例的日志。（仅支持 Linux）",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("winebox only supports Linux (current OS: %s)", runtime.GOOS)
	},
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "跟踪日志输出")
	logsCmd.Flags().StringVarP(&logsTail, "tail", "n", "all", "显示最后 N 行（默认 \"all\"）")
	logsCmd.Flags().StringVarP(&logsService, "service", "s", "game", "日志来源（game/display/audio/vnc/shim）")
}
