//go:build !linux
// +build !linux

package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var killSignal string

var killCmd = &cobra.Command{
	Use:   "kill INSTANCE [INSTANCE...]",
	Short: "向运行中的实例发送信号",
	Long:  "向一个或多个运行中的实例发送信号。（仅支持 Linux）",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("winebox only supports Linux (current OS: %s)", runtime.GOOS)
	},
}

func init() {
	killCmd.Flags().StringVarP(&killSignal, "signal", "s", "KILL", "发送给实例的信号")
}
