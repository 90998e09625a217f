//go:build !linux
// +build !linux

package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect INSTANCE [INSTANCE...]",
	Short: "显示实例的详细信息",
	Long:  "显示一个或多个实例的详细信息。（仅支持 Linux）",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("winebox only supports Linux (current OS: %s)", runtime.GOOS)
	},
}
