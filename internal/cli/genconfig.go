//go:build linux
// +build linux

package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"winebox/internal/config"
	"winebox/internal/runtime"
)

var (
	// genconfig 命令标志
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
	Long: `生成多实例定义文件。

每个实例分配独立的 X display、VNC 端口、Wine prefix 与运行时
目录。默认还会逐实例执行存档引导：短暂无头运行游戏，等它创建
数字用户 ID 的存档目录，把发现的 ID 写进实例条目。

示例:
  winebox genconfig -n 3
  winebox genconfig -n 2 --base-display 90 --base-vnc-port 5990
  winebox genconfig -n 4 --skip-bootstrap -o /tmp/instances.json`,
	Args: cobra.NoArgs,
	RunE: generateInstances,
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

func generateInstances(cmd *cobra.Command, args []string) error {
	file, err := runtime.GenerateConfig(&runtime.GenConfigOptions{
		Count:         genCount,
		BaseName:      genBaseName,
		OutputPath:    genOutput,
		BaseDisplay:   genBaseDisplay,
		BaseVNCPort:   genBaseVNCPort,
		PrefixParent:  genPrefixParent,
		SkipBootstrap: genSkipBootstrap,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "INSTANCE\tDISPLAY\tVNC PORT\tPREFIX\tSAVE ID")
	for _, name := range file.Names() {
		entry := file.Instances[name]
		saveID := entry.SaveUserID
		if saveID == "" {
			saveID = "-"
		}
		fmt.Fprintf(w, "%s\t:%d\t%d\t%s\t%s\n", name, entry.DisplayNum, entry.VNCPort, entry.Prefix, saveID)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nwrote %s\n", genOutput)
	return nil
}
