//go:build linux
// +build linux

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"winebox/internal/config"
	"winebox/internal/runtime"
	"winebox/internal/state"
	wberrors "winebox/pkg/errors"
)

var (
	// Run 命令标志
	runInstancesPath string
	runAll           bool
	runDetach        bool
)

var runCmd = &cobra.Command{
	Use:   "run MODE [INSTANCE...]",
	Short: "启动游戏实例",
	Long: `按指定模式启动一个或多个游戏实例。

运行模式：
  gui          连接宿主显示器，用 exec 替换当前进程
  headless     虚拟显示（Xorg 或 Xvfb），游戏进程受监管
  headless-vnc 虚拟显示 + x11vnc 远程桌面

不带实例名时按环境变量和内置默认值做一次 ad-hoc 启动。
带实例名（或 --all）时从实例定义文件读取各实例的
display/VNC/prefix 拓扑。多实例必须配合 --detach。

示例:
  winebox run gui
  winebox run headless dsr-1
  winebox run headless-vnc --all --detach
  winebox run headless dsr-1 dsr-2 --detach`,
	Args: requireMode,
	RunE: runInstances,
}

// requireMode 校验位置参数里有运行模式。
// 缺失模式和未知模式一样是用法错误，退出码 2。
func requireMode(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: missing run mode (expected gui, headless or headless-vnc)", wberrors.ErrUsage)
	}
	return nil
}

// unknownModeError 报告无法识别的运行模式
func unknownModeError(arg string) error {
	return fmt.Errorf("%w %q (expected gui, headless or headless-vnc)", wberrors.ErrUnknownMode, arg)
}

func init() {
	runCmd.Flags().StringVar(&runInstancesPath, "instances", config.DefaultInstancesPath,
		"实例定义文件路径")
	runCmd.Flags().BoolVar(&runAll, "all", false, "启动实例定义文件中的全部实例")
	runCmd.Flags().BoolVarP(&runDetach, "detach", "d", false, "后台运行实例并输出实例名")
}

func runInstances(cmd *cobra.Command, args []string) error {
	mode, err := config.ParseMode(args[0])
	if err != nil {
		return unknownModeError(args[0])
	}
	names := args[1:]

	if runAll && len(names) > 0 {
		return fmt.Errorf("cannot combine --all with explicit instance names")
	}

	store, err := state.NewStore(rootDir)
	if err != nil {
		return fmt.Errorf("initialize state store: %w", err)
	}

	// ad-hoc：无实例名，配置全部来自环境变量与默认值
	if !runAll && len(names) == 0 {
		cfg, err := config.Resolve(mode)
		if err != nil {
			return err
		}
		return runOne(store, cfg)
	}

	file, err := config.LoadInstances(runInstancesPath)
	if err != nil {
		return err
	}
	if runAll {
		names = file.Names()
	}
	if len(names) == 0 {
		return fmt.Errorf("instances file %s defines no instances", runInstancesPath)
	}
	if len(names) > 1 && !runDetach {
		return fmt.Errorf("running multiple instances requires --detach")
	}

	for _, name := range names {
		entry, ok := file.Instances[name]
		if !ok {
			return fmt.Errorf("%w: %s not defined in %s", wberrors.ErrInstanceNotFound, name, runInstancesPath)
		}

		cfg, err := config.Resolve(mode)
		if err != nil {
			return err
		}
		if err := cfg.Apply(name, entry); err != nil {
			return fmt.Errorf("instance %s: %w", name, err)
		}

		if err := runOne(store, cfg); err != nil {
			return err
		}
	}
	return nil
}

// runOne 运行单个实例。
// 前台模式用游戏退出码退出进程；后台模式输出实例名后继续。
func runOne(store *state.Store, cfg *config.RunConfiguration) error {
	exitCode, err := runtime.Run(cfg, &runtime.RunOptions{
		StateStore: store,
		Detached:   runDetach,
	})
	if err != nil {
		return err
	}

	if runDetach {
		fmt.Println(cfg.Name)
		return nil
	}

	os.Exit(exitCode)
	return nil // unreachable
}
