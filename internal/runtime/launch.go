//go:build linux
// +build linux

package runtime

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sys/unix"

	"winebox/internal/config"
	"winebox/pkg/envutil"
)

// wineEnv 构造 Wine 进程的环境。
// 从当前环境出发，剥离 WINEBOX_* 内部变量，再写入本次启动
// 解析出的配置。display 为空时保留继承的 DISPLAY（gui 模式）。
func wineEnv(cfg *config.RunConfiguration, dllOverrides, display string) []string {
	env := envutil.FilterWineboxEnv(os.Environ())
	env = envutil.SetEnvValue(env, config.EnvPrefix, cfg.Prefix)
	env = envutil.SetEnvValue(env, config.EnvArch, cfg.Arch)
	env = envutil.SetEnvValue(env, config.EnvRuntimeDir, cfg.RuntimeDir)
	env = envutil.SetEnvValue(env, "PULSE_RUNTIME_PATH", cfg.PulseDir())
	env = envutil.SetEnvValue(env, config.EnvWineDebug, cfg.WineDebug)
	if display != "" {
		env = envutil.SetEnvValue(env, "DISPLAY", display)
	}
	if dllOverrides != "" {
		env = envutil.SetEnvValue(env, config.EnvDLLOverrides, dllOverrides)
	}
	return env
}

// gameArgs 构造 wine 的参数。
// 无头模式把游戏装进 Wine 虚拟桌面，分辨率固定，游戏无法
// 改动宿主显示配置；gui 模式直接跑在宿主桌面上。
func gameArgs(cfg *config.RunConfiguration, exePath string, virtualDesktop bool) []string {
	if virtualDesktop {
		return []string{
			"explorer",
			fmt.Sprintf("/desktop=%s,%s", cfg.DesktopName, cfg.DesktopRes),
			exePath,
		}
	}
	return []string{exePath}
}

// gameCommand 构造受监管的游戏进程（无头模式）。
// 自成会话，输出重定向到日志文件；工作目录是可执行文件所在目录，
// 游戏按相对路径找资源文件。
func gameCommand(cfg *config.RunConfiguration, exePath string, env []string, logPath string) (*exec.Cmd, error) {
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open game log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command("wine", gameArgs(cfg, exePath, true)...)
	cmd.Env = env
	cmd.Dir = filepath.Dir(exePath)
	cmd.Stdin = nil
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd, nil
}

// execGame 用 Wine 替换当前进程映像（gui 模式）。
// 成功时不返回；当前 PID 直接变成游戏进程，调用方在 exec 前
// 必须已把状态落盘。
func execGame(cfg *config.RunConfiguration, exePath string, env []string) error {
	winePath, err := exec.LookPath("wine")
	if err != nil {
		return fmt.Errorf("wine not found in PATH: %w", err)
	}

	if err := os.Chdir(filepath.Dir(exePath)); err != nil {
		return fmt.Errorf("chdir to game directory: %w", err)
	}

	argv := append([]string{winePath}, gameArgs(cfg, exePath, false)...)
	if err := unix.Exec(winePath, argv, env); err != nil {
		return fmt.Errorf("exec wine: %w", err)
	}
	return nil // unreachable
}

// exeDigest 计算可执行文件内容摘要，用于记录本次启动的二进制来源。
// best-effort：读不到文件时返回空摘要。
func exeDigest(path string) digest.Digest {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	dg, err := digest.Canonical.FromReader(f)
	if err != nil {
		return ""
	}
	return dg
}

// waitForExit 等待进程退出并返回退出码
func waitForExit(cmd *exec.Cmd) int {
	if err := cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		return -1
	}
	return 0
}
