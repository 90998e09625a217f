//go:build linux
// +build linux

package runtime

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"winebox/internal/config"
	"winebox/internal/state"
	"winebox/pkg/envutil"
	wberrors "winebox/pkg/errors"
)

// ExecConfig 保存 exec 命令的配置
type ExecConfig struct {
	// Instance 是目标实例名（或唯一前缀）
	Instance string
	// Command 是要执行的命令及参数
	Command []string
	// TTY 表示分配伪终端
	TTY bool
	// Interactive 表示透传 stdin
	Interactive bool
}

// Exec 在运行中实例的环境里执行命令。
//
// 实例没有命名空间隔离，exec 的本质是环境注入：DISPLAY 指向实例的
// 显示服务器，WINEPREFIX 指向实例的 prefix。诊断（xdpyinfo、wineboot）
// 和修改（regedit、winetricks）都经这条路走。
func Exec(store *state.Store, ec *ExecConfig) (int, error) {
	if len(ec.Command) == 0 {
		return -1, fmt.Errorf("no command specified")
	}

	st, err := store.Get(ec.Instance)
	if err != nil {
		return -1, err
	}
	if !st.IsRunning() {
		return -1, fmt.Errorf("%w: %s", wberrors.ErrInstanceStopped, st.Name)
	}

	icfg, err := state.LoadConfig(st.GetInstanceDir())
	if err != nil {
		return -1, err
	}

	binary, err := exec.LookPath(ec.Command[0])
	if err != nil {
		return -1, fmt.Errorf("command not found: %s", ec.Command[0])
	}

	cmd := exec.Command(binary, ec.Command[1:]...)
	cmd.Env = instanceEnv(icfg)

	if ec.TTY {
		return execWithPTY(cmd, ec)
	}

	if ec.Interactive {
		cmd.Stdin = os.Stdin
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			// Go 的 ExitCode() 在被信号杀死时可能返回 -1；这里统一转换为 shell 惯例 128+signal。
			if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
				return 128 + int(ws.Signal()), nil
			}
			return exitErr.ExitCode(), nil
		}
		return -1, err
	}
	return 0, nil
}

// instanceEnv 构造指向实例显示与 prefix 的环境
func instanceEnv(ic *state.InstanceConfig) []string {
	env := envutil.FilterWineboxEnv(os.Environ())
	env = envutil.SetEnvValue(env, "DISPLAY", fmt.Sprintf(":%d", ic.DisplayNum))
	env = envutil.SetEnvValue(env, config.EnvPrefix, ic.Prefix)
	env = envutil.SetEnvValue(env, config.EnvArch, ic.Arch)
	env = envutil.SetEnvValue(env, config.EnvRuntimeDir, ic.RuntimeDir)
	env = envutil.SetEnvValue(env, "PULSE_RUNTIME_PATH", ic.RuntimeDir+"/pulse")
	return env
}
