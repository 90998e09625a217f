//go:build linux
// +build linux

package runtime

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"winebox/internal/capability"
	"winebox/internal/config"
	"winebox/internal/state"
	"winebox/pkg/envutil"
)

// RunInstanceShim is the entrypoint for the per-instance shim process.
//
// Why a shim?
// `winebox run --detach` must return immediately, but we still need a parent
// process to:
// - bring up the service stack and supervise the game process
// - reap the game on exit (so we can reliably observe the exit code)
// - tear down the services in reverse order and persist stopped state
//
// This aligns with the industry "per-container shim" model (e.g. containerd-shim).
func RunInstanceShim() {
	instanceDir := os.Getenv(envutil.StatePathEnvVar)
	notify := openShimNotifyWriter()
	notified := false

	fail := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		if notify != nil && !notified {
			fmt.Fprintf(notify, "ERR: %s\n", msg)
			notify.Close()
		}
		fmt.Fprintf(os.Stderr, "shim: %s\n", msg)
		os.Exit(1)
	}

	if instanceDir == "" {
		fail("missing %s environment variable", envutil.StatePathEnvVar)
	}

	// Load config.json (immutable)
	icfg, err := state.LoadConfig(instanceDir)
	if err != nil {
		fail("load config: %v", err)
	}

	// Load state.json (mutable)
	st, err := state.LoadState(instanceDir)
	if err != nil {
		fail("load state: %v", err)
	}

	cfg := runConfigFromInstance(icfg)
	logger := shimLogger(instanceDir)

	onRunning := func() {
		if notify != nil {
			_, _ = fmt.Fprintln(notify, "OK")
			_ = notify.Close()
		}
		notified = true
	}

	exitCode, err := launchInstance(cfg, st, &capability.ExecProvider{}, logger, onRunning)
	if err != nil {
		// 启动失败也要落盘，ps/inspect 才能看到结果
		_ = st.SetStopped(-1)
		fail("launch instance: %v", err)
	}

	_ = exitCode // 已由 launchInstance 持久化到 state.json
	os.Exit(0)
}

// runConfigFromInstance 从持久化配置重建运行配置。
// 时间预算不持久化，使用内置默认值。
func runConfigFromInstance(ic *state.InstanceConfig) *config.RunConfiguration {
	return &config.RunConfiguration{
		Name:           ic.Name,
		Mode:           ic.Mode,
		Prefix:         ic.Prefix,
		TemplatePrefix: config.DefaultPrefix,
		Arch:           ic.Arch,
		GameRoot:       ic.GameRoot,
		GameExe:        ic.GameExe,
		DesktopName:    ic.DesktopName,
		DesktopRes:     ic.DesktopRes,
		ColorDepth:     ic.ColorDepth,
		DisplayNum:     ic.DisplayNum,
		RuntimeDir:     ic.RuntimeDir,
		VNCPort:        ic.VNCPort,
		WineDebug:      ic.WineDebug,
		DLLOverrides:   ic.DLLOverrides,

		PollInterval:    config.DefaultPollInterval,
		AudioTimeout:    config.DefaultAudioTimeout,
		XorgTimeout:     config.DefaultXorgTimeout,
		XvfbTimeout:     config.DefaultXvfbTimeout,
		VNCTimeout:      config.DefaultVNCTimeout,
		PrefixTimeout:   config.DefaultPrefixTimeout,
		SaveInitTimeout: config.DefaultSaveInitTimeout,
	}
}

// shimLogger 返回写入实例日志目录的 logger。
// shim 没有终端，日志必须落文件。打不开时退回 stderr。
func shimLogger(instanceDir string) *log.Logger {
	logPath := filepath.Join(instanceDir, "logs", "shim.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return log.Default()
	}
	logger := log.New(f)
	logger.SetReportTimestamp(true)
	return logger
}

func openShimNotifyWriter() *os.File {
	fdStr := os.Getenv(envutil.ShimNotifyFdEnvVar)
	if strings.TrimSpace(fdStr) == "" {
		return nil
	}

	fd, err := strconv.Atoi(fdStr)
	if err != nil || fd < 3 {
		return nil
	}

	// Note: fd comes from exec.Cmd.ExtraFiles (>= 3).
	return os.NewFile(uintptr(fd), "winebox-shim-notify")
}
