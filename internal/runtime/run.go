//go:build linux
// +build linux

package runtime

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"winebox/internal/audio"
	"winebox/internal/capability"
	"winebox/internal/config"
	"winebox/internal/display"
	"winebox/internal/prefix"
	"winebox/internal/state"
	"winebox/internal/supervisor"
	"winebox/internal/vnc"
	"winebox/pkg/envutil"
	wberrors "winebox/pkg/errors"
	"winebox/pkg/idutil"
)

// RunOptions 配置实例运行方式
type RunOptions struct {
	// StateStore 是状态存储（必需）
	StateStore *state.Store
	// Provider 是能力探测实现；nil 使用默认的命令行探测
	Provider capability.Provider
	// Logger 记录编排过程；nil 使用默认 logger
	Logger *log.Logger
	// Detached 表示后台运行（启动 shim 后立即返回）
	Detached bool
}

// Run 使用给定的配置创建并运行一个实例。
//
// 返回游戏进程的退出码。编排自身的失败（服务起不来、找不到
// 可执行文件）通过 error 返回，由 CLI 统一映射为退出码 1。
//
// 注意：这个函数不应该调用 os.Exit（gui 模式的 exec 除外，
// 成功的 exec 不返回）。
func Run(cfg *config.RunConfiguration, opts *RunOptions) (int, error) {
	if opts == nil || opts.StateStore == nil {
		return -1, fmt.Errorf("RunOptions with StateStore is required")
	}
	if opts.Provider == nil {
		opts.Provider = &capability.ExecProvider{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if opts.Detached && cfg.Mode == config.ModeGUI {
		return -1, fmt.Errorf("gui mode cannot run detached (it replaces the calling process)")
	}

	st, err := opts.StateStore.Create(idutil.GenerateID(), state.ConfigFromRun(cfg, opts.Detached))
	if err != nil {
		return -1, fmt.Errorf("create instance state: %w", err)
	}

	// 清理函数：启动失败时删除状态目录
	cleanupOnError := true
	defer func() {
		if cleanupOnError {
			opts.StateStore.ForceDelete(cfg.Name)
		}
	}()

	if opts.Detached {
		// 后台模式：启动 per-instance shim 进程，并等待其将状态更新为 running。
		// run --detach 必须立即返回，但退出码/状态的最终更新需要一个持久的父进程。
		if err := startDetachedShim(st.GetInstanceDir()); err != nil {
			return -1, fmt.Errorf("start instance shim: %w", err)
		}

		cleanupOnError = false
		return 0, nil
	}

	cleanupOnError = false
	return launchInstance(cfg, st, opts.Provider, opts.Logger, nil)
}

// launchInstance 执行完整的实例生命周期：
// 环境准备 → 能力探测 → 服务栈（音频 → 显示 → VNC）→ prefix →
// 游戏进程 → 逆序 teardown。前台与 shim 共用这条路径。
// onRunning 在状态落盘为 running 后回调一次（shim 用它通知父进程）。
func launchInstance(cfg *config.RunConfiguration, st *state.InstanceState, provider capability.Provider, logger *log.Logger, onRunning func()) (int, error) {
	// 运行锁持有到本次启动结束；同一实例的并发启动在这里被挡回
	runLock, err := state.TryAcquireRunLock(st.GetInstanceDir())
	if err != nil {
		return -1, err
	}
	defer runLock.Release()

	sup := supervisor.New(logger)
	defer sup.Teardown()

	if err := config.PrepareEnvironment(cfg); err != nil {
		return -1, err
	}

	profile := provider.Detect()
	logger.Info("capability profile",
		"discrete_gpu", profile.HasDiscreteGPU,
		"model", profile.GPUModel,
		"render_node", profile.HasRenderNode,
		"vulkan", fmt.Sprintf("%d.%d", profile.VulkanMajor, profile.VulkanMinor))

	if err := prefix.Ensure(cfg.Prefix, cfg.TemplatePrefix); err != nil {
		return -1, err
	}

	// 渲染后端覆盖：两个分支每次启动都必须执行，
	// 不能让上次运行留下的覆盖文件继续生效
	forceNative := profile.ShouldForceNative()
	if err := capability.ApplyOverride(cfg.Prefix, forceNative); err != nil {
		return -1, err
	}
	fragment, err := capability.ReadOverride(cfg.Prefix)
	if err != nil {
		return -1, err
	}
	dllOverrides := capability.MergeDLLOverrides(cfg.DLLOverrides, fragment)

	st.Renderer = "builtin"
	if forceNative {
		st.Renderer = "native"
	}
	st.Mode = cfg.Mode
	st.Prefix = cfg.Prefix
	st.GameRoot = cfg.GameRoot
	st.DisplayNum = cfg.DisplayNum
	if cfg.Mode == config.ModeHeadlessVNC {
		st.VNCPort = cfg.VNCPort
	}

	logDir := st.GetLogDir()

	// 信号处理从启动一开始就就位：就绪轮询中途收到终止信号时，
	// 取消 ctx 让轮询立即失败，defer 的 Teardown 清掉已启动的服务
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)
	go func() {
		sig, ok := <-sigCh
		if !ok {
			return
		}
		logger.Info("received signal", "signal", sig)
		cancel()
	}()

	// 音频先行：best-effort，起不来只影响声音
	if _, err := sup.Start(ctx, audio.NewService(cfg, filepath.Join(logDir, "audio.log"))); err != nil {
		logger.Warn("audio service failed to start, continuing without sound", "err", err)
	}

	if cfg.Mode == config.ModeGUI {
		return launchGUI(cfg, st, dllOverrides)
	}

	// 上次崩溃运行的残留会占住 display 与 prefix，显示服务器启动前清掉
	prefix.KillWineserver(wineEnv(cfg, "", ""))
	if err := display.RemoveStaleLocks("/tmp", cfg.DisplayNum); err != nil {
		return -1, err
	}

	displaySvc, err := display.NewService(cfg, profile, st.GetInstanceDir(), filepath.Join(logDir, "display.log"))
	if err != nil {
		return -1, err
	}
	if _, err := sup.Start(ctx, displaySvc); err != nil {
		return -1, err
	}

	if cfg.Mode == config.ModeHeadlessVNC {
		if _, err := sup.Start(ctx, vnc.NewService(cfg, filepath.Join(logDir, "vnc.log"))); err != nil {
			return -1, err
		}
	}

	env := wineEnv(cfg, dllOverrides, cfg.Display())

	if !prefix.IsInitialized(cfg.Prefix) {
		logger.Info("initializing wine prefix", "prefix", cfg.Prefix)
		if err := prefix.Initialize(ctx, cfg, env); err != nil {
			return -1, err
		}
	}

	exePath, err := prefix.LocateExecutable(cfg.GameRoot, cfg.GameExe)
	if err != nil {
		return -1, err
	}
	st.ExePath = exePath
	st.ExeDigest = exeDigest(exePath)
	recordServices(st, sup)

	cmd, err := gameCommand(cfg, exePath, env, filepath.Join(logDir, "game.log"))
	if err != nil {
		return -1, err
	}
	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("start game process: %w", err)
	}

	if err := st.SetRunning(cmd.Process.Pid); err != nil {
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		_ = cmd.Wait()
		return -1, fmt.Errorf("update instance state: %w", err)
	}
	logger.Info("game started", "exe", exePath, "pid", cmd.Process.Pid)
	if onRunning != nil {
		onRunning()
	}

	exitCode := superviseGame(ctx, cmd, logger)
	_ = st.SetStopped(exitCode)

	// 逆序终止服务栈，再兜底清理 wineserver
	sup.Teardown()
	prefix.KillWineserver(env)

	return exitCode, nil
}

// launchGUI 在宿主桌面上用 exec 启动游戏（gui 模式）。
// exec 保留 PID，状态在替换前落盘即可保持准确；游戏退出后
// 由孤儿检测修正为 stopped。
func launchGUI(cfg *config.RunConfiguration, st *state.InstanceState, dllOverrides string) (int, error) {
	if err := checkHostDisplay(); err != nil {
		return -1, err
	}

	exePath, err := prefix.LocateExecutable(cfg.GameRoot, cfg.GameExe)
	if err != nil {
		return -1, err
	}
	st.ExePath = exePath
	st.ExeDigest = exeDigest(exePath)

	if err := st.SetRunning(os.Getpid()); err != nil {
		return -1, fmt.Errorf("update instance state: %w", err)
	}

	// 保留宿主 DISPLAY
	env := wineEnv(cfg, dllOverrides, "")
	if err := execGame(cfg, exePath, env); err != nil {
		_ = st.SetStopped(-1)
		return -1, err
	}
	return 0, nil // unreachable
}

// checkHostDisplay 确认宿主 X 服务器可达且已授权（gui 模式前置检查）。
// 不可达时返回带修复提示的错误，由 CLI 整块输出。
func checkHostDisplay() error {
	if os.Getenv("DISPLAY") == "" {
		return wberrors.WithHints(
			fmt.Errorf("%w: DISPLAY is not set", wberrors.ErrHostDisplayUnavailable),
			"gui mode needs the host X server. Start the container with:",
			"  -e DISPLAY=$DISPLAY -v /tmp/.X11-unix:/tmp/.X11-unix",
			"and allow local connections on the host: xhost +local:",
		)
	}

	probe := exec.Command("xdpyinfo")
	probe.Stdout = nil
	probe.Stderr = nil
	if err := probe.Run(); err != nil {
		return wberrors.WithHints(
			fmt.Errorf("%w: cannot connect to %s", wberrors.ErrHostDisplayUnavailable, os.Getenv("DISPLAY")),
			"the X server refused the connection. On the host run: xhost +local:",
			"and make sure /tmp/.X11-unix is mounted into the container.",
		)
	}
	return nil
}

// superviseGame 等待游戏退出。ctx 被取消（终止信号）时对游戏
// 进程组执行 TERM → 宽限 → KILL，再等待退出码。
func superviseGame(ctx context.Context, cmd *exec.Cmd, logger *log.Logger) int {
	exitCh := make(chan int, 1)
	go func() { exitCh <- waitForExit(cmd) }()

	select {
	case code := <-exitCh:
		return code
	case <-ctx.Done():
		logger.Info("terminating game")
		pid := cmd.Process.Pid
		if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
			_ = syscall.Kill(pid, syscall.SIGTERM)
		}
		select {
		case code := <-exitCh:
			return code
		case <-time.After(config.DefaultStopGraceTimeout):
			_ = syscall.Kill(-pid, syscall.SIGKILL)
			_ = syscall.Kill(pid, syscall.SIGKILL)
			return <-exitCh
		}
	}
}

// recordServices 把监督器的服务句柄快照写入状态，供 inspect 展示
func recordServices(st *state.InstanceState, sup *supervisor.Supervisor) {
	handles := sup.Handles()
	st.Services = make([]state.ServiceRecord, 0, len(handles))
	for _, h := range handles {
		st.Services = append(st.Services, state.ServiceRecord{
			Name:      h.Name,
			Pid:       h.PID,
			LogPath:   h.LogPath,
			StartedAt: h.StartedAt,
		})
	}
}

// startDetachedShim starts a per-instance shim process and waits for a single-line
// status message from it ("OK" or "ERR: ...").
func startDetachedShim(instanceDir string) error {
	notifyR, notifyW, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("create shim notify pipe: %w", err)
	}
	defer notifyR.Close()

	shimCmd := exec.Command("/proc/self/exe")
	shimCmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // detach from controlling terminal
	}

	// Do NOT inherit stdio: otherwise `winebox run --detach` invoked via
	// CombinedOutput() would hang if the shim keeps the parent's pipes open.
	shimCmd.Stdin = nil
	shimCmd.Stdout = nil
	shimCmd.Stderr = nil

	shimCmd.Env = append(os.Environ(),
		envutil.ShimEnvVar+"=1",
		envutil.StatePathEnvVar+"="+instanceDir,
		envutil.ShimNotifyFdEnvVar+"=3",
	)
	shimCmd.ExtraFiles = []*os.File{notifyW} // fd=3 in child

	if err := shimCmd.Start(); err != nil {
		_ = notifyW.Close()
		return fmt.Errorf("start shim process: %w", err)
	}
	_ = notifyW.Close()

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		r := bufio.NewReader(notifyR)
		line, err := r.ReadString('\n')
		ch <- result{line: strings.TrimSpace(line), err: err}
	}()

	select {
	case res := <-ch:
		if res.err == nil && res.line == "OK" {
			_ = shimCmd.Process.Release()
			return nil
		}

		if strings.HasPrefix(res.line, "ERR:") {
			_ = shimCmd.Wait() // best-effort (should exit quickly on ERR)
			return fmt.Errorf("%s", strings.TrimSpace(res.line))
		}

		_ = shimCmd.Wait() // best-effort
		if res.err != nil {
			return fmt.Errorf("shim failed to report status: %w", res.err)
		}
		return fmt.Errorf("shim failed to report status: %q", res.line)

	case <-time.After(shimStartupBudget):
		// Avoid hanging forever if shim is stuck before reporting readiness.
		_ = shimCmd.Process.Kill()
		_ = shimCmd.Wait()
		return fmt.Errorf("timeout waiting for instance shim to start")
	}
}

// shimStartupBudget 是等待 shim 报告 running 的上限。
// shim 要把整个服务栈拉起来（Xorg 冷启动可达三分钟），
// 预算必须盖过最慢的就绪路径。
const shimStartupBudget = 5 * time.Minute
