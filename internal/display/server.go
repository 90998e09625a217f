package display

import (
	"fmt"
	"os"
	"path/filepath"

	"winebox/internal/capability"
	"winebox/internal/config"
	"winebox/internal/supervisor"
)

// NewService 按能力策略构造显示服务器服务。
//
// 策略 A（硬件加速）：渲染 xorg.conf 到 confDir 并启动完整 Xorg。
// 策略 B（软件回退）：启动 Xvfb，分辨率与色深直接走命令行。
// 两种策略的就绪判定相同：xdpyinfo 能连上新 display。
func NewService(cfg *config.RunConfiguration, profile capability.Profile, confDir, logPath string) (*supervisor.Service, error) {
	width, height, err := cfg.Resolution()
	if err != nil {
		return nil, err
	}

	hardware := profile.UseHardwareDisplay()

	svc := &supervisor.Service{
		Name:         "display",
		LogPath:      logPath,
		Ready:        supervisor.CommandSucceeds("xdpyinfo", "-display", cfg.Display()),
		ReadyTimeout: cfg.DisplayTimeout(hardware),
		PollInterval: cfg.PollInterval,
		Critical:     true, // 显示服务器挂了，整个运行没有意义
	}

	if hardware {
		confPath := filepath.Join(confDir, fmt.Sprintf("xorg.%d.conf", cfg.DisplayNum))
		params := ConfParams{ColorDepth: cfg.ColorDepth, Width: width, Height: height}
		if err := WriteConf(confPath, params); err != nil {
			return nil, err
		}

		svc.Path = "Xorg"
		svc.Args = []string{
			cfg.Display(),
			"-config", confPath,
			"-noreset",
			"-nolisten", "tcp",
		}
		return svc, nil
	}

	svc.Path = "Xvfb"
	svc.Args = []string{
		cfg.Display(),
		"-screen", "0", fmt.Sprintf("%dx%dx%d", width, height, cfg.ColorDepth),
		"-nolisten", "tcp",
	}
	return svc, nil
}

// RemoveStaleLocks 删除上次崩溃运行留下的 X 锁文件与 socket。
// 不清理会导致 "Server is already active for display N" 启动失败。
// tmpDir 常规为 /tmp，测试注入临时目录。
func RemoveStaleLocks(tmpDir string, displayNum int) error {
	paths := []string{
		filepath.Join(tmpDir, fmt.Sprintf(".X%d-lock", displayNum)),
		filepath.Join(tmpDir, ".X11-unix", fmt.Sprintf("X%d", displayNum)),
	}
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale lock %s: %w", path, err)
		}
	}
	return nil
}
