// Package vnc 构造 x11vnc 远程桌面服务。
// 仅 headless-vnc 模式启动，且必须在显示服务器就绪之后。
package vnc

import (
	"fmt"
	"os"
	"strconv"

	"winebox/internal/config"
	"winebox/internal/supervisor"
	"winebox/pkg/envutil"
)

// NewService 构造 x11vnc 后台服务。
// 就绪判定是 VNC 端口接受 TCP 连接。运行模式显式要求了远程桌面，
// 所以就绪失败按致命处理。
func NewService(cfg *config.RunConfiguration, logPath string) *supervisor.Service {
	return &supervisor.Service{
		Name: "vnc",
		Path: "x11vnc",
		Args: []string{
			"-display", cfg.Display(),
			"-rfbport", strconv.Itoa(cfg.VNCPort),
			"-forever",
			"-shared",
			"-nopw",
			"-quiet",
		},
		Env:          envutil.FilterWineboxEnv(os.Environ()),
		LogPath:      logPath,
		Ready:        supervisor.TCPAccepts(fmt.Sprintf("127.0.0.1:%d", cfg.VNCPort)),
		ReadyTimeout: cfg.VNCTimeout,
		PollInterval: cfg.PollInterval,
		Critical:     true,
	}
}
