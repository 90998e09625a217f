// Package audio 构造 PulseAudio 服务。
//
// 游戏要求有可用的音频输出设备，容器里用 null sink 满足它。
// 音频是 best-effort：起不来只影响声音，不挡游戏启动。
package audio

import (
	"winebox/internal/config"
	"winebox/internal/supervisor"
)

// NewService 构造 PulseAudio 后台服务。
//
// 就绪判定是 native socket 出现在运行时目录下（fsnotify 监听，
// 轮询兜底）；超时仅告警（Critical=false），运行继续，游戏无声。
func NewService(cfg *config.RunConfiguration, logPath string) *supervisor.Service {
	return &supervisor.Service{
		Name: "audio",
		Path: "pulseaudio",
		Args: []string{
			"--daemonize=no",
			"--exit-idle-time=-1",
			"--disallow-exit",
			"--load=module-null-sink sink_name=auto_null",
			"--load=module-native-protocol-unix",
			"--log-target=stderr",
		},
		Env:          pulseEnv(cfg),
		LogPath:      logPath,
		ReadyPath:    cfg.PulseSocket(),
		ReadyTimeout: cfg.AudioTimeout,
		PollInterval: cfg.PollInterval,
		Critical:     false, // 音频失败不阻塞游戏启动
	}
}

// pulseEnv 返回 PulseAudio 需要的环境。
// XDG_RUNTIME_DIR 决定 native socket 的位置，必须与就绪判定一致。
func pulseEnv(cfg *config.RunConfiguration) []string {
	return append(environ(),
		config.EnvRuntimeDir+"="+cfg.RuntimeDir,
		"PULSE_RUNTIME_PATH="+cfg.PulseDir(),
	)
}
