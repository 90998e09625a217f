package audio

import (
	"strings"
	"testing"

	"winebox/internal/config"
)

func TestNewService(t *testing.T) {
	cfg, err := config.ResolveFrom(config.ModeHeadless, func(key string) string {
		if key == config.EnvRuntimeDir {
			return "/tmp/xdg_90"
		}
		return ""
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	svc := NewService(cfg, "/tmp/audio.log")

	if svc.Path != "pulseaudio" {
		t.Errorf("path = %q", svc.Path)
	}
	if svc.Critical {
		t.Errorf("audio must be best-effort, not critical")
	}
	if svc.ReadyPath != "/tmp/xdg_90/pulse/native" {
		t.Errorf("readyPath = %q, want the native socket under the instance runtime dir", svc.ReadyPath)
	}
	if svc.ReadyTimeout != cfg.AudioTimeout {
		t.Errorf("timeout = %v", svc.ReadyTimeout)
	}

	// 环境必须指向实例自己的运行时目录，与就绪判定的 socket 路径一致
	var hasRuntimeDir, hasPulsePath bool
	for _, e := range svc.Env {
		if e == "XDG_RUNTIME_DIR=/tmp/xdg_90" {
			hasRuntimeDir = true
		}
		if e == "PULSE_RUNTIME_PATH=/tmp/xdg_90/pulse" {
			hasPulsePath = true
		}
		if strings.HasPrefix(e, "WINEBOX_") {
			t.Errorf("internal env leaked into service: %s", e)
		}
	}
	if !hasRuntimeDir || !hasPulsePath {
		t.Errorf("missing runtime env (runtimeDir=%v pulsePath=%v)", hasRuntimeDir, hasPulsePath)
	}
}
