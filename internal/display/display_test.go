package display

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"winebox/internal/capability"
	"winebox/internal/config"
)

func testConfig(t *testing.T) *config.RunConfiguration {
	t.Helper()
	cfg, err := config.ResolveFrom(config.ModeHeadless, func(string) string { return "" })
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	return cfg
}

func TestRenderConfSubstitutesAllParams(t *testing.T) {
	data, err := RenderConf(ConfParams{ColorDepth: 24, Width: 1920, Height: 1080})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	conf := string(data)
	for _, want := range []string{
		`Modes    "1920x1080"`,
		"DefaultDepth 24",
		"Virtual  1920 1080",
		`Driver      "dummy"`,
	} {
		if !strings.Contains(conf, want) {
			t.Errorf("rendered conf missing %q", want)
		}
	}
	if strings.Contains(conf, "{{") {
		t.Errorf("rendered conf contains unexpanded placeholder")
	}
}

func TestRenderConfRejectsInvalidParams(t *testing.T) {
	cases := []ConfParams{
		{ColorDepth: 24, Width: 0, Height: 600},
		{ColorDepth: 24, Width: 800, Height: -1},
		{ColorDepth: 0, Width: 800, Height: 600},
	}
	for _, params := range cases {
		if _, err := RenderConf(params); err == nil {
			t.Errorf("params %+v: expected error", params)
		}
	}
}

func TestNewServiceHardwareStrategy(t *testing.T) {
	cfg := testConfig(t)
	confDir := t.TempDir()

	profile := capability.Profile{HasRenderNode: true}
	svc, err := NewService(cfg, profile, confDir, "")
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if svc.Path != "Xorg" {
		t.Errorf("path = %q, want Xorg", svc.Path)
	}
	if !svc.Critical {
		t.Errorf("display service must be critical")
	}
	if svc.ReadyTimeout != cfg.XorgTimeout {
		t.Errorf("timeout = %v, want %v", svc.ReadyTimeout, cfg.XorgTimeout)
	}

	// 配置文件必须已渲染到位
	confPath := filepath.Join(confDir, "xorg.99.conf")
	data, err := os.ReadFile(confPath)
	if err != nil {
		t.Fatalf("read rendered conf: %v", err)
	}
	if !strings.Contains(string(data), "800x600") {
		t.Errorf("conf missing resolution")
	}

	found := false
	for _, arg := range svc.Args {
		if arg == confPath {
			found = true
		}
	}
	if !found {
		t.Errorf("args %v do not reference rendered conf", svc.Args)
	}
}

func TestNewServiceSoftwareFallback(t *testing.T) {
	cfg := testConfig(t)

	// 场景：headless、无独显且无渲染节点 → 虚拟帧缓冲
	profile := capability.Profile{}
	svc, err := NewService(cfg, profile, t.TempDir(), "")
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if svc.Path != "Xvfb" {
		t.Errorf("path = %q, want Xvfb", svc.Path)
	}
	if svc.ReadyTimeout != cfg.XvfbTimeout {
		t.Errorf("timeout = %v, want %v", svc.ReadyTimeout, cfg.XvfbTimeout)
	}

	joined := strings.Join(svc.Args, " ")
	if !strings.Contains(joined, "800x600x24") {
		t.Errorf("args = %q, want screen spec", joined)
	}
}

func TestRemoveStaleLocks(t *testing.T) {
	tmpDir := t.TempDir()
	lockPath := filepath.Join(tmpDir, ".X99-lock")
	socketDir := filepath.Join(tmpDir, ".X11-unix")
	socketPath := filepath.Join(socketDir, "X99")

	if err := os.MkdirAll(socketDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, p := range []string{lockPath, socketPath} {
		if err := os.WriteFile(p, nil, 0644); err != nil {
			t.Fatalf("seed %s: %v", p, err)
		}
	}

	if err := RemoveStaleLocks(tmpDir, 99); err != nil {
		t.Fatalf("remove: %v", err)
	}
	for _, p := range []string{lockPath, socketPath} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s still present", p)
		}
	}

	// 幂等：无锁可删不是错误
	if err := RemoveStaleLocks(tmpDir, 99); err != nil {
		t.Fatalf("second remove: %v", err)
	}
}
