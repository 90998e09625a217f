//go:build linux
// +build linux

package runtime

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"winebox/internal/config"
	"winebox/pkg/envutil"
)

func testRunConfig(t *testing.T, mode config.Mode) *config.RunConfiguration {
	t.Helper()
	cfg, err := config.ResolveFrom(mode, func(string) string { return "" })
	if err != nil {
		t.Fatalf("ResolveFrom: %v", err)
	}
	return cfg
}

func TestWineEnvSetsWineVariables(t *testing.T) {
	cfg := testRunConfig(t, config.ModeHeadless)
	cfg.Prefix = "/opt/prefix_test"
	cfg.RuntimeDir = "/tmp/xdg_test"

	env := wineEnv(cfg, "", cfg.Display())

	checks := map[string]string{
		config.EnvPrefix:     "/opt/prefix_test",
		config.EnvArch:       cfg.Arch,
		config.EnvRuntimeDir: "/tmp/xdg_test",
		"PULSE_RUNTIME_PATH": "/tmp/xdg_test/pulse",
		"DISPLAY":            cfg.Display(),
	}
	for key, want := range checks {
		got := envutil.GetEnvValue(env, key)
		if got != want {
			t.Errorf("env %s = %q, want %q", key, got, want)
		}
	}
}

func TestWineEnvStripsInternalVariables(t *testing.T) {
	os.Setenv(envutil.ShimEnvVar, "1")
	os.Setenv(envutil.StatePathEnvVar, "/var/lib/winebox/instances/x")
	defer os.Unsetenv(envutil.ShimEnvVar)
	defer os.Unsetenv(envutil.StatePathEnvVar)

	cfg := testRunConfig(t, config.ModeHeadless)
	env := wineEnv(cfg, "", cfg.Display())

	for _, e := range env {
		if strings.HasPrefix(e, "WINEBOX_") {
			t.Errorf("internal variable leaked into wine env: %s", e)
		}
	}
}

func TestWineEnvOmitsEmptyOverrides(t *testing.T) {
	cfg := testRunConfig(t, config.ModeHeadless)

	env := wineEnv(cfg, "", cfg.Display())
	if v := envutil.GetEnvValue(env, config.EnvDLLOverrides); v != "" {
		t.Errorf("expected no %s, got %q", config.EnvDLLOverrides, v)
	}

	env = wineEnv(cfg, "d3d11=n", cfg.Display())
	if v := envutil.GetEnvValue(env, config.EnvDLLOverrides); v != "d3d11=n" {
		t.Errorf("%s = %q, want d3d11=n", config.EnvDLLOverrides, v)
	}
}

func TestWineEnvGUIKeepsInheritedDisplay(t *testing.T) {
	os.Setenv("DISPLAY", ":0")
	defer os.Unsetenv("DISPLAY")

	cfg := testRunConfig(t, config.ModeGUI)
	env := wineEnv(cfg, "", "")

	if got := envutil.GetEnvValue(env, "DISPLAY"); got != ":0" {
		t.Errorf("DISPLAY = %q, want inherited :0", got)
	}
}

func TestGameArgsVirtualDesktop(t *testing.T) {
	cfg := testRunConfig(t, config.ModeHeadless)
	cfg.DesktopName = "ds1"
	cfg.DesktopRes = "1280x720"

	args := gameArgs(cfg, "/opt/game/Game.exe", true)
	want := []string{"explorer", "/desktop=ds1,1280x720", "/opt/game/Game.exe"}
	if len(args) != len(want) {
		t.Fatalf("gameArgs = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("gameArgs[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestGameArgsDirect(t *testing.T) {
	cfg := testRunConfig(t, config.ModeGUI)

	args := gameArgs(cfg, "/opt/game/Game.exe", false)
	if len(args) != 1 || args[0] != "/opt/game/Game.exe" {
		t.Errorf("gameArgs = %v, want just the executable", args)
	}
}

func TestGameCommandSessionAndLog(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "game.log")
	cfg := testRunConfig(t, config.ModeHeadless)

	cmd, err := gameCommand(cfg, "/opt/game/Game.exe", []string{"A=1"}, logPath)
	if err != nil {
		t.Fatalf("gameCommand: %v", err)
	}

	if cmd.SysProcAttr == nil || !cmd.SysProcAttr.Setsid {
		t.Error("game process should start its own session")
	}
	if cmd.Dir != "/opt/game" {
		t.Errorf("cmd.Dir = %q, want /opt/game", cmd.Dir)
	}
	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestExeDigest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.exe")
	if err := os.WriteFile(path, []byte("MZ fake executable"), 0755); err != nil {
		t.Fatal(err)
	}

	dg := exeDigest(path)
	if dg == "" {
		t.Fatal("expected non-empty digest")
	}
	if err := dg.Validate(); err != nil {
		t.Errorf("invalid digest %q: %v", dg, err)
	}

	// 相同内容得到相同摘要
	if dg2 := exeDigest(path); dg2 != dg {
		t.Errorf("digest not stable: %s vs %s", dg, dg2)
	}

	if dg := exeDigest(filepath.Join(dir, "missing.exe")); dg != "" {
		t.Errorf("expected empty digest for missing file, got %s", dg)
	}
}
