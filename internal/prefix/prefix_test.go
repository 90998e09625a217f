package prefix

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	wberrors "winebox/pkg/errors"
)

func TestIsInitialized(t *testing.T) {
	dir := t.TempDir()
	if IsInitialized(dir) {
		t.Fatalf("empty prefix reported initialized")
	}

	if err := os.WriteFile(filepath.Join(dir, "system.reg"), nil, 0644); err != nil {
		t.Fatalf("seed system.reg: %v", err)
	}
	if !IsInitialized(dir) {
		t.Fatalf("prefix with system.reg not reported initialized")
	}

	dir2 := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir2, ReadyMarker), []byte("ok\n"), 0644); err != nil {
		t.Fatalf("seed marker: %v", err)
	}
	if !IsInitialized(dir2) {
		t.Fatalf("prefix with ready marker not reported initialized")
	}
}

func TestEnsureClonesTemplate(t *testing.T) {
	template := t.TempDir()
	if err := os.MkdirAll(filepath.Join(template, "drive_c", "windows"), 0755); err != nil {
		t.Fatalf("mkdir template: %v", err)
	}
	if err := os.WriteFile(filepath.Join(template, "system.reg"), []byte("WINE REGISTRY\n"), 0644); err != nil {
		t.Fatalf("seed template: %v", err)
	}
	if err := os.Symlink("drive_c", filepath.Join(template, "dosdevices")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	target := filepath.Join(t.TempDir(), "prefix_dsr-1")
	if err := Ensure(target, template); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(target, "system.reg"))
	if err != nil || string(data) != "WINE REGISTRY\n" {
		t.Fatalf("cloned system.reg = %q, err=%v", data, err)
	}
	link, err := os.Readlink(filepath.Join(target, "dosdevices"))
	if err != nil || link != "drive_c" {
		t.Fatalf("symlink not preserved: %q, err=%v", link, err)
	}

	// 幂等：已存在的 prefix 原样保留
	if err := Ensure(target, template); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
}

func TestEnsureRejectsNonDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "prefix")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := Ensure(file, ""); err == nil {
		t.Fatalf("expected error for non-directory prefix")
	}
}

func TestEnsureWithoutTemplateCreatesEmptyPrefix(t *testing.T) {
	target := filepath.Join(t.TempDir(), "prefix")
	if err := Ensure(target, ""); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		t.Fatalf("prefix not created: %v", err)
	}
}

func TestLocateExecutableCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	gameDir := filepath.Join(root, "Game", "DATA")
	if err := os.MkdirAll(gameDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	exePath := filepath.Join(gameDir, "DarkSoulsRemastered.EXE")
	if err := os.WriteFile(exePath, []byte("MZ"), 0755); err != nil {
		t.Fatalf("seed exe: %v", err)
	}

	found, err := LocateExecutable(root, "darksoulsremastered.exe")
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if found != exePath {
		t.Errorf("found = %q, want %q", found, exePath)
	}
}

func TestLocateExecutableNotFound(t *testing.T) {
	root := t.TempDir()
	_, err := LocateExecutable(root, "DarkSoulsRemastered.exe")
	if !errors.Is(err, wberrors.ErrExecutableNotFound) {
		t.Fatalf("err = %v, want ErrExecutableNotFound", err)
	}
	// 错误信息必须点名搜索根目录
	if !strings.Contains(err.Error(), root) {
		t.Errorf("error %q does not name search root", err)
	}
}

func TestLocateExecutableFirstMatchWins(t *testing.T) {
	// 多个同名文件时取第一个命中——这是被接受的非确定性，
	// 只验证返回其中之一，不假定枚举顺序
	root := t.TempDir()
	var candidates []string
	for _, sub := range []string{"a", "b"} {
		dir := filepath.Join(root, sub)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		p := filepath.Join(dir, "Game.exe")
		if err := os.WriteFile(p, []byte("MZ"), 0755); err != nil {
			t.Fatalf("seed: %v", err)
		}
		candidates = append(candidates, p)
	}

	found, err := LocateExecutable(root, "game.exe")
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if found != candidates[0] && found != candidates[1] {
		t.Errorf("found = %q, want one of %v", found, candidates)
	}
}

func TestFindSaveUserID(t *testing.T) {
	saveRoot := t.TempDir()
	if id := FindSaveUserID(saveRoot); id != "" {
		t.Fatalf("empty save root returned id %q", id)
	}

	for _, name := range []string{"backup", "170000042", "160000001"} {
		if err := os.MkdirAll(filepath.Join(saveRoot, name), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	// 数字目录中排序最小的优先；非数字目录忽略
	if id := FindSaveUserID(saveRoot); id != "160000001" {
		t.Errorf("id = %q, want 160000001", id)
	}
}

func TestWaitForSaveUserID(t *testing.T) {
	saveRoot := t.TempDir()

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.MkdirAll(filepath.Join(saveRoot, "170000042"), 0755)
	}()

	id, err := WaitForSaveUserID(context.Background(), saveRoot, 10*time.Millisecond, 2*time.Second)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if id != "170000042" {
		t.Errorf("id = %q", id)
	}
}

func TestWaitForSaveUserIDTimesOut(t *testing.T) {
	_, err := WaitForSaveUserID(context.Background(), t.TempDir(), 10*time.Millisecond, 80*time.Millisecond)
	if !errors.Is(err, wberrors.ErrReadinessTimeout) {
		t.Fatalf("err = %v, want ErrReadinessTimeout", err)
	}
}

func TestSaveRoot(t *testing.T) {
	got := SaveRoot("/opt/prefix_dsr-1")
	want := "/opt/prefix_dsr-1/drive_c/users/root/Documents/NBGI/DARK SOULS REMASTERED"
	if got != want {
		t.Errorf("save root = %q, want %q", got, want)
	}
}
