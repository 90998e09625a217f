// Package prefix 管理 Wine prefix（兼容层的持久状态目录）：
// 模板克隆、一次性初始化（以成功标记文件为准）、存档目录发现、
// 以及游戏可执行文件定位。
package prefix

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"winebox/internal/config"
	wberrors "winebox/pkg/errors"
)

// ReadyMarker 是一次性初始化完成的标记文件名。
// 只在初始化成功后写入：失败的初始化留不下标记，下次运行从头重试，
// 绝不持久化部分成功状态。
const ReadyMarker = "winebox_prefix_ready"

// systemReg 是 wineboot 写入的注册表文件，存在即说明 prefix 已被初始化过
const systemReg = "system.reg"

// IsInitialized 判断 prefix 是否已完成一次性初始化。
func IsInitialized(prefixDir string) bool {
	if _, err := os.Stat(filepath.Join(prefixDir, ReadyMarker)); err == nil {
		return true
	}
	// 兼容手工初始化过的 prefix：有 system.reg 也视为就绪
	if _, err := os.Stat(filepath.Join(prefixDir, systemReg)); err == nil {
		return true
	}
	return false
}

// Ensure 确保 prefix 目录存在。
// 不存在时从模板克隆（保留符号链接）；存在但不是目录则报错。
func Ensure(prefixDir, templateDir string) error {
	info, err := os.Stat(prefixDir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("prefix exists but is not a directory: %s", prefixDir)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat prefix: %w", err)
	}

	if templateDir == "" || templateDir == prefixDir {
		// 无模板可克隆：建空目录，交给 wineboot 初始化
		if err := os.MkdirAll(prefixDir, 0755); err != nil {
			return fmt.Errorf("create prefix: %w", err)
		}
		return nil
	}

	tinfo, err := os.Stat(templateDir)
	if err != nil || !tinfo.IsDir() {
		return fmt.Errorf("template prefix not found: %s", templateDir)
	}

	if err := os.MkdirAll(filepath.Dir(prefixDir), 0755); err != nil {
		return fmt.Errorf("create prefix parent: %w", err)
	}
	if err := copyTree(templateDir, prefixDir); err != nil {
		// 克隆半途而废的 prefix 必须移除，否则下次启动会误判为完好
		_ = os.RemoveAll(prefixDir)
		return fmt.Errorf("clone template prefix: %w", err)
	}
	return nil
}

// Initialize 执行一次性初始化：wineboot --init 后等待 wineserver 退出，
// 整体受 cfg.PrefixTimeout 约束。成功后写入标记文件。
func Initialize(ctx context.Context, cfg *config.RunConfiguration, env []string) error {
	initCtx, cancel := context.WithTimeout(ctx, cfg.PrefixTimeout)
	defer cancel()

	boot := exec.CommandContext(initCtx, "wineboot", "--init")
	boot.Env = env
	boot.Stdout = nil
	boot.Stderr = nil
	if err := boot.Run(); err != nil {
		return fmt.Errorf("%w: wineboot: %v", wberrors.ErrPrefixInitFailed, err)
	}

	// wineboot 返回后 wineserver 还在后台写注册表，必须等它收尾
	wait := exec.CommandContext(initCtx, "wineserver", "--wait")
	wait.Env = env
	if err := wait.Run(); err != nil {
		return fmt.Errorf("%w: wineserver wait: %v", wberrors.ErrPrefixInitFailed, err)
	}

	marker := filepath.Join(cfg.Prefix, ReadyMarker)
	if err := os.WriteFile(marker, []byte("ok\n"), 0644); err != nil {
		return fmt.Errorf("write ready marker: %w", err)
	}
	return nil
}

// KillWineserver 强制停止 prefix 关联的 wineserver。
// 显示服务器启动前的幂等保护：上次崩溃运行留下的 wineserver
// 会占住 display 和 prefix 锁。best-effort，失败不致命。
func KillWineserver(env []string) {
	cmd := exec.Command("wineserver", "-k")
	cmd.Env = env
	_ = cmd.Run()
}

// copyTree 递归复制目录树，保留符号链接与文件权限。
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		case info.Mode()&os.ModeSymlink != 0:
			dest, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(dest, target)
		default:
			return copyFile(path, target, info.Mode().Perm())
		}
	})
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
