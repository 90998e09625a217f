package capability

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"winebox/pkg/fileutil"
)

// OverrideFileName 是 prefix 内渲染后端覆盖文件的文件名。
// 文件内容是追加到 WINEDLLOVERRIDES 的片段。
const OverrideFileName = "winebox-renderer.conf"

// 渲染相关 DLL。=n 强制原生实现（DXVK），=b 使用转换层内置实现。
const renderDLLs = "d3d9,d3d10core,d3d11,dxgi"

// OverridePath 返回 prefix 内覆盖文件的路径。
func OverridePath(prefix string) string {
	return filepath.Join(prefix, OverrideFileName)
}

// ApplyOverride 按能力决策写入渲染后端覆盖。
//
// 启用分支直接写入原生覆盖；停用分支先删除旧文件再写入显式的
// 停用状态——上次运行可能留下启用覆盖，配置不能假定跨运行保持
// 正确，所以两个分支每次启动都必须执行到。
func ApplyOverride(prefix string, forceNative bool) error {
	path := OverridePath(prefix)

	if forceNative {
		content := renderDLLs + "=n\n"
		if err := fileutil.AtomicWriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("write renderer override: %w", err)
		}
		return nil
	}

	// 停用：删除陈旧覆盖后写入显式的 builtin 状态
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale renderer override: %w", err)
	}
	content := renderDLLs + "=b\n"
	if err := fileutil.AtomicWriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write renderer override: %w", err)
	}
	return nil
}

// ReadOverride 读取覆盖文件内容（WINEDLLOVERRIDES 片段）。
// 文件不存在返回空串。
func ReadOverride(prefix string) (string, error) {
	data, err := os.ReadFile(OverridePath(prefix))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read renderer override: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// MergeDLLOverrides 合并用户提供的 WINEDLLOVERRIDES 与覆盖片段。
// 两者都非空时用分号连接；用户串在前，便于阅读时先看到显式配置。
func MergeDLLOverrides(user, fragment string) string {
	switch {
	case user == "":
		return fragment
	case fragment == "":
		return user
	default:
		return user + ";" + fragment
	}
}
