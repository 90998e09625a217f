package prefix

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"winebox/internal/supervisor"
)

// saveRootRel 是存档根目录在 prefix 内的相对路径
const saveRootRel = "drive_c/users/root/Documents/NBGI/DARK SOULS REMASTERED"

// SaveRoot 返回给定 prefix 的存档根目录。
func SaveRoot(prefixDir string) string {
	return filepath.Join(prefixDir, filepath.FromSlash(saveRootRel))
}

// FindSaveUserID 在存档根目录下查找数字命名的用户 ID 子目录。
// 游戏首次运行时会创建它；多个时取排序后的第一个。
// 未找到返回空串（不是错误：调用方据此决定是否需要初始化）。
func FindSaveUserID(saveRoot string) string {
	entries, err := os.ReadDir(saveRoot)
	if err != nil {
		return ""
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() && isNumeric(entry.Name()) {
			ids = append(ids, entry.Name())
		}
	}
	if len(ids) == 0 {
		return ""
	}
	sort.Strings(ids)
	return ids[0]
}

// WaitForSaveUserID 轮询等待数字 ID 目录出现，受 timeout 约束。
// genconfig 短暂跑一次无头游戏来触发创建，这里等它落盘。
func WaitForSaveUserID(ctx context.Context, saveRoot string, interval, timeout time.Duration) (string, error) {
	var id string
	err := supervisor.Poll(ctx, func() bool {
		id = FindSaveUserID(saveRoot)
		return id != ""
	}, interval, timeout)
	if err != nil {
		return "", err
	}
	return id, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
