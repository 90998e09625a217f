package prefix

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	wberrors "winebox/pkg/errors"
)

// LocateExecutable 在 root 下按文件名大小写不敏感地查找目标可执行文件。
//
// 存在多个同名文件时取目录枚举顺序的第一个——预期的游戏目录只有
// 一份，这是被接受的非确定性，不额外施加排序。
// 找不到返回 ErrExecutableNotFound，错误信息点名搜索根目录。
func LocateExecutable(root, name string) (string, error) {
	lower := strings.ToLower(name)
	var found string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// 个别子目录不可读不影响整体查找
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.ToLower(d.Name()) == lower {
			found = path
			return fs.SkipAll // 第一个命中即停
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("search game root %s: %w", root, err)
	}

	if found == "" {
		return "", fmt.Errorf("%w: no file matching %q under %s", wberrors.ErrExecutableNotFound, name, root)
	}
	return found, nil
}
