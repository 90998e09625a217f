package config

import (
	"fmt"

	wberrors "winebox/pkg/errors"
	"winebox/pkg/fileutil"
)

// PrepareEnvironment 创建一次启动所需的运行时目录。
//
// 幂等：重复调用得到相同的目录状态与权限。目录必须为属主专用
// （0700），否则 X11 与 PulseAudio 会拒绝使用。
// 创建失败立即返回错误，不重试。
func PrepareEnvironment(cfg *RunConfiguration) error {
	if err := fileutil.EnsurePrivateDir(cfg.RuntimeDir); err != nil {
		return wberrors.WithHints(
			fmt.Errorf("prepare runtime directory: %w", err),
			fmt.Sprintf("the runtime directory %s must be creatable and owned by the current user.", cfg.RuntimeDir),
			"set XDG_RUNTIME_DIR to a writable path or fix the mount permissions.",
		)
	}
	if err := fileutil.EnsurePrivateDir(cfg.PulseDir()); err != nil {
		return fmt.Errorf("prepare pulse directory: %w", err)
	}
	return nil
}
