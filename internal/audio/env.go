package audio

import (
	"os"

	"winebox/pkg/envutil"
)

// environ 返回过滤掉 WINEBOX_* 内部变量的当前环境
func environ() []string {
	return envutil.FilterWineboxEnv(os.Environ())
}
