package main

import (
	"os"

	"winebox/internal/cli"
	"winebox/internal/runtime"
	"winebox/pkg/envutil"
)

func main() {
	// 检查这是否是后台实例的 shim 进程。
	// 使用环境变量来检测，而不是子命令，
	// 以避免污染用户的命令命名空间。
	if os.Getenv(envutil.ShimEnvVar) == "1" {
		runtime.RunInstanceShim()
		return
	}

	cli.Execute()
}
