//go:build !linux
// +build !linux

package runtime

import (
	"fmt"
	"os"
	"runtime"
)

// RunInstanceShim 在非 Linux 平台上不可用
func RunInstanceShim() {
	fmt.Fprintf(os.Stderr, "winebox shim only supports Linux (current OS: %s)\n", runtime.GOOS)
	os.Exit(1)
}
