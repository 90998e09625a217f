//go:build linux
// +build linux

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"winebox/internal/state"
	"winebox/internal/supervisor"
)

var (
	// logs 命令标志
	logsFollow  bool
	logsTail    string
	logsService string
)

var logsCmd = &cobra.Command{
	Use:   "logs [OPTIONS] INSTANCE",
	Short: "获取实例的日志",
	Long: `获取实例的日志。

每个实例的日志按来源分文件：game（默认）、display、audio、
vnc、shim。用 --service 选择来源。

示例:
  winebox logs dsr-1
  winebox logs -f dsr-1                # 跟踪游戏日志输出
  winebox logs --tail 100 dsr-1        # 显示最后 100 行
  winebox logs --service display dsr-1 # 显示服务器日志`,
	Args: cobra.ExactArgs(1),
	RunE: showLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "跟踪日志输出")
	logsCmd.Flags().StringVarP(&logsTail, "tail", "n", "all", "显示最后 N 行（默认 \"all\"）")
	logsCmd.Flags().StringVarP(&logsService, "service", "s", "game", "日志来源（game/display/audio/vnc/shim）")
}

var logServices = map[string]bool{
	"game":    true,
	"display": true,
	"audio":   true,
	"vnc":     true,
	"shim":    true,
}

func showLogs(cmd *cobra.Command, args []string) error {
	if !logServices[logsService] {
		return fmt.Errorf("unknown log service %q (supported: game, display, audio, vnc, shim)", logsService)
	}

	store, err := state.NewStore(rootDir)
	if err != nil {
		return fmt.Errorf("initialize state store: %w", err)
	}

	instanceState, err := store.Get(args[0])
	if err != nil {
		return err
	}

	logPath := filepath.Join(instanceState.GetLogDir(), logsService+".log")

	// 解析 tail 参数
	tailLines := -1 // -1 表示显示所有
	if logsTail != "all" {
		n, err := strconv.Atoi(logsTail)
		if err != nil {
			return fmt.Errorf("invalid tail value: %s (expected number or \"all\")", logsTail)
		}
		if n < 0 {
			return fmt.Errorf("invalid tail value: %d (must be non-negative)", n)
		}
		tailLines = n
	}

	if logsFollow {
		return followLog(instanceState, logPath, tailLines)
	}

	if err := outputLogFile(logPath, tailLines); err != nil {
		// 文件不存在不算错误（服务可能没启动过）
		if !os.IsNotExist(err) {
			return fmt.Errorf("read %s log: %w", logsService, err)
		}
	}
	return nil
}

// outputLogFile 输出日志文件内容
func outputLogFile(path string, tailLines int) error {
	if tailLines < 0 {
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(os.Stdout, file)
		return err
	}

	lines, err := supervisor.TailFile(path, tailLines)
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Print(line)
	}
	return nil
}

// followLog 使用 fsnotify 跟踪日志文件变化。
// 实例停止后退出 follow（避免一直挂起直到 Ctrl+C）。
func followLog(instanceState *state.InstanceState, logPath string, tailLines int) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	file, offset, err := openAndTail(logPath, tailLines)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("open log: %w", err)
	}
	if file != nil {
		defer file.Close()
		if err := watcher.Add(logPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot watch log: %v\n", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == fsnotify.Write && file != nil {
				offset = readNewContent(file, offset)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)

		case <-ticker.C:
			// 周期性检查实例状态：stopped 后输出余量并退出
			if err := instanceState.Reload(); err == nil {
				if instanceState.Status != state.StatusRunning || !instanceState.IsRunning() {
					if file != nil {
						readNewContent(file, offset)
					}
					return nil
				}
			}

		case <-sigChan:
			return nil
		}
	}
}

// openAndTail 打开文件，输出最后 N 行，返回文件和当前偏移量
func openAndTail(path string, tailLines int) (*os.File, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}

	if tailLines >= 0 {
		lines, err := supervisor.TailFile(path, tailLines)
		if err != nil {
			file.Close()
			return nil, 0, err
		}
		for _, line := range lines {
			fmt.Print(line)
		}
	} else {
		if _, err := io.Copy(os.Stdout, file); err != nil {
			file.Close()
			return nil, 0, err
		}
	}

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		return nil, 0, err
	}

	return file, offset, nil
}

// readNewContent 从指定偏移量开始读取新内容
func readNewContent(file *os.File, offset int64) int64 {
	// 文件可能被截断（例如 log rotation / truncate）；偏移量超过文件大小时回退
	if info, err := file.Stat(); err == nil {
		if info.Size() < offset {
			offset = 0
		}
	}

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset
	}

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			fmt.Print(line)
		}
		if err != nil {
			break
		}
	}

	newOffset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return offset
	}
	return newOffset
}
