package supervisor

import (
	"bufio"
	"io"
	"os"
)

// TailFile 读取文件的最后 n 行，用于就绪失败时的诊断输出。
func TailFile(path string, n int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return readLastNLines(file, n)
}

// readLastNLines 读取文件的最后 N 行。
// 使用 ring buffer 仅保留最后 N 行，避免把整个文件读入内存。
func readLastNLines(file *os.File, n int) ([]string, error) {
	if n == 0 {
		return nil, nil
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(file)
	// bufio.Scanner 默认 token 上限较小；提高上限以避免长行导致错误
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	ring := make([]string, n)
	count := 0
	for scanner.Scan() {
		ring[count%n] = scanner.Text() + "\n"
		count++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if count == 0 {
		return nil, nil
	}
	if count < n {
		return ring[:count], nil
	}

	start := count % n
	lines := make([]string, 0, n)
	lines = append(lines, ring[start:]...)
	lines = append(lines, ring[:start]...)
	return lines, nil
}
