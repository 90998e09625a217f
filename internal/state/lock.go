//go:build linux
// +build linux

package state

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	wberrors "winebox/pkg/errors"
)

// InstanceLock 提供实例状态操作的文件锁。
// 使用 flock(2) 实现进程间互斥。
type InstanceLock struct {
	path string
	file *os.File
}

// AcquireLock 获取实例目录的独占锁。
// 如果锁已被其他进程持有，会阻塞等待。
func AcquireLock(instanceDir string) (*InstanceLock, error) {
	lockPath := filepath.Join(instanceDir, "lock")

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	// 获取独占锁（阻塞）
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX); err != nil {
		file.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return &InstanceLock{
		path: lockPath,
		file: file,
	}, nil
}

// TryAcquireRunLock 尝试获取实例的运行锁（非阻塞）。
// 锁在整个启动期间持有，同一实例的并发启动靠它挡住；
// 已被其他进程持有时立即返回 ErrInstanceLocked。
// 运行锁与状态写入锁（AcquireLock）是两个文件：状态写入在持有
// 运行锁期间仍要发生，不能互相阻塞。
func TryAcquireRunLock(instanceDir string) (*InstanceLock, error) {
	lockPath := filepath.Join(instanceDir, "run.lock")

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	// 尝试获取独占锁（非阻塞）
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		if err == syscall.EWOULDBLOCK {
			return nil, wberrors.ErrInstanceLocked
		}
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return &InstanceLock{
		path: lockPath,
		file: file,
	}, nil
}

// Release 释放锁
func (l *InstanceLock) Release() error {
	if l.file == nil {
		return nil
	}

	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		l.file.Close()
		return fmt.Errorf("release lock: %w", err)
	}

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close lock file: %w", err)
	}

	l.file = nil
	return nil
}
