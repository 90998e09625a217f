//go:build !linux
// +build !linux

package state

import (
	"fmt"
	"time"

	"github.com/opencontainers/go-digest"

	"winebox/internal/config"
)

// Status 表示实例状态
type Status string

const (
	StatusCreating Status = "creating"
	StatusRunning  Status = "running"
	StatusStopped  Status = "stopped"
)

// Store 是状态存储的 stub
type Store struct {
	RootDir string
}

// ServiceRecord 记录一个受监管的辅助服务
type ServiceRecord struct {
	Name      string
	Pid       int
	LogPath   string
	StartedAt time.Time
}

// InstanceState 是实例状态的 stub
type InstanceState struct {
	LaunchID   string
	Name       string
	Status     Status
	Pid        int
	Mode       config.Mode
	Prefix     string
	GameRoot   string
	DisplayNum int
	VNCPort    int
	ExePath    string
	ExeDigest  digest.Digest
	Renderer   string
	Services   []ServiceRecord
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
	ExitCode   *int
}

// InstanceConfig 是实例配置的 stub
type InstanceConfig struct {
	Name string
	Mode config.Mode
}

// InstanceLock 是实例锁的 stub
type InstanceLock struct{}

// NewStore 在非 Linux 平台返回错误
func NewStore(rootDir string) (*Store, error) {
	return nil, fmt.Errorf("instance state management requires Linux")
}

// Create 在非 Linux 平台返回错误
func (s *Store) Create(launchID string, cfg *InstanceConfig) (*InstanceState, error) {
	return nil, fmt.Errorf("instance state management requires Linux")
}

// Get 在非 Linux 平台返回错误
func (s *Store) Get(nameOrPrefix string) (*InstanceState, error) {
	return nil, fmt.Errorf("instance state management requires Linux")
}

// List 在非 Linux 平台返回错误
func (s *Store) List(all bool) ([]*InstanceState, error) {
	return nil, fmt.Errorf("instance state management requires Linux")
}

// Delete 在非 Linux 平台返回错误
func (s *Store) Delete(name string) error {
	return fmt.Errorf("instance state management requires Linux")
}

// ForceDelete 在非 Linux 平台返回错误
func (s *Store) ForceDelete(name string) error {
	return fmt.Errorf("instance state management requires Linux")
}

// LookupName 在非 Linux 平台返回错误
func (s *Store) LookupName(nameOrPrefix string) (string, error) {
	return "", fmt.Errorf("instance state management requires Linux")
}

// InstanceDir 在非 Linux 平台返回空字符串
func (s *Store) InstanceDir(name string) string {
	return ""
}

// Exists 在非 Linux 平台返回 false
func (s *Store) Exists(name string) bool {
	return false
}

// IsRunning 在非 Linux 平台返回 false
func (s *InstanceState) IsRunning() bool {
	return false
}

// GetInstanceDir 返回空字符串
func (s *InstanceState) GetInstanceDir() string {
	return ""
}

// GetLogDir 返回空字符串
func (s *InstanceState) GetLogDir() string {
	return ""
}

// AcquireLock 在非 Linux 平台返回错误
func AcquireLock(instanceDir string) (*InstanceLock, error) {
	return nil, fmt.Errorf("instance state management requires Linux")
}

// TryAcquireRunLock 在非 Linux 平台返回错误
func TryAcquireRunLock(instanceDir string) (*InstanceLock, error) {
	return nil, fmt.Errorf("instance state management requires Linux")
}

// Release 在非 Linux 平台是 no-op
func (l *InstanceLock) Release() error {
	return nil
}
