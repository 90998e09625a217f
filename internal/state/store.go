//go:build linux
// +build linux

package state

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	wberrors "winebox/pkg/errors"
)

// 默认状态根目录
const DefaultRootDir = "/var/lib/winebox"

// 环境变量名
const RootDirEnvVar = "WINEBOX_ROOT"

// 实例名规则：字母数字开头，之后允许 . _ -
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// Store 管理实例状态目录
type Store struct {
	RootDir string
}

// NewStore 创建状态存储。
// rootDir 为空时，按优先级使用：
// 1. WINEBOX_ROOT 环境变量
// 2. 默认值 /var/lib/winebox
func NewStore(rootDir string) (*Store, error) {
	if rootDir == "" {
		rootDir = os.Getenv(RootDirEnvVar)
	}
	if rootDir == "" {
		rootDir = DefaultRootDir
	}

	instancesDir := filepath.Join(rootDir, "instances")
	if err := os.MkdirAll(instancesDir, 0755); err != nil {
		return nil, fmt.Errorf("create instances directory: %w", err)
	}

	return &Store{RootDir: rootDir}, nil
}

// ValidateName 校验实例名
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid instance name %q", name)
	}
	return nil
}

// InstanceDir 返回实例目录路径
func (s *Store) InstanceDir(name string) string {
	return filepath.Join(s.RootDir, "instances", name)
}

// Create 创建实例状态目录和初始状态。
// 返回 creating 状态的 InstanceState。
// 同名实例目录已存在但上次运行已结束时，旧目录被回收重建，
// 这样重复启动同一实例不需要手动 rm。
func (s *Store) Create(launchID string, cfg *InstanceConfig) (*InstanceState, error) {
	if err := ValidateName(cfg.Name); err != nil {
		return nil, err
	}
	instanceDir := s.InstanceDir(cfg.Name)

	if old, err := LoadState(instanceDir); err == nil {
		if old.IsRunning() {
			return nil, fmt.Errorf("%w: %s (pid %d)", wberrors.ErrInstanceExists, cfg.Name, old.Pid)
		}
		// 上次运行的残留，回收
		if err := os.RemoveAll(instanceDir); err != nil {
			return nil, fmt.Errorf("recycle stale instance directory: %w", err)
		}
	}

	// 创建目录结构
	if err := os.MkdirAll(instanceDir, 0755); err != nil {
		return nil, fmt.Errorf("create instance directory: %w", err)
	}

	logDir := filepath.Join(instanceDir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		os.RemoveAll(instanceDir)
		return nil, fmt.Errorf("create logs directory: %w", err)
	}

	if err := cfg.Save(instanceDir); err != nil {
		os.RemoveAll(instanceDir)
		return nil, fmt.Errorf("save config: %w", err)
	}

	st := NewState(launchID, cfg.Name, instanceDir)
	if err := st.Save(); err != nil {
		os.RemoveAll(instanceDir)
		return nil, fmt.Errorf("save state: %w", err)
	}

	return st, nil
}

// Get 获取实例状态。
// 支持名称前缀查找（唯一前缀即可）。
// 自动检测并修正孤儿状态（进程不存在但状态为 running）。
func (s *Store) Get(nameOrPrefix string) (*InstanceState, error) {
	name, err := s.LookupName(nameOrPrefix)
	if err != nil {
		return nil, err
	}

	instanceDir := s.InstanceDir(name)
	st, err := LoadState(instanceDir)
	if err != nil {
		return nil, fmt.Errorf("load state for %s: %w", name, err)
	}

	// 触发孤儿检测（如果是 running 状态，会自动修正）
	st.IsRunning()

	return st, nil
}

// List 列出所有实例。
// 如果 all 为 false，只返回运行中的实例。
func (s *Store) List(all bool) ([]*InstanceState, error) {
	instancesDir := filepath.Join(s.RootDir, "instances")
	entries, err := os.ReadDir(instancesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read instances directory: %w", err)
	}

	var states []*InstanceState
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		instanceDir := filepath.Join(instancesDir, entry.Name())
		st, err := LoadState(instanceDir)
		if err != nil {
			// 跳过损坏的状态文件
			continue
		}

		// 触发孤儿检测
		st.IsRunning()

		if !all && st.Status != StatusRunning {
			continue
		}

		states = append(states, st)
	}

	return states, nil
}

// Delete 删除实例目录。
// 幂等操作：如果实例不存在，返回 nil。
// 如果实例正在运行，返回错误。
func (s *Store) Delete(name string) error {
	instanceDir := s.InstanceDir(name)

	if _, err := os.Stat(instanceDir); os.IsNotExist(err) {
		return nil // 幂等：已删除
	}

	st, err := LoadState(instanceDir)
	if err == nil && st.IsRunning() {
		return fmt.Errorf("%w: %s, stop it first or use force", wberrors.ErrInstanceRunning, name)
	}

	if err := os.RemoveAll(instanceDir); err != nil {
		return fmt.Errorf("remove instance directory: %w", err)
	}

	return nil
}

// ForceDelete 强制删除实例（即使正在运行）。
// 调用者负责先发送信号终止进程。
func (s *Store) ForceDelete(name string) error {
	instanceDir := s.InstanceDir(name)

	if _, err := os.Stat(instanceDir); os.IsNotExist(err) {
		return nil // 幂等：已删除
	}

	if err := os.RemoveAll(instanceDir); err != nil {
		return fmt.Errorf("remove instance directory: %w", err)
	}

	return nil
}

// Exists 检查实例是否存在
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.InstanceDir(name))
	return err == nil
}

// LookupName 将名称或唯一前缀解析为完整实例名。
// 精确匹配优先；否则要求前缀唯一。
func (s *Store) LookupName(nameOrPrefix string) (string, error) {
	if nameOrPrefix == "" {
		return "", fmt.Errorf("%w: empty name", wberrors.ErrInstanceNotFound)
	}

	if s.Exists(nameOrPrefix) {
		return nameOrPrefix, nil
	}

	instancesDir := filepath.Join(s.RootDir, "instances")
	entries, err := os.ReadDir(instancesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", wberrors.ErrInstanceNotFound, nameOrPrefix)
		}
		return "", fmt.Errorf("read instances directory: %w", err)
	}

	var matches []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), nameOrPrefix) {
			matches = append(matches, entry.Name())
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", wberrors.ErrInstanceNotFound, nameOrPrefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: prefix %s matches %v", wberrors.ErrAmbiguousName, nameOrPrefix, matches)
	}
}
