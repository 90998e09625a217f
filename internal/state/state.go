//go:build linux
// +build linux

package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/opencontainers/go-digest"

	"winebox/internal/config"
	"winebox/pkg/fileutil"
)

// Status 表示实例状态
type Status string

const (
	// StatusCreating 表示实例正在初始化中（服务启动、prefix 准备）
	StatusCreating Status = "creating"
	// StatusRunning 表示游戏进程正在运行
	StatusRunning Status = "running"
	// StatusStopped 表示实例已停止
	StatusStopped Status = "stopped"
)

// ServiceRecord 记录一个受监管的辅助服务（audio/display/vnc），
// 供 inspect 展示以及崩溃恢复时的清理参考。
type ServiceRecord struct {
	Name      string    `json:"name"`
	Pid       int       `json:"pid"`
	LogPath   string    `json:"logPath,omitempty"`
	StartedAt time.Time `json:"startedAt"`
}

// InstanceState 表示实例的运行时状态，序列化为 state.json。
type InstanceState struct {
	// LaunchID 是本次启动的唯一标识（64 字符十六进制），每次启动重新生成
	LaunchID string `json:"launchId"`
	// Name 是实例名
	Name   string      `json:"name"`
	Status Status      `json:"status"`
	Pid    int         `json:"pid,omitempty"`
	Mode   config.Mode `json:"mode"`

	// 启动时解析出的关键位置，供 inspect 使用
	Prefix     string `json:"prefix"`
	GameRoot   string `json:"gameRoot"`
	DisplayNum int    `json:"displayNum"`
	VNCPort    int    `json:"vncPort,omitempty"`

	// ExePath 是定位到的目标可执行文件；ExeDigest 是其内容摘要，
	// 用于核对两次运行启动的是不是同一个二进制
	ExePath   string        `json:"exePath,omitempty"`
	ExeDigest digest.Digest `json:"exeDigest,omitempty"`

	// Renderer 记录本次生效的渲染策略（native/builtin）
	Renderer string `json:"renderer,omitempty"`

	// Services 是已启动的辅助服务，按启动顺序排列
	Services []ServiceRecord `json:"services,omitempty"`

	CreatedAt  time.Time  `json:"createdAt"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	ExitCode   *int       `json:"exitCode,omitempty"`

	// 内部字段（不序列化）
	instanceDir string
}

// NewState 创建一个新的实例状态
func NewState(launchID, name string, instanceDir string) *InstanceState {
	return &InstanceState{
		LaunchID:    launchID,
		Name:        name,
		Status:      StatusCreating,
		CreatedAt:   time.Now(),
		instanceDir: instanceDir,
	}
}

// LoadState 从实例目录加载状态
func LoadState(instanceDir string) (*InstanceState, error) {
	statePath := filepath.Join(instanceDir, "state.json")
	data, err := os.ReadFile(statePath)
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var st InstanceState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}

	st.instanceDir = instanceDir
	return &st, nil
}

// Save 保存状态到 state.json
func (s *InstanceState) Save() error {
	if s.instanceDir == "" {
		return fmt.Errorf("instance directory not set")
	}

	// Use a per-instance lock to avoid concurrent writers clobbering state.
	lock, err := AcquireLock(s.instanceDir)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer lock.Release()

	statePath := filepath.Join(s.instanceDir, "state.json")
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	// 原子写入：先写临时文件，再重命名
	if err := fileutil.AtomicWriteFile(statePath, data, 0644); err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	return nil
}

// Reload 从磁盘重新加载状态
func (s *InstanceState) Reload() error {
	if s.instanceDir == "" {
		return fmt.Errorf("instance directory not set")
	}

	fresh, err := LoadState(s.instanceDir)
	if err != nil {
		return err
	}

	dir := s.instanceDir
	*s = *fresh
	s.instanceDir = dir
	return nil
}

// SetRunning 将状态设为 running 并记录游戏进程 PID
func (s *InstanceState) SetRunning(pid int) error {
	s.Status = StatusRunning
	s.Pid = pid
	now := time.Now()
	s.StartedAt = &now
	return s.Save()
}

// SetStopped 将状态设为 stopped 并记录退出码
func (s *InstanceState) SetStopped(exitCode int) error {
	s.Status = StatusStopped
	now := time.Now()
	s.FinishedAt = &now
	s.ExitCode = &exitCode
	return s.Save()
}

// IsRunning 检查实例是否实际运行中。
// 不仅检查状态字段，还验证进程是否真实存在。
// 如果检测到进程已不存在（孤儿状态），会自动修正状态。
func (s *InstanceState) IsRunning() bool {
	if s.Status != StatusRunning {
		return false
	}

	if s.Pid == 0 {
		return false
	}

	// syscall.Kill(pid, 0) 不发送信号，仅检查进程是否存在
	if err := syscall.Kill(s.Pid, 0); err != nil {
		// ESRCH: 进程不存在，自动修正状态
		if err == syscall.ESRCH {
			s.Status = StatusStopped
			now := time.Now()
			s.FinishedAt = &now
			// 无法确定退出码，设为 -1
			exitCode := -1
			s.ExitCode = &exitCode
			_ = s.Save() // best effort
			return false
		}

		// 其他错误（例如 EPERM）并不一定代表进程不存在；保守认为仍在运行。
		return true
	}

	return true
}

// GetInstanceDir 返回实例目录路径
func (s *InstanceState) GetInstanceDir() string {
	return s.instanceDir
}

// GetLogDir 返回日志目录路径
func (s *InstanceState) GetLogDir() string {
	return filepath.Join(s.instanceDir, "logs")
}
