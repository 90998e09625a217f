//go:build linux
// +build linux

package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"winebox/internal/config"
	"winebox/pkg/fileutil"
)

// InstanceConfig 是持久化的实例启动配置。
// 此结构体序列化为 config.json 保存在实例目录中，
// 记录启动时解析出的全部参数。一旦写入，配置不可变。
type InstanceConfig struct {
	// 实例名
	Name string `json:"name"`

	// 运行模式
	Mode config.Mode `json:"mode"`

	// 是否后台运行
	Detached bool `json:"detached"`

	// Wine prefix 与架构
	Prefix string `json:"prefix"`
	Arch   string `json:"arch"`

	// 游戏位置
	GameRoot string `json:"gameRoot"`
	GameExe  string `json:"gameExe"`

	// 虚拟桌面参数
	DesktopName string `json:"desktopName"`
	DesktopRes  string `json:"desktopRes"`
	ColorDepth  int    `json:"colorDepth"`

	// 显示与远程桌面
	DisplayNum int    `json:"displayNum"`
	RuntimeDir string `json:"runtimeDir"`
	VNCPort    int    `json:"vncPort,omitempty"`

	// 透传给兼容层的调试与覆盖设置
	WineDebug    string `json:"wineDebug,omitempty"`
	DLLOverrides string `json:"dllOverrides,omitempty"`
}

// ConfigFromRun 从一次启动的运行配置生成持久化配置。
func ConfigFromRun(cfg *config.RunConfiguration, detached bool) *InstanceConfig {
	return &InstanceConfig{
		Name:         cfg.Name,
		Mode:         cfg.Mode,
		Detached:     detached,
		Prefix:       cfg.Prefix,
		Arch:         cfg.Arch,
		GameRoot:     cfg.GameRoot,
		GameExe:      cfg.GameExe,
		DesktopName:  cfg.DesktopName,
		DesktopRes:   cfg.DesktopRes,
		ColorDepth:   cfg.ColorDepth,
		DisplayNum:   cfg.DisplayNum,
		RuntimeDir:   cfg.RuntimeDir,
		VNCPort:      cfg.VNCPort,
		WineDebug:    cfg.WineDebug,
		DLLOverrides: cfg.DLLOverrides,
	}
}

// Save 保存配置到 config.json
func (c *InstanceConfig) Save(instanceDir string) error {
	configPath := filepath.Join(instanceDir, "config.json")
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// 原子写入：先写临时文件，再重命名
	if err := fileutil.AtomicWriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	return nil
}

// LoadConfig 从实例目录加载配置
func LoadConfig(instanceDir string) (*InstanceConfig, error) {
	configPath := filepath.Join(instanceDir, "config.json")
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg InstanceConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &cfg, nil
}
