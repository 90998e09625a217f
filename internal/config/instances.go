package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"winebox/pkg/fileutil"
)

// DefaultInstancesPath 是实例定义文件的默认位置
const DefaultInstancesPath = "/etc/winebox/instances.json"

// InstanceEntry 是实例文件中单个实例的定义。
// 字段覆盖 RunConfiguration 中的对应值；零值字段不覆盖。
type InstanceEntry struct {
	DisplayNum  int    `json:"display_num"`
	VNCPort     int    `json:"vnc_port"`
	Prefix      string `json:"prefix"`
	DesktopRes  string `json:"desktop_res,omitempty"`
	DesktopName string `json:"desktop_name,omitempty"`
	RuntimeDir  string `json:"runtime_dir,omitempty"`

	// 存档初始化结果（genconfig 写入，启动时透传给下游）
	SaveUserID string `json:"save_user_id,omitempty"`
	SaveRoot   string `json:"save_root,omitempty"`
	SaveDir    string `json:"save_dir,omitempty"`
}

// InstancesFile 是实例定义文件的顶层结构
type InstancesFile struct {
	Instances map[string]InstanceEntry `json:"instances"`
}

// LoadInstances 从给定路径加载实例定义文件。
func LoadInstances(path string) (*InstancesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instances file: %w", err)
	}

	var file InstancesFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse instances file %s: %w", path, err)
	}
	if file.Instances == nil {
		return nil, fmt.Errorf("instances file %s must contain an \"instances\" object", path)
	}
	return &file, nil
}

// Save 原子写入实例定义文件。
func (f *InstancesFile) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal instances file: %w", err)
	}

	if err := fileutil.EnsureParentDir(path, 0755); err != nil {
		return err
	}
	if err := fileutil.AtomicWriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("save instances file: %w", err)
	}
	return nil
}

// Names 返回排序后的实例名列表。
func (f *InstancesFile) Names() []string {
	names := make([]string, 0, len(f.Instances))
	for name := range f.Instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply 将实例条目叠加到配置上。条目字段优先于环境变量和默认值。
func (c *RunConfiguration) Apply(name string, entry InstanceEntry) error {
	c.Name = name
	if entry.DisplayNum > 0 {
		c.DisplayNum = entry.DisplayNum
	}
	if entry.VNCPort > 0 {
		c.VNCPort = entry.VNCPort
	}
	if entry.Prefix != "" {
		c.Prefix = entry.Prefix
	}
	if entry.DesktopRes != "" {
		c.DesktopRes = entry.DesktopRes
	}
	if entry.DesktopName != "" {
		c.DesktopName = entry.DesktopName
	}
	if entry.RuntimeDir != "" {
		c.RuntimeDir = entry.RuntimeDir
	} else if entry.DisplayNum > 0 {
		// 多实例必须各自拥有独立的运行时目录，默认按 display 序号区分
		c.RuntimeDir = fmt.Sprintf("/tmp/xdg_%d", entry.DisplayNum)
	}
	return c.Validate()
}
