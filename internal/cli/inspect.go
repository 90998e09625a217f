//go:build linux
// +build linux

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"winebox/internal/state"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect INSTANCE [INSTANCE...]",
	Short: "显示实例的详细信息",
	Long: `显示一个或多个实例的详细信息。

输出 JSON 格式的实例配置和状态信息。

示例:
  winebox inspect dsr-1
  winebox inspect dsr-1 dsr-2`,
	Args: cobra.MinimumNArgs(1),
	RunE: inspectInstances,
}

// InspectOutput 表示 inspect 命令的完整输出
type InspectOutput struct {
	Name     string        `json:"Name"`
	LaunchID string        `json:"LaunchId"`
	Created  time.Time     `json:"Created"`
	State    StateInfo     `json:"State"`
	Config   ConfigInfo    `json:"Config"`
	Game     GameInfo      `json:"Game"`
	Services []ServiceInfo `json:"Services,omitempty"`
	LogPath  string        `json:"LogPath"`
}

// StateInfo 表示实例状态信息
type StateInfo struct {
	Status     string     `json:"Status"`
	Running    bool       `json:"Running"`
	Pid        int        `json:"Pid"`
	ExitCode   int        `json:"ExitCode"`
	StartedAt  *time.Time `json:"StartedAt,omitempty"`
	FinishedAt *time.Time `json:"FinishedAt,omitempty"`
}

// ConfigInfo 表示实例配置信息
type ConfigInfo struct {
	Mode        string `json:"Mode"`
	Detached    bool   `json:"Detached"`
	Prefix      string `json:"Prefix"`
	Arch        string `json:"Arch"`
	DesktopName string `json:"DesktopName"`
	DesktopRes  string `json:"DesktopRes"`
	Display     string `json:"Display"`
	VNCPort     int    `json:"VncPort,omitempty"`
	RuntimeDir  string `json:"RuntimeDir"`
}

// GameInfo 表示游戏可执行文件信息
type GameInfo struct {
	Root      string `json:"Root"`
	Exe       string `json:"Exe"`
	ExePath   string `json:"ExePath,omitempty"`
	ExeDigest string `json:"ExeDigest,omitempty"`
	Renderer  string `json:"Renderer,omitempty"`
}

// ServiceInfo 表示辅助服务信息
type ServiceInfo struct {
	Name      string    `json:"Name"`
	Pid       int       `json:"Pid"`
	LogPath   string    `json:"LogPath,omitempty"`
	StartedAt time.Time `json:"StartedAt"`
}

func inspectInstances(cmd *cobra.Command, args []string) error {
	store, err := state.NewStore(rootDir)
	if err != nil {
		return fmt.Errorf("initialize state store: %w", err)
	}

	outputs := make([]InspectOutput, 0, len(args))
	hasError := false

	for _, name := range args {
		output, err := inspectInstance(store, name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error inspecting %s: %v\n", name, err)
			hasError = true
			continue
		}
		outputs = append(outputs, *output)
	}

	if len(outputs) > 0 {
		data, err := json.MarshalIndent(outputs, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		fmt.Println(string(data))
	}

	if hasError {
		os.Exit(1)
	}
	return nil
}

func inspectInstance(store *state.Store, name string) (*InspectOutput, error) {
	st, err := store.Get(name)
	if err != nil {
		return nil, err
	}

	cfg, err := state.LoadConfig(st.GetInstanceDir())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	exitCode := 0
	if st.ExitCode != nil {
		exitCode = *st.ExitCode
	}

	services := make([]ServiceInfo, 0, len(st.Services))
	for _, svc := range st.Services {
		services = append(services, ServiceInfo{
			Name:      svc.Name,
			Pid:       svc.Pid,
			LogPath:   svc.LogPath,
			StartedAt: svc.StartedAt,
		})
	}

	return &InspectOutput{
		Name:     st.Name,
		LaunchID: st.LaunchID,
		Created:  st.CreatedAt,
		State: StateInfo{
			Status:     string(st.Status),
			Running:    st.Status == state.StatusRunning,
			Pid:        st.Pid,
			ExitCode:   exitCode,
			StartedAt:  st.StartedAt,
			FinishedAt: st.FinishedAt,
		},
		Config: ConfigInfo{
			Mode:        string(cfg.Mode),
			Detached:    cfg.Detached,
			Prefix:      cfg.Prefix,
			Arch:        cfg.Arch,
			DesktopName: cfg.DesktopName,
			DesktopRes:  cfg.DesktopRes,
			Display:     fmt.Sprintf(":%d", cfg.DisplayNum),
			VNCPort:     cfg.VNCPort,
			RuntimeDir:  cfg.RuntimeDir,
		},
		Game: GameInfo{
			Root:      cfg.GameRoot,
			Exe:       cfg.GameExe,
			ExePath:   st.ExePath,
			ExeDigest: string(st.ExeDigest),
			Renderer:  st.Renderer,
		},
		Services: services,
		LogPath:  st.GetLogDir(),
	}, nil
}
