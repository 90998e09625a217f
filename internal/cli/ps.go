//go:build linux
// +build linux

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"winebox/internal/state"
)

var (
	// ps 命令标志
	psAll    bool
	psQuiet  bool
	psFormat string
)

var psCmd = &cobra.Command{
	Use:   "ps [OPTIONS]",
	Short: "列出实例",
	Long: `列出游戏实例。

默认只显示运行中的实例。使用 -a 显示所有实例。

示例:
  winebox ps           # 列出运行中的实例
  winebox ps -a        # 列出所有实例
  winebox ps -q        # 只显示实例名
  winebox ps --format json  # JSON 格式输出`,
	Args: cobra.NoArgs,
	RunE: listInstances,
}

func init() {
	psCmd.Flags().BoolVarP(&psAll, "all", "a", false, "显示所有实例（默认只显示运行中）")
	psCmd.Flags().BoolVarP(&psQuiet, "quiet", "q", false, "只显示实例名")
	psCmd.Flags().StringVar(&psFormat, "format", "table", "格式化输出（table/json）")
}

// PsEntry 表示 ps 命令的单行输出
type PsEntry struct {
	Name     string    `json:"Name"`
	Status   string    `json:"Status"`
	Mode     string    `json:"Mode"`
	Pid      int       `json:"Pid,omitempty"`
	Display  string    `json:"Display"`
	VNCPort  int       `json:"VncPort,omitempty"`
	Created  time.Time `json:"Created"`
	ExitCode *int      `json:"ExitCode,omitempty"`
}

func listInstances(cmd *cobra.Command, args []string) error {
	store, err := state.NewStore(rootDir)
	if err != nil {
		return fmt.Errorf("initialize state store: %w", err)
	}

	states, err := store.List(psAll)
	if err != nil {
		return fmt.Errorf("list instances: %w", err)
	}

	entries := make([]PsEntry, 0, len(states))
	for _, s := range states {
		entries = append(entries, PsEntry{
			Name:     s.Name,
			Status:   string(s.Status),
			Mode:     string(s.Mode),
			Pid:      s.Pid,
			Display:  fmt.Sprintf(":%d", s.DisplayNum),
			VNCPort:  s.VNCPort,
			Created:  s.CreatedAt,
			ExitCode: s.ExitCode,
		})
	}

	// 按创建时间倒序输出
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Created.After(entries[j].Created)
	})

	switch psFormat {
	case "json":
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	case "table":
		return outputPsTable(entries)
	default:
		return fmt.Errorf("unknown format: %s (supported: table, json)", psFormat)
	}
}

func outputPsTable(entries []PsEntry) error {
	if psQuiet {
		for _, entry := range entries {
			fmt.Println(entry.Name)
		}
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tMODE\tPID\tDISPLAY\tVNC\tCREATED")

	for _, entry := range entries {
		pid := "-"
		if entry.Pid > 0 && entry.Status == string(state.StatusRunning) {
			pid = fmt.Sprintf("%d", entry.Pid)
		}
		vnc := "-"
		if entry.VNCPort > 0 {
			vnc = fmt.Sprintf("%d", entry.VNCPort)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			entry.Name, entry.Status, entry.Mode, pid, entry.Display, vnc, formatCreatedTime(entry.Created))
	}

	return w.Flush()
}

// formatCreatedTime 格式化创建时间
func formatCreatedTime(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "Less than a minute ago"
	case duration < time.Hour:
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	case duration < 24*time.Hour:
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case duration < 7*24*time.Hour:
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04:05")
	}
}
