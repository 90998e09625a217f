package supervisor

import (
	"time"
)

// Service 描述一个待启动的辅助后台服务。
// 参数集合在启动前由 RunConfiguration 确定性推导，启动后不变。
type Service struct {
	// Name 用于日志与诊断输出
	Name string
	// Path 是可执行文件名（由 exec.LookPath 解析）
	Path string
	// Args 是固定的命令行参数
	Args []string
	// Env 是子进程环境；nil 表示继承当前进程
	Env []string
	// LogPath 是 stdout/stderr 重定向目标；空值丢弃输出
	LogPath string

	// Ready 是就绪判定；nil 且 ReadyPath 为空表示启动即就绪
	Ready Predicate
	// ReadyPath 非空时就绪判定为"该路径出现"，
	// 走 fsnotify 监听（WaitForPath）而非纯轮询。用于 socket 类服务。
	ReadyPath string
	// ReadyTimeout 是就绪轮询的总预算
	ReadyTimeout time.Duration
	// PollInterval 是就绪轮询间隔
	PollInterval time.Duration
	// Critical 表示就绪失败是否致命。
	// 显示服务器是 critical；音频是 best-effort。
	Critical bool
}

// Handle 表示一个已启动的后台服务。
// PID 在启动瞬间记录（早于就绪确认），保证卡死的服务也能被 teardown 终止。
type Handle struct {
	// Name 是服务名
	Name string
	// PID 是后台进程号
	PID int
	// LogPath 是服务日志文件路径
	LogPath string
	// Ready 表示就绪检查是否通过
	Ready bool

	// StartedAt 是启动时刻
	StartedAt time.Time
}
