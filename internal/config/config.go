package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Mode 表示一次启动的运行模式
type Mode string

const (
	// ModeGUI 表示连接宿主显示器的交互模式（exec 替换当前进程）
	ModeGUI Mode = "gui"
	// ModeHeadless 表示无头模式（虚拟显示，无远程桌面）
	ModeHeadless Mode = "headless"
	// ModeHeadlessVNC 表示无头模式 + VNC 远程桌面
	ModeHeadlessVNC Mode = "headless-vnc"
)

// ParseMode 解析运行模式字符串。
// 未知模式返回错误，调用方应作为用法错误处理（退出码 2）。
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeGUI, ModeHeadless, ModeHeadlessVNC:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown run mode %q (expected gui, headless or headless-vnc)", s)
	}
}

// 环境变量名。与 Wine 自身的变量保持一致，便于直接透传。
const (
	EnvPrefix       = "WINEPREFIX"
	EnvArch         = "WINEARCH"
	EnvGameRoot     = "GAME_ROOT"
	EnvGameExe      = "GAME_EXE"
	EnvDesktopName  = "DESKTOP_NAME"
	EnvDesktopRes   = "DESKTOP_RES"
	EnvColorDepth   = "COLOR_DEPTH"
	EnvDisplayNum   = "DISPLAY_NUM"
	EnvRuntimeDir   = "XDG_RUNTIME_DIR"
	EnvVNCPort      = "VNC_PORT"
	EnvWineDebug    = "WINEDEBUG"
	EnvDLLOverrides = "WINEDLLOVERRIDES"
)

// 内置默认值
const (
	DefaultPrefix      = "/opt/prefix"
	DefaultArch        = "win64"
	DefaultGameRoot    = "/opt/game"
	DefaultGameExe     = "DarkSoulsRemastered.exe"
	DefaultDesktopName = "DSR"
	DefaultDesktopRes  = "800x600"
	DefaultColorDepth  = 24
	DefaultDisplayNum  = 99
	DefaultRuntimeDir  = "/tmp/xdg"
	DefaultVNCPort     = 5900
	DefaultWineDebug   = "-all"
)

// 就绪轮询与一次性初始化的时间预算。
// 轮询循环必须有界：interval × attempts 即最大等待时间。
const (
	DefaultPollInterval     = 500 * time.Millisecond
	DefaultAudioTimeout     = 10 * time.Second
	DefaultXorgTimeout      = 180 * time.Second
	DefaultXvfbTimeout      = 30 * time.Second
	DefaultVNCTimeout       = 30 * time.Second
	DefaultPrefixTimeout    = 120 * time.Second
	DefaultSaveInitTimeout  = 60 * time.Second
	DefaultStopGraceTimeout = 10 * time.Second
)

// RunConfiguration 是一次启动的全部配置。
// 进程启动时解析一次，之后不可变；所有组件按值接收它，
// 而不是在内部逻辑里读取进程环境变量。
type RunConfiguration struct {
	// Name 是实例名（来自 instances 文件），ad-hoc 启动时为空
	Name string
	// Mode 是运行模式
	Mode Mode

	// Prefix 是 Wine prefix（兼容层持久状态根目录）
	Prefix string
	// TemplatePrefix 是克隆新 prefix 时使用的模板目录
	TemplatePrefix string
	// Arch 是目标二进制字长（win64/win32）
	Arch string

	// GameRoot 是查找可执行文件的根目录
	GameRoot string
	// GameExe 是目标可执行文件名（大小写不敏感匹配）
	GameExe string

	// DesktopName 与 DesktopRes 传给 Wine 虚拟桌面与显示服务器配置
	DesktopName string
	DesktopRes  string
	ColorDepth  int

	// DisplayNum 是 X display 序号（DISPLAY=:N）
	DisplayNum int
	// RuntimeDir 是 XDG_RUNTIME_DIR（也决定 PulseAudio socket 位置）
	RuntimeDir string
	// VNCPort 是 x11vnc 监听端口（仅 headless-vnc 模式）
	VNCPort int

	// WineDebug 与 DLLOverrides 原样透传给兼容层
	WineDebug    string
	DLLOverrides string

	// 轮询与超时预算
	PollInterval    time.Duration
	AudioTimeout    time.Duration
	XorgTimeout     time.Duration
	XvfbTimeout     time.Duration
	VNCTimeout      time.Duration
	PrefixTimeout   time.Duration
	SaveInitTimeout time.Duration
}

// Resolve 从进程环境变量解析配置。缺失的值使用内置默认值。
func Resolve(mode Mode) (*RunConfiguration, error) {
	return ResolveFrom(mode, os.Getenv)
}

// ResolveFrom 使用给定的查找函数解析配置，便于测试注入。
func ResolveFrom(mode Mode, getenv func(string) string) (*RunConfiguration, error) {
	lookup := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := &RunConfiguration{
		Mode:           mode,
		Prefix:         lookup(EnvPrefix, DefaultPrefix),
		TemplatePrefix: DefaultPrefix,
		Arch:           lookup(EnvArch, DefaultArch),
		GameRoot:       lookup(EnvGameRoot, DefaultGameRoot),
		GameExe:        lookup(EnvGameExe, DefaultGameExe),
		DesktopName:    lookup(EnvDesktopName, DefaultDesktopName),
		DesktopRes:     lookup(EnvDesktopRes, DefaultDesktopRes),
		RuntimeDir:     lookup(EnvRuntimeDir, DefaultRuntimeDir),
		WineDebug:      lookup(EnvWineDebug, DefaultWineDebug),
		DLLOverrides:   getenv(EnvDLLOverrides),

		PollInterval:    DefaultPollInterval,
		AudioTimeout:    DefaultAudioTimeout,
		XorgTimeout:     DefaultXorgTimeout,
		XvfbTimeout:     DefaultXvfbTimeout,
		VNCTimeout:      DefaultVNCTimeout,
		PrefixTimeout:   DefaultPrefixTimeout,
		SaveInitTimeout: DefaultSaveInitTimeout,
	}

	var err error
	if cfg.ColorDepth, err = lookupInt(getenv, EnvColorDepth, DefaultColorDepth); err != nil {
		return nil, err
	}
	if cfg.DisplayNum, err = lookupInt(getenv, EnvDisplayNum, DefaultDisplayNum); err != nil {
		return nil, err
	}
	if cfg.VNCPort, err = lookupInt(getenv, EnvVNCPort, DefaultVNCPort); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验解析后的配置。
func (c *RunConfiguration) Validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if c.DisplayNum < 0 {
		return fmt.Errorf("display number must be non-negative, got %d", c.DisplayNum)
	}
	if c.VNCPort <= 0 || c.VNCPort > 65535 {
		return fmt.Errorf("vnc port must be between 1 and 65535, got %d", c.VNCPort)
	}
	if c.ColorDepth != 8 && c.ColorDepth != 16 && c.ColorDepth != 24 && c.ColorDepth != 30 {
		return fmt.Errorf("unsupported color depth %d", c.ColorDepth)
	}
	if _, _, err := c.Resolution(); err != nil {
		return err
	}
	return nil
}

// Resolution 解析 DesktopRes（形如 "800x600"）为宽和高。
func (c *RunConfiguration) Resolution() (width, height int, err error) {
	parts := strings.SplitN(c.DesktopRes, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid desktop resolution %q (expected WIDTHxHEIGHT)", c.DesktopRes)
	}
	width, err = strconv.Atoi(parts[0])
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("invalid desktop width in %q", c.DesktopRes)
	}
	height, err = strconv.Atoi(parts[1])
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("invalid desktop height in %q", c.DesktopRes)
	}
	return width, height, nil
}

// Display 返回 X display 字符串（":99" 形式）。
func (c *RunConfiguration) Display() string {
	return fmt.Sprintf(":%d", c.DisplayNum)
}

// PulseDir 返回 PulseAudio 运行时目录（native socket 所在位置）。
func (c *RunConfiguration) PulseDir() string {
	return c.RuntimeDir + "/pulse"
}

// PulseSocket 返回 PulseAudio native socket 路径。
func (c *RunConfiguration) PulseSocket() string {
	return c.PulseDir() + "/native"
}

// DisplayTimeout 返回显示服务器的就绪预算。
// Xorg（硬件加速）冷启动远慢于 Xvfb，预算区别对待。
func (c *RunConfiguration) DisplayTimeout(hardware bool) time.Duration {
	if hardware {
		return c.XorgTimeout
	}
	return c.XvfbTimeout
}

func lookupInt(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q", key, v)
	}
	return n, nil
}
