//go:build linux
// +build linux

package runtime

import (
	"context"
	"fmt"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"winebox/internal/capability"
	"winebox/internal/config"
	"winebox/internal/display"
	"winebox/internal/prefix"
	"winebox/internal/supervisor"
)

// GenConfigOptions 配置实例定义文件的生成
type GenConfigOptions struct {
	// Count 是要生成的实例数量
	Count int
	// BaseName 是实例名前缀，实例命名为 <BaseName>-1 .. <BaseName>-N
	BaseName string
	// OutputPath 是实例定义文件的写入位置
	OutputPath string
	// BaseDisplay 是起始 X display 序号，逐实例递增
	BaseDisplay int
	// BaseVNCPort 是起始 VNC 端口，逐实例递增
	BaseVNCPort int
	// PrefixParent 是各实例 prefix 的父目录
	PrefixParent string
	// SkipBootstrap 跳过存档初始化（只写拓扑，不跑游戏）
	SkipBootstrap bool
	// Logger 记录生成过程；nil 使用默认 logger
	Logger *log.Logger
}

// GenerateConfig 生成多实例定义文件。
//
// 每个实例分配独立的 display、VNC 端口、prefix 与运行时目录。
// 默认还会对每个实例执行一次存档引导：短暂无头运行游戏，等它
// 创建数字用户 ID 的存档目录，把发现的 ID 写进实例条目。
func GenerateConfig(opts *GenConfigOptions) (*config.InstancesFile, error) {
	if opts.Count <= 0 {
		return nil, fmt.Errorf("instance count must be positive, got %d", opts.Count)
	}
	if opts.BaseName == "" {
		opts.BaseName = "dsr"
	}
	if opts.BaseDisplay <= 0 {
		opts.BaseDisplay = config.DefaultDisplayNum
	}
	if opts.BaseVNCPort <= 0 {
		opts.BaseVNCPort = config.DefaultVNCPort
	}
	if opts.PrefixParent == "" {
		opts.PrefixParent = filepath.Dir(config.DefaultPrefix)
	}
	if opts.OutputPath == "" {
		opts.OutputPath = config.DefaultInstancesPath
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	file := &config.InstancesFile{Instances: make(map[string]config.InstanceEntry)}

	for i := 1; i <= opts.Count; i++ {
		name := fmt.Sprintf("%s-%d", opts.BaseName, i)
		entry := config.InstanceEntry{
			DisplayNum: opts.BaseDisplay + i - 1,
			VNCPort:    opts.BaseVNCPort + i - 1,
			Prefix:     filepath.Join(opts.PrefixParent, "prefix_"+name),
		}

		cfg, err := config.Resolve(config.ModeHeadless)
		if err != nil {
			return nil, err
		}
		if err := cfg.Apply(name, entry); err != nil {
			return nil, fmt.Errorf("instance %s: %w", name, err)
		}

		if !opts.SkipBootstrap {
			opts.Logger.Info("bootstrapping save directory", "instance", name, "prefix", cfg.Prefix)
			saveID, err := bootstrapSave(cfg, opts.Logger)
			if err != nil {
				return nil, fmt.Errorf("bootstrap %s: %w", name, err)
			}
			entry.SaveUserID = saveID
			entry.SaveRoot = prefix.SaveRoot(cfg.Prefix)
			entry.SaveDir = filepath.Join(entry.SaveRoot, saveID)
			opts.Logger.Info("save directory ready", "instance", name, "save_user_id", saveID)
		}

		file.Instances[name] = entry
	}

	if err := file.Save(opts.OutputPath); err != nil {
		return nil, err
	}
	return file, nil
}

// bootstrapSave 短暂运行游戏直到存档目录出现，返回数字用户 ID。
//
// 存档目录已存在时直接返回（幂等，重复 genconfig 不会再跑游戏）。
// 引导只需要游戏活到创建存档的时刻，显示一律用软件回退。
func bootstrapSave(cfg *config.RunConfiguration, logger *log.Logger) (string, error) {
	saveRoot := prefix.SaveRoot(cfg.Prefix)
	if id := prefix.FindSaveUserID(saveRoot); id != "" {
		return id, nil
	}

	if err := config.PrepareEnvironment(cfg); err != nil {
		return "", err
	}
	if err := prefix.Ensure(cfg.Prefix, cfg.TemplatePrefix); err != nil {
		return "", err
	}

	sup := supervisor.New(logger)
	defer sup.Teardown()
	ctx := context.Background()

	env := wineEnv(cfg, "", cfg.Display())
	prefix.KillWineserver(env)
	if err := display.RemoveStaleLocks("/tmp", cfg.DisplayNum); err != nil {
		return "", err
	}

	// 空 Profile 强制软件回退（Xvfb）
	displaySvc, err := display.NewService(cfg, capability.Profile{}, cfg.RuntimeDir, filepath.Join(cfg.RuntimeDir, "bootstrap-display.log"))
	if err != nil {
		return "", err
	}
	if _, err := sup.Start(ctx, displaySvc); err != nil {
		return "", err
	}

	if !prefix.IsInitialized(cfg.Prefix) {
		if err := prefix.Initialize(ctx, cfg, env); err != nil {
			return "", err
		}
	}

	exePath, err := prefix.LocateExecutable(cfg.GameRoot, cfg.GameExe)
	if err != nil {
		return "", err
	}

	cmd, err := gameCommand(cfg, exePath, env, filepath.Join(cfg.RuntimeDir, "bootstrap-game.log"))
	if err != nil {
		return "", err
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start bootstrap game: %w", err)
	}

	id, waitErr := prefix.WaitForSaveUserID(ctx, saveRoot, cfg.PollInterval, cfg.SaveInitTimeout)

	// 无论等没等到都要结束游戏进程组
	pid := cmd.Process.Pid
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
		_ = syscall.Kill(pid, syscall.SIGTERM)
	}
	done := make(chan struct{})
	go func() { _ = cmd.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(config.DefaultStopGraceTimeout):
		_ = syscall.Kill(-pid, syscall.SIGKILL)
		_ = syscall.Kill(pid, syscall.SIGKILL)
		<-done
	}
	prefix.KillWineserver(env)

	if waitErr != nil {
		return "", waitErr
	}
	return id, nil
}
