package capability

import (
	"context"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// 单个探测命令的超时。探测是 best-effort，不值得等太久。
const probeTimeout = 3 * time.Second

// ExecProvider 通过外部查询工具探测宿主能力。
// 工具缺失或执行失败一律视为对应能力不存在。
type ExecProvider struct {
	// RenderNodeGlob 覆盖渲染节点匹配模式，空值使用 /dev/dri/renderD*。
	// 仅测试使用。
	RenderNodeGlob string
}

// Detect 实现 Provider。
func (p *ExecProvider) Detect() Profile {
	var profile Profile

	profile.GPUModel = probeGPUModel()
	profile.HasDiscreteGPU = profile.GPUModel != ""
	profile.HasRenderNode = probeRenderNode(p.RenderNodeGlob)
	profile.VulkanMajor, profile.VulkanMinor = probeVulkanVersion()

	return profile
}

// probeGPUModel 查询独立显卡型号。返回空串表示无独立显卡（或工具缺失）。
func probeGPUModel() string {
	if _, err := exec.LookPath("nvidia-smi"); err != nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "nvidia-smi",
		"--query-gpu=name", "--format=csv,noheader").Output()
	if err != nil {
		return ""
	}

	// 多卡时取第一块
	name := strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
	return name
}

// probeRenderNode 检查是否存在可渲染的 DRM 设备节点。
func probeRenderNode(glob string) bool {
	if glob == "" {
		glob = "/dev/dri/renderD*"
	}
	matches, err := filepath.Glob(glob)
	return err == nil && len(matches) > 0
}

// vulkaninfo 输出中的 apiVersion 行，两种常见格式都要兼容：
//
//	apiVersion = 1.3.280
//	apiVersion = 4206847 (1.3.255)
var apiVersionRe = regexp.MustCompile(`apiVersion\s*=.*?(\d+)\.(\d+)\.(\d+)`)

// probeVulkanVersion 查询宿主支持的最高 Vulkan 版本。
// 失败返回 0,0（视为不支持）。
func probeVulkanVersion() (major, minor int) {
	if _, err := exec.LookPath("vulkaninfo"); err != nil {
		return 0, 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "vulkaninfo", "--summary").Output()
	if err != nil {
		return 0, 0
	}

	return ParseVulkanVersion(string(out))
}

// ParseVulkanVersion 从 vulkaninfo 输出解析最高 apiVersion。
// 多设备时取版本最高者。
func ParseVulkanVersion(output string) (major, minor int) {
	for _, m := range apiVersionRe.FindAllStringSubmatch(output, -1) {
		maj, err1 := strconv.Atoi(m[1])
		mnr, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			continue
		}
		if maj > major || (maj == major && mnr > minor) {
			major, minor = maj, mnr
		}
	}
	return major, minor
}
