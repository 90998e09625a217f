// Package capability 负责宿主图形能力探测。
//
// 探测结果是只读的 Profile，每次启动计算一次，供后续阶段选择
// 显示服务器策略（Xorg vs Xvfb）与渲染后端覆盖。探测命令都是
// best-effort：工具缺失视为"能力不存在"，绝不视为错误。
package capability

import "strings"

// Profile 是宿主图形能力的分类结果。计算后不再修改。
type Profile struct {
	// HasDiscreteGPU 表示独立显卡管理接口（nvidia-smi）可用且报告了设备
	HasDiscreteGPU bool
	// GPUModel 是探测到的显卡型号（如 "NVIDIA GeForce RTX 3060"），未探测到为空
	GPUModel string
	// HasRenderNode 表示存在可渲染的 DRM 设备节点（/dev/dri/renderD*）
	HasRenderNode bool
	// VulkanMajor/VulkanMinor 是 vulkaninfo 报告的最高 API 版本，0.0 表示不可用
	VulkanMajor int
	VulkanMinor int
}

// Provider 提供能力探测。核心逻辑只依赖该接口，
// 测试中用假实现注入确定的 Profile。
type Provider interface {
	Detect() Profile
}

// UseHardwareDisplay 决定显示服务器策略：
// 有独立显卡或渲染节点时启动完整 Xorg（策略 A），否则 Xvfb（策略 B）。
func (p Profile) UseHardwareDisplay() bool {
	return p.HasDiscreteGPU || p.HasRenderNode
}

// HasVulkan 表示宿主至少支持给定的 Vulkan 版本。
func (p Profile) HasVulkan(major, minor int) bool {
	if p.VulkanMajor != major {
		return p.VulkanMajor > major
	}
	return p.VulkanMinor >= minor
}

// 原生渲染覆盖所需的最低 Vulkan 版本
const (
	NativeVulkanMajor = 1
	NativeVulkanMinor = 3
)

// nativeModelMarkers 列出已知需要强制原生渲染后端的显卡型号特征。
// 这些代际在内置转换层下有已知的渲染缺陷。
var nativeModelMarkers = []string{
	"RTX",
	"GTX 16",
}

// ShouldForceNative 决定渲染后端覆盖：
// 命中已知型号，或 Vulkan 版本达到阈值时，强制使用原生渲染后端；
// 否则显式停用覆盖。该决策与显示服务器策略相互独立，每次启动都要求值。
func (p Profile) ShouldForceNative() bool {
	for _, marker := range nativeModelMarkers {
		if p.GPUModel != "" && strings.Contains(p.GPUModel, marker) {
			return true
		}
	}
	return p.HasVulkan(NativeVulkanMajor, NativeVulkanMinor)
}
