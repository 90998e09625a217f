// Package display 负责显示服务器策略：
// 有 GPU 时渲染 xorg.conf 并启动完整 Xorg（硬件加速），
// 否则启动 Xvfb（纯软件虚拟帧缓冲）。
package display

import (
	"bytes"
	"fmt"
	"text/template"

	"winebox/pkg/fileutil"
)

// ConfParams 是 xorg.conf 模板的参数。
// 用类型化结构体渲染，避免字符串替换的占位符错配。
type ConfParams struct {
	ColorDepth int
	Width      int
	Height     int
}

// dummy 驱动 + 大显存虚拟屏，是容器内无物理显示器跑 Xorg 的标准做法
const xorgConfTemplate = `Section "Device"
    Identifier  "dummy_videocard"
    Driver      "dummy"
    VideoRam    256000
EndSection

Section "Monitor"
    Identifier  "dummy_monitor"
    HorizSync   5.0 - 1000.0
    VertRefresh 5.0 - 200.0
    Modeline    "{{.Width}}x{{.Height}}" 23.75 {{.Width}} 1088 1184 1440 {{.Height}} 661 664 730
EndSection

Section "Screen"
    Identifier  "dummy_screen"
    Device      "dummy_videocard"
    Monitor     "dummy_monitor"
    DefaultDepth {{.ColorDepth}}
    SubSection "Display"
        Depth    {{.ColorDepth}}
        Modes    "{{.Width}}x{{.Height}}"
        Virtual  {{.Width}} {{.Height}}
    EndSubSection
EndSection

Section "ServerLayout"
    Identifier  "dummy_layout"
    Screen      "dummy_screen"
EndSection
`

var confTemplate = template.Must(template.New("xorg.conf").Parse(xorgConfTemplate))

// RenderConf 渲染 xorg.conf 内容。
func RenderConf(params ConfParams) ([]byte, error) {
	if params.Width <= 0 || params.Height <= 0 {
		return nil, fmt.Errorf("invalid virtual resolution %dx%d", params.Width, params.Height)
	}
	if params.ColorDepth <= 0 {
		return nil, fmt.Errorf("invalid color depth %d", params.ColorDepth)
	}

	var buf bytes.Buffer
	if err := confTemplate.Execute(&buf, params); err != nil {
		return nil, fmt.Errorf("render xorg.conf: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteConf 渲染并原子写入 xorg.conf。
func WriteConf(path string, params ConfParams) error {
	data, err := RenderConf(params)
	if err != nil {
		return err
	}
	if err := fileutil.AtomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write xorg.conf: %w", err)
	}
	return nil
}
