package vnc

import (
	"strings"
	"testing"

	"winebox/internal/config"
)

func TestNewService(t *testing.T) {
	cfg, err := config.ResolveFrom(config.ModeHeadlessVNC, func(key string) string {
		switch key {
		case config.EnvDisplayNum:
			return "90"
		case config.EnvVNCPort:
			return "5901"
		}
		return ""
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	svc := NewService(cfg, "")

	if svc.Path != "x11vnc" {
		t.Errorf("path = %q", svc.Path)
	}
	if !svc.Critical {
		t.Errorf("vnc requested by run mode must be critical")
	}

	joined := strings.Join(svc.Args, " ")
	if !strings.Contains(joined, "-display :90") {
		t.Errorf("args = %q, missing display", joined)
	}
	if !strings.Contains(joined, "-rfbport 5901") {
		t.Errorf("args = %q, missing port", joined)
	}
}
