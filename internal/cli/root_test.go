//go:build linux
// +build linux

package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	wberrors "winebox/pkg/errors"
)

func TestExitCodeClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown mode", unknownModeError("bogus"), 2},
		{"missing mode", requireMode(runCmd, nil), 2},
		{"wrapped usage", fmt.Errorf("run: %w", wberrors.ErrUsage), 2},
		{"instance not found", fmt.Errorf("%w: dsr-9", wberrors.ErrInstanceNotFound), 1},
		{"plain fatal", errors.New("display not ready"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestRunRequiresMode(t *testing.T) {
	err := requireMode(runCmd, []string{})
	if !errors.Is(err, wberrors.ErrUsage) {
		t.Fatalf("missing mode should be a usage error, got %v", err)
	}

	if err := requireMode(runCmd, []string{"headless"}); err != nil {
		t.Fatalf("mode present: %v", err)
	}
	if err := requireMode(runCmd, []string{"headless", "dsr-1", "dsr-2"}); err != nil {
		t.Fatalf("mode with instances: %v", err)
	}
}

func TestUnknownModeErrorMessage(t *testing.T) {
	err := unknownModeError("bogus-mode")
	if !errors.Is(err, wberrors.ErrUnknownMode) {
		t.Fatalf("err = %v, want ErrUnknownMode", err)
	}

	msg := err.Error()
	if !strings.Contains(msg, `"bogus-mode"`) {
		t.Errorf("message should name the offending argument: %q", msg)
	}
	if n := strings.Count(msg, "unknown run mode"); n != 1 {
		t.Errorf("sentinel text appears %d times in %q, want exactly once", n, msg)
	}
}
