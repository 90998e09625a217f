//go:build !linux
// +build !linux

package supervisor

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

// Supervisor 是进程监督器的 stub
type Supervisor struct{}

// New 在非 Linux 平台返回空监督器
func New(logger *log.Logger) *Supervisor {
	return &Supervisor{}
}

// Start 在非 Linux 平台返回错误
func (s *Supervisor) Start(ctx context.Context, svc *Service) (*Handle, error) {
	return nil, fmt.Errorf("process supervision requires Linux")
}

// Teardown 在非 Linux 平台无操作
func (s *Supervisor) Teardown() {}

// Handles 在非 Linux 平台返回空列表
func (s *Supervisor) Handles() []*Handle {
	return nil
}
