//go:build !darwin && !windows

package platform

import (
	"fmt"

	"github.com/chenyang-zz/inputtap/pkg/events"
	"github.com/chenyang-zz/inputtap/pkg/hook"
)

// StubBackend 无捕获能力平台的桩实现
//
// 保证库在所有平台都能编译和链接；启动会话和注入事件
// 都返回明确的不可用错误，调用方通过 errors.Is 判别。
type StubBackend struct{}

// New 创建当前平台的捕获后端
//
// Returns: hook.Backend - 桩实现
func New() hook.Backend {
	return &StubBackend{}
}

// Run 当前平台没有可用的捕获后端
func (b *StubBackend) Run(handler hook.ObservationHandler) error {
	return fmt.Errorf("%w: 当前平台未实现输入捕获", hook.ErrBackendUnavailable)
}

// Stop 无会话可停止，空操作
func (b *StubBackend) Stop() error {
	return nil
}

// CanGrab 桩实现不支持拦截
func (b *StubBackend) CanGrab() bool {
	return false
}

// Simulate 当前平台不支持事件注入
func (b *StubBackend) Simulate(ev events.Event) error {
	return fmt.Errorf("%w: 当前平台未实现事件注入", hook.ErrSimulationFailed)
}
