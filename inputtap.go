/**
 * Package inputtap 提供跨平台的全局键盘与鼠标捕获
 *
 * 在操作系统层挂接输入钩子，把原始输入归一化为统一事件流，
 * 支持三种消费方式：
 *   - 监听（Listen）：只读观察所有输入
 *   - 拦截（Grab）：在系统投递前消费或改写输入
 *   - 通道（ListenChannel / GrabChannel）：有界 channel 桥接
 *
 * 另外提供事件注入（模拟按键与鼠标操作）、录制回放（pkg/recorder）、
 * 热键（pkg/hotkey）与统计（pkg/statistics）。
 *
 * 平台支持：macOS（CGEventTap）、Windows（低级钩子）；
 * 其余平台编译通过但运行时返回 ErrBackendUnavailable。
 */

package inputtap

import (
	"time"

	"github.com/chenyang-zz/inputtap/internal/platform"
	"github.com/chenyang-zz/inputtap/pkg/events"
	"github.com/chenyang-zz/inputtap/pkg/hook"
)

// 重导出常用错误，调用方用 errors.Is 判别
var (
	ErrAlreadyRunning     = hook.ErrAlreadyRunning
	ErrInvalidCapacity    = hook.ErrInvalidCapacity
	ErrBackendUnavailable = hook.ErrBackendUnavailable
	ErrPermissionDenied   = hook.ErrPermissionDenied
	ErrSimulationFailed   = hook.ErrSimulationFailed
	ErrBackendFault       = hook.ErrBackendFault
)

/**
 * NewHook 创建绑定当前平台后端的捕获运行时
 *
 * Parameters:
 *   - opts: 配置选项（hook.WithClickTolerance 等）
 *
 * Returns: *hook.Hook - 捕获运行时
 */
func NewHook(opts ...hook.Option) *hook.Hook {
	return hook.New(platform.New(), opts...)
}

/**
 * Listen 以监听模式启动捕获会话
 *
 * 回调在捕获线程上同步执行，必须快速返回。
 * 会话在后台运行，通过返回的句柄 Stop/Wait。
 *
 * Returns: *hook.Handle - 会话句柄, error - 启动错误
 */
func Listen(handler hook.EventHandler, opts ...hook.Option) (*hook.Handle, error) {
	return NewHook(opts...).RunAsync(handler)
}

/**
 * Grab 以拦截模式启动捕获会话
 *
 * 回调返回 nil 表示消费事件（系统不投递），返回改写后的
 * 新事件表示替换，原样返回表示放行。
 */
func Grab(handler hook.GrabHandler, opts ...hook.Option) (*hook.Handle, error) {
	return NewHook(opts...).GrabAsync(handler)
}

/**
 * ListenChannel 以监听模式启动会话并返回事件通道
 *
 * Parameters:
 *   - capacity: 通道容量，必须为正数
 */
func ListenChannel(capacity int, opts ...hook.Option) (*hook.ChannelHandle, <-chan events.Event, error) {
	return NewHook(opts...).ListenChannel(capacity)
}

/**
 * GrabChannel 以拦截模式启动会话并返回事件通道
 *
 * filter 返回 false 的事件被消费，true 的事件放行并入队。
 */
func GrabChannel(capacity int, filter func(ev events.Event) bool, opts ...hook.Option) (*hook.ChannelHandle, <-chan events.Event, error) {
	return NewHook(opts...).GrabChannel(capacity, filter)
}

// 注入辅助函数共享的后端实例，注入不依赖会话状态
var simBackend = platform.New()

/**
 * Simulate 注入一个合成事件
 *
 * 失败统一返回 ErrSimulationFailed 包装的错误。
 */
func Simulate(ev events.Event) error {
	return hook.New(simBackend).Simulate(ev)
}

/**
 * KeyPress 注入按键按下
 */
func KeyPress(key events.Key) error {
	return Simulate(events.NewKeyPressed(0, time.Now(), key, 0, false))
}

/**
 * KeyRelease 注入按键释放
 */
func KeyRelease(key events.Key) error {
	return Simulate(events.NewKeyReleased(0, time.Now(), key, 0))
}

/**
 * KeyTap 注入一次完整击键（按下并释放）
 */
func KeyTap(key events.Key) error {
	if err := KeyPress(key); err != nil {
		return err
	}
	return KeyRelease(key)
}

/**
 * MousePress 在指定位置注入鼠标按下
 */
func MousePress(button events.Button, x, y float64) error {
	return Simulate(events.NewMousePressed(0, time.Now(), button, x, y, 1))
}

/**
 * MouseRelease 在指定位置注入鼠标释放
 */
func MouseRelease(button events.Button, x, y float64) error {
	return Simulate(events.NewMouseReleased(0, time.Now(), button, x, y, 1))
}

/**
 * MouseClick 在指定位置注入一次完整点击
 */
func MouseClick(button events.Button, x, y float64) error {
	return Simulate(events.NewMouseClicked(0, time.Now(), button, x, y, 1))
}

/**
 * MouseMoveTo 注入鼠标移动到指定位置
 */
func MouseMoveTo(x, y float64) error {
	return Simulate(events.NewMouseMoved(0, time.Now(), x, y))
}

/**
 * Scroll 注入滚轮滚动
 */
func Scroll(direction events.ScrollDirection, delta float64, x, y float64) error {
	return Simulate(events.NewMouseWheel(0, time.Now(), direction, delta, x, y))
}
