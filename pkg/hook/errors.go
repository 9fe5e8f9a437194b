package hook

import "errors"

/**
 * 错误分类
 *
 * 所有会话与注入操作的失败都归入下列哨兵错误，
 * 调用方通过 errors.Is 判别，具体上下文由 %w 包装附加。
 */
var (
	// ErrAlreadyRunning 同一 Hook 实例已有会话在运行
	ErrAlreadyRunning = errors.New("hook: session already running")

	// ErrInvalidCapacity 通道容量非法（必须为正数）
	ErrInvalidCapacity = errors.New("hook: channel capacity must be positive")

	// ErrBackendUnavailable 当前平台没有可用的捕获后端
	ErrBackendUnavailable = errors.New("hook: capture backend unavailable on this platform")

	// ErrPermissionDenied 系统拒绝授予输入捕获权限
	ErrPermissionDenied = errors.New("hook: input capture permission denied")

	// ErrSimulationFailed 事件注入失败
	ErrSimulationFailed = errors.New("hook: event simulation failed")

	// ErrBackendFault 后端在会话运行期间发生致命错误
	ErrBackendFault = errors.New("hook: backend fault during session")
)
