/**
 * Package platform 提供各操作系统的输入捕获后端
 *
 * 每个平台实现 hook.Backend 接口：darwin 使用 CGEventTap（cgo），
 * windows 使用低级钩子（SetWindowsHookEx），其余平台为不可用桩实现。
 * 同时提供捕获权限的探测与引导。
 */

package platform

// PermissionType 权限类型枚举
type PermissionType int

const (
	// PermissionAccessibility 辅助功能权限
	// macOS 上创建事件 tap 的前提
	PermissionAccessibility PermissionType = iota

	// PermissionInputMonitoring 输入监控权限
	// macOS 10.15+ 监听键盘事件需要
	PermissionInputMonitoring
)

// String 返回权限类型的字符串表示
func (p PermissionType) String() string {
	switch p {
	case PermissionAccessibility:
		return "accessibility"
	case PermissionInputMonitoring:
		return "input_monitoring"
	default:
		return "unknown"
	}
}

// PermissionStatus 权限状态枚举
type PermissionStatus int

const (
	// PermissionStatusGranted 权限已授予
	PermissionStatusGranted PermissionStatus = iota

	// PermissionStatusDenied 权限被拒绝
	PermissionStatusDenied

	// PermissionStatusUnknown 权限状态未知（平台无此概念时）
	PermissionStatusUnknown
)

// String 返回权限状态的字符串表示
func (s PermissionStatus) String() string {
	switch s {
	case PermissionStatusGranted:
		return "granted"
	case PermissionStatusDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// PermissionChecker 权限检查器接口
type PermissionChecker interface {
	// CheckPermission 检查权限状态
	CheckPermission(permType PermissionType) PermissionStatus

	// RequestPermission 请求权限，显示系统权限对话框或引导用户手动授权
	RequestPermission(permType PermissionType) error

	// OpenSystemSettings 打开系统设置中对应的权限页面
	OpenSystemSettings(permType PermissionType) error
}
