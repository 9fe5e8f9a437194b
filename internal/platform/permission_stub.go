//go:build !darwin

package platform

import "fmt"

// StubPermissionChecker 无权限概念平台的检查器实现
//
// Windows 的低级钩子和其余平台的桩后端都不需要显式授权，
// 统一返回已授予/未知状态。
type StubPermissionChecker struct{}

// NewPermissionChecker 创建当前平台的权限检查器
func NewPermissionChecker() PermissionChecker {
	return &StubPermissionChecker{}
}

// CheckPermission 检查权限状态
func (c *StubPermissionChecker) CheckPermission(permType PermissionType) PermissionStatus {
	switch permType {
	case PermissionAccessibility, PermissionInputMonitoring:
		return PermissionStatusGranted
	default:
		return PermissionStatusUnknown
	}
}

// RequestPermission 请求权限
func (c *StubPermissionChecker) RequestPermission(permType PermissionType) error {
	return nil
}

// OpenSystemSettings 打开系统设置
func (c *StubPermissionChecker) OpenSystemSettings(permType PermissionType) error {
	return fmt.Errorf("当前平台没有对应的权限设置页面: %v", permType)
}
