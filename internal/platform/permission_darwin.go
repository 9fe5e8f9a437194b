//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices

#include <ApplicationServices/ApplicationServices.h>

// checkAccessibilityPermission 检查辅助功能权限（static 避免符号冲突）
// Returns: 1=已授权, 0=未授权
static int checkAccessibilityPermission() {
    return AXIsProcessTrusted();
}

// requestAccessibilityPermission 请求辅助功能权限（static 避免符号冲突）
// 使用 AXIsProcessTrustedWithOptions 显示系统权限请求对话框
// Returns: 0=成功, -1=失败
static int requestAccessibilityPermission() {
    @autoreleasepool {
        NSDictionary *options = @{(__bridge id)kAXTrustedCheckOptionPrompt: @YES};
        BOOL trusted = AXIsProcessTrustedWithOptions((__bridge CFDictionaryRef)options);
        return trusted ? 0 : -1;
    }
}
*/
import "C"
import (
	"fmt"
	"os/exec"
)

// DarwinPermissionChecker macOS 平台的权限检查器实现
type DarwinPermissionChecker struct{}

// NewPermissionChecker 创建 macOS 平台的权限检查器
func NewPermissionChecker() PermissionChecker {
	return &DarwinPermissionChecker{}
}

// CheckPermission 检查权限状态
func (c *DarwinPermissionChecker) CheckPermission(permType PermissionType) PermissionStatus {
	switch permType {
	case PermissionAccessibility, PermissionInputMonitoring:
		// 输入监控依附于辅助功能授权，统一用 AXIsProcessTrusted 探测
		if C.checkAccessibilityPermission() == 1 {
			return PermissionStatusGranted
		}
		return PermissionStatusDenied
	default:
		return PermissionStatusUnknown
	}
}

// RequestPermission 请求权限，显示系统权限对话框
func (c *DarwinPermissionChecker) RequestPermission(permType PermissionType) error {
	switch permType {
	case PermissionAccessibility, PermissionInputMonitoring:
		if C.requestAccessibilityPermission() != 0 {
			return fmt.Errorf("请求辅助功能权限失败")
		}
		return nil
	default:
		return fmt.Errorf("未知的权限类型: %v", permType)
	}
}

// OpenSystemSettings 打开系统设置中对应的权限页面
func (c *DarwinPermissionChecker) OpenSystemSettings(permType PermissionType) error {
	var url string

	switch permType {
	case PermissionAccessibility:
		url = "x-apple.systempreferences:com.apple.preference.security?Privacy_Accessibility"
	case PermissionInputMonitoring:
		url = "x-apple.systempreferences:com.apple.preference.security?Privacy_ListenEvent"
	default:
		return fmt.Errorf("未知的权限类型: %v", permType)
	}

	if err := exec.Command("open", url).Start(); err != nil {
		return fmt.Errorf("打开系统设置失败: %w", err)
	}
	return nil
}
