/**
 * Package state 提供全局按键与修饰键状态快照
 *
 * Mask 记录当前按下的鼠标按键和锁定的修饰键，供事件分类器
 * 在 OS 回调线程上无锁读取。
 */

package state

import "sync/atomic"

// 修饰键标志位（低 7 位）
const (
	// MaskShift Shift 键按下
	MaskShift uint32 = 1 << 0

	// MaskCtrl Control 键按下
	MaskCtrl uint32 = 1 << 1

	// MaskAlt Alt/Option 键按下
	MaskAlt uint32 = 1 << 2

	// MaskMeta Meta/Command/Win 键按下
	MaskMeta uint32 = 1 << 3

	// MaskCapsLock 大写锁定
	MaskCapsLock uint32 = 1 << 4

	// MaskNumLock 数字锁定
	MaskNumLock uint32 = 1 << 5

	// MaskScrollLock 滚动锁定
	MaskScrollLock uint32 = 1 << 6
)

// 鼠标按键标志位（第 8-12 位）
const (
	// MaskButton1 鼠标左键
	MaskButton1 uint32 = 1 << 8

	// MaskButton2 鼠标右键
	MaskButton2 uint32 = 1 << 9

	// MaskButton3 鼠标中键
	MaskButton3 uint32 = 1 << 10

	// MaskButton4 鼠标侧键 4
	MaskButton4 uint32 = 1 << 11

	// MaskButton5 鼠标侧键 5
	MaskButton5 uint32 = 1 << 12
)

// MaskAllButtons 所有鼠标按键位的组合
const MaskAllButtons = MaskButton1 | MaskButton2 | MaskButton3 | MaskButton4 | MaskButton5

// MaskAllModifiers 所有修饰键位的组合
const MaskAllModifiers = MaskShift | MaskCtrl | MaskAlt | MaskMeta |
	MaskCapsLock | MaskNumLock | MaskScrollLock

/**
 * Mask 原子位集
 *
 * 由 Hook 运行时实例持有，捕获线程写入，任意 goroutine 读取。
 * 所有操作都是无锁的原子操作，不会阻塞 OS 回调。
 */
type Mask struct {
	bits atomic.Uint32
}

// Set 置位指定的标志位
//
// Parameters:
//   - bits: 要置位的标志位组合
func (m *Mask) Set(bits uint32) {
	for {
		old := m.bits.Load()
		if m.bits.CompareAndSwap(old, old|bits) {
			return
		}
	}
}

// Clear 清除指定的标志位
//
// Parameters:
//   - bits: 要清除的标志位组合
func (m *Mask) Clear(bits uint32) {
	for {
		old := m.bits.Load()
		if m.bits.CompareAndSwap(old, old&^bits) {
			return
		}
	}
}

// Value 读取当前位集快照
//
// Returns: uint32 - 当前的标志位组合
func (m *Mask) Value() uint32 {
	return m.bits.Load()
}

// Held 检查指定标志位中是否有任意一位被置位
//
// Parameters:
//   - bits: 要检查的标志位组合
//
// Returns: bool - 有任意一位被置位时返回 true
func (m *Mask) Held(bits uint32) bool {
	return m.bits.Load()&bits != 0
}

// AnyButtonHeld 检查是否有任意鼠标按键处于按下状态
//
// 分类器依据此结果区分 mouse_moved 和 mouse_dragged。
//
// Returns: bool - 有按键按下时返回 true
func (m *Mask) AnyButtonHeld() bool {
	return m.bits.Load()&MaskAllButtons != 0
}

// SetModifiers 整体替换修饰键位，保留鼠标按键位
//
// 用于平台层以标志位变更形式上报修饰键状态的场景
// （如 macOS 的 flagsChanged），需要一次性同步全部修饰键位。
//
// Parameters:
//   - bits: 新的修饰键位组合（仅修饰键位有效）
func (m *Mask) SetModifiers(bits uint32) {
	for {
		old := m.bits.Load()
		next := (old &^ MaskAllModifiers) | (bits & MaskAllModifiers)
		if m.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// Reset 清零全部标志位
//
// 会话启动和停止时调用，保证跨会话不残留按键状态。
func (m *Mask) Reset() {
	m.bits.Store(0)
}
