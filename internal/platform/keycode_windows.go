//go:build windows

package platform

import "github.com/chenyang-zz/inputtap/pkg/events"

// winVKToKey Windows 虚拟键码到归一化按键的映射表
//
// 低级钩子上报的是区分左右的修饰键码（VK_LSHIFT 等）。
// 映射不到的键码归为 KeyUnidentified，事件照常投递。
var winVKToKey = map[uint32]events.Key{
	// 字母键 VK 0x41-0x5A
	0x41: events.KeyA, 0x42: events.KeyB, 0x43: events.KeyC, 0x44: events.KeyD,
	0x45: events.KeyE, 0x46: events.KeyF, 0x47: events.KeyG, 0x48: events.KeyH,
	0x49: events.KeyI, 0x4A: events.KeyJ, 0x4B: events.KeyK, 0x4C: events.KeyL,
	0x4D: events.KeyM, 0x4E: events.KeyN, 0x4F: events.KeyO, 0x50: events.KeyP,
	0x51: events.KeyQ, 0x52: events.KeyR, 0x53: events.KeyS, 0x54: events.KeyT,
	0x55: events.KeyU, 0x56: events.KeyV, 0x57: events.KeyW, 0x58: events.KeyX,
	0x59: events.KeyY, 0x5A: events.KeyZ,

	// 数字键 VK 0x30-0x39
	0x30: events.KeyNum0, 0x31: events.KeyNum1, 0x32: events.KeyNum2,
	0x33: events.KeyNum3, 0x34: events.KeyNum4, 0x35: events.KeyNum5,
	0x36: events.KeyNum6, 0x37: events.KeyNum7, 0x38: events.KeyNum8,
	0x39: events.KeyNum9,

	// 功能键 VK_F1-VK_F12
	0x70: events.KeyF1, 0x71: events.KeyF2, 0x72: events.KeyF3, 0x73: events.KeyF4,
	0x74: events.KeyF5, 0x75: events.KeyF6, 0x76: events.KeyF7, 0x77: events.KeyF8,
	0x78: events.KeyF9, 0x79: events.KeyF10, 0x7A: events.KeyF11, 0x7B: events.KeyF12,

	// 修饰键（左右变体与不区分变体都映射）
	0xA0: events.KeyShiftLeft, 0xA1: events.KeyShiftRight, 0x10: events.KeyShiftLeft,
	0xA2: events.KeyControlLeft, 0xA3: events.KeyControlRight, 0x11: events.KeyControlLeft,
	0xA4: events.KeyAltLeft, 0xA5: events.KeyAltRight, 0x12: events.KeyAltLeft,
	0x5B: events.KeyMetaLeft, 0x5C: events.KeyMetaRight,

	// 锁定键
	0x14: events.KeyCapsLock, 0x90: events.KeyNumLock, 0x91: events.KeyScrollLock,

	// 控制与导航键
	0x20: events.KeySpace, 0x0D: events.KeyEnter, 0x09: events.KeyTab,
	0x1B: events.KeyEscape, 0x08: events.KeyBackspace, 0x2E: events.KeyDelete,
	0x2D: events.KeyInsert, 0x24: events.KeyHome, 0x23: events.KeyEnd,
	0x21: events.KeyPageUp, 0x22: events.KeyPageDown,
	0x26: events.KeyUpArrow, 0x28: events.KeyDownArrow,
	0x25: events.KeyLeftArrow, 0x27: events.KeyRightArrow,

	// 符号键（OEM 键码，US 布局）
	0xBD: events.KeyMinus, 0xBB: events.KeyEqual,
	0xDB: events.KeyBracketLeft, 0xDD: events.KeyBracketRight,
	0xDC: events.KeyBackslash, 0xBA: events.KeySemicolon, 0xDE: events.KeyQuote,
	0xC0: events.KeyBackquote, 0xBC: events.KeyComma, 0xBE: events.KeyPeriod,
	0xBF: events.KeySlash,
}

// winKeyToVK 反向映射，用于事件注入
var winKeyToVK = func() map[events.Key]uint32 {
	m := make(map[events.Key]uint32, len(winVKToKey))
	for code, key := range winVKToKey {
		if _, ok := m[key]; !ok {
			m[key] = code
		}
	}
	return m
}()

// keyFromWinVK 虚拟键码到归一化按键的转换
func keyFromWinVK(vk uint32) events.Key {
	if key, ok := winVKToKey[vk]; ok {
		return key
	}
	return events.KeyUnidentified
}
