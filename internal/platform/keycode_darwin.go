//go:build darwin

package platform

import "github.com/chenyang-zz/inputtap/pkg/events"

// darwinKeycodeToKey macOS 虚拟键码到归一化按键的映射表
//
// 映射不到的键码归为 KeyUnidentified，事件照常投递。
var darwinKeycodeToKey = map[uint32]events.Key{
	// 字母键
	0: events.KeyA, 11: events.KeyB, 8: events.KeyC, 2: events.KeyD,
	14: events.KeyE, 3: events.KeyF, 5: events.KeyG, 4: events.KeyH,
	34: events.KeyI, 38: events.KeyJ, 40: events.KeyK, 37: events.KeyL,
	46: events.KeyM, 45: events.KeyN, 31: events.KeyO, 35: events.KeyP,
	12: events.KeyQ, 15: events.KeyR, 1: events.KeyS, 17: events.KeyT,
	32: events.KeyU, 9: events.KeyV, 13: events.KeyW, 7: events.KeyX,
	16: events.KeyY, 6: events.KeyZ,

	// 数字键
	29: events.KeyNum0, 18: events.KeyNum1, 19: events.KeyNum2,
	20: events.KeyNum3, 21: events.KeyNum4, 23: events.KeyNum5,
	22: events.KeyNum6, 26: events.KeyNum7, 28: events.KeyNum8,
	25: events.KeyNum9,

	// 功能键
	122: events.KeyF1, 120: events.KeyF2, 99: events.KeyF3, 118: events.KeyF4,
	96: events.KeyF5, 97: events.KeyF6, 98: events.KeyF7, 100: events.KeyF8,
	101: events.KeyF9, 109: events.KeyF10, 103: events.KeyF11, 111: events.KeyF12,

	// 修饰键
	56: events.KeyShiftLeft, 60: events.KeyShiftRight,
	59: events.KeyControlLeft, 62: events.KeyControlRight,
	58: events.KeyAltLeft, 61: events.KeyAltRight,
	55: events.KeyMetaLeft, 54: events.KeyMetaRight,
	57: events.KeyCapsLock,

	// 控制与导航键
	49: events.KeySpace, 36: events.KeyEnter, 48: events.KeyTab,
	53: events.KeyEscape, 51: events.KeyBackspace, 117: events.KeyDelete,
	114: events.KeyInsert, 115: events.KeyHome, 119: events.KeyEnd,
	116: events.KeyPageUp, 121: events.KeyPageDown,
	126: events.KeyUpArrow, 125: events.KeyDownArrow,
	123: events.KeyLeftArrow, 124: events.KeyRightArrow,

	// 符号键
	27: events.KeyMinus, 24: events.KeyEqual,
	33: events.KeyBracketLeft, 30: events.KeyBracketRight,
	42: events.KeyBackslash, 41: events.KeySemicolon, 39: events.KeyQuote,
	50: events.KeyBackquote, 43: events.KeyComma, 47: events.KeyPeriod,
	44: events.KeySlash,
}

// darwinKeyToKeycode 反向映射，用于事件注入
var darwinKeyToKeycode = func() map[events.Key]uint32 {
	m := make(map[events.Key]uint32, len(darwinKeycodeToKey))
	for code, key := range darwinKeycodeToKey {
		if _, ok := m[key]; !ok {
			m[key] = code
		}
	}
	return m
}()

// keyFromDarwinKeycode 键码到归一化按键的转换
func keyFromDarwinKeycode(code uint32) events.Key {
	if key, ok := darwinKeycodeToKey[code]; ok {
		return key
	}
	return events.KeyUnidentified
}
