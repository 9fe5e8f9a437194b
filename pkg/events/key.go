package events

/**
 * Key 归一化按键标识
 *
 * 平台原始键码由各后端映射到这组封闭的按键集合；
 * 映射不到的键码统一归为 KeyUnidentified，事件照常投递。
 */
type Key string

const (
	KeyUnidentified Key = "unidentified"

	// 字母键
	KeyA Key = "a"
	KeyB Key = "b"
	KeyC Key = "c"
	KeyD Key = "d"
	KeyE Key = "e"
	KeyF Key = "f"
	KeyG Key = "g"
	KeyH Key = "h"
	KeyI Key = "i"
	KeyJ Key = "j"
	KeyK Key = "k"
	KeyL Key = "l"
	KeyM Key = "m"
	KeyN Key = "n"
	KeyO Key = "o"
	KeyP Key = "p"
	KeyQ Key = "q"
	KeyR Key = "r"
	KeyS Key = "s"
	KeyT Key = "t"
	KeyU Key = "u"
	KeyV Key = "v"
	KeyW Key = "w"
	KeyX Key = "x"
	KeyY Key = "y"
	KeyZ Key = "z"

	// 数字键（主键盘区）
	KeyNum0 Key = "0"
	KeyNum1 Key = "1"
	KeyNum2 Key = "2"
	KeyNum3 Key = "3"
	KeyNum4 Key = "4"
	KeyNum5 Key = "5"
	KeyNum6 Key = "6"
	KeyNum7 Key = "7"
	KeyNum8 Key = "8"
	KeyNum9 Key = "9"

	// 功能键
	KeyF1  Key = "f1"
	KeyF2  Key = "f2"
	KeyF3  Key = "f3"
	KeyF4  Key = "f4"
	KeyF5  Key = "f5"
	KeyF6  Key = "f6"
	KeyF7  Key = "f7"
	KeyF8  Key = "f8"
	KeyF9  Key = "f9"
	KeyF10 Key = "f10"
	KeyF11 Key = "f11"
	KeyF12 Key = "f12"

	// 修饰键（左右区分）
	KeyShiftLeft    Key = "shift_left"
	KeyShiftRight   Key = "shift_right"
	KeyControlLeft  Key = "control_left"
	KeyControlRight Key = "control_right"
	KeyAltLeft      Key = "alt_left"
	KeyAltRight     Key = "alt_right"
	KeyMetaLeft     Key = "meta_left"
	KeyMetaRight    Key = "meta_right"

	// 锁定键
	KeyCapsLock   Key = "caps_lock"
	KeyNumLock    Key = "num_lock"
	KeyScrollLock Key = "scroll_lock"

	// 控制与导航键
	KeySpace     Key = "space"
	KeyEnter     Key = "enter"
	KeyTab       Key = "tab"
	KeyEscape    Key = "escape"
	KeyBackspace Key = "backspace"
	KeyDelete    Key = "delete"
	KeyInsert    Key = "insert"
	KeyHome      Key = "home"
	KeyEnd       Key = "end"
	KeyPageUp    Key = "page_up"
	KeyPageDown  Key = "page_down"
	KeyUpArrow   Key = "up"
	KeyDownArrow Key = "down"
	KeyLeftArrow Key = "left"
	KeyRightArrow Key = "right"

	// 符号键
	KeyMinus        Key = "minus"
	KeyEqual        Key = "equal"
	KeyBracketLeft  Key = "bracket_left"
	KeyBracketRight Key = "bracket_right"
	KeyBackslash    Key = "backslash"
	KeySemicolon    Key = "semicolon"
	KeyQuote        Key = "quote"
	KeyBackquote    Key = "backquote"
	KeyComma        Key = "comma"
	KeyPeriod       Key = "period"
	KeySlash        Key = "slash"
)

// IsModifier 是否为修饰键或锁定键
func (k Key) IsModifier() bool {
	switch k {
	case KeyShiftLeft, KeyShiftRight,
		KeyControlLeft, KeyControlRight,
		KeyAltLeft, KeyAltRight,
		KeyMetaLeft, KeyMetaRight,
		KeyCapsLock, KeyNumLock, KeyScrollLock:
		return true
	}
	return false
}
