/**
 * Package events 提供归一化的输入事件模型
 *
 * 所有平台捕获到的键盘和鼠标输入都被归一化为统一的 Event 结构，用于：
 * - 监听回调和通道消费
 * - 录制与回放的 JSON 序列化
 * - 统计与持久化
 */

package events

import (
	"time"

	"github.com/google/uuid"
)

/**
 * EventType 事件类型枚举
 */
type EventType string

/**
 * 所有事件类型常量
 */
const (
	// 生命周期事件
	EventTypeHookEnabled  EventType = "hook_enabled"  // 捕获会话已建立
	EventTypeHookDisabled EventType = "hook_disabled" // 捕获会话已结束

	// 键盘事件
	EventTypeKeyPressed  EventType = "key_pressed"  // 按键按下
	EventTypeKeyReleased EventType = "key_released" // 按键释放
	EventTypeKeyTyped    EventType = "key_typed"    // 按键产生了字符

	// 鼠标事件
	EventTypeMousePressed  EventType = "mouse_pressed"  // 鼠标按键按下
	EventTypeMouseReleased EventType = "mouse_released" // 鼠标按键释放
	EventTypeMouseClicked  EventType = "mouse_clicked"  // 按下与释放构成一次点击
	EventTypeMouseMoved    EventType = "mouse_moved"    // 鼠标移动（无按键按下）
	EventTypeMouseDragged  EventType = "mouse_dragged"  // 鼠标拖拽（有按键按下）
	EventTypeMouseWheel    EventType = "mouse_wheel"    // 滚轮滚动
)

/**
 * Button 鼠标按键枚举
 */
type Button string

const (
	ButtonNone    Button = ""        // 无按键（移动、滚轮事件）
	ButtonLeft    Button = "left"    // 左键
	ButtonRight   Button = "right"   // 右键
	ButtonMiddle  Button = "middle"  // 中键
	ButtonFourth  Button = "button4" // 侧键 4
	ButtonFifth   Button = "button5" // 侧键 5
)

/**
 * ScrollDirection 滚轮方向枚举
 */
type ScrollDirection string

const (
	ScrollUp    ScrollDirection = "up"
	ScrollDown  ScrollDirection = "down"
	ScrollLeft  ScrollDirection = "left"
	ScrollRight ScrollDirection = "right"
)

/**
 * Event 统一事件结构
 *
 * 事件是不可变的值：发布后任何消费者都不得修改。
 * Mask 是事件发生时刻按键/修饰键状态的快照。
 * Keyboard/Mouse/Wheel 三个载荷中最多只有一个非 nil，
 * 由 Type 决定；生命周期事件不携带载荷。
 */
type Event struct {
	// ID 事件唯一标识符
	ID string `json:"id"`

	// Type 事件类型
	Type EventType `json:"type"`

	// Time 事件发生时间
	Time time.Time `json:"time"`

	// Mask 按键与修饰键状态快照（见 pkg/state 的位定义）
	Mask uint32 `json:"mask"`

	// Keyboard 键盘事件载荷
	Keyboard *KeyboardData `json:"keyboard,omitempty"`

	// Mouse 鼠标事件载荷
	Mouse *MouseData `json:"mouse,omitempty"`

	// Wheel 滚轮事件载荷
	Wheel *WheelData `json:"wheel,omitempty"`
}

/**
 * KeyboardData 键盘事件载荷
 */
type KeyboardData struct {
	// Key 归一化按键标识（未知键码为 KeyUnidentified）
	Key Key `json:"key"`

	// RawCode 平台原始键码
	RawCode uint32 `json:"raw_code"`

	// Char 按键产生的字符（仅 key_typed 事件）
	Char rune `json:"char,omitempty"`

	// Repeat 是否为按住重复
	Repeat bool `json:"repeat,omitempty"`
}

/**
 * MouseData 鼠标事件载荷
 */
type MouseData struct {
	// Button 触发事件的按键（移动事件为 ButtonNone）
	Button Button `json:"button,omitempty"`

	// X 屏幕横坐标
	X float64 `json:"x"`

	// Y 屏幕纵坐标
	Y float64 `json:"y"`

	// Clicks 连击计数（仅点击相关事件，1 为单击）
	Clicks int `json:"clicks,omitempty"`
}

/**
 * WheelData 滚轮事件载荷
 */
type WheelData struct {
	// Direction 滚动方向
	Direction ScrollDirection `json:"direction"`

	// Delta 滚动量（绝对值）
	Delta float64 `json:"delta"`

	// X 滚动时的屏幕横坐标
	X float64 `json:"x"`

	// Y 滚动时的屏幕纵坐标
	Y float64 `json:"y"`
}

// newEvent 构造事件骨架
func newEvent(eventType EventType, mask uint32, t time.Time) Event {
	return Event{
		ID:   uuid.New().String(),
		Type: eventType,
		Time: t,
		Mask: mask,
	}
}

/**
 * NewHookEnabled 创建会话启用事件
 */
func NewHookEnabled(mask uint32, t time.Time) Event {
	return newEvent(EventTypeHookEnabled, mask, t)
}

/**
 * NewHookDisabled 创建会话停用事件
 */
func NewHookDisabled(mask uint32, t time.Time) Event {
	return newEvent(EventTypeHookDisabled, mask, t)
}

/**
 * NewKeyPressed 创建按键按下事件
 */
func NewKeyPressed(mask uint32, t time.Time, key Key, rawCode uint32, repeat bool) Event {
	ev := newEvent(EventTypeKeyPressed, mask, t)
	ev.Keyboard = &KeyboardData{Key: key, RawCode: rawCode, Repeat: repeat}
	return ev
}

/**
 * NewKeyReleased 创建按键释放事件
 */
func NewKeyReleased(mask uint32, t time.Time, key Key, rawCode uint32) Event {
	ev := newEvent(EventTypeKeyReleased, mask, t)
	ev.Keyboard = &KeyboardData{Key: key, RawCode: rawCode}
	return ev
}

/**
 * NewKeyTyped 创建字符输入事件
 */
func NewKeyTyped(mask uint32, t time.Time, key Key, rawCode uint32, char rune) Event {
	ev := newEvent(EventTypeKeyTyped, mask, t)
	ev.Keyboard = &KeyboardData{Key: key, RawCode: rawCode, Char: char}
	return ev
}

/**
 * NewMousePressed 创建鼠标按下事件
 */
func NewMousePressed(mask uint32, t time.Time, button Button, x, y float64, clicks int) Event {
	ev := newEvent(EventTypeMousePressed, mask, t)
	ev.Mouse = &MouseData{Button: button, X: x, Y: y, Clicks: clicks}
	return ev
}

/**
 * NewMouseReleased 创建鼠标释放事件
 */
func NewMouseReleased(mask uint32, t time.Time, button Button, x, y float64, clicks int) Event {
	ev := newEvent(EventTypeMouseReleased, mask, t)
	ev.Mouse = &MouseData{Button: button, X: x, Y: y, Clicks: clicks}
	return ev
}

/**
 * NewMouseClicked 创建鼠标点击事件
 *
 * 在一次无位移（或位移在容差内）的按下-释放之后追加发布，
 * 不替代对应的 pressed/released 事件。
 */
func NewMouseClicked(mask uint32, t time.Time, button Button, x, y float64, clicks int) Event {
	ev := newEvent(EventTypeMouseClicked, mask, t)
	ev.Mouse = &MouseData{Button: button, X: x, Y: y, Clicks: clicks}
	return ev
}

/**
 * NewMouseMoved 创建鼠标移动事件
 */
func NewMouseMoved(mask uint32, t time.Time, x, y float64) Event {
	ev := newEvent(EventTypeMouseMoved, mask, t)
	ev.Mouse = &MouseData{X: x, Y: y}
	return ev
}

/**
 * NewMouseDragged 创建鼠标拖拽事件
 */
func NewMouseDragged(mask uint32, t time.Time, x, y float64) Event {
	ev := newEvent(EventTypeMouseDragged, mask, t)
	ev.Mouse = &MouseData{X: x, Y: y}
	return ev
}

/**
 * NewMouseWheel 创建滚轮事件
 */
func NewMouseWheel(mask uint32, t time.Time, direction ScrollDirection, delta, x, y float64) Event {
	ev := newEvent(EventTypeMouseWheel, mask, t)
	ev.Wheel = &WheelData{Direction: direction, Delta: delta, X: x, Y: y}
	return ev
}

// IsKeyboard 是否为键盘事件
func (e Event) IsKeyboard() bool {
	switch e.Type {
	case EventTypeKeyPressed, EventTypeKeyReleased, EventTypeKeyTyped:
		return true
	}
	return false
}

// IsMouse 是否为鼠标事件（含滚轮）
func (e Event) IsMouse() bool {
	switch e.Type {
	case EventTypeMousePressed, EventTypeMouseReleased, EventTypeMouseClicked,
		EventTypeMouseMoved, EventTypeMouseDragged, EventTypeMouseWheel:
		return true
	}
	return false
}

// IsLifecycle 是否为会话生命周期事件
//
// 生命周期事件永远不会被拦截会话消费，也不会被录制回放。
func (e Event) IsLifecycle() bool {
	return e.Type == EventTypeHookEnabled || e.Type == EventTypeHookDisabled
}
