package hook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenyang-zz/inputtap/pkg/events"
	"github.com/chenyang-zz/inputtap/pkg/state"
)

// newTestClassifier 创建测试用分类器
func newTestClassifier(cfg classifierConfig) (*classifier, *state.Mask) {
	var mask state.Mask
	return newClassifier(&mask, cfg), &mask
}

// at 生成递增的观察时间
func at(ms int) time.Time {
	return time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC).Add(time.Duration(ms) * time.Millisecond)
}

// TestClassifier_KeyDownUp 测试按键按下与释放
func TestClassifier_KeyDownUp(t *testing.T) {
	cls, mask := newTestClassifier(classifierConfig{})

	evs := cls.classify(Observation{Kind: ObservationKeyDown, Time: at(0), Key: events.KeyA, RawCode: 30})
	require.Len(t, evs, 1)
	assert.Equal(t, events.EventTypeKeyPressed, evs[0].Type)
	assert.Equal(t, events.KeyA, evs[0].Keyboard.Key)
	assert.Equal(t, uint32(30), evs[0].Keyboard.RawCode)

	evs = cls.classify(Observation{Kind: ObservationKeyUp, Time: at(50), Key: events.KeyA, RawCode: 30})
	require.Len(t, evs, 1)
	assert.Equal(t, events.EventTypeKeyReleased, evs[0].Type)
	assert.Equal(t, uint32(0), mask.Value())
}

// TestClassifier_KeyTyped 测试产生字符的击键
//
// 携带字符的按下观察产生 key_pressed 后跟 key_typed。
func TestClassifier_KeyTyped(t *testing.T) {
	cls, _ := newTestClassifier(classifierConfig{})

	evs := cls.classify(Observation{Kind: ObservationKeyDown, Time: at(0), Key: events.KeyA, Char: 'a'})
	require.Len(t, evs, 2)
	assert.Equal(t, events.EventTypeKeyPressed, evs[0].Type)
	assert.Equal(t, events.EventTypeKeyTyped, evs[1].Type)
	assert.Equal(t, 'a', evs[1].Keyboard.Char)

	// 无字符的按键不产生 key_typed
	evs = cls.classify(Observation{Kind: ObservationKeyDown, Time: at(10), Key: events.KeyF5})
	require.Len(t, evs, 1)
	assert.Equal(t, events.EventTypeKeyPressed, evs[0].Type)
}

// TestClassifier_UnidentifiedKey 映射不到的键码仍然投递
func TestClassifier_UnidentifiedKey(t *testing.T) {
	cls, _ := newTestClassifier(classifierConfig{})

	evs := cls.classify(Observation{Kind: ObservationKeyDown, Time: at(0), RawCode: 0xFFFF})
	require.Len(t, evs, 1)
	assert.Equal(t, events.KeyUnidentified, evs[0].Keyboard.Key)
	assert.Equal(t, uint32(0xFFFF), evs[0].Keyboard.RawCode)

	evs = cls.classify(Observation{Kind: ObservationKeyUp, Time: at(10), RawCode: 0xFFFF})
	require.Len(t, evs, 1)
	assert.Equal(t, events.KeyUnidentified, evs[0].Keyboard.Key)
}

// TestClassifier_ModifierMask 修饰键置位与清除
//
// 按下类更新先于事件构造，释放事件仍能看到被释放前的快照。
func TestClassifier_ModifierMask(t *testing.T) {
	cls, mask := newTestClassifier(classifierConfig{})

	evs := cls.classify(Observation{Kind: ObservationKeyDown, Time: at(0), Key: events.KeyShiftLeft})
	require.Len(t, evs, 1)
	assert.Equal(t, state.MaskShift, evs[0].Mask&state.MaskShift, "按下事件快照应包含新置的位")
	assert.True(t, mask.Held(state.MaskShift))

	evs = cls.classify(Observation{Kind: ObservationKeyDown, Time: at(10), Key: events.KeyA})
	assert.Equal(t, state.MaskShift, evs[0].Mask&state.MaskShift, "普通按键事件应携带 Shift 位")

	evs = cls.classify(Observation{Kind: ObservationKeyUp, Time: at(20), Key: events.KeyShiftLeft})
	require.Len(t, evs, 1)
	assert.Equal(t, state.MaskShift, evs[0].Mask&state.MaskShift, "释放事件快照仍包含被释放的位")
	assert.False(t, mask.Held(state.MaskShift))
}

// TestClassifier_RepeatKeepsModifier 按住重复不改变修饰键状态
func TestClassifier_RepeatKeepsModifier(t *testing.T) {
	cls, mask := newTestClassifier(classifierConfig{})

	cls.classify(Observation{Kind: ObservationKeyDown, Time: at(0), Key: events.KeyShiftLeft})
	require.True(t, mask.Held(state.MaskShift))

	evs := cls.classify(Observation{Kind: ObservationKeyDown, Time: at(100), Key: events.KeyShiftLeft, Repeat: true})
	require.Len(t, evs, 1)
	assert.True(t, evs[0].Keyboard.Repeat)
	assert.True(t, mask.Held(state.MaskShift))
}

// TestClassifier_ClickOrdering 点击事件的产生顺序
//
// 无位移的按下-释放产生 pressed、released、clicked 三个事件，
// clicked 永远在对应 released 之后。
func TestClassifier_ClickOrdering(t *testing.T) {
	cls, mask := newTestClassifier(classifierConfig{})

	evs := cls.classify(Observation{Kind: ObservationButtonDown, Time: at(0), Button: events.ButtonLeft, X: 100, Y: 100})
	require.Len(t, evs, 1)
	assert.Equal(t, events.EventTypeMousePressed, evs[0].Type)
	assert.Equal(t, state.MaskButton1, evs[0].Mask&state.MaskButton1)
	assert.True(t, mask.AnyButtonHeld())

	evs = cls.classify(Observation{Kind: ObservationButtonUp, Time: at(80), Button: events.ButtonLeft, X: 100, Y: 100})
	require.Len(t, evs, 2)
	assert.Equal(t, events.EventTypeMouseReleased, evs[0].Type)
	assert.Equal(t, events.EventTypeMouseClicked, evs[1].Type)
	assert.Equal(t, 1, evs[1].Mouse.Clicks)

	// 释放事件快照仍含按键位，点击事件快照已清除
	assert.Equal(t, state.MaskButton1, evs[0].Mask&state.MaskButton1)
	assert.Equal(t, uint32(0), evs[1].Mask&state.MaskButton1)
	assert.False(t, mask.AnyButtonHeld())
}

// TestClassifier_MoveCancelsClick 默认容差下任何移动取消点击
func TestClassifier_MoveCancelsClick(t *testing.T) {
	cls, _ := newTestClassifier(classifierConfig{})

	cls.classify(Observation{Kind: ObservationButtonDown, Time: at(0), Button: events.ButtonLeft, X: 100, Y: 100})
	cls.classify(Observation{Kind: ObservationDrag, Time: at(20), X: 100.5, Y: 100})

	evs := cls.classify(Observation{Kind: ObservationButtonUp, Time: at(40), Button: events.ButtonLeft, X: 100.5, Y: 100})
	require.Len(t, evs, 1, "有移动时不应产生 mouse_clicked")
	assert.Equal(t, events.EventTypeMouseReleased, evs[0].Type)
}

// TestClassifier_ClickTolerance 正容差允许小位移的点击
func TestClassifier_ClickTolerance(t *testing.T) {
	cls, _ := newTestClassifier(classifierConfig{clickTolerance: 5})

	cls.classify(Observation{Kind: ObservationButtonDown, Time: at(0), Button: events.ButtonLeft, X: 100, Y: 100})
	cls.classify(Observation{Kind: ObservationDrag, Time: at(20), X: 103, Y: 100})

	evs := cls.classify(Observation{Kind: ObservationButtonUp, Time: at(40), Button: events.ButtonLeft, X: 103, Y: 100})
	require.Len(t, evs, 2, "位移在容差内仍应判定为点击")
	assert.Equal(t, events.EventTypeMouseClicked, evs[1].Type)

	// 超出容差
	cls.classify(Observation{Kind: ObservationButtonDown, Time: at(100), Button: events.ButtonLeft, X: 100, Y: 100})
	cls.classify(Observation{Kind: ObservationDrag, Time: at(120), X: 110, Y: 100})
	evs = cls.classify(Observation{Kind: ObservationButtonUp, Time: at(140), Button: events.ButtonLeft, X: 110, Y: 100})
	require.Len(t, evs, 1)
	assert.Equal(t, events.EventTypeMouseReleased, evs[0].Type)
}

// TestClassifier_MultiClick 连击计数
func TestClassifier_MultiClick(t *testing.T) {
	cls, _ := newTestClassifier(classifierConfig{multiClickInterval: 500 * time.Millisecond})

	click := func(ms int) []events.Event {
		cls.classify(Observation{Kind: ObservationButtonDown, Time: at(ms), Button: events.ButtonLeft, X: 50, Y: 50})
		return cls.classify(Observation{Kind: ObservationButtonUp, Time: at(ms + 30), Button: events.ButtonLeft, X: 50, Y: 50})
	}

	evs := click(0)
	assert.Equal(t, 1, evs[1].Mouse.Clicks)

	evs = click(200)
	assert.Equal(t, 2, evs[1].Mouse.Clicks, "窗口内的第二次点击计数为 2")

	evs = click(400)
	assert.Equal(t, 3, evs[1].Mouse.Clicks)

	// 超出时间窗口后重新从 1 开始
	evs = click(1500)
	assert.Equal(t, 1, evs[1].Mouse.Clicks)
}

// TestClassifier_DragScenario 按下-移动-释放-移动的完整场景
//
// 按键按住期间的移动归类为 dragged，释放后的移动归类为 moved。
func TestClassifier_DragScenario(t *testing.T) {
	cls, _ := newTestClassifier(classifierConfig{})

	var types []events.EventType
	feed := func(obs Observation) {
		for _, ev := range cls.classify(obs) {
			types = append(types, ev.Type)
		}
	}

	feed(Observation{Kind: ObservationButtonDown, Time: at(0), Button: events.ButtonLeft, X: 10, Y: 10})
	feed(Observation{Kind: ObservationDrag, Time: at(20), X: 20, Y: 20})
	feed(Observation{Kind: ObservationDrag, Time: at(40), X: 30, Y: 30})
	feed(Observation{Kind: ObservationButtonUp, Time: at(60), Button: events.ButtonLeft, X: 30, Y: 30})
	feed(Observation{Kind: ObservationMove, Time: at(80), X: 40, Y: 40})

	assert.Equal(t, []events.EventType{
		events.EventTypeMousePressed,
		events.EventTypeMouseDragged,
		events.EventTypeMouseDragged,
		events.EventTypeMouseReleased,
		events.EventTypeMouseMoved,
	}, types)
}

// TestClassifier_MoveWithButtonHeld 移动观察在按键按住时归为拖拽
//
// 即使后端上报的是普通移动，只要有鼠标按键按下就归类为 dragged。
func TestClassifier_MoveWithButtonHeld(t *testing.T) {
	cls, _ := newTestClassifier(classifierConfig{})

	cls.classify(Observation{Kind: ObservationButtonDown, Time: at(0), Button: events.ButtonRight, X: 0, Y: 0})

	evs := cls.classify(Observation{Kind: ObservationMove, Time: at(20), X: 5, Y: 5})
	require.Len(t, evs, 1)
	assert.Equal(t, events.EventTypeMouseDragged, evs[0].Type)
}

// TestClassifier_Wheel 滚轮方向判定
func TestClassifier_Wheel(t *testing.T) {
	cls, _ := newTestClassifier(classifierConfig{})

	tests := []struct {
		name      string
		dx, dy    float64
		direction events.ScrollDirection
		delta     float64
	}{
		{"向上", 0, 3, events.ScrollUp, 3},
		{"向下", 0, -2, events.ScrollDown, 2},
		{"向左", 4, 0, events.ScrollLeft, 4},
		{"向右", -5, 0, events.ScrollRight, 5},
		{"纵向优先", 2, 3, events.ScrollUp, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evs := cls.classify(Observation{Kind: ObservationWheel, Time: at(0), WheelDeltaX: tt.dx, WheelDeltaY: tt.dy, X: 1, Y: 2})
			require.Len(t, evs, 1)
			assert.Equal(t, events.EventTypeMouseWheel, evs[0].Type)
			assert.Equal(t, tt.direction, evs[0].Wheel.Direction)
			assert.Equal(t, tt.delta, evs[0].Wheel.Delta)
		})
	}
}

// TestClassifier_ModifiersDiff 修饰键状态整体变更的差分合成
func TestClassifier_ModifiersDiff(t *testing.T) {
	cls, mask := newTestClassifier(classifierConfig{})

	// Shift 和 Ctrl 同时置位：两个合成按下
	evs := cls.classify(Observation{Kind: ObservationModifiers, Time: at(0), Modifiers: state.MaskShift | state.MaskCtrl})
	require.Len(t, evs, 2)
	assert.Equal(t, events.EventTypeKeyPressed, evs[0].Type)
	assert.Equal(t, events.KeyShiftLeft, evs[0].Keyboard.Key)
	assert.Equal(t, events.EventTypeKeyPressed, evs[1].Type)
	assert.Equal(t, events.KeyControlLeft, evs[1].Keyboard.Key)
	assert.Equal(t, state.MaskShift|state.MaskCtrl, mask.Value())

	// Shift 释放：一个合成释放
	evs = cls.classify(Observation{Kind: ObservationModifiers, Time: at(10), Modifiers: state.MaskCtrl})
	require.Len(t, evs, 1)
	assert.Equal(t, events.EventTypeKeyReleased, evs[0].Type)
	assert.Equal(t, events.KeyShiftLeft, evs[0].Keyboard.Key)

	// 无变化：不产生事件
	evs = cls.classify(Observation{Kind: ObservationModifiers, Time: at(20), Modifiers: state.MaskCtrl})
	assert.Empty(t, evs)
}

// TestClassifier_ModifiersPreserveButtons 修饰键变更保留鼠标按键位
func TestClassifier_ModifiersPreserveButtons(t *testing.T) {
	cls, mask := newTestClassifier(classifierConfig{})

	cls.classify(Observation{Kind: ObservationButtonDown, Time: at(0), Button: events.ButtonLeft, X: 0, Y: 0})
	cls.classify(Observation{Kind: ObservationModifiers, Time: at(10), Modifiers: 0})

	assert.True(t, mask.Held(state.MaskButton1), "修饰键清零不应清除鼠标按键位")
}
