package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewEvent_Payloads 构造函数只携带对应载荷
func TestNewEvent_Payloads(t *testing.T) {
	now := time.Now()

	kb := NewKeyPressed(0, now, KeyA, 30, false)
	assert.NotEmpty(t, kb.ID)
	assert.NotNil(t, kb.Keyboard)
	assert.Nil(t, kb.Mouse)
	assert.Nil(t, kb.Wheel)

	ms := NewMouseClicked(0, now, ButtonLeft, 10, 20, 2)
	assert.Nil(t, ms.Keyboard)
	require.NotNil(t, ms.Mouse)
	assert.Equal(t, 2, ms.Mouse.Clicks)

	wh := NewMouseWheel(0, now, ScrollDown, 3, 1, 2)
	require.NotNil(t, wh.Wheel)
	assert.Equal(t, ScrollDown, wh.Wheel.Direction)

	lc := NewHookEnabled(0, now)
	assert.Nil(t, lc.Keyboard)
	assert.Nil(t, lc.Mouse)
	assert.Nil(t, lc.Wheel)
}

// TestEvent_UniqueIDs 事件 ID 唯一
func TestEvent_UniqueIDs(t *testing.T) {
	now := time.Now()
	a := NewKeyPressed(0, now, KeyA, 30, false)
	b := NewKeyPressed(0, now, KeyA, 30, false)
	assert.NotEqual(t, a.ID, b.ID)
}

// TestEvent_Classification 事件类别判定
func TestEvent_Classification(t *testing.T) {
	now := time.Now()

	assert.True(t, NewKeyTyped(0, now, KeyA, 30, 'a').IsKeyboard())
	assert.False(t, NewKeyTyped(0, now, KeyA, 30, 'a').IsMouse())

	assert.True(t, NewMouseDragged(0, now, 1, 2).IsMouse())
	assert.True(t, NewMouseWheel(0, now, ScrollUp, 1, 0, 0).IsMouse())
	assert.False(t, NewMouseMoved(0, now, 1, 2).IsKeyboard())

	assert.True(t, NewHookEnabled(0, now).IsLifecycle())
	assert.True(t, NewHookDisabled(0, now).IsLifecycle())
	assert.False(t, NewKeyPressed(0, now, KeyA, 30, false).IsLifecycle())
}

// TestEvent_JSONRoundTrip JSON 序列化保留载荷，空载荷省略
func TestEvent_JSONRoundTrip(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	ev := NewMousePressed(0x101, now, ButtonRight, 640, 480, 1)

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "keyboard", "未使用的载荷应省略")
	assert.NotContains(t, string(data), "wheel")

	var back Event
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ev.ID, back.ID)
	assert.Equal(t, ev.Type, back.Type)
	assert.Equal(t, uint32(0x101), back.Mask)
	require.NotNil(t, back.Mouse)
	assert.Equal(t, ButtonRight, back.Mouse.Button)
	assert.Equal(t, 640.0, back.Mouse.X)
}

// TestKey_IsModifier 修饰键判定
func TestKey_IsModifier(t *testing.T) {
	assert.True(t, KeyShiftLeft.IsModifier())
	assert.True(t, KeyMetaRight.IsModifier())
	assert.True(t, KeyCapsLock.IsModifier())
	assert.False(t, KeyA.IsModifier())
	assert.False(t, KeySpace.IsModifier())
	assert.False(t, KeyUnidentified.IsModifier())
}
