package hotkey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenyang-zz/inputtap/pkg/events"
	"github.com/chenyang-zz/inputtap/pkg/state"
)

// pressed 构造一个带修饰键快照的按下事件
func pressed(key events.Key, mask uint32) events.Event {
	return events.NewKeyPressed(mask, time.Now(), key, 0, false)
}

// waitFired 等待回调触发（回调在独立 goroutine 中执行）
func waitFired(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("回调未在预期时间内触发")
	}
}

// TestParse 组合描述解析
func TestParse(t *testing.T) {
	tests := []struct {
		combo     string
		key       events.Key
		modifiers uint32
	}{
		{"a", events.KeyA, 0},
		{"ctrl+a", events.KeyA, state.MaskCtrl},
		{"Ctrl+Shift+A", events.KeyA, state.MaskCtrl | state.MaskShift},
		{"cmd+space", events.KeySpace, state.MaskMeta},
		{"alt+f4", events.KeyF4, state.MaskAlt},
		{"control+option+super+x", events.KeyX, state.MaskCtrl | state.MaskAlt | state.MaskMeta},
	}

	for _, tt := range tests {
		t.Run(tt.combo, func(t *testing.T) {
			hk, err := Parse(tt.combo)
			require.NoError(t, err)
			assert.Equal(t, tt.key, hk.Key)
			assert.Equal(t, tt.modifiers, hk.Modifiers)
		})
	}
}

// TestParse_Invalid 非法组合
func TestParse_Invalid(t *testing.T) {
	for _, combo := range []string{"", "+", "ctrl+", "bogus+a", "ctrl+shift", "unidentified"} {
		_, err := Parse(combo)
		assert.ErrorIs(t, err, ErrInvalidCombo, "combo=%q", combo)
	}
}

// TestHotkey_String 规范化描述
func TestHotkey_String(t *testing.T) {
	hk, err := Parse("shift+CTRL+a")
	require.NoError(t, err)
	assert.Equal(t, "ctrl+shift+a", hk.String())
}

// TestManager_RegisterFeed 注册与匹配触发
func TestManager_RegisterFeed(t *testing.T) {
	m := NewManager()
	fired := make(chan struct{}, 1)

	id, err := m.Register("ctrl+shift+a", func() { fired <- struct{}{} })
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.True(t, m.IsRegistered("ctrl+shift+a"))

	// 修饰键不符：不触发
	assert.False(t, m.Feed(pressed(events.KeyA, state.MaskCtrl)))

	// 完全匹配：触发
	assert.True(t, m.Feed(pressed(events.KeyA, state.MaskCtrl|state.MaskShift)))
	waitFired(t, fired)
}

// TestManager_LockBitsIgnored 锁定键状态不影响匹配
func TestManager_LockBitsIgnored(t *testing.T) {
	m := NewManager()
	fired := make(chan struct{}, 1)

	_, err := m.Register("ctrl+a", func() { fired <- struct{}{} })
	require.NoError(t, err)

	assert.True(t, m.Feed(pressed(events.KeyA, state.MaskCtrl|state.MaskCapsLock|state.MaskNumLock)))
	waitFired(t, fired)
}

// TestManager_OnlyKeyPressed 只有按下事件参与匹配
func TestManager_OnlyKeyPressed(t *testing.T) {
	m := NewManager()
	_, err := m.Register("a", func() {})
	require.NoError(t, err)

	assert.False(t, m.Feed(events.NewKeyReleased(0, time.Now(), events.KeyA, 0)))
	assert.False(t, m.Feed(events.NewKeyTyped(0, time.Now(), events.KeyA, 0, 'a')))

	// 按住重复不触发
	repeat := events.NewKeyPressed(0, time.Now(), events.KeyA, 0, true)
	assert.False(t, m.Feed(repeat))
}

// TestManager_MultipleCallbacks 同一组合的多条注册各自触发
func TestManager_MultipleCallbacks(t *testing.T) {
	m := NewManager()
	fired := make(chan struct{}, 2)

	_, err := m.Register("f5", func() { fired <- struct{}{} })
	require.NoError(t, err)
	_, err = m.Register("f5", func() { fired <- struct{}{} })
	require.NoError(t, err)

	assert.True(t, m.Feed(pressed(events.KeyF5, 0)))
	waitFired(t, fired)
	waitFired(t, fired)
}

// TestManager_Unregister 注销后不再触发
func TestManager_Unregister(t *testing.T) {
	m := NewManager()

	id, err := m.Register("ctrl+x", func() {})
	require.NoError(t, err)

	assert.True(t, m.Unregister(id))
	assert.False(t, m.Unregister(id), "重复注销返回 false")
	assert.False(t, m.IsRegistered("ctrl+x"))
	assert.False(t, m.Feed(pressed(events.KeyX, state.MaskCtrl)))
}

// TestManager_SetEnabled 禁用的注册不触发
func TestManager_SetEnabled(t *testing.T) {
	m := NewManager()
	fired := make(chan struct{}, 1)

	id, err := m.Register("ctrl+b", func() { fired <- struct{}{} })
	require.NoError(t, err)

	require.True(t, m.SetEnabled(id, false))
	assert.False(t, m.Feed(pressed(events.KeyB, state.MaskCtrl)))

	require.True(t, m.SetEnabled(id, true))
	assert.True(t, m.Feed(pressed(events.KeyB, state.MaskCtrl)))
	waitFired(t, fired)
}

// TestManager_PanicRecovery 回调 panic 不影响后续匹配
func TestManager_PanicRecovery(t *testing.T) {
	m := NewManager()
	fired := make(chan struct{}, 1)

	_, err := m.Register("ctrl+p", func() { panic("boom") })
	require.NoError(t, err)
	_, err = m.Register("ctrl+q", func() { fired <- struct{}{} })
	require.NoError(t, err)

	assert.True(t, m.Feed(pressed(events.KeyP, state.MaskCtrl)))
	time.Sleep(50 * time.Millisecond)

	assert.True(t, m.Feed(pressed(events.KeyQ, state.MaskCtrl)))
	waitFired(t, fired)
}

// TestManager_Combos 已注册组合列表
func TestManager_Combos(t *testing.T) {
	m := NewManager()

	_, err := m.Register("ctrl+shift+a", func() {})
	require.NoError(t, err)
	_, err = m.Register("f5", func() {})
	require.NoError(t, err)
	_, err = m.Register("f5", func() {})
	require.NoError(t, err)

	assert.Equal(t, []string{"ctrl+shift+a", "f5"}, m.Combos())

	m.UnregisterAll()
	assert.Empty(t, m.Combos())
}
