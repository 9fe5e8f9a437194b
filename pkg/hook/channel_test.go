package hook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenyang-zz/inputtap/pkg/events"
)

// TestListenChannel_InvalidCapacity 非法容量直接拒绝
func TestListenChannel_InvalidCapacity(t *testing.T) {
	h := New(newFakeBackend())

	for _, capacity := range []int{0, -1, -100} {
		_, _, err := h.ListenChannel(capacity)
		assert.ErrorIs(t, err, ErrInvalidCapacity, "capacity=%d", capacity)
	}

	_, _, err := h.GrabChannel(0, nil)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	// 拒绝后实例仍可正常启动
	ch, _, err := h.ListenChannel(8)
	require.NoError(t, err)
	require.NoError(t, ch.Stop())
}

// TestListenChannel_Ordering 事件按发布顺序入队，通道随会话关闭
func TestListenChannel_Ordering(t *testing.T) {
	backend := newFakeBackend(
		Observation{Kind: ObservationKeyDown, Time: time.Now(), Key: events.KeyA},
		Observation{Kind: ObservationKeyUp, Time: time.Now(), Key: events.KeyA},
		Observation{Kind: ObservationKeyDown, Time: time.Now(), Key: events.KeyB},
	)
	h := New(backend)

	handle, ch, err := h.ListenChannel(64)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, handle.Stop())

	var types []events.EventType
	for ev := range ch {
		types = append(types, ev.Type)
	}

	assert.Equal(t, []events.EventType{
		events.EventTypeHookEnabled,
		events.EventTypeKeyPressed,
		events.EventTypeKeyReleased,
		events.EventTypeKeyPressed,
		events.EventTypeHookDisabled,
	}, types)
	assert.Equal(t, uint64(0), handle.Dropped())
}

// TestListenChannel_DropOldest 缓冲满时丢弃最旧的事件
//
// 消费者不读时，通道里永远保留最新的事件，丢弃计数准确。
func TestListenChannel_DropOldest(t *testing.T) {
	keys := []events.Key{events.KeyA, events.KeyB, events.KeyC, events.KeyD, events.KeyE}
	script := make([]Observation, len(keys))
	for i, k := range keys {
		script[i] = Observation{Kind: ObservationKeyDown, Time: time.Now(), Key: k}
	}

	h := New(newFakeBackend(script...))

	// hook_enabled + 5 个 key_pressed + hook_disabled = 7 个事件，容量 3
	handle, ch, err := h.ListenChannel(3)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, handle.Stop())

	var got []events.Event
	for ev := range ch {
		got = append(got, ev)
	}

	require.Len(t, got, 3, "通道只保留最新的 3 个事件")
	assert.Equal(t, uint64(4), handle.Dropped())

	// 最新的三个：key_pressed(d)、key_pressed(e)、hook_disabled
	assert.Equal(t, events.KeyD, got[0].Keyboard.Key)
	assert.Equal(t, events.KeyE, got[1].Keyboard.Key)
	assert.Equal(t, events.EventTypeHookDisabled, got[2].Type)
}

// TestGrabChannel_Filter 拦截通道的裁决与入队
func TestGrabChannel_Filter(t *testing.T) {
	backend := newFakeBackend(
		Observation{Kind: ObservationKeyDown, Time: time.Now(), Key: events.KeyA},
		Observation{Kind: ObservationKeyDown, Time: time.Now(), Key: events.KeyB},
		Observation{Kind: ObservationKeyDown, Time: time.Now(), Key: events.KeyC},
	)
	h := New(backend)

	// 消费 b 键，其余放行
	handle, ch, err := h.GrabChannel(64, func(ev events.Event) bool {
		return ev.Keyboard == nil || ev.Keyboard.Key != events.KeyB
	})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, handle.Stop())

	var keys []events.Key
	for ev := range ch {
		if ev.Keyboard != nil {
			keys = append(keys, ev.Keyboard.Key)
		}
	}
	assert.Equal(t, []events.Key{events.KeyA, events.KeyC}, keys, "被消费的事件不入队")

	decisions := backend.recordedDecisions()
	require.Len(t, decisions, 3)
	assert.Equal(t, VerdictConsume, decisions[1].Verdict)
}

// TestGrabChannel_NilFilter filter 为 nil 时全部放行
func TestGrabChannel_NilFilter(t *testing.T) {
	backend := newFakeBackend(
		Observation{Kind: ObservationKeyDown, Time: time.Now(), Key: events.KeyA},
	)
	h := New(backend)

	handle, ch, err := h.GrabChannel(16, nil)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, handle.Stop())

	var count int
	for range ch {
		count++
	}
	assert.Equal(t, 3, count, "enabled + pressed + disabled 全部入队")

	for _, d := range backend.recordedDecisions() {
		assert.Equal(t, VerdictPass, d.Verdict)
	}
}

// TestChannelHandle_WaitAfterStop Wait 在停止后立即返回
func TestChannelHandle_WaitAfterStop(t *testing.T) {
	h := New(newFakeBackend())

	handle, ch, err := h.ListenChannel(8)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, handle.Stop())
	require.NoError(t, handle.Wait())

	// 通道已关闭
	for range ch {
	}
}
