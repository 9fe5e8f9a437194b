package statistics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenyang-zz/inputtap/pkg/events"
)

// at 生成固定基点的偏移时间
func at(ms int) time.Time {
	return time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC).Add(time.Duration(ms) * time.Millisecond)
}

// TestCollector_KeyCounting 按键计数与频率
func TestCollector_KeyCounting(t *testing.T) {
	c := NewCollector()

	c.Record(events.NewKeyPressed(0, at(0), events.KeyA, 30, false))
	c.Record(events.NewKeyPressed(0, at(100), events.KeyA, 30, false))
	c.Record(events.NewKeyPressed(0, at(200), events.KeyB, 48, false))

	// 按住重复不计数
	c.Record(events.NewKeyPressed(0, at(300), events.KeyA, 30, true))

	s := c.Snapshot()
	assert.Equal(t, int64(3), s.TotalKeyPresses)
	assert.Equal(t, int64(2), s.KeyFrequency[events.KeyA])
	assert.Equal(t, int64(1), s.KeyFrequency[events.KeyB])

	key, count := s.MostFrequentKey()
	assert.Equal(t, events.KeyA, key)
	assert.Equal(t, int64(2), count)
}

// TestCollector_MouseDistance 鼠标移动距离累积
func TestCollector_MouseDistance(t *testing.T) {
	c := NewCollector()

	c.Record(events.NewMouseMoved(0, at(0), 0, 0))
	c.Record(events.NewMouseMoved(0, at(10), 3, 4)) // 距离 5
	c.Record(events.NewMouseDragged(0, at(20), 6, 8)) // 再 5

	s := c.Snapshot()
	assert.InDelta(t, 10.0, s.MouseDistance, 0.001)
}

// TestCollector_Clicks 点击计数
func TestCollector_Clicks(t *testing.T) {
	c := NewCollector()

	c.Record(events.NewMousePressed(0, at(0), events.ButtonLeft, 1, 1, 1))
	c.Record(events.NewMouseReleased(0, at(30), events.ButtonLeft, 1, 1, 1))
	c.Record(events.NewMouseClicked(0, at(30), events.ButtonLeft, 1, 1, 1))
	c.Record(events.NewMouseClicked(0, at(200), events.ButtonLeft, 1, 1, 2))

	s := c.Snapshot()
	assert.Equal(t, int64(2), s.TotalClicks)
	assert.Equal(t, int64(1), s.CountByType[events.EventTypeMousePressed])
}

// TestCollector_ActiveTyping 活跃输入时长
//
// 间隔小于 5 秒的按键累积，超过 5 秒的间隔不计入。
func TestCollector_ActiveTyping(t *testing.T) {
	c := NewCollector()

	c.Record(events.NewKeyPressed(0, at(0), events.KeyA, 30, false))
	c.Record(events.NewKeyPressed(0, at(1000), events.KeyB, 48, false))
	c.Record(events.NewKeyPressed(0, at(2000), events.KeyC, 46, false))

	// 10 秒空闲后再输入
	c.Record(events.NewKeyPressed(0, at(12000), events.KeyD, 32, false))
	c.Record(events.NewKeyPressed(0, at(13000), events.KeyE, 18, false))

	s := c.Snapshot()
	assert.Equal(t, 3*time.Second, s.ActiveTyping)
	assert.Greater(t, s.KeysPerMinute(), 0.0)
}

// TestCollector_Lifecycle 生命周期事件不参与统计
func TestCollector_Lifecycle(t *testing.T) {
	c := NewCollector()

	c.Record(events.NewHookEnabled(0, at(0)))
	c.Record(events.NewHookDisabled(0, at(100)))

	s := c.Snapshot()
	assert.Empty(t, s.CountByType)
	assert.True(t, s.FirstEvent.IsZero())
}

// TestCollector_Wheel 滚轮滚动量
func TestCollector_Wheel(t *testing.T) {
	c := NewCollector()

	c.Record(events.NewMouseWheel(0, at(0), events.ScrollUp, 3, 0, 0))
	c.Record(events.NewMouseWheel(0, at(10), events.ScrollDown, 2, 0, 0))

	s := c.Snapshot()
	assert.Equal(t, 5.0, s.WheelDistance)
}

// TestStatistics_Merge 统计合并
func TestStatistics_Merge(t *testing.T) {
	c1 := NewCollector()
	c1.Record(events.NewKeyPressed(0, at(0), events.KeyA, 30, false))
	c1.Record(events.NewMouseClicked(0, at(10), events.ButtonLeft, 1, 1, 1))

	c2 := NewCollector()
	c2.Record(events.NewKeyPressed(0, at(5000), events.KeyA, 30, false))
	c2.Record(events.NewKeyPressed(0, at(5100), events.KeyB, 48, false))

	merged := c1.Snapshot()
	merged.Merge(c2.Snapshot())

	assert.Equal(t, int64(3), merged.TotalKeyPresses)
	assert.Equal(t, int64(2), merged.KeyFrequency[events.KeyA])
	assert.Equal(t, int64(1), merged.TotalClicks)
	assert.Equal(t, at(0), merged.FirstEvent)
	assert.Equal(t, at(5100), merged.LastEvent)
}

// TestStatistics_Summary 摘要包含关键指标
func TestStatistics_Summary(t *testing.T) {
	c := NewCollector()
	c.Record(events.NewKeyPressed(0, at(0), events.KeyA, 30, false))
	c.Record(events.NewKeyPressed(0, at(1000), events.KeyA, 30, false))
	c.Record(events.NewMouseClicked(0, at(2000), events.ButtonLeft, 1, 1, 1))

	summary := c.Snapshot().Summary()
	assert.Contains(t, summary, "按键按下: 2")
	assert.Contains(t, summary, "鼠标点击: 1")
	assert.Contains(t, summary, "最常用键: a")
}

// TestCollector_Reset 重置清空全部状态
func TestCollector_Reset(t *testing.T) {
	c := NewCollector()
	c.Record(events.NewKeyPressed(0, at(0), events.KeyA, 30, false))
	c.Record(events.NewMouseMoved(0, at(10), 5, 5))

	c.Reset()
	c.Record(events.NewMouseMoved(0, at(20), 10, 10))

	s := c.Snapshot()
	assert.Equal(t, int64(0), s.TotalKeyPresses)
	assert.Equal(t, 0.0, s.MouseDistance, "重置后首个移动不应产生距离")
}

// TestCollector_SnapshotIsolation 快照是深拷贝
func TestCollector_SnapshotIsolation(t *testing.T) {
	c := NewCollector()
	c.Record(events.NewKeyPressed(0, at(0), events.KeyA, 30, false))

	snap := c.Snapshot()
	snap.KeyFrequency[events.KeyA] = 999

	fresh := c.Snapshot()
	require.Equal(t, int64(1), fresh.KeyFrequency[events.KeyA], "修改快照不应影响收集器")
}
