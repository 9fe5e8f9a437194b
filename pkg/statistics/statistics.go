/**
 * Package statistics 提供输入事件的实时统计
 *
 * Collector 从事件流增量累积指标：按类型计数、按键频率、
 * 鼠标移动距离、点击计数与活跃输入时长。快照可用于
 * CLI 报表或与持久化层的离线统计合并。
 */

package statistics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chenyang-zz/inputtap/pkg/events"
)

// typingGap 两次按键间隔超过此值不再计入活跃输入时长
const typingGap = 5 * time.Second

/**
 * EventStatistics 统计结果快照
 */
type EventStatistics struct {
	// CountByType 按事件类型计数
	CountByType map[events.EventType]int64 `json:"count_by_type"`

	// KeyFrequency 按键按下次数（不含重复）
	KeyFrequency map[events.Key]int64 `json:"key_frequency"`

	// TotalKeyPresses 按键按下总数（不含重复）
	TotalKeyPresses int64 `json:"total_key_presses"`

	// TotalClicks 鼠标点击总数
	TotalClicks int64 `json:"total_clicks"`

	// MouseDistance 鼠标累计移动距离（像素）
	MouseDistance float64 `json:"mouse_distance"`

	// WheelDistance 滚轮累计滚动量
	WheelDistance float64 `json:"wheel_distance"`

	// ActiveTyping 活跃输入时长（按键间隔小于 5s 的累积）
	ActiveTyping time.Duration `json:"active_typing"`

	// FirstEvent 首个事件时间
	FirstEvent time.Time `json:"first_event,omitempty"`

	// LastEvent 最后一个事件时间
	LastEvent time.Time `json:"last_event,omitempty"`
}

/**
 * KeysPerMinute 活跃输入期间的平均按键速率
 */
func (s *EventStatistics) KeysPerMinute() float64 {
	if s.ActiveTyping <= 0 || s.TotalKeyPresses == 0 {
		return 0
	}
	return float64(s.TotalKeyPresses) / s.ActiveTyping.Minutes()
}

/**
 * MostFrequentKey 按下次数最多的按键
 *
 * Returns: events.Key - 按键, int64 - 次数；无按键记录时返回空键和 0
 */
func (s *EventStatistics) MostFrequentKey() (events.Key, int64) {
	var best events.Key
	var bestCount int64
	for key, count := range s.KeyFrequency {
		if count > bestCount || (count == bestCount && key < best) {
			best = key
			bestCount = count
		}
	}
	return best, bestCount
}

/**
 * Merge 合并另一份统计结果
 *
 * 用于把多个会话（或持久化层的历史分段）的统计叠加。
 */
func (s *EventStatistics) Merge(other *EventStatistics) {
	if other == nil {
		return
	}

	for t, c := range other.CountByType {
		s.CountByType[t] += c
	}
	for k, c := range other.KeyFrequency {
		s.KeyFrequency[k] += c
	}
	s.TotalKeyPresses += other.TotalKeyPresses
	s.TotalClicks += other.TotalClicks
	s.MouseDistance += other.MouseDistance
	s.WheelDistance += other.WheelDistance
	s.ActiveTyping += other.ActiveTyping

	if s.FirstEvent.IsZero() || (!other.FirstEvent.IsZero() && other.FirstEvent.Before(s.FirstEvent)) {
		s.FirstEvent = other.FirstEvent
	}
	if other.LastEvent.After(s.LastEvent) {
		s.LastEvent = other.LastEvent
	}
}

/**
 * Summary 生成人类可读的统计摘要
 */
func (s *EventStatistics) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "按键按下: %d 次\n", s.TotalKeyPresses)
	fmt.Fprintf(&b, "鼠标点击: %d 次\n", s.TotalClicks)
	fmt.Fprintf(&b, "鼠标移动: %.0f 像素\n", s.MouseDistance)
	fmt.Fprintf(&b, "活跃输入: %s\n", s.ActiveTyping.Round(time.Second))
	if kpm := s.KeysPerMinute(); kpm > 0 {
		fmt.Fprintf(&b, "输入速率: %.1f 键/分钟\n", kpm)
	}
	if key, count := s.MostFrequentKey(); count > 0 {
		fmt.Fprintf(&b, "最常用键: %s (%d 次)\n", key, count)
	}

	// 类型计数按名称排序，输出稳定
	types := make([]string, 0, len(s.CountByType))
	for t := range s.CountByType {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(&b, "  %-14s %d\n", t, s.CountByType[events.EventType(t)])
	}

	return b.String()
}

/**
 * Collector 事件统计收集器
 *
 * Record 在捕获路径上调用，只做常数时间的增量更新；
 * Snapshot 返回深拷贝，消费者可安全持有。
 */
type Collector struct {
	mu    sync.RWMutex
	stats EventStatistics

	// 增量状态
	lastKeyAt  time.Time
	lastMouseX float64
	lastMouseY float64
	hasMousePt bool
}

/**
 * NewCollector 创建统计收集器
 */
func NewCollector() *Collector {
	return &Collector{stats: newStatistics()}
}

func newStatistics() EventStatistics {
	return EventStatistics{
		CountByType:  make(map[events.EventType]int64),
		KeyFrequency: make(map[events.Key]int64),
	}
}

/**
 * Record 记录一个事件
 */
func (c *Collector) Record(ev events.Event) {
	if ev.IsLifecycle() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.CountByType[ev.Type]++
	if c.stats.FirstEvent.IsZero() || ev.Time.Before(c.stats.FirstEvent) {
		c.stats.FirstEvent = ev.Time
	}
	if ev.Time.After(c.stats.LastEvent) {
		c.stats.LastEvent = ev.Time
	}

	switch ev.Type {
	case events.EventTypeKeyPressed:
		if ev.Keyboard != nil && ev.Keyboard.Repeat {
			return
		}
		c.stats.TotalKeyPresses++
		if ev.Keyboard != nil {
			c.stats.KeyFrequency[ev.Keyboard.Key]++
		}

		// 间隔小于 typingGap 的按键累积为活跃输入时长
		if !c.lastKeyAt.IsZero() {
			if gap := ev.Time.Sub(c.lastKeyAt); gap > 0 && gap < typingGap {
				c.stats.ActiveTyping += gap
			}
		}
		c.lastKeyAt = ev.Time

	case events.EventTypeMouseClicked:
		c.stats.TotalClicks++

	case events.EventTypeMouseMoved, events.EventTypeMouseDragged:
		if ev.Mouse == nil {
			return
		}
		if c.hasMousePt {
			dx := ev.Mouse.X - c.lastMouseX
			dy := ev.Mouse.Y - c.lastMouseY
			c.stats.MouseDistance += math.Sqrt(dx*dx + dy*dy)
		}
		c.lastMouseX = ev.Mouse.X
		c.lastMouseY = ev.Mouse.Y
		c.hasMousePt = true

	case events.EventTypeMouseWheel:
		if ev.Wheel != nil {
			c.stats.WheelDistance += math.Abs(ev.Wheel.Delta)
		}
	}
}

/**
 * Snapshot 返回当前统计的深拷贝
 */
func (c *Collector) Snapshot() *EventStatistics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := c.stats
	snap.CountByType = make(map[events.EventType]int64, len(c.stats.CountByType))
	for t, n := range c.stats.CountByType {
		snap.CountByType[t] = n
	}
	snap.KeyFrequency = make(map[events.Key]int64, len(c.stats.KeyFrequency))
	for k, n := range c.stats.KeyFrequency {
		snap.KeyFrequency[k] = n
	}
	return &snap
}

/**
 * Reset 清空统计
 */
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats = newStatistics()
	c.lastKeyAt = time.Time{}
	c.hasMousePt = false
}
