package events

import (
	"sync"
	"time"
)

// FilterRule 事件过滤规则
//
// 定义单一事件类型的节流阈值。
type FilterRule struct {
	// MinInterval 同类事件的最小时间间隔，小于此间隔的事件被过滤
	MinInterval time.Duration

	// MaxPerSecond 每秒最大事件数（滑动窗口），超出的事件被丢弃
	MaxPerSecond int
}

// EventFilterManager 事件过滤器
//
// 消费侧的可选节流组件，用于抑制 mouse_moved/mouse_dragged 这类
// 高频事件造成的下游风暴（日志输出、持久化）。
// 捕获运行时本身从不丢弃或合并事件，过滤只发生在消费者一侧。
type EventFilterManager struct {
	// rules 每种事件类型的过滤规则
	rules map[EventType]*FilterRule

	// lastEventTime 每种事件类型最后一次放行的时间
	lastEventTime map[EventType]time.Time

	// counters 速率限制的滑动窗口计数器
	counters map[EventType][]time.Time

	// windowSize 速率限制的时间窗口（默认 1 秒）
	windowSize time.Duration

	mu sync.Mutex
}

// NewEventFilterManager 创建事件过滤器
//
// Returns: *EventFilterManager - 新创建的过滤器实例
func NewEventFilterManager() *EventFilterManager {
	return &EventFilterManager{
		rules:         make(map[EventType]*FilterRule),
		lastEventTime: make(map[EventType]time.Time),
		counters:      make(map[EventType][]time.Time),
		windowSize:    time.Second,
	}
}

// SetRule 设置过滤规则
//
// Parameters:
//   - eventType: 事件类型
//   - rule: 过滤规则（nil 表示移除规则）
func (f *EventFilterManager) SetRule(eventType EventType, rule *FilterRule) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if rule == nil {
		delete(f.rules, eventType)
	} else {
		f.rules[eventType] = rule
	}
}

// ShouldPass 判断事件是否应该放行
//
// Parameters:
//   - ev: 待判定的事件
//
// Returns: bool - true 表示放行，false 表示过滤
func (f *EventFilterManager) ShouldPass(ev Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	rule, exists := f.rules[ev.Type]
	now := ev.Time
	if now.IsZero() {
		now = time.Now()
	}

	if !exists {
		f.lastEventTime[ev.Type] = now
		return true
	}

	// 最小时间间隔
	if rule.MinInterval > 0 {
		if last, ok := f.lastEventTime[ev.Type]; ok && now.Sub(last) < rule.MinInterval {
			return false
		}
	}

	// 滑动窗口速率限制
	if rule.MaxPerSecond > 0 {
		f.cleanupCounters(ev.Type, now)
		if len(f.counters[ev.Type]) >= rule.MaxPerSecond {
			return false
		}
		f.counters[ev.Type] = append(f.counters[ev.Type], now)
	}

	f.lastEventTime[ev.Type] = now
	return true
}

// cleanupCounters 清理窗口外的计数记录，持锁调用
func (f *EventFilterManager) cleanupCounters(eventType EventType, now time.Time) {
	timestamps := f.counters[eventType]
	cutoff := now.Add(-f.windowSize)

	kept := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	f.counters[eventType] = kept
}

// EventCount 当前时间窗口内某事件类型的放行计数
//
// 用于调试和调优过滤规则。
func (f *EventFilterManager) EventCount(eventType EventType) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cleanupCounters(eventType, time.Now())
	return len(f.counters[eventType])
}

// Reset 清除所有规则和状态
func (f *EventFilterManager) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rules = make(map[EventType]*FilterRule)
	f.lastEventTime = make(map[EventType]time.Time)
	f.counters = make(map[EventType][]time.Time)
}
