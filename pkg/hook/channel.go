package hook

import (
	"fmt"
	"sync/atomic"

	"github.com/chenyang-zz/inputtap/pkg/events"
)

/**
 * ChannelHandle 通道会话句柄
 *
 * 将捕获会话桥接到有界 channel，把消费者与 OS 回调线程解耦。
 * 事件按发布顺序入队；缓冲满时丢弃最旧的事件为最新事件腾位，
 * 丢弃次数通过 Dropped 暴露。捕获线程永远不会因消费者迟缓而阻塞。
 */
type ChannelHandle struct {
	handle  *Handle
	ch      chan events.Event
	dropped atomic.Uint64
}

// ListenChannel 以监听模式启动会话并返回事件通道
//
// 通道在 hook_disabled 送达后关闭，可直接用于 select/context 组合。
//
// Parameters:
//   - capacity: 通道容量，必须为正数
//
// Returns:
//   - *ChannelHandle: 会话句柄
//   - <-chan events.Event: 事件通道
//   - error: ErrInvalidCapacity / ErrAlreadyRunning
func (h *Hook) ListenChannel(capacity int) (*ChannelHandle, <-chan events.Event, error) {
	if capacity <= 0 {
		return nil, nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}

	ch := &ChannelHandle{ch: make(chan events.Event, capacity)}

	hd, err := h.RunAsync(ch.push)
	if err != nil {
		return nil, nil, err
	}
	ch.handle = hd

	go func() {
		_ = hd.Wait()
		close(ch.ch)
	}()

	return ch, ch.ch, nil
}

// GrabChannel 以拦截模式启动会话并返回事件通道
//
// filter 对每个输入事件同步裁决：返回 false 表示消费
// （系统不投递、也不入队），返回 true 表示放行并入队。
// filter 为 nil 时等同于全部放行。生命周期事件不经过 filter。
//
// Parameters:
//   - capacity: 通道容量，必须为正数
//   - filter: 拦截裁决函数
func (h *Hook) GrabChannel(capacity int, filter func(ev events.Event) bool) (*ChannelHandle, <-chan events.Event, error) {
	if capacity <= 0 {
		return nil, nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}

	ch := &ChannelHandle{ch: make(chan events.Event, capacity)}

	hd, err := h.GrabAsync(func(ev events.Event) *events.Event {
		if ev.IsLifecycle() {
			ch.push(ev)
			return &ev
		}
		if filter != nil && !filter(ev) {
			return nil
		}
		ch.push(ev)
		return &ev
	})
	if err != nil {
		return nil, nil, err
	}
	ch.handle = hd

	go func() {
		_ = hd.Wait()
		close(ch.ch)
	}()

	return ch, ch.ch, nil
}

// push 入队一个事件，缓冲满时丢弃最旧的事件
//
// 只在捕获线程上调用（单生产者）。
func (c *ChannelHandle) push(ev events.Event) {
	for {
		select {
		case c.ch <- ev:
			return
		default:
		}

		// 腾出最旧的一个位置再重试；与消费者的竞争是无害的
		select {
		case <-c.ch:
			c.dropped.Add(1)
		default:
		}
	}
}

// Stop 停止会话并等待其结束，幂等
//
// Returns: error - 会话的最终错误（正常停止为 nil）
func (c *ChannelHandle) Stop() error {
	return c.handle.Stop()
}

// Wait 阻塞等待会话结束
func (c *ChannelHandle) Wait() error {
	return c.handle.Wait()
}

// Dropped 因缓冲溢出被丢弃的事件数
func (c *ChannelHandle) Dropped() uint64 {
	return c.dropped.Load()
}
