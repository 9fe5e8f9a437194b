package hook

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/chenyang-zz/inputtap/pkg/events"
	"github.com/chenyang-zz/inputtap/pkg/logger"
	"github.com/chenyang-zz/inputtap/pkg/state"
)

// 会话状态机：stopped -> starting -> running -> stopping -> stopped
// 所有迁移都通过原子 CAS 完成，并发启动只有一个胜者。
const (
	stateStopped int32 = iota
	stateStarting
	stateRunning
	stateStopping
)

/**
 * EventHandler 监听回调
 *
 * 在捕获线程上同步调用，必须快速返回；
 * 耗时处理应使用通道桥接（ListenChannel）。
 */
type EventHandler func(ev events.Event)

/**
 * GrabHandler 拦截回调
 *
 * 返回事件本身（或改写后的新事件）表示放行，返回 nil 表示消费。
 * 事件是不可变值，改写必须构造新事件而不是修改载荷。
 * 生命周期事件会照常送达，但不可消费。
 */
type GrabHandler func(ev events.Event) *events.Event

// eventSink 会话内部的统一投递函数
type eventSink func(ev events.Event) Decision

/**
 * Option Hook 配置选项
 */
type Option func(*Hook)

// WithClickTolerance 设置点击判定的位移容差（像素）
//
// 默认 0：按下与释放之间出现任何移动观察都不再判定为点击。
func WithClickTolerance(px float64) Option {
	return func(h *Hook) {
		h.clsCfg.clickTolerance = px
	}
}

// WithMultiClickInterval 设置连击计数的时间窗口
func WithMultiClickInterval(d time.Duration) Option {
	return func(h *Hook) {
		h.clsCfg.multiClickInterval = d
	}
}

/**
 * Hook 全局输入捕获运行时
 *
 * 持有平台后端、按键状态 Mask 和事件分类器。
 * 同一实例同一时刻只允许一个会话（监听、拦截或通道桥接）。
 */
type Hook struct {
	backend Backend
	mask    state.Mask
	clsCfg  classifierConfig
	cls     *classifier

	// st 会话状态机
	st atomic.Int32

	// emitted 本会话累计发布的事件数
	emitted atomic.Uint64

	// ignored 降级为监听后被忽略的消费请求数
	ignored atomic.Uint64

	log *zap.Logger
}

/**
 * New 创建 Hook 运行时
 *
 * Parameters:
 *   - backend: 平台捕获后端
 *   - opts: 配置选项
 *
 * Returns: *Hook - 新创建的运行时实例
 */
func New(backend Backend, opts ...Option) *Hook {
	h := &Hook{
		backend: backend,
		log:     logger.With(zap.String("component", "hook")),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.cls = newClassifier(&h.mask, h.clsCfg)
	return h
}

// Run 以监听模式运行会话，阻塞直到 Stop 被调用或后端发生致命错误
//
// 第一个送达的事件是 hook_enabled，最后一个是 hook_disabled。
//
// Returns: error - ErrAlreadyRunning / ErrPermissionDenied /
// ErrBackendUnavailable / ErrBackendFault；正常停止返回 nil
func (h *Hook) Run(handler EventHandler) error {
	if handler == nil {
		handler = func(events.Event) {}
	}
	if err := h.begin(); err != nil {
		return err
	}
	return h.session(func(ev events.Event) Decision {
		handler(ev)
		return Pass
	}, false)
}

// Grab 以拦截模式运行会话，阻塞直到 Stop 被调用或后端发生致命错误
//
// 后端不支持拦截时降级为监听：回调照常执行，
// 消费请求被计数（IgnoredConsumes）并忽略，不作为错误。
func (h *Hook) Grab(handler GrabHandler) error {
	if handler == nil {
		return h.Run(nil)
	}
	if err := h.begin(); err != nil {
		return err
	}
	return h.session(h.grabSink(handler), true)
}

/**
 * Handle 异步会话句柄
 */
type Handle struct {
	hook *Hook
	done chan struct{}
	err  error
}

// Wait 阻塞等待会话结束，返回会话错误
func (hd *Handle) Wait() error {
	<-hd.done
	return hd.err
}

// Stop 停止会话并等待其结束
//
// Returns: error - 会话的最终错误（正常停止为 nil）
func (hd *Handle) Stop() error {
	if err := hd.hook.Stop(); err != nil {
		return err
	}
	return hd.Wait()
}

// RunAsync 在独立 goroutine 中以监听模式运行会话
//
// 启动冲突（ErrAlreadyRunning）同步返回。
func (h *Hook) RunAsync(handler EventHandler) (*Handle, error) {
	if handler == nil {
		handler = func(events.Event) {}
	}
	if err := h.begin(); err != nil {
		return nil, err
	}
	hd := &Handle{hook: h, done: make(chan struct{})}
	go func() {
		hd.err = h.session(func(ev events.Event) Decision {
			handler(ev)
			return Pass
		}, false)
		close(hd.done)
	}()
	return hd, nil
}

// GrabAsync 在独立 goroutine 中以拦截模式运行会话
func (h *Hook) GrabAsync(handler GrabHandler) (*Handle, error) {
	if handler == nil {
		return h.RunAsync(nil)
	}
	if err := h.begin(); err != nil {
		return nil, err
	}
	hd := &Handle{hook: h, done: make(chan struct{})}
	go func() {
		hd.err = h.session(h.grabSink(handler), true)
		close(hd.done)
	}()
	return hd, nil
}

// Stop 协作式停止当前会话
//
// 对已停止的实例是无害的空操作。不等待会话结束，
// 需要等待时使用 Handle.Wait 或阻塞的 Run/Grab 返回。
func (h *Hook) Stop() error {
	if h.st.Load() == stateStopped {
		return nil
	}
	h.st.CompareAndSwap(stateRunning, stateStopping)
	return h.backend.Stop()
}

// IsRunning 当前是否有会话处于运行状态
func (h *Hook) IsRunning() bool {
	return h.st.Load() == stateRunning
}

// MaskValue 当前按键与修饰键状态快照
func (h *Hook) MaskValue() uint32 {
	return h.mask.Value()
}

// EmittedEvents 本会话累计发布的事件数
func (h *Hook) EmittedEvents() uint64 {
	return h.emitted.Load()
}

// IgnoredConsumes 降级会话中被忽略的消费请求数
func (h *Hook) IgnoredConsumes() uint64 {
	return h.ignored.Load()
}

// Simulate 注入一个合成事件
//
// 不要求会话运行中。失败统一包装为 ErrSimulationFailed。
func (h *Hook) Simulate(ev events.Event) error {
	if err := h.backend.Simulate(ev); err != nil {
		if errors.Is(err, ErrSimulationFailed) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrSimulationFailed, err)
	}
	return nil
}

// begin 竞争启动权，败者得到 ErrAlreadyRunning
func (h *Hook) begin() error {
	if !h.st.CompareAndSwap(stateStopped, stateStarting) {
		return ErrAlreadyRunning
	}
	return nil
}

// session 驱动一次完整会话，调用前必须已通过 begin 取得启动权
func (h *Hook) session(sink eventSink, grab bool) error {
	h.mask.Reset()
	h.cls.reset()
	h.emitted.Store(0)
	h.ignored.Store(0)

	grabSupported := h.backend.CanGrab()
	if grab && !grabSupported {
		h.log.Warn("后端不支持事件拦截，降级为仅监听，消费请求将被忽略")
	}

	runErr := h.backend.Run(func(obs Observation) Decision {
		if obs.Kind == ObservationOpened {
			// 捕获通道建立完成，hook_enabled 是会话的第一个事件
			if h.st.CompareAndSwap(stateStarting, stateRunning) {
				h.log.Info("捕获会话已建立")
				h.emit(sink, events.NewHookEnabled(h.mask.Value(), obs.Time))
			}
			return Pass
		}

		evs := h.cls.classify(obs)
		if len(evs) == 0 {
			return Pass
		}

		// 裁决取自观察对应的首个事件；派生事件（字符输入、点击）
		// 跟随投递但不回传裁决
		decision := h.emit(sink, evs[0])
		for _, ev := range evs[1:] {
			h.emit(sink, ev)
		}

		if !grab {
			return Pass
		}
		if decision.Verdict != VerdictPass && !grabSupported {
			h.ignored.Add(1)
			return Pass
		}
		return decision
	})

	// 统一收尾：只要会话建立过，hook_disabled 就是最后一个事件；
	// 之后 Mask 必须归零
	openedOnce := h.st.Load() != stateStarting
	h.st.Store(stateStopping)
	if openedOnce {
		h.emit(sink, events.NewHookDisabled(h.mask.Value(), time.Now()))
		h.log.Info("捕获会话已结束", zap.Uint64("events", h.emitted.Load()))
	}
	h.mask.Reset()
	h.st.Store(stateStopped)

	if runErr != nil {
		if errors.Is(runErr, ErrPermissionDenied) || errors.Is(runErr, ErrBackendUnavailable) {
			return runErr
		}
		return fmt.Errorf("%w: %v", ErrBackendFault, runErr)
	}
	return nil
}

// emit 投递一个事件并返回裁决
func (h *Hook) emit(sink eventSink, ev events.Event) Decision {
	h.emitted.Add(1)
	return sink(ev)
}

// grabSink 将拦截回调包装为统一投递函数
func (h *Hook) grabSink(handler GrabHandler) eventSink {
	return func(ev events.Event) Decision {
		if ev.IsLifecycle() {
			// 生命周期事件照常送达但不可消费
			handler(ev)
			return Pass
		}

		out := handler(ev)
		if out == nil {
			return Decision{Verdict: VerdictConsume}
		}
		if unchanged(ev, *out) {
			return Pass
		}
		return Decision{Verdict: VerdictReplace, Replacement: out}
	}
}

// unchanged 判断拦截回调是否原样放行
//
// 载荷指针相同即认为未改写：事件不可变，改写要求构造新事件。
func unchanged(in, out events.Event) bool {
	return in.Type == out.Type &&
		in.Mask == out.Mask &&
		in.Keyboard == out.Keyboard &&
		in.Mouse == out.Mouse &&
		in.Wheel == out.Wheel
}
