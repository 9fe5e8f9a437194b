/**
 * Package hook 提供全局输入捕获的运行时
 *
 * 运行时驱动平台后端产生的原始观察流，经分类器归一化为
 * events.Event 后交给回调、拦截处理器或通道消费者。
 * 单个 Hook 实例同一时刻只允许一个会话。
 */

package hook

import (
	"time"

	"github.com/chenyang-zz/inputtap/pkg/events"
)

/**
 * ObservationKind 原始观察类型
 */
type ObservationKind int

const (
	// ObservationOpened 捕获通道建立完成，每个会话恰好上报一次，
	// 且先于任何输入观察
	ObservationOpened ObservationKind = iota

	// ObservationKeyDown 按键按下
	ObservationKeyDown

	// ObservationKeyUp 按键释放
	ObservationKeyUp

	// ObservationButtonDown 鼠标按键按下
	ObservationButtonDown

	// ObservationButtonUp 鼠标按键释放
	ObservationButtonUp

	// ObservationMove 鼠标移动（后端未判定拖拽）
	ObservationMove

	// ObservationDrag 鼠标拖拽（后端已判定，如 macOS 原生 dragged 事件）
	ObservationDrag

	// ObservationWheel 滚轮滚动
	ObservationWheel

	// ObservationModifiers 修饰键状态整体变更（如 macOS flagsChanged）
	ObservationModifiers
)

/**
 * Observation 平台后端上报的原始观察
 *
 * 字段按 Kind 选用；Time 必须单调不减。
 */
type Observation struct {
	// Kind 观察类型
	Kind ObservationKind

	// Time 观察发生时间（单调不减）
	Time time.Time

	// Key 归一化按键（键盘观察）
	Key events.Key

	// RawCode 平台原始键码（键盘观察）
	RawCode uint32

	// Char 产生的字符，0 表示无（键盘观察）
	Char rune

	// Repeat 是否为按住重复（键盘观察）
	Repeat bool

	// Button 鼠标按键（按键观察）
	Button events.Button

	// X, Y 屏幕坐标（鼠标观察）
	X float64
	Y float64

	// WheelDeltaX, WheelDeltaY 滚轮滚动量（滚轮观察）
	WheelDeltaX float64
	WheelDeltaY float64

	// Modifiers 新的修饰键位组合（仅 ObservationModifiers，
	// 使用 pkg/state 的位定义）
	Modifiers uint32
}

/**
 * Verdict 拦截裁决
 */
type Verdict int

const (
	// VerdictPass 放行，事件按原样继续投递给系统
	VerdictPass Verdict = iota

	// VerdictConsume 消费，系统不再投递该事件
	VerdictConsume

	// VerdictReplace 替换，以 Replacement 中的事件继续投递
	VerdictReplace
)

/**
 * Decision 拦截处理结果
 *
 * 监听会话固定返回 Pass；拦截会话的裁决由后端同步执行。
 * 后端对无法改写的事件类别按原样放行。
 */
type Decision struct {
	// Verdict 裁决
	Verdict Verdict

	// Replacement 替换事件（仅 VerdictReplace）
	Replacement *events.Event
}

// Pass 放行裁决的便捷值
var Pass = Decision{Verdict: VerdictPass}

/**
 * ObservationHandler 观察处理函数
 *
 * 由运行时提供给后端，在 OS 回调线程上同步调用。
 * 返回的裁决只在拦截会话中生效。
 */
type ObservationHandler func(obs Observation) Decision

/**
 * Backend 平台捕获后端接口
 *
 * 每个操作系统各有一个实现（internal/platform），
 * 测试使用脚本化的假后端。
 */
type Backend interface {
	// Run 建立捕获通道并阻塞泵送观察，直到 Stop 被调用或发生致命错误。
	// 建立成功后必须先上报一次 ObservationOpened。
	// 建立失败时返回包装了 ErrPermissionDenied 或 ErrBackendUnavailable 的错误。
	Run(handler ObservationHandler) error

	// Stop 协作式停止捕获，幂等，可从任意 goroutine 调用
	Stop() error

	// CanGrab 是否支持拦截（消费/改写事件）
	CanGrab() bool

	// Simulate 注入一个合成事件
	Simulate(ev events.Event) error
}
