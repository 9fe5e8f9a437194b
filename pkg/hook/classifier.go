package hook

import (
	"math"
	"time"

	"github.com/chenyang-zz/inputtap/pkg/events"
	"github.com/chenyang-zz/inputtap/pkg/state"
)

// multiClickSlop 连击判定允许的最大位移（像素）
const multiClickSlop = 8.0

// defaultMultiClickInterval 连击判定的默认时间窗口
const defaultMultiClickInterval = 500 * time.Millisecond

/**
 * classifierConfig 分类器配置
 */
type classifierConfig struct {
	// clickTolerance 点击判定允许的最大位移。
	// 0 表示按下与释放之间出现任何移动观察都取消点击判定。
	clickTolerance float64

	// multiClickInterval 连击计数的时间窗口
	multiClickInterval time.Duration
}

// pendingClick 按下后尚未释放的按键的点击追踪
type pendingClick struct {
	x, y    float64
	moved   bool
	maxDisp float64
	clicks  int
}

// lastClick 上一次点击完成的位置与时间，用于连击计数
type lastClick struct {
	at     time.Time
	x, y   float64
	clicks int
}

/**
 * classifier 事件分类器
 *
 * 将原始观察结合当前 Mask 归一化为零个或多个事件。
 * 只在捕获回调线程上调用，内部状态无需加锁。
 *
 * 核心规则：移动观察在任意鼠标按键按下时归类为 mouse_dragged，
 * 否则归类为 mouse_moved；后端已判定的拖拽观察保持 dragged。
 */
type classifier struct {
	cfg  classifierConfig
	mask *state.Mask

	// pending 每个按键按下后的点击追踪
	pending map[events.Button]*pendingClick

	// last 每个按键最近一次点击，用于连击计数
	last map[events.Button]lastClick
}

func newClassifier(mask *state.Mask, cfg classifierConfig) *classifier {
	if cfg.multiClickInterval <= 0 {
		cfg.multiClickInterval = defaultMultiClickInterval
	}
	return &classifier{
		cfg:     cfg,
		mask:    mask,
		pending: make(map[events.Button]*pendingClick),
		last:    make(map[events.Button]lastClick),
	}
}

// reset 清空跨事件状态，会话启动时调用
func (c *classifier) reset() {
	c.pending = make(map[events.Button]*pendingClick)
	c.last = make(map[events.Button]lastClick)
}

// buttonBit 鼠标按键到 Mask 标志位的映射
func buttonBit(b events.Button) uint32 {
	switch b {
	case events.ButtonLeft:
		return state.MaskButton1
	case events.ButtonRight:
		return state.MaskButton2
	case events.ButtonMiddle:
		return state.MaskButton3
	case events.ButtonFourth:
		return state.MaskButton4
	case events.ButtonFifth:
		return state.MaskButton5
	}
	return 0
}

// modifierBit 修饰键到 Mask 标志位的映射，非修饰键返回 0
func modifierBit(k events.Key) uint32 {
	switch k {
	case events.KeyShiftLeft, events.KeyShiftRight:
		return state.MaskShift
	case events.KeyControlLeft, events.KeyControlRight:
		return state.MaskCtrl
	case events.KeyAltLeft, events.KeyAltRight:
		return state.MaskAlt
	case events.KeyMetaLeft, events.KeyMetaRight:
		return state.MaskMeta
	case events.KeyCapsLock:
		return state.MaskCapsLock
	case events.KeyNumLock:
		return state.MaskNumLock
	case events.KeyScrollLock:
		return state.MaskScrollLock
	}
	return 0
}

/**
 * classify 将一个原始观察归一化为零个或多个事件
 *
 * Mask 更新顺序：按下类更新先于事件构造（事件快照含新状态），
 * 释放类更新后于事件构造（释放事件仍能看到被释放的位）。
 *
 * 一个观察可能产生多个事件（按下+字符输入、释放+点击），
 * 产生顺序即投递顺序。
 */
func (c *classifier) classify(obs Observation) []events.Event {
	switch obs.Kind {
	case ObservationKeyDown:
		return c.classifyKeyDown(obs)
	case ObservationKeyUp:
		return c.classifyKeyUp(obs)
	case ObservationButtonDown:
		return c.classifyButtonDown(obs)
	case ObservationButtonUp:
		return c.classifyButtonUp(obs)
	case ObservationMove, ObservationDrag:
		return c.classifyMove(obs)
	case ObservationWheel:
		return c.classifyWheel(obs)
	case ObservationModifiers:
		return c.classifyModifiers(obs)
	}
	return nil
}

func (c *classifier) classifyKeyDown(obs Observation) []events.Event {
	key := obs.Key
	if key == "" {
		// 映射不到的键码不丢弃，归为 unidentified
		key = events.KeyUnidentified
	}

	if bit := modifierBit(key); bit != 0 && !obs.Repeat {
		c.mask.Set(bit)
	}

	evs := []events.Event{
		events.NewKeyPressed(c.mask.Value(), obs.Time, key, obs.RawCode, obs.Repeat),
	}
	if obs.Char != 0 {
		evs = append(evs, events.NewKeyTyped(c.mask.Value(), obs.Time, key, obs.RawCode, obs.Char))
	}
	return evs
}

func (c *classifier) classifyKeyUp(obs Observation) []events.Event {
	key := obs.Key
	if key == "" {
		key = events.KeyUnidentified
	}

	ev := events.NewKeyReleased(c.mask.Value(), obs.Time, key, obs.RawCode)

	if bit := modifierBit(key); bit != 0 {
		c.mask.Clear(bit)
	}
	return []events.Event{ev}
}

func (c *classifier) classifyButtonDown(obs Observation) []events.Event {
	clicks := 1
	if prev, ok := c.last[obs.Button]; ok {
		if obs.Time.Sub(prev.at) <= c.cfg.multiClickInterval &&
			dist(obs.X, obs.Y, prev.x, prev.y) <= multiClickSlop {
			clicks = prev.clicks + 1
		}
	}

	c.mask.Set(buttonBit(obs.Button))
	c.pending[obs.Button] = &pendingClick{x: obs.X, y: obs.Y, clicks: clicks}

	return []events.Event{
		events.NewMousePressed(c.mask.Value(), obs.Time, obs.Button, obs.X, obs.Y, clicks),
	}
}

func (c *classifier) classifyButtonUp(obs Observation) []events.Event {
	p := c.pending[obs.Button]
	delete(c.pending, obs.Button)

	clicks := 1
	if p != nil {
		clicks = p.clicks
	}

	// 释放事件的快照仍包含即将清除的按键位
	evs := []events.Event{
		events.NewMouseReleased(c.mask.Value(), obs.Time, obs.Button, obs.X, obs.Y, clicks),
	}
	c.mask.Clear(buttonBit(obs.Button))

	if p != nil && c.isClick(p) {
		evs = append(evs,
			events.NewMouseClicked(c.mask.Value(), obs.Time, obs.Button, obs.X, obs.Y, clicks))
		c.last[obs.Button] = lastClick{at: obs.Time, x: obs.X, y: obs.Y, clicks: clicks}
	} else {
		delete(c.last, obs.Button)
	}
	return evs
}

// isClick 按下-释放是否构成一次点击
//
// 容差为 0 时任何中间移动观察都取消点击；
// 容差为正时只要求累计位移不超过容差。
func (c *classifier) isClick(p *pendingClick) bool {
	if !p.moved {
		return true
	}
	return c.cfg.clickTolerance > 0 && p.maxDisp <= c.cfg.clickTolerance
}

func (c *classifier) classifyMove(obs Observation) []events.Event {
	for _, p := range c.pending {
		p.moved = true
		if d := dist(obs.X, obs.Y, p.x, p.y); d > p.maxDisp {
			p.maxDisp = d
		}
	}

	if obs.Kind == ObservationDrag || c.mask.AnyButtonHeld() {
		return []events.Event{events.NewMouseDragged(c.mask.Value(), obs.Time, obs.X, obs.Y)}
	}
	return []events.Event{events.NewMouseMoved(c.mask.Value(), obs.Time, obs.X, obs.Y)}
}

func (c *classifier) classifyWheel(obs Observation) []events.Event {
	var direction events.ScrollDirection
	var delta float64

	// 纵向优先，横向其次
	if math.Abs(obs.WheelDeltaY) >= math.Abs(obs.WheelDeltaX) {
		delta = math.Abs(obs.WheelDeltaY)
		if obs.WheelDeltaY >= 0 {
			direction = events.ScrollUp
		} else {
			direction = events.ScrollDown
		}
	} else {
		delta = math.Abs(obs.WheelDeltaX)
		if obs.WheelDeltaX >= 0 {
			direction = events.ScrollLeft
		} else {
			direction = events.ScrollRight
		}
	}

	return []events.Event{
		events.NewMouseWheel(c.mask.Value(), obs.Time, direction, delta, obs.X, obs.Y),
	}
}

// classifyModifiers 处理修饰键状态的整体变更
//
// 对比新旧修饰键位，为每个变化的位合成一个按下或释放事件，
// 鼠标按键位保持不变。
func (c *classifier) classifyModifiers(obs Observation) []events.Event {
	old := c.mask.Value() & state.MaskAllModifiers
	next := obs.Modifiers & state.MaskAllModifiers
	if old == next {
		return nil
	}

	c.mask.SetModifiers(next)

	var evs []events.Event
	for _, m := range modifierOrder {
		changed := (old ^ next) & m.bit
		if changed == 0 {
			continue
		}
		key := obs.Key
		if key == "" || modifierBit(key) != m.bit {
			key = m.key
		}
		if next&m.bit != 0 {
			evs = append(evs, events.NewKeyPressed(c.mask.Value(), obs.Time, key, obs.RawCode, false))
		} else {
			evs = append(evs, events.NewKeyReleased(c.mask.Value(), obs.Time, key, obs.RawCode))
		}
	}
	return evs
}

// modifierOrder 修饰键位到代表按键的固定顺序映射
var modifierOrder = []struct {
	bit uint32
	key events.Key
}{
	{state.MaskShift, events.KeyShiftLeft},
	{state.MaskCtrl, events.KeyControlLeft},
	{state.MaskAlt, events.KeyAltLeft},
	{state.MaskMeta, events.KeyMetaLeft},
	{state.MaskCapsLock, events.KeyCapsLock},
	{state.MaskNumLock, events.KeyNumLock},
	{state.MaskScrollLock, events.KeyScrollLock},
}

func dist(x1, y1, x2, y2 float64) float64 {
	dx := x1 - x2
	dy := y1 - y2
	return math.Sqrt(dx*dx + dy*dy)
}
