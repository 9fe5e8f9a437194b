/**
 * Package hotkey 提供全局热键注册与匹配
 *
 * 消费者把捕获到的事件流喂给 Manager.Feed，按下事件与
 * 已注册组合匹配时触发回调。组合以 "ctrl+shift+a" 形式
 * 描述，修饰键基于事件的 Mask 快照做精确匹配。
 */

package hotkey

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chenyang-zz/inputtap/pkg/events"
	"github.com/chenyang-zz/inputtap/pkg/logger"
	"github.com/chenyang-zz/inputtap/pkg/state"
)

// ErrInvalidCombo 热键组合解析失败
var ErrInvalidCombo = errors.New("hotkey: invalid combo")

// ErrDuplicateCombo 组合已被注册
var ErrDuplicateCombo = errors.New("hotkey: combo already registered")

/**
 * Hotkey 一个已解析的热键组合
 */
type Hotkey struct {
	// Key 主键
	Key events.Key

	// Modifiers 要求的修饰键位组合（state.Mask* 位）
	Modifiers uint32
}

// modifierNames 组合描述中的修饰键别名
var modifierNames = map[string]uint32{
	"shift":   state.MaskShift,
	"ctrl":    state.MaskCtrl,
	"control": state.MaskCtrl,
	"alt":     state.MaskAlt,
	"option":  state.MaskAlt,
	"meta":    state.MaskMeta,
	"cmd":     state.MaskMeta,
	"win":     state.MaskMeta,
	"super":   state.MaskMeta,
}

/**
 * Parse 解析 "ctrl+shift+a" 形式的组合描述
 *
 * 大小写不敏感；最后一段是主键，其余是修饰键。
 * 主键使用 events.Key 的命名（如 "a"、"f5"、"space"）。
 *
 * Returns: Hotkey - 解析结果, error - ErrInvalidCombo
 */
func Parse(combo string) (Hotkey, error) {
	parts := strings.Split(combo, "+")
	if len(parts) == 0 {
		return Hotkey{}, fmt.Errorf("%w: %q", ErrInvalidCombo, combo)
	}

	var hk Hotkey
	for i, part := range parts {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			return Hotkey{}, fmt.Errorf("%w: %q", ErrInvalidCombo, combo)
		}

		if i < len(parts)-1 {
			bit, ok := modifierNames[part]
			if !ok {
				return Hotkey{}, fmt.Errorf("%w: 未知修饰键 %q", ErrInvalidCombo, part)
			}
			hk.Modifiers |= bit
			continue
		}

		key := events.Key(part)
		if key.IsModifier() || key == events.KeyUnidentified {
			return Hotkey{}, fmt.Errorf("%w: %q 不能作为主键", ErrInvalidCombo, part)
		}
		hk.Key = key
	}

	if hk.Key == "" {
		return Hotkey{}, fmt.Errorf("%w: %q", ErrInvalidCombo, combo)
	}
	return hk, nil
}

/**
 * String 规范化的组合描述
 */
func (hk Hotkey) String() string {
	var parts []string
	ordered := []struct {
		bit  uint32
		name string
	}{
		{state.MaskCtrl, "ctrl"},
		{state.MaskShift, "shift"},
		{state.MaskAlt, "alt"},
		{state.MaskMeta, "meta"},
	}
	for _, m := range ordered {
		if hk.Modifiers&m.bit != 0 {
			parts = append(parts, m.name)
		}
	}
	parts = append(parts, string(hk.Key))
	return strings.Join(parts, "+")
}

/**
 * Registration 一条热键注册
 */
type Registration struct {
	// ID 注册唯一标识符
	ID string

	// Hotkey 热键组合
	Hotkey Hotkey

	// Callback 触发回调
	Callback func()

	// Enabled 是否启用
	Enabled bool
}

// lookupKey 快速匹配表的键
type lookupKey struct {
	key       events.Key
	modifiers uint32
}

/**
 * Manager 热键管理器
 *
 * 注册表用读写锁保护；Feed 在事件消费路径上调用，
 * 只做一次 map 查找。回调在独立 goroutine 中执行并
 * 带 panic 恢复，不会阻塞或破坏事件流。
 */
type Manager struct {
	mu sync.RWMutex

	// registrations 按注册 ID 索引
	registrations map[string]*Registration

	// lookup (主键, 修饰键位) 到注册的快速匹配表
	lookup map[lookupKey][]*Registration
}

/**
 * NewManager 创建热键管理器
 */
func NewManager() *Manager {
	return &Manager{
		registrations: make(map[string]*Registration),
		lookup:        make(map[lookupKey][]*Registration),
	}
}

/**
 * Register 注册一个热键
 *
 * 同一组合允许多条注册，回调各自独立触发。
 *
 * Parameters:
 *   - combo: 组合描述，如 "ctrl+shift+a"
 *   - callback: 触发回调
 *
 * Returns: string - 注册 ID, error - ErrInvalidCombo
 */
func (m *Manager) Register(combo string, callback func()) (string, error) {
	hk, err := Parse(combo)
	if err != nil {
		return "", err
	}
	if callback == nil {
		return "", fmt.Errorf("%w: 回调不能为空", ErrInvalidCombo)
	}

	reg := &Registration{
		ID:       uuid.New().String(),
		Hotkey:   hk,
		Callback: callback,
		Enabled:  true,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.registrations[reg.ID] = reg
	lk := lookupKey{key: hk.Key, modifiers: hk.Modifiers}
	m.lookup[lk] = append(m.lookup[lk], reg)

	logger.Info("注册热键",
		zap.String("id", reg.ID),
		zap.String("combo", hk.String()),
	)
	return reg.ID, nil
}

/**
 * Unregister 注销一个热键
 *
 * Returns: bool - 注册是否存在
 */
func (m *Manager) Unregister(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg, ok := m.registrations[id]
	if !ok {
		return false
	}
	delete(m.registrations, id)

	lk := lookupKey{key: reg.Hotkey.Key, modifiers: reg.Hotkey.Modifiers}
	regs := m.lookup[lk]
	for i, r := range regs {
		if r.ID == id {
			m.lookup[lk] = append(regs[:i], regs[i+1:]...)
			break
		}
	}
	if len(m.lookup[lk]) == 0 {
		delete(m.lookup, lk)
	}

	logger.Info("注销热键",
		zap.String("id", id),
		zap.String("combo", reg.Hotkey.String()),
	)
	return true
}

/**
 * UnregisterAll 注销全部热键
 */
func (m *Manager) UnregisterAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.registrations = make(map[string]*Registration)
	m.lookup = make(map[lookupKey][]*Registration)
}

/**
 * SetEnabled 启用或禁用一条注册
 *
 * Returns: bool - 注册是否存在
 */
func (m *Manager) SetEnabled(id string, enabled bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg, ok := m.registrations[id]
	if !ok {
		return false
	}
	reg.Enabled = enabled
	return true
}

/**
 * IsRegistered 组合是否已有注册
 */
func (m *Manager) IsRegistered(combo string) bool {
	hk, err := Parse(combo)
	if err != nil {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.lookup[lookupKey{key: hk.Key, modifiers: hk.Modifiers}]) > 0
}

/**
 * Combos 当前已注册的组合列表（去重、排序）
 */
func (m *Manager) Combos() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var combos []string
	for _, reg := range m.registrations {
		s := reg.Hotkey.String()
		if !seen[s] {
			seen[s] = true
			combos = append(combos, s)
		}
	}
	sort.Strings(combos)
	return combos
}

/**
 * Feed 喂入一个事件并尝试匹配
 *
 * 只有 key_pressed（非重复）参与匹配；修饰键按事件 Mask
 * 快照精确比较，锁定键位不参与。匹配到的回调在独立
 * goroutine 中执行。
 *
 * Returns: bool - 是否命中至少一条启用的注册
 */
func (m *Manager) Feed(ev events.Event) bool {
	if ev.Type != events.EventTypeKeyPressed || ev.Keyboard == nil || ev.Keyboard.Repeat {
		return false
	}

	// 锁定键状态不影响组合匹配
	activeMods := ev.Mask & (state.MaskShift | state.MaskCtrl | state.MaskAlt | state.MaskMeta)

	m.mu.RLock()
	regs := m.lookup[lookupKey{key: ev.Keyboard.Key, modifiers: activeMods}]
	var fired []*Registration
	for _, reg := range regs {
		if reg.Enabled {
			fired = append(fired, reg)
		}
	}
	m.mu.RUnlock()

	for _, reg := range fired {
		go m.invoke(reg)
	}
	return len(fired) > 0
}

// invoke 执行回调，panic 不得影响事件流
func (m *Manager) invoke(reg *Registration) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("热键回调 panic",
				zap.String("id", reg.ID),
				zap.String("combo", reg.Hotkey.String()),
				zap.Any("panic", r),
			)
		}
	}()
	reg.Callback()
}
