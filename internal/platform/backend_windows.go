//go:build windows

package platform

import (
	"fmt"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/chenyang-zz/inputtap/pkg/events"
	"github.com/chenyang-zz/inputtap/pkg/hook"
)

// Windows 低级钩子相关常量
const (
	whKeyboardLL = 13
	whMouseLL    = 14

	wmQuit = 0x0012

	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105

	wmMouseMove   = 0x0200
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208
	wmMouseWheel  = 0x020A
	wmXButtonDown = 0x020B
	wmXButtonUp   = 0x020C
	wmMouseHWheel = 0x020E

	wheelDelta = 120

	xButton1 = 1
	xButton2 = 2
)

// point POINT 结构
type point struct {
	X int32
	Y int32
}

// kbdllHookStruct KBDLLHOOKSTRUCT 结构
type kbdllHookStruct struct {
	VkCode    uint32
	ScanCode  uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// msllHookStruct MSLLHOOKSTRUCT 结构
type msllHookStruct struct {
	Pt        point
	MouseData uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// msg MSG 结构（消息循环）
type msg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookExW  = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHook  = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx     = user32.NewProc("CallNextHookEx")
	procGetMessageW        = user32.NewProc("GetMessageW")
	procPostThreadMessageW = user32.NewProc("PostThreadMessageW")
	procSendInput          = user32.NewProc("SendInput")
	procGetSystemMetrics   = user32.NewProc("GetSystemMetrics")
)

// WindowsBackend Windows 平台的捕获后端实现
//
// 通过 SetWindowsHookEx 安装 WH_KEYBOARD_LL 和 WH_MOUSE_LL
// 低级钩子捕获全局输入。钩子回调返回非零即吞掉事件，
// 因此天然支持拦截模式。
type WindowsBackend struct {
	// handler 运行时提供的观察处理函数
	handler hook.ObservationHandler
	// isRunning 后端运行状态标志
	isRunning bool
	// threadID 消息循环所在线程，停止时投递 WM_QUIT
	threadID uint32
	// mu 读写锁，保护并发访问
	mu sync.RWMutex
}

// 全局后端实例（用于钩子回调）
var (
	activeWinBackend *WindowsBackend
	winBackendMutex  sync.Mutex
)

// 钩子回调必须是进程生命周期内稳定的函数指针
var (
	keyboardHookProc = windows.NewCallback(lowLevelKeyboardProc)
	mouseHookProc    = windows.NewCallback(lowLevelMouseProc)
)

// New 创建当前平台的捕获后端
//
// Returns: hook.Backend - Windows 实现
func New() hook.Backend {
	return &WindowsBackend{}
}

// currentHandler 取当前活跃后端的处理函数
func currentHandler() hook.ObservationHandler {
	winBackendMutex.Lock()
	b := activeWinBackend
	winBackendMutex.Unlock()
	if b == nil {
		return nil
	}

	b.mu.RLock()
	handler := b.handler
	b.mu.RUnlock()
	return handler
}

// lowLevelKeyboardProc WH_KEYBOARD_LL 钩子回调
//
// 在安装钩子的线程上同步调用；返回 1 表示消费事件。
func lowLevelKeyboardProc(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) >= 0 {
		if handler := currentHandler(); handler != nil {
			kb := (*kbdllHookStruct)(unsafe.Pointer(lParam))

			obs, ok := translateWinKey(wParam, kb)
			if ok && handler(obs).Verdict == hook.VerdictConsume {
				return 1
			}
		}
	}

	ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return ret
}

// translateWinKey 把键盘钩子消息翻译为平台无关的观察
func translateWinKey(wParam uintptr, kb *kbdllHookStruct) (hook.Observation, bool) {
	obs := hook.Observation{
		Time:    time.Now(),
		Key:     keyFromWinVK(kb.VkCode),
		RawCode: kb.VkCode,
	}

	switch wParam {
	case wmKeyDown, wmSysKeyDown:
		obs.Kind = hook.ObservationKeyDown
	case wmKeyUp, wmSysKeyUp:
		obs.Kind = hook.ObservationKeyUp
	default:
		return hook.Observation{}, false
	}
	return obs, true
}

// lowLevelMouseProc WH_MOUSE_LL 钩子回调
func lowLevelMouseProc(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) >= 0 {
		if handler := currentHandler(); handler != nil {
			ms := (*msllHookStruct)(unsafe.Pointer(lParam))

			obs, ok := translateWinMouse(wParam, ms)
			if ok && handler(obs).Verdict == hook.VerdictConsume {
				return 1
			}
		}
	}

	ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return ret
}

// translateWinMouse 把鼠标钩子消息翻译为平台无关的观察
func translateWinMouse(wParam uintptr, ms *msllHookStruct) (hook.Observation, bool) {
	obs := hook.Observation{
		Time: time.Now(),
		X:    float64(ms.Pt.X),
		Y:    float64(ms.Pt.Y),
	}

	switch wParam {
	case wmLButtonDown:
		obs.Kind, obs.Button = hook.ObservationButtonDown, events.ButtonLeft
	case wmLButtonUp:
		obs.Kind, obs.Button = hook.ObservationButtonUp, events.ButtonLeft
	case wmRButtonDown:
		obs.Kind, obs.Button = hook.ObservationButtonDown, events.ButtonRight
	case wmRButtonUp:
		obs.Kind, obs.Button = hook.ObservationButtonUp, events.ButtonRight
	case wmMButtonDown:
		obs.Kind, obs.Button = hook.ObservationButtonDown, events.ButtonMiddle
	case wmMButtonUp:
		obs.Kind, obs.Button = hook.ObservationButtonUp, events.ButtonMiddle
	case wmXButtonDown:
		obs.Kind, obs.Button = hook.ObservationButtonDown, xButtonOf(ms.MouseData)
	case wmXButtonUp:
		obs.Kind, obs.Button = hook.ObservationButtonUp, xButtonOf(ms.MouseData)
	case wmMouseMove:
		// 拖拽与移动的区分交给分类器按按键状态判定
		obs.Kind = hook.ObservationMove
	case wmMouseWheel:
		obs.Kind = hook.ObservationWheel
		obs.WheelDeltaY = float64(int16(ms.MouseData>>16)) / wheelDelta
	case wmMouseHWheel:
		obs.Kind = hook.ObservationWheel
		obs.WheelDeltaX = -float64(int16(ms.MouseData>>16)) / wheelDelta
	default:
		return hook.Observation{}, false
	}

	return obs, true
}

// xButtonOf MouseData 高位字到侧键的转换
func xButtonOf(mouseData uint32) events.Button {
	if mouseData>>16 == xButton2 {
		return events.ButtonFifth
	}
	return events.ButtonFourth
}

// Run 安装低级钩子并阻塞泵送消息循环
//
// 钩子回调由安装线程的消息循环派发，因此整个会话锁定在
// 同一个 OS 线程上。
func (b *WindowsBackend) Run(handler hook.ObservationHandler) error {
	b.mu.Lock()
	if b.isRunning {
		b.mu.Unlock()
		return fmt.Errorf("windows backend already running")
	}
	b.handler = handler
	b.isRunning = true
	b.mu.Unlock()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	kbHook, _, err := procSetWindowsHookExW.Call(whKeyboardLL, keyboardHookProc, 0, 0)
	if kbHook == 0 {
		b.teardown()
		return fmt.Errorf("%w: 安装键盘钩子失败: %v", hook.ErrBackendUnavailable, err)
	}
	mouseHook, _, err := procSetWindowsHookExW.Call(whMouseLL, mouseHookProc, 0, 0)
	if mouseHook == 0 {
		procUnhookWindowsHook.Call(kbHook)
		b.teardown()
		return fmt.Errorf("%w: 安装鼠标钩子失败: %v", hook.ErrBackendUnavailable, err)
	}

	b.mu.Lock()
	b.threadID = windows.GetCurrentThreadId()
	b.mu.Unlock()

	winBackendMutex.Lock()
	activeWinBackend = b
	winBackendMutex.Unlock()

	handler(hook.Observation{Kind: hook.ObservationOpened, Time: time.Now()})

	// 消息循环：低级钩子依赖它派发回调，WM_QUIT 退出
	var m msg
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(ret) <= 0 {
			break
		}
	}

	procUnhookWindowsHook.Call(kbHook)
	procUnhookWindowsHook.Call(mouseHook)

	winBackendMutex.Lock()
	activeWinBackend = nil
	winBackendMutex.Unlock()

	b.teardown()
	return nil
}

// teardown 清理会话状态
func (b *WindowsBackend) teardown() {
	b.mu.Lock()
	b.handler = nil
	b.isRunning = false
	b.threadID = 0
	b.mu.Unlock()
}

// Stop 向消息循环投递 WM_QUIT，幂等
func (b *WindowsBackend) Stop() error {
	b.mu.RLock()
	running := b.isRunning
	threadID := b.threadID
	b.mu.RUnlock()

	if !running || threadID == 0 {
		return nil
	}
	procPostThreadMessageW.Call(uintptr(threadID), wmQuit, 0, 0)
	return nil
}

// CanGrab 低级钩子支持事件消费
func (b *WindowsBackend) CanGrab() bool {
	return true
}

// SendInput 相关常量
const (
	inputKeyboard = 1
	inputMouse    = 0

	keyeventfKeyUp = 0x0002

	mouseeventfMove     = 0x0001
	mouseeventfAbsolute = 0x8000
	mouseeventfLDown    = 0x0002
	mouseeventfLUp      = 0x0004
	mouseeventfRDown    = 0x0008
	mouseeventfRUp      = 0x0010
	mouseeventfMDown    = 0x0020
	mouseeventfMUp      = 0x0040
	mouseeventfXDown    = 0x0080
	mouseeventfXUp      = 0x0100
	mouseeventfWheel    = 0x0800
	mouseeventfHWheel   = 0x1000

	smCxScreen = 0
	smCyScreen = 1
)

// kbdInput INPUT 结构的键盘布局（含对齐填充，总长 40 字节）
type kbdInput struct {
	Typ       uint32
	_         uint32
	WVk       uint16
	WScan     uint16
	DwFlags   uint32
	Time      uint32
	_         uint32
	ExtraInfo uintptr
	_         [8]byte
}

// mouseInput INPUT 结构的鼠标布局（总长 40 字节）
type mouseInput struct {
	Typ       uint32
	_         uint32
	Dx        int32
	Dy        int32
	MouseData uint32
	DwFlags   uint32
	Time      uint32
	_         uint32
	ExtraInfo uintptr
}

// sendKeyInput 注入一个键盘输入
func sendKeyInput(vk uint16, flags uint32) error {
	in := kbdInput{Typ: inputKeyboard, WVk: vk, DwFlags: flags}
	ret, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(&in)), unsafe.Sizeof(in))
	if ret == 0 {
		return fmt.Errorf("SendInput 失败: %v", err)
	}
	return nil
}

// sendMouseInput 注入一个鼠标输入
func sendMouseInput(dx, dy int32, mouseData, flags uint32) error {
	in := mouseInput{Typ: inputMouse, Dx: dx, Dy: dy, MouseData: mouseData, DwFlags: flags}
	ret, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(&in)), unsafe.Sizeof(in))
	if ret == 0 {
		return fmt.Errorf("SendInput 失败: %v", err)
	}
	return nil
}

// absoluteCoords 屏幕坐标到 SendInput 绝对坐标（0-65535）的换算
func absoluteCoords(x, y float64) (int32, int32) {
	w, _, _ := procGetSystemMetrics.Call(smCxScreen)
	h, _, _ := procGetSystemMetrics.Call(smCyScreen)
	if w == 0 || h == 0 {
		return int32(x), int32(y)
	}
	return int32(x * 65535 / float64(w)), int32(y * 65535 / float64(h))
}

// Simulate 通过 SendInput 注入合成事件
func (b *WindowsBackend) Simulate(ev events.Event) error {
	switch ev.Type {
	case events.EventTypeKeyPressed, events.EventTypeKeyReleased:
		if ev.Keyboard == nil {
			return fmt.Errorf("键盘事件缺少载荷")
		}
		vk := ev.Keyboard.RawCode
		if vk == 0 {
			code, ok := winKeyToVK[ev.Keyboard.Key]
			if !ok {
				return fmt.Errorf("无法映射按键: %s", ev.Keyboard.Key)
			}
			vk = code
		}
		var flags uint32
		if ev.Type == events.EventTypeKeyReleased {
			flags = keyeventfKeyUp
		}
		return sendKeyInput(uint16(vk), flags)

	case events.EventTypeMousePressed, events.EventTypeMouseReleased,
		events.EventTypeMouseClicked:
		if ev.Mouse == nil {
			return fmt.Errorf("鼠标事件缺少载荷")
		}
		return b.simulateButton(ev)

	case events.EventTypeMouseMoved, events.EventTypeMouseDragged:
		if ev.Mouse == nil {
			return fmt.Errorf("鼠标事件缺少载荷")
		}
		dx, dy := absoluteCoords(ev.Mouse.X, ev.Mouse.Y)
		return sendMouseInput(dx, dy, 0, mouseeventfMove|mouseeventfAbsolute)

	case events.EventTypeMouseWheel:
		if ev.Wheel == nil {
			return fmt.Errorf("滚轮事件缺少载荷")
		}
		switch ev.Wheel.Direction {
		case events.ScrollUp:
			return sendMouseInput(0, 0, uint32(int32(ev.Wheel.Delta*wheelDelta)), mouseeventfWheel)
		case events.ScrollDown:
			return sendMouseInput(0, 0, uint32(-int32(ev.Wheel.Delta*wheelDelta)), mouseeventfWheel)
		case events.ScrollLeft:
			return sendMouseInput(0, 0, uint32(-int32(ev.Wheel.Delta*wheelDelta)), mouseeventfHWheel)
		case events.ScrollRight:
			return sendMouseInput(0, 0, uint32(int32(ev.Wheel.Delta*wheelDelta)), mouseeventfHWheel)
		}
		return fmt.Errorf("未知滚轮方向: %s", ev.Wheel.Direction)
	}

	return fmt.Errorf("不支持注入的事件类型: %s", ev.Type)
}

// simulateButton 注入鼠标按键事件；mouse_clicked 展开为按下+释放
func (b *WindowsBackend) simulateButton(ev events.Event) error {
	down, up, mouseData, err := winButtonFlags(ev.Mouse.Button)
	if err != nil {
		return err
	}

	switch ev.Type {
	case events.EventTypeMousePressed:
		return sendMouseInput(0, 0, mouseData, down)
	case events.EventTypeMouseReleased:
		return sendMouseInput(0, 0, mouseData, up)
	default: // mouse_clicked
		if err := sendMouseInput(0, 0, mouseData, down); err != nil {
			return err
		}
		return sendMouseInput(0, 0, mouseData, up)
	}
}

// winButtonFlags 归一化按键到 SendInput 标志的映射
func winButtonFlags(button events.Button) (down, up, mouseData uint32, err error) {
	switch button {
	case events.ButtonLeft:
		return mouseeventfLDown, mouseeventfLUp, 0, nil
	case events.ButtonRight:
		return mouseeventfRDown, mouseeventfRUp, 0, nil
	case events.ButtonMiddle:
		return mouseeventfMDown, mouseeventfMUp, 0, nil
	case events.ButtonFourth:
		return mouseeventfXDown, mouseeventfXUp, xButton1, nil
	case events.ButtonFifth:
		return mouseeventfXDown, mouseeventfXUp, xButton2, nil
	}
	return 0, 0, 0, fmt.Errorf("无法映射鼠标按键: %s", button)
}
