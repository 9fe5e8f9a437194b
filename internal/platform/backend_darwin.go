//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework Cocoa

#include <CoreFoundation/CoreFoundation.h>
#include <CoreGraphics/CoreGraphics.h>
#include <Cocoa/Cocoa.h>

// goTapOpened Go 层的会话建立通知声明
// 捕获通道建立完成、run loop 即将进入时由 C 层调用一次
void goTapOpened(void);

// goTapObservation Go 层的观察回调声明
// 此函数由 C 层调用，将输入事件同步传递到 Go 层
// Returns: 1 表示消费该事件（仅拦截 tap 生效），0 表示放行
int goTapObservation(int type, unsigned int keycode, unsigned long long flags,
                     int button, double x, double y, double dx, double dy,
                     int repeat, unsigned int chr);

// gTap 当前活跃的 event tap（超时重启与销毁需要）
static CFMachPortRef gTap = NULL;

// gRunLoop 捕获线程的 run loop（跨线程停止需要）
static CFRunLoopRef gRunLoop = NULL;

// tapCallback CGEventTap 回调函数（static 避免符号冲突）
// 把每个事件的关键字段取出后同步转交 Go 层裁决。
// 返回 NULL 表示消费事件，返回原事件表示放行。
static CGEventRef tapCallback(CGEventTapProxy proxy, CGEventType type,
                              CGEventRef event, void *refcon) {
    // 回调超时或被系统禁用时重新启用 tap，避免会话悄然失效
    if (type == kCGEventTapDisabledByTimeout || type == kCGEventTapDisabledByUserInput) {
        if (gTap != NULL) {
            CGEventTapEnable(gTap, true);
        }
        return event;
    }

    unsigned int keycode = 0;
    int repeat = 0;
    unsigned int chr = 0;
    if (type == kCGEventKeyDown || type == kCGEventKeyUp || type == kCGEventFlagsChanged) {
        keycode = (unsigned int)CGEventGetIntegerValueField(event, kCGKeyboardEventKeycode);
        repeat = (int)CGEventGetIntegerValueField(event, kCGKeyboardEventAutorepeat);

        // 仅按下事件提取产生的字符
        if (type == kCGEventKeyDown) {
            UniChar buf[4];
            UniCharCount len = 0;
            CGEventKeyboardGetUnicodeString(event, 4, &len, buf);
            if (len > 0) {
                chr = (unsigned int)buf[0];
            }
        }
    }

    CGEventFlags flags = CGEventGetFlags(event);
    int button = (int)CGEventGetIntegerValueField(event, kCGMouseEventButtonNumber);
    CGPoint loc = CGEventGetLocation(event);

    double dx = 0, dy = 0;
    if (type == kCGEventScrollWheel) {
        dy = (double)CGEventGetIntegerValueField(event, kCGScrollWheelEventPointDeltaAxis1);
        dx = (double)CGEventGetIntegerValueField(event, kCGScrollWheelEventPointDeltaAxis2);
    }

    int verdict = goTapObservation((int)type, keycode, (unsigned long long)flags,
                                   button, loc.x, loc.y, dx, dy, repeat, chr);
    if (verdict == 1) {
        return NULL;
    }
    return event;
}

// runEventTap 创建 event tap 并阻塞泵送事件（static 避免符号冲突）
// tap 以可拦截方式创建，监听会话由 Go 层固定放行。
// 阻塞在 CFRunLoopRun，直到 stopEventTap 被调用。
// Returns: 0=正常结束, -1=tap 创建失败
static int runEventTap(void) {
    CGEventMask mask =
        (1 << kCGEventKeyDown) | (1 << kCGEventKeyUp) | (1 << kCGEventFlagsChanged) |
        (1 << kCGEventLeftMouseDown) | (1 << kCGEventLeftMouseUp) |
        (1 << kCGEventRightMouseDown) | (1 << kCGEventRightMouseUp) |
        (1 << kCGEventOtherMouseDown) | (1 << kCGEventOtherMouseUp) |
        (1 << kCGEventMouseMoved) |
        (1 << kCGEventLeftMouseDragged) | (1 << kCGEventRightMouseDragged) |
        (1 << kCGEventOtherMouseDragged) |
        (1 << kCGEventScrollWheel);

    CFMachPortRef tap = CGEventTapCreate(
        kCGSessionEventTap,
        kCGHeadInsertEventTap,
        kCGEventTapOptionDefault,
        mask,
        tapCallback,
        NULL
    );

    if (tap == NULL) {
        return -1;
    }

    gTap = tap;
    CGEventTapEnable(tap, true);

    CFRunLoopSourceRef src = CFMachPortCreateRunLoopSource(NULL, tap, 0);
    gRunLoop = CFRunLoopGetCurrent();
    CFRunLoopAddSource(gRunLoop, src, kCFRunLoopCommonModes);
    CFRelease(src);

    goTapOpened();

    CFRunLoopRun();

    CGEventTapEnable(tap, false);
    CFRelease(tap);
    gTap = NULL;
    gRunLoop = NULL;
    return 0;
}

// stopEventTap 停止捕获 run loop（static 避免符号冲突）
// CFRunLoopStop 是线程安全的，可从任意线程调用。
static void stopEventTap() {
    if (gRunLoop != NULL) {
        CFRunLoopStop(gRunLoop);
    }
}

// postKeyEvent 注入键盘事件（static 避免符号冲突）
static void postKeyEvent(unsigned int keycode, int down) {
    CGEventRef e = CGEventCreateKeyboardEvent(NULL, (CGKeyCode)keycode, down != 0);
    CGEventPost(kCGHIDEventTap, e);
    CFRelease(e);
}

// postMouseEvent 注入鼠标事件（static 避免符号冲突）
static void postMouseEvent(int type, double x, double y, int button, int clicks) {
    CGEventRef e = CGEventCreateMouseEvent(NULL, (CGEventType)type,
                                           CGPointMake(x, y), (CGMouseButton)button);
    if (clicks > 0) {
        CGEventSetIntegerValueField(e, kCGMouseEventClickState, clicks);
    }
    CGEventPost(kCGHIDEventTap, e);
    CFRelease(e);
}

// postWheelEvent 注入滚轮事件（static 避免符号冲突）
static void postWheelEvent(int dy, int dx) {
    CGEventRef e = CGEventCreateScrollWheelEvent(NULL, kCGScrollEventUnitPixel, 2, dy, dx);
    CGEventPost(kCGHIDEventTap, e);
    CFRelease(e);
}
*/
import "C"
import (
	"fmt"
	"sync"
	"time"

	"github.com/chenyang-zz/inputtap/pkg/events"
	"github.com/chenyang-zz/inputtap/pkg/hook"
	"github.com/chenyang-zz/inputtap/pkg/state"
)

// DarwinBackend macOS 平台的捕获后端实现
//
// 使用 Core Graphics Event Tap 捕获系统级键盘和鼠标事件。
// 需要用户在系统设置中授予辅助功能权限才能创建 tap。
// 拦截模式下 tap 回调返回 NULL 即消费事件。
type DarwinBackend struct {
	// handler 运行时提供的观察处理函数
	handler hook.ObservationHandler
	// isRunning 后端运行状态标志
	isRunning bool
	// mu 读写锁，保护并发访问
	mu sync.RWMutex
	// permissions 权限探测器，用于区分权限拒绝与其他失败
	permissions PermissionChecker
}

// 全局后端实例（用于 C 回调）
//
// C 函数无法直接调用 Go 方法，需要维护一个全局实例引用。
// backendMutex 用于保护此全局变量的并发访问。
var (
	activeBackend *DarwinBackend
	backendMutex  sync.Mutex
)

// New 创建当前平台的捕获后端
//
// Returns: hook.Backend - macOS 实现
func New() hook.Backend {
	return &DarwinBackend{
		permissions: NewPermissionChecker(),
	}
}

//export goTapOpened
// goTapOpened C 到 Go 的会话建立通知
//
// tap 创建成功、run loop 即将进入时由 C 层调用，
// 在任何输入观察之前恰好上报一次 ObservationOpened。
func goTapOpened() {
	backendMutex.Lock()
	b := activeBackend
	backendMutex.Unlock()
	if b == nil {
		return
	}

	b.mu.RLock()
	handler := b.handler
	b.mu.RUnlock()
	if handler != nil {
		handler(hook.Observation{Kind: hook.ObservationOpened, Time: time.Now()})
	}
}

//export goTapObservation
// goTapObservation C 到 Go 的观察桥接函数
//
// 在 tap 回调线程上同步调用：拦截裁决必须在返回前得出，
// 不能像异步监控那样转交 goroutine。
// Returns: 1 表示消费该事件，0 表示放行
func goTapObservation(eventType C.int, keycode C.uint, flags C.ulonglong,
	button C.int, x, y, dx, dy C.double, repeat, chr C.uint) C.int {
	backendMutex.Lock()
	b := activeBackend
	backendMutex.Unlock()
	if b == nil {
		return 0
	}

	b.mu.RLock()
	handler := b.handler
	b.mu.RUnlock()
	if handler == nil {
		return 0
	}

	obs, ok := translateDarwinEvent(int(eventType), uint32(keycode), uint64(flags),
		int(button), float64(x), float64(y), float64(dx), float64(dy),
		repeat != 0, rune(chr))
	if !ok {
		return 0
	}

	// 监听会话的运行时固定返回放行，消费裁决只出现在拦截会话
	decision := handler(obs)
	if decision.Verdict == hook.VerdictConsume {
		return 1
	}
	// VerdictReplace：tap 无法原位改写事件，按契约放行原事件
	return 0
}

// translateDarwinEvent 把 CGEvent 字段翻译为平台无关的观察
func translateDarwinEvent(eventType int, keycode uint32, flags uint64,
	button int, x, y, dx, dy float64, repeat bool, chr rune) (hook.Observation, bool) {
	obs := hook.Observation{Time: time.Now(), X: x, Y: y}

	switch C.CGEventType(eventType) {
	case C.kCGEventKeyDown:
		obs.Kind = hook.ObservationKeyDown
		obs.Key = keyFromDarwinKeycode(keycode)
		obs.RawCode = keycode
		obs.Repeat = repeat
		obs.Char = chr

	case C.kCGEventKeyUp:
		obs.Kind = hook.ObservationKeyUp
		obs.Key = keyFromDarwinKeycode(keycode)
		obs.RawCode = keycode

	case C.kCGEventFlagsChanged:
		// 修饰键状态整体上报，由分类器 diff 出按下/释放
		obs.Kind = hook.ObservationModifiers
		obs.Key = keyFromDarwinKeycode(keycode)
		obs.RawCode = keycode
		obs.Modifiers = maskFromFlags(flags)

	case C.kCGEventLeftMouseDown, C.kCGEventRightMouseDown, C.kCGEventOtherMouseDown:
		obs.Kind = hook.ObservationButtonDown
		obs.Button = buttonFromNumber(button)

	case C.kCGEventLeftMouseUp, C.kCGEventRightMouseUp, C.kCGEventOtherMouseUp:
		obs.Kind = hook.ObservationButtonUp
		obs.Button = buttonFromNumber(button)

	case C.kCGEventMouseMoved:
		obs.Kind = hook.ObservationMove

	case C.kCGEventLeftMouseDragged, C.kCGEventRightMouseDragged, C.kCGEventOtherMouseDragged:
		// 系统已判定的拖拽保持拖拽语义
		obs.Kind = hook.ObservationDrag

	case C.kCGEventScrollWheel:
		obs.Kind = hook.ObservationWheel
		obs.WheelDeltaY = dy
		obs.WheelDeltaX = dx

	default:
		return hook.Observation{}, false
	}

	return obs, true
}

// maskFromFlags CGEventFlags 到 Mask 修饰键位的转换
func maskFromFlags(flags uint64) uint32 {
	var m uint32
	if flags&uint64(C.kCGEventFlagMaskShift) != 0 {
		m |= state.MaskShift
	}
	if flags&uint64(C.kCGEventFlagMaskControl) != 0 {
		m |= state.MaskCtrl
	}
	if flags&uint64(C.kCGEventFlagMaskAlternate) != 0 {
		m |= state.MaskAlt
	}
	if flags&uint64(C.kCGEventFlagMaskCommand) != 0 {
		m |= state.MaskMeta
	}
	if flags&uint64(C.kCGEventFlagMaskAlphaShift) != 0 {
		m |= state.MaskCapsLock
	}
	return m
}

// buttonFromNumber 鼠标按键号到归一化按键的转换
func buttonFromNumber(n int) events.Button {
	switch n {
	case 0:
		return events.ButtonLeft
	case 1:
		return events.ButtonRight
	case 2:
		return events.ButtonMiddle
	case 3:
		return events.ButtonFourth
	case 4:
		return events.ButtonFifth
	}
	return events.ButtonNone
}

// Run 建立 event tap 并阻塞泵送观察
//
// 创建失败时按权限探测结果返回 ErrPermissionDenied 或
// ErrBackendUnavailable。正常停止返回 nil。
func (b *DarwinBackend) Run(handler hook.ObservationHandler) error {
	b.mu.Lock()
	if b.isRunning {
		b.mu.Unlock()
		return fmt.Errorf("darwin backend already running")
	}
	b.handler = handler
	b.isRunning = true
	b.mu.Unlock()

	backendMutex.Lock()
	activeBackend = b
	backendMutex.Unlock()

	ret := C.runEventTap()

	backendMutex.Lock()
	activeBackend = nil
	backendMutex.Unlock()

	b.mu.Lock()
	b.handler = nil
	b.isRunning = false
	b.mu.Unlock()

	if ret != 0 {
		if b.permissions.CheckPermission(PermissionAccessibility) == PermissionStatusDenied {
			return fmt.Errorf("%w: 创建 event tap 失败，请在系统设置中授予辅助功能权限",
				hook.ErrPermissionDenied)
		}
		return fmt.Errorf("%w: 创建 event tap 失败", hook.ErrBackendUnavailable)
	}
	return nil
}

// Stop 停止捕获 run loop，幂等
func (b *DarwinBackend) Stop() error {
	b.mu.RLock()
	running := b.isRunning
	b.mu.RUnlock()
	if !running {
		return nil
	}
	C.stopEventTap()
	return nil
}

// CanGrab macOS 的 event tap 支持事件消费
func (b *DarwinBackend) CanGrab() bool {
	return true
}

// Simulate 通过 CGEventPost 注入合成事件
func (b *DarwinBackend) Simulate(ev events.Event) error {
	switch ev.Type {
	case events.EventTypeKeyPressed, events.EventTypeKeyReleased:
		if ev.Keyboard == nil {
			return fmt.Errorf("键盘事件缺少载荷")
		}
		keycode := ev.Keyboard.RawCode
		if keycode == 0 {
			code, ok := darwinKeyToKeycode[ev.Keyboard.Key]
			if !ok {
				return fmt.Errorf("无法映射按键: %s", ev.Keyboard.Key)
			}
			keycode = code
		}
		down := 0
		if ev.Type == events.EventTypeKeyPressed {
			down = 1
		}
		C.postKeyEvent(C.uint(keycode), C.int(down))
		return nil

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
		C.postMouseEvent(C.int(C.kCGEventMouseMoved), C.double(ev.Mouse.X), C.double(ev.Mouse.Y), 0, 0)
		return nil

	case events.EventTypeMouseWheel:
		if ev.Wheel == nil {
			return fmt.Errorf("滚轮事件缺少载荷")
		}
		dy, dx := wheelDeltas(ev.Wheel)
		C.postWheelEvent(C.int(dy), C.int(dx))
		return nil
	}

	return fmt.Errorf("不支持注入的事件类型: %s", ev.Type)
}

// simulateButton 注入鼠标按键事件；mouse_clicked 展开为按下+释放
func (b *DarwinBackend) simulateButton(ev events.Event) error {
	num, downType, upType, ok := darwinMouseTypes(ev.Mouse.Button)
	if !ok {
		return fmt.Errorf("无法映射鼠标按键: %s", ev.Mouse.Button)
	}

	clicks := ev.Mouse.Clicks
	if clicks <= 0 {
		clicks = 1
	}
	x, y := C.double(ev.Mouse.X), C.double(ev.Mouse.Y)

	switch ev.Type {
	case events.EventTypeMousePressed:
		C.postMouseEvent(downType, x, y, num, C.int(clicks))
	case events.EventTypeMouseReleased:
		C.postMouseEvent(upType, x, y, num, C.int(clicks))
	case events.EventTypeMouseClicked:
		C.postMouseEvent(downType, x, y, num, C.int(clicks))
		C.postMouseEvent(upType, x, y, num, C.int(clicks))
	}
	return nil
}

// darwinMouseTypes 归一化按键到 CGEventType 与按键号的映射
func darwinMouseTypes(button events.Button) (num C.int, down, up C.int, ok bool) {
	switch button {
	case events.ButtonLeft:
		return 0, C.int(C.kCGEventLeftMouseDown), C.int(C.kCGEventLeftMouseUp), true
	case events.ButtonRight:
		return 1, C.int(C.kCGEventRightMouseDown), C.int(C.kCGEventRightMouseUp), true
	case events.ButtonMiddle:
		return 2, C.int(C.kCGEventOtherMouseDown), C.int(C.kCGEventOtherMouseUp), true
	case events.ButtonFourth:
		return 3, C.int(C.kCGEventOtherMouseDown), C.int(C.kCGEventOtherMouseUp), true
	case events.ButtonFifth:
		return 4, C.int(C.kCGEventOtherMouseDown), C.int(C.kCGEventOtherMouseUp), true
	}
	return 0, 0, 0, false
}

// wheelDeltas 归一化滚轮载荷到带符号的纵横滚动量
func wheelDeltas(w *events.WheelData) (dy, dx int) {
	switch w.Direction {
	case events.ScrollUp:
		dy = int(w.Delta)
	case events.ScrollDown:
		dy = -int(w.Delta)
	case events.ScrollLeft:
		dx = int(w.Delta)
	case events.ScrollRight:
		dx = -int(w.Delta)
	}
	return dy, dx
}
