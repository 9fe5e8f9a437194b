/**
 * Package recorder 提供输入事件的录制与回放
 *
 * 录制以相对时间步的形式保存事件序列，可序列化为 JSON 文件；
 * 回放通过注入接口按原始节奏（或倍速）重现事件。
 */

package recorder

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chenyang-zz/inputtap/pkg/events"
	"github.com/chenyang-zz/inputtap/pkg/logger"
)

// ErrNotRecording 未处于录制状态
var ErrNotRecording = errors.New("recorder: not recording")

// ErrAlreadyRecording 已处于录制状态
var ErrAlreadyRecording = errors.New("recorder: already recording")

/**
 * Step 录制步骤
 *
 * Elapsed 是相对录制起点的偏移，回放据此还原节奏。
 */
type Step struct {
	// Elapsed 相对录制起点的时间偏移
	Elapsed time.Duration `json:"elapsed"`

	// Event 录制的事件
	Event events.Event `json:"event"`
}

/**
 * Recording 一段完整的录制
 */
type Recording struct {
	// ID 录制唯一标识符
	ID string `json:"id"`

	// Description 录制描述
	Description string `json:"description,omitempty"`

	// CreatedAt 录制创建时间
	CreatedAt time.Time `json:"created_at"`

	// Steps 按时间顺序排列的事件步骤
	Steps []Step `json:"steps"`
}

// Duration 录制总时长（最后一步的偏移）
func (r *Recording) Duration() time.Duration {
	if len(r.Steps) == 0 {
		return 0
	}
	return r.Steps[len(r.Steps)-1].Elapsed
}

/**
 * Save 将录制保存为 JSON 文件
 */
func (r *Recording) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化录制失败: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入录制文件失败: %w", err)
	}

	logger.Info("录制已保存",
		zap.String("id", r.ID),
		zap.String("path", path),
		zap.Int("steps", len(r.Steps)),
	)
	return nil
}

/**
 * Load 从 JSON 文件加载录制
 */
func Load(path string) (*Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取录制文件失败: %w", err)
	}

	var rec Recording
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("解析录制文件失败: %w", err)
	}
	return &rec, nil
}

/**
 * Recorder 事件录制器
 *
 * 消费者把捕获到的事件喂给 Feed，Stop 返回完整录制。
 * 生命周期事件不进入录制。
 */
type Recorder struct {
	mu        sync.Mutex
	recording bool
	startedAt time.Time
	steps     []Step
}

/**
 * NewRecorder 创建录制器
 */
func NewRecorder() *Recorder {
	return &Recorder{}
}

/**
 * Start 开始录制
 *
 * Returns: error - 已在录制中返回 ErrAlreadyRecording
 */
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return ErrAlreadyRecording
	}
	r.recording = true
	r.startedAt = time.Now()
	r.steps = nil

	logger.Info("开始录制")
	return nil
}

/**
 * Feed 录入一个事件
 *
 * 偏移优先取事件自身的时间戳，无效时间回退到当前时间。
 * 未在录制中或生命周期事件会被静默忽略。
 */
func (r *Recorder) Feed(ev events.Event) {
	if ev.IsLifecycle() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return
	}

	at := ev.Time
	if at.IsZero() {
		at = time.Now()
	}
	elapsed := at.Sub(r.startedAt)
	if elapsed < 0 {
		elapsed = 0
	}

	r.steps = append(r.steps, Step{Elapsed: elapsed, Event: ev})
}

/**
 * Stop 结束录制并返回结果
 *
 * Parameters:
 *   - description: 录制描述
 *
 * Returns: *Recording - 完整录制, error - 未在录制中返回 ErrNotRecording
 */
func (r *Recorder) Stop(description string) (*Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return nil, ErrNotRecording
	}
	r.recording = false

	rec := &Recording{
		ID:          uuid.New().String(),
		Description: description,
		CreatedAt:   r.startedAt,
		Steps:       r.steps,
	}
	r.steps = nil

	logger.Info("录制结束",
		zap.String("id", rec.ID),
		zap.Int("steps", len(rec.Steps)),
		zap.Duration("duration", rec.Duration()),
	)
	return rec, nil
}

// IsRecording 当前是否在录制中
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// StepCount 当前已录入的步骤数
func (r *Recorder) StepCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.steps)
}
