package recorder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chenyang-zz/inputtap/pkg/events"
	"github.com/chenyang-zz/inputtap/pkg/logger"
)

/**
 * Simulator 事件注入接口
 *
 * 由捕获后端实现（hook.Backend 满足此接口），
 * 测试中可用假实现替代。
 */
type Simulator interface {
	Simulate(ev events.Event) error
}

// replayable 判断事件是否需要注入
//
// 派生事件（字符输入、点击汇总）不注入：对应的
// pressed/released 步骤回放时系统会重新产生它们。
func replayable(ev events.Event) bool {
	switch ev.Type {
	case events.EventTypeKeyTyped, events.EventTypeMouseClicked:
		return false
	}
	return !ev.IsLifecycle()
}

/**
 * Playback 按原始节奏回放录制
 */
func Playback(ctx context.Context, sim Simulator, rec *Recording) error {
	return PlaybackWithSpeed(ctx, sim, rec, 1.0)
}

/**
 * PlaybackWithSpeed 以指定倍速回放录制
 *
 * speed 大于 1 加速，小于 1 减速；非正值按 1.0 处理。
 * ctx 取消时立即中止并返回 ctx.Err()。
 *
 * Parameters:
 *   - ctx: 上下文（取消控制）
 *   - sim: 事件注入接口
 *   - rec: 待回放的录制
 *   - speed: 速度倍率
 *
 * Returns: error - 注入失败或上下文取消
 */
func PlaybackWithSpeed(ctx context.Context, sim Simulator, rec *Recording, speed float64) error {
	if speed <= 0 {
		speed = 1.0
	}

	logger.Info("开始回放",
		zap.String("id", rec.ID),
		zap.Int("steps", len(rec.Steps)),
		zap.Float64("speed", speed),
	)

	start := time.Now()
	injected := 0

	for _, step := range rec.Steps {
		if !replayable(step.Event) {
			continue
		}

		// 目标时刻 = 起点 + 步骤偏移 / 倍速
		target := start.Add(time.Duration(float64(step.Elapsed) / speed))
		if wait := time.Until(target); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if err := sim.Simulate(step.Event); err != nil {
			return fmt.Errorf("回放第 %d 个事件失败: %w", injected+1, err)
		}
		injected++
	}

	logger.Info("回放完成",
		zap.String("id", rec.ID),
		zap.Int("injected", injected),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}
