package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/chenyang-zz/inputtap/pkg/events"
	"github.com/chenyang-zz/inputtap/pkg/logger"
)

/**
 * BatchWriterConfig 批量写入器配置
 */
type BatchWriterConfig struct {
	// BatchSize 批量大小（达到此数量时自动刷新）
	BatchSize int

	// FlushInterval 刷新间隔（定时刷新）
	FlushInterval time.Duration

	// EventBuffer 缓冲区大小（channel 容量）
	EventBuffer int
}

/**
 * DefaultBatchWriterConfig 默认配置
 */
func DefaultBatchWriterConfig() BatchWriterConfig {
	return BatchWriterConfig{
		BatchSize:     200,
		FlushInterval: 2 * time.Second,
		EventBuffer:   2048,
	}
}

/**
 * BatchWriter 批量写入器
 *
 * 在捕获通道与 SQLite 之间做缓冲：Write 非阻塞入队，
 * 后台按批量大小或时间间隔刷盘。输入事件速率远高于
 * 磁盘写入合理频率，逐条落盘不可行。
 */
type BatchWriter struct {
	repo   EventRepository
	config BatchWriterConfig

	// eventChan 事件通道
	eventChan chan events.Event

	// buffer 批量缓冲区
	buffer []events.Event

	// 统计计数
	received  atomic.Int64
	persisted atomic.Int64
	dropped   atomic.Int64

	// 并发控制
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started bool
}

/**
 * NewBatchWriter 创建批量写入器
 *
 * Parameters:
 *   - repo: 事件仓储
 *   - config: 配置（使用 DefaultBatchWriterConfig() 获取默认配置）
 *
 * Returns: *BatchWriter - 批量写入器实例
 */
func NewBatchWriter(repo EventRepository, config BatchWriterConfig) *BatchWriter {
	ctx, cancel := context.WithCancel(context.Background())

	return &BatchWriter{
		repo:      repo,
		config:    config,
		eventChan: make(chan events.Event, config.EventBuffer),
		buffer:    make([]events.Event, 0, config.BatchSize),
		ctx:       ctx,
		cancel:    cancel,
	}
}

/**
 * Start 启动批量写入器
 *
 * 开始处理事件通道和定时刷新，幂等。
 */
func (bw *BatchWriter) Start() {
	bw.mu.Lock()
	defer bw.mu.Unlock()

	if bw.started {
		logger.Warn("批量写入器已经启动")
		return
	}
	bw.started = true

	bw.wg.Add(2)
	go bw.processEvents()
	go bw.flushLoop()

	logger.Info("批量写入器已启动",
		zap.Int("batch_size", bw.config.BatchSize),
		zap.Duration("flush_interval", bw.config.FlushInterval),
		zap.Int("event_buffer", bw.config.EventBuffer),
	)
}

/**
 * Stop 停止批量写入器
 *
 * 停止接收新事件，刷新缓冲区，等待所有写入完成。
 */
func (bw *BatchWriter) Stop() {
	bw.mu.Lock()
	if !bw.started {
		bw.mu.Unlock()
		return
	}
	bw.started = false
	bw.mu.Unlock()

	close(bw.eventChan)
	bw.cancel()
	bw.wg.Wait()

	// 刷掉停止前残留的缓冲
	bw.mu.Lock()
	bw.flush()
	bw.mu.Unlock()

	logger.Info("批量写入器已停止",
		zap.Int64("received", bw.received.Load()),
		zap.Int64("persisted", bw.persisted.Load()),
		zap.Int64("dropped", bw.dropped.Load()),
	)
}

/**
 * Write 写入单个事件
 *
 * 非阻塞：通道满时丢弃并计数，绝不阻塞捕获路径。
 *
 * Returns: bool - 是否成功入队
 */
func (bw *BatchWriter) Write(event events.Event) bool {
	bw.received.Add(1)
	select {
	case bw.eventChan <- event:
		return true
	default:
		bw.dropped.Add(1)
		logger.Warn("批量写入器通道已满，事件丢弃",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
		)
		return false
	}
}

/**
 * ForceFlush 强制刷新缓冲区
 */
func (bw *BatchWriter) ForceFlush() {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	bw.flush()
}

// processEvents 从通道接收事件并按批量大小触发刷新
func (bw *BatchWriter) processEvents() {
	defer bw.wg.Done()

	for event := range bw.eventChan {
		bw.mu.Lock()
		bw.buffer = append(bw.buffer, event)
		if len(bw.buffer) >= bw.config.BatchSize {
			bw.flush()
		}
		bw.mu.Unlock()
	}
}

// flushLoop 定时刷新循环
func (bw *BatchWriter) flushLoop() {
	defer bw.wg.Done()

	ticker := time.NewTicker(bw.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-bw.ctx.Done():
			return
		case <-ticker.C:
			bw.mu.Lock()
			bw.flush()
			bw.mu.Unlock()
		}
	}
}

// flush 刷新缓冲区到数据库，必须在持有锁的情况下调用
func (bw *BatchWriter) flush() {
	if len(bw.buffer) == 0 {
		return
	}

	start := time.Now()
	count := len(bw.buffer)

	if err := bw.repo.SaveBatch(bw.buffer); err != nil {
		logger.Error("批量写入失败",
			zap.Int("count", count),
			zap.Error(err),
		)
		return
	}

	bw.buffer = bw.buffer[:0]
	bw.persisted.Add(int64(count))

	logger.Debug("批量刷新完成",
		zap.Int("count", count),
		zap.Duration("duration", time.Since(start)),
	)
}

/**
 * BufferSize 当前缓冲区中的事件数量
 */
func (bw *BatchWriter) BufferSize() int {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return len(bw.buffer)
}

/**
 * Persisted 已成功持久化的事件数
 */
func (bw *BatchWriter) Persisted() int64 {
	return bw.persisted.Load()
}

/**
 * Dropped 因通道满被丢弃的事件数
 */
func (bw *BatchWriter) Dropped() int64 {
	return bw.dropped.Load()
}
