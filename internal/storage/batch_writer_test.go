package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenyang-zz/inputtap/pkg/events"
)

// TestBatchWriter_WriteAndFlush 写入与强制刷新
func TestBatchWriter_WriteAndFlush(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteEventRepository(db)

	config := DefaultBatchWriterConfig()
	config.BatchSize = 100
	config.FlushInterval = time.Hour // 只靠手动刷新

	bw := NewBatchWriter(repo, config)
	bw.Start()
	defer bw.Stop()

	for i := 0; i < 3; i++ {
		ok := bw.Write(events.NewKeyPressed(0, time.Now(), events.KeyA, 30, false))
		assert.True(t, ok)
	}

	// 等事件进入缓冲
	require.Eventually(t, func() bool {
		return bw.BufferSize() == 3
	}, time.Second, 10*time.Millisecond)

	bw.ForceFlush()
	assert.Equal(t, int64(3), bw.Persisted())

	saved, err := repo.FindRecent(10)
	require.NoError(t, err)
	assert.Len(t, saved, 3)
}

// TestBatchWriter_AutoFlushBySize 达到批量大小自动刷新
func TestBatchWriter_AutoFlushBySize(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteEventRepository(db)

	config := DefaultBatchWriterConfig()
	config.BatchSize = 5
	config.FlushInterval = time.Hour

	bw := NewBatchWriter(repo, config)
	bw.Start()
	defer bw.Stop()

	for i := 0; i < 5; i++ {
		bw.Write(events.NewKeyPressed(0, time.Now(), events.KeyA, 30, false))
	}

	require.Eventually(t, func() bool {
		return bw.Persisted() == 5
	}, time.Second, 10*time.Millisecond, "达到批量大小应自动落盘")
}

// TestBatchWriter_AutoFlushByInterval 定时刷新
func TestBatchWriter_AutoFlushByInterval(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteEventRepository(db)

	config := DefaultBatchWriterConfig()
	config.BatchSize = 1000
	config.FlushInterval = 50 * time.Millisecond

	bw := NewBatchWriter(repo, config)
	bw.Start()
	defer bw.Stop()

	bw.Write(events.NewKeyPressed(0, time.Now(), events.KeyA, 30, false))

	require.Eventually(t, func() bool {
		return bw.Persisted() == 1
	}, time.Second, 10*time.Millisecond, "到达刷新间隔应自动落盘")
}

// TestBatchWriter_StopFlushesRemainder 停止时刷掉残留缓冲
func TestBatchWriter_StopFlushesRemainder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteEventRepository(db)

	config := DefaultBatchWriterConfig()
	config.BatchSize = 1000
	config.FlushInterval = time.Hour

	bw := NewBatchWriter(repo, config)
	bw.Start()

	for i := 0; i < 7; i++ {
		bw.Write(events.NewKeyPressed(0, time.Now(), events.KeyA, 30, false))
	}
	bw.Stop()

	assert.Equal(t, int64(7), bw.Persisted())

	saved, err := repo.FindRecent(10)
	require.NoError(t, err)
	assert.Len(t, saved, 7)
}

// TestBatchWriter_DropWhenFull 通道满时非阻塞丢弃
func TestBatchWriter_DropWhenFull(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteEventRepository(db)

	config := BatchWriterConfig{
		BatchSize:     1000,
		FlushInterval: time.Hour,
		EventBuffer:   2,
	}

	// 不启动后台协程，通道只能容纳 2 个事件
	bw := NewBatchWriter(repo, config)

	assert.True(t, bw.Write(events.NewKeyPressed(0, time.Now(), events.KeyA, 30, false)))
	assert.True(t, bw.Write(events.NewKeyPressed(0, time.Now(), events.KeyB, 48, false)))
	assert.False(t, bw.Write(events.NewKeyPressed(0, time.Now(), events.KeyC, 46, false)), "通道满时丢弃")
	assert.Equal(t, int64(1), bw.Dropped())
}

// TestBatchWriter_StopIdempotent 重复停止无害
func TestBatchWriter_StopIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteEventRepository(db)

	bw := NewBatchWriter(repo, DefaultBatchWriterConfig())
	bw.Start()
	bw.Stop()
	bw.Stop()
}
